package workload

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/cuemby/dbarena/pkg/dbkind"
)

// ColumnMeta is one column's shape from information_schema.
type ColumnMeta struct {
	Name     string
	DataType string
	Nullable bool
}

// TableMeta is the per-table cache entry built at startup, per §4.4
// Operation generation: columns, types, and primary-key column.
type TableMeta struct {
	Name       string
	Columns    []ColumnMeta
	PKColumn   string
	seededMax  int64 // atomically bumped as INSERTs succeed during the run
}

// SeededMax returns the current upper bound of previously-seeded pk
// values known to the engine, updated as the workload inserts rows.
func (t *TableMeta) SeededMax() int64 { return atomic.LoadInt64(&t.seededMax) }

func (t *TableMeta) bumpSeededMax(v int64) {
	for {
		cur := atomic.LoadInt64(&t.seededMax)
		if v <= cur {
			return
		}
		if atomic.CompareAndSwapInt64(&t.seededMax, cur, v) {
			return
		}
	}
}

// nonKeyColumns returns every column except the primary key, for UPDATE
// generation.
func (t *TableMeta) nonKeyColumns() []ColumnMeta {
	out := make([]ColumnMeta, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name != t.PKColumn {
			out = append(out, c)
		}
	}
	return out
}

// BuildCatalog queries information_schema (or its dialect equivalent)
// for each table and probes the current max primary key, per §4.4's
// "requires ... a prior SELECT MAX(pk) probe" note.
func BuildCatalog(ctx context.Context, db *sql.DB, dial dbkind.Dialect, tables []string) (map[string]*TableMeta, error) {
	catalog := make(map[string]*TableMeta, len(tables))

	for _, table := range tables {
		rows, err := db.QueryContext(ctx, dial.InformationSchemaQuery(table))
		if err != nil {
			return nil, fmt.Errorf("querying schema for %s: %w", table, err)
		}

		var columns []ColumnMeta
		for rows.Next() {
			var name, dataType, nullable string
			if err := rows.Scan(&name, &dataType, &nullable); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning schema row for %s: %w", table, err)
			}
			columns = append(columns, ColumnMeta{Name: name, DataType: dataType, Nullable: strings.EqualFold(nullable, "YES")})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("reading schema rows for %s: %w", table, err)
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("table %s has no columns (does it exist?)", table)
		}

		meta := &TableMeta{Name: table, Columns: columns, PKColumn: guessPKColumn(columns)}

		maxQuery := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) FROM %s", dial.QuoteIdent(meta.PKColumn), dial.QuoteIdent(table))
		var max int64
		if err := db.QueryRowContext(ctx, maxQuery).Scan(&max); err != nil {
			return nil, fmt.Errorf("probing seeded max for %s: %w", table, err)
		}
		meta.seededMax = max

		catalog[table] = meta
	}

	return catalog, nil
}

// guessPKColumn picks "id" if present, otherwise the first column.
// dbarena's seeded schemas always name the primary key "id"; this is a
// convention, not a constraint enforced elsewhere.
func guessPKColumn(columns []ColumnMeta) string {
	for _, c := range columns {
		if strings.EqualFold(c.Name, "id") {
			return c.Name
		}
	}
	return columns[0].Name
}
