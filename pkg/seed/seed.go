package seed

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/dbarena/pkg/dberrors"
	"github.com/cuemby/dbarena/pkg/dbkind"
	"github.com/cuemby/dbarena/pkg/log"
)

// TableSummary is one table's seeding outcome.
type TableSummary struct {
	Table        string
	RowsInserted int64
	Batches      int
}

// Summary is the overall seeding outcome, returned even on failure so
// the caller can see what completed before the stop, per §4.3 Failure
// semantics (partial prior batches are not rolled back).
type Summary struct {
	Tables    []TableSummary
	TotalRows int64
}

// Options controls one seeding run.
type Options struct {
	Scale     SizeScale
	Overrides map[string]int
	Truncate  bool
}

// Seeder populates tables in FK dependency order against an already
// open connection.
type Seeder struct {
	db     *sql.DB
	kind   dbkind.Kind
	dial   dbkind.Dialect
	logger zerolog.Logger
}

// New wraps a connection and kind for seeding.
func New(db *sql.DB, kind dbkind.Kind) (*Seeder, error) {
	caps, err := dbkind.For(kind)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, kind: kind, dial: caps.Dial, logger: log.WithComponent("seed")}, nil
}

// Run seeds every table in rs.Tables in dependency order.
func (s *Seeder) Run(ctx context.Context, rs RuleSet, opts Options) (Summary, error) {
	order, err := BuildOrder(rs.Tables)
	if err != nil {
		return Summary{}, dberrors.New(dberrors.KindSeedBatch, "seed", "build_order", err)
	}

	byName := map[string]TableRule{}
	for _, t := range rs.Tables {
		byName[t.Name] = t
	}

	var globalSeed uint64
	if rs.GlobalSeed != nil {
		globalSeed = *rs.GlobalSeed
	}

	reg := newRegistry()
	cnt := newCounters()
	batchSize := rs.EffectiveBatchSize()

	summary := Summary{}

	for _, name := range order {
		table := byName[name]
		rowCount := EffectiveRowCount(table.RowCount, opts.Scale, opts.Overrides, name)

		if opts.Truncate {
			if err := s.truncate(ctx, name); err != nil {
				return summary, dberrors.New(dberrors.KindSeedBatch, "seed", "truncate", err).WithDetail("table=" + name)
			}
		}

		rngs := make(map[string]*rand.Rand)
		for _, col := range table.Columns {
			rngs[col.Name] = rngFor(globalSeed, name, col.Name)
		}

		tableSummary := TableSummary{Table: name}
		var batch [][]any

		flush := func(batchIndex int) error {
			if len(batch) == 0 {
				return nil
			}
			if err := s.insertBatch(ctx, table, batch); err != nil {
				return fmt.Errorf("table %s batch %d: %w", name, batchIndex, err)
			}
			tableSummary.RowsInserted += int64(len(batch))
			tableSummary.Batches++
			batch = batch[:0]
			return nil
		}

		batchIndex := 0
		for rowIndex := 0; rowIndex < rowCount; rowIndex++ {
			row := make([]any, len(table.Columns))
			for ci, col := range table.Columns {
				v, err := generateValue(col.Generator, name, col.Name, rowIndex, rngs[col.Name], cnt, reg)
				if err != nil {
					return summary, dberrors.New(dberrors.KindSeedBatch, "seed", "generate", err).WithDetail(fmt.Sprintf("table=%s column=%s", name, col.Name))
				}
				row[ci] = v
			}
			for ci, col := range table.Columns {
				reg.record(name, col.Name, row[ci])
			}
			batch = append(batch, row)

			if len(batch) >= batchSize {
				if err := flush(batchIndex); err != nil {
					summary.Tables = append(summary.Tables, tableSummary)
					return summary, dberrors.New(dberrors.KindSeedBatch, "seed", "insert", err)
				}
				batchIndex++
			}
		}
		if err := flush(batchIndex); err != nil {
			summary.Tables = append(summary.Tables, tableSummary)
			return summary, dberrors.New(dberrors.KindSeedBatch, "seed", "insert", err)
		}

		summary.Tables = append(summary.Tables, tableSummary)
		summary.TotalRows += tableSummary.RowsInserted
		s.logger.Info().Str("table", name).Int64("rows", tableSummary.RowsInserted).Msg("table seeded")
	}

	return summary, nil
}

func (s *Seeder) truncate(ctx context.Context, table string) error {
	stmt := fmt.Sprintf("TRUNCATE TABLE %s", s.dial.QuoteIdent(table))
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

func (s *Seeder) insertBatch(ctx context.Context, table TableRule, rows [][]any) error {
	cols := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = s.dial.QuoteIdent(c.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", s.dial.QuoteIdent(table.Name), strings.Join(cols, ", "))

	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j, v := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(s.formatValue(v))
		}
		sb.WriteString(")")
	}

	_, err := s.db.ExecContext(ctx, sb.String())
	return err
}

// formatValue renders a generated value as a SQL literal using the
// dialect's escaping rules. Values here are always synthetic, but
// string escaping is still dialect-correct rather than naive
// interpolation, per §4.3 Batching.
func (s *Seeder) formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	switch val := v.(type) {
	case string:
		return "'" + s.dial.EscapeString(val) + "'"
	case bool:
		return s.formatBool(val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%v", val)
	case time.Time:
		return "'" + val.UTC().Format("2006-01-02 15:04:05") + "'"
	default:
		return "'" + s.dial.EscapeString(fmt.Sprintf("%v", val)) + "'"
	}
}

func (s *Seeder) formatBool(b bool) string {
	if s.kind == dbkind.Postgres {
		if b {
			return "TRUE"
		}
		return "FALSE"
	}
	if b {
		return "1"
	}
	return "0"
}
