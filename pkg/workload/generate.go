package workload

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/cuemby/dbarena/pkg/dbkind"
)

// OperationKind tags a generated Operation, per §3 Operation.
type OperationKind string

const (
	OpSelect OperationKind = "select"
	OpInsert OperationKind = "insert"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
	OpCustom OperationKind = "custom"
)

// Operation is one generated unit of work, per §3.
type Operation struct {
	Kind      OperationKind
	Table     string
	CustomTag string
	SQL       string
	Args      []any
}

// generator picks an operation kind by weight and fills it from the
// table catalog, per §4.4 Operation generation.
type generator struct {
	dial    dbkind.Dialect
	tables  []*TableMeta
	weights Weights
	custom  []CustomQuery
	allowDestructive bool
}

func newGenerator(dial dbkind.Dialect, tables []*TableMeta, weights Weights, custom []CustomQuery, allowDestructive bool) *generator {
	return &generator{dial: dial, tables: tables, weights: weights, custom: custom, allowDestructive: allowDestructive}
}

func (g *generator) next() (Operation, error) {
	if len(g.tables) == 0 {
		return Operation{}, fmt.Errorf("no tables in scope")
	}

	table := g.tables[rand.IntN(len(g.tables))]

	if len(g.custom) > 0 {
		if cq, ok := g.pickCustom(); ok {
			return g.buildCustom(cq), nil
		}
	}

	switch g.pickKind() {
	case OpSelect:
		return g.buildSelect(table), nil
	case OpInsert:
		return g.buildInsert(table), nil
	case OpUpdate:
		return g.buildUpdate(table), nil
	default:
		return g.buildDelete(table), nil
	}
}

func (g *generator) pickCustom() (CustomQuery, bool) {
	var total float64
	for _, c := range g.custom {
		total += c.Weight
	}
	r := rand.Float64() * total
	var acc float64
	for _, c := range g.custom {
		acc += c.Weight
		if r <= acc {
			return c, true
		}
	}
	return CustomQuery{}, false
}

func (g *generator) pickKind() OperationKind {
	r := rand.Float64()
	switch {
	case r < g.weights.Select:
		return OpSelect
	case r < g.weights.Select+g.weights.Insert:
		return OpInsert
	case r < g.weights.Select+g.weights.Insert+g.weights.Update:
		return OpUpdate
	default:
		return OpDelete
	}
}

func (g *generator) buildSelect(t *TableMeta) Operation {
	max := t.SeededMax()
	if max < 1 {
		max = 1
	}
	pk := 1 + rand.Int64N(max)
	return Operation{
		Kind:  OpSelect,
		Table: t.Name,
		SQL:   fmt.Sprintf("SELECT * FROM %s WHERE %s = %s", g.dial.QuoteIdent(t.Name), g.dial.QuoteIdent(t.PKColumn), g.dial.Placeholder(1)),
		Args:  []any{pk},
	}
}

func (g *generator) buildInsert(t *TableMeta) Operation {
	cols := make([]string, 0, len(t.Columns))
	placeholders := make([]string, 0, len(t.Columns))
	args := make([]any, 0, len(t.Columns))

	for _, c := range t.Columns {
		if c.Name == t.PKColumn {
			continue
		}
		cols = append(cols, g.dial.QuoteIdent(c.Name))
		placeholders = append(placeholders, g.dial.Placeholder(len(args)+1))
		args = append(args, valueForType(c.DataType))
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		g.dial.QuoteIdent(t.Name), strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	return Operation{Kind: OpInsert, Table: t.Name, SQL: sql, Args: args}
}

func (g *generator) buildUpdate(t *TableMeta) Operation {
	nonKey := t.nonKeyColumns()
	max := t.SeededMax()
	if max < 1 {
		max = 1
	}
	pk := 1 + rand.Int64N(max)

	if len(nonKey) == 0 {
		return Operation{Kind: OpUpdate, Table: t.Name, SQL: fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s", g.dial.QuoteIdent(t.Name), g.dial.QuoteIdent(t.PKColumn), g.dial.Placeholder(1)), Args: []any{pk}}
	}

	col := nonKey[rand.IntN(len(nonKey))]
	sql := fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s",
		g.dial.QuoteIdent(t.Name), g.dial.QuoteIdent(col.Name), g.dial.Placeholder(1),
		g.dial.QuoteIdent(t.PKColumn), g.dial.Placeholder(2))

	return Operation{Kind: OpUpdate, Table: t.Name, SQL: sql, Args: []any{valueForType(col.DataType), pk}}
}

func (g *generator) buildDelete(t *TableMeta) Operation {
	max := t.SeededMax()
	var pk int64
	if g.allowDestructive {
		if max < 1 {
			max = 1
		}
		pk = 1 + rand.Int64N(max)
	} else {
		// Out-of-range target: the seeded corpus is never eroded, per
		// §4.4's DELETE rule.
		pk = max + 1 + rand.Int64N(1_000_000)
	}
	return Operation{
		Kind:  OpDelete,
		Table: t.Name,
		SQL:   fmt.Sprintf("DELETE FROM %s WHERE %s = %s", g.dial.QuoteIdent(t.Name), g.dial.QuoteIdent(t.PKColumn), g.dial.Placeholder(1)),
		Args:  []any{pk},
	}
}

func (g *generator) buildCustom(cq CustomQuery) Operation {
	args := make([]any, len(cq.Params))
	for i, kind := range cq.Params {
		args[i] = valueForType(kind)
	}
	return Operation{Kind: OpCustom, CustomTag: cq.Name, SQL: cq.SQL, Args: args}
}

// valueForType produces a plausible value for a column's data type,
// per §4.4's "generator-produced values matching column types". This
// is intentionally simpler than pkg/seed's full generator palette:
// the workload only needs type-shaped filler, not realistic synthetic
// content.
func valueForType(dataType string) any {
	dt := strings.ToLower(dataType)
	switch {
	case strings.Contains(dt, "int"):
		return rand.Int64N(1_000_000)
	case strings.Contains(dt, "bool"):
		return rand.IntN(2) == 1
	case strings.Contains(dt, "float") || strings.Contains(dt, "double") || strings.Contains(dt, "numeric") || strings.Contains(dt, "decimal"):
		return rand.Float64() * 1000
	case strings.Contains(dt, "time") || strings.Contains(dt, "date"):
		return time.Now()
	default:
		return fmt.Sprintf("val-%d", rand.Int64N(1_000_000))
	}
}
