package workload

import "time"

// CustomQuery is a named parameterized SQL statement the operation
// generator can pick among, per §4.4 Custom SQL.
type CustomQuery struct {
	Name   string
	SQL    string
	Params []string // simple per-? value kinds: "int", "string", "timestamp"
	Weight float64
}

// Config is the immutable input to Engine.Run, per §3 Workload config.
type Config struct {
	Name      string
	Pattern   string
	Tables    []string
	Workers   int
	TargetTPS float64

	Duration        time.Duration // 0 = unbounded (count governs)
	MaxTransactions int64         // 0 = unbounded (duration governs)

	CustomWeights *Weights
	CustomQueries []CustomQuery

	// AllowDestructiveDeletes switches DELETE to target in-range,
	// previously-seeded pks instead of the default out-of-range no-op
	// targets. Per SPEC_FULL.md §5.4 (ADD) Destructive-delete opt-in,
	// resolving the first Open Question; default false.
	AllowDestructiveDeletes bool
}
