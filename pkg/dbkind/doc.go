/*
Package dbkind models the three database kinds dbarena manages — postgres,
mysql, sqlserver — as a single tagged-variant Kind plus a capability set,
per the design note in SPEC_FULL.md §9:

	┌────────────────────────── dbkind.Kind ───────────────────────────┐
	│                                                                    │
	│   postgres          mysql             sqlserver                   │
	│      │                │                   │                      │
	│      ▼                ▼                   ▼                      │
	│  ┌────────────────────────────────────────────────┐               │
	│  │               Capability bundle                 │               │
	│  │  ReadinessProbe  – in-container exec argv         │               │
	│  │  InitInvoker     – native client argv for a script│               │
	│  │  Dialect         – identifier quoting, value escape│              │
	│  │  MetricProbe     – SQL text for the stats sampler │               │
	│  │  ErrorParser     – line/code/message extraction   │               │
	│  └────────────────────────────────────────────────┘               │
	└─────────────────────────────────────────────────────────────────┘

Callers dispatch by switching on Kind once, at the edge (container
creation, init execution, seeding, workload generation, metrics
sampling); everything downstream consumes the Capability interfaces, never
the Kind string again. This keeps per-kind differences — command lines,
quoting rules, probe queries — localized to one file per kind instead of
scattered switch statements.
*/
package dbkind
