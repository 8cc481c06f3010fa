/*
Package metrics samples container resource usage and database counters
for running dbarena containers, and exposes the results both as
in-process Prometheus vectors (for the `stats --json` path and the TUI's
rate bookkeeping) and as plain Snapshot values.

# Resource sampling

For each container, Collector.Sample polls the container engine's
statistics endpoint once per call. CPU percentage is computed as
(Δcontainer_cpu / Δsystem_cpu) × NCPU × 100; network and block I/O rates
are byte-deltas divided by elapsed seconds. The first sample for a
container always yields zero rates — there is no prior baseline yet.

# Database sampling

Collector execs the database's native client inside the container with
a small, fixed SQL probe (dbkind.MetricProbe) and parses the tabular
result into cumulative counters. Counter rates follow the same
contract as resource sampling: a negative delta, observed after a
container restart, re-anchors the baseline and reports rate zero rather
than a negative or inflated number.

QPS is defined strictly as (Δxact_commit + Δxact_rollback) / Δt. It is
never derived from tuple-level counters, which climb under background
activity (autovacuum, monitoring queries) independent of the workload
being measured.

# Usage

	collector := metrics.NewCollector(eng)
	snap, err := collector.Sample(ctx, metrics.Target{
		ContainerID: id,
		Kind:        dbkind.Postgres,
		User:        "postgres",
		Database:    "postgres",
	})
	if !snap.Ready() {
		// fewer than two samples taken; display "—" rather than 0
	}

For a ticking feed (used by both `stats --follow` and the TUI):

	out := make(chan []metrics.Snapshot, 1)
	collector.Run(ctx, time.Second, targetsFunc, out)
	defer collector.Stop()
*/
package metrics
