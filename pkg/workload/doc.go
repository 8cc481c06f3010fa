/*
Package workload drives concurrent CRUD against a healthy, seeded
database at a controlled rate for a bounded duration (SPEC_FULL.md §5.4
/ C4). N worker goroutines, each owning a connection out of a pooled
*sql.DB sized to N, pull tokens from a golang.org/x/time/rate.Limiter
token bucket, generate one operation from the pattern's weight
distribution, execute it, and record the outcome under a single mutex.
Termination is duration-or-count, whichever comes first, with SIGINT
converging to the same graceful path.
*/
package workload
