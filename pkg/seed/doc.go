/*
Package seed populates managed database tables with synthetic rows in
FK dependency order (SPEC_FULL.md §5.3 / C3). A rule set is compiled
into a per-table dependency DAG, topologically sorted with cycle
detection; rows are generated column by column via a tagged generator
variant and buffered into dialect-quoted multi-row INSERT batches.

Randomness is PCG64 (math/rand/v2's NewPCG), seeded deterministically
per (global_seed, table, column) by hashing the triple with FNV-1a into
two uint64 seed words, so identical inputs reproduce identical output
across runs and, in principle, across independent reimplementations.
*/
package seed
