/*
Package dbconn opens a *sql.DB against a managed container's exposed
host port, one driver per dbkind.Kind. pkg/seed and pkg/workload both
use it so neither hand-rolls its own DSN construction.
*/
package dbconn
