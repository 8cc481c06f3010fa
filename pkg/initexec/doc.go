/*
Package initexec runs init scripts against a freshly healthy managed
container (SPEC_FULL.md §5.2 / C2): stage each script under
/var/dbarena_init/ via the engine's archive-upload API, invoke the
database's native client per dbkind.InitInvoker, detect failure via
exit code and kind-specific error markers, parse failures via
dbkind.ErrorParser, and write a per-session log directory with a
metadata.json summary.
*/
package initexec
