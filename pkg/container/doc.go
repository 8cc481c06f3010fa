/*
Package container is the single authority for managed container
existence (SPEC_FULL.md §5.1 / C1). It is a policy layer: all engine
calls go through pkg/engine.Engine, and all kind-specific command
lines and readiness semantics come from pkg/dbkind. Manager owns state
transitions; every other package holds only a container id.
*/
package container
