/*
Package tui implements the live container dashboard from spec.md §4.5.2.

A single foreground goroutine owns the terminal via a *tview.Application.
Two cooperative goroutines feed it: the metrics ticker (pkg/metrics,
default 1000ms interval) and a log-follow goroutine per selected
container. All three communicate through message channels — there is no
mutable state shared across goroutines without a channel hop, matching
the "message-driven TUI" idiom noted in SPEC_FULL.md §9.

Layout is a 4-pane grid: a 20%-width container list on the left; the
remaining width split vertically into a 30% resource pane, a 30%
database-counters pane, and a 40% log-tail pane. A one-line status bar
at the bottom shows the active pane and key hints.

Redraws are coalesced: an idle metrics tick that changes nothing does
not trigger a new frame, and frames are never issued more often than
every 33ms, per the frame budget in spec.md §4.5.2.
*/
package tui
