package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"
)

// buildLayout assembles the 4-pane grid of spec.md §4.5.2: a 20%-width
// container list on the left, and the remaining width split vertically
// into a 30% resource pane, a 30% database pane, and a 40% log pane,
// with a one-line status bar pinned to the bottom row.
func (a *App) buildLayout() {
	a.list = tview.NewList().ShowSecondaryText(false)
	a.list.SetBorder(true).SetTitle(" containers ")

	a.resourceView = tview.NewTextView().SetDynamicColors(true)
	a.resourceView.SetBorder(true).SetTitle(" resource ")

	a.databaseView = tview.NewTextView().SetDynamicColors(true)
	a.databaseView.SetBorder(true).SetTitle(" database ")

	a.logsView = tview.NewTextView().SetDynamicColors(true).SetMaxLines(maxLogLines)
	a.logsView.SetBorder(true).SetTitle(" logs ")

	a.statusBar = tview.NewTextView().SetDynamicColors(true)

	// Columns: 20% container list, then the remaining 80% split 30/30/40
	// among resource/database/logs. tview.Grid columns are weights when
	// not given in fixed cells, so these proportions hold regardless of
	// terminal width.
	a.grid = tview.NewGrid().
		SetRows(-1, 1).
		SetColumns(-20, -30, -30, -40).
		SetBorders(false)

	a.grid.AddItem(a.list, 0, 0, 1, 1, 0, 0, true)
	a.grid.AddItem(a.resourceView, 0, 1, 1, 1, 0, 0, false)
	a.grid.AddItem(a.databaseView, 0, 2, 1, 1, 0, 0, false)
	a.grid.AddItem(a.logsView, 0, 3, 1, 1, 0, 0, false)
	a.grid.AddItem(a.statusBar, 1, 0, 1, 4, 0, 0, false)
}

// render repaints every pane from current state. It is always invoked
// via tview's QueueUpdateDraw, so it owns the terminal exclusively
// while running and may read a.containers/a.selected/a.active directly
// under a.mu.
func (a *App) render() {
	a.mu.Lock()
	containers := a.containers
	selected := a.selected
	active := a.active
	frozen := a.frozen
	interval := a.refreshInterval
	a.mu.Unlock()

	a.renderList(containers, selected)

	var cs *containerState
	if selected >= 0 && selected < len(containers) {
		cs = containers[selected]
	}
	a.renderResource(cs)
	a.renderDatabase(cs)
	a.renderLogs(cs)
	a.renderStatus(active, frozen, interval)
}

func (a *App) renderList(containers []*containerState, selected int) {
	a.list.Clear()
	for i, cs := range containers {
		label := fmt.Sprintf("%s [%s]", cs.Container.Name, cs.Container.Status)
		a.list.AddItem(label, "", 0, nil)
		if i == selected {
			a.list.SetCurrentItem(i)
		}
	}
}

const placeholder = "—"

func (a *App) renderResource(cs *containerState) {
	if cs == nil {
		a.resourceView.SetText(placeholder)
		return
	}
	if !cs.Snapshot.Ready() {
		a.resourceView.SetText("sampling...")
		return
	}

	r := cs.Snapshot.Resource
	history := make([]float64, 0, len(cs.Snapshot.History))
	for _, h := range cs.Snapshot.History {
		history = append(history, h.CPUPercent)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "cpu     %6.1f%%  %s\n", r.CPUPercent, sparkline(history))
	fmt.Fprintf(&b, "memory  %s / %s\n", humanBytes(r.MemoryUsage), humanBytes(r.MemoryLimit))
	fmt.Fprintf(&b, "net rx  %s/s\n", humanBytes(uint64(r.NetRxBytesPerSec)))
	fmt.Fprintf(&b, "net tx  %s/s\n", humanBytes(uint64(r.NetTxBytesPerSec)))
	fmt.Fprintf(&b, "blk r   %s/s\n", humanBytes(uint64(r.BlkReadBytesPerSec)))
	fmt.Fprintf(&b, "blk w   %s/s\n", humanBytes(uint64(r.BlkWriteBytesPerSec)))
	a.resourceView.SetText(b.String())
}

func (a *App) renderDatabase(cs *containerState) {
	if cs == nil {
		a.databaseView.SetText(placeholder)
		return
	}
	if !cs.Snapshot.Ready() {
		a.databaseView.SetText("sampling...")
		return
	}

	d := cs.Snapshot.Database
	var b strings.Builder
	fmt.Fprintf(&b, "connections  %d / %d\n", d.ActiveConnections, d.MaxConnections)
	fmt.Fprintf(&b, "qps          %6.1f\n", d.QPS)
	fmt.Fprintf(&b, "commits/s    %6.1f\n", d.CommitsPerSec)
	fmt.Fprintf(&b, "rollbacks/s  %6.1f\n", d.RollbacksPerSec)
	fmt.Fprintf(&b, "cache hit    %5.1f%%\n", d.CacheHitPercent)
	a.databaseView.SetText(b.String())
}

func (a *App) renderLogs(cs *containerState) {
	if cs == nil {
		a.logsView.SetText(placeholder)
		return
	}
	a.logsView.SetText(strings.Join(cs.LogLines, "\n"))
	a.logsView.ScrollToEnd()
}

func (a *App) renderStatus(active pane, frozen bool, interval time.Duration) {
	frozenLabel := ""
	if frozen {
		frozenLabel = " [yellow]FROZEN[-]"
	}
	a.statusBar.SetText(fmt.Sprintf(
		"[%s]%s pane[-] · refresh %s%s · Tab/Shift+Tab pane · j/k move · Enter logs · +/- interval · f freeze · q quit",
		colorForPane(active), active.String(), interval, frozenLabel,
	))
}

func colorForPane(p pane) string {
	switch p {
	case paneContainers:
		return "green"
	case paneResource:
		return "blue"
	case paneDatabase:
		return "cyan"
	case paneLogs:
		return "magenta"
	default:
		return "white"
	}
}

func humanBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
