package tui

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/cuemby/dbarena/pkg/container"
	"github.com/cuemby/dbarena/pkg/log"
	"github.com/cuemby/dbarena/pkg/metrics"
)

const defaultRefreshInterval = time.Second

// App is the single foreground task that owns the terminal, per
// spec.md §4.5.2's scheduling model.
type App struct {
	tv     *tview.Application
	grid   *tview.Grid
	list   *tview.List
	resourceView *tview.TextView
	databaseView *tview.TextView
	logsView     *tview.TextView
	statusBar    *tview.TextView

	mgr       *container.Manager
	collector *metrics.Collector

	mu              sync.Mutex
	containers      []*containerState
	selected        int
	active          pane
	frozen          bool
	refreshInterval time.Duration

	msgCh      chan any
	intervalCh chan time.Duration
	cancelLogs context.CancelFunc
}

// NewApp builds a dashboard driving mgr and sampling through collector.
func NewApp(mgr *container.Manager, collector *metrics.Collector) *App {
	a := &App{
		tv:              tview.NewApplication(),
		mgr:             mgr,
		collector:       collector,
		refreshInterval: defaultRefreshInterval,
		msgCh:           make(chan any, 32),
		intervalCh:      make(chan time.Duration, 1),
	}
	a.buildLayout()
	return a
}

// Run blocks until ctx is cancelled or the user quits, then returns. A
// Ctrl+C or 'q'/Esc both converge on the same shutdown path; Run itself
// does not call os.Exit — the caller maps the return to a process exit
// code (130 for signal-driven shutdown, per spec.md §6A).
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.refreshContainers(runCtx); err != nil {
		return err
	}

	go a.metricsTick(runCtx)
	go a.dispatch(runCtx)

	a.tv.SetInputCapture(a.handleKey(cancel))

	if err := a.tv.SetRoot(a.grid, true).SetFocus(a.list).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// metricsTick is the cooperative metrics task of spec.md §4.5.2: it
// samples every target once per refresh interval and feeds the result
// through msgCh. It owns its own ticker (rather than delegating to
// metrics.Collector.Run) so the +/- key bindings can change the
// interval live via ticker.Reset.
func (a *App) metricsTick(ctx context.Context) {
	a.mu.Lock()
	interval := a.refreshInterval
	a.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sample := func() {
		for _, t := range a.targets() {
			snap, err := a.collector.Sample(ctx, t)
			if err != nil {
				continue
			}
			select {
			case a.msgCh <- metricsTickMsg{snapshots: []metrics.Snapshot{snap}}:
			case <-ctx.Done():
				return
			}
		}
	}

	sample()
	for {
		select {
		case <-ticker.C:
			sample()
		case d := <-a.intervalCh:
			ticker.Reset(d)
		case <-ctx.Done():
			return
		}
	}
}

// dispatch is the message-driven core: it applies incoming messages to
// shared state as they arrive, but only issues a screen draw at most
// once per frame tick and only when something actually changed, per the
// ≤33ms coalesced frame budget.
func (a *App) dispatch(ctx context.Context) {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case msg := <-a.msgCh:
			a.applyMessage(msg)
			dirty = true
		case <-ticker.C:
			if dirty && !a.isFrozen() {
				dirty = false
				a.tv.QueueUpdateDraw(a.render)
			}
		case <-ctx.Done():
			a.tv.Stop()
			return
		}
	}
}

func (a *App) applyMessage(msg any) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch m := msg.(type) {
	case metricsTickMsg:
		for _, snap := range m.snapshots {
			for _, cs := range a.containers {
				if cs.Container.ID == snap.ContainerID {
					cs.Snapshot = snap
				}
			}
		}
	case logLineMsg:
		for _, cs := range a.containers {
			if cs.Container.ID == m.containerID {
				cs.appendLog(stripANSI(m.line))
			}
		}
	}
}

func (a *App) isFrozen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frozen
}

// refreshContainers re-lists managed containers from the engine. Called
// at startup and on 'r' (force sample).
func (a *App) refreshContainers(ctx context.Context) error {
	list, err := a.mgr.List(ctx, true)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing := make(map[string]*containerState, len(a.containers))
	for _, cs := range a.containers {
		existing[cs.Container.ID] = cs
	}

	a.containers = a.containers[:0]
	for _, c := range list {
		if cs, ok := existing[c.ID]; ok {
			cs.Container = c
			a.containers = append(a.containers, cs)
			continue
		}
		a.containers = append(a.containers, &containerState{Container: c})
	}
	if a.selected >= len(a.containers) {
		a.selected = 0
	}
	return nil
}

// targets builds the metrics.Target list the collector samples each
// tick, resolving credentials the same way Create did.
func (a *App) targets() []metrics.Target {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]metrics.Target, 0, len(a.containers))
	for _, cs := range a.containers {
		user := cs.Container.Labels[container.UserLabel]
		database := cs.Container.Labels[container.DatabaseLabel]
		// Password is never persisted on the container (labels are
		// visible via `docker inspect`); reconnecting with only the
		// kind's documented default means a custom password set at
		// create time won't be sampled here. That's an accepted gap
		// for a read-only metrics probe, not a correctness issue for
		// the managed lifecycle itself.
		_, password := container.AdminCredentials(cs.Container.Kind, nil)
		out = append(out, metrics.Target{
			ContainerID: cs.Container.ID,
			Kind:        cs.Container.Kind,
			User:        user,
			Password:    password,
			Database:    database,
		})
	}
	return out
}

var ansiRe = regexp.MustCompile("\x1b\\[[0-9;]*[a-zA-Z]")

func stripANSI(s string) string { return ansiRe.ReplaceAllString(s, "") }

// followLogs starts (or restarts) the log-follow goroutine for the
// currently selected container, strips ANSI escapes, and feeds msgCh.
func (a *App) followLogs(ctx context.Context) {
	if a.cancelLogs != nil {
		a.cancelLogs()
		a.cancelLogs = nil
	}

	a.mu.Lock()
	if a.selected >= len(a.containers) {
		a.mu.Unlock()
		return
	}
	id := a.containers[a.selected].Container.ID
	a.mu.Unlock()

	followCtx, cancel := context.WithCancel(ctx)
	a.cancelLogs = cancel

	go func() {
		rc, err := a.mgr.Logs(followCtx, id, 0, true)
		if err != nil {
			return
		}
		defer rc.Close()

		buf := make([]byte, 4096)
		var partial []byte
		for {
			n, err := rc.Read(buf)
			if n > 0 {
				partial = append(partial, buf[:n]...)
				for {
					idx := indexByte(partial, '\n')
					if idx < 0 {
						break
					}
					line := string(partial[:idx])
					partial = partial[idx+1:]
					select {
					case a.msgCh <- logLineMsg{containerID: id, line: line}:
					case <-followCtx.Done():
						return
					}
				}
			}
			if err != nil {
				if err != io.EOF {
					log.WithComponent("tui").Debug().Err(err).Msg("log stream ended")
				}
				return
			}
			select {
			case <-followCtx.Done():
				return
			default:
			}
		}
	}()
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// handleKey implements the key bindings of spec.md §4.5.2.
func (a *App) handleKey(shutdown context.CancelFunc) func(*tcell.EventKey) *tcell.EventKey {
	return func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyTab:
			a.cyclePane(1)
			return nil
		case tcell.KeyBacktab:
			a.cyclePane(-1)
			return nil
		case tcell.KeyEnter:
			a.drillIn()
			return nil
		case tcell.KeyCtrlC:
			shutdown()
			return nil
		case tcell.KeyEscape:
			shutdown()
			return nil
		}

		switch ev.Rune() {
		case 'q':
			shutdown()
			return nil
		case 'l':
			a.toggleLogsFocus()
			return nil
		case '+':
			a.adjustInterval(500 * time.Millisecond)
			return nil
		case '-':
			a.adjustInterval(-500 * time.Millisecond)
			return nil
		case 'r':
			go a.refreshContainers(context.Background())
			return nil
		case 'f':
			a.toggleFrozen()
			return nil
		case 'j':
			a.moveSelection(1)
			return nil
		case 'k':
			a.moveSelection(-1)
			return nil
		}
		return ev
	}
}

func (a *App) cyclePane(delta int) {
	a.mu.Lock()
	a.active = pane((int(a.active) + delta + int(paneCount)) % int(paneCount))
	a.mu.Unlock()
	a.tv.QueueUpdateDraw(a.render)
}

func (a *App) moveSelection(delta int) {
	a.mu.Lock()
	if len(a.containers) > 0 {
		a.selected = (a.selected + delta + len(a.containers)) % len(a.containers)
	}
	a.mu.Unlock()
	a.tv.QueueUpdateDraw(a.render)
}

func (a *App) drillIn() {
	a.followLogs(context.Background())
	a.tv.QueueUpdateDraw(a.render)
}

func (a *App) toggleLogsFocus() {
	a.mu.Lock()
	a.active = paneLogs
	a.mu.Unlock()
	a.tv.QueueUpdateDraw(func() { a.render(); a.tv.SetFocus(a.logsView) })
}

func (a *App) toggleFrozen() {
	a.mu.Lock()
	a.frozen = !a.frozen
	a.mu.Unlock()
	a.tv.QueueUpdateDraw(a.render)
}

// adjustInterval changes the live metrics refresh interval (+/- key
// bindings), floored at 250ms, and wakes metricsTick's ticker via
// intervalCh so the new interval takes effect on the next tick.
func (a *App) adjustInterval(delta time.Duration) {
	a.mu.Lock()
	next := a.refreshInterval + delta
	if next < 250*time.Millisecond {
		next = 250 * time.Millisecond
	}
	a.refreshInterval = next
	a.mu.Unlock()

	select {
	case a.intervalCh <- next:
	default:
		// A change is already pending; drain and replace so the
		// ticker picks up the latest value rather than a stale one.
		select {
		case <-a.intervalCh:
		default:
		}
		a.intervalCh <- next
	}
	a.tv.QueueUpdateDraw(a.render)
}
