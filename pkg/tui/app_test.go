package tui

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/cuemby/dbarena/pkg/container"
	"github.com/cuemby/dbarena/pkg/engine"
	"github.com/cuemby/dbarena/pkg/metrics"
)

// fakeEngine is a minimal engine.Engine stub: enough for the dashboard
// to list one container and sample it once, nothing more.
type fakeEngine struct {
	containers []engine.ContainerInfo
}

func (f *fakeEngine) PullImage(ctx context.Context, image string, progress func(engine.PullProgress)) error {
	return nil
}
func (f *fakeEngine) Create(ctx context.Context, spec engine.CreateSpec) (engine.CreateResult, error) {
	return engine.CreateResult{}, nil
}
func (f *fakeEngine) Start(ctx context.Context, id string) error { return nil }
func (f *fakeEngine) Stop(ctx context.Context, id string, timeout time.Duration) error {
	return nil
}
func (f *fakeEngine) Restart(ctx context.Context, id string, timeout time.Duration) error {
	return nil
}
func (f *fakeEngine) Remove(ctx context.Context, id string, removeVolumes bool) error { return nil }
func (f *fakeEngine) ArchiveUpload(ctx context.Context, id string, hostPath, containerPath string) error {
	return nil
}
func (f *fakeEngine) Logs(ctx context.Context, id string, opts engine.LogOptions) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}
func (f *fakeEngine) Stats(ctx context.Context, id string) (engine.StatSample, error) {
	return engine.StatSample{Timestamp: time.Now(), OnlineCPUs: 4}, nil
}
func (f *fakeEngine) Exec(ctx context.Context, id string, cmd []string) (engine.ExecResult, error) {
	return engine.ExecResult{ExitCode: 0, Stdout: "\n1,100,1,0,1,1,1,1,1,1\n"}, nil
}
func (f *fakeEngine) List(ctx context.Context, includeStopped bool) ([]engine.ContainerInfo, error) {
	return f.containers, nil
}
func (f *fakeEngine) Inspect(ctx context.Context, id string) (engine.ContainerInfo, error) {
	return engine.ContainerInfo{}, nil
}
func (f *fakeEngine) Ping(ctx context.Context) error { return nil }
func (f *fakeEngine) Close() error                   { return nil }

// TestRenderDrawsAllFourPanes builds the dashboard against a
// tcell.SimulationScreen sized to a typical terminal and checks that
// every pane title appears in the drawn cell buffer without panicking.
func TestRenderDrawsAllFourPanes(t *testing.T) {
	fe := &fakeEngine{containers: []engine.ContainerInfo{
		{ID: "c1", Name: "pg-1", Status: engine.StatusHealthy, Labels: map[string]string{
			engine.KindLabel:         "postgres",
			container.UserLabel:     "postgres",
			container.DatabaseLabel: "postgres",
		}},
	}}
	mgr := container.New(fe)
	collector := metrics.NewCollector(fe)

	app := NewApp(mgr, collector)

	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen.Init: %v", err)
	}
	screen.SetSize(80, 24)
	app.tv.SetScreen(screen)

	if err := app.refreshContainers(context.Background()); err != nil {
		t.Fatalf("refreshContainers: %v", err)
	}
	// Two samples so Ready() is true and the resource/database panes
	// render real numbers instead of the "sampling..." placeholder.
	mustSnapshots(t, app)
	app.applyMessage(metricsTickMsg{snapshots: mustSnapshots(t, app)})

	app.tv.SetRoot(app.grid, true)
	app.render()
	app.tv.Draw()

	got := screenText(screen)
	for _, want := range []string{"containers", "resource", "database", "logs"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected drawn screen to contain pane title %q, screen:\n%s", want, got)
		}
	}
}

func mustSnapshots(t *testing.T, app *App) []metrics.Snapshot {
	t.Helper()
	var out []metrics.Snapshot
	for _, target := range app.targets() {
		snap, err := app.collector.Sample(context.Background(), target)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		out = append(out, snap)
	}
	return out
}

func screenText(s tcell.SimulationScreen) string {
	cells, w, h := s.GetContents()
	var b strings.Builder
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			c := cells[row*w+col]
			if len(c.Runes) == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteRune(c.Runes[0])
		}
		b.WriteRune('\n')
	}
	return strings.ToLower(b.String())
}

func TestSparklineFlatOnZeroSpread(t *testing.T) {
	out := sparkline([]float64{5, 5, 5})
	for _, r := range out {
		if r != sparklineBlocks[0] {
			t.Errorf("expected flat baseline, got rune %q", r)
		}
	}
}

func TestPaneStringers(t *testing.T) {
	for p := paneContainers; p < paneCount; p++ {
		if p.String() == "?" {
			t.Errorf("pane %d missing a String() case", p)
		}
	}
}
