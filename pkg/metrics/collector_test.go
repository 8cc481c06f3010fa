package metrics

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/cuemby/dbarena/pkg/dbkind"
	"github.com/cuemby/dbarena/pkg/engine"
)

// fakeEngine implements engine.Engine with scripted Stats/Exec sequences,
// the only two methods Collector calls.
type fakeEngine struct {
	statsSeq []engine.StatSample
	statsIdx int

	execSeq []engine.ExecResult
	execIdx int
}

func (f *fakeEngine) Stats(ctx context.Context, id string) (engine.StatSample, error) {
	s := f.statsSeq[f.statsIdx]
	if f.statsIdx < len(f.statsSeq)-1 {
		f.statsIdx++
	}
	return s, nil
}

func (f *fakeEngine) Exec(ctx context.Context, id string, cmd []string) (engine.ExecResult, error) {
	r := f.execSeq[f.execIdx]
	if f.execIdx < len(f.execSeq)-1 {
		f.execIdx++
	}
	return r, nil
}

func (f *fakeEngine) PullImage(ctx context.Context, image string, progress func(engine.PullProgress)) error {
	return nil
}
func (f *fakeEngine) Create(ctx context.Context, spec engine.CreateSpec) (engine.CreateResult, error) {
	return engine.CreateResult{}, nil
}
func (f *fakeEngine) Start(ctx context.Context, id string) error                       { return nil }
func (f *fakeEngine) Stop(ctx context.Context, id string, timeout time.Duration) error { return nil }
func (f *fakeEngine) Restart(ctx context.Context, id string, timeout time.Duration) error {
	return nil
}
func (f *fakeEngine) Remove(ctx context.Context, id string, removeVolumes bool) error { return nil }
func (f *fakeEngine) ArchiveUpload(ctx context.Context, id string, hostPath, containerPath string) error {
	return nil
}
func (f *fakeEngine) Logs(ctx context.Context, id string, opts engine.LogOptions) (io.ReadCloser, error) {
	return nil, nil
}
func (f *fakeEngine) List(ctx context.Context, includeStopped bool) ([]engine.ContainerInfo, error) {
	return nil, nil
}
func (f *fakeEngine) Inspect(ctx context.Context, id string) (engine.ContainerInfo, error) {
	return engine.ContainerInfo{}, nil
}
func (f *fakeEngine) Ping(ctx context.Context) error { return nil }
func (f *fakeEngine) Close() error                   { return nil }

func pgProbeOutput(activeConns, maxConns, commit, rollback, hit, read, ret, ins, upd, del int64) string {
	return "\n" +
		itoa(activeConns) + "," + itoa(maxConns) + "," + itoa(commit) + "," + itoa(rollback) + "," +
		itoa(hit) + "," + itoa(read) + "," + itoa(ret) + "," + itoa(ins) + "," + itoa(upd) + "," + itoa(del) + "\n"
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func TestFirstSampleYieldsZeroRates(t *testing.T) {
	fe := &fakeEngine{
		statsSeq: []engine.StatSample{{Timestamp: time.Now(), CPUTotalNanos: 1000, SystemCPUNanos: 100000, OnlineCPUs: 4}},
		execSeq:  []engine.ExecResult{{ExitCode: 0, Stdout: pgProbeOutput(2, 100, 10, 1, 900, 100, 5000, 40, 10, 2)}},
	}
	c := NewCollector(fe)

	snap, err := c.Sample(context.Background(), Target{ContainerID: "c1", Kind: dbkind.Postgres, User: "postgres", Database: "postgres"})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if snap.Resource.CPUPercent != 0 {
		t.Errorf("expected zero CPU on first sample, got %f", snap.Resource.CPUPercent)
	}
	if snap.Database.QPS != 0 {
		t.Errorf("expected zero QPS on first sample, got %f", snap.Database.QPS)
	}
	if snap.Ready() {
		t.Error("expected Ready() false after a single sample")
	}
}

func TestSecondSampleComputesRates(t *testing.T) {
	t0 := time.Now()
	t1 := t0.Add(1 * time.Second)

	fe := &fakeEngine{
		statsSeq: []engine.StatSample{
			{Timestamp: t0, CPUTotalNanos: 1000, SystemCPUNanos: 1_000_000, OnlineCPUs: 4},
			{Timestamp: t1, CPUTotalNanos: 21000, SystemCPUNanos: 2_000_000, OnlineCPUs: 4},
		},
		execSeq: []engine.ExecResult{
			{ExitCode: 0, Stdout: pgProbeOutput(2, 100, 10, 1, 900, 100, 5000, 40, 10, 2)},
			{ExitCode: 0, Stdout: pgProbeOutput(3, 100, 15, 2, 950, 105, 5100, 45, 11, 2)},
		},
	}
	c := NewCollector(fe)
	target := Target{ContainerID: "c1", Kind: dbkind.Postgres, User: "postgres", Database: "postgres"}

	if _, err := c.Sample(context.Background(), target); err != nil {
		t.Fatalf("first sample: %v", err)
	}
	snap, err := c.Sample(context.Background(), target)
	if err != nil {
		t.Fatalf("second sample: %v", err)
	}

	if !snap.Ready() {
		t.Error("expected Ready() true after two samples")
	}
	// Δcommit=5, Δrollback=1 over ~1s => QPS ≈ 6
	if snap.Database.QPS < 5 || snap.Database.QPS > 7 {
		t.Errorf("expected QPS near 6, got %f", snap.Database.QPS)
	}
	if snap.Resource.CPUPercent <= 0 {
		t.Errorf("expected positive CPU percent on second sample, got %f", snap.Resource.CPUPercent)
	}
}

func TestIdleDatabaseReportsLowQPS(t *testing.T) {
	t0 := time.Now()
	t1 := t0.Add(1 * time.Second)

	fe := &fakeEngine{
		statsSeq: []engine.StatSample{
			{Timestamp: t0, OnlineCPUs: 4},
			{Timestamp: t1, OnlineCPUs: 4},
		},
		execSeq: []engine.ExecResult{
			// tuple counters climb from background autovacuum/monitoring
			// activity, but xact_commit/rollback barely move.
			{ExitCode: 0, Stdout: pgProbeOutput(1, 100, 100, 0, 10000, 500, 500000, 0, 0, 0)},
			{ExitCode: 0, Stdout: pgProbeOutput(1, 100, 101, 0, 10200, 520, 520000, 0, 0, 0)},
		},
	}
	c := NewCollector(fe)
	target := Target{ContainerID: "idle", Kind: dbkind.Postgres, User: "postgres", Database: "postgres"}

	if _, err := c.Sample(context.Background(), target); err != nil {
		t.Fatalf("first sample: %v", err)
	}
	snap, err := c.Sample(context.Background(), target)
	if err != nil {
		t.Fatalf("second sample: %v", err)
	}

	if snap.Database.QPS > 5 {
		t.Errorf("expected idle-database QPS <= 5, got %f", snap.Database.QPS)
	}
}

func TestNegativeDeltaRebaselines(t *testing.T) {
	t0 := time.Now()
	t1 := t0.Add(1 * time.Second)
	t2 := t1.Add(1 * time.Second)

	fe := &fakeEngine{
		statsSeq: []engine.StatSample{{Timestamp: t0, OnlineCPUs: 4}, {Timestamp: t1, OnlineCPUs: 4}, {Timestamp: t2, OnlineCPUs: 4}},
		execSeq: []engine.ExecResult{
			{ExitCode: 0, Stdout: pgProbeOutput(1, 100, 500, 10, 9000, 500, 50000, 100, 10, 2)},
			// container restarted: counters reset to near zero
			{ExitCode: 0, Stdout: pgProbeOutput(1, 100, 2, 0, 10, 1, 100, 1, 0, 0)},
			{ExitCode: 0, Stdout: pgProbeOutput(1, 100, 8, 1, 40, 4, 400, 4, 1, 0)},
		},
	}
	c := NewCollector(fe)
	target := Target{ContainerID: "restarted", Kind: dbkind.Postgres, User: "postgres", Database: "postgres"}

	if _, err := c.Sample(context.Background(), target); err != nil {
		t.Fatalf("sample 1: %v", err)
	}
	snap2, err := c.Sample(context.Background(), target)
	if err != nil {
		t.Fatalf("sample 2: %v", err)
	}
	if snap2.Database.QPS != 0 {
		t.Errorf("expected rate 0 immediately after a counter reset, got %f", snap2.Database.QPS)
	}

	snap3, err := c.Sample(context.Background(), target)
	if err != nil {
		t.Fatalf("sample 3: %v", err)
	}
	if snap3.Database.QPS <= 0 {
		t.Errorf("expected positive QPS once re-anchored, got %f", snap3.Database.QPS)
	}
}

func TestHistoryIsBoundedToWindow(t *testing.T) {
	fe := &fakeEngine{
		execSeq: []engine.ExecResult{{ExitCode: 0, Stdout: pgProbeOutput(1, 100, 1, 0, 1, 1, 1, 1, 1, 1)}},
	}
	now := time.Now()
	for i := 0; i < historyLen+10; i++ {
		fe.statsSeq = append(fe.statsSeq, engine.StatSample{Timestamp: now.Add(time.Duration(i) * time.Second), OnlineCPUs: 1})
	}

	c := NewCollector(fe)
	target := Target{ContainerID: "c1", Kind: dbkind.Postgres, User: "postgres", Database: "postgres"}

	var last Snapshot
	for i := 0; i < historyLen+10; i++ {
		snap, err := c.Sample(context.Background(), target)
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		last = snap
	}
	if len(last.History) != historyLen {
		t.Errorf("expected history capped at %d, got %d", historyLen, len(last.History))
	}
}
