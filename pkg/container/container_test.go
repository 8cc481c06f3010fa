package container

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/cuemby/dbarena/pkg/dbkind"
	"github.com/cuemby/dbarena/pkg/engine"
)

// fakeEngine is a minimal in-memory Engine double for exercising
// Manager's policy logic without a real daemon.
type fakeEngine struct {
	createCalls   int
	failPortUntil int
	execExitCode  int
	removed       map[string]bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{removed: map[string]bool{}}
}

func (f *fakeEngine) PullImage(ctx context.Context, image string, progress func(engine.PullProgress)) error {
	return nil
}

func (f *fakeEngine) Create(ctx context.Context, spec engine.CreateSpec) (engine.CreateResult, error) {
	f.createCalls++
	if f.createCalls <= f.failPortUntil {
		return engine.CreateResult{}, errors.New("port is already allocated")
	}
	return engine.CreateResult{ID: "c1", HostPort: 5432}, nil
}

func (f *fakeEngine) Start(ctx context.Context, id string) error { return nil }
func (f *fakeEngine) Stop(ctx context.Context, id string, timeout time.Duration) error { return nil }
func (f *fakeEngine) Restart(ctx context.Context, id string, timeout time.Duration) error { return nil }

func (f *fakeEngine) Remove(ctx context.Context, id string, removeVolumes bool) error {
	if f.removed[id] {
		return engine.ErrNotFound
	}
	f.removed[id] = true
	return nil
}

func (f *fakeEngine) Exec(ctx context.Context, id string, cmd []string) (engine.ExecResult, error) {
	return engine.ExecResult{ExitCode: f.execExitCode}, nil
}

func (f *fakeEngine) ArchiveUpload(ctx context.Context, id string, hostPath, containerPath string) error {
	return nil
}

func (f *fakeEngine) Logs(ctx context.Context, id string, opts engine.LogOptions) (io.ReadCloser, error) {
	return io.NopCloser(nil), nil
}

func (f *fakeEngine) Stats(ctx context.Context, id string) (engine.StatSample, error) {
	return engine.StatSample{}, nil
}

func (f *fakeEngine) List(ctx context.Context, includeStopped bool) ([]engine.ContainerInfo, error) {
	return nil, nil
}

func (f *fakeEngine) Inspect(ctx context.Context, id string) (engine.ContainerInfo, error) {
	return engine.ContainerInfo{}, nil
}

func (f *fakeEngine) Ping(ctx context.Context) error { return nil }
func (f *fakeEngine) Close() error                   { return nil }

func TestCreateSucceedsOnFirstTry(t *testing.T) {
	fe := newFakeEngine()
	fe.execExitCode = 0
	m := New(fe)

	c, err := m.Create(context.Background(), Config{Kind: dbkind.Postgres, Name: "t1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Status != engine.StatusHealthy {
		t.Errorf("expected healthy status, got %s", c.Status)
	}
	if fe.createCalls != 1 {
		t.Errorf("expected 1 create call, got %d", fe.createCalls)
	}
}

func TestCreateRetriesOnPortConflict(t *testing.T) {
	fe := newFakeEngine()
	fe.failPortUntil = 2

	m := New(fe)
	c, err := m.Create(context.Background(), Config{Kind: dbkind.MySQL, Name: "t2"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if fe.createCalls != 3 {
		t.Errorf("expected 3 create attempts, got %d", fe.createCalls)
	}
	if c.ID != "c1" {
		t.Errorf("expected container id c1, got %s", c.ID)
	}
}

func TestCreateGivesUpAfterMaxRetries(t *testing.T) {
	fe := newFakeEngine()
	fe.failPortUntil = maxPortRetries + 5

	m := New(fe)
	_, err := m.Create(context.Background(), Config{Kind: dbkind.Postgres, Name: "t3"})
	if err == nil {
		t.Fatal("expected error after exhausting port retries")
	}
}

func TestCreateRejectsInvalidEnvKey(t *testing.T) {
	m := New(newFakeEngine())
	_, err := m.Create(context.Background(), Config{Kind: dbkind.Postgres, Env: map[string]string{"lower": "x"}})
	if err == nil {
		t.Fatal("expected invalid env key to be rejected before touching the engine")
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	fe := newFakeEngine()
	m := New(fe)

	if err := m.Destroy(context.Background(), "c1", true); err != nil {
		t.Fatalf("first destroy: %v", err)
	}
	if err := m.Destroy(context.Background(), "c1", true); err != nil {
		t.Fatalf("second destroy should be idempotent, got: %v", err)
	}
}

func TestWaitReadyTimesOut(t *testing.T) {
	fe := newFakeEngine()
	fe.execExitCode = 1
	m := New(fe)

	probe := fastProbe{}
	err := m.waitReady(context.Background(), "c1", probe, "user", "pw")
	if err == nil {
		t.Fatal("expected readiness timeout")
	}
}

// fastProbe lets TestWaitReadyTimesOut run in milliseconds instead of
// the real 60s postgres timeout.
type fastProbe struct{}

func (fastProbe) ProbeCommand(user, password string) []string { return []string{"pg_isready"} }
func (fastProbe) Timeout() time.Duration                       { return 20 * time.Millisecond }
func (fastProbe) PollInterval() time.Duration                  { return 5 * time.Millisecond }
