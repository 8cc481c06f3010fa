package initexec

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/dbarena/pkg/dbkind"
	"github.com/cuemby/dbarena/pkg/engine"
)

type fakeEngine struct {
	uploaded  []string
	execs     []string
	execFunc  func(cmd []string) engine.ExecResult
}

func (f *fakeEngine) PullImage(ctx context.Context, image string, progress func(engine.PullProgress)) error {
	return nil
}
func (f *fakeEngine) Create(ctx context.Context, spec engine.CreateSpec) (engine.CreateResult, error) {
	return engine.CreateResult{}, nil
}
func (f *fakeEngine) Start(ctx context.Context, id string) error                            { return nil }
func (f *fakeEngine) Stop(ctx context.Context, id string, timeout time.Duration) error       { return nil }
func (f *fakeEngine) Restart(ctx context.Context, id string, timeout time.Duration) error     { return nil }
func (f *fakeEngine) Remove(ctx context.Context, id string, removeVolumes bool) error         { return nil }

func (f *fakeEngine) Exec(ctx context.Context, id string, cmd []string) (engine.ExecResult, error) {
	f.execs = append(f.execs, cmd[0])
	if f.execFunc != nil {
		return f.execFunc(cmd), nil
	}
	return engine.ExecResult{ExitCode: 0}, nil
}

func (f *fakeEngine) ArchiveUpload(ctx context.Context, id string, hostPath, containerPath string) error {
	f.uploaded = append(f.uploaded, containerPath)
	return nil
}

func (f *fakeEngine) Logs(ctx context.Context, id string, opts engine.LogOptions) (io.ReadCloser, error) {
	return nil, nil
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

func writeTempScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing temp script: %v", err)
	}
	return path
}

func TestRunSucceedsAndWritesMetadata(t *testing.T) {
	fe := &fakeEngine{}
	x := New(fe)

	script := writeTempScript(t, "001_schema.sql", "CREATE TABLE t (id int);")
	logDir := t.TempDir()

	meta, err := x.Run(context.Background(), "c1", dbkind.Postgres, "postgres", "pw", []Script{{Path: script}}, logDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !meta.Success {
		t.Error("expected overall success")
	}
	if len(fe.uploaded) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(fe.uploaded))
	}
	if _, err := os.Stat(filepath.Join(logDir, "metadata.json")); err != nil {
		t.Errorf("expected metadata.json to exist: %v", err)
	}
}

func TestRunHaltsOnFailureWithoutContinueOnError(t *testing.T) {
	fe := &fakeEngine{execFunc: func(cmd []string) engine.ExecResult {
		return engine.ExecResult{ExitCode: 1, Stderr: "ERROR:  syntax error at or near \"TABEL\"\nLINE 1: CRAETE TABEL t"}
	}}
	x := New(fe)

	script1 := writeTempScript(t, "001_bad.sql", "CRAETE TABEL t;")
	script2 := writeTempScript(t, "002_good.sql", "SELECT 1;")
	logDir := t.TempDir()

	meta, err := x.Run(context.Background(), "c1", dbkind.Postgres, "postgres", "pw", []Script{
		{Path: script1, ContinueOnError: false},
		{Path: script2, ContinueOnError: false},
	}, logDir)

	if err == nil {
		t.Fatal("expected halt error")
	}
	if meta.Success {
		t.Error("expected overall failure")
	}
	if len(meta.Scripts) != 1 {
		t.Fatalf("expected execution to halt after first script, got %d results", len(meta.Scripts))
	}
	if len(fe.execs) != 1 {
		t.Errorf("expected second script to never run, got %d execs", len(fe.execs))
	}
}

func TestRunContinuesOnErrorWhenRequested(t *testing.T) {
	calls := 0
	fe := &fakeEngine{execFunc: func(cmd []string) engine.ExecResult {
		calls++
		if calls == 1 {
			return engine.ExecResult{ExitCode: 0, Stdout: "ERROR:  relation already exists"}
		}
		return engine.ExecResult{ExitCode: 0}
	}}
	x := New(fe)

	script1 := writeTempScript(t, "001_bad.sql", "CREATE TABLE t (id int);")
	script2 := writeTempScript(t, "002_good.sql", "SELECT 1;")
	logDir := t.TempDir()

	meta, err := x.Run(context.Background(), "c1", dbkind.Postgres, "postgres", "pw", []Script{
		{Path: script1, ContinueOnError: true},
		{Path: script2, ContinueOnError: true},
	}, logDir)

	if err != nil {
		t.Fatalf("expected no halt error with continue_on_error, got %v", err)
	}
	if meta.Success {
		t.Error("expected overall success=false since one script failed")
	}
	if len(meta.Scripts) != 2 {
		t.Fatalf("expected both scripts to run, got %d results", len(meta.Scripts))
	}
	if !meta.Scripts[1].Success {
		t.Error("expected second script to succeed")
	}
}
