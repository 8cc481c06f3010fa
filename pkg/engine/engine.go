package engine

import (
	"context"
	"io"
	"time"
)

// ManagedLabel is set on every container dbarena creates; List and Find
// always filter on it so the tool never reports containers it did not
// create, per SPEC_FULL.md §8 Invariant 1.
const ManagedLabel = "dbarena.managed"

// KindLabel and VersionLabel record the database kind/version on the
// container, per §3.
const (
	KindLabel    = "dbarena.kind"
	VersionLabel = "dbarena.version"
	NameLabel    = "dbarena.name"
)

// CreateSpec is the engine-level request to create one container. Policy
// (env merge, command-line construction, readiness semantics) lives in
// pkg/container; this struct is already fully resolved.
type CreateSpec struct {
	Name          string
	Image         string
	Env           []string
	Cmd           []string
	Labels        map[string]string
	HostPort      int // 0 = auto-assign
	ContainerPort int
	MemoryBytes   int64 // 0 = unbounded
	CPUShares     int64 // 0 = unbounded
	TmpfsTmp      bool  // mount tmpfs at /tmp
	Persistent    bool  // create/attach a named managed volume
	VolumeName    string
	VolumeTarget  string
}

// CreateResult reports the engine-assigned identity of a newly created
// container.
type CreateResult struct {
	ID       string
	HostPort int
}

// ExecResult is the outcome of a synchronous exec, per §4.2/§4.5.1.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// ContainerInfo is the read-only view List/Inspect return.
type ContainerInfo struct {
	ID         string
	Name       string
	Image      string
	Status     Status
	Labels     map[string]string
	HostPort   int
	CreatedAt  time.Time
	StartedAt  time.Time
}

// Status mirrors the lifecycle states of SPEC_FULL.md §4 Managed container.
type Status string

const (
	StatusCreating  Status = "creating"
	StatusStarting  Status = "starting"
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusRunning   Status = "running"
	StatusStopped   Status = "stopped"
	StatusDestroyed Status = "destroyed"
)

// LogOptions controls Logs.
type LogOptions struct {
	Tail   int // 0 = all
	Follow bool
}

// StatSample is one point-in-time resource reading, the engine-level
// half of SPEC_FULL.md §3 Resource sample; rate computation over
// consecutive samples is pkg/metrics's job, not this package's.
type StatSample struct {
	Timestamp    time.Time
	CPUTotalNanos uint64
	SystemCPUNanos uint64
	OnlineCPUs   int
	MemoryUsage  uint64
	MemoryLimit  uint64
	NetRxBytes   uint64
	NetTxBytes   uint64
	BlkReadBytes uint64
	BlkWriteBytes uint64
}

// PullProgress is one line of image-pull progress, surfaced so the CLI
// can render it; dbarena itself only needs to know pulling completed
// without error.
type PullProgress struct {
	Status string
	Detail string
}

// Engine is the container engine API contract of SPEC_FULL.md §6A.
type Engine interface {
	PullImage(ctx context.Context, image string, progress func(PullProgress)) error
	Create(ctx context.Context, spec CreateSpec) (CreateResult, error)
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string, timeout time.Duration) error
	Restart(ctx context.Context, id string, timeout time.Duration) error
	Remove(ctx context.Context, id string, removeVolumes bool) error

	Exec(ctx context.Context, id string, cmd []string) (ExecResult, error)
	ArchiveUpload(ctx context.Context, id string, hostPath, containerPath string) error
	Logs(ctx context.Context, id string, opts LogOptions) (io.ReadCloser, error)
	Stats(ctx context.Context, id string) (StatSample, error)

	List(ctx context.Context, includeStopped bool) ([]ContainerInfo, error)
	Inspect(ctx context.Context, id string) (ContainerInfo, error)

	Ping(ctx context.Context) error
	Close() error
}
