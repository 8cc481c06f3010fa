package metrics

import (
	"sync"
	"time"

	"github.com/cuemby/dbarena/pkg/engine"
)

// historyLen is the sparkline window: last 60 seconds at the TUI's
// default 1000ms refresh interval.
const historyLen = 60

// ResourceSample is one rate-computed resource reading for a container.
type ResourceSample struct {
	Timestamp       time.Time `json:"timestamp"`
	CPUPercent      float64   `json:"cpu_percent"`
	MemoryUsage     uint64    `json:"memory_usage_bytes"`
	MemoryLimit     uint64    `json:"memory_limit_bytes"`
	NetRxBytesPerSec float64  `json:"net_rx_bytes_per_sec"`
	NetTxBytesPerSec float64  `json:"net_tx_bytes_per_sec"`
	BlkReadBytesPerSec  float64 `json:"blk_read_bytes_per_sec"`
	BlkWriteBytesPerSec float64 `json:"blk_write_bytes_per_sec"`
}

// DatabaseRate is one rate-computed database reading, per spec.md §4.5.1.
type DatabaseRate struct {
	Timestamp         time.Time `json:"timestamp"`
	ActiveConnections int64     `json:"active_connections"`
	MaxConnections    int64     `json:"max_connections"`
	CommitsPerSec     float64   `json:"commits_per_sec"`
	RollbacksPerSec   float64   `json:"rollbacks_per_sec"`
	QPS               float64   `json:"qps"`
	CacheHitPercent   float64   `json:"cache_hit_percent"`
	ReplicationLagSec float64   `json:"replication_lag_sec"`
}

// Snapshot is one full reading for one container, returned from Sample.
// SampleCount tracks how many times this container has been sampled so
// callers can apply the "not yet sampled twice ⇒ display placeholder"
// rule from spec.md §4.5.2 instead of showing a misleading zero.
type Snapshot struct {
	ContainerID string          `json:"container_id"`
	SampledAt   time.Time       `json:"sampled_at"`
	SampleCount int             `json:"sample_count"`
	Resource    ResourceSample  `json:"resource"`
	Database    DatabaseRate    `json:"database"`
	History     []ResourceSample `json:"history,omitempty"`
}

// Ready reports whether this snapshot has enough history for rates to be
// meaningful (the first sample of any counter always yields zero, per
// spec.md §4.5.1).
func (s Snapshot) Ready() bool { return s.SampleCount >= 2 }

// counterRate tracks one monotonically-increasing counter across samples
// and computes its per-second rate, per the rate computation contract in
// spec.md §4.5.1: a negative delta (counter reset, e.g. after a container
// restart) re-anchors the baseline and reports rate zero rather than a
// misleading negative or inflated number.
type counterRate struct {
	mu          sync.Mutex
	prev        int64
	prevAt      time.Time
	initialized bool
}

func (c *counterRate) update(value int64, at time.Time) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		c.prev, c.prevAt, c.initialized = value, at, true
		return 0
	}

	delta := value - c.prev
	elapsed := at.Sub(c.prevAt).Seconds()
	c.prev, c.prevAt = value, at

	if delta < 0 || elapsed <= 0 {
		return 0
	}
	return float64(delta) / elapsed
}

// cpuTracker computes the CPU percentage formula from spec.md §4.5.1:
// (Δcontainer_cpu / Δsystem_cpu) × NCPU × 100.
type cpuTracker struct {
	mu          sync.Mutex
	prevCPU     uint64
	prevSystem  uint64
	initialized bool
}

func (c *cpuTracker) percent(cpuNanos, systemNanos uint64, onlineCPUs int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		c.prevCPU, c.prevSystem, c.initialized = cpuNanos, systemNanos, true
		return 0
	}

	dCPU := int64(cpuNanos) - int64(c.prevCPU)
	dSystem := int64(systemNanos) - int64(c.prevSystem)
	c.prevCPU, c.prevSystem = cpuNanos, systemNanos

	if dCPU < 0 || dSystem <= 0 {
		return 0
	}
	cpus := float64(onlineCPUs)
	if cpus <= 0 {
		cpus = 1
	}
	return (float64(dCPU) / float64(dSystem)) * cpus * 100
}

// containerState holds the per-container rate trackers and sparkline
// history that persist between Collector.Sample calls.
type containerState struct {
	mu sync.Mutex

	sampleCount int

	cpu               cpuTracker
	netRx, netTx      counterRate
	blkRead, blkWrite counterRate

	xactCommit, xactRollback counterRate
	blksHit, blksRead        counterRate
	tupReturned              counterRate
	tupInserted              counterRate
	tupUpdated               counterRate
	tupDeleted               counterRate

	resourceHistory []ResourceSample
}

func (s *containerState) pushHistory(r ResourceSample) []ResourceSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resourceHistory = append(s.resourceHistory, r)
	if len(s.resourceHistory) > historyLen {
		s.resourceHistory = s.resourceHistory[len(s.resourceHistory)-historyLen:]
	}
	out := make([]ResourceSample, len(s.resourceHistory))
	copy(out, s.resourceHistory)
	return out
}

func (s *containerState) resourceRate(stat engine.StatSample) ResourceSample {
	return ResourceSample{
		Timestamp:           stat.Timestamp,
		CPUPercent:          s.cpu.percent(stat.CPUTotalNanos, stat.SystemCPUNanos, stat.OnlineCPUs),
		MemoryUsage:         stat.MemoryUsage,
		MemoryLimit:         stat.MemoryLimit,
		NetRxBytesPerSec:    s.netRx.update(int64(stat.NetRxBytes), stat.Timestamp),
		NetTxBytesPerSec:    s.netTx.update(int64(stat.NetTxBytes), stat.Timestamp),
		BlkReadBytesPerSec:  s.blkRead.update(int64(stat.BlkReadBytes), stat.Timestamp),
		BlkWriteBytesPerSec: s.blkWrite.update(int64(stat.BlkWriteBytes), stat.Timestamp),
	}
}
