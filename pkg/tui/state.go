package tui

import (
	"github.com/cuemby/dbarena/pkg/container"
	"github.com/cuemby/dbarena/pkg/metrics"
)

// pane identifies one of the four navigable regions plus the container
// list, cycled by Tab/Shift+Tab.
type pane int

const (
	paneContainers pane = iota
	paneResource
	paneDatabase
	paneLogs
	paneCount
)

func (p pane) String() string {
	switch p {
	case paneContainers:
		return "containers"
	case paneResource:
		return "resource"
	case paneDatabase:
		return "database"
	case paneLogs:
		return "logs"
	default:
		return "?"
	}
}

// metricsTickMsg carries one batch of samples from the metrics ticker
// goroutine to the render goroutine.
type metricsTickMsg struct {
	snapshots []metrics.Snapshot
}

// logLineMsg carries one stripped log line from the log-follow goroutine.
type logLineMsg struct {
	containerID string
	line        string
}

// containerState is the dashboard's view of one managed container: its
// identity, the latest metrics snapshot, and its trailing log lines.
type containerState struct {
	Container container.Container
	Snapshot  metrics.Snapshot
	LogLines  []string // capped at maxLogLines
}

const maxLogLines = 100

func (c *containerState) appendLog(line string) {
	c.LogLines = append(c.LogLines, line)
	if len(c.LogLines) > maxLogLines {
		c.LogLines = c.LogLines[len(c.LogLines)-maxLogLines:]
	}
}
