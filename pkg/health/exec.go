package health

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/cuemby/dbarena/pkg/engine"
)

// ExecChecker performs exec-based health checks. With an engine set it
// runs the command inside a managed container via that engine; with
// no engine it runs the command on the host, which is mainly useful
// in tests.
type ExecChecker struct {
	// Command is the command to execute (e.g., ["pg_isready", "-U", "postgres"])
	Command []string

	// Timeout is the command execution timeout (default: 10 seconds)
	Timeout time.Duration

	// ContainerID is the ID of the container to exec into.
	// If empty, runs on host (useful for testing).
	ContainerID string

	eng engine.Engine
}

// NewExecChecker creates a new exec health checker against eng. eng
// may be nil, in which case Check runs the command on the host.
func NewExecChecker(eng engine.Engine, command []string) *ExecChecker {
	return &ExecChecker{
		Command: command,
		Timeout: 10 * time.Second,
		eng:     eng,
	}
}

// Check performs the exec health check.
func (e *ExecChecker) Check(ctx context.Context) Result {
	start := time.Now()

	if len(e.Command) == 0 {
		return Result{
			Healthy:   false,
			Message:   "no command specified",
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	if e.ContainerID != "" {
		return e.checkInContainer(execCtx, start)
	}
	return e.checkOnHost(execCtx, start)
}

func (e *ExecChecker) checkInContainer(ctx context.Context, start time.Time) Result {
	if e.eng == nil {
		return Result{
			Healthy:   false,
			Message:   "exec checker has a container ID but no engine configured",
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}

	res, err := e.eng.Exec(ctx, e.ContainerID, e.Command)
	message := fmt.Sprintf("command: %v", e.Command)
	if err != nil {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("%s, error: %v", message, err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}
	if res.ExitCode != 0 {
		message = fmt.Sprintf("%s, exit code: %d", message, res.ExitCode)
		if res.Stderr != "" {
			message = fmt.Sprintf("%s, stderr: %s", message, truncateOutput(res.Stderr, 100))
		}
		return Result{Healthy: false, Message: message, CheckedAt: start, Duration: time.Since(start)}
	}
	if res.Stdout != "" {
		message = fmt.Sprintf("%s, output: %s", message, truncateOutput(res.Stdout, 100))
	}
	return Result{Healthy: true, Message: message, CheckedAt: start, Duration: time.Since(start)}
}

func (e *ExecChecker) checkOnHost(ctx context.Context, start time.Time) Result {
	cmd := exec.CommandContext(ctx, e.Command[0], e.Command[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	message := fmt.Sprintf("command: %v", e.Command)
	if err := cmd.Run(); err != nil {
		message = fmt.Sprintf("%s, error: %v", message, err)
		if stderr.Len() > 0 {
			message = fmt.Sprintf("%s, stderr: %s", message, truncateOutput(stderr.String(), 100))
		}
		return Result{Healthy: false, Message: message, CheckedAt: start, Duration: time.Since(start)}
	}
	if stdout.Len() > 0 {
		message = fmt.Sprintf("%s, output: %s", message, truncateOutput(stdout.String(), 100))
	}
	return Result{Healthy: true, Message: message, CheckedAt: start, Duration: time.Since(start)}
}

func truncateOutput(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Type returns the health check type.
func (e *ExecChecker) Type() CheckType {
	return CheckTypeExec
}

// WithTimeout sets the execution timeout.
func (e *ExecChecker) WithTimeout(timeout time.Duration) *ExecChecker {
	e.Timeout = timeout
	return e
}

// WithContainer sets the container ID to exec into.
func (e *ExecChecker) WithContainer(containerID string) *ExecChecker {
	e.ContainerID = containerID
	return e
}
