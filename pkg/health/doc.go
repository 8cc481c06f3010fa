/*
Package health provides the exec-based readiness check used to confirm
a managed database container is ready to accept connections.

spec.md §4.1 requires readiness probes to run via the engine's exec API
against the container itself, not via a TCP handshake or HTTP request
from the host — a probe that only confirms a port is open would mark a
PostgreSQL container ready before initdb has finished. ExecChecker is
the only checker this package provides.

# Readiness Flow (pkg/container.Manager.Create)

 1. Container created and started
 2. waitReady builds an ExecChecker from the kind's ReadinessProbe
 3. Poll at the kind's interval until Check reports healthy or the
    kind's timeout elapses
 4. Success → container marked healthy; timeout → create returns a
    readiness-timeout error, container left running for inspection

# Exec Health Checks

Exec checks run a command inside a managed container via the same
engine that created it, and check the exit code:

	Check Type: Exec
	Configuration:
	├── Command: ["pg_isready", "-U", "postgres"]
	├── Timeout: 10 seconds
	├── Exit code 0 → Healthy
	└── Exit code != 0 → Unhealthy

This is how every readiness probe in pkg/dbkind (postgres, mysql,
sqlserver) is actually executed.

# Core Components

## Checker Interface

	type Checker interface {
		Check(ctx context.Context) Result
		Type() CheckType
	}

ExecChecker is the sole implementation.

## Result Structure

	type Result struct {
		Healthy   bool          // Check passed?
		Message   string        // Human-readable message
		CheckedAt time.Time     // When check ran
		Duration  time.Duration // How long check took
	}

# Usage Examples

## Exec Health Check (container readiness)

	// eng is the same engine.Engine the container was created through.
	checker := health.NewExecChecker(eng, []string{
		"pg_isready", "-U", "postgres", "-d", "postgres",
	}).WithContainer(containerID).WithTimeout(5 * time.Second)

	result := checker.Check(ctx)
	if result.Healthy {
		fmt.Println("postgres is ready")
	} else {
		fmt.Printf("not ready yet: %s\n", result.Message)
	}

## Host-Mode Check (ContainerID unset)

With no container ID, Check runs the command on the host via os/exec
instead of through the engine. pkg/container never does this — it's
only useful for exercising ExecChecker in tests without a real engine.

	checker := health.NewExecChecker(nil, []string{"true"})
	result := checker.Check(ctx) // runs "true" on the host

## Polling to a Deadline (pkg/container.Manager.waitReady)

waitReady owns the poll loop itself — a plain ticker against a
deadline computed from the kind's ReadinessProbe — rather than
delegating to anything in this package:

	checker := health.NewExecChecker(eng, probeCmd).WithContainer(containerID).WithTimeout(pollInterval)
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if res := checker.Check(ctx); res.Healthy {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("readiness probe did not succeed within %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

# Design Patterns

## Context-Based Cancellation

All checks respect context deadlines:

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := checker.Check(ctx)

# Troubleshooting

False positive unhealthy during create:
  - The probe's timeout may be shorter than the image's real startup
    time, especially on first pull when the image also has to
    initialize its data directory; widen the kind's ReadinessProbe
    timeout rather than the poll interval
  - Verify the container engine's Exec is actually reaching the
    container (a wrong containerID, e.g. from a stale Create retry,
    surfaces here as a permanent "not found" failure, not a timeout)

# See Also

  - pkg/container.Manager.waitReady - the only production caller of
    ExecChecker in this module
  - pkg/dbkind - defines each database kind's ReadinessProbe command
*/
package health
