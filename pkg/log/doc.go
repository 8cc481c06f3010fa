/*
Package log provides structured logging for dbarena using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

dbarena's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("container")               │          │
	│  │  - WithComponent("workload")                │          │
	│  │  - WithContainerID("a1b2c3d4")              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "container",                │          │
	│  │    "time": "2024-10-13T10:30:00Z",         │          │
	│  │    "message": "readiness probe succeeded"   │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  10:30AM INF readiness probe succeeded component=container │      │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all dbarena packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithContainerID: Add container ID context

# Log Levels

Debug Level:
  - Purpose: Detailed debugging information
  - Usage: Development and troubleshooting
  - Performance: Verbose, may impact production
  - Example: "polling readiness probe (attempt 4)"

Info Level:
  - Purpose: General informational messages
  - Usage: Default production level
  - Performance: Moderate volume
  - Example: "container created: dbarena-postgres-a3f21c8e (postgres:16)"

Warn Level:
  - Purpose: Potential issues or unexpected conditions
  - Usage: Situations that may require attention
  - Performance: Low volume
  - Example: "init script failed, continuing"

Error Level:
  - Purpose: Operation failures that need investigation
  - Usage: Failed operations, exceptions
  - Performance: Low volume
  - Example: "readiness probe did not succeed within 60s"

Fatal Level:
  - Purpose: Critical errors causing process termination
  - Usage: Unrecoverable errors only
  - Behavior: Logs message and exits process (os.Exit(1))
  - Example: "failed to connect to container engine: %v"

# Usage

Initializing the Logger:

	import "github.com/cuemby/dbarena/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

	// Custom output (file)
	file, _ := os.OpenFile("/var/log/dbarena.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     file,
	})

Simple Logging:

	log.Info("dbarena starting")
	log.Debug("polling readiness probe")
	log.Warn("host port conflict, retrying with new auto-assigned port")
	log.Error("failed to connect to container engine")
	log.Fatal("cannot continue without a container engine") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("container_id", "a1b2c3d4").
		Str("kind", "postgres").
		Msg("container created")

	log.Logger.Error().
		Err(err).
		Str("container_id", "a1b2c3d4").
		Msg("readiness probe failed")

Component Loggers:

	// Create component-specific logger
	containerLog := log.WithComponent("container")
	containerLog.Info().Msg("pulling image")
	containerLog.Debug().Str("image", "postgres:16").Msg("image pull started")

	// Multiple context fields
	seedLog := log.WithComponent("seed").
		With().Str("container_id", "a1b2c3d4").
		Str("table", "orders").Logger()
	seedLog.Info().Msg("seeding table")
	seedLog.Error().Err(err).Msg("seeding failed")

Container Context Logger:

	// Container-specific logs, used by pkg/initexec per init-script session
	sessionLog := log.WithContainerID("a1b2c3d4")
	sessionLog.Warn().Str("script", "001-schema.sql").Msg("init script failed, continuing")

Complete Example:

	package main

	import (
		"errors"
		"os"
		"github.com/cuemby/dbarena/pkg/log"
	)

	func main() {
		// Initialize logger
		log.Init(log.Config{
			Level:      log.InfoLevel,
			JSONOutput: true,
			Output:     os.Stdout,
		})

		log.Info("dbarena starting")

		// Component-specific logging
		containerLog := log.WithComponent("container")
		containerLog.Info().
			Str("kind", "postgres").
			Int("port", 55432).
			Msg("container ready")

		// Error logging
		err := errors.New("connection refused")
		log.Logger.Error().
			Err(err).
			Str("component", "dbconn").
			Msg("failed to reconnect")

		log.Info("dbarena exiting")
	}

# Integration Points

This package integrates with:

  - pkg/container: Logs image pulls, port retries, and readiness waits
  - pkg/initexec: Logs init-script session failures, keyed by container ID
  - pkg/seed: Logs per-table seeding progress
  - pkg/workload: Logs workload engine start/stop and saturation
  - pkg/metrics: Logs sampling failures against a managed container
  - pkg/tui: Logs when a log-follow stream ends

# Log Output Examples

JSON Format (Production):

	{"level":"info","component":"container","time":"2024-10-13T10:30:00Z","message":"pulling image"}
	{"level":"info","component":"seed","container_id":"a1b2c3d4","time":"2024-10-13T10:30:01Z","message":"seeding table"}
	{"level":"error","component":"workload","error":"connection refused","time":"2024-10-13T10:30:02Z","message":"worker exiting"}

Console Format (Development):

	10:30:00 INF pulling image component=container
	10:30:01 INF seeding table component=seed container_id=a1b2c3d4
	10:30:02 ERR worker exiting component=workload error="connection refused"

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Structured Logging Pattern:
  - Use typed fields (.Str, .Int, .Err)
  - Enables log aggregation and querying
  - Better than string concatenation
  - Parseable by log analysis tools

Error Logging Pattern:
  - Always use .Err(err) for error objects
  - Provides stack trace information
  - Enables error tracking and alerting
  - Consistent error format across codebase

# Performance Characteristics

Logging Overhead:
  - Disabled level: 0ns (compile-time optimization)
  - JSON encode: ~500ns per log line
  - Console format: ~1µs per log line
  - String field: +50ns per field
  - Int field: +30ns per field

Memory Allocation:
  - Zero allocation for disabled levels
  - ~100 bytes per log line (JSON)
  - ~200 bytes per log line (console)
  - Amortized by buffer pooling

Log Level Impact:
  - Debug: High volume, use in development only
  - Info: Moderate volume, suitable for production
  - Warn/Error: Low volume, minimal impact
  - Recommendation: Info level by default, debug when diagnosing a run

# Troubleshooting

Common Issues:

No Log Output:
  - Symptom: No logs appearing
  - Check: log.Init() called before logging
  - Check: Log level set appropriately (Debug < Info < Warn < Error)
  - Solution: Initialize logger in main() before any logging

Excessive Log Volume:
  - Symptom: Large log files from --follow/stats runs
  - Cause: Debug level left on for a long-running workload
  - Check: Log level configuration
  - Solution: Use Info level by default

Missing Context Fields:
  - Symptom: Logs missing component or container_id fields
  - Cause: Using global Logger instead of a context logger
  - Solution: Use WithComponent() or WithContainerID()

Log Parsing Fails:
  - Symptom: Cannot parse JSON logs
  - Cause: Invalid JSON in message field
  - Check: Embedded quotes or control characters
  - Solution: Use .Str() instead of string interpolation

# Security

Log Content:
  - Never log secrets or sensitive data
  - Redact generated passwords and connection strings
  - Review logs before sharing externally

Log Injection:
  - Use structured logging (prevents injection)
  - Never concatenate user input into log messages
  - Use typed fields (.Str, .Int) for user data
  - Validate/sanitize before logging if necessary

# Best Practices

Do:
  - Use Info level by default
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() for stack traces
  - Include context (container ID) where it helps triage

Don't:
  - Log sensitive data (passwords, connection strings)
  - Use Debug level by default
  - Log in tight loops (the workload engine's hot path stays quiet)
  - Concatenate strings (use .Str, .Int)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - Structured logging: https://www.thoughtworks.com/radar/techniques/structured-logging
  - 12-Factor App Logs: https://12factor.net/logs
*/
package log
