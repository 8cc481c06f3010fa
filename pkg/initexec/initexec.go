package initexec

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/dbarena/pkg/dberrors"
	"github.com/cuemby/dbarena/pkg/dbkind"
	"github.com/cuemby/dbarena/pkg/engine"
	"github.com/cuemby/dbarena/pkg/log"
)

// uploadDir is the hard-contract staging directory. Never /tmp: the
// default container config mounts /tmp as a tmpfs, and some engines'
// upload paths fail silently against it.
const uploadDir = "/var/dbarena_init"

// Script is one entry in the ordered init-script list, per §3 Init
// script.
type Script struct {
	Path            string
	ContinueOnError bool
}

// ScriptResult is one script's outcome, embedded in SessionMetadata.
type ScriptResult struct {
	Path        string        `json:"path"`
	Duration    time.Duration `json:"duration_ns"`
	Success     bool          `json:"success"`
	ErrorDigest string        `json:"error_digest,omitempty"`
}

// SessionMetadata is the (ADD) JSON summary written to metadata.json in
// the per-session log directory, per SPEC_FULL.md §3/§4.2.
type SessionMetadata struct {
	ContainerID string         `json:"container_id"`
	StartedAt   time.Time      `json:"started_at"`
	Scripts     []ScriptResult `json:"scripts"`
	Success     bool           `json:"success"`
}

// Executor runs init scripts against one managed container.
type Executor struct {
	eng    engine.Engine
	logger zerolog.Logger
}

// New wraps an engine for init-script execution.
func New(eng engine.Engine) *Executor {
	return &Executor{eng: eng, logger: log.WithComponent("initexec")}
}

// Run executes scripts in order against containerID, writing captured
// output and a metadata.json summary under logDir. keepOnFailure
// suppresses the destroy-on-halt policy so the caller can inspect a
// failed container instead of losing it.
func (x *Executor) Run(ctx context.Context, containerID string, kind dbkind.Kind, user, password string, scripts []Script, logDir string) (SessionMetadata, error) {
	caps, err := dbkind.For(kind)
	if err != nil {
		return SessionMetadata{}, dberrors.New(dberrors.KindInitScript, "initexec", "run", err).WithContainer(containerID)
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return SessionMetadata{}, dberrors.New(dberrors.KindInitScript, "initexec", "run", err).WithContainer(containerID)
	}

	meta := SessionMetadata{ContainerID: containerID, StartedAt: time.Now(), Success: true}
	sessionLog := log.WithContainerID(containerID)

	for i, script := range scripts {
		result, scriptErr := x.runOne(ctx, containerID, caps, user, password, script, logDir, i)
		meta.Scripts = append(meta.Scripts, result)

		if !result.Success {
			meta.Success = false
			if !script.ContinueOnError {
				if writeErr := writeMetadata(logDir, meta); writeErr != nil {
					sessionLog.Warn().Err(writeErr).Msg("failed to write session metadata")
				}
				return meta, dberrors.New(dberrors.KindInitScript, "initexec", "run", scriptErr).
					WithContainer(containerID).WithDetail(result.ErrorDigest)
			}
			sessionLog.Warn().Str("script", script.Path).Str("digest", result.ErrorDigest).Msg("init script failed, continuing")
		}
	}

	if err := writeMetadata(logDir, meta); err != nil {
		return meta, dberrors.New(dberrors.KindInitScript, "initexec", "run", err).WithContainer(containerID)
	}
	return meta, nil
}

func (x *Executor) runOne(ctx context.Context, containerID string, caps dbkind.Capabilities, user, password string, script Script, logDir string, index int) (ScriptResult, error) {
	start := time.Now()
	result := ScriptResult{Path: script.Path}

	hostPath, err := filepath.Abs(script.Path)
	if err != nil {
		return failedResult(result, start, fmt.Sprintf("resolving path: %v", err)), err
	}

	containerPath := fmt.Sprintf("%s/%03d_%s", uploadDir, index, filepath.Base(script.Path))
	if err := x.eng.ArchiveUpload(ctx, containerID, hostPath, containerPath); err != nil {
		return failedResult(result, start, fmt.Sprintf("upload: %v", err)), err
	}

	stopOnError := !script.ContinueOnError
	cmd := caps.Init.ScriptCommand(user, password, caps.Init.BootDatabase(), containerPath, stopOnError)

	execResult, err := x.eng.Exec(ctx, containerID, cmd)
	result.Duration = time.Since(start)
	if err != nil {
		return failedResult(result, start, fmt.Sprintf("exec: %v", err)), err
	}

	if execResult.ExitCode != 0 {
		scriptErr := caps.Errors.Parse(execResult.Stdout, execResult.Stderr)
		x.writeOutput(logDir, index, script.Path, execResult)
		return failedResult(result, start, digestOf(scriptErr)), fmt.Errorf("script %s exited %d", script.Path, execResult.ExitCode)
	}

	// Exit code 0 but continue_on_error means ON_ERROR_STOP was not
	// passed; scan for kind-specific markers per §4.2's two-layer
	// detection.
	if script.ContinueOnError && containsMarker(execResult.Stdout+execResult.Stderr, caps.Init.ErrorMarkers()) {
		scriptErr := caps.Errors.Parse(execResult.Stdout, execResult.Stderr)
		x.writeOutput(logDir, index, script.Path, execResult)
		return failedResult(result, start, digestOf(scriptErr)), fmt.Errorf("script %s reported an error despite exit 0", script.Path)
	}

	x.writeOutput(logDir, index, script.Path, execResult)
	result.Success = true
	return result, nil
}

func containsMarker(output string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(output, m) {
			return true
		}
	}
	return false
}

func failedResult(r ScriptResult, start time.Time, digest string) ScriptResult {
	r.Duration = time.Since(start)
	r.Success = false
	r.ErrorDigest = digest
	return r
}

func digestOf(e dbkind.ScriptError) string {
	digest := e.Message
	if e.Line > 0 {
		digest = fmt.Sprintf("line %d: %s", e.Line, digest)
	}
	if e.Suggestion != "" {
		digest += fmt.Sprintf(" (did you mean %s?)", e.Suggestion)
	}
	return digest
}

func (x *Executor) writeOutput(logDir string, index int, path string, res engine.ExecResult) {
	name := fmt.Sprintf("%03d_%s", index, filepath.Base(path))
	out := fmt.Sprintf("exit code: %d\n\n--- stdout ---\n%s\n--- stderr ---\n%s\n", res.ExitCode, res.Stdout, res.Stderr)
	if err := os.WriteFile(filepath.Join(logDir, name+".log"), []byte(out), 0o644); err != nil {
		x.logger.Warn().Err(err).Str("script", path).Msg("failed to write script output log")
	}
}

func writeMetadata(logDir string, meta SessionMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(logDir, "metadata.json"), data, 0o644)
}
