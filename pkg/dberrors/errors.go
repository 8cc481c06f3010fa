package dberrors

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Kind classifies a dbarena error without requiring callers to type-switch.
type Kind string

const (
	KindEngineUnavailable Kind = "engine_unavailable"
	KindImagePull         Kind = "image_pull"
	KindPortConflict      Kind = "port_conflict"
	KindReadinessTimeout  Kind = "readiness_timeout"
	KindInitScript        Kind = "init_script"
	KindSeedBatch         Kind = "seed_batch"
	KindWorkloadOp        Kind = "workload_op"
	KindMetricsSample     Kind = "metrics_sample"
	KindCancelled         Kind = "cancelled"
	KindNotFound          Kind = "not_found"
	KindConfig            Kind = "config"
)

// Error is a structured dbarena error: a kind, the component and operation
// that produced it, the container it concerns (if any), and the wrapped
// cause.
type Error struct {
	Kind        Kind
	Component   string
	Operation   string
	ContainerID string
	Detail      string
	Cause       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s failed", e.Component, e.Operation)
	if e.ContainerID != "" {
		msg += fmt.Sprintf(" (container %s)", e.ContainerID)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	} else if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target carries the same Kind, so callers can write
// errors.Is(err, dberrors.New(KindNotFound, ...)) style checks against a
// sentinel built with the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New builds a structured error.
func New(kind Kind, component, operation string, cause error) *Error {
	return &Error{Kind: kind, Component: component, Operation: operation, Cause: cause}
}

// WithContainer attaches the container id this error concerns.
func (e *Error) WithContainer(id string) *Error {
	e.ContainerID = id
	return e
}

// WithDetail attaches a parsed-detail string (e.g. a script error digest).
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// KindOf extracts the Kind from err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Retryable reports whether the kind of error is one the spec allows a
// caller to retry (only port conflicts on auto-assigned ports, per §7).
func Retryable(err error) bool {
	return KindOf(err) == KindPortConflict
}

// Print writes err to w, coloring the kind label when w is a terminal.
// Callers pass the result of isTerminal(w) via the color package's own
// NoColor detection, matching how dbarena's CLI decides whether stderr
// supports ANSI.
func Print(w io.Writer, err error) {
	var e *Error
	if !errors.As(err, &e) {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}

	kindLabel := color.New(color.FgRed, color.Bold).Sprintf("[%s]", e.Kind)
	fmt.Fprintf(w, "%s %s\n", kindLabel, e.Error())

	if hint := remediationHint(e.Kind); hint != "" {
		fmt.Fprintf(w, "  %s %s\n", color.New(color.FgYellow).Sprint("hint:"), hint)
	}
}

func remediationHint(k Kind) string {
	switch k {
	case KindEngineUnavailable:
		return "is the container engine daemon running and reachable?"
	case KindReadinessTimeout:
		return "container left running; inspect its logs with `dbarena logs <name>`"
	case KindPortConflict:
		return "choose a different --port or omit it to auto-assign"
	default:
		return ""
	}
}
