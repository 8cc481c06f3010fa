package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/dbarena/pkg/container"
	"github.com/cuemby/dbarena/pkg/dbconn"
	"github.com/cuemby/dbarena/pkg/dbkind"
	"github.com/cuemby/dbarena/pkg/engine"
)

// exitCodeError lets a leaf command request a specific process exit
// code without main having to know which command produced the error.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }
func (e *exitCodeError) ExitCode() int { return e.code }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitCodeError{code: code, err: err}
}

// newManager opens an engine connection and wraps it with container
// policy; the caller must Close the returned engine.
func newManager() (*container.Manager, engine.Engine, error) {
	eng, err := newEngine()
	if err != nil {
		return nil, nil, err
	}
	return container.New(eng), eng, nil
}

// findOne resolves a single name-or-id argument to its current Details.
func findOne(ctx context.Context, mgr *container.Manager, nameOrID string) (container.Details, error) {
	c, err := mgr.Find(ctx, nameOrID)
	if err != nil {
		return container.Details{}, err
	}
	return mgr.Inspect(ctx, c.ID)
}

// connectTarget opens a database connection to a managed container,
// reconnecting with the same admin-credential rule Create used. An
// explicit password always wins over the kind's documented default,
// since the container doesn't persist a custom password anywhere the
// CLI can read it back from (SPEC_FULL.md note in pkg/tui.targets).
func connectTarget(ctx context.Context, c container.Container, password string) (dbconn.Target, error) {
	user, defaultPassword := container.AdminCredentials(c.Kind, nil)
	if password == "" {
		password = defaultPassword
	}
	database := c.Labels[container.DatabaseLabel]
	if database == "" {
		if caps, err := dbkind.For(c.Kind); err == nil {
			database = caps.Init.BootDatabase()
		}
	}
	return dbconn.Target{
		Kind:     c.Kind,
		Host:     "127.0.0.1",
		Port:     c.Port,
		User:     user,
		Password: password,
		Database: database,
	}, nil
}

// logDirFor returns the §6 persistent-state directory for a container's
// init-script logs: ~/.local/share/dbarena/logs/<container-id>/.
func logDirFor(containerID string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "dbarena", "logs", containerID), nil
}
