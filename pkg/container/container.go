package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/dbarena/pkg/dberrors"
	"github.com/cuemby/dbarena/pkg/dbkind"
	"github.com/cuemby/dbarena/pkg/engine"
	"github.com/cuemby/dbarena/pkg/health"
	"github.com/cuemby/dbarena/pkg/log"
)

var envKeyRe = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// maxPortRetries bounds the §7 auto-assigned-port-conflict retry loop.
const maxPortRetries = 3

// Config is the immutable input to Create, per SPEC_FULL.md §3 Container
// config.
type Config struct {
	Kind        dbkind.Kind
	Version     string
	Name        string
	HostPort    int // 0 = auto-assign
	MemoryBytes int64
	CPUShares   int64
	Env         map[string]string
	Persistent  bool
	Replication bool
}

// Validate checks Config invariants that do not require the engine.
func (c Config) Validate() error {
	for k := range c.Env {
		if !envKeyRe.MatchString(k) {
			return fmt.Errorf("invalid env var key %q: must match [A-Z_][A-Z0-9_]*", k)
		}
	}
	return nil
}

// Container is the read-facing handle Manager returns, per §3 Managed
// container.
type Container struct {
	ID      string
	Name    string
	Kind    dbkind.Kind
	Version string
	Port    int
	Status  engine.Status
	Labels  map[string]string
}

// Details is the richer view Inspect returns.
type Details struct {
	Container
	CreatedAt time.Time
	StartedAt time.Time
	Image     string
}

func defaultImage(k dbkind.Kind, version string) string {
	if version == "" {
		version = "latest"
	}
	switch k {
	case dbkind.Postgres:
		return "postgres:" + version
	case dbkind.MySQL:
		return "mysql:" + version
	case dbkind.SQLServer:
		return "mcr.microsoft.com/mssql/server:" + version
	default:
		return ""
	}
}

// defaultName generates a container name when the caller didn't ask
// for a specific one, e.g. "dbarena-postgres-a3f21c8e".
func defaultName(k dbkind.Kind) string {
	return fmt.Sprintf("dbarena-%s-%s", k, uuid.New().String()[:8])
}

func containerPort(k dbkind.Kind) int {
	switch k {
	case dbkind.Postgres:
		return 5432
	case dbkind.MySQL:
		return 3306
	case dbkind.SQLServer:
		return 1433
	default:
		return 0
	}
}

// UserLabel and DatabaseLabel record the admin user/default database
// dbarena connected the container with, so later commands (stats, the
// TUI, exec/query) can reconnect without re-deriving env defaults.
const (
	UserLabel     = "dbarena.user"
	DatabaseLabel = "dbarena.database"
)

// AdminCredentials resolves the admin user/password for a container, honoring
// any env override passed at creation and falling back to each kind's
// documented default. It is exported so pkg/metrics, pkg/tui, and the
// `stats`/`exec` commands can reconnect to an already-running container
// using the same rule Create used.
func AdminCredentials(k dbkind.Kind, env map[string]string) (user, password string) {
	return adminCredentials(k, env)
}

func adminCredentials(k dbkind.Kind, env map[string]string) (user, password string) {
	switch k {
	case dbkind.Postgres:
		user = env["POSTGRES_USER"]
		if user == "" {
			user = "postgres"
		}
		password = env["POSTGRES_PASSWORD"]
	case dbkind.MySQL:
		user = "root"
		password = env["MYSQL_ROOT_PASSWORD"]
	case dbkind.SQLServer:
		user = "sa"
		password = env["MSSQL_SA_PASSWORD"]
	}
	return user, password
}

// Manager is the single authority for managed container existence
// (SPEC_FULL.md §5.1). All engine calls go through Engine; readiness
// and command-line construction come from dbkind.
type Manager struct {
	eng    engine.Engine
	logger zerolog.Logger
}

// New wraps an engine with container-management policy.
func New(eng engine.Engine) *Manager {
	return &Manager{eng: eng, logger: log.WithComponent("container")}
}

// Create implements the §4.1 create contract end to end: image pull,
// port resolution, construction with labels/env/caps, start, and a
// blocking readiness wait.
func (m *Manager) Create(ctx context.Context, cfg Config) (Container, error) {
	if err := cfg.Validate(); err != nil {
		return Container{}, dberrors.New(dberrors.KindConfig, "container", "create", err)
	}
	if cfg.Name == "" {
		cfg.Name = defaultName(cfg.Kind)
	}

	caps, err := dbkind.For(cfg.Kind)
	if err != nil {
		return Container{}, dberrors.New(dberrors.KindConfig, "container", "create", err)
	}

	image := defaultImage(cfg.Kind, cfg.Version)
	m.logger.Info().Str("image", image).Msg("pulling image")
	if err := m.eng.PullImage(ctx, image, nil); err != nil {
		return Container{}, dberrors.New(dberrors.KindImagePull, "container", "create", err)
	}

	user, password := adminCredentials(cfg.Kind, cfg.Env)

	var result engine.CreateResult
	var id string
	hostPort := cfg.HostPort
	for attempt := 0; ; attempt++ {
		spec := m.buildSpec(cfg, image, hostPort)
		result, err = m.eng.Create(ctx, spec)
		if err == nil {
			id = result.ID
			break
		}
		if cfg.HostPort == 0 && isPortConflict(err) && attempt < maxPortRetries {
			m.logger.Warn().Int("attempt", attempt+1).Msg("host port conflict, retrying with new auto-assigned port")
			hostPort = 0
			continue
		}
		return Container{}, dberrors.New(dberrors.KindPortConflict, "container", "create", err)
	}

	if err := m.eng.Start(ctx, id); err != nil {
		return Container{}, dberrors.New(dberrors.KindEngineUnavailable, "container", "start", err).WithContainer(id)
	}

	status := engine.StatusStarting
	if err := m.waitReady(ctx, id, caps.Probe, user, password); err != nil {
		status = engine.StatusUnhealthy
		m.logger.Error().Str("id", id).Msg("readiness timeout, container left running")
		return Container{ID: id, Name: cfg.Name, Kind: cfg.Kind, Version: cfg.Version, Port: result.HostPort, Status: status},
			dberrors.New(dberrors.KindReadinessTimeout, "container", "create", err).WithContainer(id)
	}

	return Container{
		ID:      id,
		Name:    cfg.Name,
		Kind:    cfg.Kind,
		Version: cfg.Version,
		Port:    result.HostPort,
		Status:  engine.StatusHealthy,
	}, nil
}

func (m *Manager) buildSpec(cfg Config, image string, hostPort int) engine.CreateSpec {
	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}

	user, _ := adminCredentials(cfg.Kind, cfg.Env)
	caps, _ := dbkind.For(cfg.Kind)
	labels := map[string]string{
		engine.KindLabel:    string(cfg.Kind),
		engine.VersionLabel: cfg.Version,
		UserLabel:           user,
		DatabaseLabel:       caps.Init.BootDatabase(),
	}
	if cfg.Name != "" {
		labels[engine.NameLabel] = cfg.Name
	}

	return engine.CreateSpec{
		Name:          cfg.Name,
		Image:         image,
		Env:           env,
		Labels:        labels,
		HostPort:      hostPort,
		ContainerPort: containerPort(cfg.Kind),
		MemoryBytes:   cfg.MemoryBytes,
		CPUShares:     cfg.CPUShares,
		TmpfsTmp:      !cfg.Persistent,
		Persistent:    cfg.Persistent,
		VolumeName:    cfg.Name + "-data",
		VolumeTarget:  dataMountTarget(cfg.Kind),
	}
}

func dataMountTarget(k dbkind.Kind) string {
	switch k {
	case dbkind.Postgres:
		return "/var/lib/postgresql/data"
	case dbkind.MySQL:
		return "/var/lib/mysql"
	case dbkind.SQLServer:
		return "/var/opt/mssql"
	default:
		return "/data"
	}
}

// waitReady polls the readiness probe at the kind's interval until it
// succeeds or the kind's timeout elapses. The probe itself must be
// idempotent and side-effect-free, per §4.1.
func (m *Manager) waitReady(ctx context.Context, id string, probe dbkind.ReadinessProbe, user, password string) error {
	checker := health.NewExecChecker(m.eng, probe.ProbeCommand(user, password)).
		WithContainer(id).
		WithTimeout(probe.PollInterval())

	deadline := time.Now().Add(probe.Timeout())
	ticker := time.NewTicker(probe.PollInterval())
	defer ticker.Stop()

	for {
		if res := checker.Check(ctx); res.Healthy {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("readiness probe did not succeed within %s", probe.Timeout())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *Manager) Start(ctx context.Context, id string) error {
	if err := m.eng.Start(ctx, id); err != nil {
		return dberrors.New(dberrors.KindEngineUnavailable, "container", "start", err).WithContainer(id)
	}
	return nil
}

func (m *Manager) Stop(ctx context.Context, id string, timeout time.Duration) error {
	if err := m.eng.Stop(ctx, id, timeout); err != nil {
		return dberrors.New(dberrors.KindEngineUnavailable, "container", "stop", err).WithContainer(id)
	}
	return nil
}

func (m *Manager) Restart(ctx context.Context, id string, timeout time.Duration) error {
	if err := m.eng.Restart(ctx, id, timeout); err != nil {
		return dberrors.New(dberrors.KindEngineUnavailable, "container", "restart", err).WithContainer(id)
	}
	return nil
}

// Destroy is idempotent: destroying an already-gone container is not an
// error. Volumes are removed only when removeVolumes is true, per §4.1.
func (m *Manager) Destroy(ctx context.Context, id string, removeVolumes bool) error {
	if err := m.eng.Remove(ctx, id, removeVolumes); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil
		}
		return dberrors.New(dberrors.KindEngineUnavailable, "container", "destroy", err).WithContainer(id)
	}
	return nil
}

// List always scopes to managed=true, per the §4.1 label-discipline
// invariant (enforced again here even though Engine.List already
// filters, to keep the invariant visible at the policy layer).
func (m *Manager) List(ctx context.Context, includeStopped bool) ([]Container, error) {
	infos, err := m.eng.List(ctx, includeStopped)
	if err != nil {
		return nil, dberrors.New(dberrors.KindEngineUnavailable, "container", "list", err)
	}

	out := make([]Container, 0, len(infos))
	for _, info := range infos {
		out = append(out, fromInfo(info))
	}
	return out, nil
}

// Find resolves a user-supplied name or id to a Container, or reports
// not-found. It never returns a container lacking managed=true.
func (m *Manager) Find(ctx context.Context, nameOrID string) (Container, error) {
	containers, err := m.List(ctx, true)
	if err != nil {
		return Container{}, err
	}
	for _, c := range containers {
		if c.ID == nameOrID || strings.HasPrefix(c.ID, nameOrID) || c.Name == nameOrID {
			return c, nil
		}
	}
	return Container{}, dberrors.New(dberrors.KindNotFound, "container", "find", fmt.Errorf("no managed container matches %q", nameOrID))
}

func (m *Manager) Inspect(ctx context.Context, id string) (Details, error) {
	info, err := m.eng.Inspect(ctx, id)
	if err != nil {
		return Details{}, dberrors.New(dberrors.KindNotFound, "container", "inspect", err).WithContainer(id)
	}
	return Details{
		Container: fromInfo(info),
		CreatedAt: info.CreatedAt,
		StartedAt: info.StartedAt,
		Image:     info.Image,
	}, nil
}

func (m *Manager) Logs(ctx context.Context, id string, tail int, follow bool) (io.ReadCloser, error) {
	rc, err := m.eng.Logs(ctx, id, engine.LogOptions{Tail: tail, Follow: follow})
	if err != nil {
		return nil, dberrors.New(dberrors.KindEngineUnavailable, "container", "logs", err).WithContainer(id)
	}
	return rc, nil
}

func fromInfo(info engine.ContainerInfo) Container {
	return Container{
		ID:      info.ID,
		Name:    info.Name,
		Kind:    dbkind.Kind(info.Labels[engine.KindLabel]),
		Version: info.Labels[engine.VersionLabel],
		Port:    info.HostPort,
		Status:  info.Status,
		Labels:  info.Labels,
	}
}

// isPortConflict sniffs the engine error text for the bind-failure
// signature Docker reports; the Engine interface does not expose a
// typed conflict error since the underlying daemons phrase it as plain
// text.
func isPortConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "port is already allocated") || strings.Contains(msg, "address already in use")
}
