package engine

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/rs/zerolog"

	"github.com/cuemby/dbarena/pkg/log"
)

// DockerEngine implements Engine against a local Docker-compatible
// daemon, grounded on the request/response shapes of the Docker Engine
// API client. It never talks to anything dbarena did not create: every
// list/find call filters on ManagedLabel=true.
type DockerEngine struct {
	client *client.Client
	logger zerolog.Logger
}

// NewDockerEngine connects to the daemon pointed to by DOCKER_HOST (or
// the platform default socket) using API version negotiation.
func NewDockerEngine() (*DockerEngine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerEngine{client: cli, logger: log.WithComponent("engine")}, nil
}

func (e *DockerEngine) Ping(ctx context.Context) error {
	_, err := e.client.Ping(ctx)
	return err
}

func (e *DockerEngine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func (e *DockerEngine) PullImage(ctx context.Context, imageName string, progress func(PullProgress)) error {
	out, err := e.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pulling image %s: %w", imageName, err)
	}
	defer out.Close()

	if progress == nil {
		_, err = io.Copy(io.Discard, out)
		return err
	}

	decoder := newPullProgressDecoder(out)
	for {
		p, err := decoder.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading pull progress for %s: %w", imageName, err)
		}
		progress(p)
	}
}

func (e *DockerEngine) Create(ctx context.Context, spec CreateSpec) (CreateResult, error) {
	labels := map[string]string{ManagedLabel: "true"}
	for k, v := range spec.Labels {
		labels[k] = v
	}

	containerConfig := &container.Config{
		Image:  spec.Image,
		Env:    spec.Env,
		Cmd:    spec.Cmd,
		Labels: labels,
	}

	hostConfig := &container.HostConfig{}
	if spec.MemoryBytes > 0 {
		hostConfig.Memory = spec.MemoryBytes
	}
	if spec.CPUShares > 0 {
		hostConfig.CPUShares = spec.CPUShares
	}
	if spec.TmpfsTmp {
		hostConfig.Tmpfs = map[string]string{"/tmp": ""}
	}
	if spec.Persistent && spec.VolumeName != "" {
		hostConfig.Mounts = append(hostConfig.Mounts, mount.Mount{
			Type:   mount.TypeVolume,
			Source: spec.VolumeName,
			Target: spec.VolumeTarget,
		})
	}

	if spec.ContainerPort > 0 {
		portKey := nat.Port(fmt.Sprintf("%d/tcp", spec.ContainerPort))
		containerConfig.ExposedPorts = nat.PortSet{portKey: struct{}{}}

		hostPort := "0"
		if spec.HostPort > 0 {
			hostPort = fmt.Sprintf("%d", spec.HostPort)
		}
		hostConfig.PortBindings = nat.PortMap{
			portKey: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: hostPort}},
		}
	}

	resp, err := e.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, spec.Name)
	if err != nil {
		return CreateResult{}, fmt.Errorf("creating container %s: %w", spec.Name, err)
	}

	assignedPort := spec.HostPort
	if spec.ContainerPort > 0 {
		inspect, err := e.client.ContainerInspect(ctx, resp.ID)
		if err == nil && inspect.NetworkSettings != nil {
			portKey := nat.Port(fmt.Sprintf("%d/tcp", spec.ContainerPort))
			if bindings, ok := inspect.NetworkSettings.Ports[portKey]; ok && len(bindings) > 0 {
				if p, err := nat.ParsePort(bindings[0].HostPort); err == nil {
					assignedPort = p
				}
			}
		}
	}

	return CreateResult{ID: resp.ID, HostPort: assignedPort}, nil
}

func (e *DockerEngine) Start(ctx context.Context, id string) error {
	return e.client.ContainerStart(ctx, id, container.StartOptions{})
}

func (e *DockerEngine) Stop(ctx context.Context, id string, timeout time.Duration) error {
	secs := int(timeout.Seconds())
	return e.client.ContainerStop(ctx, id, container.StopOptions{Timeout: &secs})
}

func (e *DockerEngine) Restart(ctx context.Context, id string, timeout time.Duration) error {
	secs := int(timeout.Seconds())
	return e.client.ContainerRestart(ctx, id, container.StopOptions{Timeout: &secs})
}

func (e *DockerEngine) Remove(ctx context.Context, id string, removeVolumes bool) error {
	err := e.client.ContainerRemove(ctx, id, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: removeVolumes,
	})
	if client.IsErrNotFound(err) {
		return notFoundError(id)
	}
	return err
}

func (e *DockerEngine) Exec(ctx context.Context, id string, cmd []string) (ExecResult, error) {
	created, err := e.client.ContainerExecCreate(ctx, id, container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return ExecResult{}, fmt.Errorf("creating exec for %s: %w", id, err)
	}

	attach, err := e.client.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return ExecResult{}, fmt.Errorf("attaching exec for %s: %w", id, err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	if err := demuxDockerStream(attach.Reader, &stdout, &stderr); err != nil {
		return ExecResult{}, fmt.Errorf("reading exec output for %s: %w", id, err)
	}

	inspect, err := e.client.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return ExecResult{}, fmt.Errorf("inspecting exec result for %s: %w", id, err)
	}

	return ExecResult{ExitCode: inspect.ExitCode, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// ArchiveUpload tars hostPath (a single file) and uploads it to
// containerPath's parent directory inside the container, per §4.2's hard
// contract to stage scripts under /var/dbarena_init/ rather than /tmp.
func (e *DockerEngine) ArchiveUpload(ctx context.Context, id string, hostPath, containerPath string) error {
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", hostPath, err)
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{
		Name: filepath.Base(containerPath),
		Mode: 0o644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing tar header: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("writing tar body: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar archive: %w", err)
	}

	destDir := filepath.Dir(containerPath)
	return e.client.CopyToContainer(ctx, id, destDir, &buf, container.CopyToContainerOptions{})
}

func (e *DockerEngine) Logs(ctx context.Context, id string, opts LogOptions) (io.ReadCloser, error) {
	logOpts := container.LogsOptions{ShowStdout: true, ShowStderr: true, Follow: opts.Follow}
	if opts.Tail > 0 {
		logOpts.Tail = fmt.Sprintf("%d", opts.Tail)
	}
	return e.client.ContainerLogs(ctx, id, logOpts)
}

func (e *DockerEngine) Stats(ctx context.Context, id string) (StatSample, error) {
	resp, err := e.client.ContainerStats(ctx, id, false)
	if err != nil {
		return StatSample{}, fmt.Errorf("fetching stats for %s: %w", id, err)
	}
	defer resp.Body.Close()

	var raw container.StatsResponse
	if err := decodeJSON(resp.Body, &raw); err != nil {
		return StatSample{}, fmt.Errorf("decoding stats for %s: %w", id, err)
	}

	return StatSample{
		Timestamp:      raw.Read,
		CPUTotalNanos:  raw.CPUStats.CPUUsage.TotalUsage,
		SystemCPUNanos: raw.CPUStats.SystemUsage,
		OnlineCPUs:     int(raw.CPUStats.OnlineCPUs),
		MemoryUsage:    raw.MemoryStats.Usage,
		MemoryLimit:    raw.MemoryStats.Limit,
		NetRxBytes:     sumNetwork(raw.Networks, func(n container.NetworkStats) uint64 { return n.RxBytes }),
		NetTxBytes:     sumNetwork(raw.Networks, func(n container.NetworkStats) uint64 { return n.TxBytes }),
		BlkReadBytes:   sumBlkio(raw.BlkioStats.IoServiceBytesRecursive, "Read"),
		BlkWriteBytes:  sumBlkio(raw.BlkioStats.IoServiceBytesRecursive, "Write"),
	}, nil
}

func sumNetwork(nets map[string]container.NetworkStats, pick func(container.NetworkStats) uint64) uint64 {
	var total uint64
	for _, n := range nets {
		total += pick(n)
	}
	return total
}

func sumBlkio(entries []container.BlkioStatEntry, op string) uint64 {
	var total uint64
	for _, e := range entries {
		if e.Op == op {
			total += e.Value
		}
	}
	return total
}

func (e *DockerEngine) List(ctx context.Context, includeStopped bool) ([]ContainerInfo, error) {
	f := filters.NewArgs()
	f.Add("label", ManagedLabel+"=true")

	containers, err := e.client.ContainerList(ctx, container.ListOptions{All: includeStopped, Filters: f})
	if err != nil {
		return nil, fmt.Errorf("listing containers: %w", err)
	}

	infos := make([]ContainerInfo, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = trimSlash(c.Names[0])
		}
		infos = append(infos, ContainerInfo{
			ID:        c.ID,
			Name:      name,
			Image:     c.Image,
			Status:    mapDockerStatus(c.State),
			Labels:    c.Labels,
			CreatedAt: time.Unix(c.Created, 0),
		})
	}
	return infos, nil
}

func (e *DockerEngine) Inspect(ctx context.Context, id string) (ContainerInfo, error) {
	inspect, err := e.client.ContainerInspect(ctx, id)
	if err != nil {
		if client.IsErrNotFound(err) {
			return ContainerInfo{}, notFoundError(id)
		}
		return ContainerInfo{}, fmt.Errorf("inspecting %s: %w", id, err)
	}

	if managed := inspect.Config.Labels[ManagedLabel]; managed != "true" {
		return ContainerInfo{}, notFoundError(id)
	}

	info := ContainerInfo{
		ID:     inspect.ID,
		Name:   trimSlash(inspect.Name),
		Image:  inspect.Config.Image,
		Labels: inspect.Config.Labels,
		Status: mapDockerStatus(inspect.State.Status),
	}
	if t, err := time.Parse(time.RFC3339Nano, inspect.Created); err == nil {
		info.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, inspect.State.StartedAt); err == nil {
		info.StartedAt = t
	}
	return info, nil
}

func trimSlash(s string) string {
	if len(s) > 0 && s[0] == '/' {
		return s[1:]
	}
	return s
}

func mapDockerStatus(state string) Status {
	switch state {
	case "running":
		return StatusRunning
	case "exited", "dead":
		return StatusStopped
	case "created":
		return StatusCreating
	default:
		return StatusStopped
	}
}

func notFoundError(id string) error {
	return fmt.Errorf("container %s not found: %w", id, ErrNotFound)
}
