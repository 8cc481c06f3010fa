/*
Package engine wraps the container engine API named in SPEC_FULL.md §6A:
image pull with progress events, container create with tmpfs/volume/
label/port-binding support, start/stop/restart/remove, synchronous exec
capturing stdout/stderr/exit code, archive upload to a path inside the
container, one-shot or follow logs, and streaming resource statistics.

Engine is the narrow transport interface; DockerEngine is the only
implementation, built on github.com/docker/docker/client against a local
Docker-compatible daemon. Every other dbarena component (pkg/container,
pkg/initexec, pkg/metrics) talks to Engine, never to the Docker client
directly, so a second engine backend could be added without touching
policy code.
*/
package engine
