// Package container runs synthesized scripts inside disposable distribution
// containers through the Docker Engine API.
package container

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/system"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog"

	"symgen/internal/errors"
)

// DefaultPlatform is the only platform the symbol scripts are written for.
const DefaultPlatform = "linux/amd64"

// API is the subset of the Docker client the engine uses.
type API interface {
	Ping(ctx context.Context) (types.Ping, error)
	Info(ctx context.Context) (system.Info, error)
	ImageInspectWithRaw(ctx context.Context, imageID string) (types.ImageInspect, []byte, error)
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	Close() error
}

// NewClient dials the daemon configured by DOCKER_HOST and friends. Tests
// replace it.
var NewClient = func() (API, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// Info describes the daemon the engine is connected to.
type Info struct {
	APIVersion string `json:"api_version"`
	OSType     string `json:"os_type"`
}

// Engine owns one connection to the container runtime.
type Engine struct {
	api    API
	logger zerolog.Logger
}

// New wraps an existing API connection.
func New(api API, logger zerolog.Logger) *Engine {
	return &Engine{api: api, logger: logger.With().Str("component", "container").Logger()}
}

// Connect dials the runtime and verifies it answers.
func Connect(ctx context.Context, logger zerolog.Logger) (*Engine, error) {
	api, err := NewClient()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrRuntimeUnavailable, err)
	}
	e := New(api, logger)
	if _, err := e.Ping(ctx); err != nil {
		errors.DeferClose(e.logger, api, "close docker client")
		return nil, err
	}
	return e, nil
}

// Ping checks the daemon is reachable and reports what it runs.
func (e *Engine) Ping(ctx context.Context) (Info, error) {
	p, err := e.api.Ping(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", errors.ErrRuntimeUnavailable, err)
	}
	e.logger.Debug().Str("api_version", p.APIVersion).Str("os_type", p.OSType).Msg("runtime reachable")
	return Info{APIVersion: p.APIVersion, OSType: p.OSType}, nil
}

// Rootless reports whether the daemon runs in rootless mode, where uid 0 in a
// container maps to the invoking user on the host.
func (e *Engine) Rootless(ctx context.Context) (bool, error) {
	info, err := e.api.Info(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", errors.ErrRuntimeUnavailable, err)
	}
	for _, opt := range info.SecurityOptions {
		for _, field := range strings.Split(opt, ",") {
			if field == "name=rootless" {
				return true, nil
			}
		}
	}
	return false, nil
}

// Close releases the runtime connection.
func (e *Engine) Close() error {
	return e.api.Close()
}

// Pull makes ref available locally for platform. An image that is already
// present is not pulled again.
func (e *Engine) Pull(ctx context.Context, ref, platform string) error {
	if _, _, err := e.api.ImageInspectWithRaw(ctx, ref); err == nil {
		e.logger.Debug().Str("image", ref).Msg("image already present")
		return nil
	}

	rc, err := e.api.ImagePull(ctx, ref, image.PullOptions{Platform: platform})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrPullFailed, ref, err)
	}
	defer errors.DeferClose(e.logger, rc, "close pull stream")

	dec := json.NewDecoder(rc)
	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("%w: %s: reading progress: %v", errors.ErrPullFailed, ref, err)
		}
		if msg.Error != nil {
			return fmt.Errorf("%w: %s: %s", errors.ErrPullFailed, ref, msg.Error.Message)
		}
		if msg.Status != "" {
			e.logger.Debug().Str("image", ref).Str("id", msg.ID).Msg(msg.Status)
		}
	}
	e.logger.Debug().Str("image", ref).Msg("image pulled")
	return nil
}

// ParsePlatform splits an "os/arch[/variant]" string.
func ParsePlatform(s string) (*ocispec.Platform, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: platform %q is not os/arch", errors.ErrInvalidInput, s)
	}
	p := &ocispec.Platform{OS: parts[0], Architecture: parts[1]}
	if len(parts) == 3 {
		p.Variant = parts[2]
	}
	return p, nil
}
