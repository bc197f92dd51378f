package container

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"

	"symgen/internal/errors"
)

const (
	// WorkDir is where the output directory is mounted inside the container.
	WorkDir = "/work"

	// ExitUnknown is reported when the container's exit status could not be
	// observed.
	ExitUnknown int64 = -1

	cpuPeriod      = 100000
	maxLineSize    = 1024 * 1024
	removeTimeout  = 30 * time.Second
	scriptFileMode = 0755
)

// State is a step in a container's life.
type State string

const (
	StateCreated           State = "created"
	StateStarted           State = "started"
	StateRunning           State = "running"
	StateExited            State = "exited"
	StateRemoved           State = "removed"
	StateFailedBeforeStart State = "failed_before_start"
)

// Limits caps the resources of a container.
type Limits struct {
	MemoryBytes int64
	CPUs        float64
}

// Spec describes one script execution.
type Spec struct {
	Image     string
	Script    string
	OutputDir string
	Limits    Limits
	Platform  string
	// Env is passed to the container as KEY=VALUE pairs.
	Env []string
}

// Run executes spec.Script in a fresh container and relays every output line
// to onLog. It returns the container's exit code, or ExitUnknown when that
// could not be determined. The container and the script file are removed on
// every path once they exist.
func (e *Engine) Run(ctx context.Context, spec Spec, onLog func(line string)) (int64, error) {
	outDir, err := filepath.Abs(spec.OutputDir)
	if err != nil {
		return ExitUnknown, fmt.Errorf("%w: output directory: %v", errors.ErrInvalidInput, err)
	}
	platformStr := spec.Platform
	if platformStr == "" {
		platformStr = DefaultPlatform
	}
	platform, err := ParsePlatform(platformStr)
	if err != nil {
		return ExitUnknown, err
	}

	id := uuid.NewString()
	name := "symgen-" + id
	scriptName := ".symgen-" + id + ".sh"
	scriptPath := filepath.Join(outDir, scriptName)
	logger := e.logger.With().Str("container", name).Logger()

	if err := os.WriteFile(scriptPath, []byte(spec.Script), scriptFileMode); err != nil {
		return ExitUnknown, fmt.Errorf("%w: writing script: %v", errors.ErrExecutionFailed, err)
	}
	defer errors.Cleanup(logger, "remove script file", func() error {
		return os.Remove(scriptPath)
	})
	// WriteFile honours the umask; the container needs the exec bit.
	if err := os.Chmod(scriptPath, scriptFileMode); err != nil {
		return ExitUnknown, fmt.Errorf("%w: chmod script: %v", errors.ErrExecutionFailed, err)
	}

	config := &container.Config{
		Image:      spec.Image,
		Cmd:        []string{"bash", WorkDir + "/" + scriptName},
		WorkingDir: WorkDir,
		Env:        spec.Env,
	}
	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: outDir,
			Target: WorkDir,
		}},
		Resources: resources(spec.Limits),
	}

	created, err := e.api.ContainerCreate(ctx, config, hostConfig, nil, platform, name)
	if err != nil {
		logger.Debug().Str("state", string(StateFailedBeforeStart)).Err(err).Msg("create failed")
		return ExitUnknown, fmt.Errorf("%w: creating container: %v", errors.ErrExecutionFailed, err)
	}
	for _, w := range created.Warnings {
		logger.Warn().Msg(w)
	}
	logger.Debug().Str("state", string(StateCreated)).Str("id", created.ID).Msg("container created")

	defer func() {
		rmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), removeTimeout)
		defer cancel()
		if err := e.api.ContainerRemove(rmCtx, created.ID, container.RemoveOptions{Force: true}); err != nil {
			logger.Warn().Err(err).Msg("remove container")
			return
		}
		logger.Debug().Str("state", string(StateRemoved)).Msg("container removed")
	}()

	if err := e.api.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		logger.Debug().Str("state", string(StateFailedBeforeStart)).Err(err).Msg("start failed")
		return ExitUnknown, fmt.Errorf("%w: starting container: %v", errors.ErrExecutionFailed, err)
	}
	logger.Debug().Str("state", string(StateStarted)).Msg("container started")

	logs, err := e.api.ContainerLogs(ctx, created.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("attaching to container logs failed")
	} else {
		logger.Debug().Str("state", string(StateRunning)).Msg("streaming logs")
		if err := streamLines(logs, onLog); err != nil {
			logger.Warn().Err(err).Msg("log stream interrupted")
		}
		errors.DeferClose(logger, logs, "close log stream")
	}

	code := ExitUnknown
	statusCh, errCh := e.api.ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			logger.Warn().Str("error", status.Error.Message).Msg("wait reported an error")
		}
		code = status.StatusCode
	case err := <-errCh:
		if ctx.Err() != nil {
			return ExitUnknown, ctx.Err()
		}
		logger.Warn().Err(err).Msg("waiting for container failed")
	}
	logger.Debug().Str("state", string(StateExited)).Int64("exit_code", code).Msg("container exited")
	return code, nil
}

func resources(l Limits) container.Resources {
	r := container.Resources{Memory: l.MemoryBytes}
	if l.CPUs > 0 {
		r.CPUPeriod = cpuPeriod
		r.CPUQuota = int64(l.CPUs * cpuPeriod)
	}
	return r
}

// streamLines demultiplexes a Docker log stream and hands it to onLog one
// line at a time. stdout and stderr are split into lines separately, so a
// partial line on one never swallows a line from the other. Calls to onLog
// are serialized.
func streamLines(logs io.Reader, onLog func(string)) error {
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(outW, errW, logs)
		outW.CloseWithError(err)
		errW.CloseWithError(err)
	}()

	lines := make(chan string)
	scanErrs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, r := range []*io.PipeReader{outR, errR} {
		wg.Add(1)
		go func(r *io.PipeReader) {
			defer wg.Done()
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				// Unblocks StdCopy, which then closes the other stream.
				r.CloseWithError(err)
				scanErrs <- err
			}
		}(r)
	}
	go func() {
		wg.Wait()
		close(lines)
		close(scanErrs)
	}()

	for l := range lines {
		if onLog != nil {
			onLog(l)
		}
	}
	return <-scanErrs
}
