// Package generator drives one symbol generation run: it resolves the target,
// pulls the image, runs the provisioning script and verifies the artifact.
package generator

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/ulikunitz/xz"

	"symgen/internal/container"
	"symgen/internal/errors"
	"symgen/internal/script"
	"symgen/internal/util"
)

// Engine runs containers.
type Engine interface {
	Pull(ctx context.Context, ref, platform string) error
	Run(ctx context.Context, spec container.Spec, onLog func(line string)) (int64, error)
}

// Reporter receives user-facing status lines.
type Reporter interface {
	Info(msg string)
	Success(msg string)
	Warning(msg string)
	Progress(msg string)
	Phase(phase, msg string)
	Status(msg string)
	Done()
}

// Options tune the container a run uses.
type Options struct {
	Limits   container.Limits
	Platform string
	// Timeout bounds the container run. Zero means no limit.
	Timeout time.Duration
	// Rootless is set when the daemon runs rootless. Files the container
	// writes as root then already belong to the invoking user.
	Rootless bool
}

// Result describes a symbol file on disk.
type Result struct {
	KernelVersion string `json:"kernel_version"`
	Distro        string `json:"distro"`
	DistroVersion string `json:"distro_version"`
	SymbolFile    string `json:"symbol_file"`
	FileSize      int64  `json:"file_size"`
}

// HostOwner returns the uid and gid the artifact should belong to, or false
// when the platform has no such notion. Tests replace it.
var HostOwner = func() (int, int, bool) {
	uid, gid := os.Getuid(), os.Getgid()
	return uid, gid, uid >= 0 && gid >= 0
}

type Generator struct {
	engine   Engine
	reporter Reporter
	logger   zerolog.Logger
	opts     Options
}

func New(engine Engine, reporter Reporter, logger zerolog.Logger, opts Options) *Generator {
	return &Generator{
		engine:   engine,
		reporter: reporter,
		logger:   logger.With().Str("component", "generator").Logger(),
		opts:     opts,
	}
}

// Generate produces the symbol file for req. An artifact that already exists
// is returned as is without touching the container runtime.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	r := req.Release
	g.reporter.Info(fmt.Sprintf("Generating symbol for %s %s kernel %s", r.Distro.DisplayName(), r.Version, req.Kernel))
	g.logger.Debug().
		Str("distro_input", req.DistroInput).
		Str("distro", string(req.Distro)).
		Str("version", r.Version).
		Str("kernel", req.Kernel).
		Msg("resolved request")

	outDir := req.OutputDir
	if outDir == "" {
		outDir = "."
	}
	outDir, err := filepath.Abs(outDir)
	if err != nil {
		return nil, errors.E("generate", err)
	}
	path := filepath.Join(outDir, req.ArtifactName())

	if util.FileExists(path) {
		g.reporter.Warning("Symbol file already exists: " + path)
		return g.result(req, path)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, errors.E("generate", fmt.Errorf("creating output directory: %w", err))
	}

	g.reporter.Phase(string(PhasePullingImage), fmt.Sprintf("Pulling image %s...", r.Image))
	if err := g.engine.Pull(ctx, r.Image, g.opts.Platform); err != nil {
		return nil, errors.E("generate", err)
	}
	g.reporter.Success("Image ready")

	body, err := script.Synthesize(req.Kernel, r)
	if err != nil {
		return nil, errors.E("generate", err)
	}

	spec := container.Spec{
		Image:     r.Image,
		Script:    body,
		OutputDir: outDir,
		Limits:    g.opts.Limits,
		Platform:  g.opts.Platform,
	}
	if uid, gid, ok := HostOwner(); ok && uid != 0 && !g.opts.Rootless {
		spec.Env = []string{
			"SYMGEN_HOST_UID=" + strconv.Itoa(uid),
			"SYMGEN_HOST_GID=" + strconv.Itoa(gid),
		}
	}

	runCtx := ctx
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	g.reporter.Status("Running symbol generation in container...")
	code, err := g.engine.Run(runCtx, spec, g.relay)
	g.reporter.Done()
	if err != nil {
		if ctx.Err() == nil && stderrors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, errors.E("generate", fmt.Errorf("%w: container timed out after %s", errors.ErrExecutionFailed, g.opts.Timeout))
		}
		return nil, errors.E("generate", err)
	}
	if code != 0 {
		return nil, errors.E("generate", fmt.Errorf("%w: container exited with code %d", errors.ErrExecutionFailed, code))
	}

	if !util.FileExists(path) {
		return nil, errors.E("generate", fmt.Errorf("%w: %s", errors.ErrArtifactNotProduced, path))
	}
	if err := verifyArtifact(path); err != nil {
		return nil, errors.E("generate", err)
	}

	res, err := g.result(req, path)
	if err != nil {
		return nil, err
	}
	g.reporter.Success(fmt.Sprintf("Symbol file created: %s (%s)", path, humanize.IBytes(uint64(res.FileSize))))
	return res, nil
}

// relay forwards progress markers to the reporter, as a phase change when the
// marker is a known one. Every line reaches the debug log.
func (g *Generator) relay(line string) {
	g.logger.Debug().Str("line", line).Msg("container output")
	trimmed := strings.TrimSpace(line)
	if phase, msg, ok := PhaseOf(trimmed); ok {
		g.reporter.Phase(string(phase), msg)
		return
	}
	if strings.HasPrefix(trimmed, ">>>") || strings.HasPrefix(trimmed, "===") {
		g.reporter.Progress(trimmed)
	}
}

func (g *Generator) result(req Request, path string) (*Result, error) {
	size, err := util.FileSize(path)
	if err != nil {
		return nil, errors.E("generate", err)
	}
	return &Result{
		KernelVersion: req.Kernel,
		Distro:        req.Distro.DisplayName(),
		DistroVersion: req.Release.Version,
		SymbolFile:    path,
		FileSize:      size,
	}, nil
}

// verifyArtifact checks path is an xz stream holding a JSON object.
func verifyArtifact(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrArtifactInvalid, err)
	}
	defer f.Close()

	zr, err := xz.NewReader(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrArtifactInvalid, path, err)
	}
	br := bufio.NewReader(zr)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return fmt.Errorf("%w: %s is empty", errors.ErrArtifactInvalid, path)
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", errors.ErrArtifactInvalid, path, err)
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return nil
		default:
			return fmt.Errorf("%w: %s does not hold a JSON object", errors.ErrArtifactInvalid, path)
		}
	}
}
