package generator

import (
	"fmt"
	"regexp"

	"symgen/internal/distro"
	"symgen/internal/errors"
)

// kernelPattern bounds what may be interpolated into the provisioning script.
var kernelPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+~-]*$`)

// Request is a validated generation target. Build it with NewRequest.
type Request struct {
	Kernel string
	Distro distro.Distro
	// DistroInput is the distribution as the user typed it.
	DistroInput string
	Release     distro.Release
	// OutputDir is where the artifact is written; empty means the current
	// directory.
	OutputDir string
}

// NewRequest validates its arguments against the catalog.
func NewRequest(kernel, distroName, version, outputDir string) (Request, error) {
	d, ok := distro.Parse(distroName)
	if !ok {
		return Request{}, fmt.Errorf("%w: unknown distribution %q", errors.ErrInvalidInput, distroName)
	}
	r, ok := distro.Find(d, version)
	if !ok {
		return Request{}, fmt.Errorf("%w: unsupported version %s for %s", errors.ErrInvalidInput, version, d.DisplayName())
	}
	if !kernelPattern.MatchString(kernel) {
		return Request{}, fmt.Errorf("%w: invalid kernel version %q", errors.ErrInvalidInput, kernel)
	}
	return Request{
		Kernel:      kernel,
		Distro:      d,
		DistroInput: distroName,
		Release:     r,
		OutputDir:   outputDir,
	}, nil
}

// ArtifactName is the file the run is expected to produce.
func (r Request) ArtifactName() string {
	return r.Release.ArtifactName(r.Kernel)
}
