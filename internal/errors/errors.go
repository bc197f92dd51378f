package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrRuntimeUnavailable  = errors.New("container runtime unavailable")
	ErrPullFailed          = errors.New("image pull failed")
	ErrExecutionFailed     = errors.New("symbol generation failed")
	ErrArtifactNotProduced = errors.New("artifact not produced")
	ErrArtifactInvalid     = errors.New("artifact is not a valid symbol file")
)

type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("operation %q failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func E(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// Hint returns an actionable suggestion for err, or "" when there is none.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrRuntimeUnavailable):
		return "Is Docker running? Set DOCKER_HOST if the daemon is not on the default socket."
	case errors.Is(err, ErrPullFailed):
		return "Check network access to the registry, or pull the image manually with `docker pull`."
	case errors.Is(err, ErrArtifactNotProduced), errors.Is(err, ErrExecutionFailed):
		return "Re-run with --verbose to see the full container output."
	}
	return ""
}
