package errors

import (
	"io"

	"github.com/rs/zerolog"
)

// Cleanup runs a best-effort release step. A failure is logged at warn and
// otherwise dropped.
func Cleanup(logger zerolog.Logger, msg string, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}

// DeferClose closes closer, logging instead of returning any error.
func DeferClose(logger zerolog.Logger, closer io.Closer, msg string) {
	if closer == nil {
		return
	}
	Cleanup(logger, msg, closer.Close)
}
