package cmd

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"symgen/internal/errors"
	"symgen/internal/output"
)

func TestCheckCmd(t *testing.T) {
	tests := []struct {
		name           string
		engine         *fakeEngine
		connectErr     error
		args           []string
		expectedOutput string
		wantErr        error
	}{
		{
			name:           "available",
			engine:         &fakeEngine{},
			args:           []string{"check"},
			expectedOutput: "Docker is available and connected (API 1.47, linux)",
		},
		{
			name:           "available json",
			engine:         &fakeEngine{},
			args:           []string{"check", "--json"},
			expectedOutput: `{"success":true,"data":{"api_version":"1.47","os_type":"linux"},"error":null}`,
		},
		{
			name:       "daemon unreachable",
			connectErr: fmt.Errorf("%w: connection refused", errors.ErrRuntimeUnavailable),
			args:       []string{"check"},
			wantErr:    errors.ErrRuntimeUnavailable,
		},
		{
			name:    "ping fails after connect",
			engine:  &fakeEngine{pingErr: errors.ErrRuntimeUnavailable},
			args:    []string{"check"},
			wantErr: errors.ErrRuntimeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupMocks(t, tt.engine)
			if tt.connectErr != nil {
				connectRuntime = func(ctx context.Context, logger zerolog.Logger) (engine, error) {
					return nil, tt.connectErr
				}
			}

			output, err := executeCommand(rootCmd, tt.args...)
			if tt.wantErr != nil {
				if !stderrors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(output, tt.expectedOutput) {
				t.Errorf("expected output to contain %q, got %q", tt.expectedOutput, output)
			}
			if !tt.engine.closed {
				t.Error("expected the runtime client to be closed")
			}
		})
	}
}

func TestReportError(t *testing.T) {
	t.Run("human", func(t *testing.T) {
		var buf bytes.Buffer
		jsonOutput = false
		out = output.New(false, &buf, &buf)
		t.Cleanup(func() { out = nil })

		reportError(errors.E("check", errors.ErrRuntimeUnavailable))

		got := buf.String()
		if !strings.Contains(got, `[!] operation "check" failed: container runtime unavailable`) {
			t.Errorf("missing error line in %q", got)
		}
		if !strings.Contains(got, "[*] Is Docker running?") {
			t.Errorf("missing hint in %q", got)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		out = output.New(true, &buf, &buf)
		t.Cleanup(func() { out = nil })

		reportError(stderrors.New("boom"))

		want := `{"success":false,"data":null,"error":"boom"}` + "\n"
		if buf.String() != want {
			t.Errorf("got %q, want %q", buf.String(), want)
		}
	})
}
