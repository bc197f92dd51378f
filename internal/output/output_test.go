package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOutput(t *testing.T, jsonMode bool) (*Output, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	origNoColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = origNoColor })

	var out, errOut bytes.Buffer
	return New(jsonMode, &out, &errOut), &out, &errOut
}

func TestHumanMode(t *testing.T) {
	o, out, errOut := newTestOutput(t, false)

	o.Info("Kernel: 5.15.0-91-generic")
	o.Success("Symbol file generated")
	o.Warning("Symbol file already exists")
	o.Progress(">>> Installing required packages...")
	o.Status("Running container")
	o.Done()
	o.Error("boom")
	o.Result(true, map[string]string{"a": "b"}, nil)

	want := strings.Join([]string{
		"[*] Kernel: 5.15.0-91-generic",
		"[+] Symbol file generated",
		"[!] Symbol file already exists",
		"[>] >>> Installing required packages...",
		"[>] Running container",
		"",
	}, "\n")
	assert.Equal(t, want, out.String())
	assert.Equal(t, "[!] boom\n", errOut.String())
	assert.False(t, o.IsJSON())
}

func decodeLines(t *testing.T, r io.Reader) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	dec := json.NewDecoder(r)
	for dec.More() {
		var m map[string]interface{}
		require.NoError(t, dec.Decode(&m))
		lines = append(lines, m)
	}
	return lines
}

func TestJSONMode(t *testing.T) {
	o, out, errOut := newTestOutput(t, true)

	o.Info("Pulling image")
	o.Warning("exists")
	o.Progress(">>> step")
	o.Status("Running container")
	o.Done()
	o.Error("boom")

	for _, l := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		assert.True(t, json.Valid([]byte(l)), "line %q is not one JSON object", l)
	}
	lines := decodeLines(t, out)
	require.Len(t, lines, 4)
	assert.Equal(t, map[string]interface{}{"level": "info", "message": "Pulling image"}, lines[0])
	assert.Equal(t, "warning", lines[1]["level"])
	assert.Equal(t, "progress", lines[2]["level"])
	assert.Equal(t, "Running container", lines[3]["message"])

	errLines := decodeLines(t, errOut)
	require.Len(t, errLines, 1)
	assert.Equal(t, "error", errLines[0]["level"])
	assert.True(t, o.IsJSON())
}

func TestResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		o, out, _ := newTestOutput(t, true)
		o.Result(true, map[string]int{"file_size": 42}, nil)
		assert.Equal(t, `{"success":true,"data":{"file_size":42},"error":null}`+"\n", out.String())
	})

	t.Run("failure", func(t *testing.T) {
		o, out, _ := newTestOutput(t, true)
		o.Result(false, nil, errors.New("no such image"))
		assert.Equal(t, `{"success":false,"data":null,"error":"no such image"}`+"\n", out.String())
	})
}

func TestPhase(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		o, out, _ := newTestOutput(t, true)
		o.Phase("downloading_kernel", "Updating package lists...")
		assert.Equal(t, `{"level":"progress","phase":"downloading_kernel","message":"Updating package lists..."}`+"\n", out.String())
	})

	t.Run("human", func(t *testing.T) {
		o, out, _ := newTestOutput(t, false)
		o.Phase("pulling_image", "Pulling image ubuntu:22.04...")
		assert.Equal(t, "[>] Pulling image ubuntu:22.04...\n", out.String())
	})

	t.Run("plain progress has no phase", func(t *testing.T) {
		o, out, _ := newTestOutput(t, true)
		o.Progress(">>> step")
		assert.NotContains(t, out.String(), "phase")
	})
}

func TestStatusWithoutTerminalDoesNotSpin(t *testing.T) {
	origIsTerminal := IsTerminal
	t.Cleanup(func() { IsTerminal = origIsTerminal })
	IsTerminal = func(io.Writer) bool { return false }

	o, out, _ := newTestOutput(t, false)
	o.Status("Running container")
	o.Progress(">>> step")
	o.Done()

	assert.Nil(t, o.spinner)
	assert.Equal(t, "[>] Running container\n[>] >>> step\n", out.String())
}

func TestStatusOnTerminalSpins(t *testing.T) {
	origIsTerminal := IsTerminal
	t.Cleanup(func() { IsTerminal = origIsTerminal })
	IsTerminal = func(io.Writer) bool { return true }

	o, _, _ := newTestOutput(t, false)
	o.Status("Running container")
	require.NotNil(t, o.spinner)

	o.Progress(">>> Compressing symbol file...")
	o.spinner.Lock()
	suffix := o.spinner.Suffix
	o.spinner.Unlock()
	assert.Equal(t, " >>> Compressing symbol file...", suffix)

	o.Done()
	assert.Nil(t, o.spinner)
}
