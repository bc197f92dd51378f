// Package output renders user-facing status lines, either as coloured text
// or as one JSON object per line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// Status line levels as they appear in JSON mode.
const (
	LevelInfo     = "info"
	LevelSuccess  = "success"
	LevelWarning  = "warning"
	LevelProgress = "progress"
	LevelError    = "error"
)

type prefix struct {
	color *color.Color
	tag   string
}

var (
	infoPrefix     = prefix{color.New(color.FgBlue), "[*]"}
	successPrefix  = prefix{color.New(color.FgGreen), "[+]"}
	warningPrefix  = prefix{color.New(color.FgYellow), "[!]"}
	progressPrefix = prefix{color.New(color.FgCyan), "[>]"}
	errorPrefix    = prefix{color.New(color.FgRed), "[!]"}
)

// IsTerminal reports whether w is an interactive terminal. Tests replace it.
var IsTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type message struct {
	Level   string `json:"level"`
	Phase   string `json:"phase,omitempty"`
	Message string `json:"message"`
}

// Result is the final line of a JSON-mode run.
type Result struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *string     `json:"error"`
}

// Output writes status lines to out and errors to errOut.
type Output struct {
	json   bool
	out    io.Writer
	errOut io.Writer

	mu      sync.Mutex
	spinner *spinner.Spinner
}

// New returns an Output. In JSON mode every line is a compact JSON object.
func New(jsonMode bool, out, errOut io.Writer) *Output {
	return &Output{json: jsonMode, out: out, errOut: errOut}
}

// IsJSON reports whether the output is in JSON mode.
func (o *Output) IsJSON() bool {
	return o.json
}

func (o *Output) Info(msg string)    { o.line(o.out, LevelInfo, infoPrefix, msg) }
func (o *Output) Success(msg string) { o.line(o.out, LevelSuccess, successPrefix, msg) }
func (o *Output) Warning(msg string) { o.line(o.out, LevelWarning, warningPrefix, msg) }
func (o *Output) Error(msg string)   { o.line(o.errOut, LevelError, errorPrefix, msg) }

// Progress reports a step of a long-running phase. While a spinner is
// active it replaces the spinner text instead of printing a new line.
func (o *Output) Progress(msg string) {
	o.mu.Lock()
	if o.spinner != nil {
		o.spinner.Lock()
		o.spinner.Suffix = " " + msg
		o.spinner.Unlock()
		o.mu.Unlock()
		return
	}
	o.mu.Unlock()
	o.line(o.out, LevelProgress, progressPrefix, msg)
}

// Phase reports entering a named stage of a run. In JSON mode the stage is
// carried in the "phase" field; in human mode it reads like Progress.
func (o *Output) Phase(phase, msg string) {
	if o.json {
		o.writeJSON(o.out, message{Level: LevelProgress, Phase: phase, Message: msg})
		return
	}
	o.Progress(msg)
}

// Status starts a long-running phase. On a terminal it shows a spinner until
// Done is called; otherwise it prints msg as a progress line.
func (o *Output) Status(msg string) {
	if o.json || !IsTerminal(o.out) {
		o.line(o.out, LevelProgress, progressPrefix, msg)
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.spinner != nil {
		o.spinner.Stop()
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(o.out))
	s.Suffix = " " + msg
	s.Start()
	o.spinner = s
}

// Done ends the phase started by Status.
func (o *Output) Done() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.spinner != nil {
		o.spinner.Stop()
		o.spinner = nil
	}
}

// Result writes the terminal JSON result line. It is a no-op in human mode.
func (o *Output) Result(success bool, data interface{}, err error) {
	if !o.json {
		return
	}
	r := Result{Success: success, Data: data}
	if err != nil {
		s := err.Error()
		r.Error = &s
	}
	o.writeJSON(o.out, r)
}

// JSON writes v as a single JSON line regardless of mode.
func (o *Output) JSON(v interface{}) {
	o.writeJSON(o.out, v)
}

func (o *Output) line(w io.Writer, level string, p prefix, msg string) {
	if o.json {
		o.writeJSON(w, message{Level: level, Message: msg})
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.spinner != nil {
		// Print above the spinner and keep it going.
		o.spinner.Stop()
		defer o.spinner.Start()
	}
	fmt.Fprintf(w, "%s %s\n", p.color.Sprint(p.tag), msg)
}

func (o *Output) writeJSON(w io.Writer, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		b, _ = json.Marshal(message{Level: LevelError, Message: err.Error()})
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(w, string(b))
}
