// Package report provides the synchronized diagnostic output stream shared by
// all workers in a run. Every progress, warning and error line funnels
// through a single Reporter so that concurrent entries never interleave
// mid-line.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Reporter writes diagnostic lines to a single output stream. Methods are
// safe for concurrent use.
type Reporter struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// New creates a Reporter writing to out. A nil writer discards all output.
func New(out io.Writer, color bool) *Reporter {
	if out == nil {
		out = io.Discard
	}
	return &Reporter{out: out, color: color}
}

// Info reports routine progress.
func (r *Reporter) Info(format string, a ...any) {
	r.write(infoStyle, format, a...)
}

// Success reports a completed outcome.
func (r *Reporter) Success(format string, a ...any) {
	r.write(successStyle, format, a...)
}

// Warn reports a recoverable condition.
func (r *Reporter) Warn(format string, a ...any) {
	r.write(warnStyle, format, a...)
}

// Error reports a failure.
func (r *Reporter) Error(format string, a ...any) {
	r.write(errorStyle, format, a...)
}

func (r *Reporter) write(style lipgloss.Style, format string, a ...any) {
	line := fmt.Sprintf(format, a...)
	if r.color {
		line = style.Render(line)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, line)
}
