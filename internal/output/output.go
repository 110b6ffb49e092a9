// Package output provides formatted terminal output for check runs.
package output

import (
	"fmt"
	"io"
	"time"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Stats holds run statistics for the recap line.
type Stats interface {
	GetInstalled() int
	GetNotInstalled() int
	GetDuration() time.Duration
}

// Output handles formatted output.
type Output struct {
	w        io.Writer
	useColor bool
	debug    bool
}

// New creates a new output handler.
func New(w io.Writer) *Output {
	return &Output{
		w:        w,
		useColor: true,
	}
}

// SetColor enables or disables color output.
func (o *Output) SetColor(enabled bool) {
	o.useColor = enabled
}

// SetDebug enables or disables debug output.
func (o *Output) SetDebug(enabled bool) {
	o.debug = enabled
}

// color returns the string wrapped in color codes if enabled.
func (o *Output) color(c, s string) string {
	if !o.useColor {
		return s
	}
	return c + s + colorReset
}

// HostStart prints the banner for a target host and its detected OS.
func (o *Output) HostStart(target, osName string) {
	o.printf("\n%s %s %s\n", o.color(colorBold, "HOST"), target, o.color(colorGray, "("+osName+")"))
}

// StatusLine prints "+ alias: rendered", green when installed and red otherwise.
func (o *Output) StatusLine(alias, rendered string, installed bool) {
	c := colorRed
	if installed {
		c = colorGreen
	}
	o.printf("+ %s: %s\n", o.color(c, alias), o.color(c, rendered))
}

// Recap prints the run summary.
func (o *Output) Recap(stats Stats) {
	o.printf("\n%s ", o.color(colorBold, "RECAP"))

	installed := o.color(colorGreen, fmt.Sprintf("installed=%d", stats.GetInstalled()))
	notInstalled := o.color(colorRed, fmt.Sprintf("not_installed=%d", stats.GetNotInstalled()))

	o.printf("%s %s", installed, notInstalled)
	o.printf(" %s\n", o.color(colorGray, fmt.Sprintf("(%.2fs)", stats.GetDuration().Seconds())))
}

// Warn prints a warning message.
func (o *Output) Warn(format string, args ...any) {
	o.printf("%s %s\n", o.color(colorYellow, "WARN"), fmt.Sprintf(format, args...))
}

// Debug prints a debug message (only in debug mode).
func (o *Output) Debug(format string, args ...any) {
	if o.debug {
		o.printf("%s %s\n", o.color(colorCyan, "DEBUG"), fmt.Sprintf(format, args...))
	}
}

func (o *Output) printf(format string, args ...any) {
	fmt.Fprintf(o.w, format, args...)
}
