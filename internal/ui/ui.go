// Package ui renders CLI output with optional color.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"

	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

const linkColor = "#87CEEB"

type UI struct {
	Out          io.Writer
	Err          io.Writer
	Output       *termenv.Output
	ErrOutput    *termenv.Output
	ColorEnabled bool
}

func New(out io.Writer, err io.Writer, mode ColorMode) *UI {
	output := termenv.NewOutput(out)
	errOutput := termenv.NewOutput(err)

	return &UI{
		Out:          out,
		Err:          err,
		Output:       output,
		ErrOutput:    errOutput,
		ColorEnabled: shouldEnableColor(output, mode),
	}
}

func shouldEnableColor(output *termenv.Output, mode ColorMode) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return output.ColorProfile() != termenv.Ascii
	}
}

func (u *UI) Errorf(format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if u.ColorEnabled {
		msg = u.ErrOutput.String(msg).Foreground(u.ErrOutput.Color("1")).String()
	}
	fmt.Fprintln(u.Err, msg)
}

func (u *UI) Warnf(format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if u.ColorEnabled {
		msg = u.ErrOutput.String(msg).Foreground(u.ErrOutput.Color("3")).String()
	}
	fmt.Fprintln(u.Err, msg)
}

func (u *UI) Infof(format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if u.ColorEnabled {
		msg = u.Output.String(msg).Foreground(u.Output.Color("4")).String()
	}
	fmt.Fprintln(u.Out, msg)
}

func (u *UI) Successf(format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if u.ColorEnabled {
		msg = u.Output.String(msg).Foreground(u.Output.Color("2")).String()
	}
	fmt.Fprintln(u.Out, msg)
}

// Plainf writes without any styling.
func (u *UI) Plainf(format string, args ...any) {
	fmt.Fprintf(u.Out, format, args...)
	if !strings.HasSuffix(format, "\n") {
		fmt.Fprintln(u.Out)
	}
}

// Field prints one "name: value" line with the name dimmed.
func (u *UI) Field(name string, value any) {
	label := name
	if u.ColorEnabled {
		label = u.Output.String(label).Faint().String()
	}
	fmt.Fprintf(u.Out, "  %s: %v\n", label, value)
}

// Link styles a URL for terminal output.
func (u *UI) Link(text string) string {
	if !u.ColorEnabled {
		return text
	}
	return u.Output.String(text).Foreground(u.Output.Color(linkColor)).String()
}

// StatusLabel colors a capture status: green for captured, yellow for
// duplicate, red for failures, plain otherwise.
func (u *UI) StatusLabel(status types.CaptureStatus) string {
	text := string(status)
	if !u.ColorEnabled {
		return text
	}
	switch status {
	case types.StatusCaptured, types.StatusPreviewed:
		return u.Output.String(text).Foreground(u.Output.Color("2")).String()
	case types.StatusDuplicate:
		return u.Output.String(text).Foreground(u.Output.Color("3")).String()
	case types.StatusFailed, types.StatusUnsupported:
		return u.Output.String(text).Foreground(u.Output.Color("1")).String()
	default:
		return text
	}
}

func NormalizeColorMode(value string) ColorMode {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case string(ColorAlways):
		return ColorAlways
	case string(ColorNever):
		return ColorNever
	default:
		return ColorAuto
	}
}
