// Package ui provides colored status lines for the CI log.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	// Colors
	Red    = color.New(color.FgRed)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Blue   = color.New(color.FgBlue)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
)

var (
	stdout io.Writer = color.Output
	stderr io.Writer = color.Error
)

// SetOutput redirects status lines to out and errors to errOut.
// It returns a function that restores the previous writers.
func SetOutput(out, errOut io.Writer) func() {
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	return func() {
		stdout, stderr = prevOut, prevErr
	}
}

// Success prints a green success message with checkmark.
func Success(format string, args ...any) {
	Green.Fprintf(stdout, "✓ "+format+"\n", args...)
}

// Error prints a red error message with X to stderr.
func Error(format string, args ...any) {
	Red.Fprintf(stderr, "✗ "+format+"\n", args...)
}

// Warning prints a yellow warning message.
func Warning(format string, args ...any) {
	Yellow.Fprintf(stdout, "⚠ "+format+"\n", args...)
}

// Info prints a blue info message.
func Info(format string, args ...any) {
	Blue.Fprintf(stdout, format+"\n", args...)
}

// Step prints a numbered step in cyan.
func Step(n int, format string, args ...any) {
	Cyan.Fprintf(stdout, "[%d] ", n)
	fmt.Fprintf(stdout, format+"\n", args...)
}

// Header prints a bold header.
func Header(format string, args ...any) {
	Bold.Fprintf(stdout, format+"\n", args...)
}

// Command echoes a command line before it runs.
func Command(format string, args ...any) {
	Cyan.Fprintf(stdout, "$ "+format+"\n", args...)
}

// Diff prints a unified diff with added lines in green and removed lines
// in red.
func Diff(text string) {
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			Bold.Fprintln(stdout, line)
		case strings.HasPrefix(line, "+"):
			Green.Fprintln(stdout, line)
		case strings.HasPrefix(line, "-"):
			Red.Fprintln(stdout, line)
		case strings.HasPrefix(line, "@@"):
			Cyan.Fprintln(stdout, line)
		default:
			fmt.Fprintln(stdout, line)
		}
	}
}
