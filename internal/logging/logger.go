// Package logging provides colored, leveled log output for amcdrill.
//
// Output goes to stderr by default. The TUI redirects it to a log file with
// SetOutput so log lines never land on the alternate screen. Debug output is
// suppressed unless verbose mode is enabled via SetVerbose(true).
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stderr
	verbose bool
)

var (
	infoPrefix    = color.New(color.FgBlue).SprintFunc()
	successPrefix = color.New(color.FgGreen).SprintFunc()
	warnPrefix    = color.New(color.FgYellow).SprintFunc()
	errorPrefix   = color.New(color.FgRed).SprintFunc()
	debugPrefix   = color.New(color.FgMagenta).SprintFunc()
)

// SetVerbose enables or disables Debug output.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// Verbose reports whether Debug output is enabled.
func Verbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects all log output to w and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

func write(prefix, msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, prefix+" "+msg)
}

// Info logs an informational message in blue.
func Info(format string, args ...any) {
	write(infoPrefix("[INFO]"), fmt.Sprintf(format, args...))
}

// Success logs a success message in green.
func Success(format string, args ...any) {
	write(successPrefix("[SUCCESS]"), fmt.Sprintf(format, args...))
}

// Warn logs a warning in yellow.
func Warn(format string, args ...any) {
	write(warnPrefix("[WARN]"), fmt.Sprintf(format, args...))
}

// Error logs an error in red.
func Error(format string, args ...any) {
	write(errorPrefix("[ERROR]"), fmt.Sprintf(format, args...))
}

// Debug logs only when verbose mode is enabled.
func Debug(format string, args ...any) {
	if !Verbose() {
		return
	}
	write(debugPrefix("[DEBUG]"), fmt.Sprintf(format, args...))
}

// OpenFile opens path for appending and redirects output to it. The
// returned function restores the previous writer and closes the file.
func OpenFile(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	prev := SetOutput(f)
	return func() {
		SetOutput(prev)
		f.Close()
	}, nil
}
