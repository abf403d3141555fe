// Package logger provides verbose logging for flowver.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to show lock waits, bumps and store I/O.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu         sync.RWMutex
	verbose    bool
	timestamps bool
	output     io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetTimestamps prefixes every line with an RFC 3339 time.
// Used by long-running commands such as watch and mcp.
func SetTimestamps(v bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = v
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// write holds the exclusive lock so concurrent lines never interleave.
func write(level, component, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	prefix := "[" + level + "] "
	if component != "" {
		prefix += component + ": "
	}
	if timestamps {
		prefix = time.Now().UTC().Format(time.RFC3339) + " " + prefix
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write("DEBUG", "", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write("INFO", "", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	write("WARN", "", format, args...)
}

// Scoped is a logger that tags every line with a component name.
type Scoped struct {
	component string
}

// For returns a logger for the named component.
func For(component string) *Scoped {
	return &Scoped{component: component}
}

// Component returns the component name.
func (s *Scoped) Component() string {
	return s.component
}

// Debug prints a tagged debug message if verbose mode is enabled.
func (s *Scoped) Debug(format string, args ...any) {
	write("DEBUG", s.component, format, args...)
}

// Info prints a tagged informational message if verbose mode is enabled.
func (s *Scoped) Info(format string, args ...any) {
	write("INFO", s.component, format, args...)
}

// Warn prints a tagged warning if verbose mode is enabled.
func (s *Scoped) Warn(format string, args ...any) {
	write("WARN", s.component, format, args...)
}
