// Package telemetry provides the structured-logging convention shared by
// the dispatcher and the CLI. No example in the grounding corpus imports
// a structured-logging library (zap/zerolog) for this kind of small,
// single-process tool — the teacher's own CLI layer logs through
// fmt.Fprintf/log — so this stays on the standard library's log.Logger,
// gated by a debug flag sourced from internal/config.
package telemetry

import (
	"log"
	"os"
)

// Logger wraps the standard logger with a debug gate so mutating
// dispatcher calls can log at debug verbosity without cluttering normal
// operation.
type Logger struct {
	debug bool
	std   *log.Logger
}

// New returns a Logger that writes to stderr, prefixed "edfs: ".
func New(debug bool) *Logger {
	return &Logger{
		debug: debug,
		std:   log.New(os.Stderr, "edfs: ", log.LstdFlags),
	}
}

// Op logs one dispatcher call at debug verbosity.
func (l *Logger) Op(name, path string, err error) {
	if !l.debug {
		return
	}
	if err != nil {
		l.std.Printf("%s %s: error: %v", name, path, err)
		return
	}
	l.std.Printf("%s %s: ok", name, path)
}

// Infof logs unconditionally, for top-level CLI messages.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.std.Printf(format, args...)
}
