// Package logging provides the bracketed-component logger used across the
// hillshading engine, matching the plain `log.Logger` idiom the rest of the
// codebase was built from rather than introducing a structured logging
// dependency the corpus never reaches for in this layer.
package logging

import (
	"log"
	"os"
)

// Logger writes lines prefixed with a fixed "[Component]" tag, mirroring the
// "[TaskQueue]", "[RateLimit]" style tags used throughout the reference code.
type Logger struct {
	tag string
	std *log.Logger
}

// New returns a Logger tagged with component, writing to stderr.
func New(component string) *Logger {
	return &Logger{
		tag: "[" + component + "] ",
		std: log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *Logger) Printf(format string, args ...interface{}) {
	l.std.Printf(l.tag+format, args...)
}

func (l *Logger) Println(args ...interface{}) {
	l.std.Println(append([]interface{}{l.tag}, args...)...)
}
