// Package locatorlog is a thin leveled wrapper around the standard
// library *log.Logger, in the same "<Component>: <message>" style the
// rest of this codebase's ancestry uses for its GPS and collector logs.
package locatorlog

import (
	"log"
	"os"
)

// Level controls which calls actually reach the underlying logger.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelSilent suppresses all output.
	LevelSilent
)

// Logger prefixes every line with a component tag and filters by level.
type Logger struct {
	component string
	level     Level
	out       *log.Logger
}

// New builds a Logger writing to os.Stderr at LevelInfo.
func New(component string) *Logger {
	return &Logger{
		component: component,
		level:     LevelInfo,
		out:       log.New(os.Stderr, "", log.LstdFlags),
	}
}

// WithLevel returns a copy of l at the given level.
func (l *Logger) WithLevel(level Level) *Logger {
	cp := *l
	cp.level = level
	return &cp
}

// With returns a copy of l scoped to a sub-component, e.g.
// logger.With("robust.RANSAC").
func (l *Logger) With(component string) *Logger {
	cp := *l
	cp.component = l.component + "." + component
	return &cp
}

func (l *Logger) log(level Level, format string, args []any) {
	if l == nil || level < l.level {
		return
	}
	l.out.Printf("%s: "+format, append([]any{l.component}, args...)...)
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args) }
