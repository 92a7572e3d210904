// Package logging adapts zerolog to the client's Logger interface.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger writes key/value log lines through zerolog
type Logger struct {
	zl zerolog.Logger
}

// NewZerolog wraps zl
func NewZerolog(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// New builds a logger writing to stderr. format "console" gives human
// readable output, anything else JSON. Unknown levels fall back to info.
func New(level, format string) *Logger {
	return newWithWriter(os.Stderr, level, format)
}

func newWithWriter(w io.Writer, level, format string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w}
	}

	zl := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return NewZerolog(zl)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(l.zl.Debug(), msg, keysAndValues)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(l.zl.Info(), msg, keysAndValues)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(l.zl.Warn(), msg, keysAndValues)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(l.zl.Error(), msg, keysAndValues)
}

func (l *Logger) log(e *zerolog.Event, msg string, keysAndValues []interface{}) {
	if e == nil {
		return
	}
	// A trailing value without a key is logged under "extra"
	if n := len(keysAndValues); n%2 == 1 {
		keysAndValues = append(keysAndValues[:n-1:n-1], "extra", keysAndValues[n-1])
	}
	e.Fields(keysAndValues).Msg(msg)
}
