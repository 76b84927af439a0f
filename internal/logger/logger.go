// Package logger gives every pipeline stage a component-tagged structured
// logger. Entries are zerolog events: JSON for files and tests, a console
// writer for the CLI.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger provides structured logging with a component tag
type Logger interface {
	Info(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Debug(component, message string, fields map[string]interface{})
}

// Stage is a Logger backed by zerolog
type Stage struct {
	zl zerolog.Logger
}

// NewZerolog writes JSON entries at or above level to w
func NewZerolog(w io.Writer, level zerolog.Level) *Stage {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.DurationFieldInteger = true

	return &Stage{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// NewConsoleLogger writes human readable entries to stderr
func NewConsoleLogger(level zerolog.Level) *Stage {
	return NewZerolog(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, level)
}

// Nop returns a logger that discards everything
func Nop() *Stage {
	return &Stage{zl: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level. An empty name falls back to
// the LOG_LEVEL environment variable and then to info.
func ParseLevel(name string) zerolog.Level {
	if name == "" {
		name = os.Getenv("LOG_LEVEL")
	}
	switch strings.ToLower(name) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (s *Stage) Info(component, message string, fields map[string]interface{}) {
	tag(s.zl.Info(), component, fields).Msg(message)
}

func (s *Stage) Warning(component, message string, fields map[string]interface{}) {
	tag(s.zl.Warn(), component, fields).Msg(message)
}

func (s *Stage) Debug(component, message string, fields map[string]interface{}) {
	tag(s.zl.Debug(), component, fields).Msg(message)
}

func (s *Stage) Error(component string, err error, fields map[string]interface{}) {
	tag(s.zl.Error(), component, fields).Err(err).Msg("operation failed")
}

// tag adds the component and fields to e. zerolog hands out a nil event for
// disabled levels and every method on it is a no-op, so nothing is built then.
func tag(e *zerolog.Event, component string, fields map[string]interface{}) *zerolog.Event {
	if e == nil {
		return nil
	}
	e = e.Str("component", component)
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	return e
}
