// Package cron adapts zerolog to the cron.Logger interface of robfig/cron.
package cron

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger implements cron.Logger on top of a zerolog logger.
// cron reports every schedule wake-up through Info, so Info is logged at debug level.
type Logger struct {
	logger zerolog.Logger
}

var _ cron.Logger = Logger{}

// New returns a Logger writing to the global zerolog logger.
func New() Logger {
	return NewWithLogger(log.Logger)
}

// NewWithLogger returns a Logger writing to l.
func NewWithLogger(l zerolog.Logger) Logger {
	return Logger{logger: l.With().Str("component", "cron").Logger()}
}

// Info implements cron.Logger.
func (l Logger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

// Error implements cron.Logger.
func (l Logger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
