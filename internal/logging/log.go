package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level mirrors zerolog's severity ladder.
type Level int8

const (
	TraceLevel Level = Level(zerolog.TraceLevel)
	DebugLevel Level = Level(zerolog.DebugLevel)
	InfoLevel  Level = Level(zerolog.InfoLevel)
	WarnLevel  Level = Level(zerolog.WarnLevel)
	ErrorLevel Level = Level(zerolog.ErrorLevel)
	Disabled   Level = Level(zerolog.Disabled)
)

// Config controls the process-wide logger.
type Config struct {
	Level     Level
	Timestamp bool
	NoColor   bool
	Bypass    bool
}

func DefaultConfig() Config {
	return Config{
		Level:     InfoLevel,
		Timestamp: true,
		NoColor:   false,
		Bypass:    false,
	}
}

var (
	mu     sync.RWMutex
	logger = newLogger(DefaultConfig())
)

// Apply replaces the process-wide logger. Callers should go through
// Configure so the profile/env layering happens exactly once.
func Apply(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(cfg)
}

func newLogger(cfg Config) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	if !cfg.Timestamp {
		output.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	level := zerolog.Level(cfg.Level)
	if cfg.Bypass {
		level = zerolog.TraceLevel
	}
	ctx := zerolog.New(output).Level(level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Tracef(format string, args ...any) {
	l := current()
	l.Trace().Msg(fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) {
	l := current()
	l.Debug().Msg(fmt.Sprintf(format, args...))
}

func Infof(format string, args ...any) {
	l := current()
	l.Info().Msg(fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...any) {
	l := current()
	l.Warn().Msg(fmt.Sprintf(format, args...))
}

func Errf(format string, args ...any) {
	l := current()
	l.Error().Msg(fmt.Sprintf(format, args...))
}

// Logf writes regardless of the configured level (test breadcrumbs).
func Logf(format string, args ...any) {
	l := current()
	l.Log().Msg(fmt.Sprintf(format, args...))
}
