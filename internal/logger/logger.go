package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with service-level context fields attached once.
type Logger struct {
	zerolog.Logger
}

// Config controls logger construction.
type Config struct {
	Level       string // debug | info | warn | error; empty = info
	Environment string // development enables the console writer
	ServiceName string
	Version     string
}

// New builds the service logger. Production output is JSON on stdout;
// development output is the zerolog console writer.
func New(cfg Config) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	base := zerolog.New(os.Stdout)
	if cfg.Environment == "development" {
		base = zerolog.New(out)
	}

	log := base.Level(level).With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("version", cfg.Version).
		Logger()

	return &Logger{Logger: log}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}
