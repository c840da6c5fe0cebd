// Package logging configures the process-wide zerolog logger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a go-flags option group for logging setup.
type Logger struct {
	Level  string `long:"log-level"  env:"LOG_LEVEL"  description:"Log level (trace, debug, info, warn, error)" default:"info"`
	Format string `long:"log-format" env:"LOG_FORMAT" description:"Log output format (json, text)"              default:"text"`
}

// Setup applies the options to the global zerolog logger.
func (l *Logger) Setup() {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(l.Format, "json") {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
}
