// Package logging builds the zerolog logger described by the tool config.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"emuinject/internal/config"
)

// New returns a logger writing to w: human readable for the "text"
// format, one JSON object per line for "json".
func New(cfg config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("DOC_CONFIG_LOGGING: %w", err)
	}
	switch cfg.Format {
	case "json":
	case "text", "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	default:
		return zerolog.Nop(), fmt.Errorf("DOC_CONFIG_LOGGING: invalid format %q", cfg.Format)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
