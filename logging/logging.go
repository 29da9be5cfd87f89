// Package logging builds the process logger: console output plus a daily
// log file named probewatch_YYYYMMDD.log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/netsight-labs/probewatch/config"
)

// New builds a logger per cfg. When cfg.Dir is non-empty the logger also
// writes to a date-stamped file there; the returned closer releases it.
func New(cfg config.Log) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("logging: invalid level %q: %w", cfg.Level, err)
	}

	var console io.Writer = os.Stderr
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	writer := console
	var closer io.Closer
	if cfg.Dir != "" {
		path := filepath.Join(cfg.Dir, fmt.Sprintf("probewatch_%s.log", time.Now().Format("20060102")))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("logging: opening %s: %w", path, err)
		}
		writer = zerolog.MultiLevelWriter(console, f)
		closer = f
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}
