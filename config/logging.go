/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger builds a zerolog logger writing to w. Unknown or empty levels
// default to info.
func (c LoggingConf) Logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil || c.Level == "" {
		level = zerolog.InfoLevel
	}

	if c.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}
