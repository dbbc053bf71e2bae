/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process.
func Setup(environment string) zerolog.Logger {
	return SetupWithWriter(environment, os.Stdout)
}

// SetupWithWriter configures zerolog to write to out. Development gets
// human-readable console output at debug level; other environments get JSON
// lines at info level.
func SetupWithWriter(environment string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	writer := out
	if isDevelopment(environment) {
		level = zerolog.DebugLevel
		writer = zerolog.ConsoleWriter{Out: out, NoColor: out != os.Stdout}
	}

	logger := zerolog.New(writer).With().
		Timestamp().
		Str("service", "revisionplanner").
		Logger().
		Level(level)
	log.Logger = logger
	return logger
}

func isDevelopment(environment string) bool {
	return environment == "" || strings.EqualFold(environment, "development")
}
