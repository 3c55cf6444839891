// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: jroosing-HydraDNS's internal/logging/logging.go (a
// Config struct decoded once, handler chosen from it, slog.SetDefault),
// generalized to pick a colorized github.com/lmittmann/tint handler when
// stderr is a terminal instead of always emitting plain text.

// Package logging builds the process-wide slog.Logger, per spec.md §6's
// "standard LOG=… style variable".
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Configure builds and installs the default [*slog.Logger]. level is the
// raw value of the LOG environment variable ("debug", "info", "warn",
// "error"); an empty or unrecognized value defaults to info.
func Configure(level string) *slog.Logger {
	out := io.Writer(os.Stderr)
	lvl := parseLevel(level)

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = tint.NewHandler(out, &tint.Options{Level: lvl, TimeFormat: time.Kitchen})
	} else {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
