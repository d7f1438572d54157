// Package logging configures the default slog logger from a verbosity count.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// DefaultLevel is used when no -v flag is given.
const DefaultLevel = slog.LevelWarn

// Level maps a -v count to a level: 0 warn, 1 info, 2 and above debug.
func Level(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return DefaultLevel
	case verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Setup installs a text or JSON handler on stderr as the default logger.
func Setup(verbosity int, jsonLogs bool) *slog.Logger {
	return SetupWriter(os.Stderr, verbosity, jsonLogs)
}

func SetupWriter(w io.Writer, verbosity int, jsonLogs bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: Level(verbosity)}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if jsonLogs {
		h = slog.NewJSONHandler(w, opts)
	}
	l := slog.New(h)
	slog.SetDefault(l)
	return l
}
