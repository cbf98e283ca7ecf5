package logging

import (
	"io"
	"log/slog"
)

// New creates a text logger writing to output. Debug messages are only
// written when verbose is set.
func New(output io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))
}

// Init creates the logger for the CLI and installs it as the slog default
func Init(output io.Writer, verbose bool) *slog.Logger {
	logger := New(output, verbose)
	slog.SetDefault(logger)
	return logger
}

// Subsystem returns a child logger tagged with name
func Subsystem(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String("subsystem", name))
}
