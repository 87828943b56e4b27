// Package logger builds the process-wide structured logger.
package logger

import (
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout. Services receive it via
// their WithLogger options; nothing logs through a package-level default.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
