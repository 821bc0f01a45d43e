package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger using slog.
// Debug level is opt-in; production runs at info.
func New(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
