package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output so the event-log attributes stay
// machine readable when shipped off-box.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
