// Package observability provides logging initialization.
package observability

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/stolasapp/calliope/internal/config"
)

// InitSlog initializes a logger with the given config. When running in a
// terminal, it uses a human-readable text format; otherwise it uses JSON for
// structured logging.
func InitSlog(cfg *config.Config) *slog.Logger {
	return NewLogger(os.Stderr, term.IsTerminal(int(os.Stdin.Fd())), cfg)
}

// NewLogger creates a logger writing to w, as text when human is set and as
// JSON otherwise.
func NewLogger(w io.Writer, human bool, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		AddSource: cfg.DevMode,
		Level:     cfg.LogLevel.Level(),
	}
	var handler slog.Handler
	if human {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
