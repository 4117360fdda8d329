package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rustyeddy/futbot/config"
	"github.com/rustyeddy/futbot/notify"
)

// newLogger builds the process logger. With a log file set, output goes to
// both stderr and the file; the returned closer releases the file.
func newLogger(cfg config.LogConfig) (*slog.Logger, io.Closer, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
		closer = f
	}

	opts := &slog.HandlerOptions{Level: notify.ParseLevel(cfg.Level).Slog()}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer, nil
}
