// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package logging provides structured logging for the guard CLI.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// fieldHandler wraps a slog.Handler to attach command/version fields to
// every record, so every log line from the CLI boundary can be traced
// back to the invoking subcommand without threading context everywhere.
type fieldHandler struct {
	handler slog.Handler
	command string
	version string
}

// Handle adds the command and version fields to the log record.
func (h *fieldHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("command", h.command),
		slog.String("version", h.version),
	)
	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, r)
}

// Enabled returns true if the level is enabled.
func (h *fieldHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes.
func (h *fieldHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fieldHandler{
		handler: h.handler.WithAttrs(attrs),
		command: h.command,
		version: h.version,
	}
}

// WithGroup returns a new handler with the given group.
func (h *fieldHandler) WithGroup(name string) slog.Handler {
	return &fieldHandler{
		handler: h.handler.WithGroup(name),
		command: h.command,
		version: h.version,
	}
}

// Setup creates a configured slog.Logger for the given CLI subcommand.
// format: "json" or "text" (defaults to "json" if empty).
// If w is nil, writes to os.Stderr.
func Setup(command, version, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var baseHandler slog.Handler
	if format == "text" {
		baseHandler = slog.NewTextHandler(w, opts)
	} else {
		baseHandler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(&fieldHandler{
		handler: baseHandler,
		command: command,
		version: version,
	})
}

// SetDefault sets up and installs the default logger.
func SetDefault(command, version, format string) {
	slog.SetDefault(Setup(command, version, format, nil))
}
