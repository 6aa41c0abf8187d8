// SPDX-FileCopyrightText: Copyright 2026 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cri-st/sitesec/env"
)

// Format represents the log output format.
type Format int

const (
	// FormatJSON produces JSON-formatted log output using [log/slog.JSONHandler].
	FormatJSON Format = iota

	// FormatText produces key=value output using [log/slog.TextHandler].
	FormatText
)

// ParseFormat maps "json" or "text" (any case) to a Format.
// Anything else yields [FormatJSON].
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "text") {
		return FormatText
	}
	return FormatJSON
}

// ParseLevel maps debug, info, warn or error (any case) to a level.
// Anything else yields [log/slog.LevelInfo].
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

type config struct {
	format Format
	level  slog.Leveler
	output io.Writer
}

// Option configures the logger created by [New].
type Option func(*config)

// WithFormat sets the output format. The default is [FormatJSON].
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithLevel sets the minimum log level. The default is [log/slog.LevelInfo].
// A [*log/slog.LevelVar] can be passed to change the level at runtime.
func WithLevel(l slog.Leveler) Option {
	return func(c *config) {
		c.level = l
	}
}

// WithOutput sets the destination writer. The default is [os.Stderr].
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.output = w
	}
}

// WithEnv reads SITESEC_LOG_FORMAT and SITESEC_LOG_LEVEL from r.
// Unset variables leave the current settings alone.
func WithEnv(r env.Reader) Option {
	return func(c *config) {
		if v := r.Getenv(env.LogFormat); v != "" {
			c.format = ParseFormat(v)
		}
		if v := r.Getenv(env.LogLevel); v != "" {
			c.level = ParseLevel(v)
		}
	}
}

// New creates a [*log/slog.Logger] with the sitesec defaults: JSON output,
// INFO level, stderr, RFC3339 timestamps.
func New(opts ...Option) *slog.Logger {
	return slog.New(NewHandler(opts...))
}

// NewHandler returns the handler [New] would wrap, for callers that want to
// decorate it before building a logger.
func NewHandler(opts ...Option) slog.Handler {
	cfg := &config{
		format: FormatJSON,
		level:  slog.LevelInfo,
		output: os.Stderr,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       cfg.level,
		ReplaceAttr: replaceAttr,
	}

	if cfg.format == FormatText {
		return slog.NewTextHandler(cfg.output, handlerOpts)
	}
	return slog.NewJSONHandler(cfg.output, handlerOpts)
}

// replaceAttr formats the time attribute to RFC3339.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.StringValue(t.Format(time.RFC3339))
		}
	}
	return a
}
