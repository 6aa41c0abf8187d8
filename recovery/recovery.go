// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package recovery

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Option configures NewMiddleware.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger panics are reported to. The default is
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Middleware is an HTTP middleware that recovers from panics.
// When a panic occurs, it logs the panic value with a stack trace and
// returns a 500 Internal Server Error response to the client, preventing
// the panic from crashing the server.
func Middleware(next http.Handler) http.Handler {
	return NewMiddleware()(next)
}

// NewMiddleware returns panic recovery middleware configured by opts.
//
// A panic with http.ErrAbortHandler is re-raised so the server aborts the
// response as the handler asked.
func NewMiddleware(opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				cfg.logger.Error("recovered from panic in HTTP handler",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
