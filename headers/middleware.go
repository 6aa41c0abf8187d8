// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package headers

import (
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/felixge/httpsnoop"
)

// Recorder counts decorated responses.
type Recorder interface {
	ObserveDecorated(scheme string)
}

type middleware struct {
	policy         *Policy
	source         *Source
	trustForwarded bool
	logger         *slog.Logger
	recorder       Recorder
}

// Option configures NewMiddleware.
type Option func(*middleware)

// WithPolicy sets a fixed policy. The default is DefaultPolicy().
func WithPolicy(p *Policy) Option {
	return func(m *middleware) {
		m.policy = p
	}
}

// WithSource reads the policy from s on every request, so reloads take
// effect without rebuilding the handler chain. It overrides WithPolicy.
func WithSource(s *Source) Option {
	return func(m *middleware) {
		m.source = s
	}
}

// WithTrustForwardedProto honors X-Forwarded-Proto when deciding whether a
// request arrived over https. Only enable it behind a proxy that sets the
// header itself.
func WithTrustForwardedProto(trust bool) Option {
	return func(m *middleware) {
		m.trustForwarded = trust
	}
}

// WithLogger sets the logger used to report skipped conditional rules.
func WithLogger(l *slog.Logger) Option {
	return func(m *middleware) {
		m.logger = l
	}
}

// WithRecorder counts every decorated response.
func WithRecorder(r Recorder) Option {
	return func(m *middleware) {
		m.recorder = r
	}
}

// Middleware sets the default policy on every response of next.
func Middleware(next http.Handler) http.Handler {
	return NewMiddleware()(next)
}

// NewMiddleware returns middleware that sets a policy on every response.
//
// The policy is applied when the wrapped handler commits its response
// header (first WriteHeader, Write, ReadFrom or Flush), so values the
// handler set for the same names are replaced. If the handler returns
// without writing, the policy is applied on return. A panic in the handler
// propagates unchanged.
func NewMiddleware(opts ...Option) func(http.Handler) http.Handler {
	m := &middleware{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m.wrap
}

func (m *middleware) currentPolicy() *Policy {
	if m.source != nil {
		return m.source.Policy()
	}
	return m.policy
}

func (m *middleware) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := RequestFromHTTP(r, m.trustForwarded)
		policy := m.currentPolicy()

		var once sync.Once
		decorate := func() {
			once.Do(func() {
				if err := policy.Apply(w.Header(), req); err != nil {
					m.logger.Warn("skipped conditional header rules",
						"path", req.Path, "error", err)
				}
				if m.recorder != nil {
					m.recorder.ObserveDecorated(req.Scheme)
				}
			})
		}

		hooks := httpsnoop.Hooks{
			WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
				return func(code int) {
					decorate()
					next(code)
				}
			},
			Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
				return func(b []byte) (int, error) {
					decorate()
					return next(b)
				}
			},
			ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
				return func(src io.Reader) (int64, error) {
					decorate()
					return next(src)
				}
			},
			Flush: func(next httpsnoop.FlushFunc) httpsnoop.FlushFunc {
				return func() {
					decorate()
					next()
				}
			},
		}

		next.ServeHTTP(httpsnoop.Wrap(w, hooks), r)
		decorate()
	})
}
