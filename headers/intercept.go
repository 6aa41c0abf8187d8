// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package headers

import (
	"log/slog"
	"net/http"
	"strings"
)

// Intercept runs next and sets the default policy on the response it
// returns. See [Policy.Intercept].
func Intercept(req Request, next func() (*http.Response, error)) (*http.Response, error) {
	return DefaultPolicy().Intercept(req, next)
}

// Intercept runs next and then sets the policy on the response it returned.
// An error from next is returned as is, together with its response, and
// nothing is set.
func (p *Policy) Intercept(req Request, next func() (*http.Response, error)) (*http.Response, error) {
	resp, err := next()
	if err != nil || resp == nil {
		return resp, err
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	if err := p.Apply(resp.Header, req); err != nil {
		slog.Default().Warn("skipped conditional header rules", "error", err)
	}
	return resp, nil
}

// ModifyResponse returns a hook for httputil.ReverseProxy. The scheme comes
// from the inbound TLS state carried on resp.Request and, when
// trustForwarded is set, from X-Forwarded-Proto. The outbound URL is
// ignored since it names the upstream, not the client connection.
func (p *Policy) ModifyResponse(trustForwarded bool) func(*http.Response) error {
	return func(resp *http.Response) error {
		req := Request{Scheme: "http"}
		if r := resp.Request; r != nil {
			req = Request{
				Scheme: inboundScheme(r, trustForwarded, false),
				Host:   r.Host,
				Method: r.Method,
				Path:   r.URL.Path,
			}
		}
		if resp.Header == nil {
			resp.Header = make(http.Header)
		}
		if err := p.Apply(resp.Header, req); err != nil {
			slog.Default().Warn("skipped conditional header rules", "error", err)
		}
		return nil
	}
}

// SchemeOf returns the scheme the client used for r: "https" when the
// connection is TLS, then X-Forwarded-Proto when trustForwarded is set,
// then the request URL's scheme, then "http".
func SchemeOf(r *http.Request, trustForwarded bool) string {
	return inboundScheme(r, trustForwarded, true)
}

func inboundScheme(r *http.Request, trustForwarded, useURL bool) string {
	if r.TLS != nil {
		return SchemeHTTPS
	}
	if trustForwarded {
		if proto := forwardedProto(r.Header); proto != "" {
			return proto
		}
	}
	if useURL && r.URL != nil && r.URL.Scheme != "" {
		return strings.ToLower(r.URL.Scheme)
	}
	return "http"
}

// forwardedProto returns the first entry of X-Forwarded-Proto, which is the
// one the outermost proxy saw.
func forwardedProto(h http.Header) string {
	v := h.Get("X-Forwarded-Proto")
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}

// RequestFromHTTP builds the rule input for r.
func RequestFromHTTP(r *http.Request, trustForwarded bool) Request {
	req := Request{
		Scheme: SchemeOf(r, trustForwarded),
		Host:   r.Host,
		Method: r.Method,
	}
	if r.URL != nil {
		req.Path = r.URL.Path
	}
	return req
}
