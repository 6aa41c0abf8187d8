// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package headers

import (
	"errors"
	"fmt"
	"net/http"
	"net/textproto"
	"slices"
	"strings"

	"github.com/cri-st/sitesec/cel"
	httpval "github.com/cri-st/sitesec/validation/http"
)

// Header names set by the default policy.
const (
	ContentSecurityPolicy   = "Content-Security-Policy"
	XFrameOptions           = "X-Frame-Options"
	XContentTypeOptions     = "X-Content-Type-Options"
	ReferrerPolicy          = "Referrer-Policy"
	PermissionsPolicy       = "Permissions-Policy"
	XXSSProtection          = "X-XSS-Protection"
	StrictTransportSecurity = "Strict-Transport-Security"
)

// DefaultContentSecurityPolicy allows inline scripts and styles for the
// static pages and outbound fetches to the linked profiles only.
const DefaultContentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data: https:; " +
	"font-src 'self' data:; " +
	"connect-src 'self' https://cri.st https://linkedin.com https://github.com https://x.com; " +
	"frame-ancestors 'none';"

// Values of the remaining default headers.
const (
	DefaultFrameOptions            = "DENY"
	DefaultContentTypeOptions      = "nosniff"
	DefaultReferrerPolicy          = "strict-origin-when-cross-origin"
	DefaultPermissionsPolicy       = "camera=(), microphone=(), geolocation=(), interest-cohort=()"
	DefaultXSSProtection           = "1; mode=block"
	DefaultStrictTransportSecurity = "max-age=31536000; includeSubDomains; preload"
)

// SchemeHTTPS is the only scheme a default rule is conditioned on.
const SchemeHTTPS = "https"

// ErrInvalidRule is returned (wrapped) by NewPolicy for a rule that cannot
// be set on a response.
var ErrInvalidRule = errors.New("invalid header rule")

// Request is what a rule may condition on.
type Request struct {
	Scheme string
	Host   string
	Method string
	Path   string
}

func (r Request) attributes() map[string]string {
	return map[string]string{
		"scheme": strings.ToLower(r.Scheme),
		"host":   r.Host,
		"method": r.Method,
		"path":   r.Path,
	}
}

// Rule sets one header.
type Rule struct {
	Name  string
	Value string
	// Scheme restricts the rule to requests with that scheme. Empty means
	// every request.
	Scheme string
	// When is an optional extra condition.
	When *cel.Condition
}

// Policy is an ordered, immutable set of rules.
type Policy struct {
	rules []Rule
}

// DefaultPolicy returns the site policy: six headers on every response and
// HSTS on https requests only.
func DefaultPolicy() *Policy {
	return &Policy{rules: defaultRules()}
}

func defaultRules() []Rule {
	return []Rule{
		{Name: ContentSecurityPolicy, Value: DefaultContentSecurityPolicy},
		{Name: XFrameOptions, Value: DefaultFrameOptions},
		{Name: XContentTypeOptions, Value: DefaultContentTypeOptions},
		{Name: ReferrerPolicy, Value: DefaultReferrerPolicy},
		{Name: PermissionsPolicy, Value: DefaultPermissionsPolicy},
		{Name: XXSSProtection, Value: DefaultXSSProtection},
		{Name: StrictTransportSecurity, Value: DefaultStrictTransportSecurity, Scheme: SchemeHTTPS},
	}
}

// NewPolicy validates rules and returns a policy applying them in order.
func NewPolicy(rules ...Rule) (*Policy, error) {
	out := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if err := httpval.ValidateHeader(r.Name, r.Value); err != nil {
			return nil, fmt.Errorf("%w: rule %d: %w", ErrInvalidRule, i, err)
		}
		r.Scheme = strings.ToLower(r.Scheme)
		if r.Scheme != "" && r.Scheme != "http" && r.Scheme != SchemeHTTPS {
			return nil, fmt.Errorf("%w: rule %d: unsupported scheme %q", ErrInvalidRule, i, r.Scheme)
		}
		r.Name = textproto.CanonicalMIMEHeaderKey(r.Name)
		out = append(out, r)
	}
	return &Policy{rules: out}, nil
}

// Rules returns a copy of the policy's rules.
func (p *Policy) Rules() []Rule {
	return slices.Clone(p.rules)
}

// Matching returns the rules that apply to req. A rule whose condition fails
// to evaluate is left out and its error is included in the returned error.
func (p *Policy) Matching(req Request) ([]Rule, error) {
	scheme := strings.ToLower(req.Scheme)

	var (
		matched []Rule
		errs    []error
		attrs   map[string]string
	)
	for _, r := range p.rules {
		if r.Scheme != "" && r.Scheme != scheme {
			continue
		}
		if r.When != nil {
			if attrs == nil {
				attrs = req.attributes()
			}
			ok, err := r.When.Match(attrs)
			if err != nil {
				errs = append(errs, fmt.Errorf("header %s: %w", r.Name, err))
				continue
			}
			if !ok {
				continue
			}
		}
		matched = append(matched, r)
	}
	return matched, errors.Join(errs...)
}

// Apply sets every matching rule on h, replacing existing values of the same
// name and leaving other headers alone. Rules whose condition fails to
// evaluate are skipped and reported in the returned error; all other rules
// are still applied.
func (p *Policy) Apply(h http.Header, req Request) error {
	matched, err := p.Matching(req)
	for _, r := range matched {
		h.Set(r.Name, r.Value)
	}
	return err
}
