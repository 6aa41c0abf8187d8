// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package urlguard

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// DefaultFallback is what SafeURL returns for a rejected candidate.
const DefaultFallback = "#"

var allowedSchemes = []string{"http", "https"}

// blockedTokens are matched against the lower-cased raw candidate, so they
// also catch a dangerous scheme carried in the query or fragment of an
// otherwise valid http(s) URL. Percent-encoded forms such as "javascript%3A"
// are not decoded and therefore not matched.
var blockedTokens = []string{"javascript:", "data:", "vbscript:", "file:"}

// Rejection reasons returned (wrapped) by Check.
var (
	ErrEmpty        = errors.New("url is empty")
	ErrUnparseable  = errors.New("url cannot be parsed")
	ErrNotAbsolute  = errors.New("url is not absolute")
	ErrScheme       = errors.New("url scheme is not allowed")
	ErrBlockedToken = errors.New("url contains a blocked token")
)

// AllowedSchemes returns the schemes a valid URL may use.
func AllowedSchemes() []string {
	return slices.Clone(allowedSchemes)
}

// BlockedTokens returns the substrings that make a URL invalid anywhere
// they appear.
func BlockedTokens() []string {
	return slices.Clone(blockedTokens)
}

// Check returns nil when candidate is safe to use as a link target, or an
// error wrapping one of the Err* reasons.
func Check(candidate string) error {
	if trimURL(candidate) == "" {
		return ErrEmpty
	}

	parsed, err := parseAbsolute(candidate)
	if err != nil {
		return err
	}

	if !slices.Contains(allowedSchemes, parsed.Scheme) {
		return fmt.Errorf("%w: %q", ErrScheme, parsed.Scheme)
	}

	// http(s) must be hierarchical with a host; "http:example.com" parses
	// as opaque in net/url.
	if parsed.Opaque != "" || parsed.Host == "" {
		return fmt.Errorf("%w: missing host", ErrNotAbsolute)
	}

	lower := strings.ToLower(candidate)
	for _, token := range blockedTokens {
		if strings.Contains(lower, token) {
			return fmt.Errorf("%w: %q", ErrBlockedToken, token)
		}
	}

	return nil
}

// IsValidURL reports whether candidate is an absolute http or https URL
// that contains none of the blocked tokens.
func IsValidURL(candidate string) bool {
	return Check(candidate) == nil
}

// SafeURL returns candidate when it is valid and DefaultFallback otherwise.
func SafeURL(candidate string) string {
	return SafeURLOr(candidate, DefaultFallback)
}

// SafeURLOr returns candidate when it is valid and fallback otherwise.
func SafeURLOr(candidate, fallback string) string {
	if IsValidURL(candidate) {
		return candidate
	}
	return fallback
}

// SanitizeDisplay strips user name and password from an absolute URL,
// along with surrounding whitespace. Anything that does not parse as an
// absolute URL is returned unchanged.
func SanitizeDisplay(candidate string) string {
	parsed, err := parseAbsolute(candidate)
	if err != nil {
		return candidate
	}
	parsed.User = nil
	return parsed.String()
}

// Reason maps an error from Check to a short label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmpty):
		return "empty"
	case errors.Is(err, ErrUnparseable):
		return "unparseable"
	case errors.Is(err, ErrNotAbsolute):
		return "not_absolute"
	case errors.Is(err, ErrScheme):
		return "scheme"
	case errors.Is(err, ErrBlockedToken):
		return "blocked_token"
	default:
		return "unknown"
	}
}

// trimURL strips leading and trailing C0 controls and spaces, the same set
// a browser drops before parsing an href.
func trimURL(candidate string) string {
	return strings.TrimFunc(candidate, func(r rune) bool {
		return r <= ' '
	})
}

func parseAbsolute(candidate string) (*url.URL, error) {
	parsed, err := url.Parse(trimURL(candidate))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseable, err)
	}
	if !parsed.IsAbs() {
		return nil, ErrNotAbsolute
	}
	return parsed, nil
}
