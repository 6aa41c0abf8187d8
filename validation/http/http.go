// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

// Package http provides validation functions for HTTP response headers.
package http

import (
	"errors"
	"fmt"
	"net/textproto"

	"golang.org/x/net/http/httpguts"
)

const (
	// MaxHeaderNameLength bounds header names accepted from configuration.
	MaxHeaderNameLength = 256
	// MaxHeaderValueLength bounds header values accepted from configuration.
	MaxHeaderValueLength = 8192
)

// Sentinel errors returned (wrapped) by the validators.
var (
	ErrEmpty        = errors.New("header field is empty")
	ErrTooLong      = errors.New("header field too long")
	ErrInvalidName  = errors.New("invalid HTTP header name")
	ErrInvalidValue = errors.New("invalid HTTP header value")
	ErrReservedName = errors.New("header is managed by the HTTP server")
)

// reserved lists headers that describe the connection or the body framing.
// A static header policy must not override them.
var reserved = map[string]struct{}{
	"Connection":        {},
	"Content-Length":    {},
	"Keep-Alive":        {},
	"Proxy-Connection":  {},
	"Te":                {},
	"Trailer":           {},
	"Transfer-Encoding": {},
	"Upgrade":           {},
}

// ValidateHeaderName validates that a string is a valid HTTP header name per
// RFC 7230 and is not a connection-level header.
func ValidateHeaderName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name", ErrEmpty)
	}

	if len(name) > MaxHeaderNameLength {
		return fmt.Errorf("%w: name exceeds %d bytes", ErrTooLong, MaxHeaderNameLength)
	}

	// Same check Go's HTTP/2 implementation uses.
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if _, ok := reserved[textproto.CanonicalMIMEHeaderKey(name)]; ok {
		return fmt.Errorf("%w: %s", ErrReservedName, textproto.CanonicalMIMEHeaderKey(name))
	}

	return nil
}

// ValidateHeaderValue validates that a string is a valid HTTP header value per
// RFC 7230. CR, LF and other control characters are rejected.
func ValidateHeaderValue(value string) error {
	if value == "" {
		return fmt.Errorf("%w: value", ErrEmpty)
	}

	if len(value) > MaxHeaderValueLength {
		return fmt.Errorf("%w: value exceeds %d bytes", ErrTooLong, MaxHeaderValueLength)
	}

	if !httpguts.ValidHeaderFieldValue(value) {
		return fmt.Errorf("%w: contains control characters", ErrInvalidValue)
	}

	return nil
}

// ValidateHeader validates a name/value pair.
func ValidateHeader(name, value string) error {
	if err := ValidateHeaderName(name); err != nil {
		return err
	}
	if err := ValidateHeaderValue(value); err != nil {
		return fmt.Errorf("header %s: %w", name, err)
	}
	return nil
}
