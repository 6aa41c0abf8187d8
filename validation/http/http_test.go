// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateHeaderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"security header", "Content-Security-Policy", nil},
		{"lower case", "x-robots-tag", nil},
		{"with dots", "X.Custom.Header", nil},

		{"crlf injection", "X-Frame-Options\r\nX-Injected: 1", ErrInvalidName},
		{"newline", "X-Frame-Options\n", ErrInvalidName},
		{"null byte", "X-Frame\x00Options", ErrInvalidName},
		{"contains space", "X Frame Options", ErrInvalidName},
		{"contains colon", "X-Frame-Options:", ErrInvalidName},

		{"empty", "", ErrEmpty},
		{"too long", strings.Repeat("A", 300), ErrTooLong},

		{"connection", "Connection", ErrReservedName},
		{"content length any case", "content-length", ErrReservedName},
		{"transfer encoding", "Transfer-Encoding", ErrReservedName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateHeaderName(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateHeaderValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"csp", "default-src 'self'; frame-ancestors 'none';", nil},
		{"permissions policy", "camera=(), microphone=()", nil},
		{"tab allowed", "a\tb", nil},

		{"crlf injection", "DENY\r\nSet-Cookie: a=b", ErrInvalidValue},
		{"newline", "DENY\n", ErrInvalidValue},
		{"null byte", "DE\x00NY", ErrInvalidValue},
		{"delete char", "DENY\x7F", ErrInvalidValue},

		{"empty", "", ErrEmpty},
		{"too long", strings.Repeat("A", 10000), ErrTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateHeaderValue(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateHeader(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateHeader("X-Frame-Options", "DENY"))

	err := ValidateHeader("Upgrade", "h2c")
	require.ErrorIs(t, err, ErrReservedName)

	err = ValidateHeader("X-Frame-Options", "DENY\r\n")
	require.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "X-Frame-Options")
}
