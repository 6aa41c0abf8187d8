// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package env

//go:generate mockgen -copyright_file=../.github/license-header.txt -source=env.go -destination=mocks/mock_reader.go -package=mocks Reader

import (
	"os"
	"strconv"
	"strings"
)

// Variables read by sitesec components.
const (
	// PolicyFile overrides the location of the header policy file.
	PolicyFile = "SITESEC_POLICY_FILE"
	// TrustForwardedProto makes the header middleware honor X-Forwarded-Proto.
	TrustForwardedProto = "SITESEC_TRUST_FORWARDED_PROTO"
	// LogFormat selects "json" or "text" log output.
	LogFormat = "SITESEC_LOG_FORMAT"
	// LogLevel selects the minimum log level.
	LogLevel = "SITESEC_LOG_LEVEL"
)

// Reader defines an interface for environment variable access
type Reader interface {
	Getenv(key string) string
}

// OSReader implements Reader using the standard os package
type OSReader struct{}

// Getenv returns the value of the environment variable named by the key
func (*OSReader) Getenv(key string) string {
	return os.Getenv(key)
}

// String returns the trimmed value of key, or def when it is unset or blank.
func String(r Reader, key, def string) string {
	v := strings.TrimSpace(r.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// Bool parses key with strconv.ParseBool. Unset or unparsable values yield def.
func Bool(r Reader, key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}
