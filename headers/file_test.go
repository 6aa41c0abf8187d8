// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package headers_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cri-st/sitesec/cel"
	"github.com/cri-st/sitesec/headers"
	httpval "github.com/cri-st/sitesec/validation/http"
)

func ruleNames(p *headers.Policy) []string {
	rules := p.Rules()
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Name)
	}
	return out
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	defaults := []string{
		"Content-Security-Policy",
		"X-Frame-Options",
		"X-Content-Type-Options",
		"Referrer-Policy",
		"Permissions-Policy",
		"X-Xss-Protection",
		"Strict-Transport-Security",
	}

	t.Run("inherit appends new headers", func(t *testing.T) {
		t.Parallel()
		p, err := headers.ParsePolicy([]byte(`
inherit_defaults: true
headers:
  - name: Cross-Origin-Opener-Policy
    value: same-origin
`))
		require.NoError(t, err)
		assert.Equal(t, append(defaults, "Cross-Origin-Opener-Policy"), ruleNames(p))
	})

	t.Run("inherit replaces same name in place", func(t *testing.T) {
		t.Parallel()
		p, err := headers.ParsePolicy([]byte(`
inherit_defaults: true
headers:
  - name: x-frame-options
    value: SAMEORIGIN
  - name: Strict-Transport-Security
    value: max-age=63072000; includeSubDomains; preload
    scheme: https
`))
		require.NoError(t, err)
		rules := p.Rules()
		assert.Equal(t, defaults, ruleNames(p))
		assert.Equal(t, "SAMEORIGIN", rules[1].Value)
		assert.Equal(t, "max-age=63072000; includeSubDomains; preload", rules[6].Value)
		assert.Equal(t, "https", rules[6].Scheme)
	})

	t.Run("inherit matches the canonical X-XSS-Protection name", func(t *testing.T) {
		t.Parallel()
		p, err := headers.ParsePolicy([]byte(`
inherit_defaults: true
headers:
  - name: X-XSS-Protection
    value: "0"
`))
		require.NoError(t, err)
		assert.Equal(t, defaults, ruleNames(p))
		assert.Equal(t, "0", p.Rules()[5].Value)
	})

	t.Run("inherit only", func(t *testing.T) {
		t.Parallel()
		p, err := headers.ParsePolicy([]byte("inherit_defaults: true\n"))
		require.NoError(t, err)
		assert.Equal(t, defaults, ruleNames(p))
	})

	t.Run("without defaults", func(t *testing.T) {
		t.Parallel()
		p, err := headers.ParsePolicy([]byte(`
headers:
  - name: X-Robots-Tag
    value: noindex
    when: request.path.startsWith("/drafts/")
  - name: Strict-Transport-Security
    value: max-age=60
    scheme: https
`))
		require.NoError(t, err)
		rules := p.Rules()
		require.Len(t, rules, 2)
		require.NotNil(t, rules[0].When)
		assert.Equal(t, `request.path.startsWith("/drafts/")`, rules[0].When.Source())
		assert.Equal(t, "https", rules[1].Scheme)
	})
}

func TestParsePolicy_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{"empty document", "", headers.ErrInvalidPolicyFile},
		{"malformed yaml", "headers: [", headers.ErrInvalidPolicyFile},
		{"not a mapping", "- a\n- b\n", headers.ErrInvalidPolicyFile},
		{"unknown key", "inherit: true\n", headers.ErrInvalidPolicyFile},
		{"unknown rule key", "headers:\n  - name: X-A\n    value: b\n    append: true\n", headers.ErrInvalidPolicyFile},
		{"missing value", "headers:\n  - name: X-A\n", headers.ErrInvalidPolicyFile},
		{"numeric value", "headers:\n  - name: X-A\n    value: 1\n", headers.ErrInvalidPolicyFile},
		{"unsupported scheme", "headers:\n  - name: X-A\n    value: b\n    scheme: ftp\n", headers.ErrInvalidPolicyFile},
		{"invalid name", "headers:\n  - name: X A\n    value: b\n", httpval.ErrInvalidName},
		{"reserved name", "headers:\n  - name: Content-Length\n    value: \"1\"\n", httpval.ErrReservedName},
		{"control character", "headers:\n  - name: X-A\n    value: \"a\\nb\"\n", httpval.ErrInvalidValue},
		{"empty value", "headers:\n  - name: X-A\n    value: \"\"\n", httpval.ErrEmpty},
		{"bad condition", "headers:\n  - name: X-A\n    value: b\n    when: request.path ==\n", cel.ErrExpressionCheck},
		{"non boolean condition", "headers:\n  - name: X-A\n    value: b\n    when: request.path\n", cel.ErrInvalidResult},
		{"unknown variable", "headers:\n  - name: X-A\n    value: b\n    when: response.code == 1\n", cel.ErrExpressionCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := headers.ParsePolicy([]byte(tt.doc))
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	t.Run("reads file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "ok.yaml")
		require.NoError(t, os.WriteFile(path, []byte("inherit_defaults: true\n"), 0o600))
		p, err := headers.LoadPolicy(path)
		require.NoError(t, err)
		assert.Len(t, p.Rules(), 7)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := headers.LoadPolicy(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("error names the file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("nope: 1\n"), 0o600))
		_, err := headers.LoadPolicy(path)
		require.ErrorIs(t, err, headers.ErrInvalidPolicyFile)
		assert.True(t, strings.HasPrefix(err.Error(), path), err.Error())
	})
}

func TestDefaultPolicyPath(t *testing.T) {
	t.Parallel()

	path := headers.DefaultPolicyPath()
	assert.True(t, filepath.IsAbs(path), path)
	assert.Equal(t, "headers.yaml", filepath.Base(path))
	assert.Equal(t, "sitesec", filepath.Base(filepath.Dir(path)))
}
