// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package headers

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/cri-st/sitesec/cel"
)

const schemaFile = "data/policy.schema.json"

//go:embed data/policy.schema.json
var embeddedSchemaFS embed.FS

// ErrInvalidPolicyFile is returned (wrapped) when a policy document cannot
// be decoded or does not match the policy schema.
var ErrInvalidPolicyFile = errors.New("invalid policy file")

var conditions = cel.NewEngine()

type policyFile struct {
	InheritDefaults bool         `json:"inherit_defaults"`
	Headers         []headerRule `json:"headers"`
}

type headerRule struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Scheme string `json:"scheme"`
	When   string `json:"when"`
}

// DefaultPolicyPath returns the policy file looked up when none is
// configured: headers.yaml under the user's XDG config directory.
func DefaultPolicyPath() string {
	return filepath.Join(xdg.ConfigHome, "sitesec", "headers.yaml")
}

// LoadPolicy reads and parses the policy file at path.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParsePolicy parses a YAML policy document.
//
// The document is checked against the policy schema, then every header is
// validated and every when condition compiled. With inherit_defaults set,
// a listed header whose name matches a default rule replaces that rule in
// place; the rest are appended in document order.
func ParsePolicy(data []byte) (*Policy, error) {
	doc, err := decodePolicyFile(data)
	if err != nil {
		return nil, err
	}

	rules := make([]Rule, 0, len(doc.Headers))
	for i, h := range doc.Headers {
		r := Rule{Name: h.Name, Value: h.Value, Scheme: h.Scheme}
		if h.When != "" {
			cond, err := conditions.Compile(h.When)
			if err != nil {
				return nil, fmt.Errorf("%w: headers[%d].when: %w", ErrInvalidRule, i, err)
			}
			r.When = cond
		}
		rules = append(rules, r)
	}

	if doc.InheritDefaults {
		rules = mergeDefaults(rules)
	}
	return NewPolicy(rules...)
}

func decodePolicyFile(data []byte) (*policyFile, error) {
	var raw any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidPolicyFile)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicyFile, err)
	}

	// yaml.v3 decodes mappings into map[string]any, so the document
	// converts to JSON directly for schema validation.
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicyFile, err)
	}
	if err := validateAgainstSchema(jsonData); err != nil {
		return nil, err
	}

	var doc policyFile
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicyFile, err)
	}
	return &doc, nil
}

func validateAgainstSchema(data []byte) error {
	schemaData, err := embeddedSchemaFS.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read embedded schema %s: %w", schemaFile, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPolicyFile, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidPolicyFile, strings.Join(msgs, "; "))
}

func mergeDefaults(rules []Rule) []Rule {
	merged := defaultRules()
	replaced := make([]bool, len(merged))
	for _, r := range rules {
		name := textproto.CanonicalMIMEHeaderKey(r.Name)
		idx := -1
		for i, d := range merged[:len(replaced)] {
			if !replaced[i] && textproto.CanonicalMIMEHeaderKey(d.Name) == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			merged = append(merged, r)
			continue
		}
		merged[idx] = r
		replaced[idx] = true
	}
	return merged
}
