// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package settings loads the static, file-defined settings table that sits
// between the memo cache and the distributed cache during resolution.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no settings file is configured.
const DefaultPath = "/app/config/settings.yaml"

// Provider is a read-only name -> value table.
type Provider struct {
	values map[string]any
}

// Empty returns a provider with no settings.
func Empty() *Provider {
	return &Provider{values: map[string]any{}}
}

// Load reads settings from filename. A filename of the form "env:NAME"
// reads the YAML document from the environment variable NAME instead. A
// missing file yields an empty provider.
func Load(filename string) (*Provider, error) {
	if envVar, ok := strings.CutPrefix(filename, "env:"); ok {
		contents := os.Getenv(envVar)
		if contents == "" {
			return nil, fmt.Errorf("environment variable %s is not set", envVar)
		}
		return parse(filename, []byte(contents))
	}

	contents, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("failed to read settings from file %s: %w", filename, err)
	}

	return parse(filename, contents)
}

func parse(filename string, contents []byte) (*Provider, error) {
	var raw map[string]any

	dec := yaml.NewDecoder(bytes.NewReader(contents))
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal settings from file %s: %w", filename, err)
	}

	p := Empty()
	for k, v := range raw {
		p.values[strings.TrimSpace(k)] = v
	}
	return p, nil
}

// FromMap builds a provider from an in-memory table.
func FromMap(values map[string]any) *Provider {
	p := Empty()
	for k, v := range values {
		p.values[strings.TrimSpace(k)] = v
	}
	return p
}

// Lookup returns the setting for name.
func (p *Provider) Lookup(name string) (any, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Names returns the defined setting names in sorted order.
func (p *Provider) Names() []string {
	names := make([]string, 0, len(p.values))
	for k := range p.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (p *Provider) Len() int {
	return len(p.values)
}
