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

package sitedb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultSiteID is the nil UUID used for the default installation.
var DefaultSiteID = uuid.UUID{}

// AttributeStore is the minimal database interface a Site needs.
type AttributeStore interface {
	GetSiteAttribute(ctx context.Context, arg GetSiteAttributeParams) (json.RawMessage, error)
	UpsertSiteAttributes(ctx context.Context, siteID uuid.UUID, attrs map[string]json.RawMessage) error
}

var _ AttributeStore = (*Store)(nil)

// Site is the attribute record of one installation. Attribute writes are
// staged by SetAttribute and committed together by Save.
type Site struct {
	id uuid.UUID
	db AttributeStore

	mu      sync.Mutex
	pending map[string]any
	order   []string
}

// NewSite returns the record for siteID backed by db.
func NewSite(db AttributeStore, siteID uuid.UUID) *Site {
	return &Site{
		id:      siteID,
		db:      db,
		pending: make(map[string]any),
	}
}

func (s *Site) ID() uuid.UUID {
	return s.id
}

// GetAttribute returns a staged value if there is one, otherwise the stored
// value. JSON numbers are returned as json.Number.
func (s *Site) GetAttribute(ctx context.Context, key string) (any, bool, error) {
	s.mu.Lock()
	v, staged := s.pending[key]
	s.mu.Unlock()
	if staged {
		return v, true, nil
	}

	raw, err := s.db.GetSiteAttribute(ctx, GetSiteAttributeParams{
		SiteID: s.id,
		Name:   key,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get site attribute %s: %w", key, err)
	}

	value, err := decodeValue(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decode site attribute %s: %w", key, err)
	}
	return value, true, nil
}

// SetAttribute stages value under key until the next Save.
func (s *Site) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pending[key]; !exists {
		s.order = append(s.order, key)
	}
	s.pending[key] = value
}

// Save commits all staged attributes in one transaction. Staged values are
// discarded after every attempt, successful or not, so a value that cannot
// be encoded does not block later saves.
func (s *Site) Save(ctx context.Context) error {
	s.mu.Lock()
	pending, order := s.pending, s.order
	s.pending = make(map[string]any)
	s.order = nil
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	attrs := make(map[string]json.RawMessage, len(pending))
	for _, key := range order {
		encoded, err := json.Marshal(pending[key])
		if err != nil {
			return fmt.Errorf("encode site attribute %s: %w", key, err)
		}
		attrs[key] = encoded
	}

	return s.db.UpsertSiteAttributes(ctx, s.id, attrs)
}

// Pending returns the number of staged attributes.
func (s *Site) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func decodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
