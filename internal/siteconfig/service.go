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

// Package siteconfig is the application-facing configuration facade for one
// installation.
//
// Get memoizes every value it resolves for the rest of the process and
// never memoizes a miss. Set changes only the memo cache; Save also
// persists. There is no invalidation: a value changed by another process
// is not seen until this process restarts.
package siteconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardinalhq/siteconf/internal/datalist"
	"github.com/cardinalhq/siteconf/internal/logctx"
	"github.com/cardinalhq/siteconf/internal/runonce"
)

// Service provides get/set/save access to installation configuration.
type Service struct {
	resolver *datalist.Resolver
	guard    *runonce.Guard
}

// New creates a facade over resolver. guard may be nil when the caller
// never needs RunOnce.
func New(resolver *datalist.Resolver, guard *runonce.Guard) *Service {
	return &Service{
		resolver: resolver,
		guard:    guard,
	}
}

// Get returns the value for name and whether it is set. Unreachable tiers
// are logged and reported as not set; such misses are retried on the next
// call.
func (s *Service) Get(ctx context.Context, name string) (any, bool) {
	name = datalist.NormalizeName(name)
	memo := s.resolver.Memo()

	if v, ok := memo.Get(name); ok {
		return v, true
	}

	v, err := s.resolver.Resolve(ctx, name)
	if err != nil {
		if !errors.Is(err, datalist.ErrNotFound) {
			logctx.FromContext(ctx).Warn("Config lookup failed",
				slog.String("name", name), slog.Any("error", err))
		}
		return nil, false
	}

	memo.Put(name, v)
	return v, true
}

// GetString is Get for values expected to be strings.
func (s *Service) GetString(ctx context.Context, name string) (string, bool) {
	v, ok := s.Get(ctx, name)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Set stores value in the memo cache only. It does not validate the name
// and does not persist; use Save for durability.
func (s *Service) Set(name string, value any) {
	s.resolver.Memo().Put(datalist.NormalizeName(name), value)
}

// Save memoizes and persists value under name.
//
// A name longer than datalist.MaxNameLength is logged and rejected before
// anything changes. An unpersistable value is still memoized but is not
// written, and ErrUnpersistable is returned.
func (s *Service) Save(ctx context.Context, name string, value any) error {
	name = datalist.NormalizeName(name)

	if err := datalist.ValidateName(name); err != nil {
		logctx.FromContext(ctx).Error("Refusing to save config", slog.Any("error", err))
		return err
	}

	s.Set(name, value)

	if !datalist.Persistable(value) {
		return fmt.Errorf("%w: %q holds %T", datalist.ErrUnpersistable, name, value)
	}

	return s.resolver.Persist(ctx, name, value)
}

// Delete is not supported. Configuration values can be overwritten with
// Save but never removed.
func (s *Service) Delete(_ context.Context, name string) error {
	return fmt.Errorf("siteconfig: delete %q: %w", datalist.NormalizeName(name), errors.ErrUnsupported)
}

// RunOnce runs the operation registered as name if its last run is at or
// before threshold. See runonce.Guard.Run.
func (s *Service) RunOnce(ctx context.Context, name string, threshold int64) (bool, error) {
	if s.guard == nil {
		return false, fmt.Errorf("siteconfig: run %q: no operations registered: %w", name, errors.ErrUnsupported)
	}
	return s.guard.Run(ctx, name, threshold)
}

// Guard returns the run-once guard, or nil.
func (s *Service) Guard() *runonce.Guard {
	return s.guard
}
