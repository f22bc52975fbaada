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

package datalist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cardinalhq/siteconf/internal/logctx"
	"github.com/cardinalhq/siteconf/internal/memo"
)

// Store is durable attribute storage scoped to one site record.
type Store interface {
	// GetAttribute returns the attribute value and whether it exists. A
	// non-nil error means the store could not be read.
	GetAttribute(ctx context.Context, key string) (any, bool, error)
	// SetAttribute stages a value until the next Save.
	SetAttribute(key string, value any)
	// Save commits all staged attributes atomically.
	Save(ctx context.Context) error
}

// Cache is an optional read-only accelerator in front of the store.
type Cache interface {
	IsAvailable(ctx context.Context) bool
	// Load returns the cached value and whether it was present.
	Load(ctx context.Context, key string) (any, bool, error)
}

// Settings is the flat name -> value table loaded from a file at startup.
type Settings interface {
	Lookup(name string) (any, bool)
}

// Resolver looks names up across the memo cache, static settings, the
// distributed cache and the persistent store, in that order.
type Resolver struct {
	memo     *memo.Cache
	store    Store
	settings Settings
	cache    Cache
}

type Option interface {
	apply(r *Resolver)
}

type settingsOption struct {
	settings Settings
}

func (o settingsOption) apply(r *Resolver) {
	r.settings = o.settings
}

// WithSettings adds a static settings tier.
func WithSettings(s Settings) Option {
	return settingsOption{settings: s}
}

type cacheOption struct {
	cache Cache
}

func (o cacheOption) apply(r *Resolver) {
	r.cache = o.cache
}

// WithCache adds a distributed cache tier. A nil cache leaves the tier
// disabled.
func WithCache(c Cache) Option {
	return cacheOption{cache: c}
}

// NewResolver creates a resolver over the given memo cache and store.
func NewResolver(m *memo.Cache, store Store, opts ...Option) *Resolver {
	r := &Resolver{
		memo:  m,
		store: store,
	}
	for _, opt := range opts {
		opt.apply(r)
	}
	return r
}

// Memo returns the process memo cache the resolver consults first.
func (r *Resolver) Memo() *memo.Cache {
	return r.memo
}

// Resolve returns the value for name from the first tier that holds it.
//
// It returns ErrNotFound when no tier has the name, and an error wrapping
// ErrStoreUnavailable when the persistent store cannot be read. Resolve
// never writes to the memo cache; memoizing is up to the caller.
func (r *Resolver) Resolve(ctx context.Context, name string) (any, error) {
	if v, ok := r.memo.Get(name); ok {
		recordResolve(ctx, TierMemo)
		return v, nil
	}

	if r.settings != nil {
		if v, ok := r.settings.Lookup(name); ok {
			recordResolve(ctx, TierSettings)
			return v, nil
		}
	}

	logger := logctx.FromContext(ctx)

	if err := ValidateName(name); err != nil {
		logger.Error("Refusing datalist lookup", slog.String("name", truncate(name)), slog.Any("error", err))
		recordResolve(ctx, tierError)
		return nil, err
	}

	if r.cache != nil && r.cache.IsAvailable(ctx) {
		v, ok, err := r.cache.Load(ctx, name)
		switch {
		case err != nil:
			logger.Warn("Distributed cache lookup failed, falling through to store",
				slog.String("name", name), slog.Any("error", err))
		case ok:
			recordResolve(ctx, TierCache)
			return v, nil
		}
	}

	if r.store == nil {
		recordResolve(ctx, tierError)
		return nil, fmt.Errorf("%w: no store configured", ErrStoreUnavailable)
	}

	v, ok, err := r.store.GetAttribute(ctx, name)
	if err != nil {
		recordResolve(ctx, tierError)
		return nil, fmt.Errorf("%w: get %q: %w", ErrStoreUnavailable, name, err)
	}
	if ok {
		recordResolve(ctx, TierStore)
		return v, nil
	}

	key := NamespacedKey(name)
	v, ok, err = r.store.GetAttribute(ctx, key)
	if err != nil {
		recordResolve(ctx, tierError)
		return nil, fmt.Errorf("%w: get %q: %w", ErrStoreUnavailable, key, err)
	}
	if ok {
		recordResolve(ctx, TierStoreNamespaced)
		return v, nil
	}

	recordResolve(ctx, tierMiss)
	return nil, ErrNotFound
}

// Persist writes value to the persistent store under the namespaced key
// and commits it. On success the memo cache is updated so later lookups in
// this process see the new value.
//
// Callers are expected to have rejected unpersistable values already.
func (r *Resolver) Persist(ctx context.Context, name string, value any) error {
	logger := logctx.FromContext(ctx)

	if err := ValidateName(name); err != nil {
		logger.Error("Refusing to persist datalist value", slog.String("name", truncate(name)), slog.Any("error", err))
		recordPersist(ctx, "invalid")
		return err
	}

	if r.store == nil {
		recordPersist(ctx, "error")
		return fmt.Errorf("%w: no store configured", ErrStoreUnavailable)
	}

	r.store.SetAttribute(NamespacedKey(name), value)
	if err := r.store.Save(ctx); err != nil {
		logger.Warn("Failed to save datalist value", slog.String("name", name), slog.Any("error", err))
		recordPersist(ctx, "error")
		return fmt.Errorf("%w: save %q: %w", ErrStoreUnavailable, name, err)
	}

	r.memo.Put(name, value)
	recordPersist(ctx, "ok")
	return nil
}

// truncate keeps oversized names readable in logs.
func truncate(name string) string {
	const keep = 64
	r := []rune(name)
	if len(r) <= keep {
		return name
	}
	return string(r[:keep]) + "..."
}
