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
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/siteconf/internal/memo"
)

// mockStore is a test mock for Store.
type mockStore struct {
	attrs     map[string]any
	pending   map[string]any
	getCalls  atomic.Int32
	saveCalls atomic.Int32
	getKeys   []string
	getErr    error
	saveErr   error
}

func newMockStore() *mockStore {
	return &mockStore{
		attrs:   make(map[string]any),
		pending: make(map[string]any),
	}
}

func (m *mockStore) GetAttribute(_ context.Context, key string) (any, bool, error) {
	m.getCalls.Add(1)
	m.getKeys = append(m.getKeys, key)
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.attrs[key]
	return v, ok, nil
}

func (m *mockStore) SetAttribute(key string, value any) {
	m.pending[key] = value
}

func (m *mockStore) Save(_ context.Context) error {
	m.saveCalls.Add(1)
	if m.saveErr != nil {
		m.pending = make(map[string]any)
		return m.saveErr
	}
	for k, v := range m.pending {
		m.attrs[k] = v
	}
	m.pending = make(map[string]any)
	return nil
}

type mockCache struct {
	values    map[string]any
	available bool
	loadCalls atomic.Int32
	loadErr   error
}

func (m *mockCache) IsAvailable(context.Context) bool {
	return m.available
}

func (m *mockCache) Load(_ context.Context, key string) (any, bool, error) {
	m.loadCalls.Add(1)
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

type mapSettings map[string]any

func (s mapSettings) Lookup(name string) (any, bool) {
	v, ok := s[name]
	return v, ok
}

func TestResolver_MemoHitIsTerminal(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.attrs["dataroot"] = "/from/store"
	m := memo.New()
	m.Put("dataroot", "/from/memo")

	r := NewResolver(m, store, WithSettings(mapSettings{"dataroot": "/from/settings"}))

	v, err := r.Resolve(ctx, "dataroot")
	require.NoError(t, err)
	assert.Equal(t, "/from/memo", v)
	assert.Equal(t, int32(0), store.getCalls.Load())
}

func TestResolver_SettingsBeatStore(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.attrs["wwwroot"] = "http://store.example/"

	r := NewResolver(memo.New(), store, WithSettings(mapSettings{"wwwroot": "http://file.example/"}))

	v, err := r.Resolve(ctx, "wwwroot")
	require.NoError(t, err)
	assert.Equal(t, "http://file.example/", v)
	assert.Equal(t, int32(0), store.getCalls.Load())
	assert.False(t, r.Memo().Has("wwwroot"), "resolve must not memoize")
}

func TestResolver_CacheTier(t *testing.T) {
	ctx := context.Background()

	t.Run("available cache answers before store", func(t *testing.T) {
		store := newMockStore()
		store.attrs["k"] = "store"
		cache := &mockCache{available: true, values: map[string]any{"k": "cache"}}
		r := NewResolver(memo.New(), store, WithCache(cache))

		v, err := r.Resolve(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "cache", v)
		assert.Equal(t, int32(0), store.getCalls.Load())
	})

	t.Run("unavailable cache is skipped", func(t *testing.T) {
		store := newMockStore()
		store.attrs["k"] = "store"
		cache := &mockCache{available: false, values: map[string]any{"k": "cache"}}
		r := NewResolver(memo.New(), store, WithCache(cache))

		v, err := r.Resolve(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "store", v)
		assert.Equal(t, int32(0), cache.loadCalls.Load())
	})

	t.Run("cache error falls through to store", func(t *testing.T) {
		store := newMockStore()
		store.attrs["k"] = "store"
		cache := &mockCache{available: true, loadErr: errors.New("connection reset")}
		r := NewResolver(memo.New(), store, WithCache(cache))

		v, err := r.Resolve(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "store", v)
	})

	t.Run("cache miss falls through to store", func(t *testing.T) {
		store := newMockStore()
		store.attrs["k"] = "store"
		cache := &mockCache{available: true, values: map[string]any{}}
		r := NewResolver(memo.New(), store, WithCache(cache))

		v, err := r.Resolve(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "store", v)
		assert.Equal(t, int32(1), cache.loadCalls.Load())
	})
}

func TestResolver_StoreBareThenNamespaced(t *testing.T) {
	ctx := context.Background()

	t.Run("bare attribute wins", func(t *testing.T) {
		store := newMockStore()
		store.attrs["sitename"] = "bare"
		store.attrs["config:sitename"] = "namespaced"
		r := NewResolver(memo.New(), store)

		v, err := r.Resolve(ctx, "sitename")
		require.NoError(t, err)
		assert.Equal(t, "bare", v)
		assert.Equal(t, []string{"sitename"}, store.getKeys)
	})

	t.Run("namespaced fallback", func(t *testing.T) {
		store := newMockStore()
		store.attrs["config:sitename"] = "namespaced"
		r := NewResolver(memo.New(), store)

		v, err := r.Resolve(ctx, "sitename")
		require.NoError(t, err)
		assert.Equal(t, "namespaced", v)
		assert.Equal(t, []string{"sitename", "config:sitename"}, store.getKeys)
	})

	t.Run("miss", func(t *testing.T) {
		store := newMockStore()
		r := NewResolver(memo.New(), store)

		_, err := r.Resolve(ctx, "never_set")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, int32(2), store.getCalls.Load())
	})
}

func TestResolver_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.getErr = errors.New("dial tcp: connection refused")
	r := NewResolver(memo.New(), store)

	_, err := r.Resolve(ctx, "anything")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResolver_NilStoreIsUnavailable(t *testing.T) {
	r := NewResolver(memo.New(), nil)

	_, err := r.Resolve(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = r.Persist(context.Background(), "anything", 1)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestResolver_ResolveRejectsLongNames(t *testing.T) {
	store := newMockStore()
	r := NewResolver(memo.New(), store)

	_, err := r.Resolve(context.Background(), strings.Repeat("n", MaxNameLength+1))
	assert.ErrorIs(t, err, ErrNameTooLong)
	assert.Equal(t, int32(0), store.getCalls.Load())
}

func TestResolver_Persist(t *testing.T) {
	ctx := context.Background()

	t.Run("writes namespaced key and memoizes", func(t *testing.T) {
		store := newMockStore()
		r := NewResolver(memo.New(), store)

		require.NoError(t, r.Persist(ctx, "dataroot", "/var/www/data"))
		assert.Equal(t, "/var/www/data", store.attrs["config:dataroot"])
		_, bare := store.attrs["dataroot"]
		assert.False(t, bare)
		assert.Equal(t, int32(1), store.saveCalls.Load())

		v, ok := r.Memo().Get("dataroot")
		assert.True(t, ok)
		assert.Equal(t, "/var/www/data", v)
	})

	t.Run("name too long touches nothing", func(t *testing.T) {
		store := newMockStore()
		r := NewResolver(memo.New(), store)

		err := r.Persist(ctx, strings.Repeat("x", MaxNameLength+1), "v")
		assert.ErrorIs(t, err, ErrNameTooLong)
		assert.Empty(t, store.pending)
		assert.Equal(t, int32(0), store.saveCalls.Load())
		assert.Equal(t, 0, r.Memo().Len())
	})

	t.Run("exactly max length is allowed", func(t *testing.T) {
		store := newMockStore()
		r := NewResolver(memo.New(), store)

		name := strings.Repeat("x", MaxNameLength)
		require.NoError(t, r.Persist(ctx, name, "v"))
		assert.Equal(t, "v", store.attrs[NamespacedKey(name)])
	})

	t.Run("save failure is reported and not memoized", func(t *testing.T) {
		store := newMockStore()
		store.saveErr = errors.New("tx aborted")
		r := NewResolver(memo.New(), store)

		err := r.Persist(ctx, "k", "v")
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.False(t, r.Memo().Has("k"))
	})

	t.Run("cache is never written", func(t *testing.T) {
		store := newMockStore()
		cache := &mockCache{available: true, values: map[string]any{"k": "stale"}}
		r := NewResolver(memo.New(), store, WithCache(cache))

		require.NoError(t, r.Persist(ctx, "k", "fresh"))
		assert.Equal(t, "stale", cache.values["k"])
	})
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName(""))
	assert.NoError(t, ValidateName(strings.Repeat("a", MaxNameLength)))
	assert.ErrorIs(t, ValidateName(strings.Repeat("a", MaxNameLength+1)), ErrNameTooLong)
	// multibyte characters count once each
	assert.NoError(t, ValidateName(strings.Repeat("é", MaxNameLength)))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "dataroot", NormalizeName("  dataroot\t\n"))
	assert.Equal(t, "config:x", NamespacedKey("x"))
}
