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

package siteconfig

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/siteconf/internal/datalist"
	"github.com/cardinalhq/siteconf/internal/logctx"
	"github.com/cardinalhq/siteconf/internal/memo"
	"github.com/cardinalhq/siteconf/internal/runonce"
)

// mockStore is a test mock for datalist.Store.
type mockStore struct {
	attrs     map[string]any
	pending   map[string]any
	getCalls  atomic.Int32
	setCalls  atomic.Int32
	saveCalls atomic.Int32
	getErr    error
}

func newMockStore() *mockStore {
	return &mockStore{attrs: map[string]any{}, pending: map[string]any{}}
}

func (m *mockStore) GetAttribute(_ context.Context, key string) (any, bool, error) {
	m.getCalls.Add(1)
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.attrs[key]
	return v, ok, nil
}

func (m *mockStore) SetAttribute(key string, value any) {
	m.setCalls.Add(1)
	m.pending[key] = value
}

func (m *mockStore) Save(context.Context) error {
	m.saveCalls.Add(1)
	for k, v := range m.pending {
		m.attrs[k] = v
	}
	m.pending = map[string]any{}
	return nil
}

type mapSettings map[string]any

func (s mapSettings) Lookup(name string) (any, bool) {
	v, ok := s[name]
	return v, ok
}

type compound struct {
	Hosts []string
}

func newService(store datalist.Store, opts ...datalist.Option) *Service {
	r := datalist.NewResolver(memo.New(), store, opts...)
	return New(r, runonce.New(r, clockwork.NewFakeClockAt(time.Unix(100, 0))))
}

func captureLogs() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return logctx.WithLogger(context.Background(), logger), &buf
}

func TestService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := newService(store)

	require.NoError(t, svc.Save(ctx, "dataroot", "/var/www/data"))

	v, ok := svc.Get(ctx, "dataroot")
	require.True(t, ok)
	assert.Equal(t, "/var/www/data", v)
	assert.Equal(t, int32(0), store.getCalls.Load(), "served from memo")

	// A fresh process shares the store but not the memo cache.
	fresh := newService(store)
	v, ok = fresh.Get(ctx, "dataroot")
	require.True(t, ok)
	assert.Equal(t, "/var/www/data", v)
	assert.Equal(t, int32(2), store.getCalls.Load(), "bare name then namespaced key")

	s, ok := fresh.GetString(ctx, "dataroot")
	assert.True(t, ok)
	assert.Equal(t, "/var/www/data", s)
	assert.Equal(t, int32(2), store.getCalls.Load(), "memoized after first resolve")
}

func TestService_NameIsTrimmed(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := newService(store)

	require.NoError(t, svc.Save(ctx, "  sitename \n", "Example"))
	assert.Equal(t, "Example", store.attrs["config:sitename"])

	v, ok := svc.Get(ctx, "sitename")
	assert.True(t, ok)
	assert.Equal(t, "Example", v)
}

func TestService_LengthInvariant(t *testing.T) {
	ctx, logs := captureLogs()
	store := newMockStore()
	svc := newService(store)
	long := strings.Repeat("n", datalist.MaxNameLength+1)

	err := svc.Save(ctx, long, "value")
	assert.ErrorIs(t, err, datalist.ErrNameTooLong)
	assert.Contains(t, logs.String(), "level=ERROR")

	assert.Equal(t, int32(0), store.setCalls.Load())
	assert.Equal(t, int32(0), store.saveCalls.Load())
	assert.Empty(t, store.attrs)
	// Save rejects the name before Set, so the memo cache is untouched too.
	assert.False(t, svc.resolver.Memo().Has(long))

	// Set alone does not validate and still memoizes.
	svc.Set(long, "memo-only")
	v, ok := svc.Get(ctx, long)
	assert.True(t, ok)
	assert.Equal(t, "memo-only", v)
	assert.Equal(t, int32(0), store.getCalls.Load())
}

func TestService_Precedence(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.attrs["wwwroot"] = "http://db.example/"
	store.attrs["config:wwwroot"] = "http://db.example/"
	svc := newService(store, datalist.WithSettings(mapSettings{"wwwroot": "http://file.example/"}))

	v, ok := svc.Get(ctx, "wwwroot")
	require.True(t, ok)
	assert.Equal(t, "http://file.example/", v)
	assert.Equal(t, int32(0), store.getCalls.Load())
}

func TestService_NegativeResultNotMemoized(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := newService(store)

	v, ok := svc.Get(ctx, "never_set")
	assert.False(t, ok)
	assert.Nil(t, v)
	first := store.getCalls.Load()
	assert.Positive(t, first)

	v, ok = svc.Get(ctx, "never_set")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 2*first, store.getCalls.Load(), "store queried again on the second call")
	assert.False(t, svc.resolver.Memo().Has("never_set"))
}

func TestService_UnreachableStoreNotMemoized(t *testing.T) {
	ctx, logs := captureLogs()
	store := newMockStore()
	store.getErr = errors.New("connection refused")
	svc := newService(store)

	_, ok := svc.Get(ctx, "dataroot")
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "level=WARN")

	store.getErr = nil
	store.attrs["config:dataroot"] = "/recovered"
	v, ok := svc.Get(ctx, "dataroot")
	assert.True(t, ok)
	assert.Equal(t, "/recovered", v)
}

func TestService_ObjectRejection(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := newService(store)
	obj := &compound{Hosts: []string{"a", "b"}}

	err := svc.Save(ctx, "x", obj)
	assert.ErrorIs(t, err, datalist.ErrUnpersistable)
	assert.Equal(t, int32(0), store.saveCalls.Load())
	assert.Equal(t, int32(0), store.setCalls.Load())

	v, ok := svc.Get(ctx, "x")
	require.True(t, ok)
	assert.Same(t, obj, v)
}

func TestService_CompoundJSONValuesPersist(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := newService(store)
	val := map[string]any{"hosts": []any{"a", "b"}}

	require.NoError(t, svc.Save(ctx, "cluster", val))
	assert.Equal(t, val, store.attrs["config:cluster"])
	assert.Equal(t, int32(1), store.saveCalls.Load())
}

func TestService_SetDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := newService(store)

	svc.Set("debug", true)
	v, ok := svc.Get(ctx, "debug")
	assert.True(t, ok)
	assert.Equal(t, true, v)
	assert.Equal(t, int32(0), store.setCalls.Load())
	assert.Equal(t, int32(0), store.saveCalls.Load())
}

func TestService_DeleteUnsupported(t *testing.T) {
	store := newMockStore()
	store.attrs["config:k"] = "v"
	svc := newService(store)

	err := svc.Delete(context.Background(), "k")
	assert.ErrorIs(t, err, errors.ErrUnsupported)
	assert.Equal(t, "v", store.attrs["config:k"])
}

func TestService_RunOnce(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := newService(store)

	var calls atomic.Int32
	svc.Guard().Register("migrate_v2", func(context.Context) error {
		calls.Add(1)
		return nil
	})

	ran, err := svc.RunOnce(ctx, "migrate_v2", 0)
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = svc.RunOnce(ctx, "migrate_v2", 50)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, int32(1), calls.Load())

	v, ok := svc.Get(ctx, "migrate_v2")
	assert.True(t, ok)
	assert.Equal(t, int64(100), v)
}

func TestService_RunOnceWithoutGuard(t *testing.T) {
	svc := New(datalist.NewResolver(memo.New(), newMockStore()), nil)

	ran, err := svc.RunOnce(context.Background(), "anything", 0)
	assert.False(t, ran)
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}
