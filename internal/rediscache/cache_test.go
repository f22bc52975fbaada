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

package rediscache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, prefix string) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewWithClient(rdb, Config{Prefix: prefix, Timeout: time.Second}), mr
}

func TestCache_IsAvailable(t *testing.T) {
	c, mr := newTestCache(t, "")
	ctx := context.Background()

	assert.True(t, c.IsAvailable(ctx))

	mr.Close()
	assert.False(t, c.IsAvailable(ctx))
}

func TestCache_Load(t *testing.T) {
	c, mr := newTestCache(t, "")
	ctx := context.Background()

	require.NoError(t, mr.Set("dataroot", `"/var/www/data"`))
	require.NoError(t, mr.Set("limits", `{"upload":2048}`))
	require.NoError(t, mr.Set("plain", `not json at all`))

	v, ok, err := c.Load(ctx, "dataroot")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/var/www/data", v)

	v, ok, err = c.Load(ctx, "limits")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"upload": json.Number("2048")}, v)

	v, ok, err = c.Load(ctx, "plain")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "not json at all", v)
}

func TestCache_LoadMissIsNotAFailure(t *testing.T) {
	c, _ := newTestCache(t, "")
	ctx := context.Background()

	for range 10 {
		_, ok, err := c.Load(ctx, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestCache_Prefix(t *testing.T) {
	c, mr := newTestCache(t, "site1:")
	require.NoError(t, mr.Set("site1:sitename", `"Prefixed"`))
	require.NoError(t, mr.Set("sitename", `"Bare"`))

	v, ok, err := c.Load(context.Background(), "sitename")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Prefixed", v)
}

func TestCache_BreakerOpensOnFailures(t *testing.T) {
	c, mr := newTestCache(t, "")
	ctx := context.Background()
	mr.Close()

	for range 5 {
		_, _, err := c.Load(ctx, "k")
		assert.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())
	assert.False(t, c.IsAvailable(ctx))

	_, _, err := c.Load(ctx, "k")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestNew_InvalidURL(t *testing.T) {
	_, _, err := New(Config{URL: "not-a-url://"})
	assert.Error(t, err)
}

func TestNew_ValidURL(t *testing.T) {
	mr := miniredis.RunT(t)
	c, rdb, err := New(Config{URL: "redis://" + mr.Addr() + "/0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	assert.True(t, c.IsAvailable(context.Background()))
	assert.Equal(t, DefaultConfig().Timeout, c.timeout)
}
