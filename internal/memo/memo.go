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

// Package memo holds configuration values resolved during the lifetime of
// one process. Entries never expire and are never evicted.
package memo

import (
	"github.com/jellydator/ttlcache/v3"
)

// Cache maps a configuration name to its resolved value.
type Cache struct {
	items *ttlcache.Cache[string, any]
}

// New creates an empty process memo cache.
func New() *Cache {
	return &Cache{
		items: ttlcache.New(
			ttlcache.WithDisableTouchOnHit[string, any](),
		),
	}
}

// Get returns the memoized value for name. A nil value is a valid entry;
// use the returned bool to distinguish it from a miss.
func (c *Cache) Get(name string) (any, bool) {
	item := c.items.Get(name)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Put stores value under name, replacing any previous entry.
func (c *Cache) Put(name string, value any) {
	c.items.Set(name, value, ttlcache.NoTTL)
}

func (c *Cache) Has(name string) bool {
	return c.items.Has(name)
}

// Len returns the number of memoized names.
func (c *Cache) Len() int {
	return c.items.Len()
}
