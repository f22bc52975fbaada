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

// Package rediscache is the optional distributed read cache consulted
// before the persistent store. This subsystem only reads from it; entries
// are populated and expired by other writers.
package rediscache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Config controls the connection and circuit breaker.
type Config struct {
	URL     string        `mapstructure:"url"`
	Prefix  string        `mapstructure:"prefix"`
	Timeout time.Duration `mapstructure:"timeout"`
	Enabled bool          `mapstructure:"enabled"`
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		URL:     "redis://localhost:6379/0",
		Prefix:  "",
		Timeout: 250 * time.Millisecond,
		Enabled: false,
	}
}

// Cache reads datalist values from Redis behind a circuit breaker.
type Cache struct {
	rdb     goredis.Cmdable
	cb      *gobreaker.CircuitBreaker
	prefix  string
	timeout time.Duration
}

// New connects to the Redis server named by cfg.URL. The connection is
// not verified here; IsAvailable probes it.
func New(cfg Config) (*Cache, *goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)
	return NewWithClient(rdb, cfg), rdb, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb goredis.Cmdable, cfg Config) *Cache {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Cache{
		rdb:     rdb,
		cb:      newBreaker(),
		prefix:  cfg.Prefix,
		timeout: timeout,
	}
}

// newBreaker trips after 5 consecutive failures and probes again after 30s.
func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-datalist",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, goredis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				slog.String("component", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
}

// State returns the circuit breaker state.
func (c *Cache) State() gobreaker.State {
	return c.cb.State()
}

// IsAvailable reports whether the cache can be queried: the breaker is not
// open and the server answers PING.
func (c *Cache) IsAvailable(ctx context.Context) bool {
	if c.cb.State() == gobreaker.StateOpen {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.rdb.Ping(ctx).Err()
	})
	return err == nil
}

// Load returns the value cached under key. Values are stored as JSON; a
// value that is not valid JSON is returned as a plain string.
func (c *Cache) Load(ctx context.Context, key string) (any, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.cb.Execute(func() (any, error) {
		return c.rdb.Get(ctx, c.prefix+key).Bytes()
	})
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %s: %w", key, err)
	}

	data, _ := res.([]byte)
	return decode(data), true, nil
}

func decode(data []byte) any {
	if !json.Valid(data) {
		return string(data)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return string(data)
	}
	return v
}
