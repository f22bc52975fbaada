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

// Package bootstrap assembles the configuration subsystem for one process:
// static settings, the site database, the optional Redis cache, the memo
// cache, resolver, facade and run-once guard.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cardinalhq/siteconf/config"
	"github.com/cardinalhq/siteconf/internal/datalist"
	"github.com/cardinalhq/siteconf/internal/memo"
	"github.com/cardinalhq/siteconf/internal/rediscache"
	"github.com/cardinalhq/siteconf/internal/runonce"
	"github.com/cardinalhq/siteconf/internal/settings"
	"github.com/cardinalhq/siteconf/internal/siteconfig"
	"github.com/cardinalhq/siteconf/migrations"
	"github.com/cardinalhq/siteconf/sitedb"
)

// Deps are the already-constructed tiers a Context is built from.
type Deps struct {
	Settings *settings.Provider
	Store    datalist.Store
	// Cache is optional.
	Cache datalist.Cache
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Context holds everything a command needs to read and write
// configuration.
type Context struct {
	Settings *settings.Provider
	Memo     *memo.Cache
	Resolver *datalist.Resolver
	Service  *siteconfig.Service
	Guard    *runonce.Guard

	// Site and DB are set only by Open.
	Site *sitedb.Site
	DB   *sitedb.Store

	closers []func() error
}

// New wires a Context from deps and registers the built-in operations.
func New(deps Deps) *Context {
	s := deps.Settings
	if s == nil {
		s = settings.Empty()
	}

	opts := []datalist.Option{datalist.WithSettings(s)}
	if deps.Cache != nil {
		opts = append(opts, datalist.WithCache(deps.Cache))
	}

	m := memo.New()
	resolver := datalist.NewResolver(m, deps.Store, opts...)
	guard := runonce.New(resolver, deps.Clock)
	svc := siteconfig.New(resolver, guard)

	registerBuiltins(guard, svc, deps.Clock)

	return &Context{
		Settings: s,
		Memo:     m,
		Resolver: resolver,
		Service:  svc,
		Guard:    guard,
	}
}

// Open loads settings, connects to the site database and, when enabled,
// Redis, and returns the assembled Context.
func Open(ctx context.Context, cfg *config.Config) (*Context, error) {
	siteID, err := cfg.SiteID()
	if err != nil {
		return nil, err
	}

	s, err := settings.Load(cfg.Settings.File)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded static settings",
		slog.String("file", cfg.Settings.File),
		slog.Int("count", s.Len()))

	mode, err := migrations.ParseCheckMode(cfg.Migration.Check)
	if err != nil {
		return nil, err
	}
	db, err := sitedb.SiteDBStore(ctx, migrations.WithCheckMode(mode))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to site database: %w", err)
	}
	site := sitedb.NewSite(db, siteID)

	deps := Deps{Settings: s, Store: site}
	var rdb *goredis.Client
	if cfg.Redis.Enabled {
		var cache *rediscache.Cache
		cache, rdb, err = rediscache.New(cfg.Redis)
		if err != nil {
			db.Close()
			return nil, err
		}
		deps.Cache = cache
		slog.Info("Redis datalist cache enabled", slog.String("prefix", cfg.Redis.Prefix))
	}

	c := New(deps)
	c.Site = site
	c.DB = db
	c.closers = append(c.closers, func() error {
		db.Close()
		return nil
	})
	if rdb != nil {
		c.closers = append(c.closers, rdb.Close)
	}
	return c, nil
}

// Close releases connections opened by Open.
func (c *Context) Close() error {
	var result *multierror.Error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	c.closers = nil
	return result.ErrorOrNil()
}
