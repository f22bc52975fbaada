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
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/siteconf/internal/dbopen"
	"github.com/cardinalhq/siteconf/migrations"
	sitedbmigrations "github.com/cardinalhq/siteconf/sitedb/migrations"
)

// ConnectToSiteDB opens a pool using the SITEDB_* environment variables and
// verifies the schema version.
func ConnectToSiteDB(ctx context.Context, opts ...migrations.CheckOption) (*pgxpool.Pool, error) {
	connectionString, err := dbopen.GetDatabaseURLFromEnv("SITEDB")
	if err != nil {
		return nil, errors.Join(dbopen.ErrDatabaseNotConfigured, fmt.Errorf("failed to get SITEDB connection string: %w", err))
	}

	pool, err := NewConnectionPool(ctx, connectionString)
	if err != nil {
		return nil, err
	}

	if err := sitedbmigrations.CheckVersion(ctx, pool, opts...); err != nil {
		pool.Close()
		return nil, fmt.Errorf("SITEDB migration version check failed: %w", err)
	}

	return pool, nil
}

// SiteDBStore connects and wraps the pool in a Store.
func SiteDBStore(ctx context.Context, opts ...migrations.CheckOption) (*Store, error) {
	pool, err := ConnectToSiteDB(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}
