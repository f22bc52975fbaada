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

package migrations

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/siteconf/migrations"
)

const dbName = "sitedb"

// CheckVersion verifies that sitedb is at the migration version embedded in
// this binary.
func CheckVersion(ctx context.Context, pool *pgxpool.Pool, options ...migrations.CheckOption) error {
	if !migrationCheckEnabled() {
		slog.Debug("Migration version checking disabled for sitedb")
		return nil
	}

	opts := migrations.DefaultCheckOptions()
	for _, option := range options {
		option(&opts)
	}
	if opts.Mode == migrations.CheckModeSkip {
		slog.Debug("Migration version checking skipped for sitedb")
		return nil
	}
	applyEnvironmentOverrides(&opts)

	expected, err := LatestVersion(migrationFiles)
	if err != nil {
		return fmt.Errorf("failed to extract expected migration version for %s: %w", dbName, err)
	}

	return waitForVersion(ctx, expected, opts, func() (uint, bool, error) {
		return currentVersion(pool)
	})
}

func migrationCheckEnabled() bool {
	if val := os.Getenv("SITEDB_MIGRATION_CHECK_ENABLED"); val != "" {
		return strings.ToLower(val) == "true"
	}
	return true
}

func applyEnvironmentOverrides(opts *migrations.CheckOptions) {
	if val := os.Getenv("MIGRATION_CHECK_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			opts.Timeout = d
		}
	}
	if val := os.Getenv("MIGRATION_CHECK_RETRY_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			opts.RetryInterval = d
		}
	}
	if val := os.Getenv("MIGRATION_CHECK_ALLOW_DIRTY"); val != "" {
		opts.AllowDirty = strings.ToLower(val) == "true"
	}
}

// LatestVersion returns the highest version among the *.up.sql files.
func LatestVersion(files fs.ReadDirFS) (uint, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var maxVersion uint
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		version, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		maxVersion = max(maxVersion, uint(version))
	}

	if maxVersion == 0 {
		return 0, errors.New("no valid migration files found")
	}
	return maxVersion, nil
}

type versionFunc func() (version uint, dirty bool, err error)

func waitForVersion(ctx context.Context, expected uint, opts migrations.CheckOptions, current versionFunc) error {
	version, dirty, err := current()
	if err != nil {
		return fmt.Errorf("failed to get current migration version for %s: %w", dbName, err)
	}

	if dirty && !opts.AllowDirty {
		if opts.Mode != migrations.CheckModeWarn {
			return fmt.Errorf("database %s migration is in dirty state, please fix before proceeding", dbName)
		}
		slog.Warn("Database migration is in dirty state, but continuing anyway",
			slog.String("database", dbName))
	}

	if version == expected {
		return nil
	}

	slog.Info("Checking migration version",
		slog.String("database", dbName),
		slog.Uint64("current_version", uint64(version)),
		slog.Uint64("expected_version", uint64(expected)))

	if version > expected {
		if opts.Mode == migrations.CheckModeWarn {
			slog.Warn("Database version is newer than expected, but continuing anyway",
				slog.String("database", dbName))
			return nil
		}
		return fmt.Errorf("database %s version %d is newer than expected version %d - you may need to update the application",
			dbName, version, expected)
	}

	if opts.Mode == migrations.CheckModeWarn {
		slog.Warn("Database version is older than expected, but continuing anyway",
			slog.String("database", dbName),
			slog.Uint64("current_version", uint64(version)),
			slog.Uint64("expected_version", uint64(expected)))
		return nil
	}

	deadline := time.Now().Add(opts.Timeout)
	ticker := time.NewTicker(opts.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for %s migrations", dbName)
		case <-ticker.C:
		}

		version, _, err = current()
		if err != nil {
			return fmt.Errorf("failed to get current migration version for %s: %w", dbName, err)
		}
		if version == expected {
			slog.Info("Migration version check passed",
				slog.String("database", dbName),
				slog.Uint64("version", uint64(version)))
			return nil
		}
		if time.Now().After(deadline) {
			slog.Error("Migration timeout reached; schema may be inconsistent",
				slog.String("database", dbName),
				slog.Uint64("current_version", uint64(version)),
				slog.Uint64("expected_version", uint64(expected)))
			return nil
		}

		slog.Info("Waiting for migrations to complete",
			slog.String("database", dbName),
			slog.Uint64("current_version", uint64(version)),
			slog.Uint64("expected_version", uint64(expected)),
			slog.Duration("remaining_timeout", time.Until(deadline)))
	}
}

func currentVersion(pool *pgxpool.Pool) (uint, bool, error) {
	m, closeFn, err := newMigrate(pool)
	if err != nil {
		return 0, false, err
	}
	defer closeFn()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, dirty, nil
}
