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

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/siteconf/migrations"
	"github.com/cardinalhq/siteconf/sitedb"
	sitedbmigrations "github.com/cardinalhq/siteconf/sitedb/migrations"
)

func init() {
	rootCmd.AddCommand(MigrateCmd)
}

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run site database migrations",
	RunE:  migrate,
}

func migrate(_ *cobra.Command, _ []string) (err error) {
	doneCtx, shutdown, err := setupTelemetry("siteconf-migrate")
	if err != nil {
		return err
	}
	defer func() {
		if serr := shutdown(); serr != nil {
			err = multierror.Append(err, serr).ErrorOrNil()
		}
		recordCommand(context.Background(), "migrate", err)
	}()

	ctx, cancel := context.WithTimeout(doneCtx, 5*time.Minute)
	defer cancel()

	slog.Info("Running sitedb migrations")
	// The schema is about to change, so the version check cannot pass yet.
	pool, err := sitedb.ConnectToSiteDB(ctx, migrations.WithCheckMode(migrations.CheckModeSkip))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := sitedbmigrations.RunMigrationsUp(ctx, pool); err != nil {
		return fmt.Errorf("failed to migrate sitedb: %w", err)
	}
	slog.Info("sitedb migrations completed successfully")
	return nil
}
