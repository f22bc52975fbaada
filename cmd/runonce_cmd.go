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

	"github.com/spf13/cobra"

	"github.com/cardinalhq/siteconf/internal/bootstrap"
	"github.com/cardinalhq/siteconf/internal/logctx"
)

var (
	runOnceThreshold int64
	upgradeThreshold int64
)

func init() {
	runOnceCmd.Flags().Int64Var(&runOnceThreshold, "threshold", 0, "Run only if the last recorded run is at or before this Unix time")
	upgradeCmd.Flags().Int64Var(&upgradeThreshold, "threshold", 0, "Run operations whose last recorded run is at or before this Unix time")
	rootCmd.AddCommand(runOnceCmd, upgradeCmd)
}

var runOnceCmd = &cobra.Command{
	Use:   "runonce NAME",
	Short: "Run a registered one-time operation unless it already ran after the threshold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession("runonce", func(ctx context.Context, bc *bootstrap.Context) error {
			ran, err := bc.Service.RunOnce(ctx, args[0], runOnceThreshold)
			if err != nil {
				return err
			}
			status := "skipped"
			if ran {
				status = "executed"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", args[0], status)
			return err
		})
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Run every built-in installation operation that is due",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession("upgrade", func(ctx context.Context, bc *bootstrap.Context) error {
			executed, err := bc.Guard.RunAll(ctx, upgradeThreshold)
			for _, name := range executed {
				if _, werr := fmt.Fprintln(cmd.OutOrStdout(), name); werr != nil {
					return werr
				}
			}
			if err != nil {
				return err
			}
			logctx.FromContext(ctx).Info("Upgrade complete", slog.Int("executed", len(executed)))
			return nil
		})
	},
}
