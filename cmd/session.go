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
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/siteconf/config"
	"github.com/cardinalhq/siteconf/internal/bootstrap"
	"github.com/cardinalhq/siteconf/internal/idgen"
	"github.com/cardinalhq/siteconf/internal/logctx"
)

// withSession sets up logging, opens the configuration context and runs
// fn. Errors from fn, Close and telemetry shutdown are all reported.
func withSession(command string, fn func(ctx context.Context, bc *bootstrap.Context) error) (err error) {
	doneCtx, shutdown, err := setupTelemetry("siteconf")
	if err != nil {
		return err
	}

	ctx := logctx.With(doneCtx,
		slog.String("command", command),
		slog.String("op_id", idgen.ShortID()))

	defer func() {
		recordCommand(ctx, command, err)
		if serr := shutdown(); serr != nil {
			err = multierror.Append(err, serr).ErrorOrNil()
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	bc, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := bc.Close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
	}()

	return fn(ctx, bc)
}
