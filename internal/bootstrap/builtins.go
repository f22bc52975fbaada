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

package bootstrap

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/cardinalhq/siteconf/internal/runonce"
	"github.com/cardinalhq/siteconf/internal/siteconfig"
)

const (
	OpInstallationID = "init_installation_id"
	OpInstalledAt    = "init_installed_at"

	InstallationIDName = "installation_id"
	InstalledAtName    = "installed_at"
)

func registerBuiltins(g *runonce.Guard, svc *siteconfig.Service, clock clockwork.Clock) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	g.Register(OpInstallationID, func(ctx context.Context) error {
		if _, ok := svc.Get(ctx, InstallationIDName); ok {
			return nil
		}
		return svc.Save(ctx, InstallationIDName, uuid.NewString())
	})

	g.Register(OpInstalledAt, func(ctx context.Context) error {
		if _, ok := svc.Get(ctx, InstalledAtName); ok {
			return nil
		}
		return svc.Save(ctx, InstalledAtName, clock.Now().UTC().Format(time.RFC3339))
	})
}
