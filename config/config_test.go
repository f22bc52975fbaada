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

package config

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/siteconf/internal/settings"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, settings.DefaultPath, cfg.Settings.File)
	require.False(t, cfg.Redis.Enabled)
	require.Equal(t, 250*time.Millisecond, cfg.Redis.Timeout)
	require.Equal(t, "wait", cfg.Migration.Check)

	id, err := cfg.SiteID()
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, id)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SITECONF_SITE_ID", "7d444840-9dc0-11d1-b245-5ffdce74fad2")
	t.Setenv("SITECONF_SETTINGS_FILE", "/etc/siteconf/settings.yaml")
	t.Setenv("SITECONF_REDIS_ENABLED", "true")
	t.Setenv("SITECONF_REDIS_URL", "redis://cache:6379/2")
	t.Setenv("SITECONF_REDIS_PREFIX", "site1:")
	t.Setenv("SITECONF_REDIS_TIMEOUT", "1s")
	t.Setenv("SITECONF_MIGRATION_CHECK", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "/etc/siteconf/settings.yaml", cfg.Settings.File)
	require.True(t, cfg.Redis.Enabled)
	require.Equal(t, "redis://cache:6379/2", cfg.Redis.URL)
	require.Equal(t, "site1:", cfg.Redis.Prefix)
	require.Equal(t, time.Second, cfg.Redis.Timeout)
	require.Equal(t, "warn", cfg.Migration.Check)

	id, err := cfg.SiteID()
	require.NoError(t, err)
	require.Equal(t, uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"), id)
}

func TestLoadInvalidSiteID(t *testing.T) {
	t.Setenv("SITECONF_SITE_ID", "not-a-uuid")

	_, err := Load()
	require.Error(t, err)
}
