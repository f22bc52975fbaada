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
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/cardinalhq/siteconf/internal/rediscache"
	"github.com/cardinalhq/siteconf/internal/settings"
)

// Config aggregates configuration for the application.
// Each field is owned by its respective package.
type Config struct {
	Site      SiteConfig        `mapstructure:"site"`
	Settings  SettingsConfig    `mapstructure:"settings"`
	Redis     rediscache.Config `mapstructure:"redis"`
	Migration MigrationConfig   `mapstructure:"migration"`
}

type SiteConfig struct {
	// ID scopes every stored attribute. Empty means the default site.
	ID string `mapstructure:"id"`
}

type SettingsConfig struct {
	File string `mapstructure:"file"`
}

type MigrationConfig struct {
	// Check is one of wait, warn or skip.
	Check string `mapstructure:"check"`
}

// SiteID parses Site.ID. An empty ID yields uuid.Nil.
func (c *Config) SiteID() (uuid.UUID, error) {
	if strings.TrimSpace(c.Site.ID) == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Site.ID))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid site.id %q: %w", c.Site.ID, err)
	}
	return id, nil
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "SITECONF" and the dot character
// in keys is replaced by an underscore. For example, "redis.url" becomes
// "SITECONF_REDIS_URL".
func Load() (*Config, error) {
	cfg := &Config{
		Settings:  SettingsConfig{File: settings.DefaultPath},
		Redis:     rediscache.DefaultConfig(),
		Migration: MigrationConfig{Check: "wait"},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("SITECONF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.SiteID(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string{}, parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
