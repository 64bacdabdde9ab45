// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package config holds the toolatlas service configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kkyr/fig"
)

const configEnv = "TOOLATLAS"

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	// Allowed values: mobile, desktop. Mobile devices get longer position
	// acquisition timeouts since GPS cold-start is slower.
	DeviceClass string `fig:"device_class" default:"desktop"`

	Position struct {
		DisableGPSD     bool   `fig:"disable_gpsd"`
		DisableBeaconDB bool   `fig:"disable_beacondb"`
		GPSDHost        string `fig:"gpsd_host" default:"localhost"`
		GPSDPort        string `fig:"gpsd_port" default:"2947"`
	} `fig:"position"`

	Geocode struct {
		CacheHitTTL  time.Duration `fig:"cache_hit_ttl" default:"1h"`
		CacheMissTTL time.Duration `fig:"cache_miss_ttl" default:"5m"`
	} `fig:"geocode"`

	Backend struct {
		URL string `fig:"url" default:"http://localhost:8000"`
	} `fig:"backend"`

	Intervals struct {
		LocationRefresh time.Duration `fig:"location_refresh" default:"10m"`
		CacheSweep      time.Duration `fig:"cache_sweep" default:"30m"`
	} `fig:"intervals"`
}

// NewFromFile loads the Config from the given file, applying environment
// overrides.
func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// New loads the Config from defaults and environment variables only.
func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// Validate checks the loaded values for consistency.
func (c *Config) Validate() error {
	if c.DeviceClass != "mobile" && c.DeviceClass != "desktop" {
		return fmt.Errorf("invalid device class: %s", c.DeviceClass)
	}
	if c.Position.DisableGPSD && c.Position.DisableBeaconDB {
		return fmt.Errorf("all positioning providers are disabled")
	}
	if c.Geocode.CacheHitTTL <= 0 || c.Geocode.CacheMissTTL <= 0 {
		return fmt.Errorf("geocode cache TTLs must be positive")
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("backend URL must not be empty")
	}
	if c.Intervals.LocationRefresh < time.Minute {
		return fmt.Errorf("location refresh interval must be at least one minute")
	}

	return nil
}
