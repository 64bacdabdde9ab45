// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	const (
		expectDeviceClass     = "desktop"
		expectLogLevel        = slog.LevelInfo
		expectBackendURL      = "http://localhost:8000"
		expectRefreshInterval = time.Minute * 10
	)
	t.Run("new config with all defaults set", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Errorf("failed to load config: %s", err)
		}
		if conf.DeviceClass != expectDeviceClass {
			t.Errorf("expected device class to be: %s, got %s", expectDeviceClass, conf.DeviceClass)
		}
		if conf.LogLevel != expectLogLevel {
			t.Errorf("expected log level to be: %s, got %s", expectLogLevel, conf.LogLevel)
		}
		if conf.Backend.URL != expectBackendURL {
			t.Errorf("expected backend URL to be: %s, got %s", expectBackendURL, conf.Backend.URL)
		}
		if conf.Intervals.LocationRefresh != expectRefreshInterval {
			t.Errorf("expected location refresh interval to be: %s, got %s", expectRefreshInterval,
				conf.Intervals.LocationRefresh)
		}
	})
	t.Run("new config with invalid log level from env", func(t *testing.T) {
		t.Setenv("TOOLATLAS_LOGLEVEL", "invalid")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config validate device class", func(t *testing.T) {
		t.Setenv("TOOLATLAS_DEVICE_CLASS", "tablet")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config with mobile device class is valid", func(t *testing.T) {
		t.Setenv("TOOLATLAS_DEVICE_CLASS", "mobile")
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.DeviceClass != "mobile" {
			t.Errorf("expected device class to be mobile, got %s", conf.DeviceClass)
		}
	})
	t.Run("config fails when all position providers are disabled", func(t *testing.T) {
		t.Setenv("TOOLATLAS_POSITION_DISABLE_GPSD", "true")
		t.Setenv("TOOLATLAS_POSITION_DISABLE_BEACONDB", "true")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("config fails on too small refresh interval", func(t *testing.T) {
		t.Setenv("TOOLATLAS_INTERVALS_LOCATION_REFRESH", "10s")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
}

func TestNewFromFile(t *testing.T) {
	t.Run("loading a missing file fails", func(t *testing.T) {
		_, err := NewFromFile(t.TempDir(), "config.toml")
		if err == nil {
			t.Error("expected config loading to fail, but didn't")
		}
	})
	t.Run("loading a config file succeeds", func(t *testing.T) {
		conf, err := NewFromFile("../../testdata", "config.toml")
		if err != nil {
			t.Fatalf("failed to load config from file: %s", err)
		}
		if conf.DeviceClass != "mobile" {
			t.Errorf("expected device class to be mobile, got %s", conf.DeviceClass)
		}
		if conf.Backend.URL != "https://tools.example.com" {
			t.Errorf("expected backend URL override, got %s", conf.Backend.URL)
		}
	})
}
