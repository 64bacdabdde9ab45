// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

package gpsdfix

import (
	"errors"
	"testing"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/toolatlas/toolatlas/internal/geo"
	"github.com/toolatlas/toolatlas/internal/position"
)

func TestNew(t *testing.T) {
	t.Run("new provider succeeds", func(t *testing.T) {
		provider := New(DefaultHost, DefaultPort)
		if provider == nil {
			t.Fatal("expected provider to be non-nil")
		}
		if provider.addr != "localhost:2947" {
			t.Errorf("unexpected daemon address: %q", provider.addr)
		}
	})
	t.Run("provider name is correct", func(t *testing.T) {
		provider := New(DefaultHost, DefaultPort)
		if provider.Name() != name {
			t.Errorf("expected provider name %q, got %q", name, provider.Name())
		}
	})
}

func TestProvider_Locate(t *testing.T) {
	t.Run("unreachable daemon reports position unavailable", func(t *testing.T) {
		// Port 9 is the discard port, nothing is listening there.
		provider := New("localhost", "9")
		_, err := provider.Locate(t.Context(), position.LocateOptions{Timeout: time.Second})
		if !errors.Is(err, position.ErrPositionUnavailable) {
			t.Fatalf("expected %q, got %q", position.ErrPositionUnavailable, err)
		}
	})
	t.Run("cached fix is served within max age", func(t *testing.T) {
		provider := New("localhost", "9")
		fix := position.Fix{
			Coordinate:     geo.Coordinate{Lat: 40.7185, Lon: -74.0025},
			AccuracyMeters: 12,
			Source:         name,
			At:             time.Now(),
		}
		provider.mu.Lock()
		provider.last = &fix
		provider.mu.Unlock()

		got, err := provider.Locate(t.Context(), position.LocateOptions{MaxAge: time.Minute})
		if err != nil {
			t.Fatal(err)
		}
		if got.Coordinate != fix.Coordinate {
			t.Errorf("expected the cached fix, got %s", got.Coordinate)
		}
	})
	t.Run("stale cached fix is not served", func(t *testing.T) {
		provider := New("localhost", "9")
		fix := position.Fix{
			Coordinate: geo.Coordinate{Lat: 40.7185, Lon: -74.0025},
			At:         time.Now().Add(-time.Hour),
		}
		provider.mu.Lock()
		provider.last = &fix
		provider.mu.Unlock()

		if _, err := provider.Locate(t.Context(), position.LocateOptions{MaxAge: time.Minute}); err == nil {
			t.Fatal("expected the stale fix to be rejected and the dial to fail")
		}
	})
}

func TestHorizontalAccuracyMeters(t *testing.T) {
	tests := []struct {
		name string
		tpv  gpsd.TPVReport
		want float64
	}{
		{"error estimates present", gpsd.TPVReport{Epx: 3, Epy: 4, Mode: gpsd.Mode3D}, 5},
		{"3D fix without estimates", gpsd.TPVReport{Mode: gpsd.Mode3D}, fallbackAccuracy3DFix},
		{"2D fix without estimates", gpsd.TPVReport{Mode: gpsd.Mode2D}, fallbackAccuracy2DFix},
		{"no fix", gpsd.TPVReport{Mode: gpsd.NoFix}, fallbackAccuracyNoFix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := horizontalAccuracyMeters(&tt.tpv); got != tt.want {
				t.Errorf("expected accuracy %f, got %f", tt.want, got)
			}
		})
	}
}
