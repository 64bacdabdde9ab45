// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

package geo

import (
	"errors"
	"math"
	"testing"
)

func TestCoordinate_Valid(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinate
		valid bool
	}{
		{"zero coordinate is valid", Coordinate{}, true},
		{"normal coordinate is valid", Coordinate{Lat: 52.5129, Lon: 13.3910}, true},
		{"latitude at north pole is valid", Coordinate{Lat: 90, Lon: 0}, true},
		{"latitude at south pole is valid", Coordinate{Lat: -90, Lon: 0}, true},
		{"longitude at antimeridian is valid", Coordinate{Lat: 0, Lon: 180}, true},
		{"latitude above 90 is invalid", Coordinate{Lat: 90.0001, Lon: 0}, false},
		{"latitude below -90 is invalid", Coordinate{Lat: -91, Lon: 0}, false},
		{"longitude above 180 is invalid", Coordinate{Lat: 0, Lon: 180.5}, false},
		{"longitude below -180 is invalid", Coordinate{Lat: 0, Lon: -181}, false},
		{"NaN latitude is invalid", Coordinate{Lat: math.NaN(), Lon: 0}, false},
		{"NaN longitude is invalid", Coordinate{Lat: 0, Lon: math.NaN()}, false},
		{"infinite latitude is invalid", Coordinate{Lat: math.Inf(1), Lon: 0}, false},
		{"infinite longitude is invalid", Coordinate{Lat: 0, Lon: math.Inf(-1)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.coord.Valid() != tc.valid {
				t.Errorf("expected Valid() to be %t for %v", tc.valid, tc.coord)
			}
		})
	}
}

func TestCoordinate_Validate(t *testing.T) {
	t.Run("invalid coordinate returns ErrInvalidCoordinate", func(t *testing.T) {
		err := Coordinate{Lat: math.NaN(), Lon: 200}.Validate()
		if err == nil {
			t.Fatal("expected validation to fail")
		}
		if !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("expected error to be %s, got %s", ErrInvalidCoordinate, err)
		}
	})
	t.Run("valid coordinate returns nil", func(t *testing.T) {
		if err := (Coordinate{Lat: 48.1371, Lon: 11.5754}).Validate(); err != nil {
			t.Errorf("expected validation to succeed, got %s", err)
		}
	})
}

func TestCoordinate_String(t *testing.T) {
	t.Run("formats to four decimal places", func(t *testing.T) {
		c := Coordinate{Lat: 52.51291, Lon: -13.39105}
		want := "52.5129, -13.3911"
		if c.String() != want {
			t.Errorf("expected %q, got %q", want, c.String())
		}
	})
}

func TestDistanceKm(t *testing.T) {
	berlin := Coordinate{Lat: 52.5200, Lon: 13.4050}
	munich := Coordinate{Lat: 48.1371, Lon: 11.5754}

	t.Run("distance is symmetric", func(t *testing.T) {
		if DistanceKm(berlin, munich) != DistanceKm(munich, berlin) {
			t.Error("expected distance to be symmetric")
		}
	})
	t.Run("distance to self is zero", func(t *testing.T) {
		if d := DistanceKm(berlin, berlin); d != 0 {
			t.Errorf("expected zero distance, got %f", d)
		}
	})
	t.Run("Berlin to Munich is roughly 504km", func(t *testing.T) {
		d := DistanceKm(berlin, munich)
		if d < 500 || d > 510 {
			t.Errorf("expected distance of ~504km, got %f", d)
		}
	})
	t.Run("points one degree of latitude apart are roughly 111km apart", func(t *testing.T) {
		d := DistanceKm(Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 1, Lon: 0})
		if d < 111 || d > 112 {
			t.Errorf("expected distance of ~111km, got %f", d)
		}
	})
}

func TestBiasBox(t *testing.T) {
	t.Run("box surrounds the bias coordinate", func(t *testing.T) {
		box := BiasBox(Coordinate{Lat: 52.5, Lon: 13.4})
		if box.Left != 13.3 || box.Right != 13.5 {
			t.Errorf("unexpected longitude bounds: %v", box)
		}
		if box.Bottom != 52.4 || box.Top != 52.6 {
			t.Errorf("unexpected latitude bounds: %v", box)
		}
	})
	t.Run("box is clamped at the poles and antimeridian", func(t *testing.T) {
		box := BiasBox(Coordinate{Lat: 89.95, Lon: 179.95})
		if box.Top != 90 {
			t.Errorf("expected top to be clamped to 90, got %f", box.Top)
		}
		if box.Right != 180 {
			t.Errorf("expected right to be clamped to 180, got %f", box.Right)
		}
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		precision int
		want      float64
	}{
		{"truncates without rounding", 52.51299, 4, 52.5129},
		{"negative values truncate towards zero", -13.39109, 4, -13.3910},
		{"zero precision drops the fraction", 1.999, 0, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Truncate(tc.value, tc.precision); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
