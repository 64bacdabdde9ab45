// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package geo provides the coordinate model and great-circle math shared by the
// positioning and place-resolution layers.
package geo

import (
	"errors"
	"fmt"
	"math"
)

const (
	// EarthRadiusKm is the mean Earth radius used for great-circle distances.
	EarthRadiusKm = 6371.0

	// BiasBoxDegrees is the half-width of the bounding box applied around a bias
	// coordinate for location-biased place searches. Roughly ±11km at the equator,
	// narrower at higher latitudes.
	BiasBoxDegrees = 0.1
)

// ErrInvalidCoordinate is returned when a latitude/longitude pair is NaN, infinite
// or outside the [-90,90]×[-180,180] range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate represents a geographic coordinate.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid checks if the coordinate is valid according to the EPSG logic. NaN and
// infinite values are rejected as well.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Validate returns ErrInvalidCoordinate if the coordinate is not valid.
func (c Coordinate) Validate() error {
	if !c.Valid() {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinate, c.Lat, c.Lon)
	}
	return nil
}

// String returns the coordinate as a formatted "lat, lon" pair. It serves as the
// display-name fallback when reverse geocoding degrades.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f, %.4f", Truncate(c.Lat, 4), Truncate(c.Lon, 4))
}

// DistanceKm calculates the great-circle distance between two coordinates in
// kilometers using the Haversine formula.
func DistanceKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// BoundingBox is a geographic viewport described by its corner ordinates. The
// field order matches the viewbox convention of the geocoding providers
// (left = min lon, top = max lat, right = max lon, bottom = min lat).
type BoundingBox struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// BiasBox returns a bounding box of ±BiasBoxDegrees around the given coordinate,
// clamped to the valid coordinate ranges.
func BiasBox(c Coordinate) BoundingBox {
	return BoundingBox{
		Left:   math.Max(c.Lon-BiasBoxDegrees, -180),
		Top:    math.Min(c.Lat+BiasBoxDegrees, 90),
		Right:  math.Min(c.Lon+BiasBoxDegrees, 180),
		Bottom: math.Max(c.Lat-BiasBoxDegrees, -90),
	}
}

// Truncate cuts a float down to the given decimal precision without rounding.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}
