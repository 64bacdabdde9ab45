// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package place translates between coordinates and human-readable places and
// ranks free-text place search results by distance, textual relevance and
// place importance.
package place

import (
	"context"
	"errors"

	"github.com/toolatlas/toolatlas/internal/geo"
)

var (
	// ErrRateLimited is returned when the geocoding provider answers with HTTP 429.
	ErrRateLimited = errors.New("geocoding provider rate limited")

	// ErrForbidden is returned when the geocoding provider answers with HTTP 403.
	ErrForbidden = errors.New("geocoding provider denied access")

	// ErrProvider is returned for any other non-2xx provider response.
	ErrProvider = errors.New("geocoding provider error")

	// ErrNotFound is returned when the provider payload is empty or ambiguous.
	ErrNotFound = errors.New("no place found")

	// ErrSearchFailed is returned when a forward place search could not be
	// completed. Unlike reverse geocoding, search propagates errors to the
	// caller since an empty suggestion list is an acceptable UI fallback.
	ErrSearchFailed = errors.New("place search failed")
)

// Placeholder values for address levels the provider could not fill in.
const (
	UnknownCity    = "Unknown City"
	UnknownState   = "Unknown State"
	UnknownCountry = "Unknown Country"
)

// Address is the structured address breakdown returned by a geocoding provider.
type Address struct {
	HouseNumber   string
	Road          string
	Suburb        string
	Neighbourhood string
	City          string
	Town          string
	Village       string
	State         string
	Postcode      string
	Country       string
}

// Locality returns the best available city-level name, falling back from city
// to town to village.
func (a Address) Locality() string {
	switch {
	case a.City != "":
		return a.City
	case a.Town != "":
		return a.Town
	default:
		return a.Village
	}
}

// Place is a raw geocoding result as delivered by a provider.
type Place struct {
	DisplayName string
	Coordinate  geo.Coordinate
	Importance  float64
	Category    string
	Type        string
	Address     Address
	CacheHit    bool
}

// ResolvedPlace is the named location produced by reverse geocoding. The
// contract is that a ResolvedPlace is always produced for a valid coordinate:
// on total provider failure it degrades to a formatted-coordinate place with
// low confidence instead of surfacing an error.
type ResolvedPlace struct {
	DisplayName string
	ShortName   string
	City        string
	State       string
	Country     string
	Coordinate  geo.Coordinate
	Confidence  float64

	// Degraded is set when the place was built from the coordinate alone.
	// Reason records the provider error that caused the degradation, for
	// diagnostics only.
	Degraded bool
	Reason   error
}

// Candidate is a ranked forward-geocoding result. Candidates are ephemeral,
// their lifetime is a single search call.
type Candidate struct {
	DisplayName string
	Coordinate  geo.Coordinate
	Importance  float64
	PlaceType   string
	Address     Address

	// DistanceKm is the haversine distance to the search bias coordinate, nil
	// when the search was unbiased.
	DistanceKm *float64
	Relevance  float64
}

// Geocoder is a forward/reverse geocoding provider.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, coord geo.Coordinate) (Place, error)
	Search(ctx context.Context, query string, box *geo.BoundingBox, limit int) ([]Place, error)
}
