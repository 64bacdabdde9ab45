// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package nominatim implements the place.Geocoder interface on top of the
// OSM Nominatim API.
package nominatim

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/toolatlas/toolatlas/internal/geo"
	"github.com/toolatlas/toolatlas/internal/http"
	"github.com/toolatlas/toolatlas/internal/place"
)

const (
	APISearchEndpoint  = "https://nominatim.openstreetmap.org/search"
	APIReverseEndpoint = "https://nominatim.openstreetmap.org/reverse"
	APITimeout         = time.Second * 10
	name               = "osm-nominatim"

	// reverseZoom requests building-level address detail.
	reverseZoom = "18"
)

type Nominatim struct {
	http *http.Client
	lang language.Tag
}

type ReverseResult struct {
	APILat      string  `json:"lat"`
	APILon      string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
	Address     Address `json:"address"`
	Error       string  `json:"error"`
}

type SearchResult struct {
	APILat      string  `json:"lat"`
	APILon      string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
	Address     Address `json:"address"`
}

type Address struct {
	HouseNumber   string `json:"house_number"`
	Road          string `json:"road"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	Municipality  string `json:"municipality"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	State         string `json:"state"`
	ISO31662Lvl4  string `json:"ISO3166-2-lvl4"`
	Postcode      string `json:"postcode"`
	Country       string `json:"country"`
}

func New(client *http.Client, lang language.Tag) *Nominatim {
	if lang == language.Und {
		lang = language.English
	}
	return &Nominatim{
		lang: lang,
		http: client,
	}
}

func (n *Nominatim) Name() string {
	return name
}

// Reverse resolves a coordinate to a structured address via the Nominatim
// reverse endpoint.
func (n *Nominatim) Reverse(ctx context.Context, coord geo.Coordinate) (place.Place, error) {
	var result ReverseResult

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", fmt.Sprintf("%f", coord.Lat))
	query.Set("lon", fmt.Sprintf("%f", coord.Lon))
	query.Set("zoom", reverseZoom)
	query.Set("addressdetails", "1")
	query.Set("accept-language", n.lang.String())

	code, err := n.http.GetWithTimeout(ctx, APIReverseEndpoint, &result, query, nil, APITimeout)
	if err != nil {
		return place.Place{}, fmt.Errorf("failed to fetch reverse address details from Nominatim API: %w", err)
	}
	if err = statusError(code); err != nil {
		return place.Place{}, err
	}
	// Nominatim reports "Unable to geocode" as a 200 with an error field.
	if result.Error != "" || result.DisplayName == "" {
		return place.Place{}, fmt.Errorf("%w: coordinate %s", place.ErrNotFound, coord)
	}

	resolved := place.Place{
		DisplayName: result.DisplayName,
		Category:    result.Category,
		Type:        result.Type,
		Importance:  result.Importance,
		Address:     toPlaceAddress(result.Address),
	}
	resolved.Coordinate, err = parseCoordinate(result.APILat, result.APILon)
	if err != nil {
		return place.Place{}, err
	}

	return resolved, nil
}

// Search performs a forward geocoding query. When box is non-nil the query is
// constrained to the given viewbox with bounded results only.
func (n *Nominatim) Search(ctx context.Context, searchQuery string, box *geo.BoundingBox, limit int) ([]place.Place, error) {
	var results []SearchResult

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("q", searchQuery)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("addressdetails", "1")
	query.Set("accept-language", n.lang.String())
	if box != nil {
		query.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", box.Left, box.Top, box.Right, box.Bottom))
		query.Set("bounded", "1")
	}

	code, err := n.http.GetWithTimeout(ctx, APISearchEndpoint, &results, query, nil, APITimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch address details from Nominatim API: %w", err)
	}
	if err = statusError(code); err != nil {
		return nil, err
	}

	places := make([]place.Place, 0, len(results))
	for _, result := range results {
		found := place.Place{
			DisplayName: result.DisplayName,
			Category:    result.Category,
			Type:        result.Type,
			Importance:  result.Importance,
			Address:     toPlaceAddress(result.Address),
		}
		found.Coordinate, err = parseCoordinate(result.APILat, result.APILon)
		if err != nil {
			return nil, err
		}
		places = append(places, found)
	}

	return places, nil
}

// statusError maps the provider HTTP status to the place error taxonomy.
func statusError(code int) error {
	switch {
	case code >= 200 && code <= 299:
		return nil
	case code == 429:
		return fmt.Errorf("%w: HTTP %d", place.ErrRateLimited, code)
	case code == 403:
		return fmt.Errorf("%w: HTTP %d", place.ErrForbidden, code)
	default:
		return fmt.Errorf("%w: HTTP %d", place.ErrProvider, code)
	}
}

func parseCoordinate(lat, lon string) (geo.Coordinate, error) {
	var coord geo.Coordinate
	var err error
	coord.Lat, err = strconv.ParseFloat(lat, 64)
	if err != nil {
		return coord, fmt.Errorf("failed to parse latitude from Nominatim API response: %w", err)
	}
	coord.Lon, err = strconv.ParseFloat(lon, 64)
	if err != nil {
		return coord, fmt.Errorf("failed to parse longitude from Nominatim API response: %w", err)
	}
	return coord, nil
}

func toPlaceAddress(addr Address) place.Address {
	return place.Address{
		HouseNumber:   addr.HouseNumber,
		Road:          addr.Road,
		Suburb:        addr.Suburb,
		Neighbourhood: addr.Neighbourhood,
		City:          addr.City,
		Town:          addr.Town,
		Village:       addr.Village,
		State:         addr.State,
		Postcode:      addr.Postcode,
		Country:       addr.Country,
	}
}
