// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

package presenter

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/toolatlas/toolatlas/internal/backend"
	"github.com/toolatlas/toolatlas/internal/geo"
	"github.com/toolatlas/toolatlas/internal/i18n"
	"github.com/toolatlas/toolatlas/internal/place"
)

func testPresenter(t *testing.T) *Presenter {
	t.Helper()
	localizer, err := i18n.New("en")
	if err != nil {
		t.Fatalf("failed to create localizer: %s", err)
	}
	return New(localizer, language.English)
}

func km(v float64) *float64 {
	return &v
}

func TestPresenter_Place(t *testing.T) {
	t.Run("resolved place renders name and coordinate", func(t *testing.T) {
		p := testPresenter(t)
		resolved := place.ResolvedPlace{
			DisplayName: "67 Friedrichstraße, Mitte, Berlin, Germany",
			Coordinate:  geo.Coordinate{Lat: 52.5170, Lon: 13.3888},
		}
		got := p.Place(resolved)
		if !strings.Contains(got, "67 Friedrichstraße") {
			t.Errorf("expected the display name in %q", got)
		}
		if !strings.Contains(got, "52.5170, 13.3888") {
			t.Errorf("expected the formatted coordinate in %q", got)
		}
		if strings.Contains(got, "approximate") {
			t.Errorf("expected no degradation marker in %q", got)
		}
	})
	t.Run("degraded place carries a marker", func(t *testing.T) {
		p := testPresenter(t)
		resolved := place.ResolvedPlace{
			DisplayName: "52.5170, 13.3888",
			Coordinate:  geo.Coordinate{Lat: 52.5170, Lon: 13.3888},
			Degraded:    true,
		}
		if got := p.Place(resolved); !strings.Contains(got, "approximate") {
			t.Errorf("expected a degradation marker in %q", got)
		}
	})
}

func TestPresenter_Candidates(t *testing.T) {
	t.Run("empty list renders a notice", func(t *testing.T) {
		p := testPresenter(t)
		if got := p.Candidates(nil); got != "no places found" {
			t.Errorf("unexpected empty-list output: %q", got)
		}
	})
	t.Run("candidates are numbered and annotated with distance", func(t *testing.T) {
		p := testPresenter(t)
		candidates := []place.Candidate{
			{DisplayName: "Springfield, Illinois", DistanceKm: km(0.4)},
			{DisplayName: "Springfield, Massachusetts", DistanceKm: km(12.5)},
		}
		got := p.Candidates(candidates)
		lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
		}
		if !strings.HasPrefix(lines[0], " 1. ") {
			t.Errorf("expected a numbered first line, got %q", lines[0])
		}
		if !strings.Contains(lines[0], "400 m") {
			t.Errorf("expected a sub-kilometer distance in meters, got %q", lines[0])
		}
		if !strings.Contains(lines[1], "12.5 km") {
			t.Errorf("expected a kilometer distance, got %q", lines[1])
		}
	})
	t.Run("candidates without distance render plain", func(t *testing.T) {
		p := testPresenter(t)
		got := p.Candidates([]place.Candidate{{DisplayName: "Springfield"}})
		if strings.Contains(got, "km") || strings.Contains(got, " m") {
			t.Errorf("expected no distance annotation, got %q", got)
		}
	})
}

func TestPresenter_SearchHits(t *testing.T) {
	t.Run("empty results render a notice", func(t *testing.T) {
		p := testPresenter(t)
		got := p.SearchHits(backend.SearchResults{})
		if got != "no matching tool photos found" {
			t.Errorf("unexpected empty-results output: %q", got)
		}
	})
	t.Run("hits list tags, location and capture time", func(t *testing.T) {
		p := testPresenter(t)
		results := backend.SearchResults{
			Results: []backend.SavedImage{{
				Tags:      []string{"hammer", "claw hammer"},
				Latitude:  52.5170,
				Longitude: 13.3888,
				CreatedAt: time.Now().Add(-2 * time.Hour),
			}},
			Total: 1,
		}
		got := p.SearchHits(results)
		if !strings.Contains(got, "hammer, claw hammer") {
			t.Errorf("expected the tag list in %q", got)
		}
		if !strings.Contains(got, "52.5170, 13.3888") {
			t.Errorf("expected the capture coordinate in %q", got)
		}
		if !strings.Contains(got, "ago") {
			t.Errorf("expected a relative capture time in %q", got)
		}
	})
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		name string
		km   float64
		want string
	}{
		{"meters below one kilometer", 0.25, "250 m"},
		{"exactly one kilometer", 1, "1.0 km"},
		{"kilometers", 3.75, "3.8 km"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatDistance(tt.km); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
