// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

package place

import (
	"testing"
)

func km(v float64) *float64 {
	return &v
}

func TestRelevance(t *testing.T) {
	t.Run("verbatim match scores higher than a partial match", func(t *testing.T) {
		full := Candidate{DisplayName: "123 Main St, Springfield, Illinois, United States"}
		partial := Candidate{DisplayName: "Main Square, Shelbyville, Illinois, United States"}
		query := "123 Main St, Springfield"

		if relevance(query, full) <= relevance(query, partial) {
			t.Errorf("expected the verbatim match to outrank the partial match: %f <= %f",
				relevance(query, full), relevance(query, partial))
		}
	})
	t.Run("each matching query word adds to the score", func(t *testing.T) {
		oneWord := Candidate{DisplayName: "Main Square, Shelbyville"}
		twoWords := Candidate{DisplayName: "Main Street, Springfield"}

		if relevance("main springfield", twoWords) <= relevance("main springfield", oneWord) {
			t.Error("expected two matching words to outrank one")
		}
	})
	t.Run("match is case insensitive", func(t *testing.T) {
		cand := Candidate{DisplayName: "Friedrichstraße, Berlin"}
		if relevance("BERLIN", cand) != relevance("berlin", cand) {
			t.Error("expected case-insensitive scoring")
		}
	})
	t.Run("closer candidates receive a larger distance bonus", func(t *testing.T) {
		tests := []struct {
			name     string
			distance float64
			bonus    float64
		}{
			{"under one kilometer", 0.5, 30},
			{"under five kilometers", 3, 20},
			{"under twenty kilometers", 12, 10},
			{"far away", 100, 5},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				with := Candidate{DisplayName: "x", DistanceKm: km(tt.distance)}
				without := Candidate{DisplayName: "x"}
				if got := relevance("q", with) - relevance("q", without); got != tt.bonus {
					t.Errorf("expected distance bonus %f, got %f", tt.bonus, got)
				}
			})
		}
	})
	t.Run("provider importance scales into the score", func(t *testing.T) {
		low := Candidate{DisplayName: "x", Importance: 0.1}
		high := Candidate{DisplayName: "x", Importance: 0.9}
		if got := relevance("q", high) - relevance("q", low); got != 8 {
			t.Errorf("expected an importance delta of 8, got %f", got)
		}
	})
}

func TestTypeBonus(t *testing.T) {
	tests := []struct {
		placeType string
		want      float64
	}{
		{"house", 15},
		{"building", 15},
		{"street", 12},
		{"road", 12},
		{"city", 8},
		{"town", 8},
		{"village", 8},
		{"state", 5},
		{"administrative", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run("type "+tt.placeType, func(t *testing.T) {
			if got := typeBonus(tt.placeType); got != tt.want {
				t.Errorf("expected bonus %f for %q, got %f", tt.want, tt.placeType, got)
			}
		})
	}
}

func TestSortCandidates(t *testing.T) {
	t.Run("inside the tie zone relevance wins", func(t *testing.T) {
		candidates := []Candidate{
			{DisplayName: "near but weak", DistanceKm: km(0.5), Relevance: 40},
			{DisplayName: "slightly farther but strong", DistanceKm: km(0.9), Relevance: 90},
		}
		sortCandidates(candidates)
		if candidates[0].DisplayName != "slightly farther but strong" {
			t.Errorf("expected relevance to win inside the tie zone, got %q first", candidates[0].DisplayName)
		}
	})
	t.Run("outside the tie zone distance wins", func(t *testing.T) {
		candidates := []Candidate{
			{DisplayName: "far but famous", DistanceKm: km(30), Relevance: 95},
			{DisplayName: "close but obscure", DistanceKm: km(2), Relevance: 20},
		}
		sortCandidates(candidates)
		if candidates[0].DisplayName != "close but obscure" {
			t.Errorf("expected distance to win outside the tie zone, got %q first", candidates[0].DisplayName)
		}
	})
	t.Run("without distances relevance orders the list", func(t *testing.T) {
		candidates := []Candidate{
			{DisplayName: "weak", Relevance: 10},
			{DisplayName: "strong", Relevance: 80},
			{DisplayName: "middling", Relevance: 40},
		}
		sortCandidates(candidates)
		want := []string{"strong", "middling", "weak"}
		for i, name := range want {
			if candidates[i].DisplayName != name {
				t.Errorf("expected %q at position %d, got %q", name, i, candidates[i].DisplayName)
			}
		}
	})
	t.Run("sort is stable for equal candidates", func(t *testing.T) {
		candidates := []Candidate{
			{DisplayName: "first", Relevance: 50},
			{DisplayName: "second", Relevance: 50},
		}
		sortCandidates(candidates)
		if candidates[0].DisplayName != "first" {
			t.Error("expected equal candidates to keep their order")
		}
	})
}

func TestQueryWords(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"simple words", "main street", 2},
		{"punctuation is dropped", "123 Main St, Springfield", 4},
		{"empty query", "", 0},
		{"only punctuation", ",.!", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := queryWords(tt.query); len(got) != tt.want {
				t.Errorf("expected %d words, got %d (%v)", tt.want, len(got), got)
			}
		})
	}
}
