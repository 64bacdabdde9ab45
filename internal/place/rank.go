// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

package place

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// distanceTieZoneKm is the distance delta inside which two candidates are
// considered equally close and ranked by relevance instead.
const distanceTieZoneKm = 1.0

// relevance blends provider importance, textual match quality, proximity and
// place type into a single score.
func relevance(query string, cand Candidate) float64 {
	score := cand.Importance * 10

	display := strings.ToLower(cand.DisplayName)
	q := strings.ToLower(query)
	if strings.Contains(display, q) {
		score += 50
	}
	for _, word := range queryWords(q) {
		if strings.Contains(display, word) {
			score += 10
		}
	}

	if cand.DistanceKm != nil {
		switch d := *cand.DistanceKm; {
		case d < 1:
			score += 30
		case d < 5:
			score += 20
		case d < 20:
			score += 10
		default:
			score += 5
		}
	}

	score += typeBonus(cand.PlaceType)
	return score
}

// typeBonus favors precise address-level hits over administrative areas.
func typeBonus(placeType string) float64 {
	switch placeType {
	case "house", "building":
		return 15
	case "street", "road":
		return 12
	case "city", "town", "village":
		return 8
	case "state":
		return 5
	default:
		return 0
	}
}

// queryWords splits a query into individual words, dropping punctuation.
func queryWords(query string) []string {
	return strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// sortCandidates orders candidates best-first. When both candidates have a
// known distance and lie within the tie zone of each other, the higher
// relevance wins; outside the tie zone the closer candidate wins. Candidates
// without distance information are ordered by descending relevance.
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.DistanceKm != nil && b.DistanceKm != nil {
			if math.Abs(*a.DistanceKm-*b.DistanceKm) <= distanceTieZoneKm {
				return a.Relevance > b.Relevance
			}
			return *a.DistanceKm < *b.DistanceKm
		}
		return a.Relevance > b.Relevance
	})
}
