// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package presenter renders resolved places, search candidates and backend
// search hits for terminal output.
package presenter

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/vorlif/humanize"
	humde "github.com/vorlif/humanize/locale/de"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"

	"github.com/toolatlas/toolatlas/internal/backend"
	"github.com/toolatlas/toolatlas/internal/place"
)

// Presenter formats domain values for terminal display, localized where
// message catalogs are available.
type Presenter struct {
	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
}

// New returns a Presenter for the given localizer and language.
func New(localizer *spreak.Localizer, tag language.Tag) *Presenter {
	collection := humanize.MustNew(humanize.WithLocale(humde.New()))
	return &Presenter{
		localizer: localizer,
		humanizer: collection.CreateHumanizer(tag),
	}
}

// Place renders a resolved place as a single line.
func (p *Presenter) Place(resolved place.ResolvedPlace) string {
	line := fmt.Sprintf("%s (%s)", resolved.DisplayName, resolved.Coordinate)
	if resolved.Degraded {
		line += " [" + p.localizer.Get("approximate, place lookup unavailable") + "]"
	}
	return line
}

// Candidates renders a ranked candidate list with aligned columns.
func (p *Presenter) Candidates(candidates []place.Candidate) string {
	if len(candidates) == 0 {
		return p.localizer.Get("no places found")
	}

	nameWidth := 0
	for _, cand := range candidates {
		if w := runewidth.StringWidth(cand.DisplayName); w > nameWidth {
			nameWidth = w
		}
	}

	builder := strings.Builder{}
	for i, cand := range candidates {
		builder.WriteString(fmt.Sprintf("%2d. %s", i+1, runewidth.FillRight(cand.DisplayName, nameWidth)))
		if cand.DistanceKm != nil {
			builder.WriteString(fmt.Sprintf("  %s", formatDistance(*cand.DistanceKm)))
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// SearchHits renders backend image search results with relative capture times.
func (p *Presenter) SearchHits(results backend.SearchResults) string {
	if len(results.Results) == 0 {
		return p.localizer.Get("no matching tool photos found")
	}

	builder := strings.Builder{}
	for _, hit := range results.Results {
		builder.WriteString(fmt.Sprintf("- %s (%s, %s)\n",
			strings.Join(hit.Tags, ", "),
			hit.Coordinate(),
			p.humanizer.NaturalTime(hit.CreatedAt)))
	}
	return builder.String()
}

func formatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%.0f m", km*1000)
	}
	return fmt.Sprintf("%.1f km", km)
}
