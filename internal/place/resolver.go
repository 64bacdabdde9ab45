// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

package place

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/toolatlas/toolatlas/internal/geo"
	"github.com/toolatlas/toolatlas/internal/logger"
)

const (
	// minCallInterval is the pacing delay the geocoding providers require
	// between calls from a single client.
	minCallInterval = 100 * time.Millisecond

	// reverseRetries is the number of supplementary attempts after a failed
	// reverse geocoding call.
	reverseRetries = 2

	// reverseBackoff is the linear backoff unit between reverse attempts.
	reverseBackoff = time.Second

	// MaxCandidates caps the number of search candidates returned to the caller.
	MaxCandidates = 8

	// providerLimit is the result count requested from the provider before
	// ranking trims the list to MaxCandidates.
	providerLimit = 10

	// DegradedConfidence is the confidence of a place built from the formatted
	// coordinate alone.
	DegradedConfidence = 0.1

	structuredConfidence  = 0.9
	displayNameConfidence = 0.7
)

// Resolver performs reverse and forward geocoding against a Geocoder, pacing
// provider calls, retrying reverse failures with linear backoff and ranking
// forward search results.
type Resolver struct {
	coder  Geocoder
	logger *logger.Logger
	clock  clockwork.Clock
	pace   *rate.Limiter
}

// NewResolver returns a Resolver on top of the given geocoding provider.
func NewResolver(coder Geocoder, log *logger.Logger) *Resolver {
	return &Resolver{
		coder:  coder,
		logger: log,
		clock:  clockwork.NewRealClock(),
		pace:   rate.NewLimiter(rate.Every(minCallInterval), 1),
	}
}

// Reverse resolves a coordinate to a named place. The coordinate is validated
// before any network call; an invalid coordinate is the only error this method
// returns. Provider failures are retried up to two more times with linear
// backoff and then degrade to a formatted-coordinate place with confidence
// 0.1, carrying the failure reason for diagnostics.
func (r *Resolver) Reverse(ctx context.Context, coord geo.Coordinate) (ResolvedPlace, error) {
	if err := coord.Validate(); err != nil {
		return ResolvedPlace{}, err
	}

	var lastErr error
	for attempt := 0; attempt <= reverseRetries; attempt++ {
		if attempt > 0 {
			if !r.sleep(ctx, time.Duration(attempt)*reverseBackoff) {
				lastErr = ctx.Err()
				break
			}
		}
		if err := r.pace.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		raw, err := r.coder.Reverse(ctx, coord)
		if err == nil {
			return fromProvider(raw, coord), nil
		}
		lastErr = err
		r.logger.Warn("reverse geocoding attempt failed",
			slog.String("provider", r.coder.Name()),
			slog.Int("attempt", attempt+1), logger.Err(err))
	}

	r.logger.Warn("reverse geocoding degraded to coordinate display",
		slog.String("coordinate", coord.String()), logger.Err(lastErr))
	return degraded(coord, lastErr), nil
}

// Search resolves a free-text query into a ranked candidate list, at most
// MaxCandidates long. When bias is supplied the provider query is constrained
// to a bounding box around it and each candidate is annotated with its
// haversine distance to the bias. One-shot: the call is not restartable and
// candidates must not be retained across calls. Callers are expected to
// debounce their input, recommended at 300ms.
func (r *Resolver) Search(ctx context.Context, query string, bias *geo.Coordinate) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrSearchFailed)
	}
	if bias != nil {
		if err := bias.Validate(); err != nil {
			return nil, err
		}
	}

	var box *geo.BoundingBox
	if bias != nil {
		b := geo.BiasBox(*bias)
		box = &b
	}

	if err := r.pace.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, err)
	}
	places, err := r.coder.Search(ctx, query, box, providerLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, err)
	}

	candidates := make([]Candidate, 0, len(places))
	for _, p := range places {
		cand := Candidate{
			DisplayName: p.DisplayName,
			Coordinate:  p.Coordinate,
			Importance:  p.Importance,
			PlaceType:   p.Type,
			Address:     p.Address,
		}
		if bias != nil {
			d := geo.DistanceKm(*bias, p.Coordinate)
			cand.DistanceKm = &d
		}
		cand.Relevance = relevance(query, cand)
		candidates = append(candidates, cand)
	}

	sortCandidates(candidates)
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	return candidates, nil
}

// fromProvider assembles a ResolvedPlace from a raw provider result. Name
// priority: house number and road, then suburb or neighbourhood, then the
// city level, then state, then country. Absent fields are omitted; when no
// structured fields are present the provider display name is used as-is.
func fromProvider(raw Place, requested geo.Coordinate) ResolvedPlace {
	addr := raw.Address

	var parts []string
	switch {
	case addr.HouseNumber != "" && addr.Road != "":
		parts = append(parts, addr.HouseNumber+" "+addr.Road)
	case addr.Road != "":
		parts = append(parts, addr.Road)
	}
	if addr.Suburb != "" {
		parts = append(parts, addr.Suburb)
	} else if addr.Neighbourhood != "" {
		parts = append(parts, addr.Neighbourhood)
	}
	if locality := addr.Locality(); locality != "" {
		parts = append(parts, locality)
	}
	if addr.State != "" {
		parts = append(parts, addr.State)
	}
	if addr.Country != "" {
		parts = append(parts, addr.Country)
	}

	resolved := ResolvedPlace{
		Coordinate: requested,
		Confidence: structuredConfidence,
	}
	if raw.Coordinate.Valid() && raw.Coordinate != (geo.Coordinate{}) {
		resolved.Coordinate = raw.Coordinate
	}

	if len(parts) > 0 {
		resolved.DisplayName = strings.Join(parts, ", ")
		resolved.ShortName = parts[0]
	} else {
		resolved.DisplayName = raw.DisplayName
		resolved.ShortName = firstSegment(raw.DisplayName)
		resolved.Confidence = displayNameConfidence
	}

	resolved.City = orUnknown(addr.Locality(), UnknownCity)
	resolved.State = orUnknown(addr.State, UnknownState)
	resolved.Country = orUnknown(addr.Country, UnknownCountry)
	return resolved
}

// degraded builds the fallback place from the formatted coordinate alone.
func degraded(coord geo.Coordinate, reason error) ResolvedPlace {
	return ResolvedPlace{
		DisplayName: coord.String(),
		ShortName:   coord.String(),
		City:        UnknownCity,
		State:       UnknownState,
		Country:     UnknownCountry,
		Coordinate:  coord,
		Confidence:  DegradedConfidence,
		Degraded:    true,
		Reason:      reason,
	}
}

func orUnknown(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}

func firstSegment(displayName string) string {
	if idx := strings.Index(displayName, ","); idx != -1 {
		return strings.TrimSpace(displayName[:idx])
	}
	return displayName
}

func (r *Resolver) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-r.clock.After(d):
		return true
	}
}
