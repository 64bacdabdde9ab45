// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/toolatlas/toolatlas/internal/place"
)

const suggestDebounce = 300 * time.Millisecond

// SearchFunc runs a forward place search for the given query.
type SearchFunc func(ctx context.Context, query string) ([]place.Candidate, error)

// Suggester debounces interactive search-as-you-type input so that only the
// last query of a burst reaches the geocoding provider. Results are delivered
// through the callback passed to Query; a delivery is suppressed when a newer
// query has been issued in the meantime.
type Suggester struct {
	search SearchFunc
	clock  clockwork.Clock

	mu    sync.Mutex
	gen   uint64
	timer clockwork.Timer
}

func NewSuggester(search SearchFunc) *Suggester {
	return &Suggester{
		search: search,
		clock:  clockwork.NewRealClock(),
	}
}

// Query schedules a search for the given input. Empty input cancels any
// pending search and delivers an empty result immediately.
func (s *Suggester) Query(ctx context.Context, input string, deliver func([]place.Candidate, error)) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if strings.TrimSpace(input) == "" {
		s.mu.Unlock()
		deliver(nil, nil)
		return
	}

	s.timer = s.clock.AfterFunc(suggestDebounce, func() {
		candidates, err := s.search(ctx, input)
		if !s.current(gen) {
			return
		}
		deliver(candidates, err)
	})
	s.mu.Unlock()
}

// Cancel drops any pending query without delivering a result.
func (s *Suggester) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Suggester) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}
