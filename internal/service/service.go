// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package service wires the positioning controller, place resolver and
// backend client together and drives the periodic background jobs.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"golang.org/x/text/language"

	"github.com/toolatlas/toolatlas/internal/assist"
	"github.com/toolatlas/toolatlas/internal/backend"
	"github.com/toolatlas/toolatlas/internal/config"
	"github.com/toolatlas/toolatlas/internal/geo"
	"github.com/toolatlas/toolatlas/internal/http"
	"github.com/toolatlas/toolatlas/internal/logger"
	"github.com/toolatlas/toolatlas/internal/place"
	"github.com/toolatlas/toolatlas/internal/place/provider/nominatim"
	"github.com/toolatlas/toolatlas/internal/position"
	"github.com/toolatlas/toolatlas/internal/position/provider/beacondb"
	"github.com/toolatlas/toolatlas/internal/position/provider/gpsdfix"
)

const acquireTimeout = 45 * time.Second

type Service struct {
	config     *config.Config
	logger     *logger.Logger
	backend    *backend.Client
	cache      *place.CachedGeocoder
	controller *position.Controller
	resolver   *place.Resolver
	scheduler  gocron.Scheduler
}

func New(conf *config.Config, log *logger.Logger) (*Service, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	httpClient := http.New(log)
	cache := place.NewCachedGeocoder(nominatim.New(httpClient, language.Make(conf.Locale)),
		conf.Geocode.CacheHitTTL, conf.Geocode.CacheMissTTL)
	resolver := place.NewResolver(cache, log)

	provider, err := buildProvider(conf, httpClient)
	if err != nil {
		return nil, err
	}

	service := &Service{
		config:     conf,
		logger:     log,
		backend:    backend.New(conf.Backend.URL, httpClient),
		cache:      cache,
		controller: position.NewController(provider, resolver, log, position.DeviceClass(conf.DeviceClass)),
		resolver:   resolver,
		scheduler:  scheduler,
	}
	return service, nil
}

// buildProvider assembles the positioning provider chain from the configuration. GPSD
// is preferred when enabled since a hardware fix carries a real accuracy estimate.
func buildProvider(conf *config.Config, httpClient *http.Client) (position.Provider, error) {
	var providers []position.Provider

	if !conf.Position.DisableGPSD {
		providers = append(providers, gpsdfix.New(conf.Position.GPSDHost, conf.Position.GPSDPort))
	}
	if !conf.Position.DisableBeaconDB {
		wifiProvider, err := beacondb.New(httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create beacondb provider: %w", err)
		}
		providers = append(providers, wifiProvider)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("all positioning providers are disabled")
	}
	return position.Chain(providers...), nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.createScheduledJob(ctx, s.config.Intervals.LocationRefresh, s.refreshLocation,
		"location_refresh_job"); err != nil {
		return err
	}
	if err := s.createScheduledJob(ctx, s.config.Intervals.CacheSweep, s.sweepCache,
		"geocode_cache_sweep_job"); err != nil {
		return err
	}
	s.scheduler.Start()

	go s.monitorSleepResume(ctx)

	// Initial acquisition so the first capture does not start cold.
	s.refreshLocation(ctx)

	<-ctx.Done()
	return s.scheduler.Shutdown()
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// refreshLocation runs a full acquisition cycle. Superseded attempts are expected
// when a manual override or a concurrent refresh wins the race and are not errors.
func (s *Service) refreshLocation(ctx context.Context) {
	s.refresh(ctx, false)
}

func (s *Service) refresh(ctx context.Context, forceFresh bool) {
	acquireCtx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()

	fix, err := s.controller.Acquire(acquireCtx, forceFresh)
	if err != nil {
		if errors.Is(err, position.ErrSuperseded) {
			s.logger.Debug("location acquisition superseded by a newer request")
			return
		}
		s.logger.Error("failed to acquire position", logger.Err(err))
		return
	}
	s.logger.Debug("position acquired", slog.String("source", fix.Source),
		slog.Float64("lat", fix.Coordinate.Lat), slog.Float64("lon", fix.Coordinate.Lon),
		slog.Float64("accuracy_m", fix.AccuracyMeters))
}

func (s *Service) sweepCache(context.Context) {
	s.cache.Sweep()
	s.logger.Debug("swept expired geocode cache entries")
}

// Locate runs a single acquisition cycle and returns the resulting fix. Used
// by the one-shot CLI modes, the daemon loop goes through refreshLocation.
func (s *Service) Locate(ctx context.Context, forceFresh bool) (position.Fix, error) {
	return s.controller.Acquire(ctx, forceFresh)
}

// ResolvePlace reverse-geocodes a coordinate into a human-readable place.
func (s *Service) ResolvePlace(ctx context.Context, coord geo.Coordinate) (place.ResolvedPlace, error) {
	return s.resolver.Reverse(ctx, coord)
}

// SetManual applies a user-chosen coordinate, bypassing the providers.
func (s *Service) SetManual(coord geo.Coordinate) error {
	return s.controller.SetManual(coord)
}

// State returns a snapshot of the positioning state machine.
func (s *Service) State() position.State {
	return s.controller.State()
}

// CurrentPlace returns the resolved place for the current fix, if any.
func (s *Service) CurrentPlace() (place.ResolvedPlace, bool) {
	return s.controller.Place()
}

// Search runs a forward place search biased around the current fix when one exists.
func (s *Service) Search(ctx context.Context, query string) ([]place.Candidate, error) {
	var bias *geo.Coordinate
	if state := s.controller.State(); state.LastFix != nil {
		c := state.LastFix.Coordinate
		bias = &c
	}
	return s.resolver.Search(ctx, query, bias)
}

// ImageSearch queries the backend image index, falling back to an unfiltered
// coordinate-less query when no fix is available.
func (s *Service) ImageSearch(ctx context.Context, query backend.SearchQuery) (backend.SearchResults, error) {
	if query.Near == nil {
		if state := s.controller.State(); state.LastFix != nil {
			c := state.LastFix.Coordinate
			query.Near = &c
		}
	}
	return s.backend.Search(ctx, query)
}

// Chat forwards a message to the backend assistant and degrades to the local
// keyword responder when the backend is unreachable.
func (s *Service) Chat(ctx context.Context, message string) string {
	answer, err := s.backend.Chat(ctx, message)
	if err != nil {
		s.logger.Warn("backend chat unavailable, using local responder", logger.Err(err))
		return assist.Fallback(message)
	}
	return answer
}
