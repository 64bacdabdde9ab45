// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

package position

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/toolatlas/toolatlas/internal/geo"
	"github.com/toolatlas/toolatlas/internal/logger"
	"github.com/toolatlas/toolatlas/internal/place"
)

// DeviceClass selects the platform-appropriate acquisition timeouts. GPS
// cold-start on mobile devices is slower, so they get a longer leash.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceDesktop DeviceClass = "desktop"
)

const (
	mobileTimeout  = 30 * time.Second
	desktopTimeout = 20 * time.Second

	mobileRetryDelay  = 3 * time.Second
	desktopRetryDelay = 2 * time.Second

	// maxRetries bounds the number of supplementary attempts after a timeout.
	maxRetries = 2

	// accuracyThresholdMeters is the accuracy above which a supplementary
	// high-accuracy reading is requested.
	accuracyThresholdMeters = 100.0

	// retryMaxAge allows the provider to serve a cached position on retry
	// attempts. The first attempt always requests a fresh fix.
	retryMaxAge = time.Minute

	placeResolveTimeout = 15 * time.Second
)

// PlaceResolver names a coordinate. Reverse only fails on an invalid
// coordinate; provider failures degrade to a formatted-coordinate place.
type PlaceResolver interface {
	Reverse(ctx context.Context, coord geo.Coordinate) (place.ResolvedPlace, error)
}

// Controller owns the acquisition state machine. It requests position fixes
// from its Provider, retries timeouts with a linearly increasing delay, refines
// low-accuracy readings and triggers reverse geocoding on every resolved
// coordinate. A second Acquire while one is in flight supersedes the earlier
// call: the stale call's result is discarded and it returns ErrSuperseded.
type Controller struct {
	provider Provider
	resolver PlaceResolver
	logger   *logger.Logger
	device   DeviceClass
	clock    clockwork.Clock

	mu         sync.RWMutex
	state      State
	generation uint64
	place      *place.ResolvedPlace
}

// NewController returns a Controller for the given positioning provider. The
// resolver may be nil, in which case resolved coordinates are not named.
func NewController(provider Provider, resolver PlaceResolver, log *logger.Logger, device DeviceClass) *Controller {
	return &Controller{
		provider: provider,
		resolver: resolver,
		logger:   log,
		device:   device,
		clock:    clockwork.NewRealClock(),
		state:    State{Status: StatusIdle},
	}
}

// State returns a snapshot of the acquisition state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state := c.state
	if c.state.LastFix != nil {
		fix := *c.state.LastFix
		state.LastFix = &fix
	}
	return state
}

// Place returns the reverse-geocoded place for the last resolved fix, if one
// has been stored yet.
func (c *Controller) Place() (place.ResolvedPlace, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.place == nil {
		return place.ResolvedPlace{}, false
	}
	return *c.place, true
}

// Acquire requests the current position with high accuracy enabled. Timeouts
// are retried up to two times with a linearly increasing delay, permission
// denial and position unavailability are surfaced immediately. When the
// provider reports an accuracy worse than 100 meters, one supplementary
// high-accuracy reading is requested and the better of the two is kept; the
// comparison always completes before the result is surfaced.
func (c *Controller) Acquire(ctx context.Context, forceFresh bool) (Fix, error) {
	gen := c.begin()

	opts := LocateOptions{HighAccuracy: true, Timeout: c.timeout()}
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.noteRetry(gen, attempt)
			if !forceFresh {
				opts.MaxAge = retryMaxAge
			}
			if !c.sleep(ctx, time.Duration(attempt)*c.retryDelay()) {
				c.fail(gen, ctx.Err(), PermissionUnknown)
				return Fix{}, ctx.Err()
			}
		}

		fix, err := c.provider.Locate(ctx, opts)
		if err != nil {
			switch {
			case errors.Is(err, ErrPermissionDenied):
				c.fail(gen, err, PermissionDenied)
				return Fix{}, err
			case errors.Is(err, ErrAcquisitionTimeout), errors.Is(err, context.DeadlineExceeded):
				lastErr = err
				c.logger.Debug("position acquisition timed out",
					slog.String("provider", c.provider.Name()), slog.Int("attempt", attempt+1))
				continue
			default:
				if !errors.Is(err, ErrPositionUnavailable) {
					err = fmt.Errorf("%w: %s", ErrPositionUnavailable, err)
				}
				c.fail(gen, err, PermissionUnknown)
				return Fix{}, err
			}
		}

		if fix.HasAccuracy() && fix.AccuracyMeters > accuracyThresholdMeters && attempt < maxRetries {
			c.logger.Debug("accuracy below threshold, requesting supplementary reading",
				slog.Float64("accuracy_m", fix.AccuracyMeters))
			refined, rerr := c.provider.Locate(ctx, LocateOptions{HighAccuracy: true, Timeout: c.timeout()})
			if rerr == nil && refined.BetterThan(fix) {
				fix = refined
			}
		}

		if !c.resolve(gen, fix) {
			return Fix{}, ErrSuperseded
		}
		c.resolvePlace(gen, fix.Coordinate)
		return fix, nil
	}

	if !errors.Is(lastErr, ErrAcquisitionTimeout) {
		lastErr = fmt.Errorf("%w: %s", ErrAcquisitionTimeout, lastErr)
	}
	lastErr = fmt.Errorf("giving up after %d attempts: %w", maxRetries+1, lastErr)
	c.fail(gen, lastErr, PermissionUnknown)
	return Fix{}, lastErr
}

// SetManual overrides the acquired position with a user-supplied coordinate.
// Manual entries carry no accuracy figure. The coordinate is validated and
// reverse geocoding is triggered on success.
func (c *Controller) SetManual(coord geo.Coordinate) error {
	if err := coord.Validate(); err != nil {
		return err
	}

	gen := c.begin()
	fix := Fix{
		Coordinate:     coord,
		AccuracyMeters: NoAccuracy,
		Source:         "manual",
		At:             c.clock.Now(),
	}
	c.resolve(gen, fix)
	c.resolvePlace(gen, coord)
	return nil
}

// begin starts a new acquisition generation. Any older in-flight acquisition
// becomes stale and will discard its result.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.state.Status = StatusAcquiring
	c.state.RetryCount = 0
	c.state.Err = nil
	return c.generation
}

func (c *Controller) noteRetry(gen uint64, attempt int) {
	c.mu.Lock()
	if gen == c.generation {
		c.state.RetryCount = attempt
	}
	c.mu.Unlock()
}

// resolve stores the fix if the acquisition is still current. It reports false
// for stale generations.
func (c *Controller) resolve(gen uint64, fix Fix) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.state.Status = StatusResolved
	c.state.LastFix = &fix
	c.state.RetryCount = 0
	c.state.Err = nil
	if fix.Source != "manual" {
		c.state.Permission = PermissionGranted
	}
	return true
}

func (c *Controller) fail(gen uint64, err error, perm Permission) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.state.Status = StatusFailed
	c.state.Err = err
	if perm != PermissionUnknown {
		c.state.Permission = perm
	}
}

// resolvePlace triggers reverse geocoding for the resolved coordinate in the
// background and stores the result if the acquisition is still current.
func (c *Controller) resolvePlace(gen uint64, coord geo.Coordinate) {
	if c.resolver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), placeResolveTimeout)
		defer cancel()

		resolved, err := c.resolver.Reverse(ctx, coord)
		if err != nil {
			// Cannot happen for a coordinate that passed acquisition, but do
			// not store a zero place if it ever does.
			c.logger.Error("reverse geocoding rejected acquired coordinate", logger.Err(err))
			return
		}
		c.mu.Lock()
		if gen == c.generation {
			c.place = &resolved
		}
		c.mu.Unlock()
	}()
}

func (c *Controller) timeout() time.Duration {
	if c.device == DeviceMobile {
		return mobileTimeout
	}
	return desktopTimeout
}

func (c *Controller) retryDelay() time.Duration {
	if c.device == DeviceMobile {
		return mobileRetryDelay
	}
	return desktopRetryDelay
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.clock.After(d):
		return true
	}
}
