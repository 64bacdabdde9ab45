// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package gpsdfix provides a position.Provider backed by a local gpsd daemon.
package gpsdfix

import (
	"context"
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/toolatlas/toolatlas/internal/geo"
	"github.com/toolatlas/toolatlas/internal/position"
)

const (
	DefaultHost = "localhost"
	DefaultPort = "2947"

	name = "gpsd"

	fallbackAccuracy3DFix = 10  // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25  // worse than 3D, but still accurate enough
	fallbackAccuracyNoFix = 1e6 // effectively unusable
)

// Provider produces single position fixes from gpsd. The most recent fix is
// kept so that requests with a non-zero MaxAge can be served without touching
// the daemon again.
type Provider struct {
	addr string

	mu   sync.Mutex
	last *position.Fix
}

// New constructs a Provider for the gpsd daemon at the given host and port.
func New(host, port string) *Provider {
	return &Provider{
		addr: net.JoinHostPort(host, port),
	}
}

func (p *Provider) Name() string {
	return name
}

// Locate connects to gpsd and waits for the first TPV report with at least a
// 2D fix. A cached fix no older than opts.MaxAge is returned without a daemon
// round trip.
func (p *Provider) Locate(ctx context.Context, opts position.LocateOptions) (position.Fix, error) {
	var zero position.Fix

	if cached, ok := p.cached(opts.MaxAge); ok {
		return cached, nil
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	session, err := gpsd.Dial(p.addr)
	if err != nil {
		return zero, fmt.Errorf("%w: failed to connect to gpsd at %q: %s",
			position.ErrPositionUnavailable, p.addr, err)
	}

	fixes := make(chan position.Fix, 1)
	session.AddFilter("TPV", func(r interface{}) {
		tpv, ok := r.(*gpsd.TPVReport)
		if !ok {
			return
		}
		// Need at least a 2D fix
		if tpv.Mode < gpsd.Mode2D {
			return
		}
		fix := position.Fix{
			Coordinate:     geo.Coordinate{Lat: tpv.Lat, Lon: tpv.Lon},
			AccuracyMeters: horizontalAccuracyMeters(tpv),
			Source:         name,
			At:             time.Now(),
		}
		select {
		case fixes <- fix:
		default:
		}
	})

	// Watch() returns a channel that closes when the watch ends (e.g. the
	// connection was lost). The process exiting tears down the gpsd
	// connection; go-gpsd itself has no Close().
	done := session.Watch()

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return zero, fmt.Errorf("%w: no fix from gpsd within %s",
				position.ErrAcquisitionTimeout, opts.Timeout)
		}
		return zero, ctx.Err()
	case <-done:
		return zero, fmt.Errorf("%w: gpsd connection ended before a fix was received",
			position.ErrPositionUnavailable)
	case fix := <-fixes:
		p.mu.Lock()
		p.last = &fix
		p.mu.Unlock()
		return fix, nil
	}
}

func (p *Provider) cached(maxAge time.Duration) (position.Fix, bool) {
	if maxAge <= 0 {
		return position.Fix{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil || time.Since(p.last.At) > maxAge {
		return position.Fix{}, false
	}
	return *p.last, true
}

func horizontalAccuracyMeters(tpv *gpsd.TPVReport) float64 {
	if tpv.Epx > 0 && tpv.Epy > 0 {
		// sqrt(epx² + epy²)
		return math.Hypot(tpv.Epx, tpv.Epy)
	}
	switch tpv.Mode {
	case gpsd.Mode3D:
		return fallbackAccuracy3DFix
	case gpsd.Mode2D:
		return fallbackAccuracy2DFix
	default:
		return fallbackAccuracyNoFix
	}
}
