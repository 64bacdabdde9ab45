// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package position acquires the device position from pluggable positioning
// providers with accuracy-aware retries and manual override support.
package position

import (
	"context"
	"errors"
	"time"

	"github.com/toolatlas/toolatlas/internal/geo"
)

var (
	// ErrPermissionDenied is returned when the positioning backend refuses access.
	// The error is terminal, further acquisition attempts are pointless until the
	// user grants access.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrPositionUnavailable is returned when the positioning backend cannot
	// produce a fix at all. Terminal for the current acquisition.
	ErrPositionUnavailable = errors.New("position unavailable")

	// ErrAcquisitionTimeout is returned when the positioning backend did not
	// produce a fix within the request timeout. Retryable.
	ErrAcquisitionTimeout = errors.New("position acquisition timed out")

	// ErrSuperseded is returned to a caller whose acquisition was replaced by a
	// newer one while it was still in flight. The newer call is the source of
	// truth, the stale result is discarded.
	ErrSuperseded = errors.New("acquisition superseded by a newer request")
)

// NoAccuracy marks a fix without an accuracy figure, such as a manually
// entered coordinate.
const NoAccuracy = -1.0

// Fix represents a single position reading from a provider.
type Fix struct {
	Coordinate     geo.Coordinate
	AccuracyMeters float64
	Source         string
	At             time.Time
}

// HasAccuracy reports whether the fix carries an accuracy figure.
func (f Fix) HasAccuracy() bool {
	return f.AccuracyMeters >= 0
}

// BetterThan compares two fixes by accuracy. A fix without an accuracy figure
// never wins against one that has one.
func (f Fix) BetterThan(other Fix) bool {
	if !f.HasAccuracy() {
		return false
	}
	if !other.HasAccuracy() {
		return true
	}
	return f.AccuracyMeters < other.AccuracyMeters
}

// LocateOptions carries the per-request parameters handed to a Provider,
// mirroring a platform positioning request.
type LocateOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaxAge is the maximum age of a cached position the provider may return.
	// Zero forces a fresh fix.
	MaxAge time.Duration
}

// Provider is a positioning backend that can produce a single position fix.
type Provider interface {
	Name() string
	Locate(ctx context.Context, opts LocateOptions) (Fix, error)
}

// Status describes the acquisition state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusAcquiring
	StatusResolved
	StatusFailed
)

// String returns the human-readable name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAcquiring:
		return "acquiring"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Permission describes the last known positioning permission state.
type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionGranted
	PermissionDenied
	PermissionPrompt
)

// String returns the human-readable name of the permission state.
func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	case PermissionPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// State is a snapshot of the acquisition state machine. It is owned exclusively
// by the Controller and handed out by value to observers.
type State struct {
	Status     Status
	LastFix    *Fix
	RetryCount int
	Permission Permission
	Err        error
}
