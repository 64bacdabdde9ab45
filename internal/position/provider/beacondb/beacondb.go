// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package beacondb provides a position.Provider that locates the device via
// the beacondb.net geolocate API, using nearby WiFi access points when a
// high-accuracy fix is requested.
package beacondb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/toolatlas/toolatlas/internal/geo"
	"github.com/toolatlas/toolatlas/internal/http"
	"github.com/toolatlas/toolatlas/internal/position"
)

const (
	apiEndpoint = "https://api.beacondb.net/v1/geolocate"
	name        = "beacondb"
)

// Provider locates the device through the beacondb geolocate service.
type Provider struct {
	http *http.Client
	wlan *wifi.Client

	mu   sync.Mutex
	last *position.Fix
}

// APIResult is the geolocate response payload.
type APIResult struct {
	Location struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

// WirelessNetwork describes one visible access point in the geolocate request.
type WirelessNetwork struct {
	LastSeen       int64  `json:"age"`
	MACAddress     string `json:"macAddress"`
	SignalStrength int32  `json:"signalStrength"`
}

// New returns a beacondb Provider. The WiFi client is optional: when the
// netlink interface is unavailable the provider falls back to IP-only lookups.
func New(httpClient *http.Client) (*Provider, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	provider := &Provider{http: httpClient}
	if wlan, err := wifi.New(); err == nil {
		provider.wlan = wlan
	}
	return provider, nil
}

func (p *Provider) Name() string {
	return name
}

// Locate asks the geolocate service for the device position. High-accuracy
// requests include a WiFi access point scan, otherwise the lookup considers
// the client IP only.
func (p *Provider) Locate(ctx context.Context, opts position.LocateOptions) (position.Fix, error) {
	var zero position.Fix

	if cached, ok := p.cached(opts.MaxAge); ok {
		return cached, nil
	}

	type request struct {
		ConsiderIP   bool              `json:"considerIp"`
		Accesspoints []WirelessNetwork `json:"wifiAccessPoints,omitempty"`
	}
	req := request{ConsiderIP: true}
	if opts.HighAccuracy && p.wlan != nil {
		if aps, err := p.wifiAccessPoints(); err == nil {
			req.Accesspoints = aps
		}
	}

	bodyBuffer := bytes.NewBuffer(nil)
	if err := json.NewEncoder(bodyBuffer).Encode(req); err != nil {
		return zero, fmt.Errorf("failed to encode wifi list to JSON: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = http.DefaultTimeout
	}

	result := new(APIResult)
	headers := map[string]string{"Content-Type": "application/json"}
	code, err := p.http.PostWithTimeout(ctx, apiEndpoint, result, bodyBuffer, headers, timeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w: no geolocate response within %s",
				position.ErrAcquisitionTimeout, timeout)
		}
		return zero, fmt.Errorf("%w: geolocate request failed: %s",
			position.ErrPositionUnavailable, err)
	}
	switch {
	case code == 403:
		return zero, fmt.Errorf("%w: geolocate service returned HTTP %d",
			position.ErrPermissionDenied, code)
	case code < 200 || code > 299:
		return zero, fmt.Errorf("%w: geolocate service returned HTTP %d",
			position.ErrPositionUnavailable, code)
	}

	coord := geo.Coordinate{Lat: result.Location.Latitude, Lon: result.Location.Longitude}
	if !coord.Valid() || result.Accuracy == 0 {
		return zero, fmt.Errorf("%w: geolocate service returned no usable position",
			position.ErrPositionUnavailable)
	}

	fix := position.Fix{
		Coordinate:     coord,
		AccuracyMeters: result.Accuracy,
		Source:         name,
		At:             time.Now(),
	}
	p.mu.Lock()
	p.last = &fix
	p.mu.Unlock()
	return fix, nil
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

func (p *Provider) wifiAccessPoints() ([]WirelessNetwork, error) {
	var checkIfaces []*wifi.Interface
	var list []WirelessNetwork

	ifaces, err := p.wlan.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if iface.Type != wifi.InterfaceTypeStation {
			continue
		}
		checkIfaces = append(checkIfaces, iface)
	}
	if len(checkIfaces) == 0 {
		return nil, nil
	}

	for _, iface := range checkIfaces {
		aps, err := p.wlan.AccessPoints(iface)
		if err != nil {
			continue
		}
		for _, ap := range aps {
			if ap.SSID == "" || ap.SSID[0] == '\x00' || strings.HasSuffix(ap.SSID, "_nomap") {
				continue
			}
			list = append(list, WirelessNetwork{
				SignalStrength: ap.Signal / 100,
				MACAddress:     ap.BSSID.String(),
				LastSeen:       ap.LastSeen.Milliseconds(),
			})
		}
	}

	return list, nil
}
