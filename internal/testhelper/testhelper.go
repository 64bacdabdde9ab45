// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package testhelper provides shared helpers for the toolatlas test suites.
package testhelper

import (
	"net/http"
	"os"
	"testing"
)

// TestOnlineAPIURL is an online endpoint used by integration tests that exercise
// the real HTTP stack.
const TestOnlineAPIURL = "https://nominatim.openstreetmap.org/status?format=json"

// MockRoundTripper implements http.RoundTripper with a caller-provided function,
// so unit tests can serve canned responses without a network connection.
type MockRoundTripper struct {
	Fn func(req *http.Request) (*http.Response, error)
}

// RoundTrip satisfies the http.RoundTripper interface.
func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// PerformIntegrationTests skips the calling test unless the TOOLATLAS_INTEGRATION
// environment variable is set. Integration tests hit live external services and
// are opt-in only.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if os.Getenv("TOOLATLAS_INTEGRATION") == "" {
		t.Skip("skipping integration test, set TOOLATLAS_INTEGRATION to run")
	}
}
