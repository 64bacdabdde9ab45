// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package backend is a thin client for the toolatlas REST backend, which
// performs the actual AI tool detection, persistence and chat assistance. The
// backend is an opaque collaborator: this client shapes requests and decodes
// responses, nothing more.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/toolatlas/toolatlas/internal/geo"
	"github.com/toolatlas/toolatlas/internal/http"
)

const (
	uploadTimeout = time.Second * 60
	chatTimeout   = time.Second * 30
)

// Client talks to the toolatlas backend API.
type Client struct {
	baseURL string
	http    *http.Client
}

// SavedImage is the backend's record of a captured tool photo.
type SavedImage struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	Tags             []string  `json:"tags"`
	Confidences      []float64 `json:"confidences"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	CreatedAt        time.Time `json:"created_at"`
	FileSize         float64   `json:"file_size"`
	MimeType         string    `json:"mime_type"`
}

// Coordinate returns the capture location of the image.
func (s SavedImage) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: s.Latitude, Lon: s.Longitude}
}

// Detection is the backend's tool recognition result for a single image,
// without persistence.
type Detection struct {
	Tags        []string  `json:"tags"`
	Confidences []float64 `json:"confidences"`
}

// SearchQuery describes a tag and/or location search against the backend.
type SearchQuery struct {
	Query   string
	Near    *geo.Coordinate
	RadiusM float64
	Limit   int
}

// SearchResults is the backend search response.
type SearchResults struct {
	Results []SavedImage `json:"results"`
	Total   int          `json:"total"`
	Query   string       `json:"query"`
}

// HealthStatus reports backend liveness.
type HealthStatus struct {
	Status            string    `json:"status"`
	ModelsLoaded      bool      `json:"models_loaded"`
	DatabaseConnected bool      `json:"database_connected"`
	Timestamp         time.Time `json:"timestamp"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// New returns a backend client for the given base URL.
func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Detect sends an image to the backend for tool recognition only; nothing is
// saved on the backend side.
func (c *Client) Detect(ctx context.Context, image io.Reader, filename string) (Detection, error) {
	var detection Detection

	body, contentType, err := imageForm(image, filename, nil)
	if err != nil {
		return detection, err
	}

	headers := map[string]string{"Content-Type": contentType}
	code, err := c.http.PostWithTimeout(ctx, c.baseURL+"/api/detect", &detection, body, headers, uploadTimeout)
	if err != nil {
		return detection, fmt.Errorf("detect request failed: %w", err)
	}
	if code < 200 || code > 299 {
		return detection, fmt.Errorf("detect rejected by backend: HTTP %d", code)
	}
	return detection, nil
}

// Upload sends a captured image together with its capture coordinate to the
// backend, which runs tool detection and persists the result.
func (c *Client) Upload(ctx context.Context, image io.Reader, filename string, coord geo.Coordinate) (SavedImage, error) {
	var saved SavedImage
	if err := coord.Validate(); err != nil {
		return saved, err
	}

	body, contentType, err := imageForm(image, filename, &coord)
	if err != nil {
		return saved, err
	}

	headers := map[string]string{"Content-Type": contentType}
	code, err := c.http.PostWithTimeout(ctx, c.baseURL+"/api/upload", &saved, body, headers, uploadTimeout)
	if err != nil {
		return saved, fmt.Errorf("upload request failed: %w", err)
	}
	if code < 200 || code > 299 {
		return saved, fmt.Errorf("upload rejected by backend: HTTP %d", code)
	}
	return saved, nil
}

// imageForm builds the multipart body shared by Detect and Upload. A non-nil
// coordinate is added as latitude/longitude form fields.
func imageForm(image io.Reader, filename string, coord *geo.Coordinate) (*bytes.Buffer, string, error) {
	body := bytes.NewBuffer(nil)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart image field: %w", err)
	}
	if _, err = io.Copy(part, image); err != nil {
		return nil, "", fmt.Errorf("failed to buffer image data: %w", err)
	}
	if coord != nil {
		if err = writer.WriteField("latitude", strconv.FormatFloat(coord.Lat, 'f', -1, 64)); err != nil {
			return nil, "", fmt.Errorf("failed to write latitude field: %w", err)
		}
		if err = writer.WriteField("longitude", strconv.FormatFloat(coord.Lon, 'f', -1, 64)); err != nil {
			return nil, "", fmt.Errorf("failed to write longitude field: %w", err)
		}
	}
	if err = writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// Search queries the backend for saved images by tag text and/or proximity to
// a coordinate.
func (c *Client) Search(ctx context.Context, q SearchQuery) (SearchResults, error) {
	var results SearchResults

	query := url.Values{}
	if q.Query != "" {
		query.Set("query", q.Query)
	}
	if q.Near != nil {
		if err := q.Near.Validate(); err != nil {
			return results, err
		}
		query.Set("lat", strconv.FormatFloat(q.Near.Lat, 'f', -1, 64))
		query.Set("lon", strconv.FormatFloat(q.Near.Lon, 'f', -1, 64))
		if q.RadiusM > 0 {
			query.Set("radius_m", strconv.FormatFloat(q.RadiusM, 'f', -1, 64))
		}
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	code, err := c.http.Get(ctx, c.baseURL+"/api/search", &results, query, nil)
	if err != nil {
		return results, fmt.Errorf("search request failed: %w", err)
	}
	if code < 200 || code > 299 {
		return results, fmt.Errorf("search rejected by backend: HTTP %d", code)
	}
	return results, nil
}

// ImageInfo fetches the stored metadata for a single image.
func (c *Client) ImageInfo(ctx context.Context, id string) (SavedImage, error) {
	var info SavedImage
	code, err := c.http.Get(ctx, c.baseURL+"/api/images/"+url.PathEscape(id)+"/info", &info, nil, nil)
	if err != nil {
		return info, fmt.Errorf("image info request failed: %w", err)
	}
	if code < 200 || code > 299 {
		return info, fmt.Errorf("image info rejected by backend: HTTP %d", code)
	}
	return info, nil
}

// ImageURL returns the retrieval URL for the stored image file.
func (c *Client) ImageURL(id string) string {
	return c.baseURL + "/api/images/" + url.PathEscape(id)
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	code, err := c.http.Get(ctx, c.baseURL+"/api/health", &status, nil, nil)
	if err != nil {
		return status, fmt.Errorf("health request failed: %w", err)
	}
	if code < 200 || code > 299 {
		return status, fmt.Errorf("health check rejected by backend: HTTP %d", code)
	}
	return status, nil
}

// Chat sends a message to the backend chat assistant and returns its reply.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	body := bytes.NewBuffer(nil)
	if err := json.NewEncoder(body).Encode(chatRequest{Message: message}); err != nil {
		return "", fmt.Errorf("failed to encode chat message: %w", err)
	}

	var reply chatResponse
	headers := map[string]string{"Content-Type": "application/json"}
	code, err := c.http.PostWithTimeout(ctx, c.baseURL+"/api/chat", &reply, body, headers, chatTimeout)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	if code < 200 || code > 299 {
		return "", fmt.Errorf("chat rejected by backend: HTTP %d", code)
	}
	return reply.Response, nil
}
