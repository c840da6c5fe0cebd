// Package services wraps the free geo-data APIs the explorer leans on:
// Nominatim geocoding, Open-Meteo weather, Overpass peak lookup, and the
// ESRI World Imagery tile service. All requests carry an identifying
// User-Agent as the upstream usage policies require.
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "ContourTerrainExplorer/1.0"

// Client holds the shared HTTP plumbing for all upstream calls.
type Client struct {
	http *http.Client

	nominatimURL string
	meteoURL     string
	overpassURL  string
	tileURL      string
}

// Option overrides a Client default, mainly for tests.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURLs points the client at alternate endpoints.
func WithBaseURLs(nominatim, meteo, overpass, tile string) Option {
	return func(c *Client) {
		if nominatim != "" {
			c.nominatimURL = nominatim
		}
		if meteo != "" {
			c.meteoURL = meteo
		}
		if overpass != "" {
			c.overpassURL = overpass
		}
		if tile != "" {
			c.tileURL = tile
		}
	}
}

// NewClient builds a Client with production endpoints.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:         &http.Client{Timeout: 30 * time.Second},
		nominatimURL: "https://nominatim.openstreetmap.org",
		meteoURL:     "https://api.open-meteo.com",
		overpassURL:  "https://overpass-api.de/api/interpreter",
		tileURL:      "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues a GET with the shared User-Agent and returns the body for a
// 2xx response.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
