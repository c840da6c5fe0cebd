package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/contourhq/contour/internal/coord"
)

// Peak is a named summit from OpenStreetMap.
type Peak struct {
	Name      string   `json:"name"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Elevation *float64 `json:"elevation"`
}

const maxPeaks = 20

// Peaks lists named mountain peaks inside the bounding box via the
// Overpass API, highest first, capped at 20. Unnamed peaks are skipped.
func (c *Client) Peaks(ctx context.Context, b coord.Bounds) ([]Peak, error) {
	query := fmt.Sprintf(`[out:json][timeout:25];
(
  node["natural"="peak"](%f,%f,%f,%f);
);
out body;`, b.South, b.West, b.North, b.East)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.overpassURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass: unexpected status %d", resp.StatusCode)
	}

	var raw struct {
		Elements []struct {
			Lat  float64           `json:"lat"`
			Lon  float64           `json:"lon"`
			Tags map[string]string `json:"tags"`
		} `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("overpass: %w", err)
	}

	peaks := make([]Peak, 0, len(raw.Elements))
	for _, el := range raw.Elements {
		name := el.Tags["name:en"]
		if name == "" {
			name = el.Tags["name"]
		}
		if name == "" {
			continue
		}
		var elevation *float64
		if ele := el.Tags["ele"]; ele != "" {
			if v, err := strconv.ParseFloat(ele, 64); err == nil {
				elevation = &v
			}
		}
		peaks = append(peaks, Peak{Name: name, Lat: el.Lat, Lon: el.Lon, Elevation: elevation})
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		ei, ej := 0.0, 0.0
		if peaks[i].Elevation != nil {
			ei = *peaks[i].Elevation
		}
		if peaks[j].Elevation != nil {
			ej = *peaks[j].Elevation
		}
		return ei > ej
	})
	if len(peaks) > maxPeaks {
		peaks = peaks[:maxPeaks]
	}
	return peaks, nil
}
