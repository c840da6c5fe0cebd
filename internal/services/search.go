package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Location is one geocoding hit.
type Location struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Type       string  `json:"type"`
	Importance float64 `json:"importance"`
}

// Search geocodes a free-text query via Nominatim. Results come back in
// Nominatim's relevance order, at most 8 of them.
func (c *Client) Search(ctx context.Context, query string) ([]Location, error) {
	u := fmt.Sprintf("%s/search?%s", c.nominatimURL, url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"8"},
		"addressdetails": {"1"},
	}.Encode())

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}

	// Nominatim serializes lat/lon as strings.
	var raw []struct {
		DisplayName string  `json:"display_name"`
		Lat         string  `json:"lat"`
		Lon         string  `json:"lon"`
		Type        string  `json:"type"`
		Importance  float64 `json:"importance"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}

	locs := make([]Location, 0, len(raw))
	for _, r := range raw {
		lat, _ := strconv.ParseFloat(r.Lat, 64)
		lon, _ := strconv.ParseFloat(r.Lon, 64)
		locs = append(locs, Location{
			Name:       r.DisplayName,
			Lat:        lat,
			Lon:        lon,
			Type:       r.Type,
			Importance: r.Importance,
		})
	}
	return locs, nil
}

// FamousPlaces returns the built-in quick-selection list.
func FamousPlaces() []FamousPlace {
	return famousPlaces
}

// FamousPlace is a curated destination with a suggested zoom level.
type FamousPlace struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Zoom int     `json:"zoom"`
}

var famousPlaces = []FamousPlace{
	{"Mount Everest", 27.9881, 86.9250, 12},
	{"Grand Canyon", 36.0544, -112.1401, 11},
	{"Swiss Alps - Matterhorn", 45.9763, 7.6586, 12},
	{"Himalayan Range", 28.0025, 86.8528, 10},
	{"Mount Fuji", 35.3606, 138.7274, 12},
	{"Yosemite Valley", 37.7456, -119.5936, 12},
	{"Norwegian Fjords", 61.2176, 6.8359, 11},
	{"Machu Picchu", -13.1631, -72.5450, 13},
	{"Table Mountain, Cape Town", -33.9628, 18.4098, 13},
	{"Zhangjiajie, China", 29.3249, 110.4343, 12},
	{"Dolomites, Italy", 46.4102, 11.8440, 11},
	{"Iceland Highlands", 64.1466, -21.9426, 10},
	{"Kilimanjaro", -3.0674, 37.3556, 11},
	{"Patagonia", -50.9423, -73.4068, 11},
	{"Death Valley", 36.5054, -117.0794, 11},
}
