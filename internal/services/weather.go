package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Weather is the current conditions at a point.
type Weather struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`
	Condition     string  `json:"condition"`
	Code          int     `json:"code"`
}

// WMO weather interpretation codes, as published by Open-Meteo.
var weatherConditions = map[int]string{
	0: "Clear sky", 1: "Mainly clear", 2: "Partly cloudy", 3: "Overcast",
	45: "Foggy", 48: "Depositing rime fog",
	51: "Light drizzle", 53: "Moderate drizzle", 55: "Dense drizzle",
	61: "Slight rain", 63: "Moderate rain", 65: "Heavy rain",
	71: "Slight snow", 73: "Moderate snow", 75: "Heavy snow",
	77: "Snow grains", 80: "Slight rain showers", 81: "Moderate rain showers",
	82: "Violent rain showers", 85: "Slight snow showers", 86: "Heavy snow showers",
	95: "Thunderstorm", 96: "Thunderstorm with slight hail", 99: "Thunderstorm with heavy hail",
}

// CurrentWeather fetches conditions from Open-Meteo for the given point.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (*Weather, error) {
	u := fmt.Sprintf("%s/v1/forecast?%s", c.meteoURL, url.Values{
		"latitude":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(lon, 'f', -1, 64)},
		"current":   {"temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,wind_direction_10m"},
		"timezone":  {"auto"},
	}.Encode())

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("open-meteo: %w", err)
	}

	var raw struct {
		Current struct {
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			WeatherCode   int     `json:"weather_code"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			WindDirection float64 `json:"wind_direction_10m"`
		} `json:"current"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("open-meteo: %w", err)
	}

	condition, ok := weatherConditions[raw.Current.WeatherCode]
	if !ok {
		condition = "Unknown"
	}
	return &Weather{
		Temperature:   raw.Current.Temperature,
		Humidity:      raw.Current.Humidity,
		WindSpeed:     raw.Current.WindSpeed,
		WindDirection: raw.Current.WindDirection,
		Condition:     condition,
		Code:          raw.Current.WeatherCode,
	}, nil
}
