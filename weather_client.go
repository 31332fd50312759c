package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"montana-id-verifier/models"
)

// WeatherClient fetches current conditions for the dashboard header.
type WeatherClient interface {
	Current() (*models.WeatherReport, error)
}

var compassDirections = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// OpenMeteoClient implements WeatherClient against the Open-Meteo forecast API.
type OpenMeteoClient struct {
	baseURL    string
	latitude   float64
	longitude  float64
	httpClient *http.Client
}

func NewOpenMeteoClient(baseURL string, latitude, longitude float64) *OpenMeteoClient {
	return &OpenMeteoClient{
		baseURL:   baseURL,
		latitude:  latitude,
		longitude: longitude,
		httpClient: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

// Current fetches the current conditions and maps the WMO weather code to a
// dashboard condition.
func (c *OpenMeteoClient) Current() (*models.WeatherReport, error) {
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%v", c.latitude))
	query.Set("longitude", fmt.Sprintf("%v", c.longitude))
	query.Set("current", "temperature_2m,relative_humidity_2m,precipitation,weather_code,wind_speed_10m,wind_direction_10m")
	reqURL := fmt.Sprintf("%s/v1/forecast?%s", c.baseURL, query.Encode())

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Current struct {
			Temperature   float64 `json:"temperature_2m"`
			Humidity      float64 `json:"relative_humidity_2m"`
			Precipitation float64 `json:"precipitation"`
			WeatherCode   int     `json:"weather_code"`
			WindSpeed     float64 `json:"wind_speed_10m"`
			WindDirection float64 `json:"wind_direction_10m"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	cur := payload.Current
	report := &models.WeatherReport{
		Temperature:   int(math.Round(cur.Temperature)),
		WindSpeed:     int(math.Round(cur.WindSpeed)),
		WindDirection: CompassDirection(cur.WindDirection),
		Humidity:      int(math.Round(cur.Humidity)),
		Precipitation: cur.Precipitation,
		Condition:     ConditionForWMOCode(cur.WeatherCode),
	}

	slog.Debug("Weather fetched", "temp", report.Temperature, "condition", report.Condition)
	return report, nil
}

// CompassDirection maps a bearing in degrees to an 8-point compass label.
func CompassDirection(degrees float64) string {
	idx := int(math.Round(degrees/45)) % 8
	if idx < 0 {
		idx += 8
	}
	return compassDirections[idx]
}

// ConditionForWMOCode buckets a WMO weather code into the dashboard
// conditions. Unknown codes read as cloudy.
func ConditionForWMOCode(code int) models.WeatherCondition {
	switch code {
	case 0, 1:
		return models.WeatherClear
	case 2, 3, 45, 48:
		return models.WeatherCloudy
	case 51, 53, 55, 56, 57, 61, 63, 65, 66, 67, 80, 81, 82:
		return models.WeatherRain
	case 95, 96, 99:
		return models.WeatherStorm
	default:
		return models.WeatherCloudy
	}
}

// FallbackWeatherReport is served when the upstream fetch fails, so the
// dashboard never renders an empty header.
func FallbackWeatherReport() *models.WeatherReport {
	return &models.WeatherReport{
		Temperature:   28,
		WindSpeed:     12,
		WindDirection: "NW",
		Humidity:      75,
		Precipitation: 0,
		Condition:     models.WeatherCloudy,
		Estimated:     true,
	}
}
