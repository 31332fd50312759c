package models

type WeatherCondition string

const (
	WeatherClear  WeatherCondition = "clear"
	WeatherCloudy WeatherCondition = "cloudy"
	WeatherRain   WeatherCondition = "rain"
	WeatherStorm  WeatherCondition = "storm"
)

// WeatherReport is the dashboard's view of current conditions. Estimated is
// set when the upstream fetch failed and a fallback estimate is served.
type WeatherReport struct {
	Temperature   int              `json:"temperature"`
	WindSpeed     int              `json:"wind_speed"`
	WindDirection string           `json:"wind_direction"`
	Humidity      int              `json:"humidity"`
	Precipitation float64          `json:"precipitation"`
	Condition     WeatherCondition `json:"condition"`
	Estimated     bool             `json:"estimated,omitempty"`
}
