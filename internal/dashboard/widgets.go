package dashboard

import (
	"math"

	"weather-dashboard/internal/dayphase"
	"weather-dashboard/internal/weather"
)

var aqiLabels = []string{"Good", "Fair", "Moderate", "Poor", "Very Poor"}

var compassPoints = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// AQIBar drives the air-quality seek bar. OpenWeather reports AQI on a 1..5 scale.
type AQIBar struct {
	AQI      int     `json:"aqi"`
	Label    string  `json:"label"`
	Position float64 `json:"position_percent"`
}

// SunArc places the sun along a half circle from sunrise (0deg) to sunset (180deg).
type SunArc struct {
	Sunrise  int64   `json:"sunrise"`
	Sunset   int64   `json:"sunset"`
	Progress float64 `json:"progress"`
	Angle    float64 `json:"angle_deg"`
	Up       bool    `json:"up"`
}

// Metrics carries wind speed in the upstream's units; the unit fields name them.
type Metrics struct {
	Humidity        int     `json:"humidity_percent"`
	Pressure        int     `json:"pressure_hpa"`
	TemperatureUnit string  `json:"temperature_unit"`
	WindSpeed       float64 `json:"wind_speed"`
	WindSpeedUnit   string  `json:"wind_speed_unit"`
	WindAngle       int     `json:"wind_angle_deg"`
	WindCompass     string  `json:"wind_compass"`
	VisibilityKm    float64 `json:"visibility_km"`
}

func NewAQIBar(aqi int) AQIBar {
	clamped := aqi
	if clamped < 1 {
		clamped = 1
	}
	if clamped > len(aqiLabels) {
		clamped = len(aqiLabels)
	}
	return AQIBar{
		AQI:      aqi,
		Label:    aqiLabels[clamped-1],
		Position: float64(clamped-1) * 100 / float64(len(aqiLabels)-1),
	}
}

func NewSunArc(now int64, w dayphase.DayWindow) SunArc {
	arc := SunArc{Sunrise: w.Sunrise, Sunset: w.Sunset}
	if w.Validate() != nil {
		return arc
	}

	progress := float64(now-w.Sunrise) / float64(w.Length())
	arc.Progress = math.Max(0, math.Min(1, progress))
	arc.Angle = arc.Progress * 180
	arc.Up = now >= w.Sunrise && now < w.Sunset
	return arc
}

func NewMetrics(c *weather.Current) Metrics {
	temp, speed := weather.UnitSymbols(c.Units)
	return Metrics{
		Humidity:        c.Humidity,
		Pressure:        c.Pressure,
		TemperatureUnit: temp,
		WindSpeed:       c.WindSpeed,
		WindSpeedUnit:   speed,
		WindAngle:       c.WindDeg,
		WindCompass:     Compass(c.WindDeg),
		VisibilityKm:    float64(c.Visibility) / 1000,
	}
}

// Compass maps a bearing in degrees to a 16-point compass direction.
func Compass(deg int) string {
	normalized := math.Mod(float64(deg), 360)
	if normalized < 0 {
		normalized += 360
	}
	index := int(math.Floor(normalized/22.5+0.5)) % len(compassPoints)
	return compassPoints[index]
}
