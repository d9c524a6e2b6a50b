package weather

import (
	"context"
	"errors"
	"fmt"

	"weather-dashboard/internal/dayphase"
)

var (
	ErrCityNotFound    = errors.New("city not found")
	ErrMissingLocation = errors.New("location is empty")
	ErrNoAirQuality    = errors.New("air quality data missing")
)

// StatusError is a non-2xx answer from the upstream API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("openweather returned status %d", e.Status)
	}
	return fmt.Sprintf("openweather returned status %d: %s", e.Status, e.Body)
}

type Provider interface {
	Current(ctx context.Context, city string) (*Current, error)
	AirQuality(ctx context.Context, lat, lon float64) (*AirQuality, error)
	Forecast(ctx context.Context, city string) ([]ForecastDay, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, error)
	SearchCities(ctx context.Context, query string, limit int) ([]Location, error)
}

type Location struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type Current struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Temp        float64 `json:"temp"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"`
	WindDeg     int     `json:"wind_deg"`
	Visibility  int     `json:"visibility"`
	Clouds      int     `json:"clouds"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Sunrise     int64   `json:"sunrise"`
	Sunset      int64   `json:"sunset"`
	Timezone    int64   `json:"timezone"`
	ObservedAt  int64   `json:"observed_at"`
	Units       string  `json:"units"`
}

// Window returns the day window, if the response carried both sun times.
func (c *Current) Window() (dayphase.DayWindow, bool) {
	if c == nil || c.Sunrise == 0 || c.Sunset == 0 {
		return dayphase.DayWindow{}, false
	}
	return dayphase.DayWindow{Sunrise: c.Sunrise, Sunset: c.Sunset}, true
}

// UnitSymbols returns the temperature and wind speed symbols for an OpenWeather units
// setting. Anything unrecognised is treated as metric.
func UnitSymbols(units string) (temp, speed string) {
	switch units {
	case "imperial":
		return "°F", "mph"
	case "standard":
		return "K", "m/s"
	default:
		return "°C", "m/s"
	}
}

type AirQuality struct {
	AQI        int                `json:"aqi"`
	Components map[string]float64 `json:"components,omitempty"`
	MeasuredAt int64              `json:"measured_at"`
}

type ForecastDay struct {
	Time        int64   `json:"dt"`
	Temp        float64 `json:"temp"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Humidity    int     `json:"humidity"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
}
