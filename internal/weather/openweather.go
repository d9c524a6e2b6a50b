package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org"

	// The forecast endpoint returns 3-hour steps; every 8th entry is one per day.
	forecastStride = 8
)

type ClientConfig struct {
	APIKey  string
	Units   string
	BaseURL string
	Timeout time.Duration

	// Used only when APIKey is empty.
	DemoCity      string
	DemoLatitude  float64
	DemoLongitude float64
}

type OpenWeatherClient struct {
	apiKey  string
	units   string
	baseURL string
	client  *http.Client
	demo    *demoData
}

func NewOpenWeatherClient(cfg ClientConfig) *OpenWeatherClient {
	units := cfg.Units
	if units == "" {
		units = "metric"
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &OpenWeatherClient{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		units:   units,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
	if c.apiKey == "" {
		c.demo = newDemoData(cfg.DemoCity, cfg.DemoLatitude, cfg.DemoLongitude, time.Now)
	}
	return c
}

// Demo reports whether the client answers from built-in data because no API key is set.
func (c *OpenWeatherClient) Demo() bool {
	return c.demo != nil
}

type openWeatherCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type openWeatherResponse struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []openWeatherCondition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Dt       int64 `json:"dt"`
	Timezone int64 `json:"timezone"`
	Sys      struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

type airPollutionResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
	} `json:"list"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []openWeatherCondition `json:"weather"`
	} `json:"list"`
}

type geocodingResult struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (c *OpenWeatherClient) Current(ctx context.Context, city string) (*Current, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("openweather current: %w", ErrMissingLocation)
	}
	if c.demo != nil {
		return c.demo.current(city), nil
	}

	query := url.Values{}
	query.Set("q", city)

	var payload openWeatherResponse
	if err := c.getJSON(ctx, "/data/2.5/weather", query, &payload); err != nil {
		return nil, fmt.Errorf("openweather current %q: %w", city, err)
	}

	condition, description := firstCondition(payload.Weather)

	return &Current{
		City:        payload.Name,
		Country:     payload.Sys.Country,
		Lat:         payload.Coord.Lat,
		Lon:         payload.Coord.Lon,
		Temp:        payload.Main.Temp,
		TempMin:     payload.Main.TempMin,
		TempMax:     payload.Main.TempMax,
		FeelsLike:   payload.Main.FeelsLike,
		Humidity:    payload.Main.Humidity,
		Pressure:    payload.Main.Pressure,
		WindSpeed:   payload.Wind.Speed,
		WindDeg:     payload.Wind.Deg,
		Visibility:  payload.Visibility,
		Clouds:      payload.Clouds.All,
		Condition:   condition,
		Description: description,
		Sunrise:     payload.Sys.Sunrise,
		Sunset:      payload.Sys.Sunset,
		Timezone:    payload.Timezone,
		ObservedAt:  payload.Dt,
		Units:       c.units,
	}, nil
}

func (c *OpenWeatherClient) AirQuality(ctx context.Context, lat, lon float64) (*AirQuality, error) {
	if c.demo != nil {
		return c.demo.airQuality(), nil
	}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.6f", lat))
	query.Set("lon", fmt.Sprintf("%.6f", lon))

	var payload airPollutionResponse
	if err := c.getJSON(ctx, "/data/2.5/air_pollution", query, &payload); err != nil {
		return nil, fmt.Errorf("openweather air pollution: %w", err)
	}
	if len(payload.List) == 0 {
		return nil, fmt.Errorf("openweather air pollution: %w", ErrNoAirQuality)
	}

	entry := payload.List[0]
	return &AirQuality{
		AQI:        entry.Main.AQI,
		Components: entry.Components,
		MeasuredAt: entry.Dt,
	}, nil
}

func (c *OpenWeatherClient) Forecast(ctx context.Context, city string) ([]ForecastDay, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("openweather forecast: %w", ErrMissingLocation)
	}
	if c.demo != nil {
		return c.demo.forecast(), nil
	}

	query := url.Values{}
	query.Set("q", city)

	var payload forecastResponse
	if err := c.getJSON(ctx, "/data/2.5/forecast", query, &payload); err != nil {
		return nil, fmt.Errorf("openweather forecast %q: %w", city, err)
	}

	days := make([]ForecastDay, 0, len(payload.List)/forecastStride+1)
	for i, item := range payload.List {
		if i%forecastStride != 0 {
			continue
		}
		condition, description := firstCondition(item.Weather)
		days = append(days, ForecastDay{
			Time:        item.Dt,
			Temp:        item.Main.Temp,
			TempMin:     item.Main.TempMin,
			TempMax:     item.Main.TempMax,
			Humidity:    item.Main.Humidity,
			Condition:   condition,
			Description: description,
		})
	}
	return days, nil
}

func (c *OpenWeatherClient) ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, error) {
	if c.demo != nil {
		return c.demo.location(lat, lon), nil
	}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.6f", lat))
	query.Set("lon", fmt.Sprintf("%.6f", lon))
	query.Set("limit", "1")

	var results []geocodingResult
	if err := c.getJSON(ctx, "/geo/1.0/reverse", query, &results); err != nil {
		return nil, fmt.Errorf("openweather reverse geocoding: %w", err)
	}
	if len(results) == 0 || strings.TrimSpace(results[0].Name) == "" {
		return nil, fmt.Errorf("openweather reverse geocoding %.4f,%.4f: %w", lat, lon, ErrCityNotFound)
	}

	loc := results[0].toLocation()
	return &loc, nil
}

func (c *OpenWeatherClient) SearchCities(ctx context.Context, query string, limit int) ([]Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("openweather geocoding: %w", ErrMissingLocation)
	}
	if limit <= 0 || limit > 5 {
		limit = 5
	}
	if c.demo != nil {
		return []Location{*c.demo.named(query)}, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var results []geocodingResult
	if err := c.getJSON(ctx, "/geo/1.0/direct", params, &results); err != nil {
		return nil, fmt.Errorf("openweather geocoding %q: %w", query, err)
	}

	locations := make([]Location, len(results))
	for i, r := range results {
		locations[i] = r.toLocation()
	}
	return locations, nil
}

func (c *OpenWeatherClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("appid", c.apiKey)
	if strings.HasPrefix(path, "/data/") {
		query.Set("units", c.units)
	}

	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrCityNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func firstCondition(conditions []openWeatherCondition) (string, string) {
	if len(conditions) == 0 {
		return "", ""
	}
	return conditions[0].Main, conditions[0].Description
}

func (r geocodingResult) toLocation() Location {
	return Location{Name: r.Name, Country: r.Country, State: r.State, Lat: r.Lat, Lon: r.Lon}
}
