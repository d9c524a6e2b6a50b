package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-dashboard/internal/dayphase"
	"weather-dashboard/internal/weather"
)

type stubProvider struct {
	current     *weather.Current
	currentErr  error
	air         *weather.AirQuality
	airErr      error
	forecast    []weather.ForecastDay
	location    *weather.Location
	currentHits int
	airHits     int
}

func (p *stubProvider) Current(ctx context.Context, city string) (*weather.Current, error) {
	p.currentHits++
	if p.currentErr != nil {
		return nil, p.currentErr
	}
	return p.current, nil
}

func (p *stubProvider) AirQuality(ctx context.Context, lat, lon float64) (*weather.AirQuality, error) {
	p.airHits++
	return p.air, p.airErr
}

func (p *stubProvider) Forecast(ctx context.Context, city string) ([]weather.ForecastDay, error) {
	return p.forecast, nil
}

func (p *stubProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (*weather.Location, error) {
	return p.location, nil
}

func (p *stubProvider) SearchCities(ctx context.Context, query string, limit int) ([]weather.Location, error) {
	return []weather.Location{{Name: query}}, nil
}

func delhiProvider() *stubProvider {
	return &stubProvider{
		current: &weather.Current{
			City:       "Delhi",
			Lat:        28.66,
			Lon:        77.21,
			Humidity:   52,
			Pressure:   1006,
			WindSpeed:  2.5,
			WindDeg:    290,
			Visibility: 3500,
			Sunrise:    1700000000,
			Sunset:     1700043200,
		},
		air:      &weather.AirQuality{AQI: 4},
		forecast: []weather.ForecastDay{{Time: 1700000000, Temp: 25}},
	}
}

func TestSnapshotResolvesBackground(t *testing.T) {
	provider := delhiProvider()
	svc := NewService(ServiceConfig{Provider: provider})

	snap, err := svc.Snapshot(context.Background(), "delhi", dayphase.Dark, 1700021600)
	require.NoError(t, err)

	assert.Equal(t, "Delhi", snap.City)
	assert.True(t, snap.Background.Resolved)
	require.NotNil(t, snap.Background.Phase)
	assert.Equal(t, dayphase.Afternoon, *snap.Background.Phase)
	assert.Equal(t, []string{"#444", "#777"}, snap.Background.Gradient.Stops)
	assert.Equal(t, dayphase.IconSunrise, snap.Background.Icon)

	require.NotNil(t, snap.AQIBar)
	assert.Equal(t, "Poor", snap.AQIBar.Label)
	require.NotNil(t, snap.SunArc)
	assert.InDelta(t, 0.5, snap.SunArc.Progress, 1e-9)
	assert.Equal(t, "WNW", snap.Metrics.WindCompass)
	assert.InDelta(t, 3.5, snap.Metrics.VisibilityKm, 1e-9)
	assert.Len(t, snap.Forecast, 1)
}

func TestSnapshotCurrentFailureSkipsResolver(t *testing.T) {
	provider := &stubProvider{currentErr: weather.ErrCityNotFound}
	svc := NewService(ServiceConfig{Provider: provider})

	snap, err := svc.Snapshot(context.Background(), "atlantis", dayphase.Dark, 1700021600)
	require.ErrorIs(t, err, weather.ErrCityNotFound)
	assert.Nil(t, snap)
	assert.Equal(t, 0, provider.airHits)
}

func TestSnapshotEmptyCity(t *testing.T) {
	svc := NewService(ServiceConfig{Provider: delhiProvider()})
	_, err := svc.Snapshot(context.Background(), " ", dayphase.Dark, 1)
	require.ErrorIs(t, err, weather.ErrMissingLocation)
}

func TestSnapshotInvalidWindowFallsBack(t *testing.T) {
	provider := delhiProvider()
	provider.current.Sunrise, provider.current.Sunset = 1700043200, 1700000000
	svc := NewService(ServiceConfig{Provider: provider})

	snap, err := svc.Snapshot(context.Background(), "delhi", dayphase.Light, 1700021600)
	require.NoError(t, err)
	assert.False(t, snap.Background.Resolved)
	assert.Equal(t, dayphase.Neutral(), snap.Background.Gradient)
	assert.Contains(t, snap.Background.Error, dayphase.ErrInvalidWindow.Error())
	assert.Nil(t, snap.Background.Phase)
	assert.Empty(t, snap.Background.Icon)
}

func TestUnresolvedBackgroundJSONOmitsPhaseAndIcon(t *testing.T) {
	provider := delhiProvider()
	provider.current.Sunset = 0
	svc := NewService(ServiceConfig{Provider: provider})

	snap, err := svc.Snapshot(context.Background(), "delhi", dayphase.Dark, 1700021600)
	require.NoError(t, err)

	payload, err := json.Marshal(snap.Background)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"theme": "dark",
		"gradient": {"direction": "to bottom", "stops": ["#444", "#666"]},
		"css": "linear-gradient(to bottom, #444, #666)",
		"resolved": false,
		"error": "day window unavailable"
	}`, string(payload))
	assert.Equal(t, "", snap.Background.PhaseName())
}

func TestUnresolvedBackgroundDoesNotShareNeutralStops(t *testing.T) {
	bg := ResolveBackground(5, dayphase.DayWindow{Sunrise: 10, Sunset: 10}, dayphase.Dark)
	require.False(t, bg.Resolved)
	bg.Gradient.Stops[0] = "#f00"

	assert.Equal(t, []string{"#444", "#666"}, dayphase.Neutral().Stops)
}

func TestSnapshotMissingWindow(t *testing.T) {
	provider := delhiProvider()
	provider.current.Sunrise = 0
	svc := NewService(ServiceConfig{Provider: provider})

	snap, err := svc.Snapshot(context.Background(), "delhi", dayphase.Dark, 1700021600)
	require.NoError(t, err)
	assert.False(t, snap.Background.Resolved)
	assert.Nil(t, snap.SunArc)
	assert.Equal(t, ErrNoWindow.Error(), snap.Background.Error)
}

func TestSnapshotAirQualityFailureStillRenders(t *testing.T) {
	provider := delhiProvider()
	provider.air, provider.airErr = nil, errors.New("boom")
	svc := NewService(ServiceConfig{Provider: provider})

	snap, err := svc.Snapshot(context.Background(), "delhi", dayphase.Dark, 1700000000)
	require.NoError(t, err)
	assert.Nil(t, snap.AQIBar)
	assert.Equal(t, "morning", snap.Background.PhaseName())
}

func TestSnapshotCacheAndThemeToggle(t *testing.T) {
	provider := delhiProvider()
	svc := NewService(ServiceConfig{Provider: provider, CacheTTL: time.Minute})
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return clock }

	dark, err := svc.Snapshot(context.Background(), "Delhi", dayphase.Dark, 1700043199)
	require.NoError(t, err)
	light, err := svc.Snapshot(context.Background(), "delhi", dayphase.Light, 1700043199)
	require.NoError(t, err)

	assert.Equal(t, 1, provider.currentHits, "theme toggle reuses the cached window")
	assert.Equal(t, "evening", dark.Background.PhaseName())
	assert.Equal(t, []string{"#444", "#555"}, dark.Background.Gradient.Stops)
	assert.Equal(t, []string{"#808cb6", "#385b93"}, light.Background.Gradient.Stops)

	clock = clock.Add(2 * time.Minute)
	_, err = svc.Snapshot(context.Background(), "delhi", dayphase.Light, 1700043200)
	require.NoError(t, err)
	assert.Equal(t, 2, provider.currentHits)

	svc.SetProvider(provider)
	_, err = svc.Snapshot(context.Background(), "delhi", dayphase.Light, 1700043200)
	require.NoError(t, err)
	assert.Equal(t, 3, provider.currentHits)
}

func TestResolveBackgroundInvalidTheme(t *testing.T) {
	bg := ResolveBackground(1700000000, dayphase.DayWindow{Sunrise: 1700000000, Sunset: 1700043200}, dayphase.Theme(9))
	assert.False(t, bg.Resolved)
	assert.Equal(t, dayphase.Neutral().CSS(), bg.CSS)
}
