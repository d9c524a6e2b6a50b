package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"weather-dashboard/internal/dayphase"
	"weather-dashboard/internal/weather"
)

func TestNewAQIBar(t *testing.T) {
	cases := []struct {
		aqi      int
		label    string
		position float64
	}{
		{1, "Good", 0},
		{2, "Fair", 25},
		{3, "Moderate", 50},
		{4, "Poor", 75},
		{5, "Very Poor", 100},
		{0, "Good", 0},
		{9, "Very Poor", 100},
	}

	for _, tc := range cases {
		bar := NewAQIBar(tc.aqi)
		assert.Equal(t, tc.aqi, bar.AQI)
		assert.Equal(t, tc.label, bar.Label)
		assert.InDelta(t, tc.position, bar.Position, 1e-9)
	}
}

func TestNewSunArc(t *testing.T) {
	w := dayphase.DayWindow{Sunrise: 1000, Sunset: 2000}

	before := NewSunArc(500, w)
	assert.Zero(t, before.Progress)
	assert.False(t, before.Up)

	quarter := NewSunArc(1250, w)
	assert.InDelta(t, 0.25, quarter.Progress, 1e-9)
	assert.InDelta(t, 45, quarter.Angle, 1e-9)
	assert.True(t, quarter.Up)

	after := NewSunArc(2500, w)
	assert.InDelta(t, 1, after.Progress, 1e-9)
	assert.InDelta(t, 180, after.Angle, 1e-9)
	assert.False(t, after.Up)

	invalid := NewSunArc(1500, dayphase.DayWindow{Sunrise: 2000, Sunset: 1000})
	assert.Zero(t, invalid.Progress)
	assert.False(t, invalid.Up)
}

func TestCompass(t *testing.T) {
	cases := map[int]string{
		0:    "N",
		11:   "N",
		12:   "NNE",
		90:   "E",
		180:  "S",
		290:  "WNW",
		349:  "N",
		360:  "N",
		-90:  "W",
		1125: "NE",
	}
	for deg, want := range cases {
		assert.Equal(t, want, Compass(deg), "deg %d", deg)
	}
}

func TestNewMetricsUnits(t *testing.T) {
	metric := NewMetrics(&weather.Current{WindSpeed: 3.6, Visibility: 6000, Units: "metric"})
	assert.Equal(t, "°C", metric.TemperatureUnit)
	assert.Equal(t, "m/s", metric.WindSpeedUnit)
	assert.InDelta(t, 6, metric.VisibilityKm, 1e-9)

	imperial := NewMetrics(&weather.Current{WindSpeed: 8.1, Units: "imperial"})
	assert.Equal(t, "°F", imperial.TemperatureUnit)
	assert.Equal(t, "mph", imperial.WindSpeedUnit)
	assert.InDelta(t, 8.1, imperial.WindSpeed, 1e-9)
}
