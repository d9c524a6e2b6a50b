package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "delhi", cfg.Weather.DefaultCity)
	assert.Equal(t, "metric", cfg.Weather.Units)
	assert.Equal(t, 10*time.Minute, cfg.Weather.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Weather.Timeout)
	assert.Equal(t, "dark", cfg.Theme.Default)
	assert.Equal(t, 5*time.Minute, cfg.Collector.Interval)
	assert.Equal(t, 30, cfg.Preferences.CityTTLDays)
	assert.Equal(t, 365, cfg.Preferences.PermissionTTLDays)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "weather", cfg.MQTT.TopicPrefix)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
api:
  port: 9090
weather:
  api_key: abc123
  default_city: London
  cache_ttl: 1m
preferences:
  city_ttl_days: 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "abc123", cfg.Weather.APIKey)
	assert.Equal(t, "London", cfg.Weather.DefaultCity)
	assert.Equal(t, time.Minute, cfg.Weather.CacheTTL)
	assert.Equal(t, 7, cfg.Preferences.CityTTLDays)
	assert.Equal(t, 365, cfg.Preferences.PermissionTTLDays)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "weather:\n  api_key: from-file\n")
	t.Setenv("WEATHER_DASHBOARD_WEATHER_API_KEY", "from-env")
	t.Setenv("WEATHER_DASHBOARD_API_PORT", "9191")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Weather.APIKey)
	assert.Equal(t, 9191, cfg.API.Port)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "api: [unclosed\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveKeepsOtherKeys(t *testing.T) {
	path := writeConfig(t, "api:\n  port: 9090\nweather:\n  api_key: old\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Weather.APIKey = "new-key"
	cfg.Weather.DefaultCity = "Paris"
	require.NoError(t, Save(path, cfg))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "new-key", reloaded.Weather.APIKey)
	assert.Equal(t, "Paris", reloaded.Weather.DefaultCity)
	assert.Equal(t, 9090, reloaded.API.Port)
}

func TestSaveCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.yaml")
	cfg := &Config{Weather: WeatherConfig{APIKey: "k", DefaultCity: "Oslo", Units: "imperial"}}
	require.NoError(t, Save(path, cfg))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Oslo", reloaded.Weather.DefaultCity)
	assert.Equal(t, "imperial", reloaded.Weather.Units)
}
