package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "WEATHER_DASHBOARD"

type Config struct {
	API         APIConfig         `mapstructure:"api"`
	Weather     WeatherConfig     `mapstructure:"weather"`
	Theme       ThemeConfig       `mapstructure:"theme"`
	Collector   CollectorConfig   `mapstructure:"collector"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
}

type APIConfig struct {
	Port    int    `mapstructure:"port"`
	Enabled bool   `mapstructure:"enabled"`
	WebPath string `mapstructure:"web_path"`
}

type WeatherConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	DefaultCity string        `mapstructure:"default_city"`
	Units       string        `mapstructure:"units"`
	Latitude    float64       `mapstructure:"latitude"`
	Longitude   float64       `mapstructure:"longitude"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type ThemeConfig struct {
	Default string `mapstructure:"default"`
}

type CollectorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Enabled  bool          `mapstructure:"enabled"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// PreferencesConfig holds the lifetimes of remembered values, in days.
type PreferencesConfig struct {
	CityTTLDays       int `mapstructure:"city_ttl_days"`
	PermissionTTLDays int `mapstructure:"permission_ttl_days"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.web_path", "./web")
	v.SetDefault("weather.api_key", "")
	v.SetDefault("weather.default_city", "delhi")
	v.SetDefault("weather.units", "metric")
	v.SetDefault("weather.latitude", 28.6139)
	v.SetDefault("weather.longitude", 77.2090)
	v.SetDefault("weather.cache_ttl", "10m")
	v.SetDefault("weather.base_url", "https://api.openweathermap.org")
	v.SetDefault("weather.timeout", "10s")
	v.SetDefault("theme.default", "dark")
	v.SetDefault("collector.enabled", true)
	v.SetDefault("collector.interval", "5m")
	v.SetDefault("database.path", "./weather-dashboard.db")
	v.SetDefault("preferences.city_ttl_days", 30)
	v.SetDefault("preferences.permission_ttl_days", 365)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "weather")
	v.SetDefault("mqtt.client_id", "weather-dashboard")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/weather-dashboard")
	}

	setDefaults(v)

	// WEATHER_DASHBOARD_WEATHER_API_KEY overrides weather.api_key
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, nil
}

// Save writes the editable weather settings back to configPath, keeping the other keys in the file.
func Save(configPath string, cfg *Config) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		// A missing file is created by the write below.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	v.Set("weather.api_key", cfg.Weather.APIKey)
	v.Set("weather.default_city", cfg.Weather.DefaultCity)
	v.Set("weather.units", cfg.Weather.Units)
	v.Set("weather.latitude", cfg.Weather.Latitude)
	v.Set("weather.longitude", cfg.Weather.Longitude)
	v.Set("theme.default", cfg.Theme.Default)

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
