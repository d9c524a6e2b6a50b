package api

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"weather-dashboard/config"
	"weather-dashboard/internal/collector"
	"weather-dashboard/internal/dashboard"
	"weather-dashboard/internal/dayphase"
	"weather-dashboard/internal/store"
	"weather-dashboard/internal/weather"

	"github.com/gin-gonic/gin"
)

// ProviderFactory builds the upstream client for a weather configuration.
type ProviderFactory func(cfg config.WeatherConfig) weather.Provider

// ConnectionChecker is satisfied by *mqtt.Publisher.
type ConnectionChecker interface {
	IsConnected() bool
}

type Server struct {
	router      *gin.Engine
	server      *http.Server
	service     *dashboard.Service
	collector   *collector.Collector
	mqtt        ConnectionChecker
	prefs       store.KV
	newProvider ProviderFactory
	port        int
	webPath     string
	config      *config.Config
	configPath  string
	configMutex sync.RWMutex
	clock       func() time.Time
}

type ServerConfig struct {
	Port        int
	Service     *dashboard.Service
	Collector   *collector.Collector
	MQTT        ConnectionChecker
	Preferences store.KV
	Providers   ProviderFactory
	WebPath     string
	Config      *config.Config
	ConfigPath  string
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Default web path
	webPath := cfg.WebPath
	if webPath == "" {
		webPath = "./web"
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.Config{}
	}

	s := &Server{
		router:      router,
		service:     cfg.Service,
		collector:   cfg.Collector,
		mqtt:        cfg.MQTT,
		prefs:       cfg.Preferences,
		newProvider: cfg.Providers,
		port:        cfg.Port,
		webPath:     webPath,
		config:      appCfg,
		configPath:  cfg.ConfigPath,
		clock:       time.Now,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.SetHTMLTemplate(s.loadTemplates())

	// Serve static files
	s.router.Static("/static", s.webPath+"/static")
	for _, icon := range []string{dayphase.IconMoon, dayphase.IconSunrise} {
		s.router.StaticFile(icon, s.webPath+"/static"+icon)
	}

	// Dashboard routes
	s.router.GET("/", s.dashboardHandler)
	s.router.GET("/dashboard", s.dashboardHandler)
	s.router.HEAD("/", s.dashboardHandler)
	s.router.HEAD("/dashboard", s.dashboardHandler)

	// Health check
	s.router.GET("/health", s.healthHandler)

	// API routes
	api := s.router.Group("/api/v1")
	{
		api.GET("/dashboard", s.snapshotHandler)
		api.GET("/status", s.statusHandler)
		api.GET("/background", s.backgroundHandler)
		api.GET("/gradients", s.gradientsHandler)
		api.POST("/theme/toggle", s.themeToggleHandler)

		api.POST("/location", s.locationHandler)
		api.GET("/location/permission", s.permissionHandler)
		api.GET("/cities", s.citiesHandler)
		api.GET("/preferences/city", s.getCityPreferenceHandler)
		api.PUT("/preferences/city", s.updateCityPreferenceHandler)

		// Config routes
		api.GET("/config/weather", s.getWeatherConfigHandler)
		api.PUT("/config/weather", s.updateWeatherConfigHandler)
	}
}

// loadTemplates parses web/templates, or the built-in page when the directory is absent.
func (s *Server) loadTemplates() *template.Template {
	pattern := filepath.Join(s.webPath, "templates", "*.html")
	if matches, _ := filepath.Glob(pattern); len(matches) > 0 {
		tmpl, err := template.ParseGlob(pattern)
		if err == nil {
			return tmpl
		}
		log.Printf("Failed to parse templates in %s, using built-in page: %v", s.webPath, err)
	}
	return template.Must(template.New("dashboard.html").Parse(fallbackDashboard))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	log.Printf("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	collecting := false
	lastError := ""
	if s.collector != nil {
		collecting = s.collector.IsCollecting()
		if err := s.collector.LastError(); err != nil {
			lastError = err.Error()
		}
	}

	mqttConnected := false
	if s.mqtt != nil {
		mqttConnected = s.mqtt.IsConnected()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"collecting":     collecting,
		"last_error":     lastError,
		"mqtt_connected": mqttConnected,
		"timestamp":      s.clock(),
	})
}

// statusHandler returns the snapshot of the last periodic refresh.
func (s *Server) statusHandler(c *gin.Context) {
	if s.collector == nil || s.collector.GetLatest() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "No data available yet",
		})
		return
	}
	c.JSON(http.StatusOK, s.collector.GetLatest())
}

func (s *Server) snapshotHandler(c *gin.Context) {
	theme, err := s.requestTheme(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	now, err := s.requestNow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	city, explicit := s.requestCity(c)
	snap, err := s.service.Snapshot(c.Request.Context(), city, theme, now)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	if explicit {
		s.remember(c, store.KeyCity, city, s.cityTTL())
	}
	c.JSON(http.StatusOK, snap)
}

// errorStatus maps fetch errors to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, weather.ErrCityNotFound):
		return http.StatusNotFound
	case errors.Is(err, weather.ErrMissingLocation), errors.Is(err, dayphase.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		// *weather.StatusError and transport failures
		return http.StatusBadGateway
	}
}

type WeatherConfigResponse struct {
	APIKey      string  `json:"api_key"`
	HasAPIKey   bool    `json:"has_api_key"`
	DefaultCity string  `json:"default_city"`
	Units       string  `json:"units"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Theme       string  `json:"theme"`
}

type WeatherConfigRequest struct {
	APIKey      *string  `json:"api_key"`
	DefaultCity string   `json:"default_city" binding:"required"`
	Units       string   `json:"units" binding:"omitempty,oneof=metric imperial standard"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	Theme       string   `json:"theme" binding:"omitempty,oneof=light dark"`
}

// maskKey keeps the last four characters of an API key.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func (s *Server) getWeatherConfigHandler(c *gin.Context) {
	s.configMutex.RLock()
	defer s.configMutex.RUnlock()

	cfg := s.config.Weather
	c.JSON(http.StatusOK, WeatherConfigResponse{
		APIKey:      maskKey(cfg.APIKey),
		HasAPIKey:   cfg.APIKey != "",
		DefaultCity: cfg.DefaultCity,
		Units:       cfg.Units,
		Latitude:    cfg.Latitude,
		Longitude:   cfg.Longitude,
		Theme:       s.config.Theme.Default,
	})
}

func (s *Server) updateWeatherConfigHandler(c *gin.Context) {
	var req WeatherConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if strings.TrimSpace(req.Units) == "" {
		req.Units = "metric"
	}

	s.configMutex.Lock()
	if req.APIKey != nil {
		s.config.Weather.APIKey = strings.TrimSpace(*req.APIKey)
	}
	s.config.Weather.DefaultCity = strings.TrimSpace(req.DefaultCity)
	s.config.Weather.Units = req.Units
	if req.Latitude != nil {
		s.config.Weather.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		s.config.Weather.Longitude = *req.Longitude
	}
	if req.Theme != "" {
		s.config.Theme.Default = req.Theme
	}
	weatherCfg := s.config.Weather
	themeName := s.config.Theme.Default
	s.configMutex.Unlock()

	if s.newProvider != nil {
		s.service.SetProvider(s.newProvider(weatherCfg))
	}
	if s.collector != nil {
		s.collector.SetDefaultCity(weatherCfg.DefaultCity)
		if theme, err := dayphase.ParseTheme(themeName); err == nil {
			s.collector.SetTheme(theme)
		}
	}

	if err := s.saveConfigToFile(); err != nil {
		log.Printf("Warning: Failed to save config to file: %v", err)
		c.JSON(http.StatusOK, gin.H{
			"message": "Configuration applied but not persisted to file",
			"warning": err.Error(),
		})
		return
	}

	log.Printf("Weather configuration updated: city=%s units=%s", weatherCfg.DefaultCity, weatherCfg.Units)

	c.JSON(http.StatusOK, gin.H{
		"message": "Weather configuration updated successfully",
	})
}

func (s *Server) saveConfigToFile() error {
	s.configMutex.RLock()
	defer s.configMutex.RUnlock()
	return config.Save(s.configPath, s.config)
}

func (s *Server) defaultCity() string {
	s.configMutex.RLock()
	defer s.configMutex.RUnlock()
	return s.config.Weather.DefaultCity
}

func (s *Server) defaultTheme() dayphase.Theme {
	s.configMutex.RLock()
	name := s.config.Theme.Default
	s.configMutex.RUnlock()

	theme, err := dayphase.ParseTheme(name)
	if err != nil {
		log.Printf("Invalid default theme %q, using dark", name)
		return dayphase.Dark
	}
	return theme
}

func (s *Server) cityTTL() int {
	s.configMutex.RLock()
	defer s.configMutex.RUnlock()
	if s.config.Preferences.CityTTLDays > 0 {
		return s.config.Preferences.CityTTLDays
	}
	return 30
}

func (s *Server) permissionTTL() int {
	s.configMutex.RLock()
	defer s.configMutex.RUnlock()
	if s.config.Preferences.PermissionTTLDays > 0 {
		return s.config.Preferences.PermissionTTLDays
	}
	return 365
}
