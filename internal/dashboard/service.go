package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"weather-dashboard/internal/dayphase"
	"weather-dashboard/internal/weather"
)

const defaultCacheTTL = 10 * time.Minute

var ErrNoWindow = errors.New("day window unavailable")

// Background is the resolved page background. When the day window is missing or invalid
// Resolved is false, the neutral gradient is used and there is no phase or icon.
type Background struct {
	Phase    *dayphase.Phase       `json:"phase,omitempty"`
	Theme    dayphase.Theme        `json:"theme"`
	Gradient dayphase.GradientSpec `json:"gradient"`
	CSS      string                `json:"css"`
	Icon     string                `json:"icon,omitempty"`
	Resolved bool                  `json:"resolved"`
	Error    string                `json:"error,omitempty"`
}

// PhaseName is the resolved phase, or "" when unresolved.
func (b Background) PhaseName() string {
	if b.Phase == nil {
		return ""
	}
	return b.Phase.String()
}

type Snapshot struct {
	City       string                `json:"city"`
	Now        int64                 `json:"now"`
	Current    *weather.Current      `json:"current"`
	AirQuality *weather.AirQuality   `json:"air_quality,omitempty"`
	AQIBar     *AQIBar               `json:"aqi_bar,omitempty"`
	Forecast   []weather.ForecastDay `json:"forecast"`
	Metrics    Metrics               `json:"metrics"`
	SunArc     *SunArc               `json:"sun_arc,omitempty"`
	Background Background            `json:"background"`
	FetchedAt  time.Time             `json:"fetched_at"`
}

type ServiceConfig struct {
	Provider weather.Provider
	CacheTTL time.Duration
}

type fetchEntry struct {
	current   *weather.Current
	air       *weather.AirQuality
	forecast  []weather.ForecastDay
	fetchedAt time.Time
}

type Service struct {
	provider weather.Provider
	ttl      time.Duration
	clock    func() time.Time

	mu    sync.Mutex
	cache map[string]fetchEntry
}

func NewService(cfg ServiceConfig) *Service {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{
		provider: cfg.Provider,
		ttl:      ttl,
		clock:    time.Now,
		cache:    map[string]fetchEntry{},
	}
}

// ResolveBackground runs the resolver and falls back to the neutral gradient on failure.
func ResolveBackground(now int64, w dayphase.DayWindow, theme dayphase.Theme) Background {
	res, err := dayphase.Resolve(now, w, theme)
	if err != nil {
		log.Printf("Background resolve failed (sunrise=%d sunset=%d now=%d): %v", w.Sunrise, w.Sunset, now, err)
		return neutralBackground(theme, err)
	}
	phase := res.Phase
	return Background{
		Phase:    &phase,
		Theme:    res.Theme,
		Gradient: res.Gradient,
		CSS:      res.CSS,
		Icon:     res.Icon,
		Resolved: true,
	}
}

func neutralBackground(theme dayphase.Theme, err error) Background {
	g := dayphase.Neutral()
	return Background{
		Theme:    theme,
		Gradient: g,
		CSS:      g.CSS(),
		Error:    err.Error(),
	}
}

// Snapshot fetches (or reuses cached) weather for city and resolves it at now.
// If the current weather cannot be fetched no background is resolved and the error is returned.
func (s *Service) Snapshot(ctx context.Context, city string, theme dayphase.Theme, now int64) (*Snapshot, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("snapshot: %w", weather.ErrMissingLocation)
	}

	entry, err := s.fetch(ctx, city)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		City:      entry.current.City,
		Now:       now,
		Current:   entry.current,
		Forecast:  entry.forecast,
		Metrics:   NewMetrics(entry.current),
		FetchedAt: entry.fetchedAt,
	}
	if snap.City == "" {
		snap.City = city
	}
	if snap.Forecast == nil {
		snap.Forecast = []weather.ForecastDay{}
	}
	if entry.air != nil {
		bar := NewAQIBar(entry.air.AQI)
		snap.AirQuality = entry.air
		snap.AQIBar = &bar
	}

	window, ok := entry.current.Window()
	if !ok {
		log.Printf("No sunrise/sunset for %s, using neutral background", snap.City)
		snap.Background = neutralBackground(theme, ErrNoWindow)
		return snap, nil
	}

	arc := NewSunArc(now, window)
	snap.SunArc = &arc
	snap.Background = ResolveBackground(now, window, theme)
	return snap, nil
}

// Locate turns a coordinate into the city name to query.
func (s *Service) Locate(ctx context.Context, lat, lon float64) (*weather.Location, error) {
	return s.currentProvider().ReverseGeocode(ctx, lat, lon)
}

func (s *Service) Search(ctx context.Context, query string) ([]weather.Location, error) {
	return s.currentProvider().SearchCities(ctx, query, 5)
}

// SetProvider swaps the upstream client, e.g. after the API key changed, and drops the cache.
func (s *Service) SetProvider(p weather.Provider) {
	s.mu.Lock()
	s.provider = p
	s.cache = map[string]fetchEntry{}
	s.mu.Unlock()
}

func (s *Service) currentProvider() weather.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provider
}

func (s *Service) fetch(ctx context.Context, city string) (fetchEntry, error) {
	key := strings.ToLower(city)
	now := s.clock()

	s.mu.Lock()
	entry, ok := s.cache[key]
	provider := s.provider
	s.mu.Unlock()
	if ok && now.Sub(entry.fetchedAt) < s.ttl {
		return entry, nil
	}

	current, err := provider.Current(ctx, city)
	if err != nil {
		return fetchEntry{}, err
	}

	entry = fetchEntry{current: current, fetchedAt: now}

	if air, err := provider.AirQuality(ctx, current.Lat, current.Lon); err != nil {
		log.Printf("Air quality fetch failed for %s: %v", city, err)
	} else {
		entry.air = air
	}

	if forecast, err := provider.Forecast(ctx, city); err != nil {
		log.Printf("Forecast fetch failed for %s: %v", city, err)
	} else {
		entry.forecast = forecast
	}

	s.mu.Lock()
	s.cache[key] = entry
	s.mu.Unlock()
	return entry, nil
}

// Background re-resolves a known window, as when the theme is toggled.
func (s *Service) Background(now int64, w dayphase.DayWindow, theme dayphase.Theme) Background {
	return ResolveBackground(now, w, theme)
}
