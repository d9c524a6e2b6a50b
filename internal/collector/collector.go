package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"weather-dashboard/internal/dashboard"
	"weather-dashboard/internal/dayphase"
	"weather-dashboard/internal/store"
)

// Snapshotter is satisfied by *dashboard.Service.
type Snapshotter interface {
	Snapshot(ctx context.Context, city string, theme dayphase.Theme, now int64) (*dashboard.Snapshot, error)
}

// Publisher is satisfied by *mqtt.Publisher.
type Publisher interface {
	Publish(snap *dashboard.Snapshot) error
	PublishHomeAssistantDiscovery(city string) error
	Close()
}

type Collector struct {
	service     Snapshotter
	prefs       store.KV
	publisher   Publisher
	defaultCity string
	theme       dayphase.Theme
	interval    time.Duration
	enabled     bool
	now         func() time.Time

	mu           sync.RWMutex
	latest       *dashboard.Snapshot
	lastErr      error
	isCollecting bool
	discovered   string
}

type CollectorConfig struct {
	Service     Snapshotter
	Preferences store.KV
	Publisher   Publisher
	DefaultCity string
	Theme       dayphase.Theme
	Interval    time.Duration
	Enabled     bool
}

func NewCollector(cfg CollectorConfig) *Collector {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Collector{
		service:     cfg.Service,
		prefs:       cfg.Preferences,
		publisher:   cfg.Publisher,
		defaultCity: cfg.DefaultCity,
		theme:       cfg.Theme,
		interval:    interval,
		enabled:     cfg.Enabled,
		now:         time.Now,
	}
}

func (c *Collector) Start(ctx context.Context) error {
	if !c.enabled {
		log.Println("Collector is disabled")
		return nil
	}

	c.mu.Lock()
	c.isCollecting = true
	c.mu.Unlock()

	log.Printf("Starting collector with interval %s", c.interval)

	// Initial collection
	c.collect(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Collector stopped")
			c.mu.Lock()
			c.isCollecting = false
			c.mu.Unlock()
			return nil
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

// City is the remembered city, or the configured default.
func (c *Collector) City() string {
	if c.prefs != nil {
		if city, ok := c.prefs.Get(store.KeyCity); ok && city != "" {
			return city
		}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultCity
}

func (c *Collector) collect(ctx context.Context) {
	if _, err := c.CollectOnce(ctx); err != nil {
		log.Printf("Error refreshing weather: %v", err)
	}
}

// CollectOnce refreshes the snapshot for the current city and publishes it.
// On failure the previous snapshot is kept.
func (c *Collector) CollectOnce(ctx context.Context) (*dashboard.Snapshot, error) {
	if c.service == nil {
		return nil, fmt.Errorf("collector not initialized")
	}

	city := c.City()
	c.mu.RLock()
	theme := c.theme
	c.mu.RUnlock()

	fetchCtx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	snap, err := c.service.Snapshot(fetchCtx, city, theme, c.now().Unix())
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		return nil, fmt.Errorf("snapshot %s: %w", city, err)
	}

	c.mu.Lock()
	c.latest = snap
	c.lastErr = nil
	c.mu.Unlock()

	if c.publisher != nil {
		c.announce(snap.City)
		if err := c.publisher.Publish(snap); err != nil {
			log.Printf("Error publishing to MQTT: %v", err)
		}
	}

	phase := snap.Background.PhaseName()
	if phase == "" {
		phase = "unresolved"
	}
	log.Printf("Collected: City=%s, Temp=%.1f%s, Phase=%s, AQI=%s",
		snap.City, snap.Current.Temp, snap.Metrics.TemperatureUnit, phase, aqiString(snap))
	return snap, nil
}

// announce publishes Home Assistant discovery the first time a city is refreshed
// and again whenever the refreshed city changes.
func (c *Collector) announce(city string) {
	c.mu.Lock()
	if city == c.discovered {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if err := c.publisher.PublishHomeAssistantDiscovery(city); err != nil {
		log.Printf("Error publishing discovery for %s: %v", city, err)
		return
	}
	c.mu.Lock()
	c.discovered = city
	c.mu.Unlock()
}

func aqiString(snap *dashboard.Snapshot) string {
	if snap.AirQuality == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", snap.AirQuality.AQI)
}

func (c *Collector) GetLatest() *dashboard.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

func (c *Collector) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Collector) IsCollecting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isCollecting
}

// SetTheme changes the theme used for subsequent refreshes.
func (c *Collector) SetTheme(theme dayphase.Theme) {
	c.mu.Lock()
	c.theme = theme
	c.mu.Unlock()
}

// SetDefaultCity changes the city refreshed when none is remembered.
func (c *Collector) SetDefaultCity(city string) {
	c.mu.Lock()
	c.defaultCity = city
	c.mu.Unlock()
}

func (c *Collector) Stop() {
	if c.publisher != nil {
		c.publisher.Close()
	}
}
