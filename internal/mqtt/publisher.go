package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"weather-dashboard/internal/dashboard"
	"weather-dashboard/internal/weather"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	units       string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Units       string // weather units setting, drives discovery unit_of_measurement
	Enabled     bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return newPublisher(client, cfg.TopicPrefix, cfg.Units), nil
}

func newPublisher(client mqtt.Client, prefix, units string) *Publisher {
	if prefix == "" {
		prefix = "weather"
	}
	return &Publisher{client: client, topicPrefix: prefix, units: units, enabled: true}
}

// Slug turns a city name into a topic segment.
func Slug(city string) string {
	city = strings.ToLower(strings.TrimSpace(city))
	var b strings.Builder
	dash := false
	for _, r := range city {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Values flattens a snapshot into per-metric topic payloads. An unresolved background
// has no phase topic.
func Values(snap *dashboard.Snapshot) map[string]interface{} {
	values := map[string]interface{}{
		"background": snap.Background.CSS,
	}
	if snap.Background.Resolved && snap.Background.Phase != nil {
		values["phase"] = snap.Background.Phase.String()
	}
	if c := snap.Current; c != nil {
		values["temperature"] = c.Temp
		values["feels_like"] = c.FeelsLike
		values["humidity"] = c.Humidity
		values["pressure"] = c.Pressure
		values["wind_speed"] = c.WindSpeed
		values["description"] = c.Description
	}
	if snap.AirQuality != nil {
		values["aqi"] = snap.AirQuality.AQI
	}
	return values
}

func (p *Publisher) Publish(snap *dashboard.Snapshot) error {
	if !p.enabled || snap == nil {
		return nil
	}

	city := Slug(snap.City)
	for name, value := range Values(snap) {
		topic := fmt.Sprintf("%s/%s/%s", p.topicPrefix, city, name)
		payload := fmt.Sprintf("%v", value)
		token := p.client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("Failed to publish to %s: %v", topic, token.Error())
		}
	}

	// Full snapshot as JSON
	statusJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	statusTopic := fmt.Sprintf("%s/%s/status", p.topicPrefix, city)
	token := p.client.Publish(statusTopic, 0, true, statusJSON)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish status: %w", token.Error())
	}

	return nil
}

type discoverySensor struct {
	Name        string
	ID          string
	Unit        string
	DeviceClass string
}

const (
	unitTemperature = "{temperature}"
	unitSpeed       = "{speed}"
)

var discoverySensors = []discoverySensor{
	{"Temperature", "temperature", unitTemperature, "temperature"},
	{"Feels Like", "feels_like", unitTemperature, "temperature"},
	{"Humidity", "humidity", "%", "humidity"},
	{"Pressure", "pressure", "hPa", "atmospheric_pressure"},
	{"Wind Speed", "wind_speed", unitSpeed, "wind_speed"},
	{"Air Quality Index", "aqi", "", "aqi"},
	{"Day Phase", "phase", "", ""},
}

// unitFor substitutes the configured units into a sensor's unit placeholder.
func (p *Publisher) unitFor(sensor discoverySensor) string {
	temp, speed := weather.UnitSymbols(p.units)
	switch sensor.Unit {
	case unitTemperature:
		return temp
	case unitSpeed:
		return speed
	}
	return sensor.Unit
}

func (p *Publisher) PublishHomeAssistantDiscovery(city string) error {
	if !p.enabled {
		return nil
	}

	slug := Slug(city)
	for _, sensor := range discoverySensors {
		discoveryTopic := fmt.Sprintf("homeassistant/sensor/weather_%s/%s/config", slug, sensor.ID)

		config := map[string]interface{}{
			"name":        fmt.Sprintf("%s %s", city, sensor.Name),
			"unique_id":   fmt.Sprintf("weather_%s_%s", slug, sensor.ID),
			"state_topic": fmt.Sprintf("%s/%s/%s", p.topicPrefix, slug, sensor.ID),
			"device": map[string]interface{}{
				"identifiers":  []string{"weather_dashboard_" + slug},
				"name":         fmt.Sprintf("Weather %s", city),
				"manufacturer": "OpenWeatherMap",
				"model":        "weather-dashboard",
			},
		}
		if unit := p.unitFor(sensor); unit != "" {
			config["unit_of_measurement"] = unit
		}
		if sensor.DeviceClass != "" {
			config["device_class"] = sensor.DeviceClass
		}

		payload, _ := json.Marshal(config)
		token := p.client.Publish(discoveryTopic, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("Failed to publish discovery to %s: %v", discoveryTopic, token.Error())
		}
	}

	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
