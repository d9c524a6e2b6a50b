package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-dashboard/internal/dashboard"
	"weather-dashboard/internal/dayphase"
	"weather-dashboard/internal/weather"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Error() error                   { return nil }

func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type message struct {
	retained bool
	payload  interface{}
}

// fakeClient records publishes; any other method panics through the nil embed.
type fakeClient struct {
	mqtt.Client
	published map[string]message
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.published[topic] = message{retained: retained, payload: payload}
	return doneToken{}
}

func (f *fakeClient) IsConnected() bool { return true }

func testSnapshot() *dashboard.Snapshot {
	window := dayphase.DayWindow{Sunrise: 1700000000, Sunset: 1700043200}
	return &dashboard.Snapshot{
		City:       "New Delhi",
		Now:        1700021600,
		Current:    &weather.Current{City: "New Delhi", Temp: 24.5, Humidity: 40},
		AirQuality: &weather.AirQuality{AQI: 3},
		Background: dashboard.ResolveBackground(1700021600, window, dayphase.Dark),
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Delhi":          "delhi",
		"  New Delhi ":   "new-delhi",
		"São Paulo":      "s-o-paulo",
		"St. John's, NL": "st-john-s-nl",
		"":               "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slug(in), "input %q", in)
	}
}

func TestDisabledPublisherIsNoop(t *testing.T) {
	p, err := NewPublisher(PublisherConfig{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, p.Publish(testSnapshot()))
	assert.NoError(t, p.PublishHomeAssistantDiscovery("Delhi"))
	assert.False(t, p.IsConnected())
	p.Close()
}

func TestPublishSnapshot(t *testing.T) {
	client := &fakeClient{published: map[string]message{}}
	p := newPublisher(client, "", "")

	require.NoError(t, p.Publish(testSnapshot()))

	assert.Equal(t, "afternoon", client.published["weather/new-delhi/phase"].payload)
	assert.Equal(t, "24.5", client.published["weather/new-delhi/temperature"].payload)
	assert.Equal(t, "3", client.published["weather/new-delhi/aqi"].payload)
	assert.False(t, client.published["weather/new-delhi/phase"].retained)

	status, ok := client.published["weather/new-delhi/status"]
	require.True(t, ok)
	assert.True(t, status.retained)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(status.payload.([]byte), &decoded))
	assert.Equal(t, "New Delhi", decoded["city"])
	background := decoded["background"].(map[string]interface{})
	assert.Equal(t, "afternoon", background["phase"])
	assert.Equal(t, true, background["resolved"])
}

func TestPublishUnresolvedSnapshotHasNoPhase(t *testing.T) {
	client := &fakeClient{published: map[string]message{}}
	p := newPublisher(client, "", "")

	snap := testSnapshot()
	snap.Background = dashboard.ResolveBackground(1700021600, dayphase.DayWindow{Sunrise: 1700043200, Sunset: 1700000000}, dayphase.Dark)
	require.False(t, snap.Background.Resolved)
	require.NoError(t, p.Publish(snap))

	assert.NotContains(t, client.published, "weather/new-delhi/phase")
	assert.Equal(t, dayphase.Neutral().CSS(), client.published["weather/new-delhi/background"].payload)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(client.published["weather/new-delhi/status"].payload.([]byte), &decoded))
	background := decoded["background"].(map[string]interface{})
	assert.NotContains(t, background, "phase")
	assert.NotContains(t, background, "icon")
	assert.Equal(t, false, background["resolved"])
}

func TestPublishHomeAssistantDiscoveryImperial(t *testing.T) {
	client := &fakeClient{published: map[string]message{}}
	p := newPublisher(client, "", "imperial")
	require.NoError(t, p.PublishHomeAssistantDiscovery("Denver"))

	units := map[string]string{
		"temperature": "°F",
		"feels_like":  "°F",
		"wind_speed":  "mph",
		"pressure":    "hPa",
	}
	for id, want := range units {
		var config map[string]interface{}
		msg := client.published["homeassistant/sensor/weather_denver/"+id+"/config"]
		require.NoError(t, json.Unmarshal(msg.payload.([]byte), &config))
		assert.Equal(t, want, config["unit_of_measurement"], "sensor %s", id)
	}
}

func TestPublishHomeAssistantDiscovery(t *testing.T) {
	client := &fakeClient{published: map[string]message{}}
	p := newPublisher(client, "wx", "")

	require.NoError(t, p.PublishHomeAssistantDiscovery("Delhi"))
	assert.Len(t, client.published, len(discoverySensors))

	msg, ok := client.published["homeassistant/sensor/weather_delhi/temperature/config"]
	require.True(t, ok)
	assert.True(t, msg.retained)

	var config map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.payload.([]byte), &config))
	assert.Equal(t, "wx/delhi/temperature", config["state_topic"])
	assert.Equal(t, "°C", config["unit_of_measurement"])

	var windConfig map[string]interface{}
	wind := client.published["homeassistant/sensor/weather_delhi/wind_speed/config"]
	require.NoError(t, json.Unmarshal(wind.payload.([]byte), &windConfig))
	assert.Equal(t, "m/s", windConfig["unit_of_measurement"])

	var phaseConfig map[string]interface{}
	phase := client.published["homeassistant/sensor/weather_delhi/phase/config"]
	require.NoError(t, json.Unmarshal(phase.payload.([]byte), &phaseConfig))
	assert.NotContains(t, phaseConfig, "device_class")
}

func TestPublishNilSnapshot(t *testing.T) {
	client := &fakeClient{published: map[string]message{}}
	p := newPublisher(client, "weather", "metric")
	assert.NoError(t, p.Publish(nil))
	assert.Empty(t, client.published)
	assert.True(t, p.IsConnected())
}
