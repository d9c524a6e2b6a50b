package weather

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/nathan-osman/go-sunrise"
)

const (
	demoDefaultCity = "delhi"
	demoForecastLen = 5
)

// demoData serves fixed readings when no API key is configured so the dashboard stays usable.
// Sun times are real, computed for the configured coordinates.
type demoData struct {
	city      string
	latitude  float64
	longitude float64
	now       func() time.Time
}

func newDemoData(city string, latitude, longitude float64, now func() time.Time) *demoData {
	city = strings.TrimSpace(city)
	if city == "" {
		city = demoDefaultCity
	}
	return &demoData{city: city, latitude: latitude, longitude: longitude, now: now}
}

// sunTimes falls back to 06:00-18:00 UTC during polar day or night, when no sunrise exists.
func (d *demoData) sunTimes(day time.Time) (time.Time, time.Time) {
	day = day.UTC()
	rise, set := sunrise.SunriseSunset(d.latitude, d.longitude, day.Year(), day.Month(), day.Day())
	if rise.IsZero() || set.IsZero() || !set.After(rise) {
		midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		return midnight.Add(6 * time.Hour), midnight.Add(18 * time.Hour)
	}
	return rise, set
}

func (d *demoData) current(city string) *Current {
	now := d.now()
	rise, set := d.sunTimes(now)

	return &Current{
		City:        displayName(city),
		Country:     "IN",
		Lat:         d.latitude,
		Lon:         d.longitude,
		Temp:        27.4,
		TempMin:     24.1,
		TempMax:     31.0,
		FeelsLike:   29.2,
		Humidity:    58,
		Pressure:    1009,
		WindSpeed:   3.6,
		WindDeg:     250,
		Visibility:  6000,
		Clouds:      20,
		Condition:   "Haze",
		Description: "haze",
		Sunrise:     rise.Unix(),
		Sunset:      set.Unix(),
		ObservedAt:  now.Unix(),
		Units:       "metric",
	}
}

func (d *demoData) airQuality() *AirQuality {
	return &AirQuality{
		AQI: 3,
		Components: map[string]float64{
			"co":    454.0,
			"no2":   21.6,
			"o3":    68.7,
			"pm2_5": 38.2,
			"pm10":  61.9,
		},
		MeasuredAt: d.now().Unix(),
	}
}

func (d *demoData) forecast() []ForecastDay {
	start := d.now().UTC().Truncate(24 * time.Hour).Add(12 * time.Hour)
	days := make([]ForecastDay, demoForecastLen)
	for i := range days {
		days[i] = ForecastDay{
			Time:        start.AddDate(0, 0, i).Unix(),
			Temp:        26 + float64(i),
			TempMin:     23 + float64(i),
			TempMax:     30 + float64(i),
			Humidity:    55 + 2*i,
			Condition:   "Clouds",
			Description: "scattered clouds",
		}
	}
	return days
}

func (d *demoData) location(lat, lon float64) *Location {
	return &Location{Name: displayName(d.city), Country: "IN", Lat: lat, Lon: lon}
}

func (d *demoData) named(name string) *Location {
	return &Location{Name: displayName(name), Country: "IN", Lat: d.latitude, Lon: d.longitude}
}

func displayName(city string) string {
	city = strings.TrimSpace(city)
	first, size := utf8.DecodeRuneInString(city)
	if first == utf8.RuneError {
		return city
	}
	return string(unicode.ToUpper(first)) + city[size:]
}
