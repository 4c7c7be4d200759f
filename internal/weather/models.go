package weather

import (
	"strings"
	"time"

	"github.com/i474232898/crop-advisory/internal/common"
)

// Condition is the coarse sky state reported alongside a snapshot. Field
// advice is driven by the numeric readings; Condition is informational.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Location represents a place whose weather feeds field advisories.
// City must be provided; Country may hold a state or country name.
// Lat/Lon are optional and filled in by geocoding when a provider needs them.
type Location struct {
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// ParseLocation splits free text such as "Ludhiana, Punjab" on the first
// comma into City and Country.
func ParseLocation(s string) Location {
	city, rest, _ := strings.Cut(s, ",")
	return Location{City: strings.TrimSpace(city), Country: strings.TrimSpace(rest)}
}

// Key returns a canonical string key for indexing this location in stores.
// It is case-insensitive so "Pune" and "pune" share history.
func (l Location) Key() string {
	return common.NormalizeKey(l.City) + ":" + common.NormalizeKey(l.Country)
}

func (l Location) String() string {
	if l.Country == "" {
		return l.City
	}
	return l.City + ", " + l.Country
}

// WeatherSnapshot is the weather at one place and time, in the units the
// advisory rules use: °C, relative humidity %, km/h, hPa and mm of rain.
type WeatherSnapshot struct {
	Location    Location  `json:"location"`
	Timestamp   time.Time `json:"timestamp"` // UTC
	Temperature float64   `json:"temperatureC"`
	Humidity    float64   `json:"humidityPercent"`
	WindKph     float64   `json:"windKph"`
	Pressure    float64   `json:"pressureHpa"`
	PrecipMM    float64   `json:"precipMm"`
	Condition   Condition `json:"condition"`

	Providers []ProviderContribution `json:"providers,omitempty"`
}

// Forecast holds one snapshot per day, earliest first.
type Forecast []WeatherSnapshot

// ProviderContribution records which provider answered and when.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
}
