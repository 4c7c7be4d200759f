package weather

import (
	"context"
	"fmt"
	"math"
	"time"
)

// ProviderReading is one provider's answer for a location, already converted
// to metric units: °C, %, km/h, hPa and mm.
type ProviderReading struct {
	ProviderName string
	Timestamp    time.Time

	TemperatureC float64
	HumidityPct  float64
	WindKph      float64
	PressureHpa  float64
	PrecipMm     float64
	Condition    Condition
}

// Check rejects readings that would skew field advisories: non-finite
// numbers, humidity outside 0-100 and negative rain or wind.
func (r ProviderReading) Check() error {
	for name, v := range map[string]float64{
		"temperature": r.TemperatureC,
		"humidity":    r.HumidityPct,
		"wind":        r.WindKph,
		"pressure":    r.PressureHpa,
		"precip":      r.PrecipMm,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s reading from %s is not a number", name, r.ProviderName)
		}
	}
	switch {
	case r.HumidityPct < 0 || r.HumidityPct > 100:
		return fmt.Errorf("humidity %.1f%% from %s is out of range", r.HumidityPct, r.ProviderName)
	case r.PrecipMm < 0:
		return fmt.Errorf("negative precipitation from %s", r.ProviderName)
	case r.WindKph < 0:
		return fmt.Errorf("negative wind speed from %s", r.ProviderName)
	}
	return nil
}

// Provider is a source of current conditions (OpenWeatherMap, WeatherAPI.com, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (ProviderReading, error)
}

// ForecastProvider is a Provider that can also return one reading per day
// for the next few days.
type ForecastProvider interface {
	Provider
	FetchForecast(ctx context.Context, loc Location, days int) ([]ProviderReading, error)
}

// Store keeps snapshot history per location.
type Store interface {
	SaveSnapshot(loc Location, snapshot WeatherSnapshot)
	GetLatest(loc Location) (WeatherSnapshot, error)
	GetRange(loc Location, from, to time.Time) ([]WeatherSnapshot, error)
	Locations() []Location
}

// FailureRecorder is told the provider name whenever a call fails or
// returns a reading that fails Check.
type FailureRecorder interface {
	ProviderFailed(provider string)
}
