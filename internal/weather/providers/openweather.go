package providers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/crop-advisory/internal/weather"
)

var errOpenWeatherKey = errors.New("openweather api key is not configured")

// owmCurrent is the subset of the /data/2.5/weather payload used for field advice.
type owmCurrent struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s with units=metric
	} `json:"wind"`
	Rain struct {
		OneH   float64 `json:"1h"`
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

func (c owmCurrent) reading(provider string) weather.ProviderReading {
	r := weather.ProviderReading{
		ProviderName: provider,
		Timestamp:    time.Now().UTC(),
		TemperatureC: c.Main.Temp,
		HumidityPct:  c.Main.Humidity,
		WindKph:      msToKph(c.Wind.Speed),
		PressureHpa:  c.Main.Pressure,
		PrecipMm:     c.Rain.OneH,
		Condition:    weather.ConditionUnknown,
	}
	if c.Dt > 0 {
		r.Timestamp = time.Unix(c.Dt, 0).UTC()
	}
	if r.PrecipMm == 0 {
		r.PrecipMm = c.Rain.ThreeH
	}
	if len(c.Weather) > 0 {
		r.Condition = mapOpenWeatherCondition(c.Weather[0].Main)
	}
	return r
}

func msToKph(ms float64) float64 { return ms * 3.6 }

// OpenWeatherProvider reads current conditions from OpenWeatherMap.
type OpenWeatherProvider struct {
	endpoint
	apiKey string
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		endpoint: newEndpoint("openweathermap", "https://api.openweathermap.org/data/2.5/weather", client),
		apiKey:   apiKey,
	}
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	if p.apiKey == "" {
		return weather.ProviderReading{}, errOpenWeatherKey
	}

	values := url.Values{"appid": {p.apiKey}, "units": {"metric"}}
	if loc.Lat != nil && loc.Lon != nil {
		values.Set("lat", strconv.FormatFloat(*loc.Lat, 'f', 4, 64))
		values.Set("lon", strconv.FormatFloat(*loc.Lon, 'f', 4, 64))
	} else {
		values.Set("q", loc.String())
	}

	var payload owmCurrent
	if err := p.getJSON(ctx, "", values, &payload); err != nil {
		return weather.ProviderReading{}, err
	}
	return payload.reading(p.name), nil
}

func mapOpenWeatherCondition(main string) weather.Condition {
	switch main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke", "Dust":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
