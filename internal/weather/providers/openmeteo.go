package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/i474232898/crop-advisory/internal/weather"
	"github.com/kelvins/geocoder"
)

// GeocodeFunc resolves a location to latitude and longitude.
type GeocodeFunc func(loc weather.Location) (lat, lon float64, err error)

// GoogleGeocoder returns a GeocodeFunc backed by the Google Geocoding API.
// The underlying package keeps the key in a package variable, so only one key
// can be active per process.
func GoogleGeocoder(apiKey string) GeocodeFunc {
	geocoder.ApiKey = apiKey
	return func(loc weather.Location) (float64, float64, error) {
		res, err := geocoder.Geocoding(geocoder.Address{
			City:    loc.City,
			Country: loc.Country,
		})
		if err != nil {
			return 0, 0, fmt.Errorf("geocode %s: %w", loc, err)
		}
		return res.Latitude, res.Longitude, nil
	}
}

type coords struct{ lat, lon float64 }

// OpenMeteoProvider implements weather.ForecastProvider for Open-Meteo.
// Open-Meteo needs coordinates, so locations without Lat/Lon are geocoded
// once and cached.
type OpenMeteoProvider struct {
	endpoint
	geocode GeocodeFunc

	mu    sync.Mutex
	cache map[string]coords
}

func NewOpenMeteoProvider(client *http.Client, geocode GeocodeFunc) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		endpoint: newEndpoint("openmeteo", "https://api.open-meteo.com/v1/forecast", client),
		geocode:  geocode,
		cache:    make(map[string]coords),
	}
}

func (p *OpenMeteoProvider) coordinates(loc weather.Location) (coords, error) {
	if loc.Lat != nil && loc.Lon != nil {
		return coords{*loc.Lat, *loc.Lon}, nil
	}
	if p.geocode == nil {
		return coords{}, errors.New("openmeteo requires latitude and longitude")
	}

	p.mu.Lock()
	c, ok := p.cache[loc.Key()]
	p.mu.Unlock()
	if ok {
		return c, nil
	}

	lat, lon, err := p.geocode(loc)
	if err != nil {
		return coords{}, err
	}
	c = coords{lat, lon}

	p.mu.Lock()
	p.cache[loc.Key()] = c
	p.mu.Unlock()
	return c, nil
}

func (p *OpenMeteoProvider) get(ctx context.Context, loc weather.Location, values url.Values, out any) error {
	c, err := p.coordinates(loc)
	if err != nil {
		return err
	}
	values.Set("latitude", strconv.FormatFloat(c.lat, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(c.lon, 'f', 4, 64))
	values.Set("timezone", "UTC")
	values.Set("wind_speed_unit", "kmh")

	return p.getJSON(ctx, "", values, out)
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	var payload struct {
		Current struct {
			Time            string  `json:"time"`
			Temperature     float64 `json:"temperature_2m"`
			Humidity        float64 `json:"relative_humidity_2m"`
			Precipitation   float64 `json:"precipitation"`
			WindSpeed       float64 `json:"wind_speed_10m"`
			SurfacePressure float64 `json:"surface_pressure"`
			WeatherCode     int     `json:"weather_code"`
		} `json:"current"`
	}

	values := url.Values{}
	values.Set("current", "temperature_2m,relative_humidity_2m,precipitation,wind_speed_10m,surface_pressure,weather_code")
	if err := p.get(ctx, loc, values, &payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts, err := time.Parse("2006-01-02T15:04", payload.Current.Time)
	if err != nil {
		ts = time.Now()
	}

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts.UTC(),
		TemperatureC: payload.Current.Temperature,
		HumidityPct:  payload.Current.Humidity,
		WindKph:      payload.Current.WindSpeed,
		PressureHpa:  payload.Current.SurfacePressure,
		PrecipMm:     payload.Current.Precipitation,
		Condition:    mapOpenMeteoCondition(payload.Current.WeatherCode),
	}, nil
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) ([]weather.ProviderReading, error) {
	var payload struct {
		Daily struct {
			Time          []string  `json:"time"`
			TempMax       []float64 `json:"temperature_2m_max"`
			TempMin       []float64 `json:"temperature_2m_min"`
			HumidityMean  []float64 `json:"relative_humidity_2m_mean"`
			Precipitation []float64 `json:"precipitation_sum"`
			WindMax       []float64 `json:"wind_speed_10m_max"`
			WeatherCode   []int     `json:"weather_code"`
		} `json:"daily"`
	}

	values := url.Values{}
	values.Set("daily", "temperature_2m_max,temperature_2m_min,relative_humidity_2m_mean,precipitation_sum,wind_speed_10m_max,weather_code")
	values.Set("forecast_days", strconv.Itoa(days))
	if err := p.get(ctx, loc, values, &payload); err != nil {
		return nil, err
	}

	d := payload.Daily
	at := func(xs []float64, i int) float64 {
		if i < len(xs) {
			return xs[i]
		}
		return 0
	}

	out := make([]weather.ProviderReading, 0, len(d.Time))
	for i, day := range d.Time {
		ts, err := time.Parse(time.DateOnly, day)
		if err != nil {
			continue
		}
		code := -1
		if i < len(d.WeatherCode) {
			code = d.WeatherCode[i]
		}
		out = append(out, weather.ProviderReading{
			ProviderName: p.name,
			Timestamp:    ts.UTC(),
			TemperatureC: (at(d.TempMax, i) + at(d.TempMin, i)) / 2,
			HumidityPct:  at(d.HumidityMean, i),
			WindKph:      at(d.WindMax, i),
			PrecipMm:     at(d.Precipitation, i),
			Condition:    mapOpenMeteoCondition(code),
		})
	}
	return out, nil
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// WMO weather interpretation codes, simplified.
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
