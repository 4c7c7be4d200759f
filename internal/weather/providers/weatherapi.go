package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/crop-advisory/internal/common"
	"github.com/i474232898/crop-advisory/internal/weather"
)

// WeatherAPIProvider implements weather.ForecastProvider for WeatherAPI.com.
type WeatherAPIProvider struct {
	endpoint
	apiKey string
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		endpoint: newEndpoint("weatherapi", "https://api.weatherapi.com/v1", client),
		apiKey:   apiKey,
	}
}

// query builds the "q" parameter; WeatherAPI accepts "city,country" or "lat,lon".
func (p *WeatherAPIProvider) query(loc weather.Location) string {
	if loc.Lat != nil && loc.Lon != nil {
		return fmt.Sprintf("%f,%f", *loc.Lat, *loc.Lon)
	}
	if loc.Country != "" {
		return loc.City + "," + loc.Country
	}
	return loc.City
}

func (p *WeatherAPIProvider) get(ctx context.Context, path string, values url.Values, out any) error {
	if p.apiKey == "" {
		return errors.New("weatherapi api key is not configured")
	}
	values.Set("key", p.apiKey)
	return p.getJSON(ctx, path, values, out)
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.ProviderReading, error) {
	var payload struct {
		Location struct {
			LocaltimeEpoch int64 `json:"localtime_epoch"`
		} `json:"location"`
		Current struct {
			TempC      float64 `json:"temp_c"`
			Humidity   float64 `json:"humidity"`
			WindKph    float64 `json:"wind_kph"`
			PressureMb float64 `json:"pressure_mb"`
			PrecipMm   float64 `json:"precip_mm"`
			Condition  struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	values := url.Values{}
	values.Set("q", p.query(loc))
	if err := p.get(ctx, "/current.json", values, &payload); err != nil {
		return weather.ProviderReading{}, err
	}

	ts := time.Now().UTC()
	if payload.Location.LocaltimeEpoch > 0 {
		ts = time.Unix(payload.Location.LocaltimeEpoch, 0).UTC()
	}

	return weather.ProviderReading{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: payload.Current.TempC,
		HumidityPct:  payload.Current.Humidity,
		WindKph:      payload.Current.WindKph,
		PressureHpa:  payload.Current.PressureMb,
		PrecipMm:     payload.Current.PrecipMm,
		Condition:    mapWeatherAPICondition(payload.Current.Condition.Text),
	}, nil
}

// FetchForecast returns one reading per day built from WeatherAPI's daily
// summary (average temperature and humidity, peak wind, total rain).
func (p *WeatherAPIProvider) FetchForecast(ctx context.Context, loc weather.Location, days int) ([]weather.ProviderReading, error) {
	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				DateEpoch int64 `json:"date_epoch"`
				Day       struct {
					AvgTempC     float64 `json:"avgtemp_c"`
					AvgHumidity  float64 `json:"avghumidity"`
					MaxWindKph   float64 `json:"maxwind_kph"`
					TotalPrecipM float64 `json:"totalprecip_mm"`
					Condition    struct {
						Text string `json:"text"`
					} `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	values := url.Values{}
	values.Set("q", p.query(loc))
	values.Set("days", strconv.Itoa(days))
	if err := p.get(ctx, "/forecast.json", values, &payload); err != nil {
		return nil, err
	}

	out := make([]weather.ProviderReading, 0, len(payload.Forecast.ForecastDay))
	for _, d := range payload.Forecast.ForecastDay {
		out = append(out, weather.ProviderReading{
			ProviderName: p.name,
			Timestamp:    time.Unix(d.DateEpoch, 0).UTC(),
			TemperatureC: d.Day.AvgTempC,
			HumidityPct:  d.Day.AvgHumidity,
			WindKph:      d.Day.MaxWindKph,
			PrecipMm:     d.Day.TotalPrecipM,
			Condition:    mapWeatherAPICondition(d.Day.Condition.Text),
		})
	}
	return out, nil
}

func mapWeatherAPICondition(text string) weather.Condition {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return weather.ConditionUnknown
	case common.HasAny(t, "thunder", "storm"):
		return weather.ConditionStorm
	case common.HasAny(t, "snow", "sleet", "blizzard", "ice pellets"):
		return weather.ConditionSnow
	case common.HasAny(t, "rain", "shower", "drizzle"):
		return weather.ConditionRain
	case common.HasAny(t, "mist", "fog"):
		return weather.ConditionMist
	case common.HasAny(t, "cloud", "overcast"):
		return weather.ConditionCloudy
	case common.HasAny(t, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
