package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/crop-advisory/internal/weather"
)

func fastHTTPConfig(c *http.Client) HTTPClientConfig {
	return HTTPClientConfig{
		Client: c,
		Backoff: BackoffConfig{
			MaxRetries:      2,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
	}
}

func TestDoRequestWithResilience_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resp, err := doRequestWithResilience(context.Background(), fastHTTPConfig(srv.Client()), newBreaker("t"),
		func() (*http.Request, error) { return http.NewRequest(http.MethodGet, srv.URL, nil) })
	require.NoError(t, err)
	resp.Body.Close()
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestDoRequestWithResilience_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := doRequestWithResilience(context.Background(), fastHTTPConfig(srv.Client()), newBreaker("t"),
		func() (*http.Request, error) { return http.NewRequest(http.MethodGet, srv.URL, nil) })
	assert.ErrorIs(t, err, errUnexpected)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestDoRequestWithResilience_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := doRequestWithResilience(context.Background(), fastHTTPConfig(srv.Client()), newBreaker("t"),
		func() (*http.Request, error) { return http.NewRequest(http.MethodGet, srv.URL, nil) })
	assert.ErrorIs(t, err, errRateLimited)
}

func TestDoRequestWithResilience_Config(t *testing.T) {
	build := func() (*http.Request, error) { return http.NewRequest(http.MethodGet, "http://example.invalid", nil) }

	_, err := doRequestWithResilience(context.Background(), HTTPClientConfig{}, newBreaker("t"), build)
	assert.ErrorIs(t, err, errNoHTTPClient)

	_, err = doRequestWithResilience(context.Background(), HTTPClientConfig{Client: http.DefaultClient}, newBreaker("t"), build)
	assert.ErrorIs(t, err, errInvalidConfig)
}

func TestOpenWeatherProvider_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Ludhiana, Punjab", r.URL.Query().Get("q"))
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`{
			"dt": 1717243200,
			"main": {"temp": 33.5, "humidity": 40, "pressure": 1002},
			"wind": {"speed": 5},
			"rain": {"3h": 1.5},
			"weather": [{"main": "Rain"}]
		}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret")
	p.baseURL = srv.URL
	p.httpCfg = fastHTTPConfig(srv.Client())

	r, err := p.Fetch(context.Background(), weather.Location{City: "Ludhiana", Country: "Punjab"})
	require.NoError(t, err)
	assert.Equal(t, "openweathermap", r.ProviderName)
	assert.Equal(t, 33.5, r.TemperatureC)
	assert.InDelta(t, 18.0, r.WindKph, 1e-9)
	assert.Equal(t, 1.5, r.PrecipMm)
	assert.Equal(t, weather.ConditionRain, r.Condition)
	assert.Equal(t, time.Unix(1717243200, 0).UTC(), r.Timestamp)
}

func TestOpenWeatherProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenWeatherProvider(http.DefaultClient, "").Fetch(context.Background(), weather.Location{City: "Pune"})
	assert.Error(t, err)
}

func TestWeatherAPIProvider_FetchForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast.json", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("days"))
		_, _ = w.Write([]byte(`{"forecast": {"forecastday": [
			{"date_epoch": 1717200000, "day": {"avgtemp_c": 31, "avghumidity": 85, "maxwind_kph": 20, "totalprecip_mm": 12, "condition": {"text": "Moderate rain"}}},
			{"date_epoch": 1717286400, "day": {"avgtemp_c": 28, "avghumidity": 60, "maxwind_kph": 10, "totalprecip_mm": 0, "condition": {"text": "Partly cloudy"}}}
		]}}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "k")
	p.baseURL = srv.URL
	p.httpCfg = fastHTTPConfig(srv.Client())

	readings, err := p.FetchForecast(context.Background(), weather.Location{City: "Patna"}, 2)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, weather.ConditionRain, readings[0].Condition)
	assert.Equal(t, 12.0, readings[0].PrecipMm)
	assert.Equal(t, weather.ConditionCloudy, readings[1].Condition)
}

func TestWeatherAPIProvider_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current.json", r.URL.Path)
		assert.Equal(t, "Patna,Bihar", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"location": {"localtime_epoch": 1717243200},
			"current": {"temp_c": 29, "humidity": 88, "wind_kph": 14.4, "pressure_mb": 1000, "precip_mm": 0.2,
			"condition": {"text": "Patchy light drizzle"}}}`))
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "k")
	p.baseURL = srv.URL
	p.httpCfg = fastHTTPConfig(srv.Client())

	r, err := p.Fetch(context.Background(), weather.Location{City: "Patna", Country: "Bihar"})
	require.NoError(t, err)
	assert.Equal(t, 14.4, r.WindKph)
	assert.Equal(t, 88.0, r.HumidityPct)
	assert.Equal(t, weather.ConditionRain, r.Condition)
}

func TestOpenMeteoProvider_GeocodesOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "30.9000", r.URL.Query().Get("latitude"))
		_, _ = w.Write([]byte(`{"current": {"time": "2024-06-01T12:00", "temperature_2m": 12,
			"relative_humidity_2m": 50, "precipitation": 0, "wind_speed_10m": 8, "surface_pressure": 990, "weather_code": 0}}`))
	}))
	defer srv.Close()

	var lookups int32
	geo := func(loc weather.Location) (float64, float64, error) {
		atomic.AddInt32(&lookups, 1)
		return 30.9, 75.85, nil
	}

	p := NewOpenMeteoProvider(srv.Client(), geo)
	p.baseURL = srv.URL
	p.httpCfg = fastHTTPConfig(srv.Client())

	loc := weather.Location{City: "Ludhiana", Country: "Punjab"}
	for i := 0; i < 2; i++ {
		r, err := p.Fetch(context.Background(), loc)
		require.NoError(t, err)
		assert.Equal(t, weather.ConditionClear, r.Condition)
		assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), r.Timestamp)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&lookups))
}

func TestOpenMeteoProvider_NeedsCoordinates(t *testing.T) {
	p := NewOpenMeteoProvider(http.DefaultClient, nil)
	_, err := p.Fetch(context.Background(), weather.Location{City: "Pune"})
	assert.Error(t, err)
}

func TestOpenMeteoProvider_FetchForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("forecast_days"))
		_, _ = w.Write([]byte(`{"daily": {
			"time": ["2024-06-01", "2024-06-02", "bad"],
			"temperature_2m_max": [34, 30, 0], "temperature_2m_min": [26, 20, 0],
			"relative_humidity_2m_mean": [70, 82, 0], "precipitation_sum": [0, 15, 0],
			"wind_speed_10m_max": [12, 40, 0], "weather_code": [1, 63, 0]}}`))
	}))
	defer srv.Close()

	lat, lon := 21.1, 79.0
	p := NewOpenMeteoProvider(srv.Client(), nil)
	p.baseURL = srv.URL
	p.httpCfg = fastHTTPConfig(srv.Client())

	readings, err := p.FetchForecast(context.Background(), weather.Location{City: "Nagpur", Lat: &lat, Lon: &lon}, 3)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 30.0, readings[0].TemperatureC)
	assert.Equal(t, weather.ConditionRain, readings[1].Condition)
	assert.Equal(t, 40.0, readings[1].WindKph)
}

func TestConditionMapping(t *testing.T) {
	assert.Equal(t, weather.ConditionStorm, mapWeatherAPICondition("Thundery outbreaks possible"))
	assert.Equal(t, weather.ConditionMist, mapWeatherAPICondition("Fog"))
	assert.Equal(t, weather.ConditionClear, mapWeatherAPICondition("Sunny"))
	assert.Equal(t, weather.ConditionUnknown, mapWeatherAPICondition(""))
	assert.Equal(t, weather.ConditionMist, mapOpenWeatherCondition("Haze"))
	assert.Equal(t, weather.ConditionSnow, mapOpenMeteoCondition(73))
	assert.Equal(t, weather.ConditionUnknown, mapOpenMeteoCondition(-1))
}
