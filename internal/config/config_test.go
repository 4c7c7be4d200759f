package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/crop-advisory/internal/advisory"
	"github.com/i474232898/crop-advisory/internal/agronomy"
	"github.com/i474232898/crop-advisory/internal/weather"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "HTTP_TIMEOUT", "FETCH_INTERVAL", "STORE_MAX_HISTORY", "STORE_MAX_AGE",
		"WEATHER_LOCATION_CITY", "UNKNOWN_STAGE_POLICY", "ANALYSIS_LANGUAGE",
		"ADVISORY_HOT_ABOVE_C", "ADVISORY_COLD_BELOW_C", "ADVISORY_HUMID_ABOVE_PCT",
		"ADVISORY_RAIN_ABOVE_MM", "ADVISORY_WIND_ABOVE_KPH",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 15*time.Minute, cfg.FetchInterval)
	assert.Equal(t, 96, cfg.StoreMaxHistory)
	assert.Equal(t, 24*time.Hour, cfg.StoreMaxAge)
	assert.Empty(t, cfg.Locations)
	assert.Equal(t, agronomy.StagePolicyStrict, cfg.UnknownStagePolicy)
	assert.Equal(t, advisory.DefaultThresholds(), cfg.Advisory)
	assert.Equal(t, "English", cfg.AnalysisLanguage)
	assert.False(t, cfg.EnvFileLoaded)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FETCH_INTERVAL", "30m")
	t.Setenv("WEATHER_LOCATION_CITY", "Ludhiana, Pune")
	t.Setenv("WEATHER_LOCATION_COUNTRY", "Punjab,Maharashtra")
	t.Setenv("UNKNOWN_STAGE_POLICY", "Neutral")
	t.Setenv("ADVISORY_HOT_ABOVE_C", "35.5")
	t.Setenv("ADVISORY_WIND_ABOVE_KPH", "0")
	t.Setenv("PLAN_MEMO_SIZE", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.FetchInterval)
	assert.Equal(t, []weather.Location{
		{City: "Ludhiana", Country: "Punjab"},
		{City: "Pune", Country: "Maharashtra"},
	}, cfg.Locations)
	assert.Equal(t, agronomy.StagePolicyNeutral, cfg.UnknownStagePolicy)
	assert.Equal(t, 35.5, cfg.Advisory.HotAboveC)
	assert.Zero(t, cfg.Advisory.WindAboveKph)
	assert.Zero(t, cfg.PlanMemoSize)
}

func TestLoad_CitiesWithoutCountries(t *testing.T) {
	t.Setenv("WEATHER_LOCATION_CITY", "Patna")
	t.Setenv("WEATHER_LOCATION_COUNTRY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []weather.Location{{City: "Patna"}}, cfg.Locations)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"bad interval":     {"FETCH_INTERVAL", "soon"},
		"short interval":   {"FETCH_INTERVAL", "10s"},
		"bad history":      {"STORE_MAX_HISTORY", "many"},
		"bad policy":       {"UNKNOWN_STAGE_POLICY", "lenient"},
		"bad threshold":    {"ADVISORY_COLD_BELOW_C", "cold"},
		"inverted":         {"ADVISORY_COLD_BELOW_C", "45"},
		"bad http timeout": {"HTTP_TIMEOUT", "-"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MismatchedLocations(t *testing.T) {
	t.Setenv("WEATHER_LOCATION_CITY", "Ludhiana,Pune")
	t.Setenv("WEATHER_LOCATION_COUNTRY", "Punjab")

	_, err := Load()
	assert.Error(t, err)
}
