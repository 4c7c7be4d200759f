package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/crop-advisory/internal/advisory"
	"github.com/i474232898/crop-advisory/internal/agronomy"
	"github.com/i474232898/crop-advisory/internal/weather"
)

type AppConfig struct {
	Port        string
	HTTPTimeout time.Duration
	LogLevel    string

	OpenWeatherAPIKey string
	WeatherAPIKey     string
	// GeocoderAPIKey enables the Open-Meteo provider, which needs coordinates.
	GeocoderAPIKey string

	// FetchInterval controls how often we fetch data for each location.
	FetchInterval time.Duration

	// Locations to track.
	Locations []weather.Location

	// In-memory store retention.
	StoreMaxHistory int           // max number of snapshots per location (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	// Reference data overrides; empty means the built-in tables.
	CatalogPath string
	RegionsPath string

	UnknownStagePolicy agronomy.UnknownStagePolicy
	Advisory           advisory.Thresholds
	PlanMemoSize       int

	GeminiAPIKey     string
	GeminiModel      string
	AnalysisLanguage string
	AnalysisTimeout  time.Duration

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

// Load reads configuration from the environment, after applying an optional
// .env file, with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	} else {
		cfg.EnvFileLoaded = true
	}

	var err error
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.FetchInterval < time.Minute {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: must be at least 1m, got %s", cfg.FetchInterval)
	}

	// Roughly 24h at 15-minute intervals.
	if cfg.StoreMaxHistory, err = getenvInt("STORE_MAX_HISTORY", 96); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.Locations, err = loadLocations(); err != nil {
		return nil, err
	}

	cfg.CatalogPath = os.Getenv("CATALOG_PATH")
	cfg.RegionsPath = os.Getenv("REGIONS_PATH")

	if cfg.UnknownStagePolicy, err = agronomy.ParseUnknownStagePolicy(os.Getenv("UNKNOWN_STAGE_POLICY")); err != nil {
		return nil, fmt.Errorf("invalid UNKNOWN_STAGE_POLICY: %w", err)
	}
	if cfg.Advisory, err = loadThresholds(); err != nil {
		return nil, err
	}
	if cfg.PlanMemoSize, err = getenvInt("PLAN_MEMO_SIZE", 1024); err != nil {
		return nil, err
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = os.Getenv("GEMINI_MODEL")
	cfg.AnalysisLanguage = getenvDefault("ANALYSIS_LANGUAGE", "English")
	if cfg.AnalysisTimeout, err = getenvDuration("ANALYSIS_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadThresholds() (advisory.Thresholds, error) {
	t := advisory.DefaultThresholds()
	fields := []struct {
		key string
		dst *float64
	}{
		{"ADVISORY_HOT_ABOVE_C", &t.HotAboveC},
		{"ADVISORY_COLD_BELOW_C", &t.ColdBelowC},
		{"ADVISORY_HUMID_ABOVE_PCT", &t.HumidAbovePct},
		{"ADVISORY_RAIN_ABOVE_MM", &t.RainAboveMM},
		{"ADVISORY_WIND_ABOVE_KPH", &t.WindAboveKph},
	}
	for _, f := range fields {
		v, err := getenvFloat(f.key, *f.dst)
		if err != nil {
			return advisory.Thresholds{}, err
		}
		*f.dst = v
	}
	if err := t.Validate(); err != nil {
		return advisory.Thresholds{}, fmt.Errorf("invalid advisory thresholds: %w", err)
	}
	return t, nil
}

// loadLocations pairs the comma-separated WEATHER_LOCATION_CITY and
// WEATHER_LOCATION_COUNTRY lists. An empty city list means no tracked
// locations.
func loadLocations() ([]weather.Location, error) {
	city := strings.TrimSpace(os.Getenv("WEATHER_LOCATION_CITY"))
	if city == "" {
		return nil, nil
	}
	cities := strings.Split(city, ",")

	var countries []string
	if country := strings.TrimSpace(os.Getenv("WEATHER_LOCATION_COUNTRY")); country != "" {
		countries = strings.Split(country, ",")
	}
	if len(countries) != 0 && len(cities) != len(countries) {
		return nil, fmt.Errorf("number of cities and countries must be the same")
	}

	var locs []weather.Location
	for i := range cities {
		loc := weather.Location{City: strings.TrimSpace(cities[i])}
		if loc.City == "" {
			return nil, fmt.Errorf("WEATHER_LOCATION_CITY entry %d is empty", i+1)
		}
		if len(countries) != 0 {
			loc.Country = strings.TrimSpace(countries[i])
		}
		locs = append(locs, loc)
	}

	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
