// Package server assembles the advisory components from configuration and
// runs the HTTP API with the weather prefetch scheduler.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/i474232898/crop-advisory/internal/advisory"
	"github.com/i474232898/crop-advisory/internal/agronomy"
	httpapi "github.com/i474232898/crop-advisory/internal/api/http"
	"github.com/i474232898/crop-advisory/internal/config"
	"github.com/i474232898/crop-advisory/internal/disease"
	"github.com/i474232898/crop-advisory/internal/metrics"
	"github.com/i474232898/crop-advisory/internal/planner"
	"github.com/i474232898/crop-advisory/internal/scheduler"
	"github.com/i474232898/crop-advisory/internal/store"
	"github.com/i474232898/crop-advisory/internal/weather"
	"github.com/i474232898/crop-advisory/internal/weather/providers"
)

// Server holds the wired components. Diseases is nil-safe: without an API key
// it reports ErrNotConfigured.
type Server struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Planner  *planner.Planner
	Weather  *weather.Service
	Diseases *disease.Analyzer
}

// New loads reference data and builds every component. It performs no
// network calls.
func New(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	catalog, err := agronomy.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load crop catalog: %w", err)
	}
	regions, err := agronomy.LoadRegionTableFile(cfg.RegionsPath)
	if err != nil {
		return nil, fmt.Errorf("load region table: %w", err)
	}

	m := metrics.New()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	weatherSvc := weather.NewService(memStore, weatherProviders(cfg, httpClient, log),
		weather.WithLogger(log.Named("weather")),
		weather.WithFailureRecorder(m))

	pl := planner.New(catalog, regions,
		agronomy.NewCalculator(cfg.UnknownStagePolicy),
		advisory.NewAdvisor(cfg.Advisory),
		planner.WithWeatherSource(weatherSvc),
		planner.WithMemo(cfg.PlanMemoSize),
		planner.WithMetrics(m),
		planner.WithLogger(log.Named("planner")))

	var gen disease.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := disease.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		gen = g
	} else {
		log.Info("GEMINI_API_KEY not set; disease analysis disabled")
	}
	analyzer := disease.NewAnalyzer(catalog, gen,
		disease.WithTimeout(cfg.AnalysisTimeout),
		disease.WithMetrics(m),
		disease.WithLogger(log.Named("disease")))

	log.Info("reference data loaded",
		zap.Int("crops", len(catalog.Names())),
		zap.Int("regions", len(regions.Regions())),
		zap.String("unknownStagePolicy", string(cfg.UnknownStagePolicy)))

	return &Server{
		Config:   cfg,
		Logger:   log,
		Metrics:  m,
		Planner:  pl,
		Weather:  weatherSvc,
		Diseases: analyzer,
	}, nil
}

// weatherProviders returns the providers that have the credentials they need.
func weatherProviders(cfg *config.AppConfig, client *http.Client, log *zap.Logger) []weather.Provider {
	var provs []weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey))
	}
	// Open-Meteo needs no key, but locations must be geocoded first.
	if cfg.GeocoderAPIKey != "" {
		provs = append(provs, providers.NewOpenMeteoProvider(client, providers.GoogleGeocoder(cfg.GeocoderAPIKey)))
	}
	if len(provs) == 0 {
		log.Warn("no weather provider credentials configured; advisories need client-supplied weather")
	}
	return provs
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               httpapi.ServiceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          s.Config.AnalysisTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler(s.Logger),
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Planner:         s.Planner,
		Weather:         s.Weather,
		Diseases:        s.Diseases,
		Metrics:         s.Metrics,
		DefaultLanguage: s.Config.AnalysisLanguage,
	})
	return app
}

// Run serves HTTP and runs the scheduler until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	sched := scheduler.New(s.Config.Locations, s.Config.FetchInterval, s.Weather, s.Logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := s.App()
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", zap.String("port", s.Config.Port))
		errCh <- app.Listen(":" + s.Config.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.Logger.Info("server stopped")
	return nil
}
