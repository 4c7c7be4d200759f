package weather

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNoProviders is returned when the service has nothing to fetch from.
	ErrNoProviders = errors.New("no weather providers configured")

	// ErrNoForecast is returned when no provider produced forecast data.
	ErrNoForecast = errors.New("no forecast data available")
)

// Service orchestrates fetching from multiple providers and persisting snapshots.
type Service struct {
	store     Store
	providers []Provider
	logger    *zap.Logger
	failures  FailureRecorder
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithFailureRecorder registers a hook that is told about provider failures.
func WithFailureRecorder(r FailureRecorder) Option {
	return func(s *Service) { s.failures = r }
}

// NewService creates a new Service.
func NewService(store Store, providers []Provider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		providers: providers,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) providerFailed(name string, loc Location, err error) {
	s.logger.Warn("weather provider failed",
		zap.String("provider", name),
		zap.String("location", loc.Key()),
		zap.Error(err))
	if s.failures != nil {
		s.failures.ProviderFailed(name)
	}
}

// FetchAndStore fetches data from all providers concurrently for the given location,
// aggregates successful readings, and stores a snapshot.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) error {
	if len(s.providers) == 0 {
		return ErrNoProviders
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []ProviderReading
	)

	for _, p := range s.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()

			r, err := p.Fetch(ctx, loc)
			if err == nil {
				err = r.Check()
			}
			if err != nil {
				// Partial success is fine; keep whatever the others return.
				s.providerFailed(p.Name(), loc, err)
				return
			}

			mu.Lock()
			readings = append(readings, r)
			mu.Unlock()
		}(p)
	}

	wg.Wait()

	if len(readings) == 0 {
		// Do not overwrite the last good snapshot.
		s.logger.Warn("no successful provider readings; keeping last good snapshot",
			zap.String("location", loc.Key()))
		return nil
	}

	snapshot := AggregateReadings(loc, readings)
	s.store.SaveSnapshot(loc, snapshot)
	s.logger.Debug("stored weather snapshot",
		zap.String("location", loc.Key()),
		zap.Int("readings", len(readings)),
		zap.Float64("temperatureC", snapshot.Temperature))
	return nil
}

// GetForecast asks every ForecastProvider for the next days of weather and
// merges the answers per calendar day.
func (s *Service) GetForecast(ctx context.Context, loc Location, days int) (Forecast, error) {
	if days <= 0 {
		return nil, errors.New("days must be greater than zero")
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []ProviderReading
	)

	for _, p := range s.providers {
		fp, ok := p.(ForecastProvider)
		if !ok {
			continue
		}

		wg.Add(1)
		go func(fp ForecastProvider) {
			defer wg.Done()

			got, err := fp.FetchForecast(ctx, loc, days)
			if err != nil {
				s.providerFailed(fp.Name(), loc, err)
				return
			}

			kept := got[:0:0]
			for _, r := range got {
				if err := r.Check(); err != nil {
					s.providerFailed(fp.Name(), loc, err)
					continue
				}
				kept = append(kept, r)
			}

			mu.Lock()
			readings = append(readings, kept...)
			mu.Unlock()
		}(fp)
	}

	wg.Wait()

	if len(readings) == 0 {
		return nil, ErrNoForecast
	}
	return AggregateDaily(loc, readings, days), nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (WeatherSnapshot, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]WeatherSnapshot, error) {
	return s.store.GetRange(loc, from, to)
}

// Locations lists the locations that have stored weather.
func (s *Service) Locations() []Location {
	return s.store.Locations()
}
