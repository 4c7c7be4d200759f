// Package planner runs the fertilizer planning pipeline: resolve the region,
// find the growth stage, compute the NPK requirement and attach weather
// advisories when weather data is available.
package planner

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/crop-advisory/internal/advisory"
	"github.com/i474232898/crop-advisory/internal/agronomy"
	"github.com/i474232898/crop-advisory/internal/metrics"
	"github.com/i474232898/crop-advisory/internal/weather"
)

// WeatherSource supplies the latest known weather for a location.
type WeatherSource interface {
	GetLatest(loc weather.Location) (weather.WeatherSnapshot, error)
}

// Request is the input to Plan. A zero AsOf means today. Weather is optional;
// when nil the planner falls back to its WeatherSource, if any.
type Request struct {
	Crop       string
	SowingDate time.Time
	Location   string
	Acres      float64
	AsOf       time.Time
	Weather    *weather.WeatherSnapshot
}

// Plan is the computed recommendation for one field.
type Plan struct {
	ID         string    `json:"id"`
	Crop       string    `json:"crop"`
	Location   string    `json:"location"`
	Acres      float64   `json:"acres"`
	SowingDate time.Time `json:"sowingDate"`
	AsOf       time.Time `json:"asOf"`

	Region agronomy.Region `json:"region"`
	// RegionUnresolved is set when the location did not match any known city
	// and the default region was used instead.
	RegionUnresolved bool `json:"regionUnresolved"`

	Stage agronomy.StageStatus `json:"stage"`

	// Requirement is the total for the field in kg; PerAcre divides it back out.
	Requirement agronomy.NPK `json:"requirement"`
	PerAcre     agronomy.NPK `json:"perAcre"`

	Weather    *weather.WeatherSnapshot `json:"weather,omitempty"`
	Advisories []string                 `json:"advisories"`
}

// StageName is the name of the current growth stage.
func (p Plan) StageName() string { return p.Stage.Stage.Name }

type Planner struct {
	catalog *agronomy.Catalog
	regions *agronomy.RegionTable
	calc    *agronomy.Calculator
	advisor *advisory.Advisor

	weather WeatherSource
	memo    *requirementMemo
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures optional Planner collaborators.
type Option func(*Planner)

func WithWeatherSource(ws WeatherSource) Option {
	return func(p *Planner) { p.weather = ws }
}

// WithMemo caches up to size requirement results; size <= 0 disables caching.
func WithMemo(size int) Option {
	return func(p *Planner) { p.memo = newRequirementMemo(size) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Planner) { p.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// WithClock overrides the source of "today" for requests without AsOf.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

func New(catalog *agronomy.Catalog, regions *agronomy.RegionTable, calc *agronomy.Calculator, advisor *advisory.Advisor, opts ...Option) *Planner {
	p := &Planner{
		catalog: catalog,
		regions: regions,
		calc:    calc,
		advisor: advisor,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Planner) Catalog() *agronomy.Catalog { return p.catalog }
func (p *Planner) Regions() *agronomy.RegionTable { return p.regions }
func (p *Planner) Advisor() *advisory.Advisor { return p.advisor }
func (p *Planner) Policy() agronomy.UnknownStagePolicy { return p.calc.Policy() }

// Stage looks up the crop and returns its progress on asOf (today if zero).
func (p *Planner) Stage(crop string, sowing, asOf time.Time) (agronomy.CropProfile, agronomy.StageStatus, error) {
	profile, err := p.catalog.Lookup(crop)
	if err != nil {
		return agronomy.CropProfile{}, agronomy.StageStatus{}, err
	}
	if asOf.IsZero() {
		asOf = p.now()
	}
	st, err := agronomy.Progress(sowing, profile, asOf)
	if err != nil {
		return agronomy.CropProfile{}, agronomy.StageStatus{}, err
	}
	return profile, st, nil
}

// Requirement computes the NPK requirement for an explicit stage name,
// consulting the memo first.
func (p *Planner) Requirement(crop agronomy.CropProfile, region agronomy.Region, acres float64, stage string) (agronomy.NPK, error) {
	key := keyFor(crop, region, acres, stage)
	if v, ok := p.memo.get(key); ok {
		return v, nil
	}
	v, err := p.calc.RequirementFor(crop, region, acres, stage)
	if err != nil {
		return agronomy.NPK{}, err
	}
	p.memo.put(key, v)
	return v, nil
}

// Plan runs the full pipeline for one field.
func (p *Planner) Plan(req Request) (Plan, error) {
	start := time.Now()
	plan, err := p.plan(req)
	p.metrics.PlanComputed(outcome(err), time.Since(start))
	if err != nil {
		p.logger.Debug("plan rejected", zap.String("crop", req.Crop), zap.Error(err))
		return Plan{}, err
	}
	p.logger.Debug("plan computed",
		zap.String("id", plan.ID),
		zap.String("crop", plan.Crop),
		zap.String("stage", plan.StageName()),
		zap.String("region", string(plan.Region.ID)),
		zap.Bool("regionUnresolved", plan.RegionUnresolved))
	return plan, nil
}

func (p *Planner) plan(req Request) (Plan, error) {
	if req.AsOf.IsZero() {
		req.AsOf = p.now()
	}

	profile, err := p.catalog.Lookup(req.Crop)
	if err != nil {
		return Plan{}, err
	}

	res, err := p.regions.Resolve(req.Location)
	if err != nil {
		return Plan{}, err
	}
	if !res.Matched {
		p.logger.Warn("location not in region table; using default region",
			zap.String("location", req.Location),
			zap.String("region", string(res.Region.ID)))
	}

	st, err := agronomy.Progress(req.SowingDate, profile, req.AsOf)
	if err != nil {
		return Plan{}, err
	}

	total, err := p.Requirement(profile, res.Region, req.Acres, st.Stage.Name)
	if err != nil {
		return Plan{}, err
	}

	w := req.Weather
	if w == nil {
		w = p.latestWeather(req.Location)
	}

	return Plan{
		ID:               uuid.NewString(),
		Crop:             profile.Name(),
		Location:         req.Location,
		Acres:            req.Acres,
		SowingDate:       req.SowingDate,
		AsOf:             req.AsOf,
		Region:           res.Region,
		RegionUnresolved: !res.Matched,
		Stage:            st,
		Requirement:      total,
		PerAcre:          total.Scale(1 / req.Acres),
		Weather:          w,
		Advisories:       p.advisor.Advise(w),
	}, nil
}

// latestWeather returns nil when no source is configured or nothing is
// stored for the location; advisories are then simply omitted.
func (p *Planner) latestWeather(location string) *weather.WeatherSnapshot {
	if p.weather == nil {
		return nil
	}
	loc := weather.ParseLocation(location)
	snap, err := p.weather.GetLatest(loc)
	if err != nil {
		p.logger.Debug("no weather for location", zap.String("location", loc.Key()), zap.Error(err))
		return nil
	}
	return &snap
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, agronomy.ErrInvalidInput):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, agronomy.ErrUnknownCrop), errors.Is(err, agronomy.ErrUnknownStage):
		return metrics.OutcomeUnknown
	default:
		return metrics.OutcomeError
	}
}

// Summary renders a plan as a few human-readable lines.
func Summary(p Plan) string {
	s := fmt.Sprintf("%s on %.2f acres at %s (region %s", p.Crop, p.Acres, p.Location, p.Region.ID)
	if p.RegionUnresolved {
		s += ", location not recognised; default region used"
	}
	s += ")\n"
	s += fmt.Sprintf("Stage: %s (day %d since sowing", p.StageName(), p.Stage.ElapsedDays)
	switch {
	case p.Stage.SeasonComplete:
		s += ", season complete"
	case p.Stage.NextStage != "":
		s += fmt.Sprintf(", %d days until %s", p.Stage.DaysRemaining, p.Stage.NextStage)
	}
	s += ")\n"
	r := p.Requirement.Round(2)
	s += fmt.Sprintf("Fertilizer: N %.2f kg, P %.2f kg, K %.2f kg\n", r.N, r.P, r.K)
	for _, a := range p.Advisories {
		s += "- " + a + "\n"
	}
	return s
}
