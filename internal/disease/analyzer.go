// Package disease asks a generative model for the common diseases of a crop.
package disease

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/crop-advisory/internal/agronomy"
	"github.com/i474232898/crop-advisory/internal/metrics"
)

var (
	// ErrNotConfigured is returned when no model is configured, typically
	// because GEMINI_API_KEY is unset.
	ErrNotConfigured = errors.New("disease analysis is not configured")

	// ErrUnavailable is returned while the model circuit breaker is open.
	ErrUnavailable = errors.New("disease analysis temporarily unavailable")

	// ErrEmptyAnalysis is returned when the model answers with no text.
	ErrEmptyAnalysis = errors.New("model returned an empty analysis")
)

// DefaultLanguage is used when the caller does not ask for one.
const DefaultLanguage = "English"

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analysis is the model's disease report for one crop.
type Analysis struct {
	Crop     string `json:"crop"`
	Language string `json:"language"`
	Text     string `json:"text"`

	// Narration is Text without markdown emphasis, ready to hand to a speech
	// synthesizer.
	Narration   string    `json:"narration"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type Analyzer struct {
	catalog *agronomy.Catalog
	gen     Generator
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration

	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Analyzer)

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithTimeout bounds each model call. Zero leaves only the caller's deadline.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// NewAnalyzer returns an analyzer for crops in catalog. gen may be nil, in
// which case every call fails with ErrNotConfigured.
func NewAnalyzer(catalog *agronomy.Catalog, gen Generator, opts ...Option) *Analyzer {
	a := &Analyzer{
		catalog: catalog,
		gen:     gen,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "disease-model",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 3 },
		}),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Configured reports whether a model is available.
func (a *Analyzer) Configured() bool { return a.gen != nil }

// Analyze returns the common diseases of crop, written in language.
func (a *Analyzer) Analyze(ctx context.Context, crop, language string) (Analysis, error) {
	res, err := a.analyze(ctx, crop, language)
	a.metrics.AnalysisCompleted(outcome(err))
	return res, err
}

func (a *Analyzer) analyze(ctx context.Context, crop, language string) (Analysis, error) {
	profile, err := a.catalog.Lookup(crop)
	if err != nil {
		return Analysis{}, err
	}
	if a.gen == nil {
		return Analysis{}, ErrNotConfigured
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := a.now()
	out, err := a.cb.Execute(func() (interface{}, error) {
		return a.gen.Generate(ctx, Prompt(profile.Name(), language))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Analysis{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		a.logger.Warn("disease analysis failed", zap.String("crop", profile.Name()), zap.Error(err))
		return Analysis{}, fmt.Errorf("analyze %s: %w", profile.Name(), err)
	}

	text := strings.TrimSpace(out.(string))
	if text == "" {
		return Analysis{}, fmt.Errorf("analyze %s: %w", profile.Name(), ErrEmptyAnalysis)
	}

	a.logger.Info("disease analysis generated",
		zap.String("crop", profile.Name()),
		zap.String("language", language),
		zap.Duration("took", a.now().Sub(start)))

	return Analysis{
		Crop:        profile.Name(),
		Language:    language,
		Text:        text,
		Narration:   Narration(text),
		GeneratedAt: a.now().UTC(),
	}, nil
}

// Prompt builds the model prompt for crop.
func Prompt(crop, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze and provide detailed information about common diseases in %s cultivation.\n", crop)
	b.WriteString("For each disease, include:\n")
	b.WriteString("1. Disease name\n")
	b.WriteString("2. Symptoms\n")
	b.WriteString("3. Favorable conditions\n")
	b.WriteString("4. Prevention methods\n")
	b.WriteString("5. Treatment options\n\n")
	b.WriteString("Format the response in a clear, structured way.\n")
	if !strings.EqualFold(language, DefaultLanguage) {
		fmt.Fprintf(&b, "Write the entire response in %s.\n", language)
	}
	return b.String()
}

// Narration strips markdown asterisks from text.
func Narration(text string) string {
	return strings.ReplaceAll(text, "*", "")
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, agronomy.ErrInvalidInput):
		return metrics.OutcomeInvalidInput
	case errors.Is(err, agronomy.ErrUnknownCrop):
		return metrics.OutcomeUnknown
	case errors.Is(err, ErrNotConfigured), errors.Is(err, ErrUnavailable):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}
