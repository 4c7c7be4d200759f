// Package advisory turns a weather snapshot into short field recommendations.
package advisory

import (
	"fmt"

	"github.com/i474232898/crop-advisory/internal/weather"
)

// Thresholds configure when each rule fires. A zero RainAboveMM or
// WindAboveKph disables that rule.
type Thresholds struct {
	HotAboveC     float64 `json:"hotAboveC"`
	ColdBelowC    float64 `json:"coldBelowC"`
	HumidAbovePct float64 `json:"humidAbovePct"`
	RainAboveMM   float64 `json:"rainAboveMm"`
	WindAboveKph  float64 `json:"windAboveKph"`
}

// DefaultThresholds returns the stock rule set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HotAboveC:     30,
		ColdBelowC:    15,
		HumidAbovePct: 80,
		RainAboveMM:   10,
		WindAboveKph:  30,
	}
}

// Validate rejects threshold sets that can never make sense.
func (t Thresholds) Validate() error {
	if t.ColdBelowC > t.HotAboveC {
		return fmt.Errorf("cold threshold %.1f°C is above hot threshold %.1f°C", t.ColdBelowC, t.HotAboveC)
	}
	if t.HumidAbovePct < 0 || t.HumidAbovePct > 100 {
		return fmt.Errorf("humidity threshold %.1f%% is outside 0-100", t.HumidAbovePct)
	}
	if t.RainAboveMM < 0 || t.WindAboveKph < 0 {
		return fmt.Errorf("rain and wind thresholds must not be negative")
	}
	return nil
}

// Kind identifies which rule produced an advisory.
type Kind string

const (
	KindHeat     Kind = "heat"
	KindCold     Kind = "cold"
	KindHumidity Kind = "humidity"
	KindRain     Kind = "rain"
	KindWind     Kind = "wind"
)

// Advisory is one triggered recommendation.
type Advisory struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Advisor evaluates weather snapshots against a fixed set of thresholds.
type Advisor struct {
	t Thresholds
}

func NewAdvisor(t Thresholds) *Advisor {
	return &Advisor{t: t}
}

func (a *Advisor) Thresholds() Thresholds { return a.t }

// Evaluate returns every advisory whose rule fires, in a fixed rule order.
// A nil snapshot means weather is unavailable and yields no advisories.
func (a *Advisor) Evaluate(w *weather.WeatherSnapshot) []Advisory {
	if w == nil {
		return nil
	}
	var out []Advisory
	if w.Temperature > a.t.HotAboveC {
		out = append(out, Advisory{KindHeat, fmt.Sprintf(
			"High temperature (%.1f°C): increase irrigation frequency and water early in the morning or evening.",
			w.Temperature)})
	}
	if w.Temperature < a.t.ColdBelowC {
		out = append(out, Advisory{KindCold, fmt.Sprintf(
			"Low temperature (%.1f°C): take protective measures such as mulching or covers against cold stress.",
			w.Temperature)})
	}
	if w.Humidity > a.t.HumidAbovePct {
		out = append(out, Advisory{KindHumidity, fmt.Sprintf(
			"High humidity (%.0f%%): elevated fungal disease risk; improve ventilation and monitor leaves closely.",
			w.Humidity)})
	}
	if a.t.RainAboveMM > 0 && w.PrecipMM > a.t.RainAboveMM {
		out = append(out, Advisory{KindRain, fmt.Sprintf(
			"Heavy rain (%.1f mm): ensure field drainage and postpone fertilizer application to avoid runoff.",
			w.PrecipMM)})
	}
	if a.t.WindAboveKph > 0 && w.WindKph > a.t.WindAboveKph {
		out = append(out, Advisory{KindWind, fmt.Sprintf(
			"Strong wind (%.0f km/h): postpone spraying and stake tall or fruiting plants.",
			w.WindKph)})
	}
	return out
}

// Advise returns only the advisory messages.
func (a *Advisor) Advise(w *weather.WeatherSnapshot) []string {
	advisories := a.Evaluate(w)
	if len(advisories) == 0 {
		return nil
	}
	msgs := make([]string, len(advisories))
	for i, adv := range advisories {
		msgs[i] = adv.Message
	}
	return msgs
}
