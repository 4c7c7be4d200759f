package weather

import (
	"sort"
	"time"
)

// tally accumulates provider readings for one location and period.
type tally struct {
	n        int
	temp     float64
	humidity float64
	wind     float64
	pressure float64
	precip   float64

	votes   map[Condition]int
	order   []Condition
	newest  time.Time
	sources []ProviderContribution
}

func (t *tally) add(r ProviderReading) {
	if t.votes == nil {
		t.votes = make(map[Condition]int)
	}
	t.n++
	t.temp += r.TemperatureC
	t.humidity += r.HumidityPct
	t.wind += r.WindKph
	t.pressure += r.PressureHpa
	t.precip += r.PrecipMm

	if t.votes[r.Condition] == 0 {
		t.order = append(t.order, r.Condition)
	}
	t.votes[r.Condition]++

	if r.Timestamp.After(t.newest) {
		t.newest = r.Timestamp
	}
	t.sources = append(t.sources, ProviderContribution{ProviderName: r.ProviderName, Timestamp: r.Timestamp})
}

// condition is the most reported condition. Ties go to the one reported first.
func (t *tally) condition() Condition {
	best, count := ConditionUnknown, 0
	for _, c := range t.order {
		if t.votes[c] > count {
			best, count = c, t.votes[c]
		}
	}
	return best
}

func (t *tally) snapshot(loc Location, at time.Time) WeatherSnapshot {
	snap := WeatherSnapshot{
		Location:  loc,
		Timestamp: at,
		Condition: t.condition(),
		Providers: t.sources,
	}
	if t.n == 0 {
		return snap
	}
	n := float64(t.n)
	snap.Temperature = t.temp / n
	snap.Humidity = t.humidity / n
	snap.WindKph = t.wind / n
	snap.Pressure = t.pressure / n
	snap.PrecipMM = t.precip / n
	return snap
}

// AggregateReadings merges current readings from several providers into one
// snapshot stamped with the newest reading time. Numeric fields are averaged.
func AggregateReadings(loc Location, readings []ProviderReading) WeatherSnapshot {
	var t tally
	for _, r := range readings {
		t.add(r)
	}
	at := t.newest
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return t.snapshot(loc, at)
}

// AggregateDaily buckets forecast readings by UTC calendar day and merges each
// bucket like AggregateReadings. Each entry is stamped with midnight of its
// day; at most days entries are returned, earliest first.
func AggregateDaily(loc Location, readings []ProviderReading, days int) Forecast {
	byDay := make(map[time.Time]*tally)
	for _, r := range readings {
		ts := r.Timestamp.UTC()
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		t, ok := byDay[day]
		if !ok {
			t = &tally{}
			byDay[day] = t
		}
		t.add(r)
	}

	dates := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if days > 0 && len(dates) > days {
		dates = dates[:days]
	}

	out := make(Forecast, 0, len(dates))
	for _, d := range dates {
		out = append(out, byDay[d].snapshot(loc, d))
	}
	return out
}
