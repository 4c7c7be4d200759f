package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/crop-advisory/internal/weather"
)

// ErrNotFound is returned when no data is available for a given location.
var ErrNotFound = errors.New("no weather data for location")

// track is the snapshot history of one location, oldest first.
type track struct {
	loc   weather.Location
	snaps []weather.WeatherSnapshot
}

// between returns the index range of snapshots with from <= Timestamp <= to.
func (t *track) between(from, to time.Time) (int, int) {
	lo := sort.Search(len(t.snaps), func(i int) bool { return !t.snaps[i].Timestamp.Before(from) })
	hi := sort.Search(len(t.snaps), func(i int) bool { return t.snaps[i].Timestamp.After(to) })
	return lo, hi
}

// MemoryStore keeps recent weather per location in memory. It is safe for
// concurrent use by the scheduler and request handlers.
type MemoryStore struct {
	mu     sync.RWMutex
	tracks map[string]*track

	maxHistory int
	maxAge     time.Duration

	now func() time.Time
}

// NewMemoryStore creates a store that keeps at most maxHistory snapshots per
// location, none older than maxAge. Non-positive limits are unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		tracks:     make(map[string]*track),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot files a snapshot in timestamp order, so late provider answers
// do not shadow newer data, then trims by count and age.
func (s *MemoryStore) SaveSnapshot(loc weather.Location, snapshot weather.WeatherSnapshot) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracks[key]
	if !ok {
		t = &track{loc: loc}
		s.tracks[key] = t
	}

	_, at := t.between(time.Time{}, snapshot.Timestamp)
	t.snaps = append(t.snaps, weather.WeatherSnapshot{})
	copy(t.snaps[at+1:], t.snaps[at:])
	t.snaps[at] = snapshot

	if s.maxHistory > 0 && len(t.snaps) > s.maxHistory {
		t.snaps = t.snaps[len(t.snaps)-s.maxHistory:]
	}
	if s.maxAge > 0 {
		keep, _ := t.between(s.now().Add(-s.maxAge), time.Time{})
		t.snaps = t.snaps[keep:]
	}
}

func (s *MemoryStore) lookup(loc weather.Location) (*track, bool) {
	t, ok := s.tracks[loc.Key()]
	return t, ok && len(t.snaps) > 0
}

// GetLatest returns the newest snapshot for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.lookup(loc)
	if !ok {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return t.snaps[len(t.snaps)-1], nil
}

// GetRange returns the snapshots for a location between from and to, both inclusive.
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.lookup(loc)
	if !ok {
		return nil, ErrNotFound
	}
	lo, hi := t.between(from, to)
	if lo >= hi {
		return nil, ErrNotFound
	}
	return append([]weather.WeatherSnapshot(nil), t.snaps[lo:hi]...), nil
}

// Locations lists every location with stored history, sorted by key.
func (s *MemoryStore) Locations() []weather.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.tracks))
	for k, t := range s.tracks {
		if len(t.snaps) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]weather.Location, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.tracks[k].loc)
	}
	return out
}
