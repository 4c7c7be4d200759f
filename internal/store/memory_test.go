package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/crop-advisory/internal/weather"
)

var (
	base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	pune = weather.Location{City: "Pune", Country: "Maharashtra"}
)

func snap(offset time.Duration, temp float64) weather.WeatherSnapshot {
	return weather.WeatherSnapshot{Location: pune, Timestamp: base.Add(offset), Temperature: temp}
}

func TestMemoryStore_LatestIsNewestByTimestamp(t *testing.T) {
	s := NewMemoryStore(0, 0)
	s.SaveSnapshot(pune, snap(2*time.Hour, 30))
	s.SaveSnapshot(pune, snap(time.Hour, 25))

	got, err := s.GetLatest(weather.Location{City: "PUNE", Country: "maharashtra"})
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.Temperature)
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore(10, time.Hour)

	_, err := s.GetLatest(pune)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetRange(pune, base, base.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_RetentionByCount(t *testing.T) {
	s := NewMemoryStore(2, 0)
	for i := 0; i < 4; i++ {
		s.SaveSnapshot(pune, snap(time.Duration(i)*time.Hour, float64(i)))
	}

	all, err := s.GetRange(pune, base.Add(-time.Hour), base.Add(10*time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 2.0, all[0].Temperature)
	assert.Equal(t, 3.0, all[1].Temperature)
}

func TestMemoryStore_RetentionByAge(t *testing.T) {
	s := NewMemoryStore(0, 3*time.Hour)
	s.now = func() time.Time { return base.Add(4 * time.Hour) }

	s.SaveSnapshot(pune, snap(-time.Hour, 1))
	s.SaveSnapshot(pune, snap(0, 2))
	s.SaveSnapshot(pune, snap(2*time.Hour, 3))

	all, err := s.GetRange(pune, base.Add(-10*time.Hour), base.Add(10*time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 3.0, all[0].Temperature)
}

func TestMemoryStore_RangeIsInclusive(t *testing.T) {
	s := NewMemoryStore(0, 0)
	s.SaveSnapshot(pune, snap(0, 1))
	s.SaveSnapshot(pune, snap(time.Hour, 2))
	s.SaveSnapshot(pune, snap(2*time.Hour, 3))

	got, err := s.GetRange(pune, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryStore_RangeReturnsCopy(t *testing.T) {
	s := NewMemoryStore(0, 0)
	s.SaveSnapshot(pune, snap(0, 1))

	got, err := s.GetRange(pune, base, base)
	require.NoError(t, err)
	got[0].Temperature = 99

	latest, err := s.GetLatest(pune)
	require.NoError(t, err)
	assert.Equal(t, 1.0, latest.Temperature)
}

func TestMemoryStore_Locations(t *testing.T) {
	s := NewMemoryStore(0, 0)
	assert.Empty(t, s.Locations())

	patna := weather.Location{City: "Patna", Country: "Bihar"}
	s.SaveSnapshot(patna, weather.WeatherSnapshot{Timestamp: base})
	s.SaveSnapshot(pune, snap(0, 1))
	s.SaveSnapshot(weather.Location{City: "pune", Country: "MAHARASHTRA"}, snap(time.Hour, 2))

	assert.Equal(t, []weather.Location{patna, pune}, s.Locations())
}
