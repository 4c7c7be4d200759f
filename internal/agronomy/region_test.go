package agronomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegions(t *testing.T) *RegionTable {
	t.Helper()
	table, err := NewRegionTable([]Region{
		{ID: RegionNorth, Multiplier: NPK{N: 1.2, P: 0.8, K: 1.0}},
		{ID: RegionCentral, Multiplier: NPK{N: 1, P: 1, K: 1}},
	}, map[string]RegionID{"Ludhiana": RegionNorth, "delhi": RegionNorth}, RegionCentral)
	require.NoError(t, err)
	return table
}

func TestRegionTable_Resolve(t *testing.T) {
	table := testRegions(t)

	tests := []struct {
		location string
		want     RegionID
		matched  bool
		city     string
	}{
		{"Ludhiana, Punjab", RegionNorth, true, "ludhiana"},
		{"  DELHI  ", RegionNorth, true, "delhi"},
		{"Delhi,India,Earth", RegionNorth, true, "delhi"},
		{"Nowhereville, Mars", RegionCentral, false, "nowhereville"},
		{"Punjab, Ludhiana", RegionCentral, false, "punjab"},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			res, err := table.Resolve(tt.location)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Region.ID)
			assert.Equal(t, tt.matched, res.Matched)
			assert.Equal(t, tt.city, res.City)
		})
	}
}

func TestRegionTable_ResolveBlank(t *testing.T) {
	_, err := testRegions(t).Resolve(" \t")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewRegionTable_Validation(t *testing.T) {
	central := Region{ID: RegionCentral, Multiplier: NPK{1, 1, 1}}

	_, err := NewRegionTable([]Region{central}, nil, RegionNorth)
	assert.ErrorIs(t, err, ErrInvalidReferenceData, "fallback must be defined")

	_, err = NewRegionTable([]Region{central}, map[string]RegionID{"pune": RegionWest}, RegionCentral)
	assert.ErrorIs(t, err, ErrInvalidReferenceData, "city must point at a defined region")

	_, err = NewRegionTable([]Region{{ID: "Atlantis", Multiplier: NPK{1, 1, 1}}, central}, nil, RegionCentral)
	assert.ErrorIs(t, err, ErrInvalidReferenceData, "only the fixed region ids are allowed")

	_, err = NewRegionTable([]Region{{ID: RegionCentral, Multiplier: NPK{N: 0, P: 1, K: 1}}}, nil, RegionCentral)
	assert.ErrorIs(t, err, ErrInvalidReferenceData, "multipliers must be positive")

	_, err = NewRegionTable([]Region{central, central}, nil, RegionCentral)
	assert.ErrorIs(t, err, ErrInvalidReferenceData)
}

func TestRegionTable_Regions(t *testing.T) {
	regions := testRegions(t).Regions()
	require.Len(t, regions, 2)
	assert.Equal(t, RegionCentral, regions[0].ID)
	assert.Equal(t, RegionNorth, regions[1].ID)
}

func TestRegionTable_RegionIgnoresCase(t *testing.T) {
	table := testRegions(t)
	for _, id := range []RegionID{"North", "north", " NORTH "} {
		r, ok := table.Region(id)
		require.True(t, ok, id)
		assert.Equal(t, RegionNorth, r.ID)
	}
	_, ok := table.Region("Arctic")
	assert.False(t, ok)
}
