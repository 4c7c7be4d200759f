package agronomy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var north = Region{ID: RegionNorth, Multiplier: NPK{N: 1.2, P: 0.8, K: 1.0}}

func TestRequirementFor_RiceNorthScenario(t *testing.T) {
	got, err := RequirementFor(mustRice(t), north, 2, "Vegetative")
	require.NoError(t, err)
	assert.InDelta(t, 216.0, got.N, 1e-9)
	assert.InDelta(t, 72.0, got.P, 1e-9)
	assert.InDelta(t, 144.0, got.K, 1e-9)
}

func TestRequirementFor_LinearInAcres(t *testing.T) {
	rice := mustRice(t)
	for _, acres := range []float64{0.25, 1, 3.7, 120} {
		one, err := RequirementFor(rice, north, acres, "Flowering")
		require.NoError(t, err)
		two, err := RequirementFor(rice, north, 2*acres, "Flowering")
		require.NoError(t, err)

		assert.Equal(t, 2*one.N, two.N)
		assert.Equal(t, 2*one.P, two.P)
		assert.Equal(t, 2*one.K, two.K)
	}
}

func TestRequirementFor_Deterministic(t *testing.T) {
	rice := mustRice(t)
	calc := NewCalculator(StagePolicyStrict)

	a, err := calc.RequirementFor(rice, north, 1.5, "Maturing")
	require.NoError(t, err)
	b, err := calc.RequirementFor(rice, north, 1.5, "Maturing")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRequirementFor_InvalidAcres(t *testing.T) {
	rice := mustRice(t)
	for _, acres := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := RequirementFor(rice, north, acres, "Vegetative")
		assert.ErrorIs(t, err, ErrInvalidInput, "acres=%v", acres)
	}
}

func TestRequirementFor_MissingRegionOrCrop(t *testing.T) {
	_, err := RequirementFor(mustRice(t), Region{}, 1, "Vegetative")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = RequirementFor(CropProfile{}, north, 1, "Vegetative")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRequirementFor_UnknownStage(t *testing.T) {
	rice := mustRice(t)

	_, err := RequirementFor(rice, north, 1, "Vegitative")
	assert.ErrorIs(t, err, ErrUnknownStage)

	got, err := NewCalculator(StagePolicyNeutral).RequirementFor(rice, north, 1, "Vegitative")
	require.NoError(t, err)
	assert.InDelta(t, 120.0, got.N, 1e-9)
	assert.InDelta(t, 40.0, got.P, 1e-9)
	assert.InDelta(t, 80.0, got.K, 1e-9)
}

func TestParseUnknownStagePolicy(t *testing.T) {
	p, err := ParseUnknownStagePolicy("")
	require.NoError(t, err)
	assert.Equal(t, StagePolicyStrict, p)

	p, err = ParseUnknownStagePolicy(" Neutral ")
	require.NoError(t, err)
	assert.Equal(t, StagePolicyNeutral, p)

	_, err = ParseUnknownStagePolicy("lenient")
	assert.Error(t, err)

	assert.Equal(t, StagePolicyStrict, NewCalculator("").Policy())
}

func TestNPK_Round(t *testing.T) {
	v := NPK{N: 1.23456, P: 2.5, K: 0.004}.Round(2)
	assert.Equal(t, NPK{N: 1.23, P: 2.5, K: 0}, v)
}
