package agronomy

import (
	"fmt"
	"math"
	"strings"
)

// UnknownStagePolicy decides what RequirementFor does with a stage name that
// is not in the crop's stage table.
type UnknownStagePolicy string

const (
	// StagePolicyStrict fails with ErrUnknownStage.
	StagePolicyStrict UnknownStagePolicy = "strict"

	// StagePolicyNeutral substitutes a multiplier of 1.0. Only for callers
	// that depend on the lenient behaviour and have opted in explicitly.
	StagePolicyNeutral UnknownStagePolicy = "neutral"
)

// ParseUnknownStagePolicy parses a policy name; the empty string means strict.
func ParseUnknownStagePolicy(s string) (UnknownStagePolicy, error) {
	switch p := UnknownStagePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", StagePolicyStrict:
		return StagePolicyStrict, nil
	case StagePolicyNeutral:
		return StagePolicyNeutral, nil
	default:
		return "", fmt.Errorf("unknown stage policy %q (want %q or %q)", s, StagePolicyStrict, StagePolicyNeutral)
	}
}

// Calculator computes fertilizer requirements.
type Calculator struct {
	policy UnknownStagePolicy
}

// NewCalculator returns a calculator using the given unknown-stage policy.
// An empty policy is treated as strict.
func NewCalculator(policy UnknownStagePolicy) *Calculator {
	if policy == "" {
		policy = StagePolicyStrict
	}
	return &Calculator{policy: policy}
}

func (c *Calculator) Policy() UnknownStagePolicy { return c.policy }

// RequirementFor returns the total N, P and K in kilograms for the field:
//
//	X = base.X * region.X * stage multiplier * acres
func (c *Calculator) RequirementFor(crop CropProfile, region Region, acres float64, stage string) (NPK, error) {
	if math.IsNaN(acres) || math.IsInf(acres, 0) || acres <= 0 {
		return NPK{}, fmt.Errorf("%w: acres must be a positive number, got %v", ErrInvalidInput, acres)
	}
	if len(crop.stages) == 0 {
		return NPK{}, fmt.Errorf("%w: crop profile has no stages", ErrInvalidInput)
	}
	if region.ID == "" {
		return NPK{}, fmt.Errorf("%w: region is required", ErrInvalidInput)
	}

	multiplier := 1.0
	s, ok := crop.Stage(stage)
	switch {
	case ok:
		multiplier = s.NPKMultiplier
	case c.policy == StagePolicyNeutral:
	default:
		return NPK{}, fmt.Errorf("%w: %q is not a stage of %s", ErrUnknownStage, stage, crop.name)
	}

	return crop.base.Mul(region.Multiplier).Scale(multiplier * acres), nil
}

// RequirementFor is Calculator.RequirementFor with the strict policy.
func RequirementFor(crop CropProfile, region Region, acres float64, stage string) (NPK, error) {
	return NewCalculator(StagePolicyStrict).RequirementFor(crop, region, acres, stage)
}
