package agronomy

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/i474232898/crop-advisory/internal/common"
)

// GrowthStage is a named phase of a crop's development with a fixed expected
// duration and a nutrient-demand multiplier.
type GrowthStage struct {
	Name          string  `json:"name" yaml:"name"`
	DurationDays  int     `json:"durationDays" yaml:"days"`
	NPKMultiplier float64 `json:"npkMultiplier" yaml:"npk_multiplier"`
}

// CropProfile is the immutable reference record for a crop. Values are only
// produced by NewCropProfile, so every profile in circulation has been
// validated.
type CropProfile struct {
	name   string
	base   NPK
	stages []GrowthStage
}

// NewCropProfile validates and builds a crop profile. The stage slice is
// copied; later changes to the argument do not affect the profile.
func NewCropProfile(name string, base NPK, stages []GrowthStage) (CropProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CropProfile{}, fmt.Errorf("%w: crop name is empty", ErrInvalidReferenceData)
	}
	if err := base.checkNonNegative("base requirement of " + name); err != nil {
		return CropProfile{}, err
	}
	if len(stages) == 0 {
		return CropProfile{}, fmt.Errorf("%w: crop %s has no growth stages", ErrInvalidReferenceData, name)
	}

	seen := make(map[string]struct{}, len(stages))
	for i, s := range stages {
		key := common.NormalizeKey(s.Name)
		if key == "" {
			return CropProfile{}, fmt.Errorf("%w: crop %s stage %d has no name", ErrInvalidReferenceData, name, i)
		}
		if _, dup := seen[key]; dup {
			return CropProfile{}, fmt.Errorf("%w: crop %s has duplicate stage %q", ErrInvalidReferenceData, name, s.Name)
		}
		seen[key] = struct{}{}
		if s.DurationDays <= 0 {
			return CropProfile{}, fmt.Errorf("%w: crop %s stage %s has non-positive duration %d",
				ErrInvalidReferenceData, name, s.Name, s.DurationDays)
		}
		if math.IsNaN(s.NPKMultiplier) || math.IsInf(s.NPKMultiplier, 0) || s.NPKMultiplier <= 0 {
			return CropProfile{}, fmt.Errorf("%w: crop %s stage %s has invalid multiplier %v",
				ErrInvalidReferenceData, name, s.Name, s.NPKMultiplier)
		}
	}

	cp := make([]GrowthStage, len(stages))
	copy(cp, stages)
	for i := range cp {
		cp[i].Name = strings.TrimSpace(cp[i].Name)
	}

	return CropProfile{name: name, base: base, stages: cp}, nil
}

func (c CropProfile) Name() string { return c.name }

// Base returns the base requirement in kg per acre.
func (c CropProfile) Base() NPK { return c.base }

// Stages returns a copy of the ordered stage sequence.
func (c CropProfile) Stages() []GrowthStage {
	out := make([]GrowthStage, len(c.stages))
	copy(out, c.stages)
	return out
}

// Stage looks up a stage by name, ignoring case and surrounding space.
func (c CropProfile) Stage(name string) (GrowthStage, bool) {
	key := common.NormalizeKey(name)
	for _, s := range c.stages {
		if common.NormalizeKey(s.Name) == key {
			return s, true
		}
	}
	return GrowthStage{}, false
}

// SeasonDays is the sum of all stage durations.
func (c CropProfile) SeasonDays() int {
	total := 0
	for _, s := range c.stages {
		total += s.DurationDays
	}
	return total
}

func (c CropProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name       string        `json:"name"`
		Base       NPK           `json:"basePerAcre"`
		SeasonDays int           `json:"seasonDays"`
		Stages     []GrowthStage `json:"stages"`
	}{c.name, c.base, c.SeasonDays(), c.stages})
}

// Catalog is the read-only set of crop profiles known to the process.
type Catalog struct {
	crops map[string]CropProfile
	order []string
}

// NewCatalog builds a catalog from validated profiles. Crop names must be
// unique ignoring case.
func NewCatalog(profiles ...CropProfile) (*Catalog, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: catalog has no crops", ErrInvalidReferenceData)
	}
	c := &Catalog{crops: make(map[string]CropProfile, len(profiles))}
	for _, p := range profiles {
		if len(p.stages) == 0 {
			return nil, fmt.Errorf("%w: crop profile %q was not built with NewCropProfile", ErrInvalidReferenceData, p.name)
		}
		key := common.NormalizeKey(p.name)
		if _, dup := c.crops[key]; dup {
			return nil, fmt.Errorf("%w: duplicate crop %q", ErrInvalidReferenceData, p.name)
		}
		c.crops[key] = p
		c.order = append(c.order, key)
	}
	return c, nil
}

// Lookup returns the profile for name, ignoring case.
func (c *Catalog) Lookup(name string) (CropProfile, error) {
	key := common.NormalizeKey(name)
	if key == "" {
		return CropProfile{}, fmt.Errorf("%w: crop name is required", ErrInvalidInput)
	}
	p, ok := c.crops[key]
	if !ok {
		return CropProfile{}, fmt.Errorf("%w: %q", ErrUnknownCrop, name)
	}
	return p, nil
}

// Crops returns all profiles in load order.
func (c *Catalog) Crops() []CropProfile {
	out := make([]CropProfile, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.crops[k])
	}
	return out
}

// Names returns the display names of all crops in load order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.crops[k].name)
	}
	return out
}
