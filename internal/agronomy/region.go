package agronomy

import (
	"fmt"
	"sort"

	"github.com/i474232898/crop-advisory/internal/common"
)

// RegionID names one of the fixed agronomic regions.
type RegionID string

const (
	RegionNorth   RegionID = "North"
	RegionSouth   RegionID = "South"
	RegionEast    RegionID = "East"
	RegionWest    RegionID = "West"
	RegionCentral RegionID = "Central"
)

// DefaultRegion is used when a location cannot be matched to a known city.
const DefaultRegion = RegionCentral

func knownRegion(id RegionID) bool {
	switch id {
	case RegionNorth, RegionSouth, RegionEast, RegionWest, RegionCentral:
		return true
	}
	return false
}

// Region carries the coarse soil/climate scaling applied to each nutrient.
type Region struct {
	ID         RegionID `json:"id" yaml:"id"`
	Multiplier NPK      `json:"multiplier" yaml:"multiplier"`
}

// Resolution is the outcome of mapping a free-text location to a region.
// Matched is false when the location fell back to the default region; callers
// should surface that to the user rather than treat it as an error.
type Resolution struct {
	Region  Region `json:"region"`
	City    string `json:"city"`
	Matched bool   `json:"matched"`
}

// RegionTable maps city names to regions.
//
// Resolution is a lookup against a hand-maintained city list, not geocoding:
// villages and unlisted cities always land in the fallback region.
type RegionTable struct {
	regions  map[RegionID]Region
	cities   map[string]RegionID
	fallback RegionID
}

// NewRegionTable validates and builds a region table. Every city must point
// at a defined region and the fallback region must be defined.
func NewRegionTable(regions []Region, cities map[string]RegionID, fallback RegionID) (*RegionTable, error) {
	t := &RegionTable{
		regions:  make(map[RegionID]Region, len(regions)),
		cities:   make(map[string]RegionID, len(cities)),
		fallback: fallback,
	}
	for _, r := range regions {
		if !knownRegion(r.ID) {
			return nil, fmt.Errorf("%w: unknown region %q", ErrInvalidReferenceData, r.ID)
		}
		if _, dup := t.regions[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate region %q", ErrInvalidReferenceData, r.ID)
		}
		if err := r.Multiplier.checkPositive("multiplier of region " + string(r.ID)); err != nil {
			return nil, err
		}
		t.regions[r.ID] = r
	}
	if _, ok := t.regions[fallback]; !ok {
		return nil, fmt.Errorf("%w: fallback region %q is not defined", ErrInvalidReferenceData, fallback)
	}
	for city, id := range cities {
		key := common.NormalizeKey(city)
		if key == "" {
			return nil, fmt.Errorf("%w: empty city name for region %q", ErrInvalidReferenceData, id)
		}
		if _, ok := t.regions[id]; !ok {
			return nil, fmt.Errorf("%w: city %q points at undefined region %q", ErrInvalidReferenceData, city, id)
		}
		if prev, dup := t.cities[key]; dup && prev != id {
			return nil, fmt.Errorf("%w: city %q listed under both %s and %s", ErrInvalidReferenceData, city, prev, id)
		}
		t.cities[key] = id
	}
	return t, nil
}

// Region returns the region with the given id, ignoring case.
func (t *RegionTable) Region(id RegionID) (Region, bool) {
	if r, ok := t.regions[id]; ok {
		return r, true
	}
	key := common.NormalizeKey(string(id))
	for rid, r := range t.regions {
		if common.NormalizeKey(string(rid)) == key {
			return r, true
		}
	}
	return Region{}, false
}

// Regions returns all regions sorted by id.
func (t *RegionTable) Regions() []Region {
	out := make([]Region, 0, len(t.regions))
	for _, r := range t.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolve maps a location such as "Ludhiana, Punjab" to a region using the
// text before the first comma. Unlisted cities resolve to the fallback region
// with Matched set to false.
func (t *RegionTable) Resolve(location string) (Resolution, error) {
	if common.NormalizeKey(location) == "" {
		return Resolution{}, fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	city := common.NormalizeKey(common.BeforeComma(location))
	if id, ok := t.cities[city]; ok {
		return Resolution{Region: t.regions[id], City: city, Matched: true}, nil
	}
	return Resolution{Region: t.regions[t.fallback], City: city, Matched: false}, nil
}
