package agronomy

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/crops.yaml
var defaultCrops []byte

//go:embed data/regions.yaml
var defaultRegions []byte

type cropsFile struct {
	Crops []struct {
		Name   string        `yaml:"name"`
		Base   NPK           `yaml:"base_npk"`
		Stages []GrowthStage `yaml:"stages"`
	} `yaml:"crops"`
}

type regionsFile struct {
	Fallback RegionID              `yaml:"fallback"`
	Regions  []Region              `yaml:"regions"`
	Cities   map[RegionID][]string `yaml:"cities"`
}

// decodeStrict rejects unknown keys so a misspelled field fails at startup
// instead of silently decoding to zero.
func decodeStrict(r io.Reader, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	return dec.Decode(out)
}

// LoadCatalog parses and validates a crop catalog in YAML form.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var doc cropsFile
	if err := decodeStrict(r, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode crops: %v", ErrInvalidReferenceData, err)
	}
	profiles := make([]CropProfile, 0, len(doc.Crops))
	for _, c := range doc.Crops {
		p, err := NewCropProfile(c.Name, c.Base, c.Stages)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return NewCatalog(profiles...)
}

// LoadRegionTable parses and validates a region table in YAML form.
func LoadRegionTable(r io.Reader) (*RegionTable, error) {
	var doc regionsFile
	if err := decodeStrict(r, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode regions: %v", ErrInvalidReferenceData, err)
	}
	fallback := doc.Fallback
	if fallback == "" {
		fallback = DefaultRegion
	}
	cities := make(map[string]RegionID)
	for id, names := range doc.Cities {
		for _, n := range names {
			cities[n] = id
		}
	}
	return NewRegionTable(doc.Regions, cities, fallback)
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCrops))
}

// DefaultRegionTable returns the region table compiled into the binary.
func DefaultRegionTable() (*RegionTable, error) {
	return LoadRegionTable(bytes.NewReader(defaultRegions))
}

// LoadCatalogFile reads a catalog from path, or the built-in catalog when
// path is empty.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadRegionTableFile reads a region table from path, or the built-in table
// when path is empty.
func LoadRegionTableFile(path string) (*RegionTable, error) {
	if path == "" {
		return DefaultRegionTable()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open regions: %w", err)
	}
	defer f.Close()
	return LoadRegionTable(f)
}
