package agronomy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Tomato", "Potato", "Corn", "Rice", "Wheat",
		"Soybean", "Cotton", "Apple", "Grape", "Cucumber",
	}, c.Names())

	rice, err := c.Lookup("rice")
	require.NoError(t, err)
	assert.Equal(t, NPK{N: 100, P: 50, K: 80}, rice.Base())
	assert.Equal(t, riceStages(), rice.Stages())
}

func TestDefaultRegionTable(t *testing.T) {
	table, err := DefaultRegionTable()
	require.NoError(t, err)
	assert.Len(t, table.Regions(), 5)

	n, ok := table.Region(RegionNorth)
	require.True(t, ok)
	assert.Equal(t, NPK{N: 1.2, P: 0.8, K: 1.0}, n.Multiplier)

	res, err := table.Resolve("Nowhereville, Mars")
	require.NoError(t, err)
	assert.Equal(t, RegionCentral, res.Region.ID)
	assert.False(t, res.Matched)

	res, err = table.Resolve("Pune, Maharashtra")
	require.NoError(t, err)
	assert.Equal(t, RegionWest, res.Region.ID)
	assert.True(t, res.Matched)
}

func TestLoadCatalog_RejectsUnknownFields(t *testing.T) {
	doc := `
crops:
  - name: Millet
    base_npk: {n: 40, p: 20, k: 20}
    stages:
      - {name: Seedling, dayz: 20, npk_multiplier: 0.5}
`
	_, err := LoadCatalog(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrInvalidReferenceData)
}

func TestLoadCatalog_RejectsInvalidStage(t *testing.T) {
	doc := `
crops:
  - name: Millet
    base_npk: {n: 40, p: 20, k: 20}
    stages:
      - {name: Seedling, days: 0, npk_multiplier: 0.5}
`
	_, err := LoadCatalog(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrInvalidReferenceData)
}

func TestLoadRegionTable_DefaultsFallback(t *testing.T) {
	doc := `
regions:
  - {id: Central, multiplier: {n: 1, p: 1, k: 1}}
  - {id: East, multiplier: {n: 1.1, p: 1, k: 0.9}}
cities:
  East: [Patna]
`
	table, err := LoadRegionTable(strings.NewReader(doc))
	require.NoError(t, err)

	res, err := table.Resolve("patna, bihar")
	require.NoError(t, err)
	assert.Equal(t, RegionEast, res.Region.ID)

	res, err = table.Resolve("Gaya")
	require.NoError(t, err)
	assert.Equal(t, RegionCentral, res.Region.ID)
}

func TestLoadCatalogFile(t *testing.T) {
	c, err := LoadCatalogFile("")
	require.NoError(t, err)
	assert.Len(t, c.Names(), 10)

	path := filepath.Join(t.TempDir(), "crops.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
crops:
  - name: Millet
    base_npk: {n: 40, p: 20, k: 20}
    stages:
      - {name: Seedling, days: 20, npk_multiplier: 0.5}
      - {name: Grain, days: 60, npk_multiplier: 1.1}
`), 0o600))

	c, err = LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Millet"}, c.Names())

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRegionTableFile(t *testing.T) {
	table, err := LoadRegionTableFile("")
	require.NoError(t, err)
	assert.Len(t, table.Regions(), 5)

	_, err = LoadRegionTableFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
