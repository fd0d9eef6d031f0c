package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtaprecip/mtaprecip/internal/catalog"
)

func TestDefault(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	regions := c.Regions()
	require.Len(t, regions, 5)

	codes := make([]string, 0, len(regions))
	total := 0
	for _, r := range regions {
		codes = append(codes, r.Code)
		total += r.Len()
		for _, s := range r.Stations {
			assert.Equal(t, r.Code, s.Region)
		}
	}
	assert.Equal(t, []string{"M", "Bk", "Q", "Bx", "SI"}, codes)
	assert.Equal(t, total, c.Len())
	assert.Len(t, c.Stations(), c.Len())
}

func TestDefault_WireNames(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	bronx, ok := c.Region("Bx")
	require.True(t, ok)
	assert.Equal(t, "The Bronx", bronx.Label)
	assert.Equal(t, "Bronx", bronx.WireName)

	si, ok := c.Region("SI")
	require.True(t, ok)
	assert.Equal(t, "Staten Island", si.WireName)
}

func TestDefault_SameNameDifferentLines(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	manhattan, ok := c.Station(catalog.StationKey{Name: "86 St", Lines: "4 5 6"})
	require.True(t, ok)
	assert.Equal(t, "M", manhattan.Region)

	brooklyn, ok := c.Station(catalog.StationKey{Name: "86 St", Lines: "R"})
	require.True(t, ok)
	assert.Equal(t, "Bk", brooklyn.Region)

	_, ok = c.Station(catalog.StationKey{Name: "86 St", Lines: "Q"})
	assert.False(t, ok)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		regions []catalog.Region
	}{
		{
			name:    "missing code",
			regions: []catalog.Region{{Label: "Nowhere"}},
		},
		{
			name:    "unknown borough",
			regions: []catalog.Region{{Code: "NJ", Label: "New Jersey"}},
		},
		{
			name: "duplicate region",
			regions: []catalog.Region{
				{Code: "M"},
				{Code: "M"},
			},
		},
		{
			name: "duplicate station",
			regions: []catalog.Region{
				{Code: "M", Stations: []catalog.Station{{Name: "Canal St", Lines: "6"}}},
				{Code: "Bk", Stations: []catalog.Station{{Name: "Canal St", Lines: "6"}}},
			},
		},
		{
			name: "unnamed station",
			regions: []catalog.Region{
				{Code: "Q", Stations: []catalog.Station{{Name: "  ", Lines: "7"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.New(tt.regions)
			assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
		})
	}
}

func TestNew_DefaultsLabelToWireName(t *testing.T) {
	c, err := catalog.New([]catalog.Region{{Code: "Q"}})
	require.NoError(t, err)

	q, ok := c.Region("Q")
	require.True(t, ok)
	assert.Equal(t, "Queens", q.Label)
	assert.Equal(t, 0, c.RegionSize("Q"))
	assert.Equal(t, -1, c.RegionSize("X"))
}

func TestRegions_ReturnsCopies(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	regions := c.Regions()
	regions[0].Stations[0].Name = "mutated"

	again, _ := c.Region(regions[0].Code)
	assert.NotEqual(t, "mutated", again.Stations[0].Name)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte(`regions:
  - code: SI
    stations:
      - { name: "St George", lines: "SIR" }
      - { name: "Tottenville", lines: "SIR" }
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := catalog.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = catalog.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := catalog.Parse([]byte("regions: [unclosed"))
	assert.Error(t, err)
}

func TestStation_Label(t *testing.T) {
	s := catalog.Station{Name: "Bedford Av", Lines: "L"}
	assert.Equal(t, "Bedford Av (L)", s.Label())
	assert.Equal(t, "Bedford Av", catalog.Station{Name: "Bedford Av"}.Label())
}

func TestNormalizeWireName(t *testing.T) {
	assert.Equal(t, "Bronx", catalog.NormalizeWireName("The Bronx"))
	assert.Equal(t, "Queens", catalog.NormalizeWireName("Queens"))
}
