package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed stations.yaml
var defaultCatalogYAML []byte

// Catalog is the immutable station reference data. It is safe for
// concurrent use since nothing mutates it after construction.
type Catalog struct {
	regions      []Region
	regionByCode map[string]int
	stationByKey map[StationKey]Station
	size         int
}

// fileRegion is the on-disk shape of a region.
type fileRegion struct {
	Code     string        `yaml:"code"`
	Label    string        `yaml:"label"`
	Stations []fileStation `yaml:"stations"`
}

type fileStation struct {
	Name  string `yaml:"name"`
	Lines string `yaml:"lines"`
}

type fileCatalog struct {
	Regions []fileRegion `yaml:"regions"`
}

// New builds a catalog from ordered regions. Region codes must have a wire
// name and station keys must be unique across the whole catalog.
func New(regions []Region) (*Catalog, error) {
	c := &Catalog{
		regions:      make([]Region, 0, len(regions)),
		regionByCode: make(map[string]int, len(regions)),
		stationByKey: make(map[StationKey]Station),
	}

	for _, r := range regions {
		if r.Code == "" {
			return nil, fmt.Errorf("%w: region without code", ErrInvalidCatalog)
		}
		if _, dup := c.regionByCode[r.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate region %q", ErrInvalidCatalog, r.Code)
		}
		wire, ok := WireName(r.Code)
		if !ok {
			return nil, fmt.Errorf("%w: region %q has no borough name", ErrInvalidCatalog, r.Code)
		}

		region := Region{
			Code:     r.Code,
			Label:    r.Label,
			WireName: wire,
			Stations: make([]Station, 0, len(r.Stations)),
		}
		if region.Label == "" {
			region.Label = wire
		}

		for _, s := range r.Stations {
			name := strings.TrimSpace(s.Name)
			if name == "" {
				return nil, fmt.Errorf("%w: unnamed station in region %q", ErrInvalidCatalog, r.Code)
			}
			st := Station{Name: name, Lines: strings.TrimSpace(s.Lines), Region: r.Code}
			if _, dup := c.stationByKey[st.Key()]; dup {
				return nil, fmt.Errorf("%w: duplicate station %s", ErrInvalidCatalog, st.Key())
			}
			c.stationByKey[st.Key()] = st
			region.Stations = append(region.Stations, st)
		}

		c.regionByCode[r.Code] = len(c.regions)
		c.regions = append(c.regions, region)
		c.size += len(region.Stations)
	}

	return c, nil
}

// Parse builds a catalog from its YAML form.
func Parse(data []byte) (*Catalog, error) {
	var fc fileCatalog
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	regions := make([]Region, 0, len(fc.Regions))
	for _, fr := range fc.Regions {
		region := Region{Code: fr.Code, Label: fr.Label}
		for _, fs := range fr.Stations {
			region.Stations = append(region.Stations, Station{Name: fs.Name, Lines: fs.Lines})
		}
		regions = append(regions, region)
	}

	return New(regions)
}

// Load reads a catalog file. An empty path yields the built-in NYC catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in NYC subway catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Regions returns the regions in catalog order.
func (c *Catalog) Regions() []Region {
	out := make([]Region, len(c.regions))
	for i, r := range c.regions {
		out[i] = r
		out[i].Stations = append([]Station(nil), r.Stations...)
	}
	return out
}

// Region looks up a region by code.
func (c *Catalog) Region(code string) (Region, bool) {
	i, ok := c.regionByCode[code]
	if !ok {
		return Region{}, false
	}
	r := c.regions[i]
	r.Stations = append([]Station(nil), r.Stations...)
	return r, true
}

// RegionSize returns how many stations a region holds, or -1 when the code
// is unknown.
func (c *Catalog) RegionSize(code string) int {
	i, ok := c.regionByCode[code]
	if !ok {
		return -1
	}
	return len(c.regions[i].Stations)
}

// Station looks up a station by key.
func (c *Catalog) Station(key StationKey) (Station, bool) {
	s, ok := c.stationByKey[key]
	return s, ok
}

// Stations returns every station in catalog order.
func (c *Catalog) Stations() []Station {
	out := make([]Station, 0, c.size)
	for _, r := range c.regions {
		out = append(out, r.Stations...)
	}
	return out
}

// Len returns the total number of stations.
func (c *Catalog) Len() int {
	return c.size
}
