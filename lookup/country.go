package lookup

import (
	"fmt"
	"log"
	"strings"

	"github.com/twpayne/go-geos"

	"github.com/akvo/gt-polygon-validator/utils"
)

// CountryIndex answers whether a plot sits inside a country boundary. The
// boundary is buffered outward before testing so coarse country datasets do
// not flag plots hugging the border.
type CountryIndex struct {
	boundaries map[string]*geos.Geom
	buffered   map[string]*geos.Geom
}

// NewCountryIndex builds an index from boundaries keyed by ISO3 code.
func NewCountryIndex(boundaries map[string]*geos.Geom) *CountryIndex {
	idx := &CountryIndex{
		boundaries: make(map[string]*geos.Geom, len(boundaries)),
		buffered:   make(map[string]*geos.Geom),
	}
	for iso3, geom := range boundaries {
		idx.boundaries[strings.ToUpper(iso3)] = geom
	}
	return idx
}

// LoadCountryIndex reads a country boundary shapefile. isoField names the
// attribute carrying the ISO3 code.
func LoadCountryIndex(path string, isoField string) (*CountryIndex, error) {
	boundaries, err := LoadPolygons(path, isoField)
	if err != nil {
		return nil, fmt.Errorf("failed to load country boundaries: %v", err)
	}
	log.Printf("loaded %d country boundaries from %s", len(boundaries), path)
	return NewCountryIndex(boundaries), nil
}

// Contains reports whether the geometry intersects the buffered boundary of
// the given country. Unknown countries and empty geometry test false.
func (c *CountryIndex) Contains(iso3 string, g *geos.Geom, bufferM float64) bool {
	if g == nil || g.IsEmpty() {
		return false
	}
	boundary := c.bufferedBoundary(strings.ToUpper(iso3), bufferM)
	if boundary == nil {
		return false
	}
	return boundary.Intersects(g)
}

func (c *CountryIndex) bufferedBoundary(iso3 string, bufferM float64) *geos.Geom {
	key := fmt.Sprintf("%s_%.0f", iso3, bufferM)
	if cached, found := c.buffered[key]; found {
		return cached
	}
	boundary, found := c.boundaries[iso3]
	if !found {
		return nil
	}
	if bufferM > 0 {
		tolerance := utils.CalculateWGS84ToleranceFromMeters(bufferM)
		if b := boundary.Buffer(tolerance, 8); b != nil {
			boundary = b
		}
	}
	c.buffered[key] = boundary
	return boundary
}
