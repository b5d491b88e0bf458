package lookup

import (
	"fmt"
	"log"

	"github.com/twpayne/go-geos"

	"github.com/akvo/gt-polygon-validator/geometry"
)

// EcoregionIndex assigns each plot the ecoregion it overlaps most.
type EcoregionIndex struct {
	regions map[string]*geos.Geom
}

func NewEcoregionIndex(regions map[string]*geos.Geom) *EcoregionIndex {
	return &EcoregionIndex{regions: regions}
}

// LoadEcoregionIndex reads an ecoregion shapefile. nameField names the
// attribute carrying the ecoregion name.
func LoadEcoregionIndex(path string, nameField string) (*EcoregionIndex, error) {
	regions, err := LoadPolygons(path, nameField)
	if err != nil {
		return nil, fmt.Errorf("failed to load ecoregions: %v", err)
	}
	log.Printf("loaded %d ecoregions from %s", len(regions), path)
	return &EcoregionIndex{regions: regions}, nil
}

// Assign returns the name of the ecoregion with the largest overlap area, or
// "" when the geometry touches none of them.
func (e *EcoregionIndex) Assign(g *geos.Geom) string {
	if g == nil || g.IsEmpty() {
		return ""
	}
	best := ""
	var bestArea float64
	for name, region := range e.regions {
		if !g.Intersects(region) {
			continue
		}
		intersection := g.Intersection(region)
		if intersection == nil || intersection.IsEmpty() {
			continue
		}
		area := geometry.UTMAreaM2(intersection)
		if area <= 0 {
			continue
		}
		// ties resolve by name so map iteration order cannot leak through
		if area > bestArea || (area == bestArea && (best == "" || name < best)) {
			bestArea = area
			best = name
		}
	}
	return best
}
