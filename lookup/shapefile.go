package lookup

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geos"
)

// LoadPolygons reads a polygon shapefile and returns its geometries keyed by
// the value of nameField, parts sharing a key merged into one geometry.
func LoadPolygons(path string, nameField string) (map[string]*geos.Geom, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile %s: %v", path, err)
	}
	defer reader.Close()

	fieldIdx := -1
	for i, field := range reader.Fields() {
		if strings.EqualFold(fieldName(field), nameField) {
			fieldIdx = i
			break
		}
	}
	if fieldIdx < 0 {
		return nil, fmt.Errorf("field %q not found in %s", nameField, path)
	}

	result := make(map[string]*geos.Geom)
	for reader.Next() {
		row, shape := reader.Shape()
		polygon, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		name := strings.TrimSpace(reader.ReadAttribute(row, fieldIdx))
		if name == "" {
			continue
		}
		geom := geomFromShpPolygon(polygon)
		if geom == nil || geom.IsEmpty() {
			continue
		}
		if existing, found := result[name]; found {
			merged := existing.Union(geom)
			if merged != nil {
				result[name] = merged
			}
		} else {
			result[name] = geom
		}
	}

	return result, nil
}

func fieldName(field shp.Field) string {
	return strings.TrimRight(string(field.Name[:]), "\x00")
}

// geomFromShpPolygon rebuilds a shapefile polygon record as GEOS geometry.
// Every part is treated as an exterior ring and the parts are unioned, which
// heals the ring-orientation conventions shapefiles carry. Country and
// ecoregion datasets rarely rely on holes; a hole lost here only makes the
// membership test slightly more permissive.
func geomFromShpPolygon(polygon *shp.Polygon) *geos.Geom {
	numParts := len(polygon.Parts)
	if numParts == 0 {
		return nil
	}

	parts := make([]*geos.Geom, 0, numParts)
	for p := 0; p < numParts; p++ {
		start := int(polygon.Parts[p])
		end := len(polygon.Points)
		if p+1 < numParts {
			end = int(polygon.Parts[p+1])
		}
		if end-start < 3 {
			continue
		}
		ring := make([][]float64, 0, end-start+1)
		for i := start; i < end; i++ {
			ring = append(ring, []float64{polygon.Points[i].X, polygon.Points[i].Y})
		}
		first, last := ring[0], ring[len(ring)-1]
		if first[0] != last[0] || first[1] != last[1] {
			ring = append(ring, []float64{first[0], first[1]})
		}
		part := geos.NewPolygon([][][]float64{ring})
		if part == nil {
			continue
		}
		if !part.IsValid() {
			part = part.Buffer(0, 8)
			if part == nil || part.IsEmpty() {
				continue
			}
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return nil
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return geos.NewCollection(geos.TypeIDMultiPolygon, parts).UnaryUnion()
}
