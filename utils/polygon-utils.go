package utils

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geos"
)

// PRECISION is the coordinate precision in decimal degrees kept on every
// geometry the service emits. Seven decimals is roughly a centimeter, an
// order of magnitude below GPS accuracy.
var PRECISION int = 7

type roundResult struct {
	Result *geos.Geom
	Index  int
}

// RoundGeometry rebuilds a polygonal geometry with every coordinate rounded
// to PRECISION decimals, dropping any third dimension on the way. Handing it
// a non-areal geometry is a caller bug and errors loudly.
func RoundGeometry(g *geos.Geom) (*geos.Geom, error) {
	if g == nil {
		return nil, fmt.Errorf("geometry is nil")
	}
	if g.IsEmpty() {
		return g, nil
	}

	switch g.TypeID() {
	case geos.TypeIDPolygon:
		rounded := RoundSinglePolygon(g)
		if rounded == nil {
			return nil, fmt.Errorf("polygon collapsed while rounding")
		}
		return rounded, nil
	case geos.TypeIDMultiPolygon:
		parts := make(chan roundResult, g.NumGeometries())
		for i := range g.NumGeometries() {
			go func(polygon *geos.Geom, index int) {
				parts <- roundResult{Result: RoundSinglePolygon(polygon), Index: index}
			}(g.Geometry(i), i)
		}
		rounded := make([]*geos.Geom, g.NumGeometries())
		for i := 0; i < g.NumGeometries(); i++ {
			res := <-parts
			rounded[res.Index] = res.Result
		}
		for _, part := range rounded {
			if part == nil {
				return nil, fmt.Errorf("multipolygon part collapsed while rounding")
			}
		}
		if len(rounded) == 1 {
			return rounded[0], nil
		}
		return geos.NewCollection(geos.TypeIDMultiPolygon, rounded), nil
	default:
		return nil, fmt.Errorf("unsupported geometry type id %d, expected polygon or multipolygon", g.TypeID())
	}
}

// RoundSinglePolygon rounds one polygon's rings. Interior rings that no
// longer form a valid ring after rounding are dropped. Returns nil when the
// exterior ring is degenerate.
func RoundSinglePolygon(polygon *geos.Geom) *geos.Geom {
	if polygon.ExteriorRing() == nil || polygon.ExteriorRing().CoordSeq().Size() <= 3 {
		return nil
	}

	var rings [][][]float64
	var outerRing [][]float64
	for j := range polygon.ExteriorRing().CoordSeq().Size() {
		x := polygon.ExteriorRing().CoordSeq().X(j)
		y := polygon.ExteriorRing().CoordSeq().Y(j)

		newX, newY := RoundCoordinates(x, y)
		outerRing = append(outerRing, []float64{newX, newY})
	}
	rings = append(rings, outerRing)

	for r := range polygon.NumInteriorRings() {
		ring := polygon.InteriorRing(r)
		if ring.CoordSeq().Size() <= 3 {
			continue
		}
		var ringCoords [][]float64
		for k := range ring.CoordSeq().Size() {
			x := ring.CoordSeq().X(k)
			y := ring.CoordSeq().Y(k)

			newX, newY := RoundCoordinates(x, y)
			ringCoords = append(ringCoords, []float64{newX, newY})
		}
		testPolygon := geos.NewPolygon([][][]float64{ringCoords})
		if len(ringCoords) > 0 && testPolygon.IsValid() {
			rings = append(rings, ringCoords)
		}
		testPolygon.Destroy()
	}

	return geos.NewPolygon(rings)
}

// RoundCoordinates rounds one coordinate pair to PRECISION decimals.
func RoundCoordinates(x float64, y float64) (float64, float64) {
	return roundFloat(x, uint(PRECISION)), roundFloat(y, uint(PRECISION))
}

func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
