package geometry

import (
	"github.com/twpayne/go-geos"
)

// ratioEpsilon keeps the length/width ratio finite when the minimum rotated
// rectangle collapses to zero width.
const ratioEpsilon = 1e-11

// Metrics are the per-polygon shape measurements the reason collector and
// the overlap prefilter consume. Pointer fields are nil when the metric is
// undefined for the geometry.
type Metrics struct {
	AreaM2           float64
	NrVertices       int
	LengthWidthRatio *float64
	ProtrudingRatio  *float64
	InRadius         *bool
}

// ComputeMetrics measures one repaired polygon. The empty polygon measures
// zero area, zero vertices and undefined ratios.
func ComputeMetrics(g *geos.Geom, radiusM float64) Metrics {
	var m Metrics
	if g == nil || g.IsEmpty() {
		return m
	}
	m.AreaM2 = GeodesicAreaM2(g)
	m.NrVertices = VertexCount(g)
	m.LengthWidthRatio = lengthWidthRatio(g)
	m.ProtrudingRatio = protrudingRatio(g, m.AreaM2)
	m.InRadius = inRadius(g, radiusM)
	return m
}

// VertexCount counts distinct exterior vertices, the closing duplicate
// excluded. Multipolygon parts are summed.
func VertexCount(g *geos.Geom) int {
	if g == nil || g.IsEmpty() {
		return 0
	}
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		return len(distinctVertices(openRing(exteriorCoords(g))))
	case geos.TypeIDMultiPolygon:
		total := 0
		for i := 0; i < g.NumGeometries(); i++ {
			total += VertexCount(g.Geometry(i))
		}
		return total
	}
	return 0
}

// UTMAreaM2 is the planar area in the polygon's own UTM frame, used for
// relative comparisons between nearby geometries. Unprojectable geometry
// measures 0.
func UTMAreaM2(g *geos.Geom) float64 {
	utm, _ := ToUTM(g)
	if utm == nil {
		return 0
	}
	return utm.Area()
}

// lengthWidthRatio measures how elongated the plot is: the ratio of the two
// geodesic edge lengths of the minimum rotated rectangle, always >= 1.
func lengthWidthRatio(g *geos.Geom) *float64 {
	corners := mrrCorners(g)
	if corners == nil {
		return nil
	}
	length := GeodesicDistanceM(corners[0][0], corners[0][1], corners[1][0], corners[1][1])
	width := GeodesicDistanceM(corners[1][0], corners[1][1], corners[2][0], corners[2][1])
	if width > length {
		length, width = width, length
	}
	ratio := length / (width + ratioEpsilon)
	return &ratio
}

// protrudingRatio compares the minimum rotated rectangle's area against the
// plot's own: a compact plot is close to 1, a plot with a spike is much
// larger.
func protrudingRatio(g *geos.Geom, areaM2 float64) *float64 {
	if areaM2 <= 0 {
		return nil
	}
	mrr := g.MinimumRotatedRectangle()
	if mrr == nil || mrr.TypeID() != geos.TypeIDPolygon {
		return nil
	}
	ratio := GeodesicAreaM2(mrr) / areaM2
	return &ratio
}

func mrrCorners(g *geos.Geom) [][]float64 {
	mrr := g.MinimumRotatedRectangle()
	if mrr == nil || mrr.TypeID() != geos.TypeIDPolygon {
		return nil
	}
	corners := exteriorCoords(mrr)
	if len(corners) < 4 {
		return nil
	}
	return corners
}

// inRadius reports whether a circle of the given radius, centered on the
// plot's UTM centroid, covers the whole plot. Undefined for invalid or
// unprojectable geometry. Multipolygons the repair chain kept intact are
// judged as a whole, so scattered parts fail the check.
func inRadius(g *geos.Geom, radiusM float64) *bool {
	if radiusM <= 0 || !g.IsValid() {
		return nil
	}
	utm, _ := ToUTM(g)
	if utm == nil || utm.IsEmpty() {
		return nil
	}
	centroid := utm.Centroid()
	if centroid == nil || centroid.IsEmpty() {
		return nil
	}
	circle := centroid.Buffer(radiusM, 16)
	if circle == nil {
		return nil
	}
	covered := circle.Covers(utm)
	return &covered
}
