package geometry

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/twpayne/go-geos"
)

// Mean earth radius in meters for the spherical geodesic measures. The
// upstream checks used the WGS84 ellipsoid; the sphere stays well inside
// every configured area band.
const earthRadiusM = 6371008.8

// GeodesicAreaM2 returns the surface area of a polygonal geometry in square
// meters, computed on the sphere from the geographic coordinates. Holes are
// subtracted, multipolygon parts summed. Non-areal input measures 0.
func GeodesicAreaM2(g *geos.Geom) float64 {
	if g == nil || g.IsEmpty() {
		return 0
	}
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		rings := Rings(g)
		if len(rings) == 0 {
			return 0
		}
		area := geodesicRingArea(rings[0])
		for _, hole := range rings[1:] {
			area -= geodesicRingArea(hole)
		}
		if area < 0 {
			return 0
		}
		return area
	case geos.TypeIDMultiPolygon:
		var area float64
		for i := 0; i < g.NumGeometries(); i++ {
			area += GeodesicAreaM2(g.Geometry(i))
		}
		return area
	}
	return 0
}

// GeodesicDistanceM returns the great-circle distance between two geographic
// points in meters.
func GeodesicDistanceM(lon1, lat1, lon2, lat2 float64) float64 {
	a := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lon1))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lon2))
	return float64(a.Distance(b)) * earthRadiusM
}

func geodesicRingArea(ring [][]float64) float64 {
	open := openRing(ring)
	if len(open) < 3 {
		return 0
	}
	points := make([]s2.Point, 0, len(open))
	for _, c := range open {
		points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(c[1], c[0])))
	}
	loop := s2.LoopFromPoints(points)
	area := loop.Area()
	// Loop area is orientation dependent; a survey plot is always the small
	// side of the sphere.
	if area > 2*math.Pi {
		area = 4*math.Pi - area
	}
	return area * earthRadiusM * earthRadiusM
}
