package geometry

import (
	geom "github.com/twpayne/go-geom"
	geomjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geos"
)

// RewindRightHand enforces the GeoJSON right-hand rule: exterior rings
// counter-clockwise, holes clockwise. The geometry round-trips through the
// go-geom GeoJSON codec; on any codec failure the input comes back
// untouched.
func RewindRightHand(g *geos.Geom) *geos.Geom {
	if g == nil || g.IsEmpty() {
		return g
	}

	var t geom.T
	if err := geomjson.Unmarshal([]byte(g.ToGeoJSON(-1)), &t); err != nil {
		return g
	}

	switch p := t.(type) {
	case *geom.Polygon:
		rewindPolygon(p)
	case *geom.MultiPolygon:
		for i := 0; i < p.NumPolygons(); i++ {
			rewindPolygon(p.Polygon(i))
		}
	default:
		return g
	}

	data, err := geomjson.Marshal(t)
	if err != nil {
		return g
	}
	out, err := geos.NewGeomFromGeoJSON(string(data))
	if err != nil {
		return g
	}
	return out
}

func rewindPolygon(p *geom.Polygon) {
	coords := p.Coords()
	changed := false
	for i, ring := range coords {
		ccw := geomRingArea(ring) > 0
		if (i == 0 && !ccw) || (i > 0 && ccw) {
			reverseGeomRing(ring)
			changed = true
		}
	}
	if changed {
		p.MustSetCoords(coords)
	}
}

func geomRingArea(ring []geom.Coord) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return sum / 2
}

func reverseGeomRing(ring []geom.Coord) {
	for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
		ring[i], ring[j] = ring[j], ring[i]
	}
}
