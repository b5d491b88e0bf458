package geometry

import (
	"fmt"
	"math"

	"github.com/im7mortal/UTM"
	"github.com/twpayne/go-geos"
)

// Usable UTM latitude band. Outside it the zone letter is undefined and the
// projection degenerates, so such geometry is treated as unprojectable.
const (
	MinUTMLat = -80.0
	MaxUTMLat = 84.0
)

// Zone identifies one UTM projection frame.
type Zone struct {
	Number   int
	Letter   string
	Northern bool
}

// Valid reports whether the zone was actually derived from a point.
func (z Zone) Valid() bool {
	return z.Number >= 1 && z.Number <= 60
}

// Projectable reports whether a geographic point falls inside the usable
// UTM range. The band edges themselves are usable.
func Projectable(lon, lat float64) bool {
	return lon >= -180 && lon <= 180 && lat >= MinUTMLat && lat <= MaxUTMLat
}

// ZoneFor derives the UTM zone covering a geographic point.
func ZoneFor(lon, lat float64) (Zone, bool) {
	if !Projectable(lon, lat) {
		return Zone{}, false
	}
	_, _, number, letter, err := UTM.FromLatLon(lat, lon, false)
	if err != nil {
		return Zone{}, false
	}
	return Zone{Number: number, Letter: letter, Northern: lat >= 0}, true
}

// CentroidLonLat returns the geographic centroid of a geometry.
func CentroidLonLat(g *geos.Geom) (lon, lat float64, ok bool) {
	if g == nil || g.IsEmpty() {
		return 0, 0, false
	}
	c := g.Centroid()
	if c == nil || c.IsEmpty() {
		return 0, 0, false
	}
	return c.X(), c.Y(), true
}

// ToUTM projects a geographic polygon into the UTM zone of its own centroid.
// Unprojectable geometry comes back as the empty polygon so metric code can
// treat it uniformly.
func ToUTM(g *geos.Geom) (*geos.Geom, Zone) {
	if g == nil || g.IsEmpty() {
		return EmptyPolygon(), Zone{}
	}
	lon, lat, ok := CentroidLonLat(g)
	if !ok {
		return EmptyPolygon(), Zone{}
	}
	zone, ok := ZoneFor(lon, lat)
	if !ok {
		return EmptyPolygon(), Zone{}
	}
	return ToUTMZone(g, zone), zone
}

// ToUTMZone projects geographic geometry into a caller-chosen zone. Used by
// the overlap scan so a whole batch shares one planar frame even when plots
// straddle a zone boundary.
func ToUTMZone(g *geos.Geom, zone Zone) *geos.Geom {
	if g == nil || g.IsEmpty() || !zone.Valid() {
		return EmptyPolygon()
	}
	out, err := transformGeometry(g, func(x, y float64) (float64, float64, error) {
		if !Projectable(x, y) {
			return 0, 0, fmt.Errorf("point %f %f outside usable UTM range", x, y)
		}
		easting, northing := utmForward(y, x, zone.Number)
		return easting, northing, nil
	})
	if err != nil {
		return EmptyPolygon()
	}
	return out
}

// ToWGS84 projects UTM geometry back to geographic coordinates.
func ToWGS84(g *geos.Geom, zone Zone) *geos.Geom {
	if g == nil || g.IsEmpty() || !zone.Valid() {
		return EmptyPolygon()
	}
	out, err := transformGeometry(g, func(x, y float64) (float64, float64, error) {
		lat, lon, err := UTM.ToLatLon(x, y, zone.Number, zone.Letter)
		if err != nil {
			return 0, 0, err
		}
		return lon, lat, nil
	})
	if err != nil {
		return EmptyPolygon()
	}
	return out
}

// transformGeometry rebuilds a polygonal geometry vertex by vertex. Handing
// it anything but a polygon or multipolygon is a caller bug and errors
// loudly instead of degrading.
func transformGeometry(g *geos.Geom, project func(x, y float64) (float64, float64, error)) (*geos.Geom, error) {
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		return transformPolygon(g, project)
	case geos.TypeIDMultiPolygon:
		parts := make([]*geos.Geom, 0, g.NumGeometries())
		for i := 0; i < g.NumGeometries(); i++ {
			part, err := transformPolygon(g.Geometry(i), project)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		return geos.NewCollection(geos.TypeIDMultiPolygon, parts), nil
	default:
		return nil, fmt.Errorf("unsupported geometry type id %d, expected polygon or multipolygon", g.TypeID())
	}
}

func transformPolygon(g *geos.Geom, project func(x, y float64) (float64, float64, error)) (*geos.Geom, error) {
	rings := Rings(g)
	if len(rings) == 0 {
		return nil, fmt.Errorf("polygon has no exterior ring")
	}
	projected := make([][][]float64, 0, len(rings))
	for _, ring := range rings {
		out := make([][]float64, 0, len(ring))
		for _, c := range ring {
			x, y, err := project(c[0], c[1])
			if err != nil {
				return nil, err
			}
			out = append(out, []float64{x, y})
		}
		projected = append(projected, closeRing(out))
	}
	return geos.NewPolygon(projected), nil
}

// WGS84 constants for the transverse Mercator series below.
const (
	utmK0    = 0.9996
	wgs84R   = 6378137.0
	wgs84E2  = 0.00669438
	wgs84E4  = wgs84E2 * wgs84E2
	wgs84E6  = wgs84E4 * wgs84E2
	wgs84EP2 = wgs84E2 / (1 - wgs84E2)

	utmM1 = 1 - wgs84E2/4 - 3*wgs84E4/64 - 5*wgs84E6/256
	utmM2 = 3*wgs84E2/8 + 3*wgs84E4/32 + 45*wgs84E6/1024
	utmM3 = 15*wgs84E4/256 + 45*wgs84E6/1024
	utmM4 = 35 * wgs84E6 / 3072
)

func zoneCentralMeridian(zoneNumber int) float64 {
	return float64((zoneNumber-1)*6 - 180 + 3)
}

// utmForward is the standard WGS84 transverse Mercator forward series with
// an explicit zone. The UTM library only projects into the zone it derives
// from the longitude itself, which would split a polygon sitting on a zone
// boundary across two frames; this keeps every vertex in the zone picked
// from the centroid (or the batch frame).
func utmForward(lat, lon float64, zoneNumber int) (easting, northing float64) {
	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180
	centralRad := zoneCentralMeridian(zoneNumber) * math.Pi / 180

	latSin := math.Sin(latRad)
	latCos := math.Cos(latRad)
	latTan := latSin / latCos
	latTan2 := latTan * latTan
	latTan4 := latTan2 * latTan2

	n := wgs84R / math.Sqrt(1-wgs84E2*latSin*latSin)
	c := wgs84EP2 * latCos * latCos

	a := latCos * (lonRad - centralRad)
	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	m := wgs84R * (utmM1*latRad -
		utmM2*math.Sin(2*latRad) +
		utmM3*math.Sin(4*latRad) -
		utmM4*math.Sin(6*latRad))

	easting = utmK0*n*(a+
		a3/6*(1-latTan2+c)+
		a5/120*(5-18*latTan2+latTan4+72*c-58*wgs84EP2)) + 500000

	northing = utmK0 * (m + n*latTan*(a2/2+
		a4/24*(5-latTan2+9*c+4*c*c)+
		a6/720*(61-58*latTan2+latTan4+600*c-330*wgs84EP2)))
	if lat < 0 {
		northing += 10000000
	}
	return easting, northing
}
