package geometry

import (
	"math"

	"github.com/twpayne/go-geos"
)

// metersPerDegreeLat approximates one degree of latitude for building test
// fixtures; assertions leave margin for the difference to the real geoid.
const metersPerDegreeLat = 111320.0

func degreesAt(lat float64, meters float64) (dLon, dLat float64) {
	dLat = meters / metersPerDegreeLat
	dLon = meters / (metersPerDegreeLat * math.Cos(lat*math.Pi/180))
	return dLon, dLat
}

// rectAt builds an axis-aligned rectangle of roughly widthM x heightM meters
// with its lower-left corner at lon/lat.
func rectAt(lon, lat, widthM, heightM float64) *geos.Geom {
	dLonW, _ := degreesAt(lat, widthM)
	_, dLatH := degreesAt(lat, heightM)
	return geos.NewPolygon([][][]float64{{
		{lon, lat},
		{lon + dLonW, lat},
		{lon + dLonW, lat + dLatH},
		{lon, lat + dLatH},
		{lon, lat},
	}})
}

func squareAt(lon, lat, sideM float64) *geos.Geom {
	return rectAt(lon, lat, sideM, sideM)
}

// bowtieAt builds the classic self-intersecting "square" with crossed
// corners, a 5-coordinate invalid ring.
func bowtieAt(lon, lat, sideM float64) *geos.Geom {
	dLon, dLat := degreesAt(lat, sideM)
	return geos.NewPolygon([][][]float64{{
		{lon, lat},
		{lon + dLon, lat + dLat},
		{lon + dLon, lat},
		{lon, lat + dLat},
		{lon, lat},
	}})
}
