package pipeline

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/twpayne/go-geos"
)

const metersPerDegreeLat = 111320.0

func degreesAt(lat float64, meters float64) (dLon, dLat float64) {
	dLat = meters / metersPerDegreeLat
	dLon = meters / (metersPerDegreeLat * math.Cos(lat*math.Pi/180))
	return dLon, dLat
}

func squareAt(lon, lat, sideM float64) *geos.Geom {
	dLon, dLat := degreesAt(lat, sideM)
	return geos.NewPolygon([][][]float64{{
		{lon, lat},
		{lon + dLon, lat},
		{lon + dLon, lat + dLat},
		{lon, lat + dLat},
		{lon, lat},
	}})
}

// squareVertexString renders a square as an uploaded coordinate string with
// the given GPS accuracy on every vertex.
func squareVertexString(lon, lat, sideM, accuracy float64) string {
	dLon, dLat := degreesAt(lat, sideM)
	corners := [][]float64{
		{lon, lat},
		{lon + dLon, lat},
		{lon + dLon, lat + dLat},
		{lon, lat + dLat},
	}
	parts := make([]string, 0, len(corners))
	for _, c := range corners {
		parts = append(parts, fmt.Sprintf("%.7f %.7f 1100.0 %.1f", c[0], c[1], accuracy))
	}
	return strings.Join(parts, ";")
}

func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return date
}
