package geometry

import (
	"strconv"
	"testing"

	"github.com/twpayne/go-geos"
)

func TestComputeMetricsSquare(t *testing.T) {
	// roughly 500 m2, the reference subplot size
	square := squareAt(30, -2, 22.36)
	m := ComputeMetrics(square, 40)

	if m.AreaM2 < 450 || m.AreaM2 > 550 {
		t.Fatalf("AreaM2 = %.1f, want about 500", m.AreaM2)
	}
	if m.NrVertices != 4 {
		t.Fatalf("NrVertices = %d, want 4", m.NrVertices)
	}
	if m.LengthWidthRatio == nil {
		t.Fatalf("LengthWidthRatio is nil for a square")
	}
	if *m.LengthWidthRatio < 0.9 || *m.LengthWidthRatio > 1.2 {
		t.Fatalf("LengthWidthRatio = %.3f, want about 1", *m.LengthWidthRatio)
	}
	if m.ProtrudingRatio == nil {
		t.Fatalf("ProtrudingRatio is nil for a square")
	}
	if *m.ProtrudingRatio < 0.9 || *m.ProtrudingRatio > 1.2 {
		t.Fatalf("ProtrudingRatio = %.3f, want about 1", *m.ProtrudingRatio)
	}
	if m.InRadius == nil || !*m.InRadius {
		t.Fatalf("a 22 m square must fit a 40 m radius circle")
	}
}

func TestComputeMetricsEmpty(t *testing.T) {
	m := ComputeMetrics(EmptyPolygon(), 40)
	if m.AreaM2 != 0 {
		t.Fatalf("empty polygon AreaM2 = %f, want 0", m.AreaM2)
	}
	if m.NrVertices != 0 {
		t.Fatalf("empty polygon NrVertices = %d, want 0", m.NrVertices)
	}
	if m.LengthWidthRatio != nil || m.ProtrudingRatio != nil || m.InRadius != nil {
		t.Fatalf("ratios must be undefined for the empty polygon")
	}

	m = ComputeMetrics(nil, 40)
	if m.AreaM2 != 0 || m.NrVertices != 0 {
		t.Fatalf("nil geometry must measure zero")
	}
}

func TestAreaNeverNegative(t *testing.T) {
	fixtures := map[string]float64{
		"clockwise ring": GeodesicAreaM2(mustGeoJSON(t,
			`{"type":"Polygon","coordinates":[[[30,-2],[30,-2.001],[30.001,-2.001],[30.001,-2],[30,-2]]]}`)),
		"counter clockwise ring": GeodesicAreaM2(mustGeoJSON(t,
			`{"type":"Polygon","coordinates":[[[30,-2],[30.001,-2],[30.001,-2.001],[30,-2.001],[30,-2]]]}`)),
		"empty": GeodesicAreaM2(EmptyPolygon()),
	}
	for name, area := range fixtures {
		if area < 0 {
			t.Fatalf("%s: area = %f, want >= 0", name, area)
		}
	}

	cw := fixtures["clockwise ring"]
	ccw := fixtures["counter clockwise ring"]
	if cw < ccw*0.999 || cw > ccw*1.001 {
		t.Fatalf("area must be orientation independent: cw=%.2f ccw=%.2f", cw, ccw)
	}
}

func TestLengthWidthRatioElongated(t *testing.T) {
	rect := rectAt(30, -2, 100, 50)
	m := ComputeMetrics(rect, 200)
	if m.LengthWidthRatio == nil {
		t.Fatalf("LengthWidthRatio is nil")
	}
	if *m.LengthWidthRatio < 1.8 || *m.LengthWidthRatio > 2.2 {
		t.Fatalf("LengthWidthRatio = %.3f for a 2:1 rectangle, want about 2", *m.LengthWidthRatio)
	}
}

func TestProtrudingRatioSpike(t *testing.T) {
	// an L-shape fills half of its bounding rectangle
	dLon, dLat := degreesAt(-2, 100)
	lShape := mustGeoJSON(t, `{"type":"Polygon","coordinates":[[`+
		coordList([][]float64{
			{30, -2},
			{30 + dLon, -2},
			{30 + dLon, -2 + dLat/2},
			{30 + dLon/2, -2 + dLat/2},
			{30 + dLon/2, -2 + dLat},
			{30, -2 + dLat},
			{30, -2},
		})+`]]}`)

	m := ComputeMetrics(lShape, 200)
	if m.ProtrudingRatio == nil {
		t.Fatalf("ProtrudingRatio is nil")
	}
	if *m.ProtrudingRatio < 1.2 {
		t.Fatalf("ProtrudingRatio = %.3f for an L-shape, want clearly above 1", *m.ProtrudingRatio)
	}
}

func TestInRadius(t *testing.T) {
	tests := []struct {
		name    string
		sideM   float64
		radiusM float64
		want    bool
	}{
		{"small plot in subplot radius", 30, 40, true},
		{"large plot outside subplot radius", 200, 40, false},
		{"large plot in plot radius", 200, 200, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComputeMetrics(squareAt(30, -2, tt.sideM), tt.radiusM)
			if m.InRadius == nil {
				t.Fatalf("InRadius is nil")
			}
			if *m.InRadius != tt.want {
				t.Fatalf("InRadius = %v, want %v", *m.InRadius, tt.want)
			}
		})
	}
}

func TestInRadiusScatteredMultiPolygon(t *testing.T) {
	// two small parts about a kilometer apart, kept as-is by the repair
	// chain because neither dominates
	near := squareAt(30, -2, 25)
	far := squareAt(30.01, -2, 25)
	multi := geos.NewCollection(geos.TypeIDMultiPolygon, []*geos.Geom{near, far})

	m := ComputeMetrics(multi, 40)
	if m.InRadius == nil {
		t.Fatalf("InRadius is nil for a valid multipolygon")
	}
	if *m.InRadius {
		t.Fatalf("parts a kilometer apart cannot fit inside a 40 m radius circle")
	}
}

func coordList(coords [][]float64) string {
	out := ""
	for i, c := range coords {
		if i > 0 {
			out += ","
		}
		out += "[" + strconv.FormatFloat(c[0], 'f', -1, 64) +
			"," + strconv.FormatFloat(c[1], 'f', -1, 64) + "]"
	}
	return out
}
