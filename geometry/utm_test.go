package geometry

import (
	"math"
	"testing"

	"github.com/im7mortal/UTM"
)

func TestUTMForwardMatchesLibrary(t *testing.T) {
	points := []struct {
		name     string
		lat, lon float64
	}{
		{"equatorial forest", -2.1, 30.1},
		{"west africa", 7.5, -1.2},
		{"northern europe", 52.37, 4.89},
		{"southern hemisphere", -33.9, 18.4},
	}
	for _, p := range points {
		t.Run(p.name, func(t *testing.T) {
			wantE, wantN, zoneNumber, _, err := UTM.FromLatLon(p.lat, p.lon, false)
			if err != nil {
				t.Fatalf("FromLatLon failed: %v", err)
			}
			gotE, gotN := utmForward(p.lat, p.lon, zoneNumber)
			if math.Abs(gotE-wantE) > 0.05 || math.Abs(gotN-wantN) > 0.05 {
				t.Fatalf("utmForward = (%.3f, %.3f), library = (%.3f, %.3f)",
					gotE, gotN, wantE, wantN)
			}
		})
	}
}

func TestToUTMRoundTrip(t *testing.T) {
	square := squareAt(30, -2, 100)
	utm, zone := ToUTM(square)
	if utm == nil || utm.IsEmpty() {
		t.Fatalf("projection of a valid square came back empty")
	}
	if !zone.Valid() {
		t.Fatalf("zone not derived: %+v", zone)
	}

	back := ToWGS84(utm, zone)
	if back == nil || back.IsEmpty() {
		t.Fatalf("back projection came back empty")
	}
	orig := Rings(square)[0]
	round := Rings(back)[0]
	if len(orig) != len(round) {
		t.Fatalf("vertex count changed in round trip: %d -> %d", len(orig), len(round))
	}
	for i := range orig {
		if math.Abs(orig[i][0]-round[i][0]) > 1e-6 || math.Abs(orig[i][1]-round[i][1]) > 1e-6 {
			t.Fatalf("vertex %d drifted: (%f,%f) -> (%f,%f)",
				i, orig[i][0], orig[i][1], round[i][0], round[i][1])
		}
	}
}

func TestUTMAreaOfKnownSquare(t *testing.T) {
	square := squareAt(30, -2, 100)
	area := UTMAreaM2(square)
	if area < 9800 || area > 10200 {
		t.Fatalf("UTM area of a 100 m square = %.1f, want about 10000", area)
	}
}

func TestToUTMUnprojectable(t *testing.T) {
	polar := squareAt(30, 88, 100)
	utm, zone := ToUTM(polar)
	if !utm.IsEmpty() {
		t.Fatalf("polar geometry must come back empty")
	}
	if zone.Valid() {
		t.Fatalf("no zone should be derived for polar geometry")
	}

	utm, _ = ToUTM(EmptyPolygon())
	if !utm.IsEmpty() {
		t.Fatalf("empty polygon must stay empty")
	}

	utm, _ = ToUTM(nil)
	if !utm.IsEmpty() {
		t.Fatalf("nil geometry must map to the empty polygon")
	}
}

func TestProjectable(t *testing.T) {
	tests := []struct {
		lon, lat float64
		want     bool
	}{
		{30, -2, true},
		{-179.9, 79, true},
		{180, 0, true},
		{-180, 0, true},
		{0, 84, true},
		{0, -80, true},
		{180.1, 0, false},
		{-180.1, 0, false},
		{0, 84.1, false},
		{0, -80.1, false},
	}
	for _, tt := range tests {
		if got := Projectable(tt.lon, tt.lat); got != tt.want {
			t.Fatalf("Projectable(%f, %f) = %v, want %v", tt.lon, tt.lat, got, tt.want)
		}
	}
}

func TestZoneForSharedFrame(t *testing.T) {
	// both sides of the 30E/36E zone edge land in the caller-chosen frame
	zone, ok := ZoneFor(29.9, -2)
	if !ok {
		t.Fatalf("zone not derived")
	}
	left := ToUTMZone(squareAt(29.9995, -2, 100), zone)
	right := ToUTMZone(squareAt(30.0005, -2, 100), zone)
	if left.IsEmpty() || right.IsEmpty() {
		t.Fatalf("zone-edge projection failed")
	}
	if !left.Intersects(right) && left.Distance(right) > 200 {
		t.Fatalf("neighbouring squares ended up %f m apart in the shared frame", left.Distance(right))
	}
}
