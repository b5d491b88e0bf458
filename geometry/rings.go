package geometry

import (
	"github.com/twpayne/go-geos"
)

// EmptyPolygon returns the canonical stand-in for records without usable
// geometry. Every pipeline stage treats it as "nothing to measure".
func EmptyPolygon() *geos.Geom {
	return geos.NewEmptyPolygon()
}

// Rings returns the exterior ring of a polygon followed by its holes, each
// ring closed. Returns nil for anything that is not a non-empty polygon.
func Rings(g *geos.Geom) [][][]float64 {
	if g == nil || g.IsEmpty() || g.TypeID() != geos.TypeIDPolygon {
		return nil
	}
	rings := make([][][]float64, 0, 1+g.NumInteriorRings())
	rings = append(rings, exteriorCoords(g))
	rings = append(rings, interiorRings(g)...)
	return rings
}

func exteriorCoords(g *geos.Geom) [][]float64 {
	ring := g.ExteriorRing()
	if ring == nil {
		return nil
	}
	return ringCoords(ring)
}

func interiorRings(g *geos.Geom) [][][]float64 {
	n := g.NumInteriorRings()
	if n == 0 {
		return nil
	}
	holes := make([][][]float64, 0, n)
	for i := 0; i < n; i++ {
		holes = append(holes, ringCoords(g.InteriorRing(i)))
	}
	return holes
}

func ringCoords(ring *geos.Geom) [][]float64 {
	seq := ring.CoordSeq()
	if seq == nil {
		return nil
	}
	size := seq.Size()
	coords := make([][]float64, 0, size)
	for i := 0; i < size; i++ {
		coords = append(coords, []float64{seq.X(i), seq.Y(i)})
	}
	return coords
}

// openRing strips the closing duplicate so vertex sets can be compared.
func openRing(ring [][]float64) [][]float64 {
	if len(ring) > 1 {
		first, last := ring[0], ring[len(ring)-1]
		if first[0] == last[0] && first[1] == last[1] {
			return ring[:len(ring)-1]
		}
	}
	return ring
}

func closeRing(ring [][]float64) [][]float64 {
	if len(ring) == 0 {
		return ring
	}
	first, last := ring[0], ring[len(ring)-1]
	if first[0] == last[0] && first[1] == last[1] {
		return ring
	}
	closed := make([][]float64, 0, len(ring)+1)
	closed = append(closed, ring...)
	closed = append(closed, []float64{first[0], first[1]})
	return closed
}

// distinctVertices keeps the first occurrence of each coordinate pair,
// preserving ring order. Input must be an open ring.
func distinctVertices(ring [][]float64) [][]float64 {
	seen := make(map[[2]float64]bool, len(ring))
	uniq := make([][]float64, 0, len(ring))
	for _, c := range ring {
		key := [2]float64{c[0], c[1]}
		if seen[key] {
			continue
		}
		seen[key] = true
		uniq = append(uniq, c)
	}
	return uniq
}

func buildPolygon(exterior [][]float64, holes [][][]float64) *geos.Geom {
	rings := make([][][]float64, 0, 1+len(holes))
	rings = append(rings, closeRing(exterior))
	for _, h := range holes {
		rings = append(rings, closeRing(h))
	}
	return geos.NewPolygon(rings)
}

// signedRingArea is the planar shoelace area, positive for counter-clockwise.
func signedRingArea(ring [][]float64) float64 {
	var sum float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return sum / 2
}

func reverseRing(ring [][]float64) [][]float64 {
	out := make([][]float64, len(ring))
	for i, c := range ring {
		out[len(ring)-1-i] = c
	}
	return out
}
