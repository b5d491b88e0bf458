package geometry

import (
	"log"

	"github.com/twpayne/go-geos"

	"github.com/akvo/gt-polygon-validator/utils"
)

// RepairConfig tunes the repair chain. Zero values fall back to the field
// defaults.
type RepairConfig struct {
	// SimplifyToleranceM is the topology-preserving simplification tolerance
	// in UTM meters. Default 0.1.
	SimplifyToleranceM float64
	// BufferAreaTolerance is the relative area band inside which a
	// zero-width buffer result is accepted as a faithful repair. Default
	// 0.005, i.e. the area ratio must land in [0.995, 1.005).
	BufferAreaTolerance float64
	// MultiPartDominance is the share of total area the largest part of a
	// multipolygon needs before the other parts are discarded. Default 0.9.
	MultiPartDominance float64
}

type repairStep struct {
	name string
	fn   func(*geos.Geom) *geos.Geom
}

// StepReport counts how many geometries a repair step flipped between
// usable and unusable.
type StepReport struct {
	Name            string
	ValidityChanged int
}

// RepairChain applies a fixed sequence of conservative geometry fixes.
// Applying the chain to its own output is a no-op (within floating
// tolerance), so re-validating an already validated batch is safe.
type RepairChain struct {
	cfg   RepairConfig
	steps []repairStep
}

func NewRepairChain(cfg RepairConfig) *RepairChain {
	if cfg.SimplifyToleranceM <= 0 {
		cfg.SimplifyToleranceM = 0.1
	}
	if cfg.BufferAreaTolerance <= 0 {
		cfg.BufferAreaTolerance = 0.005
	}
	if cfg.MultiPartDominance <= 0 {
		cfg.MultiPartDominance = 0.9
	}
	c := &RepairChain{cfg: cfg}
	c.steps = []repairStep{
		{"dedup_vertices", c.dedupVertices},
		{"rescue_square", c.rescueFiveCoordinateRing},
		{"fix_orient", c.fixWithOrient},
		{"fix_rewind", c.fixWithRewind},
		{"fix_zero_buffer", c.fixWithZeroBuffer},
		{"force_2d", c.forceTwoD},
		{"drop_arealess", c.dropArealessTypes},
		{"collapse_multipart", c.collapseMultiPart},
		{"simplify", c.simplify},
		{"dedup_vertices_post", c.dedupVertices},
		{"replace_unusable", c.replaceUnusable},
	}
	return c
}

// Repair runs every step in order and always returns a non-nil geometry:
// either a valid polygon or the canonical empty polygon.
func (c *RepairChain) Repair(g *geos.Geom) *geos.Geom {
	for _, step := range c.steps {
		g = step.fn(g)
	}
	return g
}

// RepairBatch repairs a whole batch stage by stage and reports, per step,
// how many geometries changed usability.
func (c *RepairChain) RepairBatch(geoms []*geos.Geom) ([]*geos.Geom, []StepReport) {
	out := make([]*geos.Geom, len(geoms))
	copy(out, geoms)
	reports := make([]StepReport, len(c.steps))
	for si, step := range c.steps {
		reports[si].Name = step.name
		for i, g := range out {
			before := usable(g)
			fixed := step.fn(g)
			if usable(fixed) != before {
				reports[si].ValidityChanged++
			}
			out[i] = fixed
		}
		log.Printf("%-20s changed validity of %d geometries", step.name, reports[si].ValidityChanged)
	}
	return out, reports
}

func usable(g *geos.Geom) bool {
	return g != nil && !g.IsEmpty() && g.IsValid()
}

// dedupVertices collapses repeated exterior coordinates, a common artifact
// of enumerators standing still while the device keeps logging.
func (c *RepairChain) dedupVertices(g *geos.Geom) *geos.Geom {
	if g == nil || g.IsEmpty() || g.TypeID() != geos.TypeIDPolygon {
		return g
	}
	open := openRing(exteriorCoords(g))
	uniq := distinctVertices(open)
	if len(uniq) == len(open) {
		return g
	}
	if len(uniq) < 3 {
		return EmptyPolygon()
	}
	return buildPolygon(uniq, interiorRings(g))
}

// rescueFiveCoordinateRing replaces an invalid quadrilateral with its convex
// hull. A self-intersecting "bowtie" is the single most common field error
// on four-corner plots, and the hull recovers the intended square.
func (c *RepairChain) rescueFiveCoordinateRing(g *geos.Geom) *geos.Geom {
	if g == nil || g.IsEmpty() || g.IsValid() || g.TypeID() != geos.TypeIDPolygon {
		return g
	}
	if len(exteriorCoords(g)) != 5 {
		return g
	}
	hull := g.ConvexHull()
	if hull == nil || hull.TypeID() != geos.TypeIDPolygon || !hull.IsValid() {
		return g
	}
	return hull
}

// fixWithOrient rebuilds the rings with exterior counter-clockwise and holes
// clockwise, keeping the result only if GEOS accepts it.
func (c *RepairChain) fixWithOrient(g *geos.Geom) *geos.Geom {
	if g == nil || g.IsEmpty() || g.IsValid() || g.TypeID() != geos.TypeIDPolygon {
		return g
	}
	ext := exteriorCoords(g)
	if signedRingArea(ext) < 0 {
		ext = reverseRing(ext)
	}
	holes := interiorRings(g)
	for i, hole := range holes {
		if signedRingArea(hole) > 0 {
			holes[i] = reverseRing(hole)
		}
	}
	oriented := buildPolygon(openRing(ext), holes)
	if oriented == nil || !oriented.IsValid() {
		return g
	}
	return oriented
}

// fixWithRewind applies the GeoJSON right-hand rule, keeping the result only
// if it comes back valid.
func (c *RepairChain) fixWithRewind(g *geos.Geom) *geos.Geom {
	if g == nil || g.IsEmpty() || g.IsValid() {
		return g
	}
	rewound := RewindRightHand(g)
	if rewound == nil || !rewound.IsValid() {
		return g
	}
	return rewound
}

// fixWithZeroBuffer heals an invalid geometry with a zero-width buffer, but
// only accepts the result when the area survived essentially unchanged. A
// zero buffer silently discards whole lobes of a bowtie, which would let a
// badly mangled plot masquerade as a small valid one.
func (c *RepairChain) fixWithZeroBuffer(g *geos.Geom) *geos.Geom {
	if g == nil || g.IsEmpty() || g.IsValid() {
		return g
	}
	area := g.Area()
	if area == 0 {
		return g
	}
	buffered := g.Buffer(0, 8)
	if buffered == nil || buffered.IsEmpty() || !buffered.IsValid() {
		return g
	}
	ratio := buffered.Area() / area
	if ratio >= 1-c.cfg.BufferAreaTolerance && ratio < 1+c.cfg.BufferAreaTolerance {
		return buffered
	}
	return g
}

// forceTwoD rebuilds polygonal geometry from X/Y only, dropping any altitude
// a GeoJSON payload smuggled in.
func (c *RepairChain) forceTwoD(g *geos.Geom) *geos.Geom {
	if g == nil || g.IsEmpty() {
		return g
	}
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		return rebuildPolygon(g)
	case geos.TypeIDMultiPolygon:
		parts := make([]*geos.Geom, 0, g.NumGeometries())
		for i := 0; i < g.NumGeometries(); i++ {
			parts = append(parts, rebuildPolygon(g.Geometry(i)))
		}
		return geos.NewCollection(geos.TypeIDMultiPolygon, parts)
	}
	return g
}

func rebuildPolygon(g *geos.Geom) *geos.Geom {
	rings := Rings(g)
	if len(rings) == 0 {
		return g
	}
	return buildPolygon(openRing(rings[0]), rings[1:])
}

// dropArealessTypes rejects geometry that degenerated to a point or line.
func (c *RepairChain) dropArealessTypes(g *geos.Geom) *geos.Geom {
	if g == nil || g.IsEmpty() {
		return g
	}
	switch g.TypeID() {
	case geos.TypeIDPoint, geos.TypeIDLineString, geos.TypeIDMultiLineString:
		return EmptyPolygon()
	}
	return g
}

// collapseMultiPart unwraps single-part containers and reduces a
// multipolygon to its largest part when that part holds at least the
// configured share of the total area. A dominant part with satellite
// slivers is GPS noise; comparable parts mean the enumerator mapped two
// plots in one record, which must surface as invalid instead of being
// silently merged.
func (c *RepairChain) collapseMultiPart(g *geos.Geom) *geos.Geom {
	if g == nil || g.IsEmpty() {
		return g
	}
	switch g.TypeID() {
	case geos.TypeIDGeometryCollection:
		if g.NumGeometries() == 1 {
			return g.Geometry(0).Clone()
		}
		return g
	case geos.TypeIDMultiPolygon:
	default:
		return g
	}
	if g.NumGeometries() == 1 {
		return g.Geometry(0).Clone()
	}

	var total, best float64
	bestIdx := -1
	for i := 0; i < g.NumGeometries(); i++ {
		area := UTMAreaM2(g.Geometry(i))
		total += area
		if area > best {
			best = area
			bestIdx = i
		}
	}
	if bestIdx >= 0 && total > 0 && best/total >= c.cfg.MultiPartDominance {
		return g.Geometry(bestIdx).Clone()
	}
	return g
}

// simplify runs a topology-preserving simplification in the polygon's own
// UTM frame and projects back, rounding the coordinates to the export
// precision. Geometry whose centroid cannot be projected is unusable and
// collapses to empty.
func (c *RepairChain) simplify(g *geos.Geom) *geos.Geom {
	if g == nil || g.IsEmpty() {
		return g
	}
	utm, zone := ToUTM(g)
	if utm == nil || utm.IsEmpty() {
		return EmptyPolygon()
	}
	simplified := utm.TopologyPreserveSimplify(c.cfg.SimplifyToleranceM)
	if simplified == nil || simplified.IsEmpty() {
		return g
	}
	back := ToWGS84(simplified, zone)
	if back == nil || back.IsEmpty() {
		return g
	}
	rounded, err := utils.RoundGeometry(back)
	if err != nil || rounded == nil || !rounded.IsValid() {
		return g
	}
	return rounded
}

// replaceUnusable is the terminal pass: anything still nil, zero-area,
// outside the usable coordinate range or invalid becomes the canonical
// empty polygon.
func (c *RepairChain) replaceUnusable(g *geos.Geom) *geos.Geom {
	if g == nil || g.IsEmpty() {
		return EmptyPolygon()
	}
	if g.Area() == 0 {
		return EmptyPolygon()
	}
	bounds := g.Bounds()
	if bounds == nil ||
		bounds.MinX < -180 || bounds.MaxX > 180 ||
		bounds.MinY < MinUTMLat || bounds.MaxY > MaxUTMLat {
		return EmptyPolygon()
	}
	if !g.IsValid() {
		return EmptyPolygon()
	}
	return g
}
