package pipeline

import (
	"math"
	"sort"

	"github.com/twpayne/go-geos"

	"github.com/akvo/gt-polygon-validator/geometry"
	"github.com/akvo/gt-polygon-validator/utils"
)

// OverlapConfig tunes the pairwise overlap scan.
type OverlapConfig struct {
	// MinOverlap is the intersection ratio above which two plots are
	// flagged. Default 0.5.
	MinOverlap float64
	// InwardBufferM shrinks every footprint before comparing, so plots that
	// merely share a GPS-noisy border are not flagged. Stored negative;
	// default -5.
	InwardBufferM float64
	// GridCellM is the spatial-index cell size in meters.
	GridCellM float64
}

type overlapCandidate struct {
	rec  *PolygonRecord
	geom *geos.Geom
	area float64
}

type overlapJob struct {
	a, b *overlapCandidate
	min  float64
}

type overlapHit struct {
	a, b  *overlapCandidate
	ratio float64
}

// DetectOverlaps flags every pair of plots whose shrunken footprints
// intersect by more than MinOverlap of the smaller one. The whole batch is
// projected into the UTM zone of its bounding-box center so every
// intersection is computed in one shared planar frame. Flagging is
// symmetric and a record never overlaps itself; records sharing a plot id
// are left to the duplicate check instead.
//
// keep filters which records are worth comparing at all; nil means compare
// everything with usable geometry.
func DetectOverlaps(records []*PolygonRecord, cfg OverlapConfig, keep func(*PolygonRecord) bool) {
	for _, rec := range records {
		if rec.OverlapIDs == nil {
			rec.OverlapIDs = []string{}
		}
	}

	if cfg.MinOverlap <= 0 {
		cfg.MinOverlap = 0.5
	}
	if cfg.InwardBufferM == 0 {
		cfg.InwardBufferM = -5
	}
	if cfg.InwardBufferM > 0 {
		cfg.InwardBufferM = -cfg.InwardBufferM
	}
	if cfg.GridCellM <= 0 {
		cfg.GridCellM = 256
	}

	zone, ok := batchZone(records)
	if !ok {
		return
	}

	candidates := make([]*overlapCandidate, 0, len(records))
	for _, rec := range records {
		if rec.Geometry == nil || rec.Geometry.IsEmpty() || !rec.Geometry.IsValid() {
			continue
		}
		if keep != nil && !keep(rec) {
			continue
		}
		utm := geometry.ToUTMZone(rec.Geometry, zone)
		if utm == nil || utm.IsEmpty() {
			continue
		}
		shrunk := utm.Buffer(cfg.InwardBufferM, 8)
		if shrunk == nil || shrunk.IsEmpty() {
			continue
		}
		area := shrunk.Area()
		if area <= 0 {
			continue
		}
		candidates = append(candidates, &overlapCandidate{rec: rec, geom: shrunk, area: area})
	}
	if len(candidates) < 2 {
		return
	}

	index := utils.NewSpatialIndex(cfg.GridCellM)
	for i, c := range candidates {
		index.AddGeometry(c.geom, i, c.rec.ID)
	}

	jobs := make([]interface{}, 0)
	for i, c := range candidates {
		for _, neighbor := range index.FindNeighbors(c.geom, 0) {
			j := neighbor.Index
			// each unordered pair is scanned once
			if j <= i {
				continue
			}
			if candidates[j].rec.ID == c.rec.ID {
				continue
			}
			jobs = append(jobs, overlapJob{
				a:   c,
				b:   candidates[j],
				min: math.Min(c.area, candidates[j].area),
			})
		}
	}
	if len(jobs) == 0 {
		return
	}

	processor := utils.NewParallelProcessor(0)
	results, _ := processor.ProcessBatch(jobs, func(item interface{}) interface{} {
		job := item.(overlapJob)
		intersection := job.a.geom.Intersection(job.b.geom)
		if intersection == nil || intersection.IsEmpty() {
			return nil
		}
		ratio := intersection.Area() / job.min
		if ratio <= cfg.MinOverlap {
			return nil
		}
		return overlapHit{a: job.a, b: job.b, ratio: ratio}
	}, "overlap_scan")

	partners := make(map[*PolygonRecord]map[string]float64)
	note := func(rec *PolygonRecord, otherID string, ratio float64) {
		if partners[rec] == nil {
			partners[rec] = make(map[string]float64)
		}
		if ratio > partners[rec][otherID] {
			partners[rec][otherID] = ratio
		}
	}
	for _, result := range results {
		hit := result.(overlapHit)
		note(hit.a.rec, hit.b.rec.ID, hit.ratio)
		note(hit.b.rec, hit.a.rec.ID, hit.ratio)
	}

	for rec, overlaps := range partners {
		ids := make([]string, 0, len(overlaps))
		maxRatio := 0.0
		for id, ratio := range overlaps {
			ids = append(ids, id)
			if ratio > maxRatio {
				maxRatio = ratio
			}
		}
		sort.Strings(ids)
		rec.OverlapIDs = ids
		rec.PercentageOverlap = math.Round(maxRatio*100) / 100
	}
}

// batchZone derives the shared UTM frame from the center of the batch
// bounding box.
func batchZone(records []*PolygonRecord) (geometry.Zone, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	found := false
	for _, rec := range records {
		if rec.Geometry == nil || rec.Geometry.IsEmpty() {
			continue
		}
		bounds := rec.Geometry.Bounds()
		if bounds == nil {
			continue
		}
		minX = math.Min(minX, bounds.MinX)
		minY = math.Min(minY, bounds.MinY)
		maxX = math.Max(maxX, bounds.MaxX)
		maxY = math.Max(maxY, bounds.MaxY)
		found = true
	}
	if !found {
		return geometry.Zone{}, false
	}
	return geometry.ZoneFor((minX+maxX)/2, (minY+maxY)/2)
}
