package pipeline

import (
	"log"
	"time"

	"github.com/twpayne/go-geos"

	"github.com/akvo/gt-polygon-validator/config"
	"github.com/akvo/gt-polygon-validator/geometry"
	"github.com/akvo/gt-polygon-validator/lookup"
)

// Lookups are the optional reference datasets. A nil index skips its check:
// without country boundaries every record counts as in-country, without
// ecoregions the field stays empty.
type Lookups struct {
	Country   *lookup.CountryIndex
	Ecoregion *lookup.EcoregionIndex
}

// Pipeline validates one batch of survey rows. Stages run over the whole
// batch in order: parse, repair, measure, duplicates, country, ecoregion,
// overlap, reasons.
type Pipeline struct {
	cfg     *config.Config
	thr     config.Thresholds
	lookups Lookups
	repair  *geometry.RepairChain
}

func New(cfg *config.Config, thr config.Thresholds, lookups Lookups) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		thr:     thr,
		lookups: lookups,
		repair: geometry.NewRepairChain(geometry.RepairConfig{
			SimplifyToleranceM:  cfg.SimplifyToleranceM,
			BufferAreaTolerance: cfg.BufferAreaTolerance,
		}),
	}
}

// Run executes every stage and returns the classified records in input
// order. Bad rows never abort the batch; they come out classified invalid.
func (p *Pipeline) Run(rows []SurveyRow) []*PolygonRecord {
	log.Printf("=== validating batch of %d rows (partner=%s country=%s) ===",
		len(rows), p.cfg.Partner, p.cfg.CountryISO3)

	records := p.parseRows(rows)
	p.repairGeometries(records)
	p.computeMetrics(records)
	p.markDuplicateIDs(records)
	p.checkCountry(records)
	p.assignEcoregions(records)
	p.detectOverlaps(records)

	defer logStep("collect_reasons", len(records))()
	ApplyReasons(records, p.thr)
	return records
}

func logStep(name string, n int) func() {
	start := time.Now()
	return func() {
		log.Printf("%-18s shape=%d time=%s", name, n, time.Since(start).Round(time.Millisecond))
	}
}

func (p *Pipeline) parseRows(rows []SurveyRow) []*PolygonRecord {
	defer logStep("parse_vertices", len(rows))()

	opts := geometry.ParseOptions{
		AccuracyM:         p.cfg.AccuracyM,
		AccuracyZeroValid: p.cfg.AccuracyZeroValid,
		SkipTrustRatio:    p.cfg.SkipTrustRatio,
	}

	records := make([]*PolygonRecord, 0, len(rows))
	for i, row := range rows {
		date, err := time.Parse("2006-01-02", row.CollectionDate)
		if err != nil {
			date = time.Time{}
		}

		id := row.PlotID
		if id == "" {
			id = RecordID(p.cfg.CountryISO3, p.cfg.Partner, date, row.EnumeratorID, i+1)
		}

		geom := geometry.ParseVertexString(row.Coordinates, opts)
		records = append(records, &PolygonRecord{
			ID:               id,
			Enumerator:       row.EnumeratorID,
			CollectionDate:   date,
			Device:           row.Device,
			Geometry:         geom,
			OriginalVertices: geometry.VertexCount(geom),
			OverlapIDs:       []string{},
		})
	}
	return records
}

func (p *Pipeline) repairGeometries(records []*PolygonRecord) {
	defer logStep("repair_geometries", len(records))()

	geoms := make([]*geos.Geom, len(records))
	for i, rec := range records {
		geoms[i] = rec.Geometry
	}
	repaired, _ := p.repair.RepairBatch(geoms)
	for i, rec := range records {
		rec.Geometry = repaired[i]
	}
}

func (p *Pipeline) computeMetrics(records []*PolygonRecord) {
	defer logStep("compute_metrics", len(records))()

	for _, rec := range records {
		m := geometry.ComputeMetrics(rec.Geometry, p.thr.RadiusM)
		rec.AreaM2 = m.AreaM2
		rec.NrVertices = m.NrVertices
		rec.LengthWidthRatio = m.LengthWidthRatio
		rec.ProtrudingRatio = m.ProtrudingRatio
		rec.InRadius = m.InRadius
	}
}

func (p *Pipeline) markDuplicateIDs(records []*PolygonRecord) {
	defer logStep("duplicate_ids", len(records))()

	counts := make(map[string]int, len(records))
	for _, rec := range records {
		if rec.ID != "" {
			counts[rec.ID]++
		}
	}
	for _, rec := range records {
		rec.DuplicateID = rec.ID != "" && counts[rec.ID] > 1
	}
}

func (p *Pipeline) checkCountry(records []*PolygonRecord) {
	defer logStep("check_country", len(records))()

	if p.lookups.Country == nil {
		for _, rec := range records {
			rec.InCountry = true
		}
		return
	}
	for _, rec := range records {
		rec.InCountry = p.lookups.Country.Contains(
			p.cfg.CountryISO3, rec.Geometry, p.cfg.CountryBufferM)
	}
}

func (p *Pipeline) assignEcoregions(records []*PolygonRecord) {
	defer logStep("ecoregions", len(records))()

	if p.lookups.Ecoregion == nil {
		return
	}
	for _, rec := range records {
		rec.Ecoregion = p.lookups.Ecoregion.Assign(rec.Geometry)
	}
}

func (p *Pipeline) detectOverlaps(records []*PolygonRecord) {
	defer logStep("detect_overlaps", len(records))()

	DetectOverlaps(records, OverlapConfig{
		MinOverlap:    p.thr.MinOverlap,
		InwardBufferM: p.thr.OverlapBufferM,
	}, p.overlapPrefilter)
}

// overlapPrefilter keeps the pairwise scan to plots that already look like
// plausible plots. Anything failing a cheaper check is invalid anyway and
// comparing it would only add noise to the overlap ids.
func (p *Pipeline) overlapPrefilter(rec *PolygonRecord) bool {
	if !rec.InCountry {
		return false
	}
	if rec.InRadius == nil || !*rec.InRadius {
		return false
	}
	if rec.AreaM2 < p.thr.MinAreaM2 || rec.AreaM2 > p.thr.MaxAreaM2 {
		return false
	}
	if rec.ProtrudingRatio != nil && *rec.ProtrudingRatio > p.thr.MaxProtrudingRatio {
		return false
	}
	if rec.NrVertices <= p.thr.MaxVertices {
		return false
	}
	return true
}
