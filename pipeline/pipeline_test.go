package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/akvo/gt-polygon-validator/config"
)

func newSubplotPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.Partner = "partner"
	cfg.CountryISO3 = "RWA"
	return New(cfg, cfg.Subplot, Lookups{})
}

func TestPipelineCleanSubplot(t *testing.T) {
	p := newSubplotPipeline(t)

	rows := []SurveyRow{{
		PlotID:         "RWA_partner_20240110_e1_1",
		EnumeratorID:   "e1",
		CollectionDate: "2024-01-10",
		Device:         "device-1",
		Coordinates:    squareVertexString(30, -2, 22.36, 5),
	}}

	records := p.Run(rows)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]

	if !rec.Valid {
		t.Fatalf("clean 500 m2 subplot classified invalid: %v", rec.Reasons)
	}
	if rec.AreaM2 < 450 || rec.AreaM2 > 750 {
		t.Fatalf("AreaM2 = %.1f, want inside the subplot band", rec.AreaM2)
	}
	if rec.NrVertices != 4 {
		t.Fatalf("NrVertices = %d, want 4", rec.NrVertices)
	}
	if !rec.InCountry {
		t.Fatalf("in-country must default to true without a boundary dataset")
	}
	if rec.OverlapIDs == nil || len(rec.OverlapIDs) != 0 {
		t.Fatalf("OverlapIDs = %v, want empty non-nil", rec.OverlapIDs)
	}
}

func TestPipelineBowtieIsRescued(t *testing.T) {
	p := newSubplotPipeline(t)

	// square corners walked in crossing order
	dLon, dLat := degreesAt(-2, 23)
	coords := [][]float64{
		{30, -2},
		{30 + dLon, -2 + dLat},
		{30 + dLon, -2},
		{30, -2 + dLat},
	}
	parts := make([]string, 0, len(coords))
	for _, c := range coords {
		parts = append(parts, fmt.Sprintf("%.7f %.7f 1100.0 5.0", c[0], c[1]))
	}

	records := p.Run([]SurveyRow{{
		PlotID:         "bowtie",
		EnumeratorID:   "e1",
		CollectionDate: "2024-01-10",
		Coordinates:    strings.Join(parts, ";"),
	}})

	rec := records[0]
	if rec.Geometry.IsEmpty() {
		t.Fatalf("bowtie collapsed to empty instead of being rescued")
	}
	if !rec.Geometry.IsValid() {
		t.Fatalf("bowtie still invalid after repair")
	}
	if !rec.Valid {
		t.Fatalf("rescued 23 m square classified invalid: %v", rec.Reasons)
	}
}

func TestPipelineBadAccuracyBecomesEmpty(t *testing.T) {
	p := newSubplotPipeline(t)

	records := p.Run([]SurveyRow{{
		PlotID:      "noisy",
		Coordinates: squareVertexString(30, -2, 22.36, 99),
	}})

	rec := records[0]
	if !rec.Geometry.IsEmpty() {
		t.Fatalf("all-noisy vertices must produce the empty polygon")
	}
	if rec.Valid {
		t.Fatalf("empty-geometry record classified valid")
	}
	if len(rec.Reasons) != 1 || rec.Reasons[0] != ReasonEmptyGeometry {
		t.Fatalf("Reasons = %v, want exactly [%s]", rec.Reasons, ReasonEmptyGeometry)
	}
}

func TestPipelineSizeAndVertexReasons(t *testing.T) {
	p := newSubplotPipeline(t)

	dLon, dLat := degreesAt(-2, 15)
	triangle := fmt.Sprintf(
		"%.7f %.7f 1100.0 5.0;%.7f %.7f 1100.0 5.0;%.7f %.7f 1100.0 5.0",
		30.0, -2.0, 30.0+dLon, -2.0, 30.0+dLon, -2.0+dLat)

	records := p.Run([]SurveyRow{
		{PlotID: "small-triangle", Coordinates: triangle},
		{PlotID: "too-big", Coordinates: squareVertexString(30.1, -2, 40, 5)},
	})

	small := records[0]
	if small.Valid {
		t.Fatalf("a 112 m2 triangle cannot be a valid subplot")
	}
	// the minimum rotated rectangle doubles a right triangle, so the
	// protruding check fires as well
	wantSmall := []string{ReasonTooSmall, "Nr vertices <= 3", ReasonProtruding}
	if ReasonsString(small) != strings.Join(wantSmall, ";") {
		t.Fatalf("Reasons = %q, want %q", ReasonsString(small), strings.Join(wantSmall, ";"))
	}

	big := records[1]
	if big.Valid {
		t.Fatalf("a 1600 m2 square cannot be a valid subplot")
	}
	if ReasonsString(big) != ReasonTooBig {
		t.Fatalf("Reasons = %q, want %q", ReasonsString(big), ReasonTooBig)
	}
}

func TestOverlapPrefilterKeepsElongatedPlots(t *testing.T) {
	p := newSubplotPipeline(t)

	rec := &PolygonRecord{
		Geometry:         squareAt(30, -2, 22.36),
		AreaM2:           500,
		NrVertices:       4,
		InCountry:        true,
		InRadius:         boolPtr(true),
		LengthWidthRatio: floatPtr(5),
		ProtrudingRatio:  floatPtr(1.0),
	}
	if !p.overlapPrefilter(rec) {
		t.Fatalf("an elongated but otherwise plausible plot must enter the overlap scan")
	}
}

func TestPipelineDuplicateIDs(t *testing.T) {
	p := newSubplotPipeline(t)

	farLon, _ := degreesAt(-2, 5000)
	records := p.Run([]SurveyRow{
		{PlotID: "dup", Coordinates: squareVertexString(30, -2, 22.36, 5)},
		{PlotID: "dup", Coordinates: squareVertexString(30+farLon, -2, 22.36, 5)},
	})

	for i, rec := range records {
		if !rec.DuplicateID {
			t.Fatalf("record %d not flagged as duplicate", i)
		}
		if !strings.Contains(ReasonsString(rec), ReasonDuplicateID) {
			t.Fatalf("record %d reasons = %q, want %q included", i, ReasonsString(rec), ReasonDuplicateID)
		}
	}
}

func TestPipelineGeneratesRecordIDs(t *testing.T) {
	p := newSubplotPipeline(t)

	records := p.Run([]SurveyRow{{
		EnumeratorID:   "e9",
		CollectionDate: "2024-03-05",
		Coordinates:    squareVertexString(30, -2, 22.36, 5),
	}})

	want := "RWA_partner_20240305_e9_1"
	if records[0].ID != want {
		t.Fatalf("generated id = %q, want %q", records[0].ID, want)
	}
}

func TestRecordID(t *testing.T) {
	got := RecordID("rwa", "partner", mustDate(t, "2024-01-10"), "e1", 3)
	if got != "RWA_partner_20240110_e1_3" {
		t.Fatalf("RecordID = %q", got)
	}

	got = RecordID("RWA", "partner", mustDate(t, "2024-01-10"), "", 1)
	if got != "RWA_partner_20240110_unknown_1" {
		t.Fatalf("RecordID without enumerator = %q", got)
	}
}
