package pipeline

import (
	"fmt"
	"log"
	"strings"

	"github.com/akvo/gt-polygon-validator/config"
)

// Reason strings are part of the external contract: downstream reporting
// matches on them verbatim.
const (
	ReasonGeometryMissing = "Geometry missing"
	ReasonEmptyGeometry   = "Empty geometry"
	ReasonInvalidGeometry = "Invalid geometry"
	ReasonOverlap         = "Overlapping polygons"
	ReasonDuplicateID     = "Duplicate plot id"
	ReasonNotInCountry    = "Boundary not in country"
	ReasonOutsideRadius   = "Plot outside of radius"
	ReasonTooSmall        = "Plot too small"
	ReasonTooBig          = "Plot too big"
	ReasonProtruding      = "Plot is protruding"
)

// CollectReasons derives the ordered list of problems for one record. The
// three terminal geometry states short-circuit: a record without usable
// geometry gets exactly one reason. Everything else accumulates in a fixed
// order so equal inputs always produce the identical reason string.
func CollectReasons(rec *PolygonRecord, thr config.Thresholds) []string {
	if rec.Geometry == nil {
		return []string{ReasonGeometryMissing}
	}
	if rec.Geometry.IsEmpty() {
		return []string{ReasonEmptyGeometry}
	}
	if !rec.Geometry.IsValid() {
		return []string{ReasonInvalidGeometry}
	}

	reasons := []string{}
	if len(rec.OverlapIDs) > 0 {
		reasons = append(reasons, ReasonOverlap)
	}
	if rec.DuplicateID {
		reasons = append(reasons, ReasonDuplicateID)
	}
	if !rec.InCountry {
		reasons = append(reasons, ReasonNotInCountry)
	}
	if rec.InRadius != nil && !*rec.InRadius {
		reasons = append(reasons, ReasonOutsideRadius)
	}
	if rec.AreaM2 < thr.MinAreaM2 {
		reasons = append(reasons, ReasonTooSmall)
	}
	if rec.AreaM2 > thr.MaxAreaM2 {
		reasons = append(reasons, ReasonTooBig)
	}
	if rec.NrVertices <= thr.MaxVertices {
		reasons = append(reasons, fmt.Sprintf("Nr vertices <= %d", thr.MaxVertices))
	}
	if rec.ProtrudingRatio != nil && *rec.ProtrudingRatio > thr.MaxProtrudingRatio {
		reasons = append(reasons, ReasonProtruding)
	}
	return reasons
}

// ApplyReasons classifies every record in the batch.
func ApplyReasons(records []*PolygonRecord, thr config.Thresholds) {
	invalid := 0
	for _, rec := range records {
		rec.Reasons = CollectReasons(rec, thr)
		rec.Valid = len(rec.Reasons) == 0
		if !rec.Valid {
			invalid++
		}
	}
	log.Printf("collect_reasons: %d of %d records invalid", invalid, len(records))
}

// ReasonsString joins the reasons the way the reporting layer expects them.
func ReasonsString(rec *PolygonRecord) string {
	return strings.Join(rec.Reasons, ";")
}
