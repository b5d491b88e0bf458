package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/twpayne/go-geos"
)

// SurveyRow is one uploaded record before any parsing.
type SurveyRow struct {
	PlotID         string `json:"plot_id"`
	EnumeratorID   string `json:"enumerator_id"`
	CollectionDate string `json:"collection_date"`
	Device         string `json:"device"`
	Coordinates    string `json:"coordinates"`
}

// PolygonRecord is one survey record flowing through the validation
// pipeline. Geometry is never nil after parsing; records without usable
// geometry carry the canonical empty polygon. Pointer metrics are nil when
// undefined for the geometry.
type PolygonRecord struct {
	ID             string
	Enumerator     string
	CollectionDate time.Time
	Device         string

	Geometry         *geos.Geom
	OriginalVertices int

	AreaM2            float64
	NrVertices        int
	LengthWidthRatio  *float64
	ProtrudingRatio   *float64
	InRadius          *bool
	InCountry         bool
	Ecoregion         string
	DuplicateID       bool
	OverlapIDs        []string
	PercentageOverlap float64

	Reasons []string
	Valid   bool
}

// RecordID builds the canonical plot id for rows uploaded without one:
// {ISO3}_{partner}_{yyyymmdd}_{enumerator}_{seq}.
func RecordID(iso3, partner string, date time.Time, enumeratorID string, seq int) string {
	day := "00000000"
	if !date.IsZero() {
		day = date.Format("20060102")
	}
	if enumeratorID == "" {
		enumeratorID = "unknown"
	}
	return fmt.Sprintf("%s_%s_%s_%s_%d",
		strings.ToUpper(iso3), partner, day, enumeratorID, seq)
}
