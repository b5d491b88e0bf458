package geometry

import (
	"strconv"
	"strings"

	"github.com/twpayne/go-geos"
)

// ExcelCellLimit is the maximum character count of an Excel cell. A raw
// vertex string at exactly this length has been truncated upstream and its
// tail vertices are gone, so the whole string is untrustworthy.
const ExcelCellLimit = 32767

// ParseOptions control which raw vertices survive parsing.
type ParseOptions struct {
	// AccuracyM is the maximum acceptable GPS accuracy in meters.
	AccuracyM float64
	// AccuracyZeroValid keeps vertices reporting an accuracy of exactly 0.
	// Some devices report 0 for "no fix", others for "perfect fix".
	AccuracyZeroValid bool
	// SkipTrustRatio empties the polygon when skipped vertices reach this
	// multiple of the surviving ones. Defaults to 4.
	SkipTrustRatio float64
}

// ParseVertexString converts a semicolon-delimited vertex string
// ("lon lat altitude accuracy;...") into a polygon. Vertices whose accuracy
// is worse than the threshold are dropped, and when too few or too
// untrustworthy vertices remain the result is the empty polygon. Parsing
// never fails: malformed input degrades to the empty polygon so the record
// can still be classified downstream.
func ParseVertexString(raw string, opts ParseOptions) *geos.Geom {
	if len(raw) == ExcelCellLimit {
		return EmptyPolygon()
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EmptyPolygon()
	}

	trustRatio := opts.SkipTrustRatio
	if trustRatio <= 0 {
		trustRatio = 4
	}

	var ring [][]float64
	skipped := 0
	for _, vertex := range strings.Split(raw, ";") {
		fields := strings.Fields(vertex)
		if len(fields) < 4 {
			skipped++
			continue
		}
		lon, errLon := strconv.ParseFloat(fields[0], 64)
		lat, errLat := strconv.ParseFloat(fields[1], 64)
		accuracy, errAcc := strconv.ParseFloat(fields[3], 64)
		if errLon != nil || errLat != nil || errAcc != nil {
			skipped++
			continue
		}
		if opts.AccuracyM > 0 && accuracy > opts.AccuracyM {
			skipped++
			continue
		}
		if accuracy == 0 && !opts.AccuracyZeroValid {
			skipped++
			continue
		}
		ring = append(ring, []float64{lon, lat})
	}

	if len(ring) < 3 {
		return EmptyPolygon()
	}
	if float64(skipped) >= trustRatio*float64(len(ring)) {
		return EmptyPolygon()
	}

	return buildPolygon(ring, nil)
}
