package export

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geos"

	"github.com/akvo/gt-polygon-validator/geometry"
	"github.com/akvo/gt-polygon-validator/pipeline"
	"github.com/akvo/gt-polygon-validator/utils"
)

// FeatureCollection renders a classified batch as GeoJSON features. Every
// record becomes one feature; records without usable geometry carry an
// empty polygon so the collection stays positionally aligned with the
// upload.
func FeatureCollection(records []*pipeline.PolygonRecord) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, rec := range records {
		feature := geojson.NewFeature(orbGeometry(rec.Geometry))
		feature.ID = rec.ID
		feature.Properties = recordProperties(rec)
		fc.Append(feature)
	}
	return fc
}

func recordProperties(rec *pipeline.PolygonRecord) geojson.Properties {
	date := ""
	if !rec.CollectionDate.IsZero() {
		date = rec.CollectionDate.Format("2006-01-02")
	}
	props := geojson.Properties{
		"plot_id":            rec.ID,
		"enumerator_id":      rec.Enumerator,
		"collection_date":    date,
		"device":             rec.Device,
		"area_m2":            rec.AreaM2,
		"nr_vertices":        rec.NrVertices,
		"original_vertices":  rec.OriginalVertices,
		"in_country":         rec.InCountry,
		"ecoregion":          rec.Ecoregion,
		"duplicate_plot_id":  rec.DuplicateID,
		"gt_overlaps":        joinIDs(rec.OverlapIDs),
		"percentage_overlap": rec.PercentageOverlap,
		"reasons":            pipeline.ReasonsString(rec),
		"valid":              rec.Valid,
	}
	if rec.LengthWidthRatio != nil {
		props["length_width_ratio"] = *rec.LengthWidthRatio
	}
	if rec.ProtrudingRatio != nil {
		props["protruding_ratio"] = *rec.ProtrudingRatio
	}
	if rec.InRadius != nil {
		props["in_radius"] = *rec.InRadius
	}
	return props
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ";"
		}
		out += id
	}
	return out
}

// orbGeometry converts GEOS geometry into the orb model, coordinates
// rounded to the export precision. Anything non-areal renders as an empty
// polygon.
func orbGeometry(g *geos.Geom) orb.Geometry {
	if g == nil || g.IsEmpty() {
		return orb.Polygon{}
	}
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		return orbPolygon(g)
	case geos.TypeIDMultiPolygon:
		mp := make(orb.MultiPolygon, 0, g.NumGeometries())
		for i := 0; i < g.NumGeometries(); i++ {
			mp = append(mp, orbPolygon(g.Geometry(i)))
		}
		return mp
	}
	return orb.Polygon{}
}

func orbPolygon(g *geos.Geom) orb.Polygon {
	rings := geometry.Rings(g)
	polygon := make(orb.Polygon, 0, len(rings))
	for _, ring := range rings {
		orbRing := make(orb.Ring, 0, len(ring))
		for _, c := range ring {
			x, y := utils.RoundCoordinates(c[0], c[1])
			orbRing = append(orbRing, orb.Point{x, y})
		}
		polygon = append(polygon, orbRing)
	}
	return polygon
}

// ParseFeatureCollection reads a previously exported feature collection
// back into records, so an already validated batch can be re-validated.
func ParseFeatureCollection(data []byte) ([]*pipeline.PolygonRecord, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feature collection: %v", err)
	}

	records := make([]*pipeline.PolygonRecord, 0, len(fc.Features))
	for i, feature := range fc.Features {
		geomJSON, err := geojson.NewGeometry(feature.Geometry).MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("feature %d: failed to encode geometry: %v", i, err)
		}
		geom, err := geos.NewGeomFromGeoJSON(string(geomJSON))
		if err != nil {
			return nil, fmt.Errorf("feature %d: failed to rebuild geometry: %v", i, err)
		}
		record := recordFromProperties(feature.Properties)
		record.Geometry = geom
		records = append(records, record)
	}
	return records, nil
}

func recordFromProperties(props geojson.Properties) *pipeline.PolygonRecord {
	rec := &pipeline.PolygonRecord{
		ID:         stringProp(props, "plot_id"),
		Enumerator: stringProp(props, "enumerator_id"),
		Device:     stringProp(props, "device"),
		Ecoregion:  stringProp(props, "ecoregion"),
		OverlapIDs: []string{},
	}
	if date, err := time.Parse("2006-01-02", stringProp(props, "collection_date")); err == nil {
		rec.CollectionDate = date
	}
	return rec
}

func stringProp(props geojson.Properties, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
