package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geos"

	"github.com/akvo/gt-polygon-validator/geometry"
	"github.com/akvo/gt-polygon-validator/pipeline"
)

const shapefileBaseName = "validated_plots"

// ShapefileZip packs a classified batch into a zip holding both the GeoJSON
// feature collection and a shapefile. Records without usable geometry appear
// in the JSON only; a shapefile row needs a footprint to draw.
func ShapefileZip(records []*pipeline.PolygonRecord) ([]byte, error) {
	var zipBuffer bytes.Buffer
	zipWriter := zip.NewWriter(&zipBuffer)

	jsonData, err := FeatureCollection(records).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode feature collection: %v", err)
	}
	jsonFile, err := zipWriter.Create(shapefileBaseName + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON file in zip: %v", err)
	}
	if _, err = jsonFile.Write(jsonData); err != nil {
		return nil, fmt.Errorf("failed to write JSON data to zip: %v", err)
	}

	if err = addShapefileToZip(zipWriter, records); err != nil {
		return nil, fmt.Errorf("failed to add shapefile to zip: %v", err)
	}

	if err = zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip writer: %v", err)
	}

	return zipBuffer.Bytes(), nil
}

func addShapefileToZip(zipWriter *zip.Writer, records []*pipeline.PolygonRecord) error {
	tempDir, err := os.MkdirTemp("", "shapefile_")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(tempDir)

	shapefilePath := filepath.Join(tempDir, shapefileBaseName+".shp")
	if err = writeShapefile(shapefilePath, records); err != nil {
		return fmt.Errorf("failed to generate shapefile: %v", err)
	}

	extensions := []string{".shp", ".shx", ".dbf"}
	for _, ext := range extensions {
		filePath := strings.TrimSuffix(shapefilePath, ".shp") + ext

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			continue
		}

		fileContent, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read shapefile component %s: %v", ext, err)
		}

		zipFile, err := zipWriter.Create(shapefileBaseName + ext)
		if err != nil {
			return fmt.Errorf("failed to create %s file in zip: %v", ext, err)
		}

		if _, err = zipFile.Write(fileContent); err != nil {
			return fmt.Errorf("failed to write %s data to zip: %v", ext, err)
		}
	}

	return nil
}

func shapefileFields() []shp.Field {
	return []shp.Field{
		shp.StringField("PLOT_ID", 50),
		shp.StringField("ENUM", 30),
		shp.StringField("DATE", 10),
		shp.FloatField("AREA_M2", 15, 2),
		shp.NumberField("NR_VERT", 10),
		shp.StringField("IN_CNTRY", 5),
		shp.StringField("ECOREGION", 100),
		shp.StringField("OVERLAPS", 254),
		shp.FloatField("PCT_OVERLP", 6, 2),
		shp.StringField("REASONS", 254),
		shp.StringField("VALID", 5),
	}
}

func writeShapefile(shapefilePath string, records []*pipeline.PolygonRecord) error {
	shape, err := shp.Create(shapefilePath, shp.POLYGON)
	if err != nil {
		return fmt.Errorf("failed to create shapefile: %v", err)
	}
	defer shape.Close()

	fields := shapefileFields()
	shape.SetFields(fields)

	row := 0
	for _, rec := range records {
		if rec.Geometry == nil || rec.Geometry.IsEmpty() {
			continue
		}
		polygon := shpPolygon(rec.Geometry)
		if polygon == nil {
			continue
		}
		shape.Write(polygon)

		date := ""
		if !rec.CollectionDate.IsZero() {
			date = rec.CollectionDate.Format("2006-01-02")
		}
		shape.WriteAttribute(row, 0, rec.ID)
		shape.WriteAttribute(row, 1, rec.Enumerator)
		shape.WriteAttribute(row, 2, date)
		shape.WriteAttribute(row, 3, rec.AreaM2)
		shape.WriteAttribute(row, 4, rec.NrVertices)
		shape.WriteAttribute(row, 5, boolAttr(rec.InCountry))
		shape.WriteAttribute(row, 6, rec.Ecoregion)
		shape.WriteAttribute(row, 7, clipAttr(joinIDs(rec.OverlapIDs), 254))
		shape.WriteAttribute(row, 8, rec.PercentageOverlap)
		shape.WriteAttribute(row, 9, clipAttr(pipeline.ReasonsString(rec), 254))
		shape.WriteAttribute(row, 10, boolAttr(rec.Valid))
		row++
	}

	return nil
}

func boolAttr(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func clipAttr(v string, max int) string {
	if len(v) > max {
		return v[:max]
	}
	return v
}

// shpPolygon flattens a polygon or multipolygon into one shapefile shape
// with ring part offsets.
func shpPolygon(g *geos.Geom) *shp.Polygon {
	var ringSets [][][]float64
	switch g.TypeID() {
	case geos.TypeIDPolygon:
		ringSets = geometry.Rings(g)
	case geos.TypeIDMultiPolygon:
		for i := 0; i < g.NumGeometries(); i++ {
			ringSets = append(ringSets, geometry.Rings(g.Geometry(i))...)
		}
	default:
		return nil
	}
	if len(ringSets) == 0 {
		return nil
	}

	polygon := &shp.Polygon{}
	for _, ring := range ringSets {
		var points []shp.Point
		for _, c := range ring {
			points = append(points, shp.Point{X: c[0], Y: c[1]})
		}
		if len(points) == 0 {
			continue
		}
		polygon.Parts = append(polygon.Parts, int32(len(polygon.Points)))
		polygon.Points = append(polygon.Points, points...)
	}
	if len(polygon.Points) == 0 {
		return nil
	}
	return polygon
}
