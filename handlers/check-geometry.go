package handlers

import (
	"fmt"

	"github.com/twpayne/go-geos"
)

type GeometryIssue struct {
	Ref          int    `json:"ref"`
	ErrorMessage string `json:"errorMessage"`
}

// CheckGeometry reports the GEOS validity reason for every invalid part of
// a geometry collection. Used as a quick pre-upload diagnostic, separate
// from the full validation pipeline.
func CheckGeometry(geometryCollection *geos.Geom) []GeometryIssue {
	var issues []GeometryIssue

	fmt.Println("Found Geometries:", geometryCollection.NumGeometries())
	for i := range geometryCollection.NumGeometries() {
		shape := geometryCollection.Geometry(i)

		if !shape.IsValid() {
			reason := shape.IsValidReason()

			issues = append(issues, GeometryIssue{Ref: i, ErrorMessage: reason})
		}
	}
	return issues
}
