package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/twpayne/go-geos"

	"github.com/akvo/gt-polygon-validator/handlers"
	"github.com/akvo/gt-polygon-validator/lookup"
	"github.com/akvo/gt-polygon-validator/pipeline"
)

func main() {
	log.Printf("=== Starting GT Polygon Validator Server ===")

	service := &handlers.Service{
		Lookups: loadLookups(),
	}

	// Register handlers
	http.HandleFunc("/validate", service.Validate)
	http.HandleFunc("/check-geometry", checkGeometryHandler)
	http.HandleFunc("/healthz", service.Health)

	log.Printf("Registered all HTTP handlers")

	// Start the HTTP server on port 8080
	log.Printf("Server is listening on port 8080...")
	fmt.Println("Server is listening on port 8080...")

	err := http.ListenAndServe(":8080", nil)
	if err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// loadLookups reads the optional reference datasets. Checks whose dataset
// is missing are skipped by the pipeline.
func loadLookups() pipeline.Lookups {
	var lookups pipeline.Lookups

	if path := os.Getenv("COUNTRY_SHAPEFILE"); path != "" {
		field := os.Getenv("COUNTRY_ISO_FIELD")
		if field == "" {
			field = "GID_0"
		}
		index, err := lookup.LoadCountryIndex(path, field)
		if err != nil {
			log.Fatalf("Failed to load country boundaries: %v", err)
		}
		lookups.Country = index
	} else {
		log.Printf("COUNTRY_SHAPEFILE not set, country check disabled")
	}

	if path := os.Getenv("ECOREGION_SHAPEFILE"); path != "" {
		field := os.Getenv("ECOREGION_NAME_FIELD")
		if field == "" {
			field = "ECO_NAME"
		}
		index, err := lookup.LoadEcoregionIndex(path, field)
		if err != nil {
			log.Fatalf("Failed to load ecoregions: %v", err)
		}
		lookups.Ecoregion = index
	} else {
		log.Printf("ECOREGION_SHAPEFILE not set, ecoregion assignment disabled")
	}

	return lookups
}

func readBody(w http.ResponseWriter, r *http.Request) string {
	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method, only POST allowed", http.StatusMethodNotAllowed)
		return ""
	}

	// Read the request body
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Error reading request body", http.StatusInternalServerError)
		return ""
	}
	defer r.Body.Close()

	return string(body)
}

func checkGeometryHandler(w http.ResponseWriter, r *http.Request) {
	body := readBody(w, r)
	if body == "" {
		return
	}
	geom, err := geos.NewGeomFromGeoJSON(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("ERROR: failed to parse geometry: %v", err), http.StatusBadRequest)
		return
	}
	issues := handlers.CheckGeometry(geom)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(issues)
}
