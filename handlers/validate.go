package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/akvo/gt-polygon-validator/config"
	"github.com/akvo/gt-polygon-validator/export"
	"github.com/akvo/gt-polygon-validator/pipeline"
	"github.com/akvo/gt-polygon-validator/utils"
)

// ValidateRequest is the POST /validate payload: survey rows plus the
// entity kind and an optional yaml config overriding the defaults.
type ValidateRequest struct {
	Entity string               `json:"entity"`
	Config string               `json:"config"`
	Rows   []pipeline.SurveyRow `json:"rows"`
}

// Service carries the reference datasets loaded at startup.
type Service struct {
	Lookups pipeline.Lookups
}

// Validate runs the full validation pipeline on an uploaded batch. Accepts
// a JSON body or a multipart form with the rows JSON under "rows". With
// ?format=shapefile the response is a zip holding GeoJSON plus shapefile;
// otherwise it is the GeoJSON feature collection.
func (s *Service) Validate(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("PANIC recovered in Validate: %v", rec)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}()

	if r.Method != http.MethodPost {
		http.Error(w, "Invalid request method, only POST allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := readValidateRequest(r)
	if err != nil {
		http.Error(w, fmt.Sprintf("ERROR: %v", err), http.StatusBadRequest)
		return
	}

	cfg := config.Default()
	if req.Config != "" {
		cfg, err = config.Parse([]byte(req.Config))
		if err != nil {
			http.Error(w, fmt.Sprintf("ERROR: %v", err), http.StatusBadRequest)
			return
		}
	}
	thresholds, err := cfg.ThresholdsFor(req.Entity)
	if err != nil {
		http.Error(w, fmt.Sprintf("ERROR: %v", err), http.StatusBadRequest)
		return
	}

	records := pipeline.New(cfg, thresholds, s.Lookups).Run(req.Rows)

	if r.URL.Query().Get("format") == "shapefile" {
		zipData, err := export.ShapefileZip(records)
		if err != nil {
			http.Error(w, fmt.Sprintf("ERROR: shapefile export failed: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", "attachment; filename=\"validated_plots.zip\"")
		w.WriteHeader(http.StatusOK)
		w.Write(zipData)
		return
	}

	data, err := export.FeatureCollection(records).MarshalJSON()
	if err != nil {
		http.Error(w, fmt.Sprintf("ERROR: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func readValidateRequest(r *http.Request) (*ValidateRequest, error) {
	contentType := r.Header.Get("Content-Type")

	var req ValidateRequest
	if strings.Contains(contentType, "multipart/") {
		multiPartRequest := utils.ReadMultiPartForm(r, "rows")
		if multiPartRequest.File == "" {
			return nil, fmt.Errorf("no rows file in multipart form")
		}
		if err := json.Unmarshal([]byte(multiPartRequest.File), &req.Rows); err != nil {
			return nil, fmt.Errorf("failed to parse rows: %v", err)
		}
		req.Entity = multiPartRequest.Properties.Entity
		req.Config = multiPartRequest.Properties.Config
		return &req, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse request body: %v", err)
	}
	defer r.Body.Close()
	return &req, nil
}

// Health is the liveness probe.
func (s *Service) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
