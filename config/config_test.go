package config

import (
	"testing"
)

func TestDefaultBands(t *testing.T) {
	cfg := Default()

	if cfg.Subplot.MinAreaM2 != 450 || cfg.Subplot.MaxAreaM2 != 750 {
		t.Fatalf("subplot band = [%v, %v], want [450, 750]",
			cfg.Subplot.MinAreaM2, cfg.Subplot.MaxAreaM2)
	}
	if cfg.Plot.MinAreaM2 != 1000 || cfg.Plot.MaxAreaM2 != 300000 {
		t.Fatalf("plot band = [%v, %v], want [1000, 300000]",
			cfg.Plot.MinAreaM2, cfg.Plot.MaxAreaM2)
	}
	if cfg.Subplot.RadiusM != 40 || cfg.Plot.RadiusM != 200 {
		t.Fatalf("radii = %v/%v, want 40/200", cfg.Subplot.RadiusM, cfg.Plot.RadiusM)
	}
	if cfg.AccuracyM != 10 {
		t.Fatalf("AccuracyM = %v, want 10", cfg.AccuracyM)
	}
	if cfg.Subplot.MinOverlap != 0.5 || cfg.Subplot.OverlapBufferM != -5 {
		t.Fatalf("overlap defaults = %v/%v, want 0.5/-5",
			cfg.Subplot.MinOverlap, cfg.Subplot.OverlapBufferM)
	}
}

func TestParseOverridesOnTopOfDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
partner: acme
country_iso3: RWA
accuracy_m: 15
subplot:
  min_area_m2: 400
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Partner != "acme" || cfg.CountryISO3 != "RWA" {
		t.Fatalf("partner metadata not parsed: %+v", cfg)
	}
	if cfg.AccuracyM != 15 {
		t.Fatalf("AccuracyM = %v, want 15", cfg.AccuracyM)
	}
	if cfg.Subplot.MinAreaM2 != 400 {
		t.Fatalf("Subplot.MinAreaM2 = %v, want the override 400", cfg.Subplot.MinAreaM2)
	}
	if cfg.Plot.MaxAreaM2 != 300000 {
		t.Fatalf("untouched plot defaults must survive, got %v", cfg.Plot.MaxAreaM2)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("{not yaml")); err == nil {
		t.Fatalf("Parse accepted malformed yaml")
	}
}

func TestThresholdsFor(t *testing.T) {
	cfg := Default()

	tests := []struct {
		entity  string
		wantMin float64
		wantErr bool
	}{
		{"subplot", 450, false},
		{"plot", 1000, false},
		{"", 1000, false},
		{"farm", 0, true},
	}
	for _, tt := range tests {
		t.Run("entity_"+tt.entity, func(t *testing.T) {
			thr, err := cfg.ThresholdsFor(tt.entity)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error for entity %q", tt.entity)
				}
				return
			}
			if err != nil {
				t.Fatalf("ThresholdsFor(%q) failed: %v", tt.entity, err)
			}
			if thr.MinAreaM2 != tt.wantMin {
				t.Fatalf("MinAreaM2 = %v, want %v", thr.MinAreaM2, tt.wantMin)
			}
		})
	}
}
