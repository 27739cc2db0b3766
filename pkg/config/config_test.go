package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Processing.Workers <= 0 {
		t.Errorf("Expected positive worker count, got %d", cfg.Processing.Workers)
	}
	if cfg.Processing.TileSize != 256 {
		t.Errorf("Expected tile size 256, got %d", cfg.Processing.TileSize)
	}

	expected := map[string]string{
		"color_to_normals":     "LARGE",
		"normals_to_curvature": "MEDIUM",
		"normals_to_height":    "FALSE",
	}
	for op, v := range expected {
		if got := cfg.Option(op); got != v {
			t.Errorf("Expected default %s for %s, got %q", v, op, got)
		}
	}
	if got := cfg.Option("lowres_to_highres"); got != "" {
		t.Errorf("Expected no default scale factor, got %q", got)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Option("color_to_normals") != "LARGE" {
		t.Errorf("Expected defaults when the file is missing, got %+v", cfg.Options)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texmaps.yaml")
	doc := `processing:
  workers: 3
options:
  lowres_to_highres: x4
  normals_to_height: "TRUE"
output:
  save_intermediary_results: true
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Processing.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", cfg.Processing.Workers)
	}
	if cfg.Processing.TileSize != 256 {
		t.Errorf("Expected default tile size to survive, got %d", cfg.Processing.TileSize)
	}
	if cfg.Option("lowres_to_highres") != "x4" {
		t.Errorf("Expected x4, got %q", cfg.Option("lowres_to_highres"))
	}
	if cfg.Option("normals_to_height") != "TRUE" {
		t.Errorf("Expected TRUE, got %q", cfg.Option("normals_to_height"))
	}
	if cfg.Option("color_to_normals") != "LARGE" {
		t.Errorf("Expected untouched default LARGE, got %q", cfg.Option("color_to_normals"))
	}
	if !cfg.Output.SaveIntermediaryResults {
		t.Errorf("Expected save_intermediary_results to be set")
	}
	if cfg.Output.IntermediaryDir != "intermediary_results" {
		t.Errorf("Expected default intermediary dir, got %q", cfg.Output.IntermediaryDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level, got %q", cfg.Logging.Level)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("TEXMAPS__PROCESSING__TILE_SIZE", "64")
	t.Setenv("TEXMAPS__OPTIONS__COLOR_TO_NORMALS", "SMALL")
	t.Setenv("TEXMAPS__LOGGING__JSON", "true")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Processing.TileSize != 64 {
		t.Errorf("Expected tile size 64, got %d", cfg.Processing.TileSize)
	}
	if cfg.Option("color_to_normals") != "SMALL" {
		t.Errorf("Expected SMALL, got %q", cfg.Option("color_to_normals"))
	}
	if !cfg.Logging.JSON {
		t.Errorf("Expected JSON logging from the environment")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"negative workers", "processing:\n  workers: -1\n"},
		{"negative tile size", "processing:\n  tile_size: -8\n"},
		{"unknown level", "logging:\n  level: chatty\n"},
		{"malformed yaml", "processing: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.doc), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "texmaps.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	def := DefaultConfig()
	if cfg.Processing != def.Processing || cfg.Output != def.Output || cfg.Logging != def.Logging {
		t.Errorf("Expected reloaded defaults to match, got %+v", cfg)
	}
	if len(cfg.Options) != len(def.Options) {
		t.Errorf("Expected %d options, got %v", len(def.Options), cfg.Options)
	}
}
