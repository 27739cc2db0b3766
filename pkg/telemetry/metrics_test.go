package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestObserveAndWrite(t *testing.T) {
	m := New()
	m.ObserveRun("normals_to_height", "ok", 120*time.Millisecond)
	m.ObserveRun("lowres_to_highres", "validate", 0)
	m.ObserveTick("normals_to_height")
	m.ObserveTick("normals_to_height")

	families, err := m.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) != 3 {
		t.Errorf("Expected 3 metric families, got %d", len(families))
	}

	path := filepath.Join(t.TempDir(), "texmaps.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	text := string(data)
	for _, want := range []string{
		`texmaps_runs_total{operation="normals_to_height",status="ok"} 1`,
		`texmaps_runs_total{operation="lowres_to_highres",status="validate"} 1`,
		`texmaps_progress_ticks_total{operation="normals_to_height"} 2`,
		`texmaps_run_duration_seconds_count{operation="normals_to_height"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in textfile:\n%s", want, text)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRun("x", "ok", time.Second)
	m.ObserveTick("x")
}
