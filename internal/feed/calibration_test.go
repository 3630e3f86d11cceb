package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()

	// The five declared components sum to 1.0; the recency bonus sits
	// outside that table.
	sum := w.Location + w.Interests + w.Activity + w.Premium + w.Verification
	if sum != 1.0 {
		t.Errorf("declared weights sum to %v, want 1.0", sum)
	}
	if w.RecencyBonus != 0.05 {
		t.Errorf("recency bonus = %v, want 0.05", w.RecencyBonus)
	}
}

func TestLoadCalibration_EmptyPath(t *testing.T) {
	w, err := LoadCalibration("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *w != *DefaultWeights() {
		t.Errorf("expected defaults, got %+v", w)
	}
}

func TestLoadCalibration_MissingFile(t *testing.T) {
	w, err := LoadCalibration(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("expected error for missing file")
	}
	if w == nil || *w != *DefaultWeights() {
		t.Errorf("expected default weights on error, got %+v", w)
	}
}

func TestLoadCalibration_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	content := `{"version": "1", "weights": {"activity": 0.3, "premium": 0.1}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write calibration file: %v", err)
	}

	w, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.Activity != 0.3 {
		t.Errorf("activity = %v, want 0.3", w.Activity)
	}
	if w.Premium != 0.1 {
		t.Errorf("premium = %v, want 0.1", w.Premium)
	}
	// Untouched weights keep their defaults.
	if w.Location != 0.40 || w.Interests != 0.15 || w.Verification != 0.05 {
		t.Errorf("unexpected defaults changed: %+v", w)
	}
}

func TestLoadCalibration_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	w, err := LoadCalibration(path)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
	if w == nil || *w != *DefaultWeights() {
		t.Errorf("expected default weights on parse error, got %+v", w)
	}
}

func TestMergeCalibration_NilHandling(t *testing.T) {
	if w := MergeCalibration(nil, nil); *w != *DefaultWeights() {
		t.Errorf("nil base should yield defaults, got %+v", w)
	}

	base := &Weights{Location: 0.5, Activity: 0.5}
	merged := MergeCalibration(base, nil)
	if *merged != *base {
		t.Errorf("nil override should copy base, got %+v", merged)
	}
	if merged == base {
		t.Error("expected a copy, not the same pointer")
	}
}
