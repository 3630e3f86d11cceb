package feed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Weights defines the contribution of each scoring component.
//
// The five weighted components (location, interests, activity, premium,
// verification) sum to 1.0. RecencyBonus is applied outside that table,
// additive on top of the weighted base, so the nominal total basis
// exceeds 1.0. That structure is intentional headroom and determines
// relative ranking; do not renormalize it.
type Weights struct {
	Location     float64 `json:"location"`      // default: 0.40
	Interests    float64 `json:"interests"`     // default: 0.15
	Activity     float64 `json:"activity"`      // default: 0.20
	Premium      float64 `json:"premium"`       // default: 0.20
	Verification float64 `json:"verification"`  // default: 0.05
	RecencyBonus float64 `json:"recency_bonus"` // default: 0.05, outside the weight table
}

// CalibrationConfig is the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight overrides
}

// DefaultWeights returns the production ranking weight configuration.
//
// Formula per post, on a base of 100:
//
//	score = 100 + (location * 0.40) + (interests * 0.15) + (activity * 0.20)
//	      + (premium * 0.20) + (verification * 0.05) + (recency * 0.05)
func DefaultWeights() *Weights {
	return &Weights{
		Location:     0.40,
		Interests:    0.15,
		Activity:     0.20,
		Premium:      0.20,
		Verification: 0.05,
		RecencyBonus: 0.05,
	}
}

// LoadCalibration loads ranking weights from a JSON calibration file.
// Partial configurations are merged with defaults so operators can
// override a single weight. On any error the defaults are returned
// alongside the error for graceful degradation.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights onto base weights.
// Only non-zero override values are applied, allowing partial
// calibration files.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.Location != 0 {
		result.Location = override.Location
	}
	if override.Interests != 0 {
		result.Interests = override.Interests
	}
	if override.Activity != 0 {
		result.Activity = override.Activity
	}
	if override.Premium != 0 {
		result.Premium = override.Premium
	}
	if override.Verification != 0 {
		result.Verification = override.Verification
	}
	if override.RecencyBonus != 0 {
		result.RecencyBonus = override.RecencyBonus
	}

	return &result
}

// logCalibrationOverrides logs which weights differ from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	pairs := []struct {
		name string
		def  float64
		got  float64
	}{
		{"location", defaults.Location, loaded.Location},
		{"interests", defaults.Interests, loaded.Interests},
		{"activity", defaults.Activity, loaded.Activity},
		{"premium", defaults.Premium, loaded.Premium},
		{"verification", defaults.Verification, loaded.Verification},
		{"recency_bonus", defaults.RecencyBonus, loaded.RecencyBonus},
	}
	for _, p := range pairs {
		if p.got != p.def {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", p.name, p.def, p.got))
		}
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
