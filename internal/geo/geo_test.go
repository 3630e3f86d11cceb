package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		wantKm                 float64
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: 48.8566, lng1: 2.3522,
			lat2: 48.8566, lng2: 2.3522,
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name: "paris to london",
			lat1: 48.8566, lng1: 2.3522,
			lat2: 51.5074, lng2: -0.1278,
			wantKm:    343.5,
			tolerance: 2.0,
		},
		{
			name: "equator quarter circumference",
			lat1: 0, lng1: 0,
			lat2: 0, lng2: 90,
			wantKm:    10007.5,
			tolerance: 10.0,
		},
		{
			name: "antipodal-ish short hop",
			lat1: -33.8688, lng1: 151.2093, // Sydney
			lat2: -37.8136, lng2: 144.9631, // Melbourne
			wantKm:    713.4,
			tolerance: 5.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("Haversine() = %.2f km, want %.2f ± %.2f", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	ab := Haversine(48.8566, 2.3522, 51.5074, -0.1278)
	ba := Haversine(51.5074, -0.1278, 48.8566, 2.3522)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %.6f vs %.6f", ab, ba)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		lat, lng  float64
		precision int
		want      string
	}{
		{"known reference point", 42.6, -5.6, 5, "ezs42"},
		{"jutland reference point", 57.64911, 10.40744, 6, "u4pruy"},
		{"jutland full precision", 57.64911, 10.40744, 11, "u4pruydqqvj"},
		{"precision below one defaults", 57.64911, 10.40744, 0, "u4pruy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.lat, tt.lng, tt.precision)
			if got != tt.want {
				t.Errorf("Encode(%v, %v, %d) = %q, want %q",
					tt.lat, tt.lng, tt.precision, got, tt.want)
			}
		})
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		precision int
		want      string
	}{
		{"truncates to precision", "u09tvw0f", 6, "u09tvw"},
		{"shorter than precision returned as is", "u09", 6, "u09"},
		{"lowercases input", "U09TVW", 6, "u09tvw"},
		{"empty input", "", 6, ""},
		{"zero precision", "u09tvw", 0, ""},
		{"invalid character", "u09a", 6, ""}, // 'a' not in geohash alphabet
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Round(tt.input, tt.precision)
			if got != tt.want {
				t.Errorf("Round(%q, %d) = %q, want %q", tt.input, tt.precision, got, tt.want)
			}
		})
	}
}
