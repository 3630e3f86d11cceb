package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// setRequiredEnv pins the required secrets so Validate passes, and
// blanks the optional knobs so ambient environment cannot leak in.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/feedrank?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("OPENLOVE_PORT", "")
	t.Setenv("PORT", "")
	t.Setenv("OPENLOVE_ENV", "")
	t.Setenv("FEED_CACHE_TTL_SECONDS", "")
	t.Setenv("FEED_CANDIDATE_POOL", "")
	t.Setenv("RANKING_CALIBRATION_PATH", "")
	t.Setenv("RANK_GEO_ENABLED", "")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, errs := Load("")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.Env != DefaultEnv {
		t.Errorf("Env = %q, want %q", cfg.Env, DefaultEnv)
	}
	if cfg.FeedCacheTTLSeconds != DefaultFeedCacheTTLSeconds {
		t.Errorf("FeedCacheTTLSeconds = %d, want %d", cfg.FeedCacheTTLSeconds, DefaultFeedCacheTTLSeconds)
	}
	if cfg.FeedCandidatePool != DefaultFeedCandidatePool {
		t.Errorf("FeedCandidatePool = %d, want %d", cfg.FeedCandidatePool, DefaultFeedCandidatePool)
	}
	if cfg.RankGeoEnabled {
		t.Error("RankGeoEnabled should default to false")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("OPENLOVE_PORT", "")
	t.Setenv("PORT", "")

	_, errs := Load("")

	wantErrs := []error{ErrMissingDatabaseURL, ErrMissingRedisURL, ErrMissingJWTSecret}
	for _, want := range wantErrs {
		found := false
		for _, got := range errs {
			if errors.Is(got, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %v among load errors %v", want, errs)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENLOVE_PORT", "9090")
	t.Setenv("OPENLOVE_ENV", "production")
	t.Setenv("FEED_CACHE_TTL_SECONDS", "120")
	t.Setenv("FEED_CANDIDATE_POOL", "1000")
	t.Setenv("RANK_GEO_ENABLED", "true")

	cfg, errs := Load("")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Error("expected production mode")
	}
	if cfg.FeedCacheTTLSeconds != 120 {
		t.Errorf("FeedCacheTTLSeconds = %d, want 120", cfg.FeedCacheTTLSeconds)
	}
	if cfg.FeedCandidatePool != 1000 {
		t.Errorf("FeedCandidatePool = %d, want 1000", cfg.FeedCandidatePool)
	}
	if !cfg.RankGeoEnabled {
		t.Error("RankGeoEnabled = false, want true")
	}
}

func TestLoad_PortFallbackKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "3000")

	cfg, errs := Load("")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000 from PORT fallback", cfg.Port)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENLOVE_PORT", "not-a-number")

	_, errs := Load("")
	if len(errs) == 0 {
		t.Fatal("expected an error for a non-numeric port")
	}
}

func TestLoad_FileWithEnvPrecedence(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("port: 4000\nenv: staging\nfeed_candidate_pool: 250\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	// File values apply when no env var is set.
	cfg, errs := Load(path)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cfg.Port != 4000 || cfg.Env != "staging" || cfg.FeedCandidatePool != 250 {
		t.Errorf("file values not applied: port=%d env=%q pool=%d", cfg.Port, cfg.Env, cfg.FeedCandidatePool)
	}

	// Env vars win over the file.
	t.Setenv("OPENLOVE_PORT", "5000")
	cfg, errs = Load(path)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want env override 5000", cfg.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	setRequiredEnv(t)

	_, errs := Load("/nonexistent/config.yaml")
	if len(errs) == 0 {
		t.Fatal("expected an error for a missing config file")
	}
}
