package main

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadAuthConfig(t *testing.T) {
	t.Setenv("ORBITVIEW_AUTH_ENABLED", "true")
	t.Setenv("ORBITVIEW_AUTH_TOKEN", "")
	if _, err := loadAuthConfig(testLogger); err == nil {
		t.Error("expected error when auth is enabled without a token")
	}

	t.Setenv("ORBITVIEW_AUTH_TOKEN", "tok")
	cfg, err := loadAuthConfig(testLogger)
	if err != nil || !cfg.Enabled || cfg.Token != "tok" {
		t.Errorf("cfg = %+v, err = %v", cfg, err)
	}

	t.Setenv("ORBITVIEW_AUTH_ENABLED", "maybe")
	if _, err := loadAuthConfig(testLogger); err == nil {
		t.Error("expected error for a non-boolean ORBITVIEW_AUTH_ENABLED")
	}
}

func TestLoadPollConfig(t *testing.T) {
	t.Setenv("ORBITVIEW_POLL_ORBIT", "3")
	t.Setenv("ORBITVIEW_POLL_STATUS", "zero")
	t.Setenv("ORBITVIEW_POLL_COVERAGE", "-1")
	t.Setenv("ORBITVIEW_FETCH_WORKERS", "8")

	cfg := loadPollConfig(testLogger)
	if cfg.OrbitInterval != 3*time.Second {
		t.Errorf("orbit = %v, want 3s", cfg.OrbitInterval)
	}
	if cfg.StatusInterval != 5*time.Second || cfg.CoverageInterval != 30*time.Second {
		t.Errorf("invalid values should fall back: status %v coverage %v", cfg.StatusInterval, cfg.CoverageInterval)
	}
	if cfg.DebrisInterval != 0 {
		t.Errorf("debris = %v, want 0 (once per selection)", cfg.DebrisInterval)
	}
	if cfg.FetchWorkers != 8 {
		t.Errorf("workers = %d, want 8", cfg.FetchWorkers)
	}
}

func TestLoadSelectionConfigDefaultsMission(t *testing.T) {
	t.Setenv("ORBITVIEW_DEFAULT_SATELLITE_ID", "")
	t.Setenv("ORBITVIEW_DEFAULT_MISSION_ID", "")
	if cfg := loadSelectionConfig(testLogger); cfg.MissionID != "demo" || cfg.SatelliteID != "" {
		t.Errorf("cfg = %+v, want mission demo", cfg)
	}
}

func TestLoadWriteLimiter(t *testing.T) {
	t.Setenv("ORBITVIEW_WRITE_RPS", "0")
	if loadWriteLimiter(testLogger) != nil {
		t.Error("0 should disable the write limiter")
	}
	t.Setenv("ORBITVIEW_WRITE_RPS", "NaN")
	if loadWriteLimiter(testLogger) == nil {
		t.Error("an invalid value should fall back to the default limiter")
	}
}

func TestLoadTracingConfig(t *testing.T) {
	t.Setenv("ORBITVIEW_TRACING_ENABLED", "1")
	t.Setenv("ORBITVIEW_TRACING_EXPORTER", "")
	t.Setenv("ORBITVIEW_TRACING_SAMPLE_RATIO", "4")

	cfg := loadTracingConfig(testLogger)
	if !cfg.Enabled || cfg.Exporter != "stdout" || cfg.SampleRatio != 1 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadSceneConfig(t *testing.T) {
	t.Setenv("ORBITVIEW_CATALOG_FILE", "/etc/orbitview/catalog.ini")
	t.Setenv("ORBITVIEW_TLE_FILE", "/etc/orbitview/active.tle")
	t.Setenv("ORBITVIEW_TLE_URL", "")
	t.Setenv("ORBITVIEW_TIME_SCALE", "-1")
	t.Setenv("ORBITVIEW_ANIMATION_SCALE", "2.5")

	cfg := loadSceneConfig(testLogger)
	if cfg.CatalogFile != "/etc/orbitview/catalog.ini" || cfg.TLEFile != "/etc/orbitview/active.tle" || cfg.TLEURL != "" {
		t.Errorf("files = %+v", cfg)
	}
	if cfg.TimeScale != 0 {
		t.Errorf("time scale = %v, want 0 (estimator default) for a negative value", cfg.TimeScale)
	}
	if cfg.AnimationScale != 2.5 {
		t.Errorf("animation scale = %v, want 2.5", cfg.AnimationScale)
	}
}
