package main

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/star/orbitview/internal/auth"
	"github.com/star/orbitview/internal/backend"
	"github.com/star/orbitview/internal/httputil"
	"github.com/star/orbitview/internal/observability"
	"github.com/star/orbitview/internal/stream"
	"github.com/star/orbitview/internal/telemetry"
)

func parseLogLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// envSeconds reads a positive whole number of seconds from name.
func envSeconds(logger *slog.Logger, name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid "+name+" value, using default", "value", v, "default", def.Seconds())
		return def
	}
	return time.Duration(n) * time.Second
}

// envInt reads an integer >= lo from name.
func envInt(logger *slog.Logger, name string, def, lo int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo {
		logger.Warn("invalid "+name+" value, using default", "value", v, "default", def)
		return def
	}
	return n
}

// envFloat reads a float >= 0 from name.
func envFloat(logger *slog.Logger, name string, def float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		logger.Warn("invalid "+name+" value, using default", "value", v, "default", def)
		return def
	}
	return f
}

func envBool(logger *slog.Logger, name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid "+name+" value, using default", "value", v, "default", def)
		return def
	}
	return b
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	if v := os.Getenv("ORBITVIEW_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, errors.New("ORBITVIEW_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("ORBITVIEW_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("ORBITVIEW_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadBackendConfig(logger *slog.Logger) backend.Config {
	cfg := backend.Config{
		BaseURL:           os.Getenv("ORBITVIEW_BACKEND_URL"),
		Timeout:           envSeconds(logger, "ORBITVIEW_BACKEND_TIMEOUT", 10*time.Second),
		RequestsPerSecond: envFloat(logger, "ORBITVIEW_BACKEND_RPS", 0),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = backend.DefaultBaseURL
	}

	logger.Info("backend config",
		"base_url", cfg.BaseURL,
		"timeout_seconds", cfg.Timeout.Seconds(),
		"requests_per_second", cfg.RequestsPerSecond,
	)
	return cfg
}

func loadPollConfig(logger *slog.Logger) telemetry.Config {
	def := telemetry.DefaultConfig()
	cfg := telemetry.Config{
		OrbitInterval:    envSeconds(logger, "ORBITVIEW_POLL_ORBIT", def.OrbitInterval),
		StatusInterval:   envSeconds(logger, "ORBITVIEW_POLL_STATUS", def.StatusInterval),
		CoverageInterval: envSeconds(logger, "ORBITVIEW_POLL_COVERAGE", def.CoverageInterval),
		DebrisInterval:   envSeconds(logger, "ORBITVIEW_POLL_DEBRIS", def.DebrisInterval),
		FetchWorkers:     envInt(logger, "ORBITVIEW_FETCH_WORKERS", def.FetchWorkers, 1),
	}

	logger.Info("poll config",
		"orbit_seconds", cfg.OrbitInterval.Seconds(),
		"status_seconds", cfg.StatusInterval.Seconds(),
		"coverage_seconds", cfg.CoverageInterval.Seconds(),
		"debris_seconds", cfg.DebrisInterval.Seconds(),
		"fetch_workers", cfg.FetchWorkers,
	)
	return cfg
}

type selectionConfig struct {
	SatelliteID string
	MissionID   string
}

func loadSelectionConfig(logger *slog.Logger) selectionConfig {
	cfg := selectionConfig{
		SatelliteID: os.Getenv("ORBITVIEW_DEFAULT_SATELLITE_ID"),
		MissionID:   os.Getenv("ORBITVIEW_DEFAULT_MISSION_ID"),
	}
	if cfg.MissionID == "" {
		cfg.MissionID = "demo"
	}
	logger.Info("selection config", "satellite_id", cfg.SatelliteID, "mission_id", cfg.MissionID)
	return cfg
}

type sceneConfig struct {
	CatalogFile    string
	TLEFile        string // 3-line TLE file merged into the catalog at startup
	TLEURL         string // TLE source fetched in the background at startup
	TimeScale      float64 // orbit angular rate constant, rad/s
	AnimationScale float64 // debris animation speed, 1 = real time
}

func loadSceneConfig(logger *slog.Logger) sceneConfig {
	cfg := sceneConfig{
		CatalogFile:    os.Getenv("ORBITVIEW_CATALOG_FILE"),
		TLEFile:        os.Getenv("ORBITVIEW_TLE_FILE"),
		TLEURL:         os.Getenv("ORBITVIEW_TLE_URL"),
		TimeScale:      envFloat(logger, "ORBITVIEW_TIME_SCALE", 0),
		AnimationScale: envFloat(logger, "ORBITVIEW_ANIMATION_SCALE", 1),
	}
	logger.Info("scene config",
		"catalog_file", cfg.CatalogFile,
		"tle_file", cfg.TLEFile,
		"tle_url", cfg.TLEURL,
		"time_scale", cfg.TimeScale,
		"animation_scale", cfg.AnimationScale,
	)
	return cfg
}

func loadStreamConfig(logger *slog.Logger) stream.Config {
	cfg := stream.Config{
		MaxConcurrentPerIP: envInt(logger, "ORBITVIEW_STREAM_MAX_CONCURRENT", 10, 1),
		FrameInterval:      envSeconds(logger, "ORBITVIEW_FRAME_INTERVAL", time.Second),
		KeepaliveInterval:  envSeconds(logger, "ORBITVIEW_STREAM_KEEPALIVE_INTERVAL", 30*time.Second),
		TrustProxy:         envBool(logger, "ORBITVIEW_TRUST_PROXY", false),
	}

	logger.Info("stream config",
		"max_concurrent_per_ip", cfg.MaxConcurrentPerIP,
		"frame_interval_seconds", cfg.FrameInterval.Seconds(),
		"keepalive_interval_seconds", cfg.KeepaliveInterval.Seconds(),
		"trust_proxy", cfg.TrustProxy,
	)
	return cfg
}

// loadWriteLimiter returns the per-IP limiter for proxied writes, or nil
// when ORBITVIEW_WRITE_RPS is 0.
func loadWriteLimiter(logger *slog.Logger) *httputil.IPRateLimiter {
	rps := envFloat(logger, "ORBITVIEW_WRITE_RPS", 2)
	if rps == 0 {
		logger.Info("write rate limit disabled")
		return nil
	}
	burst := int(rps) * 2
	if burst < 1 {
		burst = 1
	}
	logger.Info("write rate limit", "requests_per_second", rps, "burst", burst)
	return httputil.NewIPRateLimiter(rate.Limit(rps), burst)
}

func loadTracingConfig(logger *slog.Logger) observability.TracingConfig {
	cfg := observability.TracingConfig{
		Enabled:     envBool(logger, "ORBITVIEW_TRACING_ENABLED", false),
		ServiceName: "orbitview",
		Exporter:    os.Getenv("ORBITVIEW_TRACING_EXPORTER"),
		Endpoint:    os.Getenv("ORBITVIEW_TRACING_ENDPOINT"),
		SampleRatio: envFloat(logger, "ORBITVIEW_TRACING_SAMPLE_RATIO", 1),
	}
	if cfg.Exporter == "" {
		cfg.Exporter = "stdout"
	}
	if cfg.SampleRatio > 1 {
		logger.Warn("ORBITVIEW_TRACING_SAMPLE_RATIO above 1, clamping", "value", cfg.SampleRatio)
		cfg.SampleRatio = 1
	}

	logger.Info("tracing config",
		"enabled", cfg.Enabled,
		"exporter", cfg.Exporter,
		"endpoint", cfg.Endpoint,
		"sample_ratio", cfg.SampleRatio,
	)
	return cfg
}
