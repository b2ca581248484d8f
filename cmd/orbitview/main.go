package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/star/orbitview/internal/api"
	"github.com/star/orbitview/internal/backend"
	"github.com/star/orbitview/internal/debris"
	"github.com/star/orbitview/internal/frame"
	"github.com/star/orbitview/internal/model"
	"github.com/star/orbitview/internal/observability"
	"github.com/star/orbitview/internal/orbit"
	"github.com/star/orbitview/internal/state"
	"github.com/star/orbitview/internal/stream"
	"github.com/star/orbitview/internal/telemetry"
	"github.com/star/orbitview/internal/tle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(os.Getenv("LOG_LEVEL")),
	}))

	addr := os.Getenv("ORBITVIEW_HTTP_ADDR")
	if addr == "" {
		addr = ":8090"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, loadTracingConfig(logger), logger)
	if err != nil {
		logger.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	sceneCfg := loadSceneConfig(logger)
	catalog := orbit.NewCatalog()
	if sceneCfg.CatalogFile != "" {
		n, err := catalog.LoadINI(sceneCfg.CatalogFile, logger)
		if err != nil {
			logger.Error("failed to load satellite catalog", "file", sceneCfg.CatalogFile, "error", err)
			os.Exit(1)
		}
		logger.Info("loaded satellite catalog", "file", sceneCfg.CatalogFile, "entries", n, "total", catalog.Len())
	}
	if sceneCfg.TLEFile != "" {
		if err := loadTLEFile(catalog, sceneCfg.TLEFile, logger); err != nil {
			logger.Error("failed to load TLE file", "file", sceneCfg.TLEFile, "error", err)
			os.Exit(1)
		}
	}
	estimator := orbit.NewEstimator(catalog, sceneCfg.TimeScale)

	backendCfg := loadBackendConfig(logger)
	backendCfg.Logger = logger
	client := backend.New(backendCfg)

	poller := telemetry.New(client, loadPollConfig(logger), debris.NewGenerator(nil), logger)
	store := state.NewStore()
	frames := frame.NewLive(frame.NewBuilder(estimator), store, poller, sceneCfg.AnimationScale)

	streamCfg := loadStreamConfig(logger)
	streamHandler := stream.NewHandler(frames, streamCfg, logger)

	selection := loadSelectionConfig(logger)

	srv := api.NewServer(addr, api.Deps{
		Logger:       logger,
		Auth:         authCfg,
		Store:        store,
		Telemetry:    poller,
		Frames:       frames,
		Estimator:    estimator,
		Backend:      client,
		Streams:      streamHandler,
		WriteLimiter: loadWriteLimiter(logger),
		TrustProxy:   streamCfg.TrustProxy,
	})
	// Streams outlive single requests; tie them to the process context so
	// hijacked WebSocket connections also end on shutdown.
	srv.HTTPServer().BaseContext = func(net.Listener) context.Context { return ctx }

	go poller.Start(ctx)
	if sceneCfg.TLEURL != "" {
		go fetchTLE(ctx, tle.NewFetcher(sceneCfg.TLEURL, logger), catalog, logger)
	}
	go selectInitial(ctx, client, store, poller, selection, logger)

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "backend_url", client.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	poller.Close()

	logger.Info("server stopped")
}

// selectInitial fetches the available satellites once and selects the
// default satellite with the configured mission, unless a client has made a
// selection in the meantime. A backend that is down leaves the list empty;
// the configured or preferred satellite is still selected.
func selectInitial(ctx context.Context, client *backend.Client, store *state.Store, poller *telemetry.Poller, sel selectionConfig, logger *slog.Logger) {
	fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var satellites []model.Satellite
	list, err := client.AvailableSatellites(fetchCtx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("could not list available satellites", "error", err)
	} else {
		satellites = list.Satellites
	}

	satelliteID := state.DefaultSatelliteID(satellites, sel.SatelliteID)
	_, next := store.Update(func(s state.State) state.State {
		s = state.SetSatellites(s, satellites)
		if s.SelectedSatelliteID != "" || s.MissionID != "" {
			return s
		}
		poller.Select(satelliteID, sel.MissionID)
		return state.Select(s, satelliteID, sel.MissionID)
	})
	logger.Info("initial selection",
		"satellite_id", next.SelectedSatelliteID,
		"mission_id", next.MissionID,
		"available", len(satellites),
	)
}

func loadTLEFile(catalog *orbit.Catalog, path string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := tle.Parse(f, logger)
	if err != nil {
		return err
	}
	n := catalog.MergeTLE(entries, logger)
	logger.Info("loaded TLE file", "file", path, "parsed", len(entries), "merged", n, "total", catalog.Len())
	return nil
}

// fetchTLE refines the catalog from a remote TLE source. Until it completes,
// satellites without a TLE use the circular estimate.
func fetchTLE(ctx context.Context, fetcher *tle.Fetcher, catalog *orbit.Catalog, logger *slog.Logger) {
	entries, err := fetcher.FetchEntries(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("TLE fetch failed; using circular estimates", "source_url", fetcher.SourceURL(), "error", err)
		}
		return
	}
	n := catalog.MergeTLE(entries, logger)
	logger.Info("merged remote TLE data", "source_url", fetcher.SourceURL(), "parsed", len(entries), "merged", n)
}
