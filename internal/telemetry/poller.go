// Package telemetry keeps the latest backend data for the selected satellite
// and mission.
//
// Each selection owns a context. Orbit, status and coverage are polled on
// independent tickers and debris is fetched when the selection is made. A new
// selection cancels every request of the previous one, and results that
// arrive for a superseded selection are dropped.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/star/orbitview/internal/backend"
	"github.com/star/orbitview/internal/debris"
	"github.com/star/orbitview/internal/metrics"
	"github.com/star/orbitview/internal/model"
)

// Source is the subset of the backend client the poller needs.
type Source interface {
	Orbit(ctx context.Context, satelliteID string) (*model.OrbitSample, error)
	Status(ctx context.Context, satelliteID string) (*model.StatusResponse, error)
	Coverage(ctx context.Context, satelliteID string) (*model.CoverageResponse, error)
	DebrisThreats(ctx context.Context, missionID string) ([]model.DebrisThreat, error)
}

// Config holds poll intervals loaded from environment variables.
type Config struct {
	OrbitInterval    time.Duration // default: 10s
	StatusInterval   time.Duration // default: 5s
	CoverageInterval time.Duration // default: 30s
	DebrisInterval   time.Duration // 0 fetches once per selection
	FetchWorkers     int           // bulk orbit fetch concurrency (default: 4)
}

// DefaultConfig returns the standard poll intervals.
func DefaultConfig() Config {
	return Config{
		OrbitInterval:    10 * time.Second,
		StatusInterval:   5 * time.Second,
		CoverageInterval: 30 * time.Second,
		FetchWorkers:     4,
	}
}

// Snapshot is the latest data for one selection. Fields are nil until their
// first successful poll. Snapshots are immutable once published.
type Snapshot struct {
	SatelliteID  string                  `json:"satellite_id"`
	MissionID    string                  `json:"mission_id"`
	Generation   uint64                  `json:"generation"`
	Orbit        *model.OrbitSample      `json:"orbit,omitempty"`
	Status       *model.StatusResponse   `json:"status,omitempty"`
	Coverage     *model.CoverageResponse `json:"coverage,omitempty"`
	Debris       []model.DebrisThreat    `json:"debris"`
	DebrisSource debris.Source           `json:"debris_source,omitempty"`
	DebrisReason string                  `json:"debris_reason,omitempty"`
	SelectedAt   time.Time               `json:"selected_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// Poller fetches telemetry for the current selection. Safe for concurrent use.
type Poller struct {
	src    Source
	cfg    Config
	mock   *debris.Generator
	logger *slog.Logger
	now    func() time.Time

	snap atomic.Pointer[Snapshot]

	// mu serializes selection changes and snapshot publication.
	mu         sync.Mutex
	root       context.Context
	stop       context.CancelFunc
	selCtx     context.Context
	cancel     context.CancelFunc
	generation uint64
	wg         sync.WaitGroup
}

// New creates a Poller. Zero intervals in cfg fall back to DefaultConfig.
func New(src Source, cfg Config, mock *debris.Generator, logger *slog.Logger) *Poller {
	def := DefaultConfig()
	if cfg.OrbitInterval <= 0 {
		cfg.OrbitInterval = def.OrbitInterval
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = def.StatusInterval
	}
	if cfg.CoverageInterval <= 0 {
		cfg.CoverageInterval = def.CoverageInterval
	}
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = def.FetchWorkers
	}
	if mock == nil {
		mock = debris.NewGenerator(nil)
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	root, stop := context.WithCancel(context.Background())
	return &Poller{
		src:    src,
		cfg:    cfg,
		mock:   mock,
		logger: logger.With("component", "telemetry"),
		now:    time.Now,
		root:   root,
		stop:   stop,
	}
}

// Snapshot returns the latest snapshot, or nil before the first selection.
func (p *Poller) Snapshot() *Snapshot {
	return p.snap.Load()
}

// Ready reports whether a selection has been made.
func (p *Poller) Ready() bool {
	return p.snap.Load() != nil
}

// Start blocks until ctx is cancelled, then stops all polling and waits for
// in-flight fetches to return.
func (p *Poller) Start(ctx context.Context) {
	<-ctx.Done()
	p.Close()
	p.logger.Info("telemetry poller stopped")
}

// Close cancels every poll and waits for the loops to exit.
func (p *Poller) Close() {
	p.mu.Lock()
	p.stop()
	p.mu.Unlock()
	p.wg.Wait()
}

// Select switches polling to satelliteID and missionID. Requests of the
// previous selection are cancelled and its data is discarded. An empty
// satelliteID disables satellite polls; an empty missionID disables debris.
// Selecting the current pair again is a no-op and returns false.
func (p *Poller) Select(satelliteID, missionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cur := p.snap.Load(); cur != nil && cur.SatelliteID == satelliteID && cur.MissionID == missionID {
		return false
	}
	if p.root.Err() != nil {
		return false
	}

	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	gen := p.generation

	ctx, cancel := context.WithCancel(p.root)
	p.selCtx, p.cancel = ctx, cancel

	now := p.now()
	p.snap.Store(&Snapshot{
		SatelliteID: satelliteID,
		MissionID:   missionID,
		Generation:  gen,
		SelectedAt:  now,
		UpdatedAt:   now,
	})

	p.logger.Info("selection changed",
		"satellite_id", satelliteID,
		"mission_id", missionID,
		"generation", gen,
	)

	if satelliteID != "" {
		p.spawn(ctx, p.cfg.OrbitInterval, func(ctx context.Context) { p.pollOrbit(ctx, gen, satelliteID) })
		p.spawn(ctx, p.cfg.StatusInterval, func(ctx context.Context) { p.pollStatus(ctx, gen, satelliteID) })
		p.spawn(ctx, p.cfg.CoverageInterval, func(ctx context.Context) { p.pollCoverage(ctx, gen, satelliteID) })
	}
	if missionID != "" {
		p.spawn(ctx, p.cfg.DebrisInterval, func(ctx context.Context) { p.pollDebris(ctx, gen, missionID) })
	}
	return true
}

// RefreshDebris refetches debris for the current mission outside the
// regular schedule.
func (p *Poller) RefreshDebris() {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.snap.Load()
	if cur == nil || cur.MissionID == "" || p.selCtx == nil || p.selCtx.Err() != nil {
		return
	}
	gen, missionID := p.generation, cur.MissionID
	p.spawn(p.selCtx, 0, func(ctx context.Context) { p.pollDebris(ctx, gen, missionID) })
}

// spawn runs poll immediately and then every interval until ctx is done.
// A zero interval runs it once.
func (p *Poller) spawn(ctx context.Context, interval time.Duration, poll func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		poll(ctx)
		if interval <= 0 {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				poll(ctx)
			}
		}
	}()
}

// publish applies fn to a copy of the current snapshot and stores it, unless
// gen has been superseded.
func (p *Poller) publish(gen uint64, fn func(s *Snapshot)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.snap.Load()
	if cur == nil || p.generation != gen || cur.Generation != gen {
		return false
	}
	next := *cur
	fn(&next)
	next.UpdatedAt = p.now()
	p.snap.Store(&next)
	return true
}

// failed reports whether err should be handled as a failed poll. Aborts and
// errors after the selection moved on are ignored.
func (p *Poller) failed(ctx context.Context, kind, id string, err error) bool {
	if err == nil {
		return false
	}
	if backend.IsAbort(err) || ctx.Err() != nil {
		return true
	}
	metrics.PollError(kind)
	p.logger.Warn("poll failed; keeping previous value", "kind", kind, "id", id, "error", err)
	return true
}

func (p *Poller) pollOrbit(ctx context.Context, gen uint64, satelliteID string) {
	orbit, err := p.src.Orbit(ctx, satelliteID)
	if p.failed(ctx, "orbit", satelliteID, err) {
		return
	}
	p.publish(gen, func(s *Snapshot) { s.Orbit = orbit })
}

func (p *Poller) pollStatus(ctx context.Context, gen uint64, satelliteID string) {
	status, err := p.src.Status(ctx, satelliteID)
	if p.failed(ctx, "status", satelliteID, err) {
		return
	}
	p.publish(gen, func(s *Snapshot) { s.Status = status })
}

func (p *Poller) pollCoverage(ctx context.Context, gen uint64, satelliteID string) {
	coverage, err := p.src.Coverage(ctx, satelliteID)
	if p.failed(ctx, "coverage", satelliteID, err) {
		return
	}
	p.publish(gen, func(s *Snapshot) { s.Coverage = coverage })
}

// pollDebris fetches the mission's threats. Unlike the other polls, a
// failure or an unusable list is replaced with mock debris.
func (p *Poller) pollDebris(ctx context.Context, gen uint64, missionID string) {
	threats, err := p.src.DebrisThreats(ctx, missionID)
	if ctx.Err() != nil {
		return
	}

	res, ok := debris.Resolve(threats, err, p.mock, p.now())
	if !ok {
		return
	}
	if err != nil {
		metrics.PollError("debris")
		p.logger.Warn("debris fetch failed", "mission_id", missionID, "error", err)
	}

	if p.publish(gen, func(s *Snapshot) {
		s.Debris = res.Threats
		s.DebrisSource = res.Source
		s.DebrisReason = res.Reason
	}) && res.Source == debris.SourceMock {
		metrics.DebrisFallback(res.Reason)
		p.logger.Warn("showing mock debris", "mission_id", missionID, "reason", res.Reason)
	}
}
