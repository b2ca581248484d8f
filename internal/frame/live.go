package frame

import (
	"time"

	"github.com/star/orbitview/internal/state"
	"github.com/star/orbitview/internal/telemetry"
)

// Snapshotter returns the latest telemetry snapshot.
type Snapshotter interface {
	Snapshot() *telemetry.Snapshot
}

// Live composes frames from the running state store and telemetry.
type Live struct {
	builder   *Builder
	store     *state.Store
	telemetry Snapshotter
	timeScale float64
}

// NewLive creates a Live source. timeScale speeds up (>1) or slows down
// (<1) the debris animation; values <= 0 mean real time.
func NewLive(builder *Builder, store *state.Store, telemetry Snapshotter, timeScale float64) *Live {
	if timeScale <= 0 {
		timeScale = 1
	}
	return &Live{builder: builder, store: store, telemetry: telemetry, timeScale: timeScale}
}

// Frame composes the frame at now.
func (l *Live) Frame(now time.Time) Frame {
	snap := l.telemetry.Snapshot()
	elapsed := time.Duration(float64(Elapsed(now, snap)) * l.timeScale)
	return l.builder.Build(now, elapsed, l.store.Get(), snap)
}
