package debris

import (
	"context"
	"errors"
	"time"

	"github.com/star/orbitview/internal/model"
)

// Source records where a debris list came from.
type Source string

const (
	SourceBackend Source = "backend"
	SourceMock    Source = "mock"
)

// Fallback reasons, used as metric labels.
const (
	ReasonFetchError = "fetch_error"
	ReasonEmpty      = "empty"
	ReasonNoUsable   = "no_usable_records"
)

// Result is the outcome of resolving one debris fetch.
type Result struct {
	Threats []model.DebrisThreat
	Source  Source
	Reason  string // set when Source is SourceMock
}

// Renderable returns the records that can be placed in the scene: both
// position and velocity present with finite components. The input is not
// modified.
func Renderable(threats []model.DebrisThreat) []model.DebrisThreat {
	out := make([]model.DebrisThreat, 0, len(threats))
	for _, t := range threats {
		if t.Position == nil || t.Velocity == nil {
			continue
		}
		if !t.Position.IsFinite() || !t.Velocity.IsFinite() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// NeedsFallback reports whether a backend list is unusable: empty, or no
// record carries both a position and a velocity.
func NeedsFallback(threats []model.DebrisThreat) bool {
	for _, t := range threats {
		if t.Position != nil && t.Velocity != nil {
			return false
		}
	}
	return true
}

// Resolve decides what to show after a debris fetch. A cancelled fetch
// yields ok=false and the caller keeps whatever it had. A failed fetch or an
// unusable list is replaced with mock data from gen; otherwise the backend
// list is returned as is.
func Resolve(threats []model.DebrisThreat, err error, gen *Generator, now time.Time) (res Result, ok bool) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Result{}, false
		}
		return Result{Threats: gen.Generate(now), Source: SourceMock, Reason: ReasonFetchError}, true
	}

	if len(threats) == 0 {
		return Result{Threats: gen.Generate(now), Source: SourceMock, Reason: ReasonEmpty}, true
	}
	if NeedsFallback(threats) {
		return Result{Threats: gen.Generate(now), Source: SourceMock, Reason: ReasonNoUsable}, true
	}
	return Result{Threats: threats, Source: SourceBackend}, true
}
