// Package frame composes one scene frame from the current state and the
// latest telemetry. Building a frame never touches the network.
package frame

import (
	"time"

	"github.com/star/orbitview/internal/debris"
	"github.com/star/orbitview/internal/model"
	"github.com/star/orbitview/internal/orbit"
	"github.com/star/orbitview/internal/scene"
	"github.com/star/orbitview/internal/state"
	"github.com/star/orbitview/internal/telemetry"
)

// velocityScale exaggerates debris velocity vectors so they are visible.
const velocityScale = 10.0

// SatelliteMarker places one satellite in the scene.
type SatelliteMarker struct {
	ID         string        `json:"id"`
	Name       string        `json:"name,omitempty"`
	Latitude   float64       `json:"latitude"`
	Longitude  float64       `json:"longitude"`
	AltitudeKm float64       `json:"altitude_km"`
	Position   model.Vector3 `json:"position"`
	Method     string        `json:"method"`
	Selected   bool          `json:"selected"`
}

// DebrisMarker places one debris object in the scene.
type DebrisMarker struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	DangerLevel int              `json:"danger_level"`
	Position    model.Vector3    `json:"position"`
	Velocity    model.Vector3    `json:"velocity"`
	Appearance  scene.Appearance `json:"appearance"`
	Scale       float64          `json:"scale"`
	Warning     bool             `json:"warning"`
}

// Frame is everything the renderer needs for one tick. Positions are in
// scene units.
type Frame struct {
	Time         time.Time         `json:"time"`
	SatelliteID  string            `json:"satellite_id,omitempty"`
	MissionID    string            `json:"mission_id,omitempty"`
	Generation   uint64            `json:"generation"`
	Camera       scene.Camera      `json:"camera"`
	Satellites   []SatelliteMarker `json:"satellites"`
	Debris       []DebrisMarker    `json:"debris"`
	DebrisSource debris.Source     `json:"debris_source,omitempty"`
	DebrisReason string            `json:"debris_reason,omitempty"`
}

// Builder composes frames.
type Builder struct {
	estimator *orbit.Estimator
}

// NewBuilder creates a Builder that positions satellites with estimator.
func NewBuilder(estimator *orbit.Estimator) *Builder {
	return &Builder{estimator: estimator}
}

// Elapsed returns the animation clock for snap at now: time since the
// selection was made, or zero without a snapshot.
func Elapsed(now time.Time, snap *telemetry.Snapshot) time.Duration {
	if snap == nil || snap.SelectedAt.IsZero() || now.Before(snap.SelectedAt) {
		return 0
	}
	return now.Sub(snap.SelectedAt)
}

// Build composes the frame at now. elapsed drives the debris animation.
// snap may be nil before the first selection.
func (b *Builder) Build(now time.Time, elapsed time.Duration, st state.State, snap *telemetry.Snapshot) Frame {
	selected := st.SelectedSatelliteID
	f := Frame{
		Time:        now,
		SatelliteID: selected,
		MissionID:   st.MissionID,
		Camera:      scene.DefaultCamera(),
		Satellites:  []SatelliteMarker{},
		Debris:      []DebrisMarker{},
	}

	var orbitSample *model.OrbitSample
	if snap != nil {
		f.Generation = snap.Generation
		if snap.SatelliteID == selected {
			orbitSample = snap.Orbit
		}
	}
	if orbitSample != nil {
		f.Camera = scene.PlaceCamera(orbitSample.Altitude, orbitSample.Position)
	}

	f.Satellites = b.satellites(now, st, orbitSample)

	if snap != nil {
		f.Debris = Markers(snap.Debris, elapsed)
		f.DebrisSource = snap.DebrisSource
		f.DebrisReason = snap.DebrisReason
	}
	return f
}

func (b *Builder) satellites(now time.Time, st state.State, selectedOrbit *model.OrbitSample) []SatelliteMarker {
	list := st.Satellites
	if len(list) == 0 && st.SelectedSatelliteID != "" {
		list = []model.Satellite{{ID: st.SelectedSatelliteID}}
	}

	markers := make([]SatelliteMarker, 0, len(list))
	for _, sat := range list {
		isSelected := sat.ID == st.SelectedSatelliteID

		var est orbit.Estimate
		if isSelected && selectedOrbit != nil {
			est = b.estimator.LocateWithAltitude(sat.ID, selectedOrbit.Altitude, now)
		} else {
			est = b.estimator.Locate(sat.ID, now)
		}

		markers = append(markers, SatelliteMarker{
			ID:         sat.ID,
			Name:       sat.Name,
			Latitude:   est.LatitudeDeg,
			Longitude:  est.LongitudeDeg,
			AltitudeKm: est.AltitudeKm,
			Position:   est.Position,
			Method:     est.Method,
			Selected:   isSelected,
		})
	}
	return markers
}

// Markers converts threats to scene markers, dropping records that cannot
// be rendered.
func Markers(threats []model.DebrisThreat, elapsed time.Duration) []DebrisMarker {
	renderable := debris.Renderable(threats)
	out := make([]DebrisMarker, 0, len(renderable))
	for _, t := range renderable {
		pos := scene.DriftDebris(scene.ToScene(*t.Position), elapsed)
		out = append(out, DebrisMarker{
			ID:          t.ID,
			Name:        t.Name,
			DangerLevel: t.DangerLevel,
			Position:    pos,
			Velocity:    scene.ToScene(*t.Velocity).Scale(velocityScale),
			Appearance:  scene.DebrisAppearance(t.DangerLevel, t.Size, t.Mass),
			Scale:       scene.DebrisPulse(t.DangerLevel, t.CollisionProbability, t.TimeToClosest, elapsed),
			Warning:     scene.ApproachWarning(t.TimeToClosest),
		})
	}
	return out
}
