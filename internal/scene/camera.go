package scene

import (
	"math"

	"github.com/star/orbitview/internal/model"
)

const (
	cameraDistanceFactor = 1.5
	defaultFOV           = 50.0
	minFOV               = 30.0
	maxFOV               = 80.0
)

// Camera is the placement handed to the renderer for one frame.
// The renderer applies it and looks at Target; nothing else writes the camera.
type Camera struct {
	Position   model.Vector3 `json:"position"`
	Target     model.Vector3 `json:"target"`
	FOV        float64       `json:"fov"`
	Distance   float64       `json:"distance"`
	AltitudeKm float64       `json:"altitude_km"`
	Default    bool          `json:"default"`
}

// PlaceCamera computes the camera for a selected satellite at altKm whose ECI
// position (km) is pos. A nil or zero altitude, a nil position, or
// non-finite input yields the default framing.
func PlaceCamera(altKm *float64, pos *model.Vector3) Camera {
	if altKm == nil || *altKm == 0 || pos == nil || math.IsNaN(*altKm) || math.IsInf(*altKm, 0) || !pos.IsFinite() {
		return DefaultCamera()
	}

	alt := *altKm
	satScene := ToScene(*pos)

	return Camera{
		Position:   satScene.Scale(cameraDistanceFactor),
		FOV:        FieldOfView(alt),
		Distance:   OrbitRadius3D(alt) * cameraDistanceFactor,
		AltitudeKm: alt,
	}
}

// DefaultCamera frames Earth from +z as if following a satellite at the
// default altitude.
func DefaultCamera() Camera {
	dist := OrbitRadius3D(DefaultAltitudeKm) * cameraDistanceFactor
	return Camera{
		Position:   model.Vector3{Z: dist},
		FOV:        defaultFOV,
		Distance:   dist,
		AltitudeKm: DefaultAltitudeKm,
		Default:    true,
	}
}

// FieldOfView narrows the view for low orbits and widens it for high ones,
// clamped to [30, 80] degrees.
func FieldOfView(altKm float64) float64 {
	fov := 60 - (altKm/1000)*10
	return math.Max(minFOV, math.Min(maxFOV, fov))
}
