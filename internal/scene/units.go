// Package scene converts backend orbital data into values the browser
// renderer consumes directly: scene-unit positions, debris appearance and the
// camera.
//
// Scene units: Earth's radius is 1.5 units, so 1 unit = 6371/1.5 km. The
// renderer is y-up with Earth centered at the origin.
package scene

import (
	"math"

	"github.com/star/orbitview/internal/model"
)

const (
	// EarthRadiusKm is the mean Earth radius used throughout the viewer.
	EarthRadiusKm = 6371.0

	// EarthRadius3D is Earth's radius in scene units.
	EarthRadius3D = 1.5

	// Mu is Earth's standard gravitational parameter in km³/s².
	Mu = 398600.0

	// DefaultAltitudeKm is assumed when no satellite data is available.
	DefaultAltitudeKm = 400.0
)

// ToScene converts a km position to scene units.
func ToScene(km model.Vector3) model.Vector3 {
	return km.Scale(EarthRadius3D / EarthRadiusKm)
}

// FromScene converts a scene-unit position back to km.
func FromScene(s model.Vector3) model.Vector3 {
	return s.Scale(EarthRadiusKm / EarthRadius3D)
}

// OrbitRadius3D returns the distance from Earth's center, in scene units, of
// a circular orbit at altKm.
func OrbitRadius3D(altKm float64) float64 {
	return (EarthRadiusKm + altKm) / EarthRadiusKm * EarthRadius3D
}

// GeodeticToScene places a point at latitude/longitude (degrees) and altitude
// (km) in scene coordinates. The prime meridian lies on +x and +y points to
// the north pole.
func GeodeticToScene(latDeg, lonDeg, altKm float64) model.Vector3 {
	r := OrbitRadius3D(altKm)
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0
	return model.Vector3{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Sin(lat),
		Z: -r * math.Cos(lat) * math.Sin(lon),
	}
}
