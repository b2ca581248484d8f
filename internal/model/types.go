// Package model holds the wire types shared with the mission backend and the
// browser viewer. Field names follow the backend's JSON.
package model

import (
	"math"
	"time"
)

// Vector3 is a 3D vector. Depending on context it is in km / km/s (ECI) or in
// scene units.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IsFinite reports whether no component is NaN or ±Inf.
func (v Vector3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// Scale returns v multiplied by k.
func (v Vector3) Scale(k float64) Vector3 {
	return Vector3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// DebrisThreat is a tracked debris object near the mission's satellite.
// Position is km and velocity km/s, both in the ECI frame.
type DebrisThreat struct {
	ID                   string   `json:"id"`
	NoradID              string   `json:"norad_id,omitempty"`
	Name                 string   `json:"name"`
	Position             *Vector3 `json:"position,omitempty"`
	Velocity             *Vector3 `json:"velocity,omitempty"`
	Size                 *float64 `json:"size,omitempty"` // meters
	Mass                 *float64 `json:"mass,omitempty"` // kg
	DangerLevel          int      `json:"danger_level"`   // 1-10
	TimeToClosest        *float64 `json:"time_to_closest,omitempty"`
	ClosestDistance      *float64 `json:"closest_distance,omitempty"` // km
	CollisionProbability *float64 `json:"collision_probability,omitempty"`
	DetectedAt           string   `json:"detected_at,omitempty"`
}

// ThreatsResponse is the body of GET /api/v1/mission/debris/{id}/threats.
type ThreatsResponse struct {
	Threats []DebrisThreat `json:"threats"`
}

// OrbitSample is the body of GET /api/v1/satellite/{id}/orbit.
type OrbitSample struct {
	SatelliteID  string    `json:"satellite_id"`
	Timestamp    any       `json:"timestamp"` // string or epoch number, backend dependent
	Position     *Vector3  `json:"position,omitempty"`
	Velocity     *Vector3  `json:"velocity,omitempty"`
	Altitude     *float64  `json:"altitude,omitempty"`      // km
	OrbitalSpeed *float64  `json:"orbital_speed,omitempty"` // km/s
	ReceivedAt   time.Time `json:"-"`
}

// Attitude is the satellite orientation in degrees.
type Attitude struct {
	Roll  *float64 `json:"roll,omitempty"`
	Pitch *float64 `json:"pitch,omitempty"`
	Yaw   *float64 `json:"yaw,omitempty"`
}

// SatelliteStatus is the inner status block of a status response.
type SatelliteStatus struct {
	Position   *Vector3  `json:"position,omitempty"`
	Velocity   *Vector3  `json:"velocity,omitempty"`
	Attitude   *Attitude `json:"attitude,omitempty"`
	Fuel       *float64  `json:"fuel,omitempty"`
	Power      *float64  `json:"power,omitempty"` // percent
	Health     string    `json:"health,omitempty"`
	LastUpdate string    `json:"last_update,omitempty"`
}

// StatusResponse is the body of GET /api/v1/satellite/{id}/status.
type StatusResponse struct {
	SatelliteID string          `json:"satellite_id"`
	Status      SatelliteStatus `json:"status"`
}

// GroundPosition is a sub-satellite point.
type GroundPosition struct {
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	AltitudeKm *float64 `json:"altitude_km,omitempty"`
}

// CoverageResponse is the body of GET /api/v1/satellite/{id}/coverage.
type CoverageResponse struct {
	SatelliteID     string          `json:"satellite_id"`
	CurrentPosition *GroundPosition `json:"current_position,omitempty"`
	NextPass        string          `json:"next_pass,omitempty"`
	Visibility      string          `json:"visibility,omitempty"`
}

// Satellite is one entry of the backend's available satellite list.
type Satellite struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Resolution     float64  `json:"resolution"`
	UpdateInterval string   `json:"update_interval"`
	Coverage       string   `json:"coverage"`
	Status         string   `json:"status"`
	Capabilities   []string `json:"capabilities"`
	NoradID        int      `json:"norad_id,omitempty"`
	ObjectID       string   `json:"object_id,omitempty"`
}

// AvailableSatellites is the body of GET /api/v1/satellite/available.
type AvailableSatellites struct {
	Satellites []Satellite `json:"satellites"`
	Total      int         `json:"total"`
	Message    string      `json:"message"`
}

// ManeuverRequest is the body of POST /api/v1/satellite/{id}/maneuver.
type ManeuverRequest struct {
	PlayerID     string  `json:"player_id"`
	ThrustVector Vector3 `json:"thrust_vector"`
	Duration     float64 `json:"duration"`
}
