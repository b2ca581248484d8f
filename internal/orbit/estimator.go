// Package orbit estimates where a satellite is for display purposes.
//
// The estimate is a cosmetic circular-orbit approximation, not a physics
// engine: latitude swings between ±inclination and longitude advances at a
// rate derived from a simplified Kepler relation, slowed down by TimeScale so
// motion stays legible in the viewer. Entries with TLE data are refined with
// SGP4.
package orbit

import (
	"math"
	"time"

	"github.com/star/orbitview/internal/model"
	"github.com/star/orbitview/internal/scene"
)

const (
	defaultAltitudeKm = scene.DefaultAltitudeKm

	// DefaultTimeScale is the slow-down constant in rad/s applied to an orbit
	// at Earth's surface radius.
	DefaultTimeScale = 0.001

	// geostationaryInclinationTolerance treats near-equatorial orbits at
	// geostationary altitude as fixed over their slot.
	geostationaryInclinationTolerance = 0.1
	geostationaryAltitudeTolerance    = 500.0
)

// Estimate is the estimated state of a satellite at a time.
type Estimate struct {
	SatelliteID    string        `json:"satellite_id"`
	Time           time.Time     `json:"time"`
	LatitudeDeg    float64       `json:"latitude"`
	LongitudeDeg   float64       `json:"longitude"`
	AltitudeKm     float64       `json:"altitude_km"`
	InclinationDeg float64       `json:"inclination_deg"`
	Position       model.Vector3 `json:"position"` // scene units
	Method         string        `json:"method"`   // circular | sgp4
	Known          bool          `json:"known"`
}

// Estimator resolves satellite IDs against a catalog and estimates positions.
// It keeps no per-call state: results depend only on the inputs.
type Estimator struct {
	catalog   *Catalog
	timeScale float64
}

// NewEstimator creates an Estimator. A non-positive timeScale selects
// DefaultTimeScale.
func NewEstimator(catalog *Catalog, timeScale float64) *Estimator {
	if timeScale <= 0 {
		timeScale = DefaultTimeScale
	}
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Estimator{catalog: catalog, timeScale: timeScale}
}

// Catalog returns the estimator's catalog.
func (e *Estimator) Catalog() *Catalog {
	return e.catalog
}

// PeriodFactor returns the angular rate (rad/s) of the displayed orbit at
// altKm: TimeScale divided by the relative Kepler period sqrt(r/R)³.
func (e *Estimator) PeriodFactor(altKm float64) float64 {
	ratio := (scene.EarthRadiusKm + altKm) / scene.EarthRadiusKm
	period := math.Pow(math.Sqrt(ratio), 3)
	return e.timeScale / period
}

// LatLon returns the sub-satellite latitude and longitude (degrees) of a
// circular orbit at altKm and inclinationDeg at time t. satelliteID selects
// a fixed slot for known geostationary satellites and the phase offset of
// known inclined ones.
func (e *Estimator) LatLon(satelliteID string, altKm, inclinationDeg float64, t time.Time) (float64, float64) {
	elems, known := e.catalog.Lookup(satelliteID)

	var offset float64
	if known {
		offset = elems.LongitudeDeg
		if elems.Geostationary {
			return 0, wrapDegrees(offset)
		}
	}
	if isGeostationary(altKm, inclinationDeg) {
		return 0, wrapDegrees(offset)
	}

	phase := seconds(t) * e.PeriodFactor(altKm)
	lat := inclinationDeg * math.Sin(phase)
	lon := wrapDegrees(offset + phase*180/math.Pi)
	return lat, lon
}

// Locate estimates the position of satelliteID at t. Unknown satellites use
// the default altitude (400 km) and inclination (0°). Catalog entries with
// TLE lines are propagated with SGP4; if that fails the circular estimate is
// returned.
func (e *Estimator) Locate(satelliteID string, t time.Time) Estimate {
	elems, known := e.catalog.Lookup(satelliteID)
	if !known {
		elems = Elements{ID: satelliteID, AltitudeKm: defaultAltitudeKm}
	}

	if known && elems.HasTLE() {
		if est, err := locateSGP4(elems, t); err == nil {
			est.SatelliteID = satelliteID
			return est
		}
	}

	lat, lon := e.LatLon(satelliteID, elems.AltitudeKm, elems.InclinationDeg, t)
	return Estimate{
		SatelliteID:    satelliteID,
		Time:           t,
		LatitudeDeg:    lat,
		LongitudeDeg:   lon,
		AltitudeKm:     elems.AltitudeKm,
		InclinationDeg: elems.InclinationDeg,
		Position:       scene.GeodeticToScene(lat, lon, elems.AltitudeKm),
		Method:         "circular",
		Known:          known,
	}
}

// LocateWithAltitude is Locate with the altitude taken from live telemetry
// when the backend reported one.
func (e *Estimator) LocateWithAltitude(satelliteID string, altKm *float64, t time.Time) Estimate {
	est := e.Locate(satelliteID, t)
	if altKm == nil || math.IsNaN(*altKm) || math.IsInf(*altKm, 0) || est.Method != "circular" {
		return est
	}
	lat, lon := e.LatLon(satelliteID, *altKm, est.InclinationDeg, t)
	est.LatitudeDeg, est.LongitudeDeg, est.AltitudeKm = lat, lon, *altKm
	est.Position = scene.GeodeticToScene(lat, lon, *altKm)
	return est
}

func isGeostationary(altKm, inclinationDeg float64) bool {
	return math.Abs(inclinationDeg) < geostationaryInclinationTolerance &&
		math.Abs(altKm-geostationaryAltitudeKm) < geostationaryAltitudeTolerance
}

// seconds returns t as fractional seconds since the Unix epoch.
func seconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// wrapDegrees folds an angle into (-180, 180] using its sine and cosine.
func wrapDegrees(deg float64) float64 {
	rad := deg * math.Pi / 180
	return math.Atan2(math.Sin(rad), math.Cos(rad)) * 180 / math.Pi
}
