package orbit

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/orbitview/internal/scene"
)

// go-satellite calls log.Fatal on malformed TLE input, so lines are checked
// here before they reach the library. Its Propagate takes the Satellite by
// value and hides SGP4 error codes; failures are detected from the output.

// validateTLELines performs basic format validation on TLE lines.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// locateSGP4 propagates a TLE-backed catalog entry to t and converts the ECI
// result to a geodetic sub-satellite point.
func locateSGP4(elems Elements, t time.Time) (Estimate, error) {
	if err := validateTLELines(elems.TLELine1, elems.TLELine2); err != nil {
		return Estimate{}, fmt.Errorf("invalid TLE for %s: %w", elems.ID, err)
	}

	sat := satellite.TLEToSat(strings.TrimSpace(elems.TLELine1), strings.TrimSpace(elems.TLELine2), satellite.GravityWGS84)
	if sat.Error != 0 {
		return Estimate{}, fmt.Errorf("sgp4 init failed for %s: code=%d %s", elems.ID, sat.Error, sat.ErrorStr)
	}

	u := t.UTC()
	pos, _ := satellite.Propagate(sat, u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute(), u.Second())

	eci := [3]float64{pos.X, pos.Y, pos.Z}
	for _, v := range eci {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Estimate{}, fmt.Errorf("sgp4 propagation failed for %s: output is NaN/Inf", elems.ID)
		}
	}
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return Estimate{}, fmt.Errorf("sgp4 propagation failed for %s: unreasonable position magnitude %.1f km", elems.ID, mag)
	}

	gmst := satellite.GSTimeFromDate(u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute(), u.Second())
	alt, _, ll := satellite.ECIToLLA(pos, gmst)

	// LatLongDeg mirrors longitudes past 180°, so convert directly.
	lat := ll.Latitude * 180 / math.Pi
	lon := wrapDegrees(ll.Longitude * 180 / math.Pi)

	return Estimate{
		Time:           t,
		LatitudeDeg:    lat,
		LongitudeDeg:   lon,
		AltitudeKm:     alt,
		InclinationDeg: elems.InclinationDeg,
		Position:       scene.GeodeticToScene(lat, lon, alt),
		Method:         "sgp4",
		Known:          true,
	}, nil
}
