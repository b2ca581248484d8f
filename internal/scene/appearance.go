package scene

import (
	"math"
	"time"

	"github.com/star/orbitview/internal/model"
)

// Appearance is how a debris object is drawn. Derived, never stored.
type Appearance struct {
	Color             string  `json:"color"`
	Size              float64 `json:"size"`
	EmissiveIntensity float64 `json:"emissiveIntensity"`
	MassMultiplier    float64 `json:"massMultiplier"`
}

// dangerBand maps a minimum danger level to a color and glow.
type dangerBand struct {
	minLevel int
	color    string
	emissive float64
}

// Ordered from most to least dangerous; the first band whose minLevel is
// reached wins.
var dangerBands = []dangerBand{
	{9, "#ff0000", 1.0},
	{7, "#ff4500", 0.8},
	{5, "#ff7043", 0.6},
	{3, "#ffa726", 0.4},
	{2, "#ffeb3b", 0.3},
}

var lowestBand = dangerBand{0, "#66bb6a", 0.2}

// DebrisAppearance maps a danger level (1-10) and the optional physical size
// (m) and mass (kg) to render attributes. A size or mass that is nil, not
// positive or not finite counts as unknown, so the result is always finite.
func DebrisAppearance(dangerLevel int, size, mass *float64) Appearance {
	baseSize := 0.02
	if positive(size) {
		baseSize = math.Min(*size/1000, 0.05)
	}

	massMultiplier := 1.0
	if positive(mass) {
		massMultiplier = math.Log10(*mass+1) / 10
	}

	finalSize := math.Max(baseSize*(0.5+massMultiplier)*10, 0.05)

	band := lowestBand
	for _, b := range dangerBands {
		if dangerLevel >= b.minLevel {
			band = b
			break
		}
	}

	return Appearance{
		Color:             band.color,
		Size:              finalSize,
		EmissiveIntensity: band.emissive,
		MassMultiplier:    massMultiplier,
	}
}

func positive(v *float64) bool {
	return v != nil && *v > 0 && !math.IsInf(*v, 1)
}

// debrisOrbitRate is the angular rate numerator of the debris drift
// animation; the actual rate is debrisOrbitRate/|p| rad/s.
const debrisOrbitRate = 0.1

// DriftDebris rotates a scene position about the y axis for the elapsed
// animation time. Farther objects drift more slowly.
func DriftDebris(p model.Vector3, elapsed time.Duration) model.Vector3 {
	r := p.Norm()
	if r == 0 {
		return p
	}
	angle := elapsed.Seconds() * debrisOrbitRate / r
	cos, sin := math.Cos(angle), math.Sin(angle)
	return model.Vector3{
		X: p.X*cos - p.Z*sin,
		Y: p.Y,
		Z: p.X*sin + p.Z*cos,
	}
}

// closeApproachWarning is the time-to-closest (ms) under which a debris
// object flickers.
const closeApproachWarning = 3_600_000.0

// DebrisPulse returns the scale factor of a debris object at elapsed
// animation time. Dangerous and soon-approaching objects pulse harder.
func DebrisPulse(dangerLevel int, collisionProbability, timeToClosest *float64, elapsed time.Duration) float64 {
	t := elapsed.Seconds()

	var freq, amp float64
	switch {
	case dangerLevel >= 8 || (collisionProbability != nil && *collisionProbability > 0.5):
		freq, amp = 4, 0.5
	case dangerLevel >= 6:
		freq, amp = 3, 0.4
	case dangerLevel >= 4:
		freq, amp = 2, 0.3
	default:
		freq, amp = 1.5, 0.2
	}
	scale := 1 + math.Sin(t*freq)*amp

	if ApproachWarning(timeToClosest) {
		scale *= 1 + math.Sin(t*8)*0.15
	}
	return scale
}

// ApproachWarning reports whether the closest approach is less than an hour
// away.
func ApproachWarning(timeToClosest *float64) bool {
	return timeToClosest != nil && *timeToClosest > 0 && *timeToClosest < closeApproachWarning
}
