// Package debris turns backend threat lists into something the viewer can
// always draw: it filters unusable records and substitutes synthetic debris
// when the backend has nothing usable.
package debris

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/star/orbitview/internal/model"
	"github.com/star/orbitview/internal/scene"
)

// MockCount is the number of synthetic records produced per fallback.
const MockCount = 8

// Generate produces MockCount synthetic debris records on circular orbits
// spread evenly around the equator, 400-1000 km up. All randomness comes from
// rng, so a seeded source yields a reproducible set.
func Generate(rng *rand.Rand, now time.Time) []model.DebrisThreat {
	detectedAt := now.UTC().Format(time.RFC3339Nano)
	out := make([]model.DebrisThreat, 0, MockCount)

	for i := 0; i < MockCount; i++ {
		altitude := 400 + rng.Float64()*600
		angle := float64(i) / MockCount * 2 * math.Pi
		radius := scene.EarthRadiusKm + altitude

		sin, cos := math.Sincos(angle)
		pos := model.Vector3{
			X: cos * radius,
			Y: (rng.Float64() - 0.5) * 200,
			Z: sin * radius,
		}

		speed := math.Sqrt(scene.Mu / radius)
		vel := model.Vector3{
			X: -sin * speed,
			Y: (rng.Float64() - 0.5) * 0.5,
			Z: cos * speed,
		}

		size := rng.Float64()*5 + 0.5
		mass := rng.Float64()*1000 + 100
		danger := rng.Intn(10) + 1
		ttc := rng.Float64() * 7_200_000
		closest := rng.Float64()*50 + 1
		prob := rng.Float64() * 0.8

		out = append(out, model.DebrisThreat{
			ID:                   fmt.Sprintf("mock-debris-%d", i),
			NoradID:              fmt.Sprintf("NORAD-%d", 10000+i),
			Name:                 fmt.Sprintf("Debris %d", i+1),
			Position:             &pos,
			Velocity:             &vel,
			Size:                 &size,
			Mass:                 &mass,
			DangerLevel:          danger,
			TimeToClosest:        &ttc,
			ClosestDistance:      &closest,
			CollisionProbability: &prob,
			DetectedAt:           detectedAt,
		})
	}
	return out
}

// Generator is a concurrency-safe wrapper around Generate that owns its
// random source.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a Generator. A nil rng is seeded from the clock.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Generate returns a fresh mock set stamped with now.
func (g *Generator) Generate(now time.Time) []model.DebrisThreat {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Generate(g.rng, now)
}
