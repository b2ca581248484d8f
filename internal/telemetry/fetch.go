package telemetry

import (
	"context"
	"sync"

	"github.com/star/orbitview/internal/backend"
	"github.com/star/orbitview/internal/model"
)

// orbitFetchResult is the output of fetching one satellite's orbit.
type orbitFetchResult struct {
	satelliteID string
	orbit       *model.OrbitSample
	err         error
}

// FetchOrbits fetches the orbits of many satellites with a bounded worker
// pool. Duplicate and empty IDs are skipped. It returns the successful
// samples and the error of every ID that failed; an ID appears in exactly one
// of the two maps unless ctx was cancelled first.
func (p *Poller) FetchOrbits(ctx context.Context, ids []string) (map[string]*model.OrbitSample, map[string]error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	orbits := make(map[string]*model.OrbitSample, len(unique))
	failures := make(map[string]error)
	if len(unique) == 0 {
		return orbits, failures
	}

	workers := p.cfg.FetchWorkers
	if workers > len(unique) {
		workers = len(unique)
	}

	jobs := make(chan string, workers*2)
	results := make(chan orbitFetchResult, workers*2)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				orbit, err := p.src.Orbit(ctx, id)
				select {
				case results <- orbitFetchResult{satelliteID: id, orbit: orbit, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for _, id := range unique {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.err != nil {
			failures[r.satelliteID] = r.err
			if !backend.IsAbort(r.err) {
				p.logger.Warn("orbit fetch failed", "satellite_id", r.satelliteID, "error", r.err)
			}
			continue
		}
		orbits[r.satelliteID] = r.orbit
	}

	return orbits, failures
}
