package tracks

import (
	"fmt"
	"sync"

	"github.com/ramonehamilton/skillrating/internal/trueskill"
)

// PerformanceTracker estimates how a player has performed in the matches
// observed since tracking started, independent of their rating history.
// Each estimate starts at the player's visible mu with the prior sigma and is
// rated against the same opponents and ranks as the real match.
type PerformanceTracker struct {
	model *trueskill.Model

	mu      sync.RWMutex
	ratings map[string]trueskill.Rating
}

// NewPerformanceTracker creates a tracker for the given track model.
func NewPerformanceTracker(model *trueskill.Model) *PerformanceTracker {
	return &PerformanceTracker{
		model:   model,
		ratings: make(map[string]trueskill.Rating),
	}
}

// Observe updates the performance estimate of every player in result.
func (t *PerformanceTracker) Observe(result *MatchResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	updated := make(map[string]trueskill.Rating, len(result.Players))
	for i, id := range result.Players {
		perf, ok := t.ratings[id]
		if !ok {
			perf = trueskill.Rating{Mu: result.Before[i].Mu, Sigma: t.model.Sigma()}
		}

		groups := make([][]trueskill.Rating, len(result.Players))
		for j := range result.Players {
			groups[j] = []trueskill.Rating{result.Before[j]}
		}
		groups[i] = []trueskill.Rating{perf}

		rated, err := t.model.Rate(groups, result.Ranks)
		if err != nil {
			return fmt.Errorf("rate performance of %s: %w", id, err)
		}
		updated[id] = rated[i][0]
	}

	for id, r := range updated {
		t.ratings[id] = r
	}
	return nil
}

// Performance returns the current estimate for a player.
func (t *PerformanceTracker) Performance(id string) (trueskill.Rating, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.ratings[id]
	return r, ok
}

// Reset forgets every estimate.
func (t *PerformanceTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ratings = make(map[string]trueskill.Rating)
}
