package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// SimulationMetrics collects counters and latencies of simulation runs.
// It is shared by concurrent track runs.
type SimulationMetrics struct {
	// Latency histograms (in milliseconds)
	MatchLatency *Histogram

	// Quality of each pairing before play
	MatchQuality *Histogram

	// Absolute change in visible mu per player per match
	SkillChange *Histogram

	// Counters
	MatchesPlayed atomic.Uint64
	RatingErrors  atomic.Uint64
	Snapshots     atomic.Uint64

	startTime time.Time
	mu        sync.RWMutex
}

// NewSimulationMetrics creates a new metrics collector.
func NewSimulationMetrics() *SimulationMetrics {
	return &SimulationMetrics{
		MatchLatency: NewHistogram(10000),
		MatchQuality: NewHistogram(10000),
		SkillChange:  NewHistogram(100000),
		startTime:    time.Now(),
	}
}

// RecordMatch records one rated match.
func (m *SimulationMetrics) RecordMatch(d time.Duration, quality float64, changes []float64) {
	m.MatchesPlayed.Add(1)
	m.MatchLatency.RecordDuration(d)
	m.MatchQuality.Record(quality)
	for _, c := range changes {
		if c < 0 {
			c = -c
		}
		m.SkillChange.Record(c)
	}
}

// IncrementRatingErrors counts a match the model refused to rate.
func (m *SimulationMetrics) IncrementRatingErrors() {
	m.RatingErrors.Add(1)
}

// IncrementSnapshots counts a history snapshot.
func (m *SimulationMetrics) IncrementSnapshots() {
	m.Snapshots.Add(1)
}

// SimulationStats is a snapshot of SimulationMetrics.
type SimulationStats struct {
	MatchLatency Summary `json:"match_latency"` // milliseconds
	MatchQuality Summary `json:"match_quality"`
	SkillChange  Summary `json:"skill_change"`

	MatchesPlayed uint64  `json:"matches_played"`
	RatingErrors  uint64  `json:"rating_errors"`
	Snapshots     uint64  `json:"snapshots"`
	MatchesPerSec float64 `json:"matches_per_sec"`
	Elapsed       string  `json:"elapsed"`
}

// GetStats returns a snapshot of the current statistics.
func (m *SimulationMetrics) GetStats() *SimulationStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	elapsed := time.Since(m.startTime)
	played := m.MatchesPlayed.Load()

	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(played) / secs
	}

	return &SimulationStats{
		MatchLatency:  m.MatchLatency.Summary(),
		MatchQuality:  m.MatchQuality.Summary(),
		SkillChange:   m.SkillChange.Summary(),
		MatchesPlayed: played,
		RatingErrors:  m.RatingErrors.Load(),
		Snapshots:     m.Snapshots.Load(),
		MatchesPerSec: rate,
		Elapsed:       elapsed.Round(time.Millisecond).String(),
	}
}

// Reset clears all metrics.
func (m *SimulationMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MatchLatency.Reset()
	m.MatchQuality.Reset()
	m.SkillChange.Reset()

	m.MatchesPlayed.Store(0)
	m.RatingErrors.Store(0)
	m.Snapshots.Store(0)

	m.startTime = time.Now()
}
