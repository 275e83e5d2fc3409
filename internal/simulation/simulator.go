package simulation

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ramonehamilton/skillrating/internal/metrics"
	"github.com/ramonehamilton/skillrating/internal/tracks"
	"github.com/ramonehamilton/skillrating/internal/trueskill"
)

// Config configures a Simulator.
type Config struct {
	Registry      *tracks.Registry
	Logger        *slog.Logger
	Metrics       *metrics.SimulationMetrics
	Matches       int    // Free-for-all matches per track (default: 200)
	SnapshotEvery int    // Matches between history snapshots (default: 10)
	Seed          uint64 // Sampler seed (0 = random)

	// TrackPerformance adds a per-match performance estimate to the report.
	// It rates every player once more per match, so it is off by default.
	TrackPerformance bool

	// OnMatch, if set, is called after each rated match. Concurrent track
	// runs call it from several goroutines.
	OnMatch func(*tracks.MatchResult)
}

// Simulator plays matches on a roster and reports convergence.
type Simulator struct {
	config Config
	logger *slog.Logger
}

// NewSimulator creates a simulator, filling in defaults.
func NewSimulator(config Config) (*Simulator, error) {
	if config.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewSimulationMetrics()
	}
	if config.Matches == 0 {
		config.Matches = 200
	}
	if config.Matches < 0 {
		return nil, fmt.Errorf("matches cannot be negative: %d", config.Matches)
	}
	if config.SnapshotEvery == 0 {
		config.SnapshotEvery = 10
	}
	if config.Seed == 0 {
		config.Seed = rand.Uint64()
	}

	return &Simulator{config: config, logger: config.Logger}, nil
}

// Seed returns the seed in use, so a run can be reproduced.
func (s *Simulator) Seed() uint64 { return s.config.Seed }

// Metrics returns the metrics collector.
func (s *Simulator) Metrics() *metrics.SimulationMetrics { return s.config.Metrics }

// Run plays the configured number of free-for-all matches on track between
// all players of roster, updating their visible ratings in place. On
// cancellation it stops between matches and returns the partial report
// together with the context error.
func (s *Simulator) Run(ctx context.Context, track tracks.Track, roster []*tracks.Player) (*Report, error) {
	model, err := s.config.Registry.Model(track)
	if err != nil {
		return nil, err
	}
	if len(roster) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 players, got %d", trueskill.ErrInvalidParameter, len(roster))
	}

	sampler := trueskill.NewSampler(model, rand.NewPCG(s.config.Seed, trackStream(track)))

	var tracker *tracks.PerformanceTracker
	if s.config.TrackPerformance {
		tracker = tracks.NewPerformanceTracker(model)
	}

	start := time.Now()
	history := []Snapshot{snapshot(0, track, roster, model)}
	played := 0

	s.logger.Info("Simulation started",
		"track", track,
		"players", len(roster),
		"matches", s.config.Matches,
		"seed", s.config.Seed)

	var runErr error
	for match := 1; match <= s.config.Matches; match++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		matchStart := time.Now()
		result, err := s.config.Registry.PlayMatch(track, roster, sampler)
		if err != nil {
			s.config.Metrics.IncrementRatingErrors()
			return nil, fmt.Errorf("match %d on %s: %w", match, track, err)
		}
		played++

		deltas := make([]float64, len(roster))
		for i := range deltas {
			deltas[i] = result.Delta(i)
		}
		s.config.Metrics.RecordMatch(time.Since(matchStart), result.Quality, deltas)

		if tracker != nil {
			if err := tracker.Observe(result); err != nil {
				return nil, fmt.Errorf("track performance of match %d: %w", match, err)
			}
		}
		if s.config.OnMatch != nil {
			s.config.OnMatch(result)
		}

		if match%s.config.SnapshotEvery == 0 || match == s.config.Matches {
			history = append(history, snapshot(match, track, roster, model))
			s.config.Metrics.IncrementSnapshots()
			s.logger.Debug("Simulation snapshot", "track", track, "match", match)
		}
	}

	report := buildReport(track, model, roster, history, tracker)
	report.Matches = played
	report.Duration = time.Since(start)

	s.logger.Info("Simulation finished",
		"track", track,
		"matches", played,
		"meanAbsDeviation", report.MeanAbsDeviation,
		"maxDeviation", report.MaxDeviation,
		"duration", report.Duration)

	return report, runErr
}

// RunTracks simulates several tracks concurrently. Each track runs on its own
// copy of the roster with its own sampler; the new ratings are written back to
// roster once every run has finished.
func (s *Simulator) RunTracks(ctx context.Context, trackList []tracks.Track, roster []*tracks.Player) (map[tracks.Track]*Report, error) {
	type outcome struct {
		track  tracks.Track
		roster []*tracks.Player
		report *Report
		err    error
	}

	outcomes := make([]outcome, len(trackList))
	var wg sync.WaitGroup
	for i, track := range trackList {
		outcomes[i] = outcome{track: track, roster: CloneRoster(roster)}
		wg.Add(1)
		go func(o *outcome) {
			defer wg.Done()
			o.report, o.err = s.Run(ctx, o.track, o.roster)
		}(&outcomes[i])
	}
	wg.Wait()

	reports := make(map[tracks.Track]*Report, len(trackList))
	var errs []error
	for _, o := range outcomes {
		if o.err != nil {
			errs = append(errs, fmt.Errorf("track %s: %w", o.track, o.err))
		}
		if o.report == nil {
			continue
		}
		reports[o.track] = o.report
		for i, p := range roster {
			p.SetRating(o.track, o.roster[i].Ratings[o.track])
			if p.Matches == nil {
				p.Matches = make(map[tracks.Track]int)
			}
			p.Matches[o.track] = o.roster[i].Matches[o.track]
		}
	}

	return reports, errors.Join(errs...)
}

// trackStream gives every track its own PCG stream under a shared seed.
func trackStream(track tracks.Track) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(track))
	return h.Sum64()
}
