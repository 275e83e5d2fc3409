package simulation

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/ramonehamilton/skillrating/internal/metrics"
	"github.com/ramonehamilton/skillrating/internal/tracks"
	"github.com/ramonehamilton/skillrating/internal/trueskill"
)

// PlayerResult compares one player's visible rating to their hidden skill.
type PlayerResult struct {
	ID          string
	Name        string
	HiddenSkill float64
	Visible     trueskill.Rating
	Exposed     float64 // conservative estimate mu - k*sigma
	Deviation   float64 // Visible.Mu - HiddenSkill
	Matches     int

	// Performance is set when the run tracked per-match performance.
	Performance *trueskill.Rating
}

// Snapshot holds the visible ratings of the roster after a given match, in
// roster order. Match 0 is the state before the first match.
type Snapshot struct {
	Match  int
	Mus    []float64
	Sigmas []float64
}

// Report summarises a simulation run on one track.
type Report struct {
	Track    tracks.Track
	Matches  int
	Duration time.Duration
	Players  []PlayerResult // roster order
	History  []Snapshot

	MeanAbsDeviation float64
	MaxDeviation     float64         // largest absolute deviation
	Deviations       metrics.Summary // of absolute deviations

	// ExtremesWinProbability is the chance, by visible ratings, that the
	// player with the lowest hidden skill beats the one with the highest.
	ExtremesWinProbability float64
}

func snapshot(match int, track tracks.Track, roster []*tracks.Player, model *trueskill.Model) Snapshot {
	snap := Snapshot{
		Match:  match,
		Mus:    make([]float64, len(roster)),
		Sigmas: make([]float64, len(roster)),
	}
	for i, p := range roster {
		r := p.Rating(track, model)
		snap.Mus[i], snap.Sigmas[i] = r.Mu, r.Sigma
	}
	return snap
}

func buildReport(track tracks.Track, model *trueskill.Model, roster []*tracks.Player, history []Snapshot, tracker *tracks.PerformanceTracker) *Report {
	deviations := metrics.NewHistogram(len(roster))

	players := lo.Map(roster, func(p *tracks.Player, _ int) PlayerResult {
		visible := p.Rating(track, model)
		r := PlayerResult{
			ID:          p.ID,
			Name:        p.Name,
			HiddenSkill: p.HiddenSkill,
			Visible:     visible,
			Exposed:     model.Expose(visible),
			Deviation:   visible.Mu - p.HiddenSkill,
			Matches:     p.MatchesPlayed(track),
		}
		if tracker != nil {
			if perf, ok := tracker.Performance(p.ID); ok {
				r.Performance = &perf
			}
		}
		deviations.Record(math.Abs(r.Deviation))
		return r
	})

	report := &Report{
		Track:      track,
		Players:    players,
		History:    history,
		Deviations: deviations.Summary(),
	}
	report.MeanAbsDeviation = report.Deviations.Mean
	report.MaxDeviation = report.Deviations.Max

	weakest := lo.MinBy(players, func(a, b PlayerResult) bool { return a.HiddenSkill < b.HiddenSkill })
	strongest := lo.MaxBy(players, func(a, b PlayerResult) bool { return a.HiddenSkill > b.HiddenSkill })
	report.ExtremesWinProbability = model.WinProbability(
		[]trueskill.Rating{weakest.Visible},
		[]trueskill.Rating{strongest.Visible},
	)

	return report
}

// Leaderboard returns the players ordered by exposed rating, best first.
func (r *Report) Leaderboard() []PlayerResult {
	out := append([]PlayerResult(nil), r.Players...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Exposed > out[j].Exposed })
	return out
}
