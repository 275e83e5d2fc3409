package tracks

import (
	"fmt"

	"github.com/ramonehamilton/skillrating/internal/trueskill"
)

// MatchResult records one rated match on a track. Slices are indexed like
// the players passed in.
type MatchResult struct {
	Track   Track
	Players []string // player IDs
	Ranks   []int
	Before  []trueskill.Rating
	After   []trueskill.Rating
	Quality float64 // draw-based match quality of the pairing before play
}

// Delta returns the change in visible mu of the i-th player.
func (m *MatchResult) Delta(i int) float64 {
	return m.After[i].Mu - m.Before[i].Mu
}

// Record rates a free-for-all on track with externally determined ranks
// (0 = best) and writes the new ratings back to the players.
func (r *Registry) Record(track Track, players []*Player, ranks []int) (*MatchResult, error) {
	model, err := r.Model(track)
	if err != nil {
		return nil, err
	}
	if len(players) != len(ranks) {
		return nil, fmt.Errorf("%w: %d players, %d ranks", trueskill.ErrMismatchedLength, len(players), len(ranks))
	}

	result := &MatchResult{
		Track:   track,
		Players: make([]string, len(players)),
		Ranks:   append([]int(nil), ranks...),
		Before:  make([]trueskill.Rating, len(players)),
	}
	groups := make([][]trueskill.Rating, len(players))
	for i, p := range players {
		result.Players[i] = p.ID
		result.Before[i] = p.Rating(track, model)
		groups[i] = []trueskill.Rating{result.Before[i]}
	}

	// Quality is informational; an ill-conditioned pairing still gets rated.
	if quality, err := model.Quality(groups); err == nil {
		result.Quality = quality
	}

	rated, err := model.Rate(groups, ranks)
	if err != nil {
		return nil, fmt.Errorf("rate %s match: %w", track, err)
	}

	result.After = make([]trueskill.Rating, len(players))
	for i, p := range players {
		result.After[i] = rated[i][0]
		p.SetRating(track, rated[i][0])
		if p.Matches == nil {
			p.Matches = make(map[Track]int)
		}
		p.Matches[track]++
	}
	return result, nil
}

// PlayMatch samples a finishing order from the players' hidden skills and
// records it on track. The sampler must be built for the track's model.
func (r *Registry) PlayMatch(track Track, players []*Player, sampler *trueskill.Sampler) (*MatchResult, error) {
	skills := make([]float64, len(players))
	for i, p := range players {
		skills[i] = p.HiddenSkill
	}
	return r.Record(track, players, sampler.SampleHidden(skills))
}
