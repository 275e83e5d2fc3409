package tracks

import (
	"github.com/google/uuid"

	"github.com/ramonehamilton/skillrating/internal/trueskill"
)

// Player is a rated entity. HiddenSkill drives simulated performances and is
// never reported as a visible rating.
type Player struct {
	ID          string
	Name        string
	HiddenSkill float64
	Ratings     map[Track]trueskill.Rating
	Matches     map[Track]int
}

// NewPlayer creates a player with a fresh identifier and no ratings.
func NewPlayer(name string, hiddenSkill float64) *Player {
	return &Player{
		ID:          uuid.New().String(),
		Name:        name,
		HiddenSkill: hiddenSkill,
		Ratings:     make(map[Track]trueskill.Rating),
		Matches:     make(map[Track]int),
	}
}

// Rating returns the visible rating on track, or the model prior if the player
// has not been rated there yet.
func (p *Player) Rating(track Track, model *trueskill.Model) trueskill.Rating {
	if r, ok := p.Ratings[track]; ok {
		return r
	}
	return model.Prior()
}

// SetRating stores a visible rating on track.
func (p *Player) SetRating(track Track, r trueskill.Rating) {
	if p.Ratings == nil {
		p.Ratings = make(map[Track]trueskill.Rating)
	}
	p.Ratings[track] = r
}

// MatchesPlayed returns how many rated matches the player has on track.
func (p *Player) MatchesPlayed(track Track) int {
	return p.Matches[track]
}

// Clone returns a deep copy of the player.
func (p *Player) Clone() *Player {
	c := *p
	c.Ratings = make(map[Track]trueskill.Rating, len(p.Ratings))
	for t, r := range p.Ratings {
		c.Ratings[t] = r
	}
	c.Matches = make(map[Track]int, len(p.Matches))
	for t, n := range p.Matches {
		c.Matches[t] = n
	}
	return &c
}
