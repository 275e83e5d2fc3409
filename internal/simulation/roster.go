// Package simulation plays repeated free-for-all matches over a roster of
// players with known hidden skills and reports how closely the visible
// ratings track them.
package simulation

import (
	"fmt"

	"github.com/ramonehamilton/skillrating/internal/tracks"
)

// NewRoster creates n players whose hidden skills are spaced evenly over
// spread points centred on mean. A spread of zero gives every player mean.
func NewRoster(n int, mean, spread float64) ([]*tracks.Player, error) {
	if n < 1 {
		return nil, fmt.Errorf("roster needs at least one player: %d", n)
	}
	if spread < 0 {
		return nil, fmt.Errorf("skill spread cannot be negative: %v", spread)
	}

	roster := make([]*tracks.Player, n)
	for i := range roster {
		skill := mean
		if n > 1 {
			skill = mean - spread/2 + spread*float64(i)/float64(n-1)
		}
		roster[i] = tracks.NewPlayer(fmt.Sprintf("player-%02d", i+1), skill)
	}
	return roster, nil
}

// CloneRoster deep-copies every player.
func CloneRoster(roster []*tracks.Player) []*tracks.Player {
	out := make([]*tracks.Player, len(roster))
	for i, p := range roster {
		out[i] = p.Clone()
	}
	return out
}
