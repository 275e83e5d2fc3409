// Package tracks keeps one visible rating per player per track and
// reconciles those ratings against each player's hidden skill by playing
// simulated matches.
package tracks

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ramonehamilton/skillrating/internal/config"
	"github.com/ramonehamilton/skillrating/internal/trueskill"
)

// Track names an independent rating context.
type Track string

const (
	Ranked     Track = "ranked"
	BotMatch   Track = "bot-match"
	Tournament Track = "tournament"
)

// ErrUnknownTrack is returned for a track the registry has no model for.
var ErrUnknownTrack = errors.New("unknown track")

// Registry holds the rating model of every configured track.
// Models are immutable, so a Registry is safe for concurrent use.
type Registry struct {
	models map[Track]*trueskill.Model
}

// NewRegistry builds a model per track from the given parameters.
func NewRegistry(params map[Track]trueskill.Params) (*Registry, error) {
	r := &Registry{models: make(map[Track]*trueskill.Model, len(params))}
	for track, p := range params {
		m, err := trueskill.NewModelWithParams(p)
		if err != nil {
			return nil, fmt.Errorf("track %s: %w", track, err)
		}
		r.models[track] = m
	}
	return r, nil
}

// DefaultRegistry returns the three standard tracks with default parameters.
func DefaultRegistry() *Registry {
	return &Registry{models: map[Track]*trueskill.Model{
		Ranked:     trueskill.Default(),
		BotMatch:   trueskill.Default(),
		Tournament: trueskill.Default(),
	}}
}

// FromConfig builds a registry from the [tracks] section of cfg.
func FromConfig(cfg *config.Config) (*Registry, error) {
	params := make(map[Track]trueskill.Params, len(cfg.Tracks))
	for name, tc := range cfg.Tracks {
		params[Track(name)] = tc.Params()
	}
	return NewRegistry(params)
}

// Model returns the rating model of track.
func (r *Registry) Model(track Track) (*trueskill.Model, error) {
	m, ok := r.models[track]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTrack, track)
	}
	return m, nil
}

// Tracks returns the registered tracks in sorted order.
func (r *Registry) Tracks() []Track {
	out := make([]Track, 0, len(r.models))
	for t := range r.models {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseTracks converts track names and checks each one is registered.
func (r *Registry) ParseTracks(names []string) ([]Track, error) {
	out := make([]Track, 0, len(names))
	for _, name := range names {
		t := Track(name)
		if _, err := r.Model(t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
