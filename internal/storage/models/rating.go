package models

import "time"

// Player is a stored roster entry.
type Player struct {
	ID          string
	Name        string
	HiddenSkill float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TrackRating is a player's visible rating on one track.
type TrackRating struct {
	PlayerID      string
	Track         string
	Mu            float64
	Sigma         float64
	MatchesPlayed int
	UpdatedAt     time.Time
}

// RatingHistory is a rating snapshot taken after a numbered match.
type RatingHistory struct {
	ID          int
	PlayerID    string
	Track       string
	MatchNumber int
	Mu          float64
	Sigma       float64
	RecordedAt  time.Time
}

// LeaderboardEntry joins a track rating with the player's name.
type LeaderboardEntry struct {
	PlayerID      string
	Name          string
	Mu            float64
	Sigma         float64
	MatchesPlayed int
}
