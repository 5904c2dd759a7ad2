// shared/models/match.go
package models

import (
	"math"
	"time"
)

// Team keys used inside Match.Teams.
const (
	TeamA = "A"
	TeamB = "B"
)

// Match is one played map between team A and team B, stored as a single MongoDB document.
// Player lines are embedded; nothing else references a match.
type Match struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Map       string    `bson:"map" json:"map"`
	Date      string    `bson:"date" json:"date"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	Teams     Teams     `bson:"teams" json:"teams"`
}

// Teams holds both sides of a match.
type Teams struct {
	A Team `bson:"A" json:"A"`
	B Team `bson:"B" json:"B"`
}

// Team is one side of a match with its final score.
type Team struct {
	Name    string       `bson:"name" json:"name"`
	Score   int          `bson:"score" json:"score"`
	Players []PlayerLine `bson:"players" json:"players"`
}

// PlayerLine is a single player's stat line for one match.
type PlayerLine struct {
	Name         string  `bson:"name" json:"name"`
	Team         string  `bson:"team,omitempty" json:"team,omitempty"`
	Kills        int     `bson:"kills" json:"kills"`
	Deaths       int     `bson:"deaths" json:"deaths"`
	Assists      int     `bson:"assists" json:"assists"`
	KDRatio      float64 `bson:"kd_ratio" json:"kd_ratio"`
	Headshots    int     `bson:"headshots" json:"headshots"`
	FirstKills   int     `bson:"first_kills" json:"first_kills"`
	FirstDeaths  int     `bson:"first_deaths" json:"first_deaths"`
	SniperKills  int     `bson:"sniper_kills" json:"sniper_kills"`
	RWS          float64 `bson:"rws" json:"rws"`
	Rating       float64 `bson:"rating" json:"rating"`
	RatingPlus   float64 `bson:"rating_plus" json:"rating_plus"`
	ADR          float64 `bson:"adr" json:"adr"`
	HeadshotRate float64 `bson:"headshot_rate" json:"headshot_rate"`
	KAST         float64 `bson:"kast" json:"kast"`
}

// Side returns the team stored under key ("A" or "B").
func (t *Teams) Side(key string) *Team {
	if key == TeamA {
		return &t.A
	}
	return &t.B
}

// LostBy reports whether the given side lost the match. A draw counts as a loss for team A,
// which is how the leaderboards have always scored it.
func (m *Match) LostBy(side string) bool {
	teamAWon := m.Teams.A.Score > m.Teams.B.Score
	if side == TeamA {
		return !teamAWon
	}
	return teamAWon
}

// KD computes kills over deaths, treating zero deaths as one, rounded to two places.
func KD(kills, deaths int) float64 {
	return math.Round(float64(kills)/float64(max(deaths, 1))*100) / 100
}
