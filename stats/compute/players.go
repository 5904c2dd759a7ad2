// stats/compute/players.go
package compute

import (
	"math"
	"slices"
	"strings"

	"github.com/cs2stats/stats-services/shared/models"
)

// Player is one player's statistics over every match they appear in.
type Player struct {
	Name string `json:"name"`

	TotalKills       int     `json:"totalKills"`
	TotalDeaths      int     `json:"totalDeaths"`
	TotalAssists     int     `json:"totalAssists"`
	TotalHeadshots   int     `json:"totalHeadshots"`
	TotalFirstKills  int     `json:"totalFirstKills"`
	TotalFirstDeaths int     `json:"totalFirstDeaths"`
	TotalSniperKills int     `json:"totalSniperKills"`
	TotalRatingPlus  float64 `json:"totalRatingPlus"`
	TotalADR         float64 `json:"totalADR"`
	TotalRWS         float64 `json:"totalRWS"`
	TotalKAST        float64 `json:"totalKAST"`
	TotalMatches     int     `json:"totalMatches"`

	KDRatio         float64 `json:"kdRatio"`
	AvgKills        float64 `json:"avgKills"`
	AvgDeaths       float64 `json:"avgDeaths"`
	AvgAssists      float64 `json:"avgAssists"`
	AvgHeadshots    float64 `json:"avgHeadshots"`
	AvgFirstKills   float64 `json:"avgFirstKills"`
	AvgFirstDeaths  float64 `json:"avgFirstDeaths"`
	AvgRatingPlus   float64 `json:"avgRatingPlus"`
	AvgADR          float64 `json:"avgADR"`
	AvgRWS          float64 `json:"avgRWS"`
	AvgKAST         float64 `json:"avgKAST"`
	HeadshotRatio   float64 `json:"headshotRatio"`   // percent of kills
	SniperKillRatio float64 `json:"sniperKillRatio"` // percent of kills
}

// Players aggregates every player line by player name, sorted by name.
func Players(matches []models.Match) []Player {
	byName := make(map[string]*Player)
	for _, match := range matches {
		for _, team := range []models.Team{match.Teams.A, match.Teams.B} {
			for _, line := range team.Players {
				p, ok := byName[line.Name]
				if !ok {
					p = &Player{Name: line.Name}
					byName[line.Name] = p
				}
				p.add(line)
			}
		}
	}

	players := make([]Player, 0, len(byName))
	for _, p := range byName {
		p.derive()
		players = append(players, *p)
	}
	slices.SortFunc(players, func(a, b Player) int { return strings.Compare(a.Name, b.Name) })
	return players
}

func (p *Player) add(line models.PlayerLine) {
	p.TotalKills += line.Kills
	p.TotalDeaths += line.Deaths
	p.TotalAssists += line.Assists
	p.TotalHeadshots += line.Headshots
	p.TotalFirstKills += line.FirstKills
	p.TotalFirstDeaths += line.FirstDeaths
	p.TotalSniperKills += line.SniperKills
	p.TotalRatingPlus += line.RatingPlus
	p.TotalADR += line.ADR
	p.TotalRWS += line.RWS
	p.TotalKAST += line.KAST
	p.TotalMatches++
}

func (p *Player) derive() {
	n := float64(p.TotalMatches)
	kills := float64(max(p.TotalKills, 1))

	p.KDRatio = models.KD(p.TotalKills, p.TotalDeaths)
	p.AvgKills = round(float64(p.TotalKills)/n, 1)
	p.AvgDeaths = round(float64(p.TotalDeaths)/n, 1)
	p.AvgAssists = round(float64(p.TotalAssists)/n, 1)
	p.AvgHeadshots = round(float64(p.TotalHeadshots)/n, 1)
	p.AvgFirstKills = round(float64(p.TotalFirstKills)/n, 1)
	p.AvgFirstDeaths = round(float64(p.TotalFirstDeaths)/n, 1)
	p.AvgRatingPlus = round(p.TotalRatingPlus/n, 2)
	p.AvgADR = round(p.TotalADR/n, 1)
	p.AvgRWS = round(p.TotalRWS/n, 1)
	p.AvgKAST = round(p.TotalKAST/n, 1)
	p.HeadshotRatio = round(float64(p.TotalHeadshots)/kills*100, 1)
	p.SniperKillRatio = round(float64(p.TotalSniperKills)/kills*100, 1)
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
