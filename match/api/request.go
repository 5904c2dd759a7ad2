// match/api/request.go
package api

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/cs2stats/stats-services/shared/models"
)

// createMatchRequest is the accepted POST body. id and createdAt are server assigned,
// so they are not part of it and any client value is dropped.
type createMatchRequest struct {
	Name  string       `json:"name"`
	Map   string       `json:"map"`
	Date  string       `json:"date"`
	Teams teamsRequest `json:"teams"`
}

type teamsRequest struct {
	A teamRequest `json:"A"`
	B teamRequest `json:"B"`
}

type teamRequest struct {
	Name    string          `json:"name"`
	Score   flexInt         `json:"score"`
	Players []playerRequest `json:"players"`
}

type playerRequest struct {
	Name         string  `json:"name"`
	Team         string  `json:"team"`
	Kills        flexInt `json:"kills"`
	Deaths       flexInt `json:"deaths"`
	Assists      flexInt `json:"assists"`
	KDRatio      float64 `json:"kd_ratio"`
	Headshots    flexInt `json:"headshots"`
	FirstKills   flexInt `json:"first_kills"`
	FirstDeaths  flexInt `json:"first_deaths"`
	SniperKills  flexInt `json:"sniper_kills"`
	RWS          float64 `json:"rws"`
	Rating       float64 `json:"rating"`
	RatingPlus   float64 `json:"rating_plus"`
	ADR          float64 `json:"adr"`
	HeadshotRate float64 `json:"headshot_rate"`
	KAST         float64 `json:"kast"`
}

// flexInt takes any JSON number, dropping the fraction, or a numeric string.
// Other values leave it at 0 without failing the surrounding document.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	*n = 0

	text := string(data)
	var s string
	if json.Unmarshal(data, &s) == nil {
		text = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	*n = flexInt(f)
	return nil
}

func (r createMatchRequest) toMatch() *models.Match {
	return &models.Match{
		Name: r.Name,
		Map:  r.Map,
		Date: r.Date,
		Teams: models.Teams{
			A: r.Teams.A.toTeam(),
			B: r.Teams.B.toTeam(),
		},
	}
}

func (t teamRequest) toTeam() models.Team {
	team := models.Team{Name: t.Name, Score: int(t.Score)}
	if t.Players != nil {
		team.Players = make([]models.PlayerLine, 0, len(t.Players))
	}
	for _, p := range t.Players {
		team.Players = append(team.Players, models.PlayerLine{
			Name:         p.Name,
			Team:         p.Team,
			Kills:        int(p.Kills),
			Deaths:       int(p.Deaths),
			Assists:      int(p.Assists),
			KDRatio:      p.KDRatio,
			Headshots:    int(p.Headshots),
			FirstKills:   int(p.FirstKills),
			FirstDeaths:  int(p.FirstDeaths),
			SniperKills:  int(p.SniperKills),
			RWS:          p.RWS,
			Rating:       p.Rating,
			RatingPlus:   p.RatingPlus,
			ADR:          p.ADR,
			HeadshotRate: p.HeadshotRate,
			KAST:         p.KAST,
		})
	}
	return team
}
