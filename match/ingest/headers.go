// match/ingest/headers.go
package ingest

import (
	"strings"

	"github.com/cs2stats/stats-services/shared/models"
)

type stat int

const (
	statUnknown stat = iota
	statKills
	statDeaths
	statAssists
	statHeadshots
	statFirstKills
	statFirstDeaths
	statSniperKills
	statRWS
	statRating
	statRatingPlus
	statADR
	statHeadshotRate
	statKAST
)

// headerKeywords is checked in order, so longer labels that contain shorter
// ones ("爆头击杀" contains "击杀", "Rating+" contains "Rating") come first.
var headerKeywords = []struct {
	stat     stat
	keywords []string
}{
	{statHeadshots, []string{"爆头击杀", "hs kills"}},
	{statFirstKills, []string{"首杀", "first kills"}},
	{statSniperKills, []string{"狙杀数", "sniper kills"}},
	{statFirstDeaths, []string{"首死数", "first deaths"}},
	{statHeadshotRate, []string{"爆头率", "hs%"}},
	{statRatingPlus, []string{"rating+"}},
	{statRating, []string{"rating"}},
	{statRWS, []string{"rws"}},
	{statADR, []string{"adr"}},
	{statKAST, []string{"kast"}},
	{statKills, []string{"击杀", "kills"}},
	{statDeaths, []string{"死亡", "deaths"}},
	{statAssists, []string{"助攻", "assists"}},
}

var nameHeaders = []string{"选手名称", "player name"}

func classify(header string) stat {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return statUnknown
	}
	for _, hk := range headerKeywords {
		for _, kw := range hk.keywords {
			if strings.Contains(h, kw) {
				return hk.stat
			}
		}
	}
	return statUnknown
}

func isNameHeader(v string) bool {
	v = strings.ToLower(v)
	for _, h := range nameHeaders {
		if v == h {
			return true
		}
	}
	return false
}

func (s stat) apply(p *models.PlayerLine, v float64) {
	switch s {
	case statKills:
		p.Kills = int(v)
	case statDeaths:
		p.Deaths = int(v)
	case statAssists:
		p.Assists = int(v)
	case statHeadshots:
		p.Headshots = int(v)
	case statFirstKills:
		p.FirstKills = int(v)
	case statFirstDeaths:
		p.FirstDeaths = int(v)
	case statSniperKills:
		p.SniperKills = int(v)
	case statRWS:
		p.RWS = v
	case statRating:
		p.Rating = v
	case statRatingPlus:
		p.RatingPlus = v
	case statADR:
		p.ADR = v
	case statHeadshotRate:
		p.HeadshotRate = v
	case statKAST:
		p.KAST = v
	}
}
