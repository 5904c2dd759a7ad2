// stats/compute/leaderboards.go
package compute

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/cs2stats/stats-services/shared/models"
)

// Board names, also the keys of Leaderboards.
const (
	BoardMVP                = "mvp"
	BoardHeadshotManiac     = "headshot_maniac"
	BoardFirstKillAssassin  = "first_kill_assassin"
	BoardImmortalWarrior    = "immortal_warrior"
	BoardTeamGlue           = "team_glue"
	BoardSniperGod          = "sniper_god"
	BoardEconomicDestroyer  = "economic_destroyer"
	BoardAdversityHero      = "adversity_hero"
	BoardSteadyPlayer       = "steady_player"
	BoardHighRiskHighReward = "high_risk_high_reward"
	BoardNoFreeWins         = "no_free_wins"
	BoardRWSDominance       = "rws_dominance"
)

// BoardNames lists every board in display order.
var BoardNames = []string{
	BoardMVP,
	BoardHeadshotManiac,
	BoardFirstKillAssassin,
	BoardImmortalWarrior,
	BoardTeamGlue,
	BoardSniperGod,
	BoardEconomicDestroyer,
	BoardAdversityHero,
	BoardSteadyPlayer,
	BoardHighRiskHighReward,
	BoardNoFreeWins,
	BoardRWSDominance,
}

// MaxEntries is the length limit of every board.
const MaxEntries = 10

// Entry is one row of a board. Metrics holds the board-specific figures and is
// flattened next to name, score and tag when encoded.
type Entry struct {
	Name    string
	Score   float64
	Tag     string
	Metrics map[string]float64
}

func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Metrics)+3)
	for k, v := range e.Metrics {
		out[k] = v
	}
	out["name"] = e.Name
	out["score"] = e.Score
	out["tag"] = e.Tag
	return json.Marshal(out)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry{Metrics: make(map[string]float64)}
	for k, v := range raw {
		var err error
		switch k {
		case "name":
			err = json.Unmarshal(v, &e.Name)
		case "score":
			err = json.Unmarshal(v, &e.Score)
		case "tag":
			err = json.Unmarshal(v, &e.Tag)
		default:
			var f float64
			if err = json.Unmarshal(v, &f); err == nil {
				e.Metrics[k] = f
			}
		}
		if err != nil {
			return fmt.Errorf("leaderboard entry field %q: %w", k, err)
		}
	}
	return nil
}

// Leaderboards maps a board name to its ranked entries.
type Leaderboards map[string][]Entry

// ComputeLeaderboards builds every board. players must come from Players(matches).
func ComputeLeaderboards(players []Player, matches []models.Match) Leaderboards {
	return Leaderboards{
		BoardMVP:                rank(players, mvp),
		BoardHeadshotManiac:     rank(players, headshotManiac),
		BoardFirstKillAssassin:  rank(players, firstKillAssassin),
		BoardImmortalWarrior:    rank(players, immortalWarrior),
		BoardTeamGlue:           rank(players, teamGlue),
		BoardSniperGod:          rank(players, sniperGod),
		BoardEconomicDestroyer:  rank(players, economicDestroyer),
		BoardAdversityHero:      adversityHero(players, matches),
		BoardSteadyPlayer:       rank(players, steadyPlayer),
		BoardHighRiskHighReward: rank(players, highRiskHighReward),
		BoardNoFreeWins:         rank(players, noFreeWins),
		BoardRWSDominance:       rank(players, rwsDominance),
	}
}

// scorer returns the player's entry and whether the player qualifies.
type scorer func(p Player) (Entry, bool)

func rank(players []Player, score scorer) []Entry {
	entries := make([]Entry, 0)
	for _, p := range players {
		if e, ok := score(p); ok {
			entries = append(entries, e)
		}
	}
	return top(entries)
}

// top sorts by score descending, keeping input order for ties, and truncates.
func top(entries []Entry) []Entry {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return entries
}

func mvp(p Player) (Entry, bool) {
	if p.TotalMatches < 1 || p.AvgRatingPlus < 1.0 {
		return Entry{}, false
	}
	return Entry{
		Name:  p.Name,
		Score: p.AvgRatingPlus,
		Tag:   "🏆 Certified MVP",
		Metrics: map[string]float64{
			"avgRatingPlus": p.AvgRatingPlus,
			"totalMatches":  float64(p.TotalMatches),
		},
	}, true
}

func headshotManiac(p Player) (Entry, bool) {
	if p.HeadshotRatio < 40 || p.AvgKills < 10 {
		return Entry{}, false
	}
	tag := ""
	switch {
	case p.HeadshotRatio >= 60:
		tag = "🔥 Headshot Machine"
	case p.HeadshotRatio >= 50:
		tag = "💀 Skull Crusher"
	}
	return Entry{
		Name:  p.Name,
		Score: p.HeadshotRatio,
		Tag:   tag,
		Metrics: map[string]float64{
			"headshotRatio": p.HeadshotRatio,
			"avgKills":      p.AvgKills,
		},
	}, true
}

func firstKillAssassin(p Player) (Entry, bool) {
	fk, fd := p.AvgFirstKills, p.AvgFirstDeaths
	success := fk / (fk + fd + 0.1)
	ei := fk * math.Pow(success, 1.3) *
		(1 + (p.KDRatio-1)/3) *
		(1 - fd/(fk+fd+0.1)) *
		math.Min(1.0, p.AvgADR/80)

	if p.TotalMatches < 1 || ei <= 0.3 {
		return Entry{}, false
	}

	var tag string
	switch {
	case ei >= 0.8 && success >= 0.5:
		tag = "💥 Door Breaker"
	case fk >= 0.7 && success < 0.4:
		tag = "☠️ Martyr Vanguard"
	case ei >= 0.7 && p.AvgKAST >= 75:
		tag = "🔄 All-round Entry"
	case success >= 0.55 && p.AvgADR >= 85:
		tag = "🎯 Sharp Spearhead"
	case fd > fk && p.KDRatio < 0.9:
		tag = "🛑 Fake Entry"
	default:
		tag = "🔪 Entry Fragger"
	}
	return Entry{
		Name:  p.Name,
		Score: round(ei, 2),
		Tag:   tag,
		Metrics: map[string]float64{
			"ei":                   round(ei, 2),
			"avgFirstKills":        fk,
			"avgFirstDeaths":       fd,
			"firstKillSuccessRate": round(success*100, 1),
			"avgKD":                round(p.KDRatio, 2),
			"avgADR":               round(p.AvgADR, 1),
			"avgKAST":              round(p.AvgKAST, 1),
		},
	}, true
}

func immortalWarrior(p Player) (Entry, bool) {
	if p.AvgDeaths > 20 || p.AvgKAST < 0.6 {
		return Entry{}, false
	}
	survival := (math.Max(0, 25-p.AvgDeaths) / 25) * p.AvgKAST * math.Min(2.0, p.AvgRatingPlus)

	var tag string
	switch {
	case p.AvgDeaths <= 12 && p.AvgKAST >= 0.7 && p.AvgRatingPlus >= 1.2:
		tag = "🛡️ Iron Will"
	case p.AvgDeaths <= 15 && p.AvgKAST >= 0.75 && p.AvgRatingPlus >= 1.0:
		tag = "🎯 Efficient Survivor"
	case p.AvgDeaths >= 18 && p.AvgKAST >= 0.7:
		tag = "☠️ Feeder King"
	case p.AvgKAST >= 0.65 && p.AvgRatingPlus < 0.95:
		tag = "🐢 Turtle Shell"
	case p.AvgDeaths <= 10 && p.KDRatio >= 1.5:
		tag = "⚔️ Survival Master"
	default:
		tag = "🔰 Survivor"
	}
	return Entry{
		Name:  p.Name,
		Score: round(survival, 2),
		Tag:   tag,
		Metrics: map[string]float64{
			"survival_score": round(survival, 2),
			"avgDeaths":      p.AvgDeaths,
			"kdRatio":        round(p.KDRatio, 2),
			"avgKAST":        round(p.AvgKAST*100, 1),
		},
	}, true
}

func teamGlue(p Player) (Entry, bool) {
	if p.AvgKAST < 0.55 || p.AvgAssists < 2 {
		return Entry{}, false
	}
	tag := ""
	if p.AvgKAST >= 0.65 {
		tag = "🤝 Tempo Engine"
	}
	return Entry{
		Name:  p.Name,
		Score: p.AvgKAST,
		Tag:   tag,
		Metrics: map[string]float64{
			"avgKAST":    p.AvgKAST,
			"avgAssists": p.AvgAssists,
		},
	}, true
}

func sniperGod(p Player) (Entry, bool) {
	if p.SniperKillRatio < 5 {
		return Entry{}, false
	}
	tag := ""
	if p.SniperKillRatio >= 8 && p.HeadshotRatio >= 40 {
		tag = "🎯 Long-range Reaper"
	}
	return Entry{
		Name:  p.Name,
		Score: round(p.SniperKillRatio*(p.HeadshotRatio/100), 2),
		Tag:   tag,
		Metrics: map[string]float64{
			"sniperKillRatio": p.SniperKillRatio,
			"avgHeadshots":    p.AvgHeadshots,
			"headshotRatio":   p.HeadshotRatio,
		},
	}, true
}

func economicDestroyer(p Player) (Entry, bool) {
	if p.AvgADR < 85 || p.AvgRatingPlus < 1.0 {
		return Entry{}, false
	}
	tag := ""
	switch {
	case p.AvgADR >= 110:
		tag = "💥 Clean Sweep"
	case p.AvgADR >= 95:
		tag = "💸 Ammo Tycoon"
	}
	return Entry{
		Name:  p.Name,
		Score: p.AvgADR,
		Tag:   tag,
		Metrics: map[string]float64{
			"avgADR":        p.AvgADR,
			"avgRatingPlus": p.AvgRatingPlus,
		},
	}, true
}

func steadyPlayer(p Player) (Entry, bool) {
	if p.AvgRatingPlus < 1 {
		return Entry{}, false
	}
	tag := ""
	switch {
	case p.AvgRatingPlus >= 1.3:
		tag = "🔪 Super Carry"
	case p.AvgRatingPlus >= 1.1:
		tag = "📊 Walking Aimbot"
	}
	return Entry{
		Name:    p.Name,
		Score:   p.AvgRatingPlus,
		Tag:     tag,
		Metrics: map[string]float64{"avgRatingPlus": p.AvgRatingPlus},
	}, true
}

func highRiskHighReward(p Player) (Entry, bool) {
	if p.AvgKills < 12 {
		return Entry{}, false
	}
	kes := (p.AvgKills * p.AvgADR / 80) *
		math.Min(1, p.KDRatio) *
		p.AvgRatingPlus *
		(p.AvgRWS / 500)

	var tag string
	switch {
	case kes >= 1.8 && p.AvgADR >= 85:
		tag = "⚡ Efficient Reaper"
	case p.AvgKills >= 20 && kes < 1.2:
		tag = "💥 Damage Machine"
	case kes >= 1.6 && p.KDRatio >= 1.1:
		tag = "🎯 Elite Killer"
	case p.AvgKills >= 18:
		tag = "🚫 Stat Padder"
	default:
		tag = "🔰 Fragger"
	}
	return Entry{
		Name:  p.Name,
		Score: round(kes, 2),
		Tag:   tag,
		Metrics: map[string]float64{
			"kes":           round(kes, 2),
			"avgKills":      p.AvgKills,
			"avgADR":        round(p.AvgADR, 1),
			"kdRatio":       round(p.KDRatio, 2),
			"avgRatingPlus": round(p.AvgRatingPlus, 2),
			"avgRWS":        round(p.AvgRWS, 1),
		},
	}, true
}

func noFreeWins(p Player) (Entry, bool) {
	if p.AvgRatingPlus < 1.0 || p.AvgKAST < 0.63 || p.AvgRWS < 10 {
		return Entry{}, false
	}
	return Entry{
		Name:    p.Name,
		Score:   p.AvgRatingPlus,
		Tag:     "🚫 Never Carried",
		Metrics: map[string]float64{"avgRatingPlus": p.AvgRatingPlus},
	}, true
}

func rwsDominance(p Player) (Entry, bool) {
	if p.AvgRWS < 12 {
		return Entry{}, false
	}
	return Entry{
		Name:    p.Name,
		Score:   p.AvgRWS,
		Tag:     "👑 Clutch God",
		Metrics: map[string]float64{"avgRWS": p.AvgRWS},
	}, true
}

type lossRecord struct {
	totalRatingPlus float64
	losses          int
}

// adversityHero ranks players by their average rating+ in matches their side lost.
func adversityHero(players []Player, matches []models.Match) []Entry {
	losses := make(map[string]*lossRecord)
	for i := range matches {
		match := &matches[i]
		for _, side := range []string{models.TeamA, models.TeamB} {
			if !match.LostBy(side) {
				continue
			}
			for _, line := range match.Teams.Side(side).Players {
				rec, ok := losses[line.Name]
				if !ok {
					rec = &lossRecord{}
					losses[line.Name] = rec
				}
				rec.totalRatingPlus += line.RatingPlus
				rec.losses++
			}
		}
	}

	entries := make([]Entry, 0)
	for _, p := range players {
		rec, ok := losses[p.Name]
		if !ok || rec.losses < 1 {
			continue
		}
		avg := rec.totalRatingPlus / float64(rec.losses)
		if avg < 1.1 {
			continue
		}
		entries = append(entries, Entry{
			Name:  p.Name,
			Score: round(avg, 2),
			Tag:   "🌪️ Lone Savior",
			Metrics: map[string]float64{
				"avgLossRatingPlus": round(avg, 2),
				"totalLossMatches":  float64(rec.losses),
			},
		})
	}
	return top(entries)
}
