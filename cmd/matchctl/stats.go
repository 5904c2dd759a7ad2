// cmd/matchctl/stats.go
package main

import (
	"fmt"
	"strconv"

	"github.com/cs2stats/stats-services/stats/compute"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var boardTitles = map[string]string{
	compute.BoardMVP:                "MVP",
	compute.BoardHeadshotManiac:     "Headshot Maniac",
	compute.BoardFirstKillAssassin:  "First Kill Assassin",
	compute.BoardImmortalWarrior:    "Immortal Warrior",
	compute.BoardTeamGlue:           "Team Glue",
	compute.BoardSniperGod:          "Sniper God",
	compute.BoardEconomicDestroyer:  "Economic Destroyer",
	compute.BoardAdversityHero:      "Adversity Hero",
	compute.BoardSteadyPlayer:       "Steady Player",
	compute.BoardHighRiskHighReward: "High Risk High Reward",
	compute.BoardNoFreeWins:         "No Free Wins",
	compute.BoardRWSDominance:       "RWS Dominance",
}

func newPlayersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "players",
		Aliases: []string{"p"},
		Short:   "Show aggregated player statistics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			players, err := opts.statsClient().Players(ctx)
			if err != nil {
				return fmt.Errorf("getting players: %w", err)
			}
			if len(players) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No player statistics yet")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetAutoWrapText(false)
			table.SetHeader([]string{"Player", "Matches", "K/D", "Avg K", "Avg D", "Avg A", "HS%", "Avg FK", "Rating+", "ADR", "RWS", "KAST"})
			for _, p := range players {
				table.Append([]string{
					p.Name,
					strconv.Itoa(p.TotalMatches),
					formatFloat(p.KDRatio, 2),
					formatFloat(p.AvgKills, 1),
					formatFloat(p.AvgDeaths, 1),
					formatFloat(p.AvgAssists, 1),
					formatFloat(p.HeadshotRatio, 1),
					formatFloat(p.AvgFirstKills, 1),
					formatFloat(p.AvgRatingPlus, 2),
					formatFloat(p.AvgADR, 1),
					formatFloat(p.AvgRWS, 1),
					formatFloat(p.AvgKAST, 1),
				})
			}
			table.Render()
			return nil
		},
	}
}

func newLeaderboardsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "leaderboards [board]",
		Aliases: []string{"lb"},
		Short:   "Show every leaderboard, or a single one by name",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := compute.BoardNames
			if len(args) == 1 {
				if _, ok := boardTitles[args[0]]; !ok {
					return fmt.Errorf("unknown leaderboard %q", args[0])
				}
				names = args
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			boards, err := opts.statsClient().Leaderboards(ctx)
			if err != nil {
				return fmt.Errorf("getting leaderboards: %w", err)
			}

			out := cmd.OutOrStdout()
			for i, name := range names {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, color.New(color.Bold, color.FgHiYellow).Sprint(boardTitles[name]))

				entries := boards[name]
				if len(entries) == 0 {
					fmt.Fprintln(out, "  no qualifying players")
					continue
				}
				table := tablewriter.NewWriter(out)
				table.SetAutoWrapText(false)
				table.SetHeader([]string{"#", "Player", "Score", "Tag"})
				for rank, e := range entries {
					table.Append([]string{strconv.Itoa(rank + 1), e.Name, formatFloat(e.Score, 2), e.Tag})
				}
				table.Render()
			}
			return nil
		},
	}
}
