// cmd/matchctl/matches.go
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cs2stats/stats-services/shared/api"
	"github.com/cs2stats/stats-services/shared/models"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newMatchesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "matches",
		Aliases: []string{"m"},
		Short:   "List, inspect, delete and import matches",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			matches, err := opts.matchClient().ListMatches(ctx)
			if err != nil {
				return fmt.Errorf("listing matches: %w", err)
			}
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches yet")
				return nil
			}
			renderMatches(cmd, matches)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one match with both teams' stat lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			match, err := opts.matchClient().GetMatch(ctx, args[0])
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("match %s not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("getting match: %w", err)
			}
			renderMatch(cmd, match)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a match",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			if err := opts.matchClient().DeleteMatch(ctx, args[0]); err != nil {
				return fmt.Errorf("deleting match: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted match %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import a match from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx, cancel := opts.context(cmd)
			defer cancel()

			id, err := opts.matchClient().UploadSpreadsheet(ctx, filepath.Base(args[0]), f)
			if err != nil {
				return fmt.Errorf("importing %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported match %s\n", color.New(color.Bold, color.FgHiGreen).Sprint(id))
			return nil
		},
	})

	return cmd
}

func renderMatches(cmd *cobra.Command, matches []models.Match) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "ID", "Name", "Map", "Date", "Score"})

	for i, m := range matches {
		table.Append([]string{
			strconv.Itoa(i + 1),
			m.ID,
			m.Name,
			m.Map,
			matchDate(m),
			fmt.Sprintf("%s %d : %d %s", m.Teams.A.Name, m.Teams.A.Score, m.Teams.B.Score, m.Teams.B.Name),
		})
	}
	table.Render()
}

func matchDate(m models.Match) string {
	if m.Date != "" {
		return m.Date
	}
	if m.CreatedAt.IsZero() {
		return ""
	}
	return m.CreatedAt.Local().Format("2006-01-02 15:04")
}

func renderMatch(cmd *cobra.Command, m *models.Match) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s  %s\n", color.New(color.Bold).Sprint(m.Name), m.Map, matchDate(*m))

	for _, side := range []string{models.TeamA, models.TeamB} {
		team := m.Teams.Side(side)
		fmt.Fprintln(out)
		fmt.Fprintln(out, color.New(color.Bold, color.FgHiCyan).Sprintf("%s (%d)", team.Name, team.Score))

		table := tablewriter.NewWriter(out)
		table.SetAutoWrapText(false)
		table.SetHeader([]string{"Player", "K", "D", "A", "K/D", "HS", "FK", "FD", "Rating+", "ADR", "RWS", "KAST"})
		for _, p := range team.Players {
			table.Append([]string{
				p.Name,
				strconv.Itoa(p.Kills),
				strconv.Itoa(p.Deaths),
				strconv.Itoa(p.Assists),
				formatFloat(p.KDRatio, 2),
				strconv.Itoa(p.Headshots),
				strconv.Itoa(p.FirstKills),
				strconv.Itoa(p.FirstDeaths),
				formatFloat(p.RatingPlus, 2),
				formatFloat(p.ADR, 1),
				formatFloat(p.RWS, 1),
				formatFloat(p.KAST, 2),
			})
		}
		table.Render()
	}
}

func formatFloat(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}
