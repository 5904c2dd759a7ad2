// match/ingest/parser.go
package ingest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cs2stats/stats-services/shared/models"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// DateLayout is the format of Match.Date for uploaded matches.
const DateLayout = "2006-01-02 15:04"

// Row positions of the match sheet, 0-based.
const (
	rowMatchInfo    = 1
	rowTeamA        = 3
	rowHeader       = 4
	rowTeamAPlayers = 5
	rowTeamB        = 12
	rowTeamBPlayers = 14
	playersPerTeam  = 5
)

// ErrUnreadableWorkbook is returned when the upload is not a workbook the parser can open.
var ErrUnreadableWorkbook = errors.New("unreadable workbook")

// AllowedFile reports whether filename carries a spreadsheet extension.
func AllowedFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return true
	}
	return false
}

// Parser turns a match sheet into a models.Match.
type Parser struct {
	logger zerolog.Logger
}

func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger.With().Str("component", "ingest").Logger()}
}

// Parse reads the first sheet of the workbook in r. The returned match has no id
// and no createdAt; now only fills Date and the default name.
func (p *Parser) Parse(r io.Reader, now time.Time) (*models.Match, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableWorkbook)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableWorkbook, err)
	}
	return p.parseRows(rows, now), nil
}

func (p *Parser) parseRows(rows [][]string, now time.Time) *models.Match {
	match := &models.Match{
		Name: orDefault(cell(rows, rowMatchInfo, 0), "Match "+now.Format(DateLayout)),
		Map:  orDefault(cell(rows, rowMatchInfo, 1), "Unknown"),
		Date: now.Format(DateLayout),
	}

	headers := rowAt(rows, rowHeader)

	match.Teams.A = models.Team{
		Name:  orDefault(cell(rows, rowTeamA, 0), "Team A"),
		Score: parseScore(cell(rows, rowTeamA, 1)),
	}
	match.Teams.B = models.Team{
		Name:  orDefault(cell(rows, rowTeamB, 0), "Team B"),
		Score: parseScore(cell(rows, rowTeamB, 1)),
	}
	match.Teams.A.Players = p.parsePlayers(rows, rowTeamAPlayers, headers, match.Teams.A.Name)
	match.Teams.B.Players = p.parsePlayers(rows, rowTeamBPlayers, headers, match.Teams.B.Name)

	p.logger.Debug().
		Str("match", match.Name).
		Int("team_a_players", len(match.Teams.A.Players)).
		Int("team_b_players", len(match.Teams.B.Players)).
		Msg("parsed match sheet")
	return match
}

func (p *Parser) parsePlayers(rows [][]string, start int, headers []string, team string) []models.PlayerLine {
	players := make([]models.PlayerLine, 0, playersPerTeam)
	for i := start; i < start+playersPerTeam && i < len(rows); i++ {
		if player, ok := p.parsePlayer(rows[i], headers, team); ok {
			players = append(players, player)
		}
	}
	return players
}

func (p *Parser) parsePlayer(row, headers []string, team string) (models.PlayerLine, bool) {
	if len(row) == 0 {
		return models.PlayerLine{}, false
	}
	name := strings.TrimSpace(row[0])
	if name == "" || isNameHeader(name) {
		return models.PlayerLine{}, false
	}

	player := models.PlayerLine{Name: name, Team: team}
	for i, header := range headers {
		if i >= len(row) {
			break
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}
		st := classify(header)
		if st == statUnknown {
			continue
		}
		n, err := parseNumber(value)
		if err != nil {
			p.logger.Debug().Str("player", name).Str("header", header).Str("value", value).Msg("skipping unparseable cell")
			continue
		}
		st.apply(&player, n)
	}
	player.KDRatio = models.KD(player.Kills, player.Deaths)
	return player, true
}

func cell(rows [][]string, r, c int) string {
	row := rowAt(rows, r)
	if c >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[c])
}

func rowAt(rows [][]string, r int) []string {
	if r >= len(rows) {
		return nil
	}
	return rows[r]
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// parseScore accepts "13" as well as "13.0"; anything else is 0.
func parseScore(v string) int {
	n, err := parseNumber(v)
	if err != nil {
		return 0
	}
	return int(n)
}

// parseNumber is strconv.ParseFloat restricted to finite values; "nan" and "inf" cells
// cannot be stored as JSON.
func parseNumber(v string) (float64, error) {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("non-finite number %q", v)
	}
	return n, nil
}
