// Package games turns raw chess.com archive games into per-user records
// and derives the activity heatmap.
package games

import (
	"sort"
	"strings"
	"time"

	"github.com/charlie0129/chess-stats-go/internal/chesscom"
	"github.com/charlie0129/chess-stats-go/internal/format"
	"github.com/charlie0129/chess-stats-go/internal/models"
)

// Normalize describes raw from username's side of the board.
func Normalize(raw chesscom.Game, username string, loc *time.Location) models.Game {
	isWhite := strings.EqualFold(username, raw.White.Username)

	user, opp := raw.Black, raw.White
	color := models.ColorBlack
	if isWhite {
		user, opp = raw.White, raw.Black
		color = models.ColorWhite
	}

	result := models.ResultDraw
	switch {
	case raw.White.Result == "win":
		result = models.ResultLoss
		if isWhite {
			result = models.ResultWin
		}
	case raw.Black.Result == "win":
		result = models.ResultWin
		if isWhite {
			result = models.ResultLoss
		}
	}

	opponent := strings.ToLower(opp.Username)
	if opponent == "" {
		opponent = "unknown"
	}

	info := AnalyzePGN(raw.PGN)
	if info.Opening == "" {
		info.Opening = openingFromURL(raw.ECO)
	}

	return models.Game{
		Date:           format.Date(time.Unix(raw.EndTime, 0).In(loc)),
		Timestamp:      raw.EndTime,
		UserColor:      color,
		Opponent:       opponent,
		Result:         result,
		TimeControl:    raw.TimeControl,
		TimeClass:      raw.TimeClass,
		Variant:        raw.Rules,
		UserRating:     user.Rating,
		OpponentRating: opp.Rating,
		PGN:            raw.PGN,
		URL:            raw.URL,
		ECO:            info.ECO,
		Opening:        info.Opening,
		Moves:          info.Moves,
	}
}

// NormalizeAll normalizes every game and orders them newest first.
func NormalizeAll(raws []chesscom.Game, username string, loc *time.Location) []models.Game {
	out := make([]models.Game, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw, username, loc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// PeriodOf derives the first and last month of a selection.
func PeriodOf(monthURLs []string) *models.Period {
	type ym struct{ y, m int }
	var parsed []ym
	for _, u := range monthURLs {
		y, m, err := format.ParseMonthURL(u)
		if err != nil {
			continue
		}
		parsed = append(parsed, ym{y, m})
	}
	if len(parsed) == 0 {
		return nil
	}
	sort.Slice(parsed, func(i, j int) bool {
		if parsed[i].y != parsed[j].y {
			return parsed[i].y < parsed[j].y
		}
		return parsed[i].m < parsed[j].m
	})
	first, last := parsed[0], parsed[len(parsed)-1]
	return &models.Period{
		Start:  format.YearMonth(first.y, first.m),
		End:    format.YearMonth(last.y, last.m),
		Months: len(parsed),
	}
}
