// Package stats computes summaries and filtered views over a game list.
package stats

import (
	"sort"

	"github.com/charlie0129/chess-stats-go/internal/format"
	"github.com/charlie0129/chess-stats-go/internal/models"
)

// AllTimeClasses selects every game when filtering.
const AllTimeClasses = "all"

// Summarize counts results and colors. Period and cache info are left to
// the caller.
func Summarize(games []models.Game) models.Summary {
	s := models.Summary{TotalGames: len(games)}
	for _, g := range games {
		switch g.Result {
		case models.ResultWin:
			s.Wins++
		case models.ResultLoss:
			s.Losses++
		default:
			s.Draws++
		}
		if g.UserColor == models.ColorWhite {
			s.AsWhite++
		} else {
			s.AsBlack++
		}
	}
	return s
}

type Percentages struct {
	Wins   float64
	Draws  float64
	Losses float64
}

// Percent computes one-decimal percentages; an empty summary is all zeros.
func Percent(s models.Summary) Percentages {
	return Percentages{
		Wins:   format.Percent(s.Wins, s.TotalGames),
		Draws:  format.Percent(s.Draws, s.TotalGames),
		Losses: format.Percent(s.Losses, s.TotalGames),
	}
}

// FilterByTimeClass returns the games of one time class. An empty class or
// AllTimeClasses returns the input unchanged.
func FilterByTimeClass(games []models.Game, timeClass string) []models.Game {
	if timeClass == "" || timeClass == AllTimeClasses {
		return games
	}
	out := make([]models.Game, 0, len(games))
	for _, g := range games {
		if g.TimeClass == timeClass {
			out = append(out, g)
		}
	}
	return out
}

// SortChronological returns an ascending-by-time copy.
func SortChronological(games []models.Game) []models.Game {
	out := make([]models.Game, len(games))
	copy(out, games)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// Extreme is one end of the rating range.
type Extreme struct {
	Rating int
	Date   string
	Index  int // position in the chronological input
}

type Extremes struct {
	Max Extreme
	Min Extreme
	OK  bool
}

// RatingExtremes scans chronologically sorted games. Ties keep the earliest
// game.
func RatingExtremes(sorted []models.Game) Extremes {
	if len(sorted) == 0 {
		return Extremes{}
	}
	first := Extreme{Rating: sorted[0].UserRating, Date: sorted[0].Date}
	ex := Extremes{Max: first, Min: first, OK: true}
	for i, g := range sorted[1:] {
		if g.UserRating > ex.Max.Rating {
			ex.Max = Extreme{Rating: g.UserRating, Date: g.Date, Index: i + 1}
		}
		if g.UserRating < ex.Min.Rating {
			ex.Min = Extreme{Rating: g.UserRating, Date: g.Date, Index: i + 1}
		}
	}
	return ex
}

// TimeClasses lists the distinct time classes present, sorted.
func TimeClasses(games []models.Game) []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range games {
		if g.TimeClass == "" || seen[g.TimeClass] {
			continue
		}
		seen[g.TimeClass] = true
		out = append(out, g.TimeClass)
	}
	sort.Strings(out)
	return out
}

// TimeClassStat is a per time class result breakdown.
type TimeClassStat struct {
	TimeClass string
	Games     int
	Wins      int
	Draws     int
	Losses    int
	WinRate   float64
}

func ByTimeClass(games []models.Game) []TimeClassStat {
	idx := make(map[string]int)
	var out []TimeClassStat
	for _, tc := range TimeClasses(games) {
		idx[tc] = len(out)
		out = append(out, TimeClassStat{TimeClass: tc})
	}
	for _, g := range games {
		i, ok := idx[g.TimeClass]
		if !ok {
			continue
		}
		out[i].Games++
		switch g.Result {
		case models.ResultWin:
			out[i].Wins++
		case models.ResultLoss:
			out[i].Losses++
		default:
			out[i].Draws++
		}
	}
	for i := range out {
		out[i].WinRate = format.Percent(out[i].Wins, out[i].Games)
	}
	return out
}
