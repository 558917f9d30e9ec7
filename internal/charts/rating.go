// Package charts builds chart view-models from aggregated games and renders
// them as SVG and PNG.
package charts

import (
	"github.com/charlie0129/chess-stats-go/internal/models"
	"github.com/charlie0129/chess-stats-go/internal/stats"
)

var resultColors = map[string]string{
	models.ResultWin:  "#4caf50",
	models.ResultLoss: "#f44336",
	models.ResultDraw: "#9e9e9e",
}

var lineColors = map[string]string{
	stats.AllTimeClasses: "#607d8b",
	"bullet":             "#ff9800",
	"blitz":              "#2196f3",
	"rapid":              "#9c27b0",
	"daily":              "#795548",
}

const defaultLineColor = "#3f51b5"

// PlaceholderText is shown instead of an empty series.
const PlaceholderText = "No games for the selected time class"

func ResultColor(result string) string {
	if c, ok := resultColors[result]; ok {
		return c
	}
	return resultColors[models.ResultDraw]
}

func LineColor(timeClass string) string {
	if timeClass == "" {
		timeClass = stats.AllTimeClasses
	}
	if c, ok := lineColors[timeClass]; ok {
		return c
	}
	return defaultLineColor
}

type RatingPoint struct {
	Date   string
	Rating int
	Result string
	Color  string
}

type RatingChart struct {
	TimeClass   string
	LineColor   string
	Points      []RatingPoint
	Placeholder string
	Extremes    stats.Extremes
}

// Empty reports whether the chart renders the placeholder.
func (c RatingChart) Empty() bool { return len(c.Points) == 0 }

// BuildRating builds the rating series from chronologically sorted games,
// keeping only timeClass ("" or "all" keeps every game).
func BuildRating(sorted []models.Game, timeClass string) RatingChart {
	if timeClass == "" {
		timeClass = stats.AllTimeClasses
	}
	filtered := stats.FilterByTimeClass(sorted, timeClass)
	c := RatingChart{
		TimeClass: timeClass,
		LineColor: LineColor(timeClass),
		Extremes:  stats.RatingExtremes(filtered),
	}
	if len(filtered) == 0 {
		c.Placeholder = PlaceholderText
		return c
	}
	c.Points = make([]RatingPoint, len(filtered))
	for i, g := range filtered {
		c.Points[i] = RatingPoint{
			Date:   g.Date,
			Rating: g.UserRating,
			Result: g.Result,
			Color:  ResultColor(g.Result),
		}
	}
	return c
}
