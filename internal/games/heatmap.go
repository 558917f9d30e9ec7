package games

import (
	"time"

	"github.com/charlie0129/chess-stats-go/internal/models"
)

// Weekdays are the heatmap row labels, indexed by time.Weekday.
var Weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func newMatrix() [][]int {
	m := make([][]int, len(Weekdays))
	for i := range m {
		m[i] = make([]int, 24)
	}
	return m
}

// BuildHeatmap counts games per weekday and hour of their end time in loc.
func BuildHeatmap(games []models.Game, loc *time.Location) models.HeatmapData {
	d := models.HeatmapData{
		Days:   append([]string(nil), Weekdays...),
		Hours:  make([]int, 24),
		Wins:   newMatrix(),
		Losses: newMatrix(),
		Draws:  newMatrix(),
		Totals: newMatrix(),
	}
	for h := range d.Hours {
		d.Hours[h] = h
	}

	for _, g := range games {
		t := time.Unix(g.Timestamp, 0).In(loc)
		day, hour := int(t.Weekday()), t.Hour()
		switch g.Result {
		case models.ResultWin:
			d.Wins[day][hour]++
		case models.ResultLoss:
			d.Losses[day][hour]++
		default:
			d.Draws[day][hour]++
		}
		d.Totals[day][hour]++
	}
	return d
}
