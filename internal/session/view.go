package session

import (
	"github.com/charlie0129/chess-stats-go/internal/charts"
	"github.com/charlie0129/chess-stats-go/internal/models"
	"github.com/charlie0129/chess-stats-go/internal/months"
	"github.com/charlie0129/chess-stats-go/internal/stats"
)

// View is a copy of everything a page needs, safe to use after the
// controller lock is released.
type View struct {
	State    State
	Banner   string
	Username string
	Profile  models.Profile
	Years    []months.YearGroup

	HasResults  bool
	Summary     models.Summary
	Percent     stats.Percentages
	TimeClass   string
	TimeClasses []string
	ByTimeClass []stats.TimeClassStat
	Rating      charts.RatingChart

	RangeStart, RangeEnd, RangeLen int
	RangeFull                      bool
	RangeFrom, RangeTo             string // dates at the range bounds

	Matrix     charts.Matrix
	HasHeatmap bool

	// Games in the date range, newest first.
	Games []models.Game
}

func copyYears(s *months.Selector) []months.YearGroup {
	if s == nil {
		return nil
	}
	out := make([]months.YearGroup, len(s.Years))
	for i, g := range s.Years {
		cp := months.YearGroup{Year: g.Year, Expanded: g.Expanded, Months: make([]*months.Option, len(g.Months))}
		for j, m := range g.Months {
			o := *m
			cp.Months[j] = &o
		}
		out[i] = cp
	}
	return out
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settle()

	s := &c.store
	v := View{
		State:    c.state,
		Banner:   c.banner.Message(),
		Username: s.Username,
		Profile:  s.Profile,
		Years:    copyYears(s.Selector),
	}
	if !s.HasResults() {
		return v
	}

	visible := s.Visible()
	v.HasResults = true
	v.Summary = *s.Summary
	v.Percent = stats.Percent(v.Summary)
	v.TimeClass = s.TimeClass
	v.TimeClasses = stats.TimeClasses(s.Sorted)
	v.ByTimeClass = stats.ByTimeClass(visible)
	v.Rating = charts.BuildRating(visible, s.TimeClass)
	v.RangeStart, v.RangeEnd, v.RangeLen = s.Range.Start(), s.Range.End(), s.Range.Len()
	v.RangeFull = s.Range.Full()
	if len(visible) > 0 {
		v.RangeFrom = visible[0].Date
		v.RangeTo = visible[len(visible)-1].Date
	}
	v.Matrix = s.Matrix
	v.HasHeatmap = s.Heatmap != nil

	v.Games = make([]models.Game, len(visible))
	for i, g := range visible {
		v.Games[len(visible)-1-i] = g
	}
	return v
}
