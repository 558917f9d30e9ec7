package session

import (
	"time"

	"github.com/charlie0129/chess-stats-go/internal/charts"
	"github.com/charlie0129/chess-stats-go/internal/games"
	"github.com/charlie0129/chess-stats-go/internal/models"
	"github.com/charlie0129/chess-stats-go/internal/months"
	"github.com/charlie0129/chess-stats-go/internal/stats"
)

// Store is the session snapshot: the looked-up user, the month tree and
// the last loaded results. Everything is replaced wholesale on the next
// username or month submission.
type Store struct {
	Username string
	Profile  models.Profile
	Selector *months.Selector

	Games     []models.Game // as received, newest first
	Sorted    []models.Game // chronological
	Summary   *models.Summary
	TimeClass string
	Range     stats.DateRange
	Heatmap   *models.HeatmapData // as fetched, full range
	Matrix    charts.Matrix
}

func (s *Store) resetUser() {
	*s = Store{}
}

func (s *Store) resetResults() {
	s.Games, s.Sorted, s.Summary, s.Heatmap = nil, nil, nil, nil
	s.TimeClass = stats.AllTimeClasses
	s.Range = stats.DateRange{}
	s.Matrix = charts.MatrixTotal
}

func (s *Store) loadGames(summary models.Summary, data []models.Game) {
	s.resetResults()
	s.Games = data
	s.Sorted = stats.SortChronological(data)
	s.Summary = &summary
	s.Range = stats.NewDateRange(len(s.Sorted))
}

func (s *Store) HasResults() bool { return s.Summary != nil }

// Visible is the chronological slice selected by the date range.
func (s *Store) Visible() []models.Game {
	return s.Range.Slice(s.Sorted)
}

// HeatmapView is the fetched heatmap for the full range, or one rebuilt
// from the visible games when the range is narrowed.
func (s *Store) HeatmapView(loc *time.Location) *models.HeatmapData {
	if s.Heatmap == nil {
		return nil
	}
	if s.Range.Full() {
		return s.Heatmap
	}
	d := games.BuildHeatmap(s.Visible(), loc)
	return &d
}
