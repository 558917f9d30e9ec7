package stats

import (
	"errors"
	"fmt"

	"github.com/charlie0129/chess-stats-go/internal/models"
)

var ErrInvalidRange = errors.New("invalid date range")

// DateRange is an inclusive index pair into a chronologically sorted game
// slice. The zero value covers nothing; use NewDateRange.
type DateRange struct {
	start, end int
	n          int
}

// NewDateRange covers all n games.
func NewDateRange(n int) DateRange {
	r := DateRange{n: n}
	r.Reset()
	return r
}

func (r DateRange) Start() int { return r.start }
func (r DateRange) End() int   { return r.end }
func (r DateRange) Len() int   { return r.n }

// Full reports whether the range spans every game.
func (r DateRange) Full() bool {
	return r.n == 0 || (r.start == 0 && r.end == r.n-1)
}

// Set moves the range. On error the previous range is kept.
func (r *DateRange) Set(start, end int) error {
	if r.n == 0 {
		return fmt.Errorf("%w: no games loaded", ErrInvalidRange)
	}
	if start > end {
		return fmt.Errorf("%w: start %d after end %d", ErrInvalidRange, start, end)
	}
	if start < 0 || end > r.n-1 {
		return fmt.Errorf("%w: [%d, %d] outside [0, %d]", ErrInvalidRange, start, end, r.n-1)
	}
	r.start, r.end = start, end
	return nil
}

func (r *DateRange) Reset() {
	r.start = 0
	r.end = r.n - 1
	if r.end < 0 {
		r.end = 0
	}
}

// Slice returns the contiguous sub-slice covered by the range.
func (r DateRange) Slice(sorted []models.Game) []models.Game {
	if len(sorted) == 0 || r.n == 0 {
		return nil
	}
	end := r.end
	if end > len(sorted)-1 {
		end = len(sorted) - 1
	}
	if r.start > end {
		return nil
	}
	return sorted[r.start : end+1]
}
