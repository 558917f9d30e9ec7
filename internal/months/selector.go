// Package months builds the year-grouped month selection tree.
package months

import (
	"sort"
	"time"

	"github.com/charlie0129/chess-stats-go/internal/format"
	"github.com/charlie0129/chess-stats-go/internal/models"
)

// UnknownYear groups month references whose URL carries no year/month.
const UnknownYear = 0

type Option struct {
	URL     string
	Label   string
	Year    int
	Month   int
	Checked bool
}

type YearGroup struct {
	Year     int
	Expanded bool
	Months   []*Option
}

// Selector is the month tree for one looked-up user.
type Selector struct {
	Years []*YearGroup
	byURL map[string]*Option
}

// Build groups refs by year. refs arrive newest-first; groups are ordered
// newest year first with months newest first, the current year expanded
// and only the most recent month checked.
// Repeated URLs yield a single option.
func Build(refs []models.MonthRef, now time.Time) *Selector {
	s := &Selector{byURL: make(map[string]*Option, len(refs))}

	ordered := make([]models.MonthRef, len(refs))
	for i, r := range refs {
		ordered[len(refs)-1-i] = r
	}

	groups := make(map[int]*YearGroup)
	for _, ref := range ordered {
		if _, dup := s.byURL[ref.URL]; dup {
			continue
		}
		year, month, err := format.ParseMonthURL(ref.URL)
		if err != nil {
			year, month = UnknownYear, 0
		}
		opt := &Option{URL: ref.URL, Label: ref.Label, Year: year, Month: month}
		if opt.Label == "" {
			opt.Label = format.MonthLabel(ref.URL)
		}
		g, ok := groups[year]
		if !ok {
			g = &YearGroup{Year: year, Expanded: year == now.Year()}
			groups[year] = g
			s.Years = append(s.Years, g)
		}
		g.Months = append(g.Months, opt)
		s.byURL[ref.URL] = opt
	}

	sort.SliceStable(s.Years, func(i, j int) bool {
		a, b := s.Years[i].Year, s.Years[j].Year
		if a == UnknownYear || b == UnknownYear {
			return b == UnknownYear && a != UnknownYear
		}
		return a > b
	})
	for _, g := range s.Years {
		sort.SliceStable(g.Months, func(i, j int) bool {
			return g.Months[i].Month > g.Months[j].Month
		})
	}

	if latest := s.latest(); latest != nil {
		latest.Checked = true
	}
	return s
}

func (s *Selector) latest() *Option {
	for _, g := range s.Years {
		if g.Year != UnknownYear && len(g.Months) > 0 {
			return g.Months[0]
		}
	}
	if len(s.Years) > 0 && len(s.Years[0].Months) > 0 {
		return s.Years[0].Months[0]
	}
	return nil
}

func (s *Selector) Empty() bool { return len(s.byURL) == 0 }

func (s *Selector) Len() int { return len(s.byURL) }

func (s *Selector) group(year int) *YearGroup {
	for _, g := range s.Years {
		if g.Year == year {
			return g
		}
	}
	return nil
}

func (s *Selector) setAll(checked bool) {
	for _, g := range s.Years {
		for _, m := range g.Months {
			m.Checked = checked
		}
	}
}

func (s *Selector) SelectAll()   { s.setAll(true) }
func (s *Selector) UnselectAll() { s.setAll(false) }

// SelectYear checks only the months of one year. It leaves the group's
// expanded state alone.
func (s *Selector) SelectYear(year int) bool { return s.setYear(year, true) }

func (s *Selector) UnselectYear(year int) bool { return s.setYear(year, false) }

func (s *Selector) setYear(year int, checked bool) bool {
	g := s.group(year)
	if g == nil {
		return false
	}
	for _, m := range g.Months {
		m.Checked = checked
	}
	return true
}

func (s *Selector) ToggleYear(year int) bool {
	g := s.group(year)
	if g == nil {
		return false
	}
	g.Expanded = !g.Expanded
	return true
}

// Set checks or unchecks a single month.
func (s *Selector) Set(url string, checked bool) bool {
	opt, ok := s.byURL[url]
	if !ok {
		return false
	}
	opt.Checked = checked
	return true
}

// SetSelected replaces the selection with urls; unknown urls are ignored.
func (s *Selector) SetSelected(urls []string) {
	s.UnselectAll()
	for _, u := range urls {
		s.Set(u, true)
	}
}

// Selected returns the checked URLs in display order.
func (s *Selector) Selected() []string {
	var out []string
	for _, g := range s.Years {
		for _, m := range g.Months {
			if m.Checked {
				out = append(out, m.URL)
			}
		}
	}
	return out
}
