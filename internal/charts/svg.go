package charts

import (
	"bytes"
	"fmt"
	"html"

	"github.com/charlie0129/chess-stats-go/internal/format"
)

const (
	ratingWidth   = 800
	ratingHeight  = 320
	ratingMarginL = 56
	ratingMarginR = 16
	ratingMarginT = 24
	ratingMarginB = 40

	cellSize       = 26
	heatMarginL    = 96
	heatMarginT    = 34
	heatMarginR    = 12
	heatMarginB    = 12
	cellGap        = 2
	labelBaselineY = 4
)

// label is a piece of text placed on the chart. SVG output carries it as a
// <text> element; PNG output draws it separately.
type label struct {
	X, Y int
	Text string
}

type svgDoc struct {
	buf    bytes.Buffer
	w, h   int
	labels []label
}

func newSVG(w, h int) *svgDoc {
	d := &svgDoc{w: w, h: h}
	fmt.Fprintf(&d.buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, w, h, w, h)
	fmt.Fprintf(&d.buf, `<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`, w, h)
	return d
}

func (d *svgDoc) text(x, y int, anchor, s string) {
	fmt.Fprintf(&d.buf, `<text x="%d" y="%d" font-family="sans-serif" font-size="11" fill="#333333" text-anchor="%s">%s</text>`,
		x, y, anchor, html.EscapeString(s))
	lx := x
	switch anchor {
	case "end":
		lx = x - 7*len(s)
	case "middle":
		lx = x - 7*len(s)/2
	}
	d.labels = append(d.labels, label{X: lx, Y: y, Text: s})
}

func (d *svgDoc) close() []byte {
	d.buf.WriteString(`</svg>`)
	return d.buf.Bytes()
}

// RatingSVG renders the rating line chart, or the placeholder when empty.
func RatingSVG(c RatingChart) ([]byte, []label) {
	d := newSVG(ratingWidth, ratingHeight)
	if c.Empty() {
		d.text(ratingWidth/2, ratingHeight/2, "middle", c.Placeholder)
		return d.close(), d.labels
	}

	plotW := ratingWidth - ratingMarginL - ratingMarginR
	plotH := ratingHeight - ratingMarginT - ratingMarginB
	lo, hi := c.Extremes.Min.Rating, c.Extremes.Max.Rating
	if hi == lo {
		lo -= 10
		hi += 10
	}

	xOf := func(i int) float64 {
		if len(c.Points) == 1 {
			return float64(ratingMarginL + plotW/2)
		}
		return float64(ratingMarginL) + float64(i)*float64(plotW)/float64(len(c.Points)-1)
	}
	yOf := func(r int) float64 {
		return float64(ratingMarginT) + float64(hi-r)*float64(plotH)/float64(hi-lo)
	}

	// axes
	fmt.Fprintf(&d.buf, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#cccccc" stroke-width="1"/>`,
		ratingMarginL, ratingMarginT, ratingMarginL, ratingMarginT+plotH)
	fmt.Fprintf(&d.buf, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#cccccc" stroke-width="1"/>`,
		ratingMarginL, ratingMarginT+plotH, ratingMarginL+plotW, ratingMarginT+plotH)

	d.buf.WriteString(`<polyline fill="none" stroke="` + c.LineColor + `" stroke-width="2" points="`)
	for i, p := range c.Points {
		if i > 0 {
			d.buf.WriteByte(' ')
		}
		fmt.Fprintf(&d.buf, "%.1f,%.1f", xOf(i), yOf(p.Rating))
	}
	d.buf.WriteString(`"/>`)

	for i, p := range c.Points {
		fmt.Fprintf(&d.buf, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"><title>%s</title></circle>`,
			xOf(i), yOf(p.Rating), p.Color,
			html.EscapeString(fmt.Sprintf("%s: %d (%s)", p.Date, p.Rating, format.ResultLabel(p.Result))))
	}

	d.text(ratingMarginL-6, ratingMarginT+labelBaselineY, "end", format.Rating(hi))
	d.text(ratingMarginL-6, ratingMarginT+plotH+labelBaselineY, "end", format.Rating(lo))
	d.text(ratingMarginL, ratingHeight-12, "start", format.ShortDate(c.Points[0].Date))
	d.text(ratingMarginL+plotW, ratingHeight-12, "end", format.ShortDate(c.Points[len(c.Points)-1].Date))
	return d.close(), d.labels
}

// HeatmapSVG renders the day x hour grid.
func HeatmapSVG(c HeatmapChart) ([]byte, []label) {
	w := heatMarginL + len(c.Hours)*cellSize + heatMarginR
	h := heatMarginT + len(c.Days)*cellSize + heatMarginB
	d := newSVG(w, h)

	for i, hour := range c.Hours {
		if i%3 != 0 {
			continue
		}
		d.text(heatMarginL+i*cellSize+cellSize/2, heatMarginT-10, "middle", fmt.Sprintf("%02d", hour))
	}
	for di, day := range c.Days {
		y := heatMarginT + di*cellSize
		d.text(heatMarginL-8, y+cellSize/2+labelBaselineY, "end", day)
		for hi, cell := range c.Cells[di] {
			x := heatMarginL + hi*cellSize
			fmt.Fprintf(&d.buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s"><title>%s</title></rect>`,
				x, y, cellSize-cellGap, cellSize-cellGap, cell.Shade,
				html.EscapeString(fmt.Sprintf("%s %s: %d", day, format.HourLabel(c.Hours[hi]), cell.Value)))
		}
	}
	return d.close(), d.labels
}
