package charts

import (
	"errors"
	"image"
	"sync"
)

var ErrChartClosed = errors.New("chart already disposed")

// Chart is a rendered chart. It owns its raster buffer and must be closed
// once replaced.
type Chart struct {
	Kind string

	mu     sync.Mutex
	svg    []byte
	labels []label
	w, h   int
	raster *image.RGBA
	png    []byte
	closed bool
}

func newChart(kind string, svg []byte, labels []label, w, h int) *Chart {
	return &Chart{Kind: kind, svg: svg, labels: labels, w: w, h: h}
}

// NewRatingChart renders a rating chart view-model.
func NewRatingChart(c RatingChart) *Chart {
	svg, labels := RatingSVG(c)
	return newChart("rating", svg, labels, ratingWidth, ratingHeight)
}

// NewHeatmapChart renders a heatmap view-model.
func NewHeatmapChart(c HeatmapChart) *Chart {
	svg, labels := HeatmapSVG(c)
	w := heatMarginL + len(c.Hours)*cellSize + heatMarginR
	h := heatMarginT + len(c.Days)*cellSize + heatMarginB
	return newChart("heatmap", svg, labels, w, h)
}

func (c *Chart) SVG() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrChartClosed
	}
	return c.svg, nil
}

// PNG rasterizes on first use and caches the encoded image.
func (c *Chart) PNG() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrChartClosed
	}
	if c.png != nil {
		return c.png, nil
	}
	img, err := rasterize(c.svg, c.labels, c.w, c.h)
	if err != nil {
		return nil, err
	}
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	c.raster, c.png = img, data
	return c.png, nil
}

func (c *Chart) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close releases the chart's buffers. Closing twice is a no-op.
func (c *Chart) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.svg, c.labels, c.raster, c.png = nil, nil, nil, nil
	return nil
}

// Slot holds at most one live chart. Every replacement disposes the
// previous chart before the new one becomes visible.
type Slot struct {
	mu       sync.Mutex
	cur      *Chart
	disposed int
}

func (s *Slot) Replace(c *Chart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur != nil && s.cur != c {
		s.cur.Close()
		s.disposed++
	}
	s.cur = c
}

func (s *Slot) Current() *Chart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Disposed counts charts closed by this slot.
func (s *Slot) Disposed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Close disposes the current chart and empties the slot.
func (s *Slot) Close() error {
	s.Replace(nil)
	return nil
}
