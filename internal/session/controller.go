// Package session drives one user's view: the username -> months ->
// results state machine, the session store, chart lifecycles and the
// error banner.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charlie0129/chess-stats-go/internal/charts"
	"github.com/charlie0129/chess-stats-go/internal/client"
	"github.com/charlie0129/chess-stats-go/internal/models"
	"github.com/charlie0129/chess-stats-go/internal/months"
	"github.com/charlie0129/chess-stats-go/internal/stats"
)

type State int

const (
	Idle State = iota
	CheckingUser
	MonthsReady
	FetchingGames
	ResultsReady
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case CheckingUser:
		return "checking_user"
	case MonthsReady:
		return "months_ready"
	case FetchingGames:
		return "fetching_games"
	case ResultsReady:
		return "results_ready"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) inFlight() bool { return s == CheckingUser || s == FetchingGames }

var (
	// ErrSuperseded is returned when a newer action started while a
	// response was in flight. The stale response is dropped.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrNoResults is returned by result interactions before any games
	// were loaded.
	ErrNoResults = errors.New("no results loaded")
)

// API is the backend surface the controller calls; *client.Client
// satisfies it.
type API interface {
	CheckUsername(ctx context.Context, username string) (*models.CheckUsernameResponse, error)
	FetchGames(ctx context.Context, username string, monthURLs []string) (*models.DownloadGamesResponse, error)
	FetchHeatmap(ctx context.Context, username string, monthURLs []string) (*models.HeatmapResponse, error)
	DownloadFile(ctx context.Context, filename string) (*client.File, error)
}

type Controller struct {
	api    API
	loc    *time.Location
	now    func() time.Time
	banner *Banner

	// mu guards everything below and is never held across an API call.
	mu     sync.Mutex
	state  State
	resume State // where Error returns to
	seq    uint64
	store  Store
	rating charts.Slot
	heat   charts.Slot
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithBannerTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.banner.timeout = d
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(c *Controller) { c.loc = loc }
}

func NewController(api API, opts ...Option) *Controller {
	c := &Controller{
		api:    api,
		loc:    time.Local,
		now:    time.Now,
		banner: NewBanner(DefaultBannerTimeout, nil),
		state:  Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.banner.now = c.now
	c.store.resetResults()
	return c
}

// UserMessage turns any controller error into the banner text.
func UserMessage(err error) string {
	var (
		ve *client.ValidationError
		ae *client.APIError
		ne *client.NetworkError
		de *client.DecodeError
	)
	switch {
	case err == nil, errors.Is(err, ErrSuperseded):
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ae):
		return ae.Message
	case errors.As(err, &ne):
		return "could not reach the server, check your connection and try again"
	case errors.As(err, &de):
		if de.Op == client.OpDownloadFile {
			return "the downloaded file is corrupted"
		}
		return "the server sent an invalid response"
	case errors.Is(err, stats.ErrInvalidRange):
		return "the start of the range must not be after its end"
	default:
		return err.Error()
	}
}

// settle leaves Error once the banner is gone. Callers hold mu.
func (c *Controller) settle() {
	if c.state == Error && !c.banner.Visible() {
		c.state = c.resume
	}
}

// interactive is the state to come back to if the next action fails
// validation. Callers hold mu.
func (c *Controller) interactive() State {
	c.settle()
	switch {
	case c.state == Error:
		return c.resume
	case c.state.inFlight():
		if c.store.HasResults() {
			return ResultsReady
		}
		if c.store.Selector != nil {
			return MonthsReady
		}
		return Idle
	default:
		return c.state
	}
}

// fail shows err on the banner and enters Error. Callers hold mu.
func (c *Controller) fail(err error, resume State) error {
	msg := UserMessage(err)
	if c.banner.Show(msg) {
		slog.Info("showing error banner", "message", msg, "error", err)
	}
	c.state, c.resume = Error, resume
	return err
}

// begin starts an in-flight action and returns its sequence number.
// Callers hold mu.
func (c *Controller) begin(s State) uint64 {
	c.seq++
	c.state = s
	return c.seq
}

func (c *Controller) clearCharts() {
	c.rating.Replace(nil)
	c.heat.Replace(nil)
}

// SubmitUsername looks up username and builds the month tree.
func (c *Controller) SubmitUsername(ctx context.Context, username string) error {
	c.mu.Lock()
	username = strings.TrimSpace(username)
	if username == "" {
		err := c.fail(&client.ValidationError{Message: "enter a valid username"}, c.interactive())
		c.mu.Unlock()
		return err
	}
	id := c.begin(CheckingUser)
	c.store.resetUser()
	c.store.resetResults()
	c.clearCharts()
	c.mu.Unlock()

	resp, err := c.api.CheckUsername(ctx, username)

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.seq {
		return ErrSuperseded
	}
	if err != nil {
		return c.fail(err, Idle)
	}
	if !resp.Exists {
		msg := resp.Error
		if msg == "" {
			msg = "user not found"
		}
		return c.fail(&client.APIError{Op: "check username", Message: msg}, Idle)
	}

	c.store.Username = username
	c.store.Profile = resp.Profile
	c.store.Selector = months.Build(resp.Months, c.now().In(c.loc))
	c.state = MonthsReady
	return nil
}

// withSelector runs fn on the month tree. It reports false when no user
// has been looked up yet.
func (c *Controller) withSelector(fn func(s *months.Selector) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store.Selector == nil {
		return false
	}
	return fn(c.store.Selector)
}

func (c *Controller) SelectAll() bool {
	return c.withSelector(func(s *months.Selector) bool { s.SelectAll(); return true })
}

func (c *Controller) UnselectAll() bool {
	return c.withSelector(func(s *months.Selector) bool { s.UnselectAll(); return true })
}

func (c *Controller) SelectYear(year int) bool {
	return c.withSelector(func(s *months.Selector) bool { return s.SelectYear(year) })
}

func (c *Controller) UnselectYear(year int) bool {
	return c.withSelector(func(s *months.Selector) bool { return s.UnselectYear(year) })
}

func (c *Controller) ToggleYear(year int) bool {
	return c.withSelector(func(s *months.Selector) bool { return s.ToggleYear(year) })
}

// SetSelected replaces the checked months with urls.
func (c *Controller) SetSelected(urls []string) bool {
	return c.withSelector(func(s *months.Selector) bool { s.SetSelected(urls); return true })
}

// SubmitMonths fetches the games of the checked months, then the heatmap.
// A heatmap failure only raises the banner; the results stay.
func (c *Controller) SubmitMonths(ctx context.Context) error {
	c.mu.Lock()
	if c.store.Selector == nil {
		err := c.fail(&client.ValidationError{Message: "enter a username first"}, c.interactive())
		c.mu.Unlock()
		return err
	}
	selected := c.store.Selector.Selected()
	if len(selected) == 0 {
		err := c.fail(&client.ValidationError{Message: "select at least one month"}, c.interactive())
		c.mu.Unlock()
		return err
	}
	username := c.store.Username
	id := c.begin(FetchingGames)
	c.store.resetResults()
	c.clearCharts()
	c.mu.Unlock()

	resp, err := c.api.FetchGames(ctx, username, selected)

	c.mu.Lock()
	if id != c.seq {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		err = c.fail(err, MonthsReady)
		c.mu.Unlock()
		return err
	}
	c.store.loadGames(resp.Summary, resp.Data)
	c.renderRating()
	c.state = ResultsReady
	c.mu.Unlock()

	hresp, err := c.api.FetchHeatmap(ctx, username, selected)

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.seq {
		return ErrSuperseded
	}
	if err != nil {
		msg := UserMessage(err)
		c.banner.Show(msg)
		slog.Warn("heatmap fetch failed", "username", username, "error", err)
		return nil
	}
	c.store.Heatmap = hresp.HeatmapData
	c.renderHeatmap()
	return nil
}

// renderRating rebuilds the rating chart, disposing the old one.
// Callers hold mu.
func (c *Controller) renderRating() {
	c.rating.Replace(charts.NewRatingChart(charts.BuildRating(c.store.Visible(), c.store.TimeClass)))
}

// renderHeatmap rebuilds the heatmap, disposing the old one. Callers hold mu.
func (c *Controller) renderHeatmap() {
	data := c.store.HeatmapView(c.loc)
	if data == nil {
		c.heat.Replace(nil)
		return
	}
	hc, err := charts.BuildHeatmap(data, c.store.Matrix)
	if err != nil {
		slog.Error("failed to build heatmap", "error", err)
		c.heat.Replace(nil)
		return
	}
	c.heat.Replace(charts.NewHeatmapChart(hc))
}

// results runs a local results interaction under mu.
func (c *Controller) results(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settle()
	if !c.store.HasResults() {
		return ErrNoResults
	}
	return fn()
}

// SetTimeClass filters the rating chart; "all" or "" keeps every game.
func (c *Controller) SetTimeClass(tc string) error {
	return c.results(func() error {
		if tc == "" {
			tc = stats.AllTimeClasses
		}
		c.store.TimeClass = tc
		c.renderRating()
		return nil
	})
}

// SetDateRange narrows both charts to the inclusive chronological index
// range. An invalid range is rejected with a banner and the previous one
// kept; the state stays ResultsReady.
func (c *Controller) SetDateRange(start, end int) error {
	return c.results(func() error {
		if err := c.store.Range.Set(start, end); err != nil {
			c.banner.Show(UserMessage(err))
			return err
		}
		c.renderRating()
		c.renderHeatmap()
		return nil
	})
}

func (c *Controller) ResetDateRange() error {
	return c.results(func() error {
		c.store.Range.Reset()
		c.renderRating()
		c.renderHeatmap()
		return nil
	})
}

// SelectMatrix switches the heatmap to another already fetched matrix.
func (c *Controller) SelectMatrix(name string) error {
	m, err := charts.ParseMatrix(name)
	if err != nil {
		return err
	}
	return c.results(func() error {
		c.store.Matrix = m
		c.renderHeatmap()
		return nil
	})
}

// Download fetches the csv or json export of the loaded results.
func (c *Controller) Download(ctx context.Context, kind string) (*client.File, error) {
	c.mu.Lock()
	c.settle()
	if !c.store.HasResults() {
		c.mu.Unlock()
		return nil, ErrNoResults
	}
	var p string
	switch kind {
	case "csv":
		p = c.store.Summary.CSVPath
	case "json":
		p = c.store.Summary.JSONPath
	default:
		err := c.fail(&client.ValidationError{Message: fmt.Sprintf("unknown download format %q", kind)}, c.interactive())
		c.mu.Unlock()
		return nil, err
	}
	id := c.seq
	c.mu.Unlock()

	var name string
	if p != "" {
		name = path.Base(filepath.ToSlash(p))
	}
	file, err := c.api.DownloadFile(ctx, name)

	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.seq {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, c.fail(err, c.interactive())
	}
	return file, nil
}

func (c *Controller) DismissBanner() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.banner.Dismiss()
	c.settle()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settle()
	return c.state
}

// RatingChart returns the live rating chart, or nil.
func (c *Controller) RatingChart() *charts.Chart { return c.rating.Current() }

// HeatmapChart returns the live heatmap chart, or nil.
func (c *Controller) HeatmapChart() *charts.Chart { return c.heat.Current() }

// Disposed reports how many charts have been released so far.
func (c *Controller) Disposed() int { return c.rating.Disposed() + c.heat.Disposed() }

// Close disposes every chart.
func (c *Controller) Close() error {
	c.rating.Close()
	c.heat.Close()
	return nil
}
