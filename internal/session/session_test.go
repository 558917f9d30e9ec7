package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlie0129/chess-stats-go/internal/charts"
	"github.com/charlie0129/chess-stats-go/internal/client"
	"github.com/charlie0129/chess-stats-go/internal/models"
	"github.com/charlie0129/chess-stats-go/internal/stats"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeAPI struct {
	mu          sync.Mutex
	checkCalls  int
	gamesCalls  int
	heatCalls   int
	checkErr    error
	gamesErr    error
	heatErr     error
	checkBlock  chan struct{} // when set, CheckUsername waits on it
	downloadErr error
	lastFile    string
}

func (f *fakeAPI) CheckUsername(ctx context.Context, username string) (*models.CheckUsernameResponse, error) {
	f.mu.Lock()
	f.checkCalls++
	block := f.checkBlock
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	if username == "nobody" {
		return &models.CheckUsernameResponse{Exists: false, Error: "user not found on chess.com"}, nil
	}
	return &models.CheckUsernameResponse{
		Exists: true,
		Months: []models.MonthRef{
			{URL: "https://api.chess.com/pub/player/" + username + "/games/2024/02", Label: "February 2024"},
			{URL: "https://api.chess.com/pub/player/" + username + "/games/2024/01", Label: "January 2024"},
			{URL: "https://api.chess.com/pub/player/" + username + "/games/2023/12", Label: "December 2023"},
		},
		Profile: models.Profile{"username": username},
	}, nil
}

func (f *fakeAPI) FetchGames(ctx context.Context, username string, monthURLs []string) (*models.DownloadGamesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gamesCalls++
	if f.gamesErr != nil {
		return nil, f.gamesErr
	}
	data := []models.Game{
		{Date: "2024-01-03 10:00:00", Timestamp: 300, Result: models.ResultWin, TimeClass: "blitz", UserRating: 980, UserColor: models.ColorWhite},
		{Date: "2024-01-02 10:00:00", Timestamp: 200, Result: models.ResultLoss, TimeClass: "rapid", UserRating: 1050, UserColor: models.ColorBlack},
		{Date: "2024-01-01 10:00:00", Timestamp: 100, Result: models.ResultDraw, TimeClass: "blitz", UserRating: 1000, UserColor: models.ColorWhite},
	}
	return &models.DownloadGamesResponse{
		Success: true,
		Summary: models.Summary{TotalGames: 3, Wins: 1, Losses: 1, Draws: 1, AsWhite: 2, AsBlack: 1,
			CSVPath: "downloads/bob_games_20240101_000000.csv", JSONPath: "downloads/bob_games_20240101_000000.json"},
		Data: data,
	}, nil
}

func (f *fakeAPI) FetchHeatmap(ctx context.Context, username string, monthURLs []string) (*models.HeatmapResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heatCalls++
	if f.heatErr != nil {
		return nil, f.heatErr
	}
	grid := func() [][]int {
		m := make([][]int, 7)
		for i := range m {
			m[i] = make([]int, 24)
		}
		return m
	}
	d := &models.HeatmapData{
		Days:  []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		Hours: make([]int, 24),
		Wins:  grid(), Losses: grid(), Draws: grid(), Totals: grid(),
	}
	d.Totals[1][10] = 3
	return &models.HeatmapResponse{Success: true, HeatmapData: d}, nil
}

func (f *fakeAPI) DownloadFile(ctx context.Context, filename string) (*client.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFile = filename
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return &client.File{Name: filename, MimeType: "text/csv", Content: []byte("date\n")}, nil
}

func newTestController(api *fakeAPI) (*Controller, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)}
	c := NewController(api, WithClock(clock.Now), WithLocation(time.UTC), WithBannerTimeout(5*time.Second))
	return c, clock
}

func TestHappyPath(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestController(api)
	ctx := context.Background()
	require.Equal(t, Idle, c.State())

	require.NoError(t, c.SubmitUsername(ctx, "  bob "))
	require.Equal(t, MonthsReady, c.State())
	v := c.View()
	require.Equal(t, "bob", v.Username)
	require.Len(t, v.Years, 2)
	require.Equal(t, 2024, v.Years[0].Year)
	require.True(t, v.Years[0].Expanded)
	require.False(t, v.Years[1].Expanded)
	require.True(t, v.Years[0].Months[0].Checked, "latest month preselected")

	require.NoError(t, c.SubmitMonths(ctx))
	require.Equal(t, ResultsReady, c.State())
	require.Equal(t, 1, api.heatCalls)
	require.NotNil(t, c.RatingChart())
	require.NotNil(t, c.HeatmapChart())

	v = c.View()
	require.True(t, v.HasResults)
	require.True(t, v.HasHeatmap)
	require.Equal(t, 980, v.Rating.Extremes.Min.Rating)
	require.Equal(t, "2024-01-03 10:00:00", v.Rating.Extremes.Min.Date)
	require.Equal(t, 1050, v.Rating.Extremes.Max.Rating)
	require.Equal(t, "2024-01-02 10:00:00", v.Rating.Extremes.Max.Date)
	require.Equal(t, int64(300), v.Games[0].Timestamp, "table is newest first")
	require.Equal(t, []string{"blitz", "rapid"}, v.TimeClasses)
}

func TestZeroMonthsIsValidationWithoutNetwork(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestController(api)
	ctx := context.Background()

	require.NoError(t, c.SubmitUsername(ctx, "bob"))
	require.True(t, c.UnselectAll())

	err := c.SubmitMonths(ctx)
	var ve *client.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, 0, api.gamesCalls)
	require.Equal(t, Error, c.State())
	require.Equal(t, "select at least one month", c.View().Banner)

	c.DismissBanner()
	require.Equal(t, MonthsReady, c.State())
}

func TestIdenticalErrorsShownOnce(t *testing.T) {
	api := &fakeAPI{checkErr: &client.NetworkError{Op: "check username", Err: errors.New("timeout")}}
	c, clock := newTestController(api)
	ctx := context.Background()

	require.Error(t, c.SubmitUsername(ctx, "bob"))
	require.True(t, c.banner.Visible())
	shownAt := c.banner.shownAt

	clock.Advance(2 * time.Second)
	require.Error(t, c.SubmitUsername(ctx, "bob"))
	require.Equal(t, shownAt, c.banner.shownAt, "second identical error suppressed")

	clock.Advance(3 * time.Second)
	require.Equal(t, Idle, c.State(), "auto-hidden after the timeout")
	require.Empty(t, c.View().Banner)

	require.Error(t, c.SubmitUsername(ctx, "bob"))
	require.NotEqual(t, shownAt, c.banner.shownAt, "shown again once the window passed")
}

func TestErrorAutoHideResumesState(t *testing.T) {
	api := &fakeAPI{}
	c, clock := newTestController(api)
	ctx := context.Background()

	require.NoError(t, c.SubmitUsername(ctx, "bob"))
	api.gamesErr = &client.APIError{Op: "download games", Message: "no games found for the selected period"}
	require.Error(t, c.SubmitMonths(ctx))
	require.Equal(t, Error, c.State())
	require.Equal(t, "no games found for the selected period", c.View().Banner)

	clock.Advance(5 * time.Second)
	require.Equal(t, MonthsReady, c.State())
}

func TestUnknownUser(t *testing.T) {
	c, _ := newTestController(&fakeAPI{})
	err := c.SubmitUsername(context.Background(), "nobody")
	var ae *client.APIError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, Error, c.State())
	require.Equal(t, "user not found on chess.com", c.View().Banner)
}

func TestEmptyUsername(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestController(api)
	require.Error(t, c.SubmitUsername(context.Background(), "   "))
	require.Equal(t, 0, api.checkCalls)
	require.Equal(t, "enter a valid username", c.View().Banner)
}

func TestHeatmapFailureKeepsResults(t *testing.T) {
	api := &fakeAPI{heatErr: &client.APIError{Op: "heatmap data", Message: "could not fetch heatmap data"}}
	c, _ := newTestController(api)
	ctx := context.Background()

	require.NoError(t, c.SubmitUsername(ctx, "bob"))
	require.NoError(t, c.SubmitMonths(ctx))
	require.Equal(t, ResultsReady, c.State())
	v := c.View()
	require.True(t, v.HasResults)
	require.False(t, v.HasHeatmap)
	require.Equal(t, "could not fetch heatmap data", v.Banner)
	require.Nil(t, c.HeatmapChart())
}

func TestStaleResponseDropped(t *testing.T) {
	block := make(chan struct{})
	api := &fakeAPI{checkBlock: block}
	c, _ := newTestController(api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.SubmitUsername(ctx, "old") }()
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.checkCalls == 1
	}, time.Second, time.Millisecond)

	api.mu.Lock()
	api.checkBlock = nil
	api.mu.Unlock()
	require.NoError(t, c.SubmitUsername(ctx, "new"))

	close(block)
	require.ErrorIs(t, <-done, ErrSuperseded)
	require.Equal(t, "new", c.View().Username)
	require.Equal(t, MonthsReady, c.State())
}

func TestLocalInteractionsDisposeCharts(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestController(api)
	ctx := context.Background()

	require.NoError(t, c.SubmitUsername(ctx, "bob"))
	require.NoError(t, c.SubmitMonths(ctx))
	calls := api.gamesCalls + api.heatCalls

	first := c.RatingChart()
	require.NoError(t, c.SetTimeClass("rapid"))
	require.True(t, first.Closed(), "previous chart disposed on re-render")
	require.Len(t, c.View().Rating.Points, 1)

	require.NoError(t, c.SetTimeClass("bullet"))
	v := c.View()
	require.True(t, v.Rating.Empty())
	require.Equal(t, charts.PlaceholderText, v.Rating.Placeholder)

	heat := c.HeatmapChart()
	require.NoError(t, c.SelectMatrix("wins"))
	require.True(t, heat.Closed())
	require.Error(t, c.SelectMatrix("bogus"))

	require.NoError(t, c.SetTimeClass("all"))
	require.NoError(t, c.SetDateRange(1, 2))
	v = c.View()
	require.Len(t, v.Games, 2)
	require.False(t, v.RangeFull)

	require.ErrorIs(t, c.SetDateRange(2, 1), stats.ErrInvalidRange)
	v = c.View()
	require.Equal(t, 1, v.RangeStart)
	require.Equal(t, 2, v.RangeEnd)
	require.Equal(t, "the start of the range must not be after its end", v.Banner)
	require.Equal(t, ResultsReady, v.State)
	c.DismissBanner()

	require.NoError(t, c.ResetDateRange())
	require.True(t, c.View().RangeFull)

	require.Equal(t, calls, api.gamesCalls+api.heatCalls, "no network calls for local interactions")
	require.Equal(t, ResultsReady, c.State())

	before := c.Disposed()
	require.NoError(t, c.Close())
	require.Greater(t, c.Disposed(), before)
}

func TestDownload(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestController(api)
	ctx := context.Background()

	_, err := c.Download(ctx, "csv")
	require.ErrorIs(t, err, ErrNoResults)

	require.NoError(t, c.SubmitUsername(ctx, "bob"))
	require.NoError(t, c.SubmitMonths(ctx))

	f, err := c.Download(ctx, "csv")
	require.NoError(t, err)
	require.Equal(t, "bob_games_20240101_000000.csv", api.lastFile)
	require.Equal(t, "text/csv", f.MimeType)

	api.downloadErr = &client.DecodeError{Op: "download file", Err: errors.New("bad hex")}
	_, err = c.Download(ctx, "json")
	require.Error(t, err)
	require.Equal(t, "the downloaded file is corrupted", c.View().Banner)

	c.DismissBanner()
	require.Equal(t, ResultsReady, c.State())
}

func TestBanner(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	b := NewBanner(5*time.Second, clock.Now)

	require.False(t, b.Show(""))
	require.True(t, b.Show("boom"))
	require.Equal(t, "boom", b.Message())

	b.Dismiss()
	require.False(t, b.Visible())
	require.False(t, b.Show("boom"), "dismissing does not reset the dedupe window")
	require.True(t, b.Show("other"))
	require.Equal(t, "other", b.Message())

	clock.Advance(5 * time.Second)
	require.Empty(t, b.Message())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "results_ready", ResultsReady.String())
	require.Equal(t, "state(42)", State(42).String())
}

func TestUserMessageDecodeErrors(t *testing.T) {
	bad := errors.New("unexpected end of JSON input")
	require.Equal(t, "the downloaded file is corrupted",
		UserMessage(&client.DecodeError{Op: client.OpDownloadFile, Err: bad}))
	for _, op := range []string{"check username", "download games", "heatmap data"} {
		require.Equal(t, "the server sent an invalid response",
			UserMessage(&client.DecodeError{Op: op, Err: bad}), op)
	}
}
