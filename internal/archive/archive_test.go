package archive

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlie0129/chess-stats-go/internal/chesscom"
	"github.com/charlie0129/chess-stats-go/internal/database"
)

type fakeUpstream struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{calls: map[string]int{}, fail: map[string]bool{}}
}

func (f *fakeUpstream) GetMonthGames(_ context.Context, u string) ([]chesscom.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[u]++
	if f.fail[u] {
		return nil, &chesscom.StatusError{URL: u, Code: 500}
	}
	return []chesscom.Game{{URL: u + "#1"}, {URL: u + "#2"}}, nil
}

func (f *fakeUpstream) MonthURL(username string, year, month int) string {
	return fmt.Sprintf("https://api.chess.com/pub/player/%s/games/%d/%02d", strings.ToLower(username), year, month)
}

func (f *fakeUpstream) count(u string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[u]
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGamesUsesCacheForCompletedMonths(t *testing.T) {
	up := newFakeUpstream()
	db := newTestDB(t)
	f := NewFetcher(up, db, 2, time.UTC)
	f.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	past := up.MonthURL("bob", 2024, 2)
	current := up.MonthURL("bob", 2024, 3)
	ctx := context.Background()

	games, info, err := f.Games(ctx, "bob", []string{past, current})
	require.NoError(t, err)
	require.Len(t, games, 4)
	require.Equal(t, 0, info.MonthsFromCache)
	require.Equal(t, 2, info.MonthsFromAPI)

	games, info, err = f.Games(ctx, "bob", []string{past, current})
	require.NoError(t, err)
	require.Len(t, games, 4)
	require.Equal(t, 1, info.MonthsFromCache)
	require.Equal(t, 1, info.MonthsFromAPI)
	require.Equal(t, 1, up.count(past))
	require.Equal(t, 2, up.count(current))
}

func TestGamesSkipsFailedMonth(t *testing.T) {
	up := newFakeUpstream()
	f := NewFetcher(up, newTestDB(t), 4, time.UTC)

	bad := up.MonthURL("bob", 2023, 1)
	good := up.MonthURL("bob", 2023, 2)
	up.fail[bad] = true

	games, info, err := f.Games(context.Background(), "bob", []string{bad, good})
	require.NoError(t, err)
	require.Len(t, games, 2)
	require.Equal(t, 1, info.MonthsFromAPI)

	_, _, err = f.Games(context.Background(), "bob", []string{bad})
	require.True(t, errors.Is(err, ErrNoMonths))
}

func TestGamesFallsBackToStaleCache(t *testing.T) {
	up := newFakeUpstream()
	db := newTestDB(t)
	f := NewFetcher(up, db, 1, time.UTC)
	f.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	current := up.MonthURL("bob", 2024, 3)
	_, _, err := f.Games(context.Background(), "bob", []string{current})
	require.NoError(t, err)

	up.fail[current] = true
	games, info, err := f.Games(context.Background(), "bob", []string{current})
	require.NoError(t, err)
	require.Len(t, games, 2)
	require.Equal(t, 1, info.MonthsFromCache)
}

type fakePruner struct{ before time.Time }

func (p *fakePruner) Prune(before time.Time) (int, error) {
	p.before = before
	return 0, nil
}

func TestSchedulerRunOnce(t *testing.T) {
	up := newFakeUpstream()
	db := newTestDB(t)
	f := NewFetcher(up, db, 1, time.UTC)
	require.NoError(t, db.RecordLookup("bob", time.Now()))
	require.NoError(t, db.RecordLookup("ghost", time.Now().Add(-30*24*time.Hour)))

	pruner := &fakePruner{}
	s := NewScheduler(f, db, pruner, SchedulerConfig{
		Schedule:  "0 */6 * * *",
		Window:    7 * 24 * time.Hour,
		Retention: time.Hour,
		Location:  time.UTC,
	})
	s.RunOnce(context.Background())

	now := time.Now().In(time.UTC)
	require.Equal(t, 1, up.count(up.MonthURL("bob", now.Year(), int(now.Month()))))
	require.Equal(t, 0, up.count(up.MonthURL("ghost", now.Year(), int(now.Month()))))
	require.False(t, pruner.before.IsZero())

	n, err := db.CountArchives("bob")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestSchedulerBadScheduleFallsBack(t *testing.T) {
	s := NewScheduler(NewFetcher(newFakeUpstream(), newTestDB(t), 1, time.UTC), newTestDB(t), &fakePruner{}, SchedulerConfig{
		Schedule: "not a cron",
		Location: time.UTC,
	})
	s.Start()
	s.Stop()
}

func TestGamesRejectsForeignMonthURLs(t *testing.T) {
	up := newFakeUpstream()
	db := newTestDB(t)
	f := NewFetcher(up, db, 2, time.UTC)
	f.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	foreign := []string{
		"http://127.0.0.1:8080/internal/secret/2024/02",
		up.MonthURL("alice", 2024, 2),
	}
	_, _, err := f.Games(context.Background(), "bob", foreign)
	require.ErrorIs(t, err, ErrNoMonths)
	for _, u := range foreign {
		require.Zero(t, up.count(u))
	}
	n, err := db.CountArchives("bob")
	require.NoError(t, err)
	require.Zero(t, n)

	games, _, err := f.Games(context.Background(), "Bob", []string{up.MonthURL("bob", 2024, 2)})
	require.NoError(t, err)
	require.Len(t, games, 2)
}
