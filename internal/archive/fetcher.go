// Package archive fetches monthly game archives through the sqlite cache
// and keeps recently looked-up users fresh.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/charlie0129/chess-stats-go/internal/chesscom"
	"github.com/charlie0129/chess-stats-go/internal/database"
	"github.com/charlie0129/chess-stats-go/internal/format"
	"github.com/charlie0129/chess-stats-go/internal/models"
)

// ErrNoMonths is returned when every requested month failed to load.
var ErrNoMonths = errors.New("no month could be fetched")

// Upstream is the part of the chess.com client the fetcher needs.
type Upstream interface {
	GetMonthGames(ctx context.Context, archiveURL string) ([]chesscom.Game, error)
	MonthURL(username string, year, month int) string
}

type Store interface {
	GetArchive(url string) (*database.Archive, error)
	UpsertArchive(a *database.Archive) error
}

type Fetcher struct {
	upstream Upstream
	store    Store
	workers  int
	loc      *time.Location
	now      func() time.Time
}

func NewFetcher(upstream Upstream, store Store, workers int, loc *time.Location) *Fetcher {
	if workers <= 0 {
		workers = 1
	}
	if loc == nil {
		loc = time.Local
	}
	return &Fetcher{upstream: upstream, store: store, workers: workers, loc: loc, now: time.Now}
}

type monthResult struct {
	games     []chesscom.Game
	fromCache bool
	ok        bool
}

// Games loads every requested month. Completed months come from the cache
// when present; the current month is always refetched. A month that fails
// is logged and skipped.
func (f *Fetcher) Games(ctx context.Context, username string, monthURLs []string) ([]chesscom.Game, models.CacheInfo, error) {
	results := make([]monthResult, len(monthURLs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)
	for i, u := range monthURLs {
		g.Go(func() error {
			results[i] = f.month(gctx, username, u)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, models.CacheInfo{}, err
	}

	var (
		all  []chesscom.Game
		info models.CacheInfo
		ok   int
	)
	for _, r := range results {
		if !r.ok {
			continue
		}
		ok++
		if r.fromCache {
			info.MonthsFromCache++
		} else {
			info.MonthsFromAPI++
		}
		all = append(all, r.games...)
	}
	if ok == 0 && len(monthURLs) > 0 {
		return nil, info, ErrNoMonths
	}
	return all, info, nil
}

func (f *Fetcher) month(ctx context.Context, username, archiveURL string) monthResult {
	year, month, err := format.ParseMonthURL(archiveURL)
	if err != nil {
		slog.Warn("skipping malformed month url", "url", archiveURL, "error", err)
		return monthResult{}
	}
	// Only the user's own archive on the configured host is ever fetched.
	canonical := f.upstream.MonthURL(username, year, month)
	if !strings.EqualFold(archiveURL, canonical) {
		slog.Warn("skipping foreign month url", "url", archiveURL, "username", username)
		return monthResult{}
	}
	archiveURL = canonical

	cached, err := f.store.GetArchive(archiveURL)
	if err != nil {
		slog.Error("failed to read archive cache", "url", archiveURL, "error", err)
	}
	if cached != nil && f.completed(year, month) {
		return monthResult{games: cached.Games, fromCache: true, ok: true}
	}

	games, err := f.upstream.GetMonthGames(ctx, archiveURL)
	if err != nil {
		slog.Error("failed to fetch month", "url", archiveURL, "error", err)
		if cached != nil {
			return monthResult{games: cached.Games, fromCache: true, ok: true}
		}
		return monthResult{}
	}

	err = f.store.UpsertArchive(&database.Archive{
		URL:       archiveURL,
		Username:  strings.ToLower(username),
		Year:      year,
		Month:     month,
		Games:     games,
		FetchedAt: f.now(),
	})
	if err != nil {
		slog.Error("failed to cache month", "url", archiveURL, "error", err)
	}
	return monthResult{games: games, ok: true}
}

// completed reports whether the month lies strictly before the current one.
func (f *Fetcher) completed(year, month int) bool {
	now := f.now().In(f.loc)
	if year != now.Year() {
		return year < now.Year()
	}
	return month < int(now.Month())
}

// RefreshCurrent refetches the running month of one user into the cache.
func (f *Fetcher) RefreshCurrent(ctx context.Context, username string) error {
	now := f.now().In(f.loc)
	u := f.upstream.MonthURL(username, now.Year(), int(now.Month()))

	games, err := f.upstream.GetMonthGames(ctx, u)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", u, err)
	}
	return f.store.UpsertArchive(&database.Archive{
		URL:       u,
		Username:  strings.ToLower(username),
		Year:      now.Year(),
		Month:     int(now.Month()),
		Games:     games,
		FetchedAt: now,
	})
}
