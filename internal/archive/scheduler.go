package archive

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Lookups interface {
	RecentLookups(since time.Time) ([]string, error)
}

type Pruner interface {
	Prune(before time.Time) (int, error)
}

type Scheduler struct {
	fetcher   *Fetcher
	lookups   Lookups
	pruner    Pruner
	schedule  string
	window    time.Duration
	retention time.Duration
	loc       *time.Location

	cron   *cron.Cron
	cancel context.CancelFunc
}

type SchedulerConfig struct {
	Schedule  string // cron expression
	Window    time.Duration
	Retention time.Duration
	Location  *time.Location
}

func NewScheduler(fetcher *Fetcher, lookups Lookups, pruner Pruner, cfg SchedulerConfig) *Scheduler {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		fetcher:   fetcher,
		lookups:   lookups,
		pruner:    pruner,
		schedule:  cfg.Schedule,
		window:    cfg.Window,
		retention: cfg.Retention,
		loc:       loc,
	}
}

func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.cron = cron.New(cron.WithLocation(s.loc))
	_, err := s.cron.AddFunc(s.schedule, func() {
		slog.Info("running scheduled refresh", "schedule", s.schedule)
		s.RunOnce(ctx)
	})
	if err != nil {
		slog.Error("failed to add cron job, falling back to 6h ticker", "schedule", s.schedule, "error", err)
		go func() {
			ticker := time.NewTicker(6 * time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.RunOnce(ctx)
				}
			}
		}()
		return
	}

	slog.Info("scheduled archive refresh", "schedule", s.schedule, "timezone", s.loc.String())
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunOnce refreshes recent users and prunes expired exports.
func (s *Scheduler) RunOnce(ctx context.Context) {
	now := time.Now()

	users, err := s.lookups.RecentLookups(now.Add(-s.window))
	if err != nil {
		slog.Error("failed to list recent lookups", "error", err)
	}
	refreshed := 0
	for _, u := range users {
		if ctx.Err() != nil {
			return
		}
		if err := s.fetcher.RefreshCurrent(ctx, u); err != nil {
			slog.Error("failed to refresh current month", "username", u, "error", err)
			continue
		}
		refreshed++
	}

	pruned, err := s.pruner.Prune(now.Add(-s.retention))
	if err != nil {
		slog.Error("failed to prune exports", "error", err)
	}

	slog.Info("refresh completed", "users", len(users), "refreshed", refreshed, "pruned_exports", pruned)
}
