// Package leaderboard periodically rebuilds materialized rankings from raw
// stat samples, per spec §4.8. A cron.Cron drives RebuildAll on the same
// cadence for every configured rule; only the leader replica runs it.
package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/repository"
	"github.com/menestis/skynet/internal/tracing"
)

// IsLeader reports whether this replica should actually rebuild; non-leader
// replicas still receive InvalidateLeaderBoard over the bus.
type IsLeader func() bool

// Scheduler rebuilds every configured leaderboard rule on a fixed cadence.
type Scheduler struct {
	repo     repository.Repository
	bus      eventbus.Bus
	isLeader IsLeader
	log      logr.Logger
	cron     *cron.Cron
}

func New(repo repository.Repository, bus eventbus.Bus, isLeader IsLeader, log logr.Logger) *Scheduler {
	return &Scheduler{repo: repo, bus: bus, isLeader: isLeader, log: log, cron: cron.New()}
}

// Start schedules RebuildAll on spec, e.g. "@every 1m", and returns
// immediately; the cron goroutine stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.RebuildAll(ctx); err != nil {
			s.log.Error(err, "leaderboard rebuild failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
	return nil
}

// RebuildAll recomputes every configured rule, skipping entirely on
// non-leader replicas.
func (s *Scheduler) RebuildAll(ctx context.Context) error {
	if !s.isLeader() {
		return nil
	}

	rules, err := s.repo.ListLeaderboardRules(ctx)
	if err != nil {
		return err
	}
	for _, existing := range rules {
		if err := s.Rebuild(ctx, existing); err != nil {
			s.log.Error(err, "rebuild leaderboard failed", "name", existing.Name)
		}
	}
	return nil
}

// Rebuild recomputes one leaderboard, truncates to its rule's size, saves
// it, and publishes InvalidateLeaderBoard.
func (s *Scheduler) Rebuild(ctx context.Context, lb model.Leaderboard) error {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanLeaderboardRebuild, trace.WithAttributes(tracing.AttrLeaderboardName(lb.Name)))
	defer span.End()

	since := periodLowerBound(lb.Rule.Period)

	var (
		samples map[string]int64
		err     error
	)
	if lb.Rule.ServerKind != "" {
		samples, err = s.repo.SelectStatsByKind(ctx, lb.Rule.StatKey, lb.Rule.ServerKind, since)
	} else {
		samples, err = s.repo.SelectStats(ctx, lb.Rule.StatKey, since)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select stats failed")
		return err
	}

	type row struct {
		username string
		value    int64
	}
	rows := make([]row, 0, len(samples))
	for username, value := range samples {
		rows = append(rows, row{username, value})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].value != rows[j].value {
			return rows[i].value > rows[j].value
		}
		return rows[i].username < rows[j].username
	})

	size := lb.Rule.Size
	if size <= 0 || size > len(rows) {
		size = len(rows)
	}
	entries := make([]string, 0, size)
	for _, r := range rows[:size] {
		entries = append(entries, fmt.Sprintf("%s:%d", r.username, r.value))
	}

	lb.Value = entries
	if err := s.repo.SaveLeaderboard(ctx, lb); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save leaderboard failed")
		return err
	}

	span.AddEvent(tracing.EventLeaderboardPublished)
	return s.bus.Publish(ctx, eventbus.InvalidateLeaderBoardEvent(eventbus.InvalidateLeaderBoardPayload{
		Name:        lb.Name,
		Label:       lb.Label,
		Leaderboard: entries,
	}))
}

// periodLowerBound translates a rule's period into the earliest sample
// timestamp to include: the start of the current calendar month for
// Monthly, or the zero time for AllTime.
func periodLowerBound(period model.LeaderboardPeriod) time.Time {
	if period == model.PeriodMonthly {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}
