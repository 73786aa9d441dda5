package leaderboard

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	busmem "github.com/menestis/skynet/internal/eventbus/memory"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/repository/memory"
)

func TestRebuildSortsTruncatesAndPublishes(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	s := New(repo, bus, func() bool { return true }, logr.Discard())

	repo.SeedStat("kills", "alice", 10)
	repo.SeedStat("kills", "bob", 30)
	repo.SeedStat("kills", "carol", 20)

	lb := model.Leaderboard{
		Name:  "top-kills",
		Label: "Top Kills",
		Rule:  model.LeaderboardRule{StatKey: "kills", Period: model.PeriodAllTime, Size: 2},
	}

	require.NoError(t, s.Rebuild(context.Background(), lb))

	saved, found, err := repo.GetLeaderboard(context.Background(), "top-kills")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"bob:30", "carol:20"}, saved.Value)

	require.Len(t, bus.Published, 1)
	require.NotNil(t, bus.Published[0].InvalidateLeaderBoard)
	require.Equal(t, "top-kills", bus.Published[0].InvalidateLeaderBoard.Name)
}

func TestRebuildAllSkipsOnNonLeader(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	s := New(repo, bus, func() bool { return false }, logr.Discard())

	repo.SeedLeaderboardRule(model.Leaderboard{Name: "x", Rule: model.LeaderboardRule{StatKey: "kills"}})

	require.NoError(t, s.RebuildAll(context.Background()))
	require.Empty(t, bus.Published)
}
