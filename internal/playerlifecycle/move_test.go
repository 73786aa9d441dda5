package playerlifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menestis/skynet/internal/model"
)

func TestMoveRejectsOfflinePlayer(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1"}))

	outcome, err := s.Move(ctx, PlayerRef{UUID: "p1"}, MoveTarget{ServerID: "s1"})
	require.NoError(t, err)
	require.Equal(t, MovePlayerOffline, outcome)
}

func TestMoveRejectsUnlinkedDiscordPlayer(t *testing.T) {
	s, _, _ := newService(fakeChecker{})

	outcome, err := s.Move(context.Background(), PlayerRef{DiscordID: "discord-1"}, MoveTarget{ServerID: "s1"})
	require.NoError(t, err)
	require.Equal(t, MoveUnlinkedPlayer, outcome)
}

func TestMoveDispatchesToSpecificServer(t *testing.T) {
	s, repo, bus := newService(fakeChecker{})
	ctx := context.Background()
	repo.SeedKind(model.ServerKind{Name: "mini"})
	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s1", Kind: "mini"}))
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Proxy: "proxy-1", Session: "sess-1"}))

	outcome, err := s.Move(ctx, PlayerRef{UUID: "p1"}, MoveTarget{ServerID: "s1"})
	require.NoError(t, err)
	require.Equal(t, MoveDispatched, outcome)
	require.Len(t, bus.Published, 1)
	require.NotNil(t, bus.Published[0].MovePlayer)
}

func TestMoveAdminMovePublishesAdminMovePlayer(t *testing.T) {
	s, repo, bus := newService(fakeChecker{})
	ctx := context.Background()
	repo.SeedKind(model.ServerKind{Name: "mini"})
	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s1", Kind: "mini"}))
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Proxy: "proxy-1", Session: "sess-1"}))

	outcome, err := s.Move(ctx, PlayerRef{UUID: "p1"}, MoveTarget{ServerID: "s1", AdminMove: true})
	require.NoError(t, err)
	require.Equal(t, MoveDispatched, outcome)
	require.NotNil(t, bus.Published[0].AdminMovePlayer)
}

func TestMoveToKindDelegatesToAutoscaler(t *testing.T) {
	s, repo, bus := newService(fakeChecker{})
	ctx := context.Background()
	repo.SeedKind(model.ServerKind{Name: "mini", Autoscale: &model.AutoscaleSimple{Slots: 5}})
	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s1", Kind: "mini", State: model.ServerIdle}))
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Proxy: "proxy-1", Session: "sess-1"}))

	outcome, err := s.Move(ctx, PlayerRef{UUID: "p1"}, MoveTarget{Kind: "mini"})
	require.NoError(t, err)
	require.Equal(t, MoveDispatched, outcome)
	require.Len(t, bus.Published, 1)
}
