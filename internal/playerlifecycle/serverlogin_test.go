package playerlifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menestis/skynet/internal/model"
)

func TestServerLoginClearsWaitingMoveToWhenItMatchesKind(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	ctx := context.Background()

	repo.SeedKind(model.ServerKind{Name: "mini"})
	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s1", Kind: "mini"}))
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", WaitingMoveTo: "mini"}))

	_, err := s.ServerLogin(ctx, ServerLoginRequest{PlayerUUID: "p1", ServerID: "s1"})
	require.NoError(t, err)

	player, _, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "s1", player.Server)
	require.Equal(t, "", player.WaitingMoveTo)
}

func TestServerLoginInjectsHostGroupWhenPropertyNamesPlayer(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	ctx := context.Background()

	repo.SeedKind(model.ServerKind{Name: "mini"})
	repo.SeedGroup(model.Group{Name: "Host", Power: 10, Permissions: []string{"admin"}})
	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s1", Kind: "mini", Properties: map[string]string{"host": "p1"}}))
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1"}))

	info, err := s.ServerLogin(ctx, ServerLoginRequest{PlayerUUID: "p1", ServerID: "s1"})
	require.NoError(t, err)
	require.Contains(t, info.Permissions, "admin")
	require.Equal(t, 10, info.Power)

	player, _, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, player.Groups)
}
