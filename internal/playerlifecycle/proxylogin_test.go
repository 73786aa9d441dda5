package playerlifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menestis/skynet/internal/model"
)

func TestProxyLoginInsertsDefaultPlayerAndMintsSession(t *testing.T) {
	s, repo, bus := newService(fakeChecker{})

	outcome, err := s.ProxyLogin(context.Background(), ProxyLoginRequest{
		UUID: "p1", Username: "alice", ProxyID: "proxy-1", IP: "1.2.3.4", Version: "1.20",
	})
	require.NoError(t, err)
	require.True(t, outcome.Allowed)
	require.NotEmpty(t, outcome.SessionID)

	player, found, err := repo.GetPlayer(context.Background(), "p1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "proxy-1", player.Proxy)
	require.Equal(t, outcome.SessionID, player.Session)
	require.Empty(t, bus.Published)
}

func TestProxyLoginDeniesWhenAlreadyConnected(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Proxy: "proxy-1", Session: "sess-1"}))

	outcome, err := s.ProxyLogin(ctx, ProxyLoginRequest{UUID: "p1", ProxyID: "proxy-2"})
	require.NoError(t, err)
	require.False(t, outcome.Allowed)
	require.Contains(t, outcome.Reason, "sess-1")
}

func TestProxyLoginDeniesBannedPlayer(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Ban: "ban-1", BanReason: "cheating"}))

	outcome, err := s.ProxyLogin(ctx, ProxyLoginRequest{UUID: "p1", ProxyID: "proxy-1"})
	require.NoError(t, err)
	require.False(t, outcome.Allowed)
	require.Contains(t, outcome.Reason, "cheating")
}

func TestProxyLoginResolvesPermissionsFromGroups(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	ctx := context.Background()
	repo.SeedGroup(model.Group{Name: "vip", Power: 5, Permissions: []string{"fly"}})
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Groups: []string{"vip"}}))

	outcome, err := s.ProxyLogin(ctx, ProxyLoginRequest{UUID: "p1", ProxyID: "proxy-1"})
	require.NoError(t, err)
	require.True(t, outcome.Allowed)
	require.Contains(t, outcome.Info.Permissions, "fly")
	require.Equal(t, 5, outcome.Info.Power)
}
