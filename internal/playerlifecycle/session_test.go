package playerlifecycle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/menestis/skynet/internal/echo"
	"github.com/menestis/skynet/internal/model"
)

func TestDisconnectPublishesWhenProxyKnown(t *testing.T) {
	s, repo, bus := newService(fakeChecker{})
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Proxy: "proxy-1"}))

	require.NoError(t, s.Disconnect(ctx, "p1"))
	require.Len(t, bus.Published, 1)
	require.Equal(t, "proxy-1", bus.Published[0].DisconnectPlayer.Proxy)
}

func TestDisconnectNoopWhenProxyUnknown(t *testing.T) {
	s, repo, bus := newService(fakeChecker{})
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1"}))

	require.NoError(t, s.Disconnect(ctx, "p1"))
	require.Empty(t, bus.Published)
}

func TestCloseSessionEndsSessionAndNullsPlayer(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Proxy: "proxy-1", Session: "sess-1", Server: "s1"}))
	require.NoError(t, repo.InsertSession(ctx, model.Session{ID: "sess-1", Player: "p1"}))

	require.NoError(t, s.CloseSession(ctx, "sess-1", "p1", false, "9.9.9.9"))

	player, _, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, player.Proxy)
	require.Empty(t, player.Session)
	require.Empty(t, player.Server)
}

func TestCloseSessionFiresEchoTeardownOnlyWhenEnabled(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(204)
	}))
	defer server.Close()

	s, repo, _ := newService(fakeChecker{})
	s.echo = echo.New(server.URL, "secret", logr.Discard())
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Proxy: "proxy-1", Session: "sess-1"}))
	require.NoError(t, repo.InsertSession(ctx, model.Session{ID: "sess-1", Player: "p1"}))

	require.NoError(t, s.CloseSession(ctx, "sess-1", "p1", true, "9.9.9.9"))
	require.Equal(t, 1, hits)
}
