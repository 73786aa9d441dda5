package discord

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	busmem "github.com/menestis/skynet/internal/eventbus/memory"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/repository/memory"
)

func TestCreateLinkRequiresExistingPlayer(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	s := New(repo, bus)

	_, err := s.CreateLink(context.Background(), "missing")
	require.Error(t, err)
}

func TestCompleteLinkBindsAndInvalidatesOnlineSessions(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	s := New(repo, bus)
	ctx := context.Background()

	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Proxy: "proxy-1", Server: "server-1"}))
	code, err := s.CreateLink(ctx, "p1")
	require.NoError(t, err)

	require.NoError(t, s.CompleteLink(ctx, code, "discord-1"))

	player, found, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "discord-1", player.DiscordID)
	require.Len(t, bus.Published, 2)
}

func TestDeleteLinkUnbindsExistingDiscordID(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	s := New(repo, bus)
	ctx := context.Background()

	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1"}))
	require.NoError(t, repo.BindDiscord(ctx, "p1", "discord-1"))

	require.NoError(t, s.DeleteLink(ctx, "discord-1"))

	player, _, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "", player.DiscordID)
}

func TestCallWebhookWrapsPlainTextAndForwards(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := memory.New()
	bus := busmem.New()
	s := New(repo, bus)
	ctx := context.Background()
	require.NoError(t, repo.SetSetting(ctx, "discord_webhook:alerts", server.URL))

	require.NoError(t, s.CallWebhook(ctx, "alerts", []byte("hello")))
	require.JSONEq(t, `{"content":"hello"}`, string(gotBody))
}

func TestCallWebhookUnknownNameReturnsNotFound(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	s := New(repo, bus)

	err := s.CallWebhook(context.Background(), "nope", []byte("hi"))
	require.Error(t, err)
}
