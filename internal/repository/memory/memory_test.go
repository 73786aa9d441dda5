package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/menestis/skynet/internal/model"
)

func TestUpsertPlayerOnlineProxyThenNull(t *testing.T) {
	repo := New()
	ctx := context.Background()

	require.NoError(t, repo.UpsertPlayerOnlineProxy(ctx, "u1", "proxy1", "sess1", "alice"))
	p, ok, err := repo.GetPlayer(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, p.Online())

	require.NoError(t, repo.NullPlayerSession(ctx, "u1"))
	p, ok, err = repo.GetPlayer(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, p.Online())
	require.Empty(t, p.Server)
	require.Empty(t, p.WaitingMoveTo)
}

func TestListPlayersWaitingForKindRespectsLimit(t *testing.T) {
	repo := New()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		uuid := string(rune('a' + i))
		require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: uuid, WaitingMoveTo: "mini"}))
	}
	waiting, err := repo.ListPlayersWaitingForKind(ctx, "mini", 3)
	require.NoError(t, err)
	require.Len(t, waiting, 3)
}

func TestApplyBanThenClear(t *testing.T) {
	repo := New()
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "u1"}))

	id, err := repo.InsertBanLog(ctx, model.Ban{Target: "u1", Reason: "cheating"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, repo.ApplyBan(ctx, "u1", id, "cheating", time.Hour))
	p, _, err := repo.GetPlayer(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, id, p.Ban)

	require.NoError(t, repo.ClearBan(ctx, "u1"))
	p, _, err = repo.GetPlayer(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, p.Ban)
}

func TestUpdatePlayerCurrencyRejectsNegative(t *testing.T) {
	repo := New()
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "u1", Currency: 10}))

	_, err := repo.UpdatePlayerCurrency(ctx, "u1", -20, 0)
	require.Error(t, err)

	p, err := repo.UpdatePlayerCurrency(ctx, "u1", -5, 0)
	require.NoError(t, err)
	require.EqualValues(t, 5, p.Currency)
}

func TestIPBanTTLExpiry(t *testing.T) {
	repo := New()
	ctx := context.Background()
	require.NoError(t, repo.InsertIPBan(ctx, model.IPBan{IP: "1.2.3.4", Automated: true}, -time.Second))

	_, ok, err := repo.GetIPBan(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDiscordLinkResolve(t *testing.T) {
	repo := New()
	ctx := context.Background()
	link, err := repo.CreateDiscordLink(ctx, "u1", 10*time.Minute)
	require.NoError(t, err)

	resolved, ok, err := repo.ResolveDiscordLink(ctx, link.Code)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "u1", resolved.UUID)
}
