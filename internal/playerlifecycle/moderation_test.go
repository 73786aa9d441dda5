package playerlifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menestis/skynet/internal/model"
)

func TestBanDisconnectsOnlinePlayer(t *testing.T) {
	s, repo, bus := newService(fakeChecker{})
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Proxy: "proxy-1", Session: "sess-1"}))

	banID, err := s.Ban(ctx, BanRequest{Player: "p1", Reason: "cheating", Issuer: "admin"})
	require.NoError(t, err)
	require.NotEmpty(t, banID)

	player, _, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, banID, player.Ban)
	require.Len(t, bus.Published, 1)
	require.NotNil(t, bus.Published[0].DisconnectPlayer)
}

func TestBanIPClosureAppliesAcrossSharedIP(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1"}))
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p2"}))
	require.NoError(t, repo.InsertSession(ctx, model.Session{ID: "sess-p1", Player: "p1", IP: "9.9.9.9"}))
	require.NoError(t, repo.InsertSession(ctx, model.Session{ID: "sess-p2", Player: "p2", IP: "9.9.9.9"}))

	banID, err := s.Ban(ctx, BanRequest{Player: "p1", Reason: "cheating", Issuer: "admin", IP: true})
	require.NoError(t, err)
	require.NotEmpty(t, banID)

	p1, _, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, banID, p1.Ban)
	p2, _, err := repo.GetPlayer(ctx, "p2")
	require.NoError(t, err)
	require.Equal(t, banID, p2.Ban)

	_, found, err := repo.GetIPBan(ctx, "9.9.9.9")
	require.NoError(t, err)
	require.True(t, found)
}

func TestUnbanIPClosureReversesEveryMember(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1"}))
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p2"}))
	require.NoError(t, repo.InsertSession(ctx, model.Session{ID: "sess-p1", Player: "p1", IP: "9.9.9.9"}))
	require.NoError(t, repo.InsertSession(ctx, model.Session{ID: "sess-p2", Player: "p2", IP: "9.9.9.9"}))

	_, err := s.Ban(ctx, BanRequest{Player: "p1", Reason: "cheating", Issuer: "admin", IP: true})
	require.NoError(t, err)

	_, err = s.Ban(ctx, BanRequest{Player: "p1", IP: true, Unban: true})
	require.NoError(t, err)

	p1, _, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, p1.Ban)
	p2, _, err := repo.GetPlayer(ctx, "p2")
	require.NoError(t, err)
	require.Empty(t, p2.Ban)

	_, found, err := repo.GetIPBan(ctx, "9.9.9.9")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMuteAppliesAndInvalidatesServer(t *testing.T) {
	s, repo, bus := newService(fakeChecker{})
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Server: "s1"}))

	require.NoError(t, s.Mute(ctx, "p1", "spam", false, 0))

	player, _, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	require.NotEmpty(t, player.Mute)
	require.Len(t, bus.Published, 1)
	require.NotNil(t, bus.Published[0].InvalidatePlayer)
}

func TestMuteClearDoesNotInvalidateWithoutServer(t *testing.T) {
	s, repo, bus := newService(fakeChecker{})
	ctx := context.Background()
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Mute: "mute-1"}))

	require.NoError(t, s.Mute(ctx, "p1", "", true, 0))

	player, _, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, player.Mute)
	require.Empty(t, bus.Published)
}

func TestSanctionStepsCursorUpThroughLadder(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	ctx := context.Background()
	repo.SeedSanctionBoard(model.SanctionBoard{Category: "griefing", Sanctions: []string{"K", "B3600", "M0"}})
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Proxy: "proxy-1", Session: "sess-1"}))

	require.NoError(t, s.Sanction(ctx, "p1", "griefing", false))
	state, found, err := repo.GetSanctionState(ctx, "p1", "griefing")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, state.Value)

	require.NoError(t, s.Sanction(ctx, "p1", "griefing", false))
	player, _, err := repo.GetPlayer(ctx, "p1")
	require.NoError(t, err)
	require.NotEmpty(t, player.Ban)
}

func TestSanctionClampsAtLadderEnds(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	ctx := context.Background()
	repo.SeedSanctionBoard(model.SanctionBoard{Category: "griefing", Sanctions: []string{"K", "B3600"}})
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1"}))

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Sanction(ctx, "p1", "griefing", false))
	}
	state, _, err := repo.GetSanctionState(ctx, "p1", "griefing")
	require.NoError(t, err)
	require.Equal(t, 2, state.Value)

	require.NoError(t, repo.SetSanctionState(ctx, "p1", "griefing", 0))
	require.NoError(t, s.Sanction(ctx, "p1", "griefing", true))
	state, _, err = repo.GetSanctionState(ctx, "p1", "griefing")
	require.NoError(t, err)
	require.Equal(t, 0, state.Value)
}
