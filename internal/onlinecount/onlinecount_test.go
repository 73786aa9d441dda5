package onlinecount

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	busmem "github.com/menestis/skynet/internal/eventbus/memory"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/repository/memory"
)

func TestUpdateAsLeaderPersistsTotalAndPublishesPlayerCount(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	a := New(repo, bus, func() bool { return true }, logr.Discard())

	require.NoError(t, a.Update(context.Background(), "proxy-1", 5))
	require.NoError(t, a.Update(context.Background(), "proxy-2", 7))

	require.Equal(t, 12, a.Total())
	require.Len(t, bus.Published, 2)
	require.NotNil(t, bus.Published[1].PlayerCount)
	require.Equal(t, 12, bus.Published[1].PlayerCount.Count)

	v, found, err := repo.GetSetting(context.Background(), model.SettingOnlineCount)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "12", v)
}

func TestUpdateAsNonLeaderForwardsSyncInsteadOfPersisting(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	a := New(repo, bus, func() bool { return false }, logr.Discard())

	require.NoError(t, a.Update(context.Background(), "proxy-1", 3))

	require.Len(t, bus.Published, 1)
	require.NotNil(t, bus.Published[0].PlayerCountSync)
	require.Equal(t, "proxy-1", bus.Published[0].PlayerCountSync.Proxy)

	_, found, err := repo.GetSetting(context.Background(), model.SettingOnlineCount)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRemoveDropsProxyFromTotal(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	a := New(repo, bus, func() bool { return true }, logr.Discard())

	require.NoError(t, a.Update(context.Background(), "proxy-1", 4))
	a.Remove("proxy-1")

	require.Equal(t, 0, a.Total())
}
