package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menestis/skynet/internal/eventbus"
)

func TestPublishInvokesEverySubscribedHandler(t *testing.T) {
	bus := New()
	var gotA, gotB eventbus.ServerEvent

	require.NoError(t, bus.Subscribe(context.Background(), func(ctx context.Context, e eventbus.ServerEvent) {
		gotA = e
	}))
	require.NoError(t, bus.Subscribe(context.Background(), func(ctx context.Context, e eventbus.ServerEvent) {
		gotB = e
	}))

	event := eventbus.PlayerCountEvent(eventbus.PlayerCountPayload{Count: 9})
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Equal(t, eventbus.EventPlayerCount, gotA.Type)
	require.Equal(t, eventbus.EventPlayerCount, gotB.Type)
	require.Len(t, bus.Published, 1)
}
