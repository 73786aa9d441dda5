package eventbus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRouteEventIsTopicWithFixedRoute(t *testing.T) {
	e := NewRouteEvent(NewRoutePayload{ID: "s1", Name: "mini-x-00001", Kind: "mini"})
	require.False(t, e.Direct())
	require.Equal(t, "proxy.servers.routes.new", e.Route())
}

func TestMovePlayerEventIsDirectToProxy(t *testing.T) {
	e := MovePlayerEvent(MovePlayerPayload{Proxy: "proxy-1", Server: "s1", Player: "p1"})
	require.True(t, e.Direct())
	require.Equal(t, "proxy-1", e.Route())
}

func TestInvalidateLeaderBoardRouteEmbedsName(t *testing.T) {
	e := InvalidateLeaderBoardEvent(InvalidateLeaderBoardPayload{Name: "kills_monthly"})
	require.Equal(t, "leaderboard.invalidate.kills_monthly", e.Route())
}

func TestBroadcastRouteByKindOrProxy(t *testing.T) {
	kinded := BroadcastEvent(BroadcastPayload{ServerKind: "mini", Message: "hi"})
	require.Equal(t, "server.mini.broadcast", kinded.Route())

	unkinded := BroadcastEvent(BroadcastPayload{Message: "hi"})
	require.Equal(t, "proxy.broadcast", unkinded.Route())
}

func TestMarshalRoundTripPreservesPayload(t *testing.T) {
	original := MovePlayerEvent(MovePlayerPayload{Proxy: "proxy-1", Server: "s1", Player: "p1"})

	data, err := json.Marshal(original)
	require.NoError(t, err)
	require.Contains(t, string(data), `"event":"MovePlayer"`)
	// Proxy is the routing key, not a payload field; it must not round-trip.
	require.NotContains(t, string(data), "proxy-1")

	var decoded ServerEvent
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, EventMovePlayer, decoded.Type)
	require.Equal(t, "s1", decoded.MovePlayer.Server)
	require.Equal(t, "p1", decoded.MovePlayer.Player)
	require.Empty(t, decoded.MovePlayer.Proxy)
}

func TestUnmarshalUnknownEventTypeDoesNotError(t *testing.T) {
	var decoded ServerEvent
	err := json.Unmarshal([]byte(`{"event":"SomeFutureEvent","foo":"bar"}`), &decoded)
	require.NoError(t, err)
	require.EqualValues(t, "SomeFutureEvent", decoded.Type)
}
