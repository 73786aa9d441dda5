package eventbus

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON flattens the active payload alongside the "event" tag,
// matching serde's #[serde(tag = "event")] encoding on the wire.
func (e ServerEvent) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch e.Type {
	case EventNewRoute:
		payload = e.NewRoute
	case EventDeleteRoute:
		payload = e.DeleteRoute
	case EventServerStarted:
		payload = e.ServerStarted
	case EventMovePlayer:
		payload = e.MovePlayer
	case EventAdminMovePlayer:
		payload = e.AdminMovePlayer
	case EventDisconnectPlayer:
		payload = e.DisconnectPlayer
	case EventInvalidatePlayer:
		payload = e.InvalidatePlayer
	case EventPlayerCountSync:
		payload = e.PlayerCountSync
	case EventPlayerCount:
		payload = e.PlayerCount
	case EventInvalidateLeaderBoard:
		payload = e.InvalidateLeaderBoard
	case EventBroadcast:
		payload = e.Broadcast
	case EventServerStateUpdate:
		payload = e.ServerStateUpdate
	case EventServerDescriptionUpdate:
		payload = e.ServerDescriptionUpdate
	case EventServerCountUpdate:
		payload = e.ServerCountUpdate
	default:
		return nil, fmt.Errorf("eventbus: unknown event type %q", e.Type)
	}

	fields, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(fields, &merged); err != nil {
		return nil, err
	}
	merged["event"], _ = json.Marshal(e.Type)
	return json.Marshal(merged)
}

// UnmarshalJSON reads the "event" discriminator first, then decodes the
// remaining fields into the matching payload. Unknown event types decode
// into a zero-payload ServerEvent rather than erroring, so a newer
// publisher's variant doesn't break an older consumer mid-rollout.
func (e *ServerEvent) UnmarshalJSON(data []byte) error {
	var head struct {
		Type EventType `json:"event"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	e.Type = head.Type

	switch head.Type {
	case EventNewRoute:
		e.NewRoute = &NewRoutePayload{}
		return json.Unmarshal(data, e.NewRoute)
	case EventDeleteRoute:
		e.DeleteRoute = &DeleteRoutePayload{}
		return json.Unmarshal(data, e.DeleteRoute)
	case EventServerStarted:
		e.ServerStarted = &ServerStartedPayload{}
		return json.Unmarshal(data, e.ServerStarted)
	case EventMovePlayer:
		e.MovePlayer = &MovePlayerPayload{}
		return json.Unmarshal(data, e.MovePlayer)
	case EventAdminMovePlayer:
		e.AdminMovePlayer = &AdminMovePlayerPayload{}
		return json.Unmarshal(data, e.AdminMovePlayer)
	case EventDisconnectPlayer:
		e.DisconnectPlayer = &DisconnectPlayerPayload{}
		return json.Unmarshal(data, e.DisconnectPlayer)
	case EventInvalidatePlayer:
		e.InvalidatePlayer = &InvalidatePlayerPayload{}
		return json.Unmarshal(data, e.InvalidatePlayer)
	case EventPlayerCountSync:
		e.PlayerCountSync = &PlayerCountSyncPayload{}
		return json.Unmarshal(data, e.PlayerCountSync)
	case EventPlayerCount:
		e.PlayerCount = &PlayerCountPayload{}
		return json.Unmarshal(data, e.PlayerCount)
	case EventInvalidateLeaderBoard:
		e.InvalidateLeaderBoard = &InvalidateLeaderBoardPayload{}
		return json.Unmarshal(data, e.InvalidateLeaderBoard)
	case EventBroadcast:
		e.Broadcast = &BroadcastPayload{}
		return json.Unmarshal(data, e.Broadcast)
	case EventServerStateUpdate:
		e.ServerStateUpdate = &ServerStateUpdatePayload{}
		return json.Unmarshal(data, e.ServerStateUpdate)
	case EventServerDescriptionUpdate:
		e.ServerDescriptionUpdate = &ServerDescriptionUpdatePayload{}
		return json.Unmarshal(data, e.ServerDescriptionUpdate)
	case EventServerCountUpdate:
		e.ServerCountUpdate = &ServerCountUpdatePayload{}
		return json.Unmarshal(data, e.ServerCountUpdate)
	default:
		return nil
	}
}
