// Package eventbus defines the ServerEvent tagged union every replica
// publishes and consumes, and the Bus abstraction that moves it across the
// wire. Concrete transports live in sub-packages (amqp).
package eventbus

import "fmt"

// EventType discriminates a ServerEvent's variant on the wire via the
// "event" JSON field, matching the original messenger's serde(tag="event")
// encoding.
type EventType string

const (
	EventNewRoute              EventType = "NewRoute"
	EventDeleteRoute           EventType = "DeleteRoute"
	EventServerStarted         EventType = "ServerStarted"
	EventMovePlayer            EventType = "MovePlayer"
	EventAdminMovePlayer       EventType = "AdminMovePlayer"
	EventDisconnectPlayer      EventType = "DisconnectPlayer"
	EventInvalidatePlayer      EventType = "InvalidatePlayer"
	EventPlayerCountSync       EventType = "PlayerCountSync"
	EventPlayerCount           EventType = "PlayerCount"
	EventInvalidateLeaderBoard EventType = "InvalidateLeaderBoard"
	EventBroadcast             EventType = "Broadcast"
	EventServerStateUpdate     EventType = "ServerStateUpdate"
	EventServerDescriptionUpdate EventType = "ServerDescriptionUpdate"
	EventServerCountUpdate     EventType = "ServerCountUpdate"
)

// ServerEvent is the closed tagged union carried over the bus. Exactly one
// of the pointer fields is populated, named for its Type. Consumers must
// switch on Type and ignore variants they don't recognize, so the set can
// grow without breaking older replicas mid-rollout.
type ServerEvent struct {
	Type EventType `json:"event"`

	NewRoute              *NewRoutePayload              `json:"-"`
	DeleteRoute           *DeleteRoutePayload           `json:"-"`
	ServerStarted         *ServerStartedPayload         `json:"-"`
	MovePlayer            *MovePlayerPayload            `json:"-"`
	AdminMovePlayer       *AdminMovePlayerPayload       `json:"-"`
	DisconnectPlayer      *DisconnectPlayerPayload      `json:"-"`
	InvalidatePlayer      *InvalidatePlayerPayload      `json:"-"`
	PlayerCountSync       *PlayerCountSyncPayload       `json:"-"`
	PlayerCount           *PlayerCountPayload           `json:"-"`
	InvalidateLeaderBoard *InvalidateLeaderBoardPayload `json:"-"`
	Broadcast             *BroadcastPayload             `json:"-"`
	ServerStateUpdate     *ServerStateUpdatePayload     `json:"-"`
	ServerDescriptionUpdate *ServerDescriptionUpdatePayload `json:"-"`
	ServerCountUpdate     *ServerCountUpdatePayload     `json:"-"`
}

type NewRoutePayload struct {
	ID          string            `json:"id"`
	Addr        string            `json:"addr"`
	Name        string            `json:"name"`
	Kind        string            `json:"kind"`
	Description string            `json:"description"`
	Properties  map[string]string `json:"properties"`
}

type DeleteRoutePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ServerStartedPayload struct {
	ID          string            `json:"id"`
	Addr        string            `json:"addr"`
	Name        string            `json:"name"`
	Kind        string            `json:"kind"`
	Description string            `json:"description"`
	Properties  map[string]string `json:"properties"`
}

// MovePlayerPayload routes to Proxy directly; Proxy itself is not encoded
// on the wire (it IS the routing key) matching #[serde(skip)] on the source.
type MovePlayerPayload struct {
	Proxy  string `json:"-"`
	Server string `json:"server"`
	Player string `json:"player"`
}

type AdminMovePlayerPayload struct {
	Server string `json:"server"`
	Player string `json:"player"`
}

type DisconnectPlayerPayload struct {
	Proxy  string `json:"-"`
	Player string `json:"player"`
}

type InvalidatePlayerPayload struct {
	Server string `json:"-"`
	UUID   string `json:"uuid"`
}

type PlayerCountSyncPayload struct {
	Proxy string `json:"proxy"`
	Count int    `json:"count"`
}

type PlayerCountPayload struct {
	Count int `json:"count"`
}

type InvalidateLeaderBoardPayload struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Leaderboard []string `json:"leaderboard"`
}

// BroadcastPayload carries a chat-style announcement; ServerKind empty
// broadcasts to every proxy instead of one kind's servers.
type BroadcastPayload struct {
	ServerKind string `json:"server_kind,omitempty"`
	Message    string `json:"message"`
}

type ServerStateUpdatePayload struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type ServerDescriptionUpdatePayload struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type ServerCountUpdatePayload struct {
	ID     string `json:"id"`
	Online int    `json:"online"`
}

// Direct reports whether the event routes to a single replica's private
// queue (true) or broadcasts over the topic exchange (false).
func (e ServerEvent) Direct() bool {
	switch e.Type {
	case EventMovePlayer, EventAdminMovePlayer, EventDisconnectPlayer, EventInvalidatePlayer:
		return true
	default:
		return false
	}
}

// Route computes the event's routing key: the destination replica id for
// direct events, a fixed or parameterized topic key otherwise.
func (e ServerEvent) Route() string {
	switch e.Type {
	case EventNewRoute:
		return "proxy.servers.routes.new"
	case EventDeleteRoute:
		return "proxy.servers.routes.delete"
	case EventServerStarted:
		return "proxy.servers.routes.started"
	case EventMovePlayer:
		return e.MovePlayer.Proxy
	case EventAdminMovePlayer:
		return e.AdminMovePlayer.Server
	case EventDisconnectPlayer:
		return e.DisconnectPlayer.Proxy
	case EventInvalidatePlayer:
		return e.InvalidatePlayer.Server
	case EventPlayerCountSync:
		return "skynet.playercountsync"
	case EventPlayerCount:
		return "server.playercount"
	case EventInvalidateLeaderBoard:
		return fmt.Sprintf("leaderboard.invalidate.%s", e.InvalidateLeaderBoard.Name)
	case EventBroadcast:
		if e.Broadcast != nil && e.Broadcast.ServerKind != "" {
			return fmt.Sprintf("server.%s.broadcast", e.Broadcast.ServerKind)
		}
		return "proxy.broadcast"
	case EventServerStateUpdate, EventServerDescriptionUpdate, EventServerCountUpdate:
		return fmt.Sprintf("server.update.%s", e.Type)
	default:
		return ""
	}
}

func NewRouteEvent(p NewRoutePayload) ServerEvent { return ServerEvent{Type: EventNewRoute, NewRoute: &p} }
func DeleteRouteEvent(p DeleteRoutePayload) ServerEvent {
	return ServerEvent{Type: EventDeleteRoute, DeleteRoute: &p}
}
func ServerStartedEvent(p ServerStartedPayload) ServerEvent {
	return ServerEvent{Type: EventServerStarted, ServerStarted: &p}
}
func MovePlayerEvent(p MovePlayerPayload) ServerEvent {
	return ServerEvent{Type: EventMovePlayer, MovePlayer: &p}
}
func AdminMovePlayerEvent(p AdminMovePlayerPayload) ServerEvent {
	return ServerEvent{Type: EventAdminMovePlayer, AdminMovePlayer: &p}
}
func DisconnectPlayerEvent(p DisconnectPlayerPayload) ServerEvent {
	return ServerEvent{Type: EventDisconnectPlayer, DisconnectPlayer: &p}
}
func InvalidatePlayerEvent(p InvalidatePlayerPayload) ServerEvent {
	return ServerEvent{Type: EventInvalidatePlayer, InvalidatePlayer: &p}
}
func PlayerCountSyncEvent(p PlayerCountSyncPayload) ServerEvent {
	return ServerEvent{Type: EventPlayerCountSync, PlayerCountSync: &p}
}
func PlayerCountEvent(p PlayerCountPayload) ServerEvent {
	return ServerEvent{Type: EventPlayerCount, PlayerCount: &p}
}
func InvalidateLeaderBoardEvent(p InvalidateLeaderBoardPayload) ServerEvent {
	return ServerEvent{Type: EventInvalidateLeaderBoard, InvalidateLeaderBoard: &p}
}
func BroadcastEvent(p BroadcastPayload) ServerEvent {
	return ServerEvent{Type: EventBroadcast, Broadcast: &p}
}
func ServerStateUpdateEvent(p ServerStateUpdatePayload) ServerEvent {
	return ServerEvent{Type: EventServerStateUpdate, ServerStateUpdate: &p}
}
func ServerDescriptionUpdateEvent(p ServerDescriptionUpdatePayload) ServerEvent {
	return ServerEvent{Type: EventServerDescriptionUpdate, ServerDescriptionUpdate: &p}
}
func ServerCountUpdateEvent(p ServerCountUpdatePayload) ServerEvent {
	return ServerEvent{Type: EventServerCountUpdate, ServerCountUpdate: &p}
}
