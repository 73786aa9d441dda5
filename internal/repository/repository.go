// Package repository defines the logical data store abstraction every
// other component reads and writes through (spec §4.1). Concrete backends
// live in sub-packages: scylla (production, gocql) and memory (test fake).
package repository

import (
	"context"
	"time"

	"github.com/menestis/skynet/internal/model"
)

// Repository is the sole owner of persisted state. Every read that can
// yield "no row" returns a zero value and found=false instead of an error;
// every write is idempotent under identical arguments. Transient backend
// failures surface as *apierr.Error{Kind: apierr.KindRepository}.
type Repository interface {
	// Player / session lifecycle

	UpsertPlayerOnlineProxy(ctx context.Context, uuid, proxy, session, username string) error
	NullPlayerSession(ctx context.Context, uuid string) error
	GetPlayer(ctx context.Context, uuid string) (model.Player, bool, error)
	GetPlayerByUsername(ctx context.Context, username string) (model.Player, bool, error)
	UpsertPlayer(ctx context.Context, p model.Player) error
	SetPlayerServer(ctx context.Context, uuid, server string, clearWaiting bool) error
	SetWaitingMoveTo(ctx context.Context, uuid, kind string) error
	SetServerClearWaiting(ctx context.Context, uuid, server string, ttl time.Duration) error
	UpdatePlayerCurrency(ctx context.Context, uuid string, currencyDelta, premiumDelta int64) (model.Player, error)
	UpdatePlayerInventory(ctx context.Context, uuid string, delta map[string]int) (model.Player, error)
	UpdatePlayerGroups(ctx context.Context, uuid string, updates []GroupUpdate) (model.Player, bool, error)
	UpdatePlayerProperty(ctx context.Context, uuid, key, value string) error

	InsertSession(ctx context.Context, s model.Session) error
	CloseSession(ctx context.Context, id string) error
	UpdateSessionMods(ctx context.Context, id string, mods map[string]string) error
	UpdateSessionBrand(ctx context.Context, id, brand string) error
	ListPlayersWaitingForKind(ctx context.Context, kind string, limit int) ([]model.Player, error)
	ListPlayersByProxy(ctx context.Context, proxyID string) ([]model.Player, error)

	// Moderation

	InsertBanLog(ctx context.Context, b model.Ban) (string, error)
	ApplyBan(ctx context.Context, uuid, banID, reason string, ttl time.Duration) error
	ClearBan(ctx context.Context, uuid string) error
	GetBan(ctx context.Context, id string) (model.Ban, bool, error)
	ApplyMute(ctx context.Context, uuid, muteID string, ttl time.Duration) error
	ClearMute(ctx context.Context, uuid string) error
	ListPlayersByIP(ctx context.Context, ip string) ([]model.Player, error)
	SessionIPsForPlayer(ctx context.Context, uuid string) ([]string, error)

	GetIPBan(ctx context.Context, ip string) (model.IPBan, bool, error)
	InsertIPBan(ctx context.Context, b model.IPBan, ttl time.Duration) error
	ClearIPBan(ctx context.Context, ip string) error

	GetSanctionBoard(ctx context.Context, category string) (model.SanctionBoard, bool, error)
	GetSanctionState(ctx context.Context, player, category string) (model.SanctionState, bool, error)
	SetSanctionState(ctx context.Context, player, category string, value int) error

	// Servers / kinds

	CreateServer(ctx context.Context, s model.Server) error
	GetServer(ctx context.Context, idOrLabel string) (model.Server, bool, error)
	ListServers(ctx context.Context) ([]model.Server, error)
	ListServersByKind(ctx context.Context, kind string) ([]model.Server, error)
	ListServersByKindAndStates(ctx context.Context, kind string, states []model.ServerState) ([]model.Server, error)
	SetServerState(ctx context.Context, id string, state model.ServerState) error
	SetServerDescription(ctx context.Context, id, description string) error
	SetServerOnline(ctx context.Context, id string, online int) error
	SetServerEchoKey(ctx context.Context, id, key string) error
	CountPlayersOnServer(ctx context.Context, serverID string) (int, error)
	DeleteServer(ctx context.Context, id string) error

	GetServerKind(ctx context.Context, name string) (model.ServerKind, bool, error)

	// Stats / leaderboards

	SelectStats(ctx context.Context, key string, since time.Time) (map[string]int64, error)
	SelectStatsByKind(ctx context.Context, key, kind string, since time.Time) (map[string]int64, error)
	ListLeaderboardRules(ctx context.Context) ([]model.Leaderboard, error)
	SaveLeaderboard(ctx context.Context, lb model.Leaderboard) error
	GetLeaderboard(ctx context.Context, name string) (model.Leaderboard, bool, error)

	// API keys / settings / discord

	GetAPIKey(ctx context.Context, key string) (model.ApiKey, bool, error)
	TouchAPIKey(ctx context.Context, key string) error
	GetAPIGroup(ctx context.Context, name string) (model.ApiGroup, bool, error)

	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error

	CreateDiscordLink(ctx context.Context, uuid string, ttl time.Duration) (model.DiscordLink, error)
	ResolveDiscordLink(ctx context.Context, code string) (model.DiscordLink, bool, error)
	BindDiscord(ctx context.Context, uuid, discordID string) error
	GetPlayerByDiscordID(ctx context.Context, discordID string) (model.Player, bool, error)
	UnbindDiscord(ctx context.Context, discordID string) error

	GetGroup(ctx context.Context, name string) (model.Group, bool, error)
	ListGroups(ctx context.Context, names []string) ([]model.Group, error)
}

// GroupUpdate is one entry of a groups-update batch (spec §4.6.7):
// "name" adds, "name/ttl_seconds" carries a TTL, "-name" removes. Neither
// backend applies TTL: a timed grant is stored without expiry.
type GroupUpdate struct {
	Name   string
	Remove bool
	TTL    time.Duration
}
