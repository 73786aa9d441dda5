// Package model defines the entities Repository persists and every other
// component reads or writes through it.
package model

import "time"

// ServerState is the Server.state alphabet (spec §3, §4.9). Starting is the
// row's initial value; Started is a superset state set by callers via the
// register endpoint and never triggers autoscaler reactions.
type ServerState string

const (
	ServerStarting ServerState = "Starting"
	ServerWaiting  ServerState = "Waiting"
	ServerIdle     ServerState = "Idle"
	ServerPlaying  ServerState = "Playing"
	ServerStarted  ServerState = "Started"
)

// ProxyKind is the distinguished kind name whose pods run proxies rather
// than game servers; its termination drains player sessions instead of
// just removing a route.
const ProxyKind = "proxy"

// Server is one running pod's authoritative row (spec §3 Server).
type Server struct {
	ID          string
	Label       string
	Kind        string
	IP          string
	Key         string
	State       ServerState
	Description string
	Properties  map[string]string
	Online      int
}

// AutoscaleSimple is the only Autoscale variant (spec §3 ServerKind).
type AutoscaleSimple struct {
	Slots      int
	Properties map[string]string
	Env        map[string]string
	Min        int
}

// ServerKind is fixed-by-configuration fleet class metadata.
type ServerKind struct {
	Name        string
	Image       string
	Permissions map[string][]string
	Autoscale   *AutoscaleSimple
	Startup     map[string]string
}

// Player is a player's full row (spec §3 Player). Proxy/Server/Session are
// empty strings when unset; WaitingMoveTo is the kind name the player is
// queued for, if any.
type Player struct {
	UUID            string
	Username        string
	Groups          []string
	Permissions     []string
	Locale          string
	Prefix          string
	Suffix          string
	Currency        int64
	PremiumCurrency int64
	Inventory       map[string]int
	Properties      map[string]string
	Blocked         []string
	Friends         []string
	DiscordID       string
	Proxy           string
	Server          string
	Session         string
	WaitingMoveTo   string
	Ban             string
	Mute            string
	BanReason       string
}

// Online reports whether the player has an active proxy connection.
func (p Player) Online() bool { return p.Proxy != "" && p.Session != "" }

// Session is one continuous connection of a player to the fleet.
type Session struct {
	ID      string
	Player  string
	IP      string
	Version string
	Brand   string
	Mods    map[string]string
	Start   time.Time
	End     *time.Time
}

// Group is a permission bundle a player can belong to.
type Group struct {
	Name        string
	Power       int
	Prefix      string
	Suffix      string
	Permissions []string
}

// Ban is an immutable moderation log entry. Mute shares the same shape and
// table family (spec §3 Ban / Mute).
type Ban struct {
	ID     string
	Start  time.Time
	End    *time.Time
	Issuer string
	Reason string
	Target string
	IP     string
}

// IPBan is an IP-scoped ban, possibly auto-issued by the reputation check.
type IPBan struct {
	IP        string
	Reason    string
	Start     time.Time
	End       *time.Time
	Ban       string
	Automated bool
}

// SanctionBoard configures the escalation ladder for one moderation category.
// Each entry is "K" (kick), "B<seconds>" (timed ban), "M<seconds>" (timed
// mute), or a ban/mute entry with no suffix meaning permanent.
type SanctionBoard struct {
	Category  string
	Label     string
	Sanctions []string
}

// SanctionState is the per-player, per-category escalation cursor.
type SanctionState struct {
	Player   string
	Category string
	Value    int
}

// LeaderboardPeriod is the aggregation window for a leaderboard rule.
type LeaderboardPeriod string

const (
	PeriodMonthly LeaderboardPeriod = "Monthly"
	PeriodAllTime LeaderboardPeriod = "AllTime"
)

// LeaderboardRule configures one materialized leaderboard.
type LeaderboardRule struct {
	StatKey    string
	Period     LeaderboardPeriod
	ServerKind string
	Size       int
}

// Leaderboard is a materialized ranking, rebuilt periodically by
// internal/leaderboard.
type Leaderboard struct {
	Name  string
	Label string
	Rule  LeaderboardRule
	Value []string // "username:value" entries, ranked highest first
}

// ApiKey authorizes an HTTP caller. An empty Group denotes an unrestricted
// key (every use is logged as a warning).
type ApiKey struct {
	Key       string
	Group     string
	LastUsed  time.Time
}

// ApiGroup names the permissions an ApiKey's group grants.
type ApiGroup struct {
	Name        string
	Permissions []string
}

// Setting keys used by PlayerLifecycle and the HTTP surface.
const (
	SettingOnlineCount         = "online_count"
	SettingSlots               = "slots"
	SettingMOTD                = "motd"
	SettingMaintenance         = "maintenance"
	SettingMaintenanceOverride = "maintenance_override"
)

// DiscordLink is a short-lived code binding a player uuid to a discord id.
type DiscordLink struct {
	Code string
	UUID string
}
