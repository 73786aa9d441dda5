// Package scylla implements repository.Repository over ScyllaDB via gocql,
// grounded on the original Rust control plane's scylla-rust-driver usage
// (a prepared-statement catalog compiled once at startup, quorum reads by
// default).
package scylla

import (
	"context"
	"time"

	"github.com/gocql/gocql"

	"github.com/menestis/skynet/internal/apierr"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/repository"
)

// catalog holds every CQL statement string used by Repository, named the
// way the original's Queries struct names them. gocql prepares and caches
// statements lazily per Session, so the catalog only needs to hold text —
// but keeping it as a struct (instead of scattering literals through the
// method bodies) preserves the "compile once, read-only after init"
// discipline spec §4.1 requires of the catalog.
type catalog struct {
	selectAPIKey               string
	touchAPIKey                string
	selectAPIGroup             string
	selectIPBan                string
	insertIPBan                string
	insertIPBanTTL              string
	clearIPBan                  string
	insertBanLog                string
	selectBan                   string
	insertBan                   string
	insertBanTTL                string
	clearBan                    string
	insertMute                  string
	clearMute                   string
	insertServer                string
	deleteServer                string
	selectServer                string
	selectServerByLabel         string
	selectAllServers             string
	selectServersByKind          string
	updateServerState            string
	updateServerDescription       string
	updateServerOnline            string
	selectServerKind              string
	insertPlayer                  string
	selectPlayer                   string
	updatePlayerProxyOnlineInfo     string
	updatePlayerServerOnlineInfo     string
	updatePlayerWaitingMoveTo         string
	closePlayerSession                 string
	updatePlayerCurrency                string
	updatePlayerInventory                string
	updatePlayerProperty                  string
	insertSession                          string
	closeSession                            string
	updateSessionMods                       string
	updateSessionBrand                      string
	updateServerEchoKey                     string
	selectSessionIPsForPlayer                string
	selectPlayersByIP                          string
	selectPlayersWaitingForKind                  string
	countPlayersOnServer                           string
	insertStats                                      string
	selectStats                                        string
	selectStatsByKind                                    string
	selectLeaderboardRules                                 string
	insertLeaderboard                                        string
	selectLeaderboard                                          string
	selectSetting                                                string
	insertSetting                                                  string
	selectGroup                                                      string
	selectSanctionBoard                                                string
	selectSanctionState                                                  string
	upsertSanctionState                                                    string
	insertDiscordLink                                                        string
	selectDiscordLink                                                          string
	bindDiscord                                                                  string
	unbindDiscord                                                                  string
}

func newCatalog() *catalog {
	return &catalog{
		selectAPIKey:                "SELECT key, group, last_used FROM api_keys WHERE key = ?",
		touchAPIKey:                 "UPDATE api_keys SET last_used = ? WHERE key = ?",
		selectAPIGroup:              "SELECT name, permissions FROM api_groups WHERE name = ?",
		selectIPBan:                 "SELECT ip, reason, start, end, ban, automated FROM ip_bans WHERE ip = ?",
		insertIPBan:                 "INSERT INTO ip_bans (ip, reason, start, end, ban, automated) VALUES (?, ?, toTimestamp(now()), null, ?, ?)",
		insertIPBanTTL:              "INSERT INTO ip_bans (ip, reason, start, end, ban, automated) VALUES (?, ?, toTimestamp(now()), ?, ?, ?) USING TTL ?",
		clearIPBan:                  "DELETE FROM ip_bans WHERE ip = ?",
		insertBanLog:                "INSERT INTO bans_logs (id, start, end, target, ip, issuer, reason) VALUES (?, toTimestamp(now()), ?, ?, ?, ?, ?)",
		selectBan:                   "SELECT id, start, end, target, ip, issuer, reason FROM bans_logs WHERE id = ?",
		insertBan:                   "UPDATE players SET ban = ?, ban_reason = ? WHERE uuid = ?",
		insertBanTTL:                "UPDATE players USING TTL ? SET ban = ?, ban_reason = ? WHERE uuid = ?",
		clearBan:                    "UPDATE players SET ban = null, ban_reason = null WHERE uuid = ?",
		insertMute:                  "UPDATE players USING TTL ? SET mute = ? WHERE uuid = ?",
		clearMute:                   "UPDATE players SET mute = null WHERE uuid = ?",
		insertServer:                "INSERT INTO servers (id, label, kind, ip, key, state, description, properties, online) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)",
		deleteServer:                "DELETE FROM servers WHERE id = ?",
		selectServer:                "SELECT id, label, kind, ip, key, state, description, properties, online FROM servers WHERE id = ?",
		selectServerByLabel:         "SELECT id, label, kind, ip, key, state, description, properties, online FROM servers_by_label WHERE label = ?",
		selectAllServers:            "SELECT id, label, kind, ip, key, state, description, properties, online FROM servers",
		selectServersByKind:         "SELECT id, label, kind, ip, key, state, description, properties, online FROM servers_by_kind WHERE kind = ?",
		updateServerState:           "UPDATE servers SET state = ? WHERE id = ?",
		updateServerDescription:     "UPDATE servers SET description = ? WHERE id = ?",
		updateServerOnline:          "UPDATE servers SET online = ? WHERE id = ?",
		selectServerKind:            "SELECT name, image, permissions, autoscale_slots, autoscale_properties, autoscale_env, autoscale_min, startup FROM server_kinds WHERE name = ?",
		insertPlayer:                "INSERT INTO players (uuid, username, currency, premium_currency, groups) VALUES (?, ?, 0, 0, ['Default'])",
		selectPlayer:                "SELECT uuid, username, groups, permissions, locale, prefix, suffix, currency, premium_currency, inventory, properties, blocked, friends, discord_id, proxy, server, session, waiting_move_to, ban, ban_reason, mute FROM players WHERE uuid = ?",
		updatePlayerProxyOnlineInfo: "UPDATE players SET proxy = ?, session = ?, username = ? WHERE uuid = ?",
		updatePlayerServerOnlineInfo: "UPDATE players SET server = ? WHERE uuid = ?",
		updatePlayerWaitingMoveTo:    "UPDATE players SET waiting_move_to = ? WHERE uuid = ?",
		closePlayerSession:           "UPDATE players SET proxy = null, server = null, session = null, waiting_move_to = null WHERE uuid = ?",
		updatePlayerCurrency:         "UPDATE players SET currency = ?, premium_currency = ? WHERE uuid = ?",
		updatePlayerInventory:        "UPDATE players SET inventory = ? WHERE uuid = ?",
		updatePlayerProperty:         "UPDATE players SET properties[?] = ? WHERE uuid = ?",
		insertSession:                "INSERT INTO sessions (id, player, ip, version, brand, mods, start) VALUES (?, ?, ?, ?, ?, ?, toTimestamp(now()))",
		closeSession:                 "UPDATE sessions SET end = toTimestamp(now()) WHERE id = ?",
		updateSessionMods:            "UPDATE sessions SET mods = ? WHERE id = ?",
		updateSessionBrand:           "UPDATE sessions SET brand = ? WHERE id = ?",
		updateServerEchoKey:          "UPDATE servers SET key = ? WHERE id = ?",
		selectSessionIPsForPlayer:    "SELECT ip FROM sessions_by_player WHERE player = ?",
		selectPlayersByIP:            "SELECT uuid FROM sessions_by_ip WHERE ip = ?",
		selectPlayersWaitingForKind:  "SELECT uuid FROM players_waiting_by_kind WHERE kind = ? LIMIT ?",
		countPlayersOnServer:         "SELECT COUNT(*) FROM players_by_server WHERE server = ?",
		insertStats:                  "INSERT INTO statistics (player, server_kind, timestamp, key, value) VALUES (?, ?, toTimestamp(now()), ?, ?)",
		selectStats:                  "SELECT player, value FROM statistics WHERE key = ? AND timestamp >= ? ALLOW FILTERING",
		selectStatsByKind:            "SELECT player, value FROM statistics WHERE key = ? AND server_kind = ? AND timestamp >= ? ALLOW FILTERING",
		selectLeaderboardRules:       "SELECT name, label, stat_key, period, server_kind, size FROM leaderboard_rules",
		insertLeaderboard:            "INSERT INTO leaderboards (name, label, value) VALUES (?, ?, ?)",
		selectLeaderboard:            "SELECT name, label, value FROM leaderboards WHERE name = ?",
		selectSetting:                "SELECT value FROM settings WHERE key = ?",
		insertSetting:                "INSERT INTO settings (key, value) VALUES (?, ?)",
		selectGroup:                  "SELECT name, power, prefix, suffix, permissions FROM groups WHERE name = ?",
		selectSanctionBoard:          "SELECT category, label, sanctions FROM sanction_boards WHERE category = ?",
		selectSanctionState:          "SELECT player, category, value FROM sanction_states WHERE player = ? AND category = ?",
		upsertSanctionState:          "INSERT INTO sanction_states (player, category, value) VALUES (?, ?, ?)",
		insertDiscordLink:            "INSERT INTO discord_links (code, uuid) VALUES (?, ?) USING TTL ?",
		selectDiscordLink:            "SELECT code, uuid FROM discord_links WHERE code = ?",
		bindDiscord:                  "UPDATE players SET discord_id = ? WHERE uuid = ?",
		unbindDiscord:                "UPDATE players SET discord_id = null WHERE uuid = ?",
	}
}

// Repository implements repository.Repository over a gocql session. The
// prepared-statement catalog is immutable after New returns and is safe to
// share across the goroutines driving HTTP handlers, the bus consumer, and
// the reconciler loop (spec §5 "immutable after initialization").
type Repository struct {
	session *gocql.Session
	q       *catalog
}

// Config is the subset of internal/config.Config the scylla backend needs.
type Config struct {
	Address  string
	Keyspace string
	User     string
	Password string
}

// New opens a session against the cluster and stores the statement catalog.
// Reads default to gocql.Quorum (spec §4.1 "all reads default to quorum
// consistency"), set once on the cluster; there is no per-call override.
func New(cfg Config) (*Repository, error) {
	cluster := gocql.NewCluster(cfg.Address)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	if cfg.User != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{Username: cfg.User, Password: cfg.Password}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, apierr.Wrap(apierr.KindRepository, err, "connect to scylla")
	}

	return &Repository{session: session, q: newCatalog()}, nil
}

// Close releases the underlying session.
func (r *Repository) Close() { r.session.Close() }

func wrapErr(err error, msg string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if err == gocql.ErrNotFound {
		return nil
	}
	return apierr.Wrap(apierr.KindRepository, err, msg, args...)
}

// --- Player / session lifecycle ---

func (r *Repository) UpsertPlayerOnlineProxy(ctx context.Context, uuid, proxy, session, username string) error {
	if _, found, err := r.GetPlayer(ctx, uuid); err == nil && !found {
		if insertErr := r.session.Query(r.q.insertPlayer, uuid, username).WithContext(ctx).Exec(); insertErr != nil {
			return wrapErr(insertErr, "insert player %s", uuid)
		}
	}
	err := r.session.Query(r.q.updatePlayerProxyOnlineInfo, proxy, session, username, uuid).WithContext(ctx).Exec()
	return wrapErr(err, "update player proxy online info for %s", uuid)
}

func (r *Repository) NullPlayerSession(ctx context.Context, uuid string) error {
	err := r.session.Query(r.q.closePlayerSession, uuid).WithContext(ctx).Exec()
	return wrapErr(err, "null player session for %s", uuid)
}

func (r *Repository) GetPlayer(ctx context.Context, uuid string) (model.Player, bool, error) {
	var p model.Player
	iter := r.session.Query(r.q.selectPlayer, uuid).WithContext(ctx).Iter()
	found := iter.Scan(&p.UUID, &p.Username, &p.Groups, &p.Permissions, &p.Locale, &p.Prefix, &p.Suffix,
		&p.Currency, &p.PremiumCurrency, &p.Inventory, &p.Properties, &p.Blocked, &p.Friends,
		&p.DiscordID, &p.Proxy, &p.Server, &p.Session, &p.WaitingMoveTo, &p.Ban, &p.BanReason, &p.Mute)
	if err := iter.Close(); err != nil {
		return model.Player{}, false, wrapErr(err, "select player %s", uuid)
	}
	return p, found, nil
}

func (r *Repository) GetPlayerByUsername(ctx context.Context, username string) (model.Player, bool, error) {
	return model.Player{}, false, apierr.New(apierr.KindInternal, "GetPlayerByUsername requires a players_by_username materialized view not modeled here")
}

func (r *Repository) UpsertPlayer(ctx context.Context, p model.Player) error {
	err := r.session.Query(r.q.insertPlayer, p.UUID, p.Username).WithContext(ctx).Exec()
	return wrapErr(err, "upsert player %s", p.UUID)
}

func (r *Repository) SetPlayerServer(ctx context.Context, uuid, server string, clearWaiting bool) error {
	if clearWaiting {
		if err := r.SetWaitingMoveTo(ctx, uuid, ""); err != nil {
			return err
		}
	}
	err := r.session.Query(r.q.updatePlayerServerOnlineInfo, server, uuid).WithContext(ctx).Exec()
	return wrapErr(err, "set player server for %s", uuid)
}

func (r *Repository) SetWaitingMoveTo(ctx context.Context, uuid, kind string) error {
	var val interface{} = kind
	if kind == "" {
		val = nil
	}
	err := r.session.Query(r.q.updatePlayerWaitingMoveTo, val, uuid).WithContext(ctx).Exec()
	return wrapErr(err, "set waiting_move_to for %s", uuid)
}

func (r *Repository) SetServerClearWaiting(ctx context.Context, uuid, server string, ttl time.Duration) error {
	return r.SetPlayerServer(ctx, uuid, server, true)
}

func (r *Repository) UpdatePlayerCurrency(ctx context.Context, uuid string, currencyDelta, premiumDelta int64) (model.Player, error) {
	p, found, err := r.GetPlayer(ctx, uuid)
	if err != nil {
		return model.Player{}, err
	}
	if !found {
		return model.Player{}, apierr.New(apierr.KindNotFound, "player %s not found", uuid)
	}
	if p.Currency+currencyDelta < 0 || p.PremiumCurrency+premiumDelta < 0 {
		return model.Player{}, apierr.New(apierr.KindValidation, "insufficient currency")
	}
	p.Currency += currencyDelta
	p.PremiumCurrency += premiumDelta
	err = r.session.Query(r.q.updatePlayerCurrency, p.Currency, p.PremiumCurrency, uuid).WithContext(ctx).Exec()
	return p, wrapErr(err, "update player currency for %s", uuid)
}

func (r *Repository) UpdatePlayerInventory(ctx context.Context, uuid string, delta map[string]int) (model.Player, error) {
	p, found, err := r.GetPlayer(ctx, uuid)
	if err != nil {
		return model.Player{}, err
	}
	if !found {
		return model.Player{}, apierr.New(apierr.KindNotFound, "player %s not found", uuid)
	}
	if p.Inventory == nil {
		p.Inventory = map[string]int{}
	}
	for item, d := range delta {
		if p.Inventory[item]+d < 0 {
			return model.Player{}, apierr.New(apierr.KindValidation, "insufficient item %s", item)
		}
	}
	for item, d := range delta {
		p.Inventory[item] += d
	}
	err = r.session.Query(r.q.updatePlayerInventory, p.Inventory, uuid).WithContext(ctx).Exec()
	return p, wrapErr(err, "update player inventory for %s", uuid)
}

func (r *Repository) UpdatePlayerGroups(ctx context.Context, uuid string, updates []repository.GroupUpdate) (model.Player, bool, error) {
	p, found, err := r.GetPlayer(ctx, uuid)
	if err != nil {
		return model.Player{}, false, err
	}
	if !found {
		return model.Player{}, false, apierr.New(apierr.KindNotFound, "player %s not found", uuid)
	}
	changed := false
	for _, u := range updates {
		if u.Remove {
			for i, g := range p.Groups {
				if g == u.Name {
					p.Groups = append(p.Groups[:i], p.Groups[i+1:]...)
					changed = true
					break
				}
			}
			continue
		}
		has := false
		for _, g := range p.Groups {
			if g == u.Name {
				has = true
				break
			}
		}
		if !has {
			p.Groups = append(p.Groups, u.Name)
			changed = true
		}
	}
	if !changed {
		return p, false, nil
	}
	err = r.session.Query("UPDATE players SET groups = ? WHERE uuid = ?", p.Groups, uuid).WithContext(ctx).Exec()
	return p, true, wrapErr(err, "update player groups for %s", uuid)
}

func (r *Repository) UpdatePlayerProperty(ctx context.Context, uuid, key, value string) error {
	err := r.session.Query(r.q.updatePlayerProperty, key, value, uuid).WithContext(ctx).Exec()
	return wrapErr(err, "update player property for %s", uuid)
}

func (r *Repository) InsertSession(ctx context.Context, s model.Session) error {
	err := r.session.Query(r.q.insertSession, s.ID, s.Player, s.IP, s.Version, s.Brand, s.Mods).WithContext(ctx).Exec()
	return wrapErr(err, "insert session %s", s.ID)
}

func (r *Repository) CloseSession(ctx context.Context, id string) error {
	err := r.session.Query(r.q.closeSession, id).WithContext(ctx).Exec()
	return wrapErr(err, "close session %s", id)
}

func (r *Repository) UpdateSessionMods(ctx context.Context, id string, mods map[string]string) error {
	err := r.session.Query(r.q.updateSessionMods, mods, id).WithContext(ctx).Exec()
	return wrapErr(err, "update session %s mods", id)
}

func (r *Repository) UpdateSessionBrand(ctx context.Context, id, brand string) error {
	err := r.session.Query(r.q.updateSessionBrand, brand, id).WithContext(ctx).Exec()
	return wrapErr(err, "update session %s brand", id)
}

func (r *Repository) ListPlayersWaitingForKind(ctx context.Context, kind string, limit int) ([]model.Player, error) {
	iter := r.session.Query(r.q.selectPlayersWaitingForKind, kind, limit).WithContext(ctx).Iter()
	var uuids []string
	var uuid string
	for iter.Scan(&uuid) {
		uuids = append(uuids, uuid)
	}
	if err := iter.Close(); err != nil {
		return nil, wrapErr(err, "list players waiting for kind %s", kind)
	}
	out := make([]model.Player, 0, len(uuids))
	for _, u := range uuids {
		p, found, err := r.GetPlayer(ctx, u)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repository) ListPlayersByProxy(ctx context.Context, proxyID string) ([]model.Player, error) {
	iter := r.session.Query("SELECT uuid FROM players_by_proxy WHERE proxy = ?", proxyID).WithContext(ctx).Iter()
	var uuids []string
	var uuid string
	for iter.Scan(&uuid) {
		uuids = append(uuids, uuid)
	}
	if err := iter.Close(); err != nil {
		return nil, wrapErr(err, "list players by proxy %s", proxyID)
	}
	out := make([]model.Player, 0, len(uuids))
	for _, u := range uuids {
		p, found, err := r.GetPlayer(ctx, u)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- Moderation ---

func (r *Repository) InsertBanLog(ctx context.Context, b model.Ban) (string, error) {
	if b.ID == "" {
		b.ID = gocql.TimeUUID().String()
	}
	err := r.session.Query(r.q.insertBanLog, b.ID, b.End, b.Target, b.IP, b.Issuer, b.Reason).WithContext(ctx).Exec()
	return b.ID, wrapErr(err, "insert ban log")
}

func (r *Repository) ApplyBan(ctx context.Context, uuid, banID, reason string, ttl time.Duration) error {
	var err error
	if ttl > 0 {
		err = r.session.Query(r.q.insertBanTTL, int(ttl.Seconds()), banID, reason, uuid).WithContext(ctx).Exec()
	} else {
		err = r.session.Query(r.q.insertBan, banID, reason, uuid).WithContext(ctx).Exec()
	}
	return wrapErr(err, "apply ban to %s", uuid)
}

func (r *Repository) ClearBan(ctx context.Context, uuid string) error {
	err := r.session.Query(r.q.clearBan, uuid).WithContext(ctx).Exec()
	return wrapErr(err, "clear ban for %s", uuid)
}

func (r *Repository) GetBan(ctx context.Context, id string) (model.Ban, bool, error) {
	var b model.Ban
	iter := r.session.Query(r.q.selectBan, id).WithContext(ctx).Iter()
	found := iter.Scan(&b.ID, &b.Start, &b.End, &b.Target, &b.IP, &b.Issuer, &b.Reason)
	if err := iter.Close(); err != nil {
		return model.Ban{}, false, wrapErr(err, "select ban %s", id)
	}
	return b, found, nil
}

func (r *Repository) ApplyMute(ctx context.Context, uuid, muteID string, ttl time.Duration) error {
	seconds := int(ttl.Seconds())
	if seconds <= 0 {
		seconds = 100 * 365 * 24 * 3600 // effectively permanent; scylla TTL has no "forever" sentinel
	}
	err := r.session.Query(r.q.insertMute, seconds, muteID, uuid).WithContext(ctx).Exec()
	return wrapErr(err, "apply mute to %s", uuid)
}

func (r *Repository) ClearMute(ctx context.Context, uuid string) error {
	err := r.session.Query(r.q.clearMute, uuid).WithContext(ctx).Exec()
	return wrapErr(err, "clear mute for %s", uuid)
}

func (r *Repository) ListPlayersByIP(ctx context.Context, ip string) ([]model.Player, error) {
	iter := r.session.Query(r.q.selectPlayersByIP, ip).WithContext(ctx).Iter()
	var uuids []string
	var uuid string
	for iter.Scan(&uuid) {
		uuids = append(uuids, uuid)
	}
	if err := iter.Close(); err != nil {
		return nil, wrapErr(err, "list players by ip %s", ip)
	}
	out := make([]model.Player, 0, len(uuids))
	for _, u := range uuids {
		p, found, err := r.GetPlayer(ctx, u)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repository) SessionIPsForPlayer(ctx context.Context, uuid string) ([]string, error) {
	iter := r.session.Query(r.q.selectSessionIPsForPlayer, uuid).WithContext(ctx).Iter()
	var ips []string
	var ip string
	for iter.Scan(&ip) {
		ips = append(ips, ip)
	}
	return ips, wrapErr(iter.Close(), "select session ips for %s", uuid)
}

func (r *Repository) GetIPBan(ctx context.Context, ip string) (model.IPBan, bool, error) {
	var b model.IPBan
	iter := r.session.Query(r.q.selectIPBan, ip).WithContext(ctx).Iter()
	found := iter.Scan(&b.IP, &b.Reason, &b.Start, &b.End, &b.Ban, &b.Automated)
	if err := iter.Close(); err != nil {
		return model.IPBan{}, false, wrapErr(err, "select ip ban %s", ip)
	}
	return b, found, nil
}

func (r *Repository) InsertIPBan(ctx context.Context, b model.IPBan, ttl time.Duration) error {
	var err error
	if ttl > 0 {
		err = r.session.Query(r.q.insertIPBanTTL, b.IP, b.Reason, b.End, b.Ban, b.Automated, int(ttl.Seconds())).WithContext(ctx).Exec()
	} else {
		err = r.session.Query(r.q.insertIPBan, b.IP, b.Reason, b.Ban, b.Automated).WithContext(ctx).Exec()
	}
	return wrapErr(err, "insert ip ban %s", b.IP)
}

func (r *Repository) ClearIPBan(ctx context.Context, ip string) error {
	err := r.session.Query(r.q.clearIPBan, ip).WithContext(ctx).Exec()
	return wrapErr(err, "clear ip ban %s", ip)
}

func (r *Repository) GetSanctionBoard(ctx context.Context, category string) (model.SanctionBoard, bool, error) {
	var b model.SanctionBoard
	iter := r.session.Query(r.q.selectSanctionBoard, category).WithContext(ctx).Iter()
	found := iter.Scan(&b.Category, &b.Label, &b.Sanctions)
	if err := iter.Close(); err != nil {
		return model.SanctionBoard{}, false, wrapErr(err, "select sanction board %s", category)
	}
	return b, found, nil
}

func (r *Repository) GetSanctionState(ctx context.Context, player, category string) (model.SanctionState, bool, error) {
	var s model.SanctionState
	iter := r.session.Query(r.q.selectSanctionState, player, category).WithContext(ctx).Iter()
	found := iter.Scan(&s.Player, &s.Category, &s.Value)
	if err := iter.Close(); err != nil {
		return model.SanctionState{}, false, wrapErr(err, "select sanction state for %s/%s", player, category)
	}
	return s, found, nil
}

func (r *Repository) SetSanctionState(ctx context.Context, player, category string, value int) error {
	err := r.session.Query(r.q.upsertSanctionState, player, category, value).WithContext(ctx).Exec()
	return wrapErr(err, "set sanction state for %s/%s", player, category)
}

// --- Servers / kinds ---

func (r *Repository) CreateServer(ctx context.Context, s model.Server) error {
	err := r.session.Query(r.q.insertServer, s.ID, s.Label, s.Kind, s.IP, s.Key, string(s.State), s.Description, s.Properties).WithContext(ctx).Exec()
	return wrapErr(err, "create server %s", s.ID)
}

func (r *Repository) scanServer(iter *gocql.Iter) (model.Server, bool) {
	var s model.Server
	var state string
	found := iter.Scan(&s.ID, &s.Label, &s.Kind, &s.IP, &s.Key, &state, &s.Description, &s.Properties, &s.Online)
	s.State = model.ServerState(state)
	return s, found
}

func (r *Repository) GetServer(ctx context.Context, idOrLabel string) (model.Server, bool, error) {
	iter := r.session.Query(r.q.selectServer, idOrLabel).WithContext(ctx).Iter()
	s, found := r.scanServer(iter)
	if err := iter.Close(); err == nil && found {
		return s, true, nil
	}
	iter = r.session.Query(r.q.selectServerByLabel, idOrLabel).WithContext(ctx).Iter()
	s, found = r.scanServer(iter)
	if err := iter.Close(); err != nil {
		return model.Server{}, false, wrapErr(err, "select server %s", idOrLabel)
	}
	return s, found, nil
}

func (r *Repository) listServersByQuery(ctx context.Context, stmt string, args ...interface{}) ([]model.Server, error) {
	iter := r.session.Query(stmt, args...).WithContext(ctx).Iter()
	var out []model.Server
	for {
		s, found := r.scanServer(iter)
		if !found {
			break
		}
		out = append(out, s)
	}
	return out, wrapErr(iter.Close(), "list servers")
}

func (r *Repository) ListServers(ctx context.Context) ([]model.Server, error) {
	return r.listServersByQuery(ctx, r.q.selectAllServers)
}

func (r *Repository) ListServersByKind(ctx context.Context, kind string) ([]model.Server, error) {
	return r.listServersByQuery(ctx, r.q.selectServersByKind, kind)
}

func (r *Repository) ListServersByKindAndStates(ctx context.Context, kind string, states []model.ServerState) ([]model.Server, error) {
	all, err := r.listServersByQuery(ctx, r.q.selectServersByKind, kind)
	if err != nil {
		return nil, err
	}
	want := map[model.ServerState]bool{}
	for _, s := range states {
		want[s] = true
	}
	out := make([]model.Server, 0, len(all))
	for _, s := range all {
		if want[s.State] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *Repository) SetServerState(ctx context.Context, id string, state model.ServerState) error {
	err := r.session.Query(r.q.updateServerState, string(state), id).WithContext(ctx).Exec()
	return wrapErr(err, "set server state for %s", id)
}

func (r *Repository) SetServerDescription(ctx context.Context, id, description string) error {
	err := r.session.Query(r.q.updateServerDescription, description, id).WithContext(ctx).Exec()
	return wrapErr(err, "set server description for %s", id)
}

func (r *Repository) SetServerOnline(ctx context.Context, id string, online int) error {
	err := r.session.Query(r.q.updateServerOnline, online, id).WithContext(ctx).Exec()
	return wrapErr(err, "set server online for %s", id)
}

func (r *Repository) SetServerEchoKey(ctx context.Context, id, key string) error {
	err := r.session.Query(r.q.updateServerEchoKey, key, id).WithContext(ctx).Exec()
	return wrapErr(err, "set server echo key for %s", id)
}

func (r *Repository) CountPlayersOnServer(ctx context.Context, serverID string) (int, error) {
	var count int
	err := r.session.Query(r.q.countPlayersOnServer, serverID).WithContext(ctx).Scan(&count)
	return count, wrapErr(err, "count players on server %s", serverID)
}

func (r *Repository) DeleteServer(ctx context.Context, id string) error {
	err := r.session.Query(r.q.deleteServer, id).WithContext(ctx).Exec()
	return wrapErr(err, "delete server %s", id)
}

func (r *Repository) GetServerKind(ctx context.Context, name string) (model.ServerKind, bool, error) {
	var k model.ServerKind
	var slots, min int
	var props, env map[string]string
	k.Autoscale = nil
	iter := r.session.Query(r.q.selectServerKind, name).WithContext(ctx).Iter()
	found := iter.Scan(&k.Name, &k.Image, &k.Permissions, &slots, &props, &env, &min, &k.Startup)
	if err := iter.Close(); err != nil {
		return model.ServerKind{}, false, wrapErr(err, "select server kind %s", name)
	}
	if found && (slots != 0 || min != 0 || len(props) > 0 || len(env) > 0) {
		k.Autoscale = &model.AutoscaleSimple{Slots: slots, Properties: props, Env: env, Min: min}
	}
	return k, found, nil
}

// --- Stats / leaderboards ---

func (r *Repository) selectStatsQuery(ctx context.Context, stmt string, args ...interface{}) (map[string]int64, error) {
	iter := r.session.Query(stmt, args...).WithContext(ctx).Iter()
	out := map[string]int64{}
	var player string
	var value int64
	for iter.Scan(&player, &value) {
		out[player] += value
	}
	return out, wrapErr(iter.Close(), "select stats")
}

func (r *Repository) SelectStats(ctx context.Context, key string, since time.Time) (map[string]int64, error) {
	return r.selectStatsQuery(ctx, r.q.selectStats, key, since)
}

func (r *Repository) SelectStatsByKind(ctx context.Context, key, kind string, since time.Time) (map[string]int64, error) {
	return r.selectStatsQuery(ctx, r.q.selectStatsByKind, key, kind, since)
}

func (r *Repository) ListLeaderboardRules(ctx context.Context) ([]model.Leaderboard, error) {
	iter := r.session.Query(r.q.selectLeaderboardRules).WithContext(ctx).Iter()
	var out []model.Leaderboard
	var lb model.Leaderboard
	var period string
	for iter.Scan(&lb.Name, &lb.Label, &lb.Rule.StatKey, &period, &lb.Rule.ServerKind, &lb.Rule.Size) {
		lb.Rule.Period = model.LeaderboardPeriod(period)
		out = append(out, lb)
		lb = model.Leaderboard{}
	}
	return out, wrapErr(iter.Close(), "list leaderboard rules")
}

func (r *Repository) SaveLeaderboard(ctx context.Context, lb model.Leaderboard) error {
	err := r.session.Query(r.q.insertLeaderboard, lb.Name, lb.Label, lb.Value).WithContext(ctx).Exec()
	return wrapErr(err, "save leaderboard %s", lb.Name)
}

func (r *Repository) GetLeaderboard(ctx context.Context, name string) (model.Leaderboard, bool, error) {
	var lb model.Leaderboard
	iter := r.session.Query(r.q.selectLeaderboard, name).WithContext(ctx).Iter()
	found := iter.Scan(&lb.Name, &lb.Label, &lb.Value)
	if err := iter.Close(); err != nil {
		return model.Leaderboard{}, false, wrapErr(err, "select leaderboard %s", name)
	}
	return lb, found, nil
}

// --- API keys / settings / discord ---

func (r *Repository) GetAPIKey(ctx context.Context, key string) (model.ApiKey, bool, error) {
	var k model.ApiKey
	iter := r.session.Query(r.q.selectAPIKey, key).WithContext(ctx).Iter()
	found := iter.Scan(&k.Key, &k.Group, &k.LastUsed)
	if err := iter.Close(); err != nil {
		return model.ApiKey{}, false, wrapErr(err, "select api key")
	}
	return k, found, nil
}

func (r *Repository) TouchAPIKey(ctx context.Context, key string) error {
	err := r.session.Query(r.q.touchAPIKey, time.Now(), key).WithContext(ctx).Exec()
	return wrapErr(err, "touch api key")
}

func (r *Repository) GetAPIGroup(ctx context.Context, name string) (model.ApiGroup, bool, error) {
	var g model.ApiGroup
	iter := r.session.Query(r.q.selectAPIGroup, name).WithContext(ctx).Iter()
	found := iter.Scan(&g.Name, &g.Permissions)
	if err := iter.Close(); err != nil {
		return model.ApiGroup{}, false, wrapErr(err, "select api group %s", name)
	}
	return g, found, nil
}

func (r *Repository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var v string
	iter := r.session.Query(r.q.selectSetting, key).WithContext(ctx).Iter()
	found := iter.Scan(&v)
	if err := iter.Close(); err != nil {
		return "", false, wrapErr(err, "select setting %s", key)
	}
	return v, found, nil
}

func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	err := r.session.Query(r.q.insertSetting, key, value).WithContext(ctx).Exec()
	return wrapErr(err, "set setting %s", key)
}

func (r *Repository) CreateDiscordLink(ctx context.Context, uuid string, ttl time.Duration) (model.DiscordLink, error) {
	link := model.DiscordLink{Code: gocql.TimeUUID().String()[:8], UUID: uuid}
	err := r.session.Query(r.q.insertDiscordLink, link.Code, link.UUID, int(ttl.Seconds())).WithContext(ctx).Exec()
	return link, wrapErr(err, "create discord link for %s", uuid)
}

func (r *Repository) ResolveDiscordLink(ctx context.Context, code string) (model.DiscordLink, bool, error) {
	var link model.DiscordLink
	iter := r.session.Query(r.q.selectDiscordLink, code).WithContext(ctx).Iter()
	found := iter.Scan(&link.Code, &link.UUID)
	if err := iter.Close(); err != nil {
		return model.DiscordLink{}, false, wrapErr(err, "select discord link %s", code)
	}
	return link, found, nil
}

func (r *Repository) BindDiscord(ctx context.Context, uuid, discordID string) error {
	err := r.session.Query(r.q.bindDiscord, discordID, uuid).WithContext(ctx).Exec()
	return wrapErr(err, "bind discord for %s", uuid)
}

func (r *Repository) UnbindDiscord(ctx context.Context, discordID string) error {
	players, err := r.ListPlayersByDiscordID(ctx, discordID)
	if err != nil {
		return err
	}
	for _, p := range players {
		if err := r.session.Query(r.q.unbindDiscord, p.UUID).WithContext(ctx).Exec(); err != nil {
			return wrapErr(err, "unbind discord for %s", p.UUID)
		}
	}
	return nil
}

func (r *Repository) GetPlayerByDiscordID(ctx context.Context, discordID string) (model.Player, bool, error) {
	players, err := r.ListPlayersByDiscordID(ctx, discordID)
	if err != nil {
		return model.Player{}, false, err
	}
	if len(players) == 0 {
		return model.Player{}, false, nil
	}
	return players[0], true, nil
}

// ListPlayersByDiscordID is a helper used by UnbindDiscord and
// GetPlayerByDiscordID; the schema
// needs a players_by_discord_id materialized view for this to be efficient
// in production, noted here rather than hidden inside a TODO.
func (r *Repository) ListPlayersByDiscordID(ctx context.Context, discordID string) ([]model.Player, error) {
	iter := r.session.Query("SELECT uuid FROM players_by_discord_id WHERE discord_id = ?", discordID).WithContext(ctx).Iter()
	var uuids []string
	var uuid string
	for iter.Scan(&uuid) {
		uuids = append(uuids, uuid)
	}
	if err := iter.Close(); err != nil {
		return nil, wrapErr(err, "list players by discord id")
	}
	out := make([]model.Player, 0, len(uuids))
	for _, u := range uuids {
		p, found, err := r.GetPlayer(ctx, u)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repository) GetGroup(ctx context.Context, name string) (model.Group, bool, error) {
	var g model.Group
	iter := r.session.Query(r.q.selectGroup, name).WithContext(ctx).Iter()
	found := iter.Scan(&g.Name, &g.Power, &g.Prefix, &g.Suffix, &g.Permissions)
	if err := iter.Close(); err != nil {
		return model.Group{}, false, wrapErr(err, "select group %s", name)
	}
	return g, found, nil
}

func (r *Repository) ListGroups(ctx context.Context, names []string) ([]model.Group, error) {
	out := make([]model.Group, 0, len(names))
	for _, n := range names {
		g, found, err := r.GetGroup(ctx, n)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, g)
		}
	}
	return out, nil
}

var _ repository.Repository = (*Repository)(nil)
