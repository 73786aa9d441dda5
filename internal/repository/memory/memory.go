// Package memory is an in-process fake of repository.Repository used by
// every other component's tests in place of a real cluster.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/menestis/skynet/internal/apierr"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/repository"
)

type ttlValue[T any] struct {
	value T
	until time.Time
}

func (t ttlValue[T]) expired(now time.Time) bool {
	return !t.until.IsZero() && now.After(t.until)
}

// Repository is a map/mutex backed fake satisfying repository.Repository.
type Repository struct {
	mu sync.Mutex

	players  map[string]model.Player
	sessions map[string]model.Session
	servers  map[string]model.Server
	kinds    map[string]model.ServerKind
	groups   map[string]model.Group

	bans    map[string]model.Ban
	ipBans  map[string]ttlValue[model.IPBan]
	boards  map[string]model.SanctionBoard
	cursors map[string]model.SanctionState

	stats map[string]map[string]int64 // key -> uuid -> value

	rules        []model.Leaderboard
	leaderboards map[string]model.Leaderboard

	apiKeys   map[string]model.ApiKey
	apiGroups map[string]model.ApiGroup
	settings  map[string]string

	discordLinks map[string]ttlValue[model.DiscordLink]
	discordBind  map[string]string // discordID -> uuid
}

// New returns an empty fake repository.
func New() *Repository {
	return &Repository{
		players:      make(map[string]model.Player),
		sessions:     make(map[string]model.Session),
		servers:      make(map[string]model.Server),
		kinds:        make(map[string]model.ServerKind),
		groups:       make(map[string]model.Group),
		bans:         make(map[string]model.Ban),
		ipBans:       make(map[string]ttlValue[model.IPBan]),
		boards:       make(map[string]model.SanctionBoard),
		cursors:      make(map[string]model.SanctionState),
		stats:        make(map[string]map[string]int64),
		leaderboards: make(map[string]model.Leaderboard),
		apiKeys:      make(map[string]model.ApiKey),
		apiGroups:    make(map[string]model.ApiGroup),
		settings:     make(map[string]string),
		discordLinks: make(map[string]ttlValue[model.DiscordLink]),
		discordBind:  make(map[string]string),
	}
}

// SeedKind registers a ServerKind for tests without going through the HTTP surface.
func (r *Repository) SeedKind(k model.ServerKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[k.Name] = k
}

// SeedGroup registers a Group for tests.
func (r *Repository) SeedGroup(g model.Group) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[g.Name] = g
}

// SeedSanctionBoard registers a SanctionBoard for tests.
func (r *Repository) SeedSanctionBoard(b model.SanctionBoard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards[b.Category] = b
}

// SeedSetting sets a setting key for tests.
func (r *Repository) SeedSetting(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[key] = value
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMapString(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneMapInt(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func repoErr(msg string, args ...interface{}) error {
	return apierr.New(apierr.KindRepository, msg, args...)
}

// --- Player / session lifecycle ---

func (r *Repository) UpsertPlayerOnlineProxy(ctx context.Context, uuid, proxy, session, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		p = model.Player{UUID: uuid, Username: username}
	}
	p.Username = username
	p.Proxy = proxy
	p.Session = session
	r.players[uuid] = p
	return nil
}

func (r *Repository) NullPlayerSession(ctx context.Context, uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		return nil
	}
	p.Proxy = ""
	p.Server = ""
	p.Session = ""
	p.WaitingMoveTo = ""
	r.players[uuid] = p
	return nil
}

func (r *Repository) GetPlayer(ctx context.Context, uuid string) (model.Player, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	return p, ok, nil
}

func (r *Repository) GetPlayerByUsername(ctx context.Context, username string) (model.Player, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Username == username {
			return p, true, nil
		}
	}
	return model.Player{}, false, nil
}

func (r *Repository) UpsertPlayer(ctx context.Context, p model.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.UUID] = p
	return nil
}

func (r *Repository) SetPlayerServer(ctx context.Context, uuid, server string, clearWaiting bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		return repoErr("player %s not found", uuid)
	}
	p.Server = server
	if clearWaiting {
		p.WaitingMoveTo = ""
	}
	r.players[uuid] = p
	return nil
}

func (r *Repository) SetWaitingMoveTo(ctx context.Context, uuid, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		return repoErr("player %s not found", uuid)
	}
	p.WaitingMoveTo = kind
	r.players[uuid] = p
	return nil
}

func (r *Repository) SetServerClearWaiting(ctx context.Context, uuid, server string, ttl time.Duration) error {
	return r.SetPlayerServer(ctx, uuid, server, true)
}

func (r *Repository) UpdatePlayerCurrency(ctx context.Context, uuid string, currencyDelta, premiumDelta int64) (model.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		return model.Player{}, repoErr("player %s not found", uuid)
	}
	if p.Currency+currencyDelta < 0 || p.PremiumCurrency+premiumDelta < 0 {
		return model.Player{}, apierr.New(apierr.KindValidation, "insufficient currency")
	}
	p.Currency += currencyDelta
	p.PremiumCurrency += premiumDelta
	r.players[uuid] = p
	return p, nil
}

func (r *Repository) UpdatePlayerInventory(ctx context.Context, uuid string, delta map[string]int) (model.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		return model.Player{}, repoErr("player %s not found", uuid)
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
	r.players[uuid] = p
	return p, nil
}

func (r *Repository) UpdatePlayerGroups(ctx context.Context, uuid string, updates []repository.GroupUpdate) (model.Player, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		return model.Player{}, false, repoErr("player %s not found", uuid)
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
		found := false
		for _, g := range p.Groups {
			if g == u.Name {
				found = true
				break
			}
		}
		if !found {
			p.Groups = append(p.Groups, u.Name)
			changed = true
		}
		// u.TTL is not applied: the group is added without expiry, as in the
		// scylla backend.
	}
	r.players[uuid] = p
	return p, changed, nil
}

func (r *Repository) UpdatePlayerProperty(ctx context.Context, uuid, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		return repoErr("player %s not found", uuid)
	}
	if p.Properties == nil {
		p.Properties = map[string]string{}
	}
	p.Properties[key] = value
	r.players[uuid] = p
	return nil
}

func (r *Repository) InsertSession(ctx context.Context, s model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *Repository) CloseSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	now := time.Now()
	s.End = &now
	r.sessions[id] = s
	return nil
}

func (r *Repository) UpdateSessionMods(ctx context.Context, id string, mods map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	s.Mods = mods
	r.sessions[id] = s
	return nil
}

func (r *Repository) UpdateSessionBrand(ctx context.Context, id, brand string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	s.Brand = brand
	r.sessions[id] = s
	return nil
}

func (r *Repository) ListPlayersWaitingForKind(ctx context.Context, kind string, limit int) ([]model.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Player
	for _, p := range r.players {
		if p.WaitingMoveTo == kind {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repository) ListPlayersByProxy(ctx context.Context, proxyID string) ([]model.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Player
	for _, p := range r.players {
		if p.Proxy == proxyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })
	return out, nil
}

// --- Moderation ---

func (r *Repository) InsertBanLog(ctx context.Context, b model.Ban) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	r.bans[b.ID] = b
	return b.ID, nil
}

func (r *Repository) ApplyBan(ctx context.Context, uuid, banID, reason string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		return repoErr("player %s not found", uuid)
	}
	p.Ban = banID
	p.BanReason = reason
	r.players[uuid] = p
	return nil
}

func (r *Repository) ClearBan(ctx context.Context, uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		return nil
	}
	p.Ban = ""
	p.BanReason = ""
	r.players[uuid] = p
	return nil
}

func (r *Repository) GetBan(ctx context.Context, id string) (model.Ban, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bans[id]
	return b, ok, nil
}

func (r *Repository) ApplyMute(ctx context.Context, uuid, muteID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		return repoErr("player %s not found", uuid)
	}
	p.Mute = muteID
	r.players[uuid] = p
	return nil
}

func (r *Repository) ClearMute(ctx context.Context, uuid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[uuid]
	if !ok {
		return nil
	}
	p.Mute = ""
	r.players[uuid] = p
	return nil
}

func (r *Repository) ListPlayersByIP(ctx context.Context, ip string) ([]model.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Player
	for _, s := range r.sessions {
		if s.IP != ip {
			continue
		}
		if p, ok := r.players[s.Player]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repository) SessionIPsForPlayer(ctx context.Context, uuid string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var ips []string
	for _, s := range r.sessions {
		if s.Player != uuid {
			continue
		}
		if !seen[s.IP] {
			seen[s.IP] = true
			ips = append(ips, s.IP)
		}
	}
	return ips, nil
}

func (r *Repository) GetIPBan(ctx context.Context, ip string) (model.IPBan, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.ipBans[ip]
	if !ok || v.expired(time.Now()) {
		return model.IPBan{}, false, nil
	}
	return v.value, true, nil
}

func (r *Repository) InsertIPBan(ctx context.Context, b model.IPBan, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var until time.Time
	if ttl != 0 {
		until = time.Now().Add(ttl)
	}
	r.ipBans[b.IP] = ttlValue[model.IPBan]{value: b, until: until}
	return nil
}

func (r *Repository) ClearIPBan(ctx context.Context, ip string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ipBans, ip)
	return nil
}

func (r *Repository) GetSanctionBoard(ctx context.Context, category string) (model.SanctionBoard, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.boards[category]
	return b, ok, nil
}

func (r *Repository) GetSanctionState(ctx context.Context, player, category string) (model.SanctionState, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.cursors[player+"|"+category]
	return s, ok, nil
}

func (r *Repository) SetSanctionState(ctx context.Context, player, category string, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursors[player+"|"+category] = model.SanctionState{Player: player, Category: category, Value: value}
	return nil
}

// --- Servers / kinds ---

func (r *Repository) CreateServer(ctx context.Context, s model.Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[s.ID] = s
	return nil
}

func (r *Repository) GetServer(ctx context.Context, idOrLabel string) (model.Server, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.servers[idOrLabel]; ok {
		return s, true, nil
	}
	for _, s := range r.servers {
		if s.Label == idOrLabel {
			return s, true, nil
		}
	}
	return model.Server{}, false, nil
}

func (r *Repository) ListServers(ctx context.Context) ([]model.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Server, 0, len(r.servers))
	for _, s := range r.servers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) ListServersByKind(ctx context.Context, kind string) ([]model.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Server
	for _, s := range r.servers {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) ListServersByKindAndStates(ctx context.Context, kind string, states []model.ServerState) ([]model.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[model.ServerState]bool{}
	for _, s := range states {
		want[s] = true
	}
	var out []model.Server
	for _, s := range r.servers {
		if s.Kind == kind && want[s.State] {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) SetServerState(ctx context.Context, id string, state model.ServerState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok {
		return repoErr("server %s not found", id)
	}
	s.State = state
	r.servers[id] = s
	return nil
}

func (r *Repository) SetServerDescription(ctx context.Context, id, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok {
		return repoErr("server %s not found", id)
	}
	s.Description = description
	r.servers[id] = s
	return nil
}

func (r *Repository) SetServerOnline(ctx context.Context, id string, online int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok {
		return repoErr("server %s not found", id)
	}
	s.Online = online
	r.servers[id] = s
	return nil
}

func (r *Repository) SetServerEchoKey(ctx context.Context, id, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[id]
	if !ok {
		return repoErr("server %s not found", id)
	}
	s.Key = key
	r.servers[id] = s
	return nil
}

func (r *Repository) CountPlayersOnServer(ctx context.Context, serverID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.players {
		if p.Server == serverID {
			n++
		}
	}
	return n, nil
}

func (r *Repository) DeleteServer(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.servers, id)
	return nil
}

func (r *Repository) GetServerKind(ctx context.Context, name string) (model.ServerKind, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.kinds[name]
	return k, ok, nil
}

// --- Stats / leaderboards ---

func (r *Repository) SelectStats(ctx context.Context, key string, since time.Time) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneStatsMap(r.stats[key]), nil
}

func (r *Repository) SelectStatsByKind(ctx context.Context, key, kind string, since time.Time) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneStatsMap(r.stats[key+"|"+kind]), nil
}

func cloneStatsMap(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (r *Repository) ListLeaderboardRules(ctx context.Context) ([]model.Leaderboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Leaderboard(nil), r.rules...), nil
}

func (r *Repository) SaveLeaderboard(ctx context.Context, lb model.Leaderboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaderboards[lb.Name] = lb
	return nil
}

func (r *Repository) GetLeaderboard(ctx context.Context, name string) (model.Leaderboard, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lb, ok := r.leaderboards[name]
	return lb, ok, nil
}

// SeedLeaderboardRule registers a rule for the leaderboard builder's tests.
func (r *Repository) SeedLeaderboardRule(lb model.Leaderboard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, lb)
}

// SeedStat sets a raw stat value for tests.
func (r *Repository) SeedStat(key, uuid string, value int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stats[key] == nil {
		r.stats[key] = map[string]int64{}
	}
	r.stats[key][uuid] = value
}

// --- API keys / settings / discord ---

func (r *Repository) GetAPIKey(ctx context.Context, key string) (model.ApiKey, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.apiKeys[key]
	return k, ok, nil
}

func (r *Repository) TouchAPIKey(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.apiKeys[key]
	if !ok {
		return nil
	}
	k.LastUsed = time.Now()
	r.apiKeys[key] = k
	return nil
}

// SeedAPIKey registers an ApiKey for tests.
func (r *Repository) SeedAPIKey(k model.ApiKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apiKeys[k.Key] = k
}

// SeedAPIGroup registers an ApiGroup for tests.
func (r *Repository) SeedAPIGroup(g model.ApiGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apiGroups[g.Name] = g
}

func (r *Repository) GetAPIGroup(ctx context.Context, name string) (model.ApiGroup, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.apiGroups[name]
	return g, ok, nil
}

func (r *Repository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.settings[key]
	return v, ok, nil
}

func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[key] = value
	return nil
}

func (r *Repository) CreateDiscordLink(ctx context.Context, playerUUID string, ttl time.Duration) (model.DiscordLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link := model.DiscordLink{Code: uuid.NewString()[:8], UUID: playerUUID}
	r.discordLinks[link.Code] = ttlValue[model.DiscordLink]{value: link, until: time.Now().Add(ttl)}
	return link, nil
}

func (r *Repository) ResolveDiscordLink(ctx context.Context, code string) (model.DiscordLink, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.discordLinks[code]
	if !ok || v.expired(time.Now()) {
		return model.DiscordLink{}, false, nil
	}
	return v.value, true, nil
}

func (r *Repository) BindDiscord(ctx context.Context, playerUUID, discordID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerUUID]
	if !ok {
		return repoErr("player %s not found", playerUUID)
	}
	p.DiscordID = discordID
	r.players[playerUUID] = p
	r.discordBind[discordID] = playerUUID
	return nil
}

func (r *Repository) GetPlayerByDiscordID(ctx context.Context, discordID string) (model.Player, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	playerUUID, ok := r.discordBind[discordID]
	if !ok {
		return model.Player{}, false, nil
	}
	p, ok := r.players[playerUUID]
	return p, ok, nil
}

func (r *Repository) UnbindDiscord(ctx context.Context, discordID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	playerUUID, ok := r.discordBind[discordID]
	if !ok {
		return nil
	}
	delete(r.discordBind, discordID)
	p, ok := r.players[playerUUID]
	if !ok {
		return nil
	}
	p.DiscordID = ""
	r.players[playerUUID] = p
	return nil
}

func (r *Repository) GetGroup(ctx context.Context, name string) (model.Group, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[name]
	return g, ok, nil
}

func (r *Repository) ListGroups(ctx context.Context, names []string) ([]model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Group, 0, len(names))
	for _, n := range names {
		if g, ok := r.groups[n]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

var _ repository.Repository = (*Repository)(nil)
