package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/menestis/skynet/internal/playerlifecycle"
	"github.com/menestis/skynet/internal/repository"
)

func (s *Server) handlePrelogin(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")
	outcome, err := s.lifecycle.Prelogin(r.Context(), ip)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, outcome)
}

type proxyLoginRequest struct {
	Username string `json:"username"`
	ProxyID  string `json:"proxy_id"`
	IP       string `json:"ip"`
	Version  string `json:"version"`
	Brand    string `json:"brand"`
	Locale   string `json:"locale"`
}

func (s *Server) handleProxyLogin(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	var req proxyLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}

	outcome, err := s.lifecycle.ProxyLogin(r.Context(), playerlifecycle.ProxyLoginRequest{
		UUID:     uuid,
		Username: req.Username,
		ProxyID:  req.ProxyID,
		IP:       req.IP,
		Version:  req.Version,
		Brand:    req.Brand,
		Locale:   req.Locale,
	})
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, outcome)
}

type serverLoginRequest struct {
	Server string `json:"server"`
}

func (s *Server) handleServerLogin(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	var req serverLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}

	info, err := s.lifecycle.ServerLogin(r.Context(), playerlifecycle.ServerLoginRequest{
		PlayerUUID: uuid,
		ServerID:   req.Server,
	})
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, info)
}

type modInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

func (s *Server) handleSessionMods(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var mods []modInfo
	if err := decodeJSON(r, &mods); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}

	asMap := make(map[string]string, len(mods))
	for _, m := range mods {
		asMap[m.ID] = m.Version
	}
	if err := s.repo.UpdateSessionMods(r.Context(), id, asMap); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

func (s *Server) handleSessionBrand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var brand string
	if err := decodeJSON(r, &brand); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.repo.UpdateSessionBrand(r.Context(), id, brand); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	if !s.authorizeSelf(w, r, uuid) {
		return
	}

	player, found, err := s.repo.GetPlayer(r.Context(), uuid)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	if !found || player.Session == "" {
		Respond(w, s.log, http.StatusOK, nil)
		return
	}

	echoEnabled := player.Properties["echo_enabled"] == "true"
	if err := s.lifecycle.CloseSession(r.Context(), player.Session, uuid, echoEnabled, ""); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

// moveRequest is the untagged-union body spec §4.6.4 dispatches on: either
// a specific server (with optional admin override) or a server kind
// resolved by the autoscaler.
type moveRequest struct {
	Server    string `json:"server,omitempty"`
	AdminMove bool   `json:"admin_move,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}

	outcome, err := s.lifecycle.Move(r.Context(), playerlifecycle.PlayerRef{UUID: uuid}, playerlifecycle.MoveTarget{
		ServerID:  req.Server,
		AdminMove: req.AdminMove,
		Kind:      req.Kind,
	})
	if err != nil {
		recoverError(w, s.log, err)
		return
	}

	switch outcome {
	case playerlifecycle.MovePlayerOffline:
		RespondError(w, s.log, http.StatusNotFound, "player is not online")
	case playerlifecycle.MoveUnlinkedPlayer:
		RespondError(w, s.log, http.StatusNotFound, "player has no linked discord account")
	case playerlifecycle.MoveMissingServerKind:
		RespondError(w, s.log, http.StatusNotFound, "requested server or server kind does not exist")
	case playerlifecycle.MoveFailed:
		RespondError(w, s.log, http.StatusConflict, "no placement available")
	default:
		Respond(w, s.log, http.StatusOK, map[string]string{"result": moveResultLabel(outcome)})
	}
}

func moveResultLabel(o playerlifecycle.MoveOutcome) string {
	switch o {
	case playerlifecycle.MoveDispatched:
		return "dispatched"
	case playerlifecycle.MoveQueued:
		return "queued"
	default:
		return "unknown"
	}
}

type banRequest struct {
	Reason string `json:"reason"`
	Issuer string `json:"issuer"`
	IP     bool   `json:"ip"`
	Unban  bool   `json:"unban"`
	TTL    int64  `json:"ttl_seconds"`
}

func (s *Server) handleBan(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	var req banRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}

	banID, err := s.lifecycle.Ban(r.Context(), playerlifecycle.BanRequest{
		Player: uuid,
		Reason: req.Reason,
		Issuer: req.Issuer,
		IP:     req.IP,
		Unban:  req.Unban,
		TTL:    time.Duration(req.TTL) * time.Second,
	})
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, map[string]string{"ban": banID})
}

type muteRequest struct {
	Reason string `json:"reason"`
	Unmute bool   `json:"unmute"`
	TTL    int64  `json:"ttl_seconds"`
}

func (s *Server) handleMute(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	var req muteRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.lifecycle.Mute(r.Context(), uuid, req.Reason, req.Unmute, time.Duration(req.TTL)*time.Second); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

type sanctionRequest struct {
	Category   string `json:"category"`
	Unsanction bool   `json:"unsanction"`
}

func (s *Server) handleSanction(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	var req sanctionRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.lifecycle.Sanction(r.Context(), uuid, req.Category, req.Unsanction); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	if err := s.lifecycle.Disconnect(r.Context(), uuid); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

type currencyRequest struct {
	CurrencyDelta int64 `json:"currency_delta"`
	PremiumDelta  int64 `json:"premium_delta"`
}

func (s *Server) handleCurrencyTransaction(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	var req currencyRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	player, err := s.lifecycle.ApplyCurrency(r.Context(), uuid, req.CurrencyDelta, req.PremiumDelta)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, player)
}

func (s *Server) handleInventoryTransaction(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	var delta map[string]int
	if err := decodeJSON(r, &delta); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	player, err := s.lifecycle.ApplyInventory(r.Context(), uuid, delta)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, player)
}

type groupUpdateRequest struct {
	Name   string `json:"name"`
	Remove bool   `json:"remove"`
	TTL    int64  `json:"ttl_seconds"`
}

func (s *Server) handleGroupsUpdate(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	var updates []groupUpdateRequest
	if err := decodeJSON(r, &updates); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}

	converted := make([]repository.GroupUpdate, 0, len(updates))
	for _, u := range updates {
		converted = append(converted, repository.GroupUpdate{
			Name:   u.Name,
			Remove: u.Remove,
			TTL:    time.Duration(u.TTL) * time.Second,
		})
	}

	player, err := s.lifecycle.ApplyGroups(r.Context(), uuid, converted)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, player)
}

type propertyRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handlePropertyUpdate(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	var req propertyRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Key == "" {
		RespondError(w, s.log, http.StatusBadRequest, "key is required")
		return
	}
	if err := s.repo.UpdatePlayerProperty(r.Context(), uuid, req.Key, req.Value); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	if !s.authorizeSelf(w, r, uuid) {
		return
	}
	player, found, err := s.repo.GetPlayer(r.Context(), uuid)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	if !found {
		RespondError(w, s.log, http.StatusNotFound, "player not found")
		return
	}
	Respond(w, s.log, http.StatusOK, player)
}

func (s *Server) handleUUIDByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	player, found, err := s.repo.GetPlayerByUsername(r.Context(), username)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	if !found {
		RespondError(w, s.log, http.StatusNotFound, "player not found")
		return
	}
	Respond(w, s.log, http.StatusOK, map[string]string{"uuid": player.UUID})
}
