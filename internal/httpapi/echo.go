package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/menestis/skynet/internal/echo"
)

// handleEchoForward implements the synchronous echo passthrough route:
// lazily flips the player's echo_enabled property on first use, then
// relays the caller's notification to the echo tracker and returns its
// response body verbatim.
func (s *Server) handleEchoForward(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	if !s.authorizeSelf(w, r, uuid) {
		return
	}

	var notification echo.Notification
	if err := decodeJSON(r, &notification); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
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
	if player.Properties["echo_enabled"] != "true" {
		if err := s.repo.UpdatePlayerProperty(r.Context(), uuid, "echo_enabled", "true"); err != nil {
			recoverError(w, s.log, err)
			return
		}
	}

	raw, err := s.echo.Forward(r.Context(), uuid, notification)
	if err != nil {
		RespondError(w, s.log, http.StatusBadGateway, "echo tracker unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// handleEchoEnable mints a tracking key for the server from the echo
// tracker and persists it.
func (s *Server) handleEchoEnable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")

	key, err := s.echo.EnableServer(r.Context(), id)
	if err != nil {
		RespondError(w, s.log, http.StatusBadGateway, "echo tracker unavailable")
		return
	}
	if err := s.repo.SetServerEchoKey(r.Context(), id, key); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, key)
}
