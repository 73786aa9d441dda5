package httpapi

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/menestis/skynet/internal/apierr"
)

func (s *Server) handleDiscordCreateLink(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	code, err := s.discord.CreateLink(r.Context(), uuid)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, code)
}

func (s *Server) handleDiscordCompleteLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var discordID string
	if err := decodeJSON(r, &discordID); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.discord.CompleteLink(r.Context(), code, discordID); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

func (s *Server) handleDiscordDeleteLink(w http.ResponseWriter, r *http.Request) {
	discordID := chi.URLParam(r, "discordID")
	if err := s.discord.DeleteLink(r.Context(), discordID); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

func (s *Server) handleDiscordWebhook(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	defer r.Body.Close()

	if err := s.discord.CallWebhook(r.Context(), name, body); err != nil {
		// spec §7: a webhook delivery failure degrades to 502, distinct
		// from an unregistered-webhook 404.
		if apierr.Status(err) == http.StatusNotFound {
			recoverError(w, s.log, err)
			return
		}
		s.log.Error(err, "webhook forward failed", "webhook", name)
		RespondError(w, s.log, http.StatusBadGateway, "webhook delivery failed")
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}
