package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/menestis/skynet/internal/model"
)

type proxyPingResponse struct {
	Online int    `json:"online"`
	Slots  int    `json:"slots"`
	MOTD   string `json:"motd"`
}

func (s *Server) handleProxyPing(w http.ResponseWriter, r *http.Request) {
	online, _, err := s.repo.GetSetting(r.Context(), model.SettingOnlineCount)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	slots, _, err := s.repo.GetSetting(r.Context(), model.SettingSlots)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	motd, _, err := s.repo.GetSetting(r.Context(), model.SettingMOTD)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}

	resp := proxyPingResponse{MOTD: motd}
	resp.Online, _ = strconv.Atoi(online)
	resp.Slots, _ = strconv.Atoi(slots)
	Respond(w, s.log, http.StatusOK, resp)
}

func (s *Server) handleProxyPlayercount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var count int
	if err := decodeJSON(r, &count); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.online.Update(r.Context(), id, count); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}
