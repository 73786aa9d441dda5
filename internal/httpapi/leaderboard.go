package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleRebuildLeaderboards(w http.ResponseWriter, r *http.Request) {
	if err := s.leaderboard.RebuildAll(r.Context()); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	lb, found, err := s.repo.GetLeaderboard(r.Context(), name)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	if !found {
		RespondError(w, s.log, http.StatusNotFound, "leaderboard not found")
		return
	}
	Respond(w, s.log, http.StatusOK, lb)
}
