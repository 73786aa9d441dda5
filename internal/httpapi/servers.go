package httpapi

import (
	"fmt"
	"math/rand"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/orchestrator"
	"github.com/menestis/skynet/internal/util"
)

type createServerRequest struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// handleCreateServer asks the orchestrator to create a pod for the named
// kind; the Reconciler adopts it into a Server row once it observes the
// pod running (spec §8 scenario S2), so this handler never writes the row
// itself.
func (s *Server) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	var req createServerRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}

	kind, found, err := s.repo.GetServerKind(r.Context(), req.Kind)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	if !found {
		RespondError(w, s.log, http.StatusNotFound, "server kind not found")
		return
	}

	var kindProperties, kindEnv map[string]string
	if kind.Autoscale != nil {
		kindProperties, kindEnv = kind.Autoscale.Properties, kind.Autoscale.Env
	}
	properties := util.MergeMapString(nil, kindProperties)
	env := util.MergeMapString(nil, kindEnv)

	name := fmt.Sprintf("%s-%s-%05d", kind.Name, req.Name, rand.Intn(100000))
	if err := s.orch.CreatePod(r.Context(), orchestrator.CreateSpec{
		Kind:       kind.Name,
		Image:      kind.Image,
		Name:       name,
		Properties: properties,
		Env:        env,
	}); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, map[string]string{"name": name})
}

func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	idOrLabel := chi.URLParam(r, "id")
	server, found, err := s.repo.GetServer(r.Context(), idOrLabel)
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	if !found {
		RespondError(w, s.log, http.StatusNotFound, "server not found")
		return
	}
	if err := s.orch.DeletePod(r.Context(), server.Label); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	servers, err := s.repo.ListServers(r.Context())
	if err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, servers)
}

type setStateRequest struct {
	State string `json:"state"`
}

// handleSetServerState implements spec §4.9: only Idle and Waiting trigger
// an autoscaler reaction; every other state is a plain column write.
func (s *Server) handleSetServerState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req setStateRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	state := model.ServerState(req.State)

	if err := s.repo.SetServerState(r.Context(), id, state); err != nil {
		recoverError(w, s.log, err)
		return
	}
	if err := s.bus.Publish(r.Context(), eventbus.ServerStateUpdateEvent(eventbus.ServerStateUpdatePayload{ID: id, State: req.State})); err != nil {
		recoverError(w, s.log, err)
		return
	}

	if state == model.ServerIdle || state == model.ServerWaiting {
		server, found, err := s.repo.GetServer(r.Context(), id)
		if err != nil {
			recoverError(w, s.log, err)
			return
		}
		if found {
			var reactErr error
			if state == model.ServerIdle {
				reactErr = s.autoscaler.OnIdle(r.Context(), server)
			} else {
				reactErr = s.autoscaler.OnWaiting(r.Context(), server)
			}
			if reactErr != nil {
				recoverError(w, s.log, reactErr)
				return
			}
		}
	}

	Respond(w, s.log, http.StatusOK, nil)
}

type setDescriptionRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleSetServerDescription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req setDescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.repo.SetServerDescription(r.Context(), id, req.Description); err != nil {
		recoverError(w, s.log, err)
		return
	}
	if err := s.bus.Publish(r.Context(), eventbus.ServerDescriptionUpdateEvent(eventbus.ServerDescriptionUpdatePayload{ID: id, Description: req.Description})); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

type setPlayercountRequest struct {
	Online int `json:"online"`
}

func (s *Server) handleSetServerPlayercount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req setPlayercountRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := s.repo.SetServerOnline(r.Context(), id, req.Online); err != nil {
		recoverError(w, s.log, err)
		return
	}
	if err := s.bus.Publish(r.Context(), eventbus.ServerCountUpdateEvent(eventbus.ServerCountUpdatePayload{ID: id, Online: req.Online})); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}

type broadcastRequest struct {
	ServerKind string `json:"server_kind,omitempty"`
	Message    string `json:"message"`
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondError(w, s.log, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Message == "" {
		RespondError(w, s.log, http.StatusBadRequest, "message is required")
		return
	}
	if err := s.bus.Publish(r.Context(), eventbus.BroadcastEvent(eventbus.BroadcastPayload{ServerKind: req.ServerKind, Message: req.Message})); err != nil {
		recoverError(w, s.log, err)
		return
	}
	Respond(w, s.log, http.StatusOK, nil)
}
