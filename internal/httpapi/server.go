// Package httpapi exposes every route of spec §6 on a chi.Router: player
// lifecycle, server management, proxy, discord, leaderboard, and echo
// passthrough endpoints, plus unauthenticated docs/status/metrics routes.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/menestis/skynet/internal/autoscaler"
	"github.com/menestis/skynet/internal/discord"
	"github.com/menestis/skynet/internal/echo"
	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/leaderboard"
	"github.com/menestis/skynet/internal/metrics"
	"github.com/menestis/skynet/internal/onlinecount"
	"github.com/menestis/skynet/internal/orchestrator"
	"github.com/menestis/skynet/internal/playerlifecycle"
	"github.com/menestis/skynet/internal/repository"
	"github.com/menestis/skynet/internal/shutdown"
)

// Server holds every collaborator the HTTP surface is a pure wiring layer
// over, plus the chi router it mounts them on.
type Server struct {
	Router *chi.Mux

	repo        repository.Repository
	bus         eventbus.Bus
	autoscaler  *autoscaler.Autoscaler
	orch        orchestrator.Orchestrator
	lifecycle   *playerlifecycle.Service
	online      *onlinecount.Aggregator
	leaderboard *leaderboard.Scheduler
	discord     *discord.Service
	echo        *echo.Client
	shutdown    *shutdown.Coordinator
	log         logr.Logger

	startedAt time.Time
}

// Deps bundles every collaborator New needs; fields mirror cmd/skynet's
// wiring order.
type Deps struct {
	Repo        repository.Repository
	Bus         eventbus.Bus
	Autoscaler  *autoscaler.Autoscaler
	Orchestrator orchestrator.Orchestrator
	Lifecycle   *playerlifecycle.Service
	Online      *onlinecount.Aggregator
	Leaderboard *leaderboard.Scheduler
	Discord     *discord.Service
	Echo        *echo.Client
	Shutdown    *shutdown.Coordinator
	Log         logr.Logger
}

// New builds the router and mounts every spec §6 route.
func New(deps Deps) *Server {
	s := &Server{
		Router:      chi.NewRouter(),
		repo:        deps.Repo,
		bus:         deps.Bus,
		autoscaler:  deps.Autoscaler,
		orch:        deps.Orchestrator,
		lifecycle:   deps.Lifecycle,
		online:      deps.Online,
		leaderboard: deps.Leaderboard,
		discord:     deps.Discord,
		echo:        deps.Echo,
		shutdown:    deps.Shutdown,
		log:         deps.Log,
		startedAt:   time.Now(),
	}

	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.Recoverer)

	// Unauthenticated surface.
	s.Router.Get("/status", s.handleStatus)
	s.Router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	s.Router.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleDocs)

		r.Group(func(r chi.Router) {
			r.Use(s.Middleware)

			r.Post("/shutdown", s.handleShutdown)

			r.Get("/players/{ip}/proxy/prelogin", s.handlePrelogin)
			r.Post("/players/{uuid}/proxy/login", s.handleProxyLogin)
			r.Post("/players/{uuid}/login", s.handleServerLogin)

			r.Post("/sessions/{id}/modsinfo", s.handleSessionMods)
			r.Post("/sessions/{id}/clientbrand", s.handleSessionBrand)
			r.Delete("/players/{uuid}/session", s.handleCloseSession)

			r.Post("/players/{uuid}/move", s.handleMove)
			r.Post("/players/{uuid}/ban", s.handleBan)
			r.Post("/players/{uuid}/mute", s.handleMute)
			r.Post("/players/{uuid}/sanction", s.handleSanction)
			r.Post("/players/{uuid}/disconnect", s.handleDisconnect)
			r.Post("/players/{uuid}/transaction", s.handleCurrencyTransaction)
			r.Post("/players/{uuid}/inventory", s.handleInventoryTransaction)
			r.Post("/players/{uuid}/groups", s.handleGroupsUpdate)
			r.Post("/players/{uuid}/property", s.handlePropertyUpdate)
			r.Get("/players/{uuid}", s.handleGetPlayer)
			r.Get("/players/by-username/{username}", s.handleUUIDByUsername)

			r.Post("/players/{uuid}/echo", s.handleEchoForward)
			r.Get("/servers/{uuid}/echo/enable", s.handleEchoEnable)

			r.Post("/servers", s.handleCreateServer)
			r.Delete("/servers/{id}", s.handleDeleteServer)
			r.Get("/servers", s.handleListServers)
			r.Post("/servers/{id}/setstate", s.handleSetServerState)
			r.Post("/servers/{id}/setdescription", s.handleSetServerDescription)
			r.Post("/servers/{id}/playercount", s.handleSetServerPlayercount)
			r.Post("/servers/broadcast", s.handleBroadcast)

			r.Get("/proxy/ping", s.handleProxyPing)
			r.Post("/proxy/{id}/playercount", s.handleProxyPlayercount)

			r.Get("/discord/link/{uuid}", s.handleDiscordCreateLink)
			r.Post("/discord/link/{code}", s.handleDiscordCompleteLink)
			r.Delete("/discord/link/{discordID}", s.handleDiscordDeleteLink)
			r.Post("/discord/webhook/{name}", s.handleDiscordWebhook)

			r.Post("/leaderboards", s.handleRebuildLeaderboards)
			r.Get("/leaderboards/{name}", s.handleGetLeaderboard)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.Router.ServeHTTP(w, r) }

// MetricsHandler serves the same Prometheus registry mounted at /metrics,
// for a dedicated scrape-only listener separate from API traffic.
func (s *Server) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})
}

// HealthHandler serves a trivial liveness/readiness probe, for a
// dedicated listener kubelet can hit without touching API traffic.
func (s *Server) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	Respond(w, s.log, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	s.shutdown.Cancel()
	Respond(w, s.log, http.StatusOK, map[string]string{"status": "shutting down"})
}
