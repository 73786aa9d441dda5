package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/menestis/skynet/internal/autoscaler"
	"github.com/menestis/skynet/internal/discord"
	"github.com/menestis/skynet/internal/echo"
	busmem "github.com/menestis/skynet/internal/eventbus/memory"
	"github.com/menestis/skynet/internal/leaderboard"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/onlinecount"
	"github.com/menestis/skynet/internal/orchestrator"
	"github.com/menestis/skynet/internal/playerlifecycle"
	"github.com/menestis/skynet/internal/repository/memory"
	"github.com/menestis/skynet/internal/reputation"
	"github.com/menestis/skynet/internal/shutdown"
)

// fakeOrchestrator mirrors the local-fake convention used by
// internal/autoscaler and internal/reconciler's test files.
type fakeOrchestrator struct {
	created []orchestrator.CreateSpec
	deleted []string
}

func (f *fakeOrchestrator) CreatePod(ctx context.Context, spec orchestrator.CreateSpec) error {
	f.created = append(f.created, spec)
	return nil
}

func (f *fakeOrchestrator) DeletePod(ctx context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeOrchestrator) Watch(ctx context.Context) (<-chan orchestrator.PodEvent, error) {
	ch := make(chan orchestrator.PodEvent)
	close(ch)
	return ch, nil
}

type stubReputationChecker struct{}

func (stubReputationChecker) Check(ctx context.Context, ip string) (reputation.Verdict, error) {
	return reputation.Verdict{}, nil
}

func newTestServer(t *testing.T) (*Server, *memory.Repository, *fakeOrchestrator) {
	t.Helper()
	repo := memory.New()
	bus := busmem.New()
	orch := &fakeOrchestrator{}
	log := logr.Discard()

	autoscalerSvc := autoscaler.New(repo, bus, orch, log)
	lifecycle := playerlifecycle.New(repo, bus, autoscalerSvc, stubReputationChecker{}, echo.New("http://echo.invalid", "key", log), log)
	online := onlinecount.New(repo, bus, func() bool { return true }, log)
	board := leaderboard.New(repo, bus, func() bool { return true }, log)
	discordSvc := discord.New(repo, bus)

	s := New(Deps{
		Repo:         repo,
		Bus:          bus,
		Autoscaler:   autoscalerSvc,
		Orchestrator: orch,
		Lifecycle:    lifecycle,
		Online:       online,
		Leaderboard:  board,
		Discord:      discordSvc,
		Echo:         echo.New("http://echo.invalid", "key", log),
		Shutdown:     shutdown.New(context.Background()),
		Log:          log,
	})
	return s, repo, orch
}

func doRequest(s *Server, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func TestStatusRouteNeedsNoAuth(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "uptime_seconds")
}

func TestDocsRouteNeedsNoAuth(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRoutesRejectMissingAuthorization(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/players/p1", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetPlayerRejectsOtherPlayersUUID(t *testing.T) {
	s, repo, _ := newTestServer(t)
	require.NoError(t, repo.UpsertPlayer(context.Background(), model.Player{UUID: "p1"}))

	rec := doRequest(s, http.MethodGet, "/api/players/p1", "p2", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetPlayerAllowsSelf(t *testing.T) {
	s, repo, _ := newTestServer(t)
	require.NoError(t, repo.UpsertPlayer(context.Background(), model.Player{UUID: "p1", Username: "alice"}))

	rec := doRequest(s, http.MethodGet, "/api/players/p1", "p1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "alice")
}

func TestGetPlayerAllowsServerPrincipal(t *testing.T) {
	s, repo, _ := newTestServer(t)
	require.NoError(t, repo.UpsertPlayer(context.Background(), model.Player{UUID: "p1", Username: "alice"}))

	rec := doRequest(s, http.MethodGet, "/api/players/p1", "Server server-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPlayerNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/players/missing", "Server server-1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateServerAsksOrchestrator(t *testing.T) {
	s, repo, orch := newTestServer(t)
	repo.SeedKind(model.ServerKind{Name: "mini-x", Image: "mini-x:latest"})

	rec := doRequest(s, http.MethodPost, "/api/servers", "Server server-1", `{"kind":"mini-x","name":"arena"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, orch.created, 1)
	require.Equal(t, "mini-x", orch.created[0].Kind)
	require.Contains(t, orch.created[0].Name, "mini-x-arena-")
}

func TestCreateServerUnknownKind(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/api/servers", "Server server-1", `{"kind":"missing","name":"arena"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBroadcastRequiresMessage(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/api/servers/broadcast", "Server server-1", `{"message":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBroadcastPublishesEvent(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/api/servers/broadcast", "Server server-1", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLeaderboardNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/leaderboards/missing", "Server server-1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDiscordWebhookUnregisteredReturns404(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/api/discord/webhook/missing", "Server server-1", `{"content":"hi"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedBodyReturns400(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/api/servers", "Server server-1", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
