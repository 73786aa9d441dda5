package autoscaler

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	busmem "github.com/menestis/skynet/internal/eventbus/memory"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/orchestrator"
	"github.com/menestis/skynet/internal/repository/memory"
)

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

func TestOnIdleDeletesWhenPeersAlreadyMeetMin(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	orch := &fakeOrchestrator{}
	a := New(repo, bus, orch, logr.Discard())
	ctx := context.Background()

	repo.SeedKind(model.ServerKind{Name: "mini", Autoscale: &model.AutoscaleSimple{Min: 1}})
	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s1", Label: "mini-a", Kind: "mini", State: model.ServerIdle}))
	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s2", Label: "mini-b", Kind: "mini", State: model.ServerWaiting}))
	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s3", Label: "mini-c", Kind: "mini", State: model.ServerPlaying}))

	self, _, err := repo.GetServer(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, a.OnIdle(ctx, self))

	require.Equal(t, []string{"mini-a"}, orch.deleted)
}

func TestOnIdleKeepsWhenBelowMin(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	orch := &fakeOrchestrator{}
	a := New(repo, bus, orch, logr.Discard())
	ctx := context.Background()

	repo.SeedKind(model.ServerKind{Name: "mini", Autoscale: &model.AutoscaleSimple{Min: 1}})
	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s1", Label: "mini-a", Kind: "mini", State: model.ServerIdle}))

	self, _, err := repo.GetServer(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, a.OnIdle(ctx, self))

	require.Empty(t, orch.deleted)
}

func TestOnIdleRespectsCanIdleFalse(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	orch := &fakeOrchestrator{}
	a := New(repo, bus, orch, logr.Discard())
	ctx := context.Background()

	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s1", Label: "mini-a", Kind: "mini", Properties: map[string]string{"canidle": "false"}}))

	self, _, err := repo.GetServer(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, a.OnIdle(ctx, self))

	require.Equal(t, []string{"mini-a"}, orch.deleted)
}

func TestOnWaitingDrainsFirstSlotsAndProvisions(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	orch := &fakeOrchestrator{}
	a := New(repo, bus, orch, logr.Discard())
	ctx := context.Background()

	repo.SeedKind(model.ServerKind{Name: "mini", Image: "img", Autoscale: &model.AutoscaleSimple{Slots: 2}})
	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s1", Label: "mini-a", Kind: "mini", State: model.ServerWaiting}))

	for i := 0; i < 3; i++ {
		uuid := string(rune('a' + i))
		require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: uuid, Proxy: "proxy-1", WaitingMoveTo: "mini"}))
	}

	self, _, err := repo.GetServer(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, a.OnWaiting(ctx, self))

	require.Len(t, orch.created, 1)
	require.Len(t, bus.Published, 2)
}

func TestResolveMovePlacesOnServerWithRoom(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	orch := &fakeOrchestrator{}
	a := New(repo, bus, orch, logr.Discard())
	ctx := context.Background()

	repo.SeedKind(model.ServerKind{Name: "mini", Autoscale: &model.AutoscaleSimple{Slots: 2}})
	require.NoError(t, repo.CreateServer(ctx, model.Server{ID: "s1", Label: "mini-a", Kind: "mini", State: model.ServerIdle}))
	require.NoError(t, repo.UpsertPlayer(ctx, model.Player{UUID: "p1", Proxy: "proxy-1"}))

	outcome, err := a.ResolveMove(ctx, model.Player{UUID: "p1", Proxy: "proxy-1"}, "mini")
	require.NoError(t, err)
	require.Equal(t, MoveOk, outcome)
	require.Len(t, bus.Published, 1)
}

func TestResolveMoveMissingKindReturnsMissingServerKind(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	orch := &fakeOrchestrator{}
	a := New(repo, bus, orch, logr.Discard())

	outcome, err := a.ResolveMove(context.Background(), model.Player{UUID: "p1"}, "nonexistent")
	require.NoError(t, err)
	require.Equal(t, MoveMissingServerKind, outcome)
}
