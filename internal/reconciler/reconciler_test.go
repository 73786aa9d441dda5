package reconciler

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/menestis/skynet/internal/eventbus"
	busmem "github.com/menestis/skynet/internal/eventbus/memory"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/orchestrator"
	"github.com/menestis/skynet/internal/orchestrator/k8s"
	"github.com/menestis/skynet/internal/repository/memory"
)

type fakeOrchestrator struct {
	finalized map[string]string
	removed   map[string]bool
}

func newFakeOrchestrator() *fakeOrchestrator {
	return &fakeOrchestrator{finalized: map[string]string{}, removed: map[string]bool{}}
}

func (f *fakeOrchestrator) CreatePod(ctx context.Context, spec orchestrator.CreateSpec) error { return nil }
func (f *fakeOrchestrator) DeletePod(ctx context.Context, name string) error                  { return nil }
func (f *fakeOrchestrator) Watch(ctx context.Context) (<-chan orchestrator.PodEvent, error) {
	ch := make(chan orchestrator.PodEvent)
	close(ch)
	return ch, nil
}
func (f *fakeOrchestrator) AddFinalizerAndID(ctx context.Context, name, skynetID string) error {
	f.finalized[name] = skynetID
	return nil
}
func (f *fakeOrchestrator) RemoveFinalizer(ctx context.Context, name string) error {
	f.removed[name] = true
	return nil
}

func TestAdoptCreatesServerAndPublishesNewRoute(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	orch := newFakeOrchestrator()
	r := New(repo, bus, orch, logr.Discard())

	pod := orchestrator.Pod{
		Name:   "mini-x-00001",
		IP:     "10.0.0.5",
		Labels: map[string]string{k8s.LabelKind: "mini"},
	}

	result, err := r.Reconcile(context.Background(), pod)
	require.NoError(t, err)
	require.Zero(t, result.RequeueAfter)

	servers, err := repo.ListServers(context.Background())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	require.Equal(t, model.ServerStarting, servers[0].State)

	require.Len(t, bus.Published, 1)
	require.Equal(t, eventbus.EventNewRoute, bus.Published[0].Type)
	require.NotEmpty(t, orch.finalized["mini-x-00001"])
}

func TestAdoptSkipsNewRouteForProxyKind(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	orch := newFakeOrchestrator()
	r := New(repo, bus, orch, logr.Discard())

	pod := orchestrator.Pod{
		Name:   "proxy-00001",
		IP:     "10.0.0.9",
		Labels: map[string]string{k8s.LabelKind: model.ProxyKind},
	}

	_, err := r.Reconcile(context.Background(), pod)
	require.NoError(t, err)
	require.Empty(t, bus.Published)
}

func TestReleaseDrainsProxySessionsAndDeletesServer(t *testing.T) {
	repo := memory.New()
	bus := busmem.New()
	orch := newFakeOrchestrator()
	r := New(repo, bus, orch, logr.Discard())

	require.NoError(t, repo.CreateServer(context.Background(), model.Server{ID: "sky-1-net", Label: "proxy-1", Kind: model.ProxyKind, State: model.ServerStarting}))
	require.NoError(t, repo.UpsertPlayerOnlineProxy(context.Background(), "u1", "sky-1-net", "sess1", "alice"))

	pod := orchestrator.Pod{
		Name:              "proxy-1",
		DeletionTimestamp: true,
		Finalizers:        []string{k8s.Finalizer},
		Labels:            map[string]string{"skynet_id": "sky-1-net"},
	}

	_, err := r.Reconcile(context.Background(), pod)
	require.NoError(t, err)

	_, found, err := repo.GetServer(context.Background(), "sky-1-net")
	require.NoError(t, err)
	require.False(t, found)

	p, _, err := repo.GetPlayer(context.Background(), "u1")
	require.NoError(t, err)
	require.False(t, p.Online())

	require.True(t, orch.removed["proxy-1"])
}
