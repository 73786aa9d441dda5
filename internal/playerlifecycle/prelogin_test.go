package playerlifecycle

import (
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/menestis/skynet/internal/autoscaler"
	"github.com/menestis/skynet/internal/eventbus/memory"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/orchestrator"
	repomemory "github.com/menestis/skynet/internal/repository/memory"
	"github.com/menestis/skynet/internal/reputation"
)

type fakeChecker struct {
	verdict reputation.Verdict
	err     error
}

func (f fakeChecker) Check(ctx context.Context, ip string) (reputation.Verdict, error) {
	return f.verdict, f.err
}

type noopOrchestrator struct{}

func (noopOrchestrator) CreatePod(ctx context.Context, spec orchestrator.CreateSpec) error {
	return nil
}
func (noopOrchestrator) DeletePod(ctx context.Context, name string) error { return nil }
func (noopOrchestrator) Watch(ctx context.Context) (<-chan orchestrator.PodEvent, error) {
	ch := make(chan orchestrator.PodEvent)
	close(ch)
	return ch, nil
}

func newService(checker reputation.Checker) (*Service, *repomemory.Repository, *memory.Bus) {
	repo := repomemory.New()
	bus := memory.New()
	a := autoscaler.New(repo, bus, noopOrchestrator{}, logr.Discard())
	return New(repo, bus, a, checker, nil, logr.Discard()), repo, bus
}

func TestPreloginAllowsLoopbackRegardlessOfReputation(t *testing.T) {
	s, _, _ := newService(fakeChecker{verdict: reputation.Verdict{Risk: 100}})

	outcome, err := s.Prelogin(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	require.True(t, outcome.Allowed)
}

func TestPreloginDeniesDuringMaintenanceUnlessOverridden(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	repo.SeedSetting(model.SettingMaintenance, "true")
	repo.SeedSetting(model.SettingMaintenanceOverride, "1.2.3.4,5.6.7.8")

	denied, err := s.Prelogin(context.Background(), "9.9.9.9")
	require.NoError(t, err)
	require.False(t, denied.Allowed)

	allowed, err := s.Prelogin(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	require.True(t, allowed.Allowed)
}

func TestPreloginDeniesAndRemembersActiveIPBan(t *testing.T) {
	s, repo, _ := newService(fakeChecker{})
	require.NoError(t, repo.InsertIPBan(context.Background(), model.IPBan{IP: "9.9.9.9", Ban: "ban-1"}, 0))

	outcome, err := s.Prelogin(context.Background(), "9.9.9.9")
	require.NoError(t, err)
	require.False(t, outcome.Allowed)
	require.Equal(t, "ban-1", outcome.BanID)
}

func TestPreloginDegradesToAllowOnReputationTransportError(t *testing.T) {
	s, _, _ := newService(fakeChecker{err: assertErr{}})

	outcome, err := s.Prelogin(context.Background(), "9.9.9.9")
	require.NoError(t, err)
	require.True(t, outcome.Allowed)
}

func TestPreloginAutoBansRiskyIP(t *testing.T) {
	s, repo, _ := newService(fakeChecker{verdict: reputation.Verdict{Proxy: true, Risk: 0}})

	outcome, err := s.Prelogin(context.Background(), "9.9.9.9")
	require.NoError(t, err)
	require.False(t, outcome.Allowed)
	require.NotEmpty(t, outcome.BanID)

	_, found, err := repo.GetIPBan(context.Background(), "9.9.9.9")
	require.NoError(t, err)
	require.True(t, found)
}

type assertErr struct{}

func (assertErr) Error() string { return "transport error" }
