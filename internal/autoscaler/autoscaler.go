// Package autoscaler reacts to server-state transitions, deciding
// delete-on-idle and burst-up on demand, and resolves where a moving
// player should land (including provisioning new capacity), per spec §4.5.
package autoscaler

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/orchestrator"
	"github.com/menestis/skynet/internal/repository"
	"github.com/menestis/skynet/internal/tracing"
	"github.com/menestis/skynet/internal/util"
)

const defaultSlots = 100

// MoveOutcome is the result of resolving where a player targeting a kind
// should go.
type MoveOutcome int

const (
	MoveOk MoveOutcome = iota
	MoveWaiting
	MoveFailed
	MoveMissingServerKind
)

// Autoscaler holds opaque handles to Repository, EventBus, and
// Orchestrator; it is invoked by the server-state endpoint and by
// PlayerLifecycle's move resolution.
type Autoscaler struct {
	repo repository.Repository
	bus  eventbus.Bus
	orch orchestrator.Orchestrator
	log  logr.Logger
}

func New(repo repository.Repository, bus eventbus.Bus, orch orchestrator.Orchestrator, log logr.Logger) *Autoscaler {
	return &Autoscaler{repo: repo, bus: bus, orch: orch, log: log}
}

// canIdleProperty is the server property name that, set to "false",
// forces immediate deletion on an Idle transition regardless of headroom.
const canIdleProperty = "canidle"

// OnIdle implements the Idle branch of spec §4.5.
func (a *Autoscaler) OnIdle(ctx context.Context, server model.Server) error {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanAutoscaleIdle, trace.WithAttributes(tracing.AttrsForServer(server.Kind, server.ID)...))
	defer span.End()

	if server.Properties["canidle"] == "false" {
		span.AddEvent(tracing.EventAutoscaleIdleDecision)
		return a.deleteServer(ctx, server)
	}

	kind, found, err := a.repo.GetServerKind(ctx, server.Kind)
	if err != nil {
		return err
	}
	if !found || kind.Autoscale == nil {
		return nil
	}
	if kind.Autoscale.Min == 0 {
		span.AddEvent(tracing.EventAutoscaleIdleDecision)
		return a.deleteServer(ctx, server)
	}

	peers, err := a.repo.ListServersByKindAndStates(ctx, server.Kind, []model.ServerState{model.ServerWaiting, model.ServerIdle})
	if err != nil {
		return err
	}
	count := 0
	for _, p := range peers {
		if p.ID != server.ID {
			count++
		}
	}

	span.AddEvent(tracing.EventAutoscaleIdleDecision)
	if count >= kind.Autoscale.Min {
		return a.deleteServer(ctx, server)
	}
	return nil
}

func (a *Autoscaler) deleteServer(ctx context.Context, server model.Server) error {
	if err := a.orch.DeletePod(ctx, server.Label); err != nil {
		return err
	}
	return nil
}

// effectiveSlots resolves server-level override over the kind policy's
// default, falling back to defaultSlots.
func effectiveSlots(server model.Server, policy *model.AutoscaleSimple) int {
	if v, ok := server.Properties["slots"]; ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			return n
		}
	}
	if policy != nil && policy.Slots > 0 {
		return policy.Slots
	}
	return defaultSlots
}

// OnWaiting implements the Waiting branch of spec §4.5: drains the queue
// for server.Kind if it overflows effective capacity, provisioning a new
// instance when an autoscale policy exists.
func (a *Autoscaler) OnWaiting(ctx context.Context, server model.Server) error {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanAutoscaleWaiting, trace.WithAttributes(tracing.AttrsForServer(server.Kind, server.ID)...))
	defer span.End()

	kind, found, err := a.repo.GetServerKind(ctx, server.Kind)
	if err != nil {
		return err
	}
	var policy *model.AutoscaleSimple
	if found {
		policy = kind.Autoscale
	}

	slots := effectiveSlots(server, policy)

	waiting, err := a.repo.ListPlayersWaitingForKind(ctx, server.Kind, slots+1)
	if err != nil {
		return err
	}
	if len(waiting) <= slots {
		return nil
	}

	if found && kind.Autoscale != nil {
		if _, err := a.createAutoscaleServer(ctx, kind); err != nil {
			return err
		}
	}

	span.AddEvent(tracing.EventAutoscaleWaitingDecision)
	for i := 0; i < slots && i < len(waiting); i++ {
		p := waiting[i]
		if err := a.repo.SetServerClearWaiting(ctx, p.UUID, server.ID, 0); err != nil {
			return err
		}
		if err := a.bus.Publish(ctx, eventbus.MovePlayerEvent(eventbus.MovePlayerPayload{
			Proxy:  p.Proxy,
			Server: server.ID,
			Player: p.UUID,
		})); err != nil {
			return err
		}
	}
	return nil
}

// createAutoscaleServer mints a pod name and asks the orchestrator to
// create it, tagging properties with autoscale=true, per spec §4.5.
func (a *Autoscaler) createAutoscaleServer(ctx context.Context, kind model.ServerKind) (string, error) {
	name := fmt.Sprintf("%s-%05d", kind.Name, rand.Intn(100000))

	var kindProperties, kindEnv map[string]string
	if kind.Autoscale != nil {
		kindProperties, kindEnv = kind.Autoscale.Properties, kind.Autoscale.Env
	}
	properties := util.MergeMapString(map[string]string{"autoscale": "true"}, kindProperties)
	env := util.MergeMapString(nil, kindEnv)

	if err := a.orch.CreatePod(ctx, orchestrator.CreateSpec{
		Kind:       kind.Name,
		Image:      kind.Image,
		Name:       name,
		Properties: properties,
		Env:        env,
	}); err != nil {
		return "", err
	}

	trace.SpanFromContext(ctx).AddEvent(tracing.EventAutoscaleServerCreated)
	return name, nil
}

// ResolveMove implements spec §4.5's move resolution, invoked by
// PlayerLifecycle when a player targets a server kind rather than a
// specific server.
func (a *Autoscaler) ResolveMove(ctx context.Context, player model.Player, kind string) (MoveOutcome, error) {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanAutoscaleResolveMove, trace.WithAttributes(tracing.AttrServerKind(kind)))
	defer span.End()
	span.AddEvent(tracing.EventAutoscaleResolveMoveTarget)

	serverKind, found, err := a.repo.GetServerKind(ctx, kind)
	if err != nil {
		return MoveFailed, err
	}
	if !found {
		return MoveMissingServerKind, nil
	}

	candidates, err := a.repo.ListServersByKindAndStates(ctx, kind, []model.ServerState{model.ServerWaiting, model.ServerIdle})
	if err != nil {
		return MoveFailed, err
	}

	for _, server := range candidates {
		if _, hosted := server.Properties["host"]; hosted {
			continue
		}
		slots := effectiveSlots(server, serverKind.Autoscale)
		count, err := a.repo.CountPlayersOnServer(ctx, server.ID)
		if err != nil {
			return MoveFailed, err
		}
		if count < slots {
			if err := a.repo.SetServerClearWaiting(ctx, player.UUID, server.ID, 0); err != nil {
				return MoveFailed, err
			}
			if err := a.bus.Publish(ctx, eventbus.MovePlayerEvent(eventbus.MovePlayerPayload{
				Proxy:  player.Proxy,
				Server: server.ID,
				Player: player.UUID,
			})); err != nil {
				return MoveFailed, err
			}
			return MoveOk, nil
		}
	}

	if serverKind.Autoscale == nil {
		return MoveFailed, nil
	}

	alreadyWaiting, err := a.repo.ListPlayersWaitingForKind(ctx, kind, 1)
	if err != nil {
		return MoveFailed, err
	}
	if len(alreadyWaiting) == 0 {
		if _, err := a.createAutoscaleServer(ctx, serverKind); err != nil {
			return MoveFailed, err
		}
	}
	if err := a.repo.SetWaitingMoveTo(ctx, player.UUID, kind); err != nil {
		return MoveFailed, err
	}
	return MoveWaiting, nil
}
