package playerlifecycle

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/menestis/skynet/internal/apierr"
	"github.com/menestis/skynet/internal/autoscaler"
	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/tracing"
)

// PlayerRef identifies the subject of a move either directly by uuid or,
// for discord-bot-initiated moves, by the discord account bound to a
// player (spec §4.6.4's "UnlinkedPlayer" rejection applies to the latter).
type PlayerRef struct {
	UUID      string
	DiscordID string
}

// MoveTarget is the sum type spec §4.6.4 dispatches on: a specific server
// (with optional admin override) or a server kind resolved by the
// autoscaler.
type MoveTarget struct {
	ServerID  string
	AdminMove bool
	Kind      string
}

func (t MoveTarget) isKindTarget() bool { return t.ServerID == "" }

// MoveOutcome mirrors autoscaler.MoveOutcome for the Server variant, which
// always succeeds once dispatched, and passes the autoscaler's own outcome
// through for the ServerKind variant.
type MoveOutcome int

const (
	MoveDispatched MoveOutcome = iota
	MoveQueued
	MoveFailed
	MoveMissingServerKind
	MovePlayerOffline
	MoveUnlinkedPlayer
)

// Move implements spec §4.6.4.
func (s *Service) Move(ctx context.Context, ref PlayerRef, target MoveTarget) (MoveOutcome, error) {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanPlayerMove)
	defer span.End()

	uuid := ref.UUID
	if uuid == "" {
		player, found, err := s.repo.GetPlayerByDiscordID(ctx, ref.DiscordID)
		if err != nil {
			return MoveFailed, err
		}
		if !found {
			span.AddEvent(tracing.EventPlayerMoveRejected)
			return MoveUnlinkedPlayer, nil
		}
		uuid = player.UUID
	}

	player, found, err := s.repo.GetPlayer(ctx, uuid)
	if err != nil {
		return MoveFailed, err
	}
	if !found || !player.Online() {
		span.AddEvent(tracing.EventPlayerMoveRejected)
		return MovePlayerOffline, nil
	}

	if target.isKindTarget() {
		outcome, err := s.autoscaler.ResolveMove(ctx, player, target.Kind)
		if err != nil {
			return MoveFailed, err
		}
		span.AddEvent(tracing.EventPlayerMoveAccepted)
		return fromAutoscalerOutcome(outcome), nil
	}

	server, found, err := s.repo.GetServer(ctx, target.ServerID)
	if err != nil {
		return MoveFailed, err
	}
	if !found {
		return MoveMissingServerKind, nil
	}
	if _, found, err := s.repo.GetServerKind(ctx, server.Kind); err != nil {
		return MoveFailed, err
	} else if !found {
		return MoveMissingServerKind, nil
	}

	if target.AdminMove {
		err = s.bus.Publish(ctx, eventbus.AdminMovePlayerEvent(eventbus.AdminMovePlayerPayload{
			Server: target.ServerID,
			Player: uuid,
		}))
	} else {
		err = s.bus.Publish(ctx, eventbus.MovePlayerEvent(eventbus.MovePlayerPayload{
			Proxy:  player.Proxy,
			Server: target.ServerID,
			Player: uuid,
		}))
	}
	if err != nil {
		return MoveFailed, err
	}

	span.AddEvent(tracing.EventPlayerMoveAccepted)
	return MoveDispatched, nil
}

func fromAutoscalerOutcome(o autoscaler.MoveOutcome) MoveOutcome {
	switch o {
	case autoscaler.MoveOk:
		return MoveDispatched
	case autoscaler.MoveWaiting:
		return MoveQueued
	case autoscaler.MoveMissingServerKind:
		return MoveMissingServerKind
	default:
		return MoveFailed
	}
}
