package playerlifecycle

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/menestis/skynet/internal/echo"
	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/tracing"
)

// Disconnect publishes DisconnectPlayer to the player's proxy if known,
// per spec §4.6.6.
func (s *Service) Disconnect(ctx context.Context, uuid string) error {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanPlayerDisconnect, trace.WithAttributes(tracing.AttrPlayerUUID(uuid)))
	defer span.End()

	player, found, err := s.repo.GetPlayer(ctx, uuid)
	if err != nil {
		return err
	}
	if !found || player.Proxy == "" {
		return nil
	}
	return s.bus.Publish(ctx, eventbus.DisconnectPlayerEvent(eventbus.DisconnectPlayerPayload{
		Proxy:  player.Proxy,
		Player: uuid,
	}))
}

// CloseSession implements spec §4.6.6's session-close half: ends the
// Session row, nulls the player's online fields, and fires a best-effort
// echo teardown notification if one was enabled.
func (s *Service) CloseSession(ctx context.Context, sessionID, playerUUID string, echoEnabled bool, clientIP string) error {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanSessionClose, trace.WithAttributes(tracing.AttrPlayerUUID(playerUUID), tracing.AttrSessionID(sessionID)))
	defer span.End()

	player, found, err := s.repo.GetPlayer(ctx, playerUUID)
	if err != nil {
		return err
	}

	if err := s.repo.CloseSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.repo.NullPlayerSession(ctx, playerUUID); err != nil {
		return err
	}

	span.AddEvent(tracing.EventPlayerSessionClosed)

	if echoEnabled && found && s.echo != nil {
		s.echo.Teardown(ctx, playerUUID, echo.Notification{IP: clientIP, Server: player.Server, Username: player.Username})
	}

	return nil
}
