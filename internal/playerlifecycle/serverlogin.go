package playerlifecycle

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/menestis/skynet/internal/apierr"
	"github.com/menestis/skynet/internal/permissions"
	"github.com/menestis/skynet/internal/tracing"
)

const hostProperty = "host"

// hostGroupName is injected into a login's group set, for that login only,
// when the target server's "host" property names the logging-in player.
const hostGroupName = "Host"

// ServerLoginRequest is the input to a server-login attempt.
type ServerLoginRequest struct {
	PlayerUUID string
	ServerID   string
}

// ServerLogin implements spec §4.6.3.
func (s *Service) ServerLogin(ctx context.Context, req ServerLoginRequest) (LoginInfo, error) {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanPlayerServerLogin, trace.WithAttributes(tracing.AttrPlayerUUID(req.PlayerUUID), tracing.AttrServerID(req.ServerID)))
	defer span.End()

	server, found, err := s.repo.GetServer(ctx, req.ServerID)
	if err != nil {
		return LoginInfo{}, err
	}
	if !found {
		return LoginInfo{}, apierr.New(apierr.KindNotFound, "server %s not found", req.ServerID)
	}

	kind, found, err := s.repo.GetServerKind(ctx, server.Kind)
	if err != nil {
		return LoginInfo{}, err
	}
	if !found {
		return LoginInfo{}, apierr.New(apierr.KindNotFound, "server kind %s not found", server.Kind)
	}

	player, found, err := s.repo.GetPlayer(ctx, req.PlayerUUID)
	if err != nil {
		return LoginInfo{}, err
	}
	if !found {
		return LoginInfo{}, apierr.New(apierr.KindNotFound, "player %s not found", req.PlayerUUID)
	}

	groupNames := append([]string(nil), player.Groups...)
	if server.Properties[hostProperty] == req.PlayerUUID {
		groupNames = append(groupNames, hostGroupName)
	}

	groups, err := s.repo.ListGroups(ctx, groupNames)
	if err != nil {
		return LoginInfo{}, err
	}
	resolution := permissions.Resolve(player, groups, kind.Permissions, permissions.ContextServer)

	clearWaiting := player.WaitingMoveTo == server.Kind
	if err := s.repo.SetPlayerServer(ctx, req.PlayerUUID, req.ServerID, clearWaiting); err != nil {
		return LoginInfo{}, err
	}

	return LoginInfo{
		Power:       resolution.Power,
		Permissions: resolution.Permissions,
		Prefix:      resolution.Prefix,
		Suffix:      resolution.Suffix,
		Locale:      player.Locale,
		Properties:  player.Properties,
	}, nil
}
