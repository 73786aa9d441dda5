package playerlifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/permissions"
	"github.com/menestis/skynet/internal/tracing"
)

// ProxyLoginRequest is the input to a proxy-login attempt.
type ProxyLoginRequest struct {
	UUID     string
	Username string
	ProxyID  string
	IP       string
	Version  string
	Brand    string
	Locale   string
}

// LoginInfo is the resolved permission/locale/property projection handed
// back on a successful login.
type LoginInfo struct {
	Power       int
	Permissions []string
	Prefix      string
	Suffix      string
	Locale      string
	Properties  map[string]string
}

// ProxyLoginOutcome is the result of a proxy-login attempt.
type ProxyLoginOutcome struct {
	Allowed   bool
	Reason    string
	SessionID string
	Info      LoginInfo
}

// ProxyLogin implements spec §4.6.2.
func (s *Service) ProxyLogin(ctx context.Context, req ProxyLoginRequest) (ProxyLoginOutcome, error) {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanPlayerProxyLogin, trace.WithAttributes(tracing.AttrPlayerUUID(req.UUID), tracing.AttrProxyID(req.ProxyID)))
	defer span.End()

	player, found, err := s.repo.GetPlayer(ctx, req.UUID)
	if err != nil {
		return ProxyLoginOutcome{}, err
	}
	if !found {
		player = model.Player{UUID: req.UUID, Username: req.Username, Locale: req.Locale}
		if err := s.repo.UpsertPlayer(ctx, player); err != nil {
			return ProxyLoginOutcome{}, err
		}
	}

	if player.Session != "" {
		return ProxyLoginOutcome{Allowed: false, Reason: fmt.Sprintf("already connected with session %s", player.Session)}, nil
	}

	if player.Ban != "" {
		reason, err := s.describeBan(ctx, player.Ban, player.BanReason)
		if err != nil {
			return ProxyLoginOutcome{}, err
		}
		return ProxyLoginOutcome{Allowed: false, Reason: reason}, nil
	}

	sessionID := uuid.NewString()
	if err := s.repo.InsertSession(ctx, model.Session{
		ID:      sessionID,
		Player:  req.UUID,
		IP:      req.IP,
		Version: req.Version,
		Brand:   req.Brand,
		Start:   time.Now(),
	}); err != nil {
		return ProxyLoginOutcome{}, err
	}

	if err := s.repo.UpsertPlayerOnlineProxy(ctx, req.UUID, req.ProxyID, sessionID, req.Username); err != nil {
		return ProxyLoginOutcome{}, err
	}

	groups, err := s.repo.ListGroups(ctx, player.Groups)
	if err != nil {
		return ProxyLoginOutcome{}, err
	}
	resolution := permissions.Resolve(player, groups, nil, permissions.ContextProxy)

	locale := req.Locale
	if locale == "" {
		locale = player.Locale
	}

	span.AddEvent(tracing.EventPlayerSessionOpened)

	return ProxyLoginOutcome{
		Allowed:   true,
		SessionID: sessionID,
		Info: LoginInfo{
			Power:       resolution.Power,
			Permissions: resolution.Permissions,
			Prefix:      resolution.Prefix,
			Suffix:      resolution.Suffix,
			Locale:      locale,
			Properties:  player.Properties,
		},
	}, nil
}

// describeBan composes a ban denial message from the ban log's expiration
// and the reason recorded against the player row, per spec §4.6.2.
func (s *Service) describeBan(ctx context.Context, banID, reason string) (string, error) {
	ban, found, err := s.repo.GetBan(ctx, banID)
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("banned (%s): %s", banID, reason), nil
	}
	if ban.End == nil {
		return fmt.Sprintf("banned permanently (%s): %s", banID, reason), nil
	}
	return fmt.Sprintf("banned until %s (%s): %s", ban.End.Format(time.RFC3339), banID, reason), nil
}
