package playerlifecycle

import (
	"context"
	"net"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/tracing"
)

const autoIPBanTTL = 7 * 24 * time.Hour

// PreloginOutcome is the result of admission control for a connecting IP.
type PreloginOutcome struct {
	Allowed bool
	Reason  string
	BanID   string
}

// Prelogin implements spec §4.6.1: maintenance gate, active IP ban lookup,
// loopback bypass, reputation query (degrading to allow on transport
// error), and auto-banning IPs the reputation collaborator classifies as
// risky.
func (s *Service) Prelogin(ctx context.Context, ip string) (PreloginOutcome, error) {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanPlayerPrelogin, trace.WithAttributes(attribute.String("skynet.client.ip", ip)))
	defer span.End()

	if maintenance, found, err := s.repo.GetSetting(ctx, model.SettingMaintenance); err != nil {
		return PreloginOutcome{}, err
	} else if found && maintenance == "true" {
		override, _, err := s.repo.GetSetting(ctx, model.SettingMaintenanceOverride)
		if err != nil {
			return PreloginOutcome{}, err
		}
		if !containsIP(override, ip) {
			return PreloginOutcome{Allowed: false, Reason: "the fleet is under maintenance"}, nil
		}
	}

	if ban, found, err := s.repo.GetIPBan(ctx, ip); err != nil {
		return PreloginOutcome{}, err
	} else if found {
		return PreloginOutcome{Allowed: false, Reason: "ip banned", BanID: ban.Ban}, nil
	}

	if isLoopback(ip) {
		return PreloginOutcome{Allowed: true}, nil
	}

	verdict, err := s.reputation.Check(ctx, ip)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reputation check failed, degrading to allow")
		return PreloginOutcome{Allowed: true}, nil
	}

	if verdict.IsRisky() {
		banID, err := s.repo.InsertBanLog(ctx, model.Ban{
			Start:  time.Now(),
			Reason: "automated: reputation service classified this IP as risky",
			IP:     ip,
		})
		if err != nil {
			return PreloginOutcome{}, err
		}
		if err := s.repo.InsertIPBan(ctx, model.IPBan{
			IP:        ip,
			Reason:    "automated risk classification",
			Start:     time.Now(),
			Ban:       banID,
			Automated: true,
		}, autoIPBanTTL); err != nil {
			return PreloginOutcome{}, err
		}
		return PreloginOutcome{Allowed: false, Reason: "ip banned", BanID: banID}, nil
	}

	return PreloginOutcome{Allowed: true}, nil
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

// containsIP reports whether the comma-separated override list names ip.
func containsIP(overrideList, ip string) bool {
	start := 0
	for i := 0; i <= len(overrideList); i++ {
		if i == len(overrideList) || overrideList[i] == ',' {
			if overrideList[start:i] == ip {
				return true
			}
			start = i + 1
		}
	}
	return false
}
