package playerlifecycle

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/tracing"
)

// BanRequest is the input to Ban, per spec §4.6.5.
type BanRequest struct {
	Player string
	Reason string
	Issuer string
	IP     bool
	Unban  bool
	TTL    time.Duration
}

// Ban implements spec §4.6.5's Ban branch, including the IP-closure walk
// for network-wide bans/unbans.
func (s *Service) Ban(ctx context.Context, req BanRequest) (string, error) {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanPlayerBan, trace.WithAttributes(tracing.AttrPlayerUUID(req.Player)))
	defer span.End()

	if req.IP {
		if req.Unban {
			return "", s.unbanIPClosure(ctx, req.Player)
		}
		return s.banIPClosure(ctx, req)
	}

	if req.Unban {
		return "", s.repo.ClearBan(ctx, req.Player)
	}

	var end *time.Time
	if req.TTL > 0 {
		t := time.Now().Add(req.TTL)
		end = &t
	}
	banID, err := s.repo.InsertBanLog(ctx, model.Ban{
		Start:  time.Now(),
		End:    end,
		Issuer: req.Issuer,
		Reason: req.Reason,
		Target: req.Player,
	})
	if err != nil {
		return "", err
	}
	if err := s.repo.ApplyBan(ctx, req.Player, banID, req.Reason, req.TTL); err != nil {
		return "", err
	}

	player, found, err := s.repo.GetPlayer(ctx, req.Player)
	if err != nil {
		return "", err
	}
	if found && player.Online() {
		if err := s.bus.Publish(ctx, eventbus.DisconnectPlayerEvent(eventbus.DisconnectPlayerPayload{
			Proxy:  player.Proxy,
			Player: req.Player,
		})); err != nil {
			return "", err
		}
	}

	return banID, nil
}

// banClosure walks the player-IP bipartite graph reachable from seedPlayer,
// collecting every player and IP transitively linked through shared
// session IPs.
func (s *Service) banClosure(ctx context.Context, seedPlayer string) ([]string, []string, error) {
	players := map[string]bool{seedPlayer: true}
	ips := map[string]bool{}
	playerQueue := []string{seedPlayer}
	var ipQueue []string

	for len(playerQueue) > 0 || len(ipQueue) > 0 {
		for len(playerQueue) > 0 {
			p := playerQueue[0]
			playerQueue = playerQueue[1:]
			playerIPs, err := s.repo.SessionIPsForPlayer(ctx, p)
			if err != nil {
				return nil, nil, err
			}
			for _, ip := range playerIPs {
				if !ips[ip] {
					ips[ip] = true
					ipQueue = append(ipQueue, ip)
				}
			}
		}
		for len(ipQueue) > 0 {
			ip := ipQueue[0]
			ipQueue = ipQueue[1:]
			peers, err := s.repo.ListPlayersByIP(ctx, ip)
			if err != nil {
				return nil, nil, err
			}
			for _, peer := range peers {
				if !players[peer.UUID] {
					players[peer.UUID] = true
					playerQueue = append(playerQueue, peer.UUID)
				}
			}
		}
	}

	playerList := make([]string, 0, len(players))
	for p := range players {
		playerList = append(playerList, p)
	}
	ipList := make([]string, 0, len(ips))
	for ip := range ips {
		ipList = append(ipList, ip)
	}
	return playerList, ipList, nil
}

func (s *Service) banIPClosure(ctx context.Context, req BanRequest) (string, error) {
	players, ips, err := s.banClosure(ctx, req.Player)
	if err != nil {
		return "", err
	}

	primaryIP := ""
	if len(ips) > 0 {
		primaryIP = ips[0]
	}

	var end *time.Time
	if req.TTL > 0 {
		t := time.Now().Add(req.TTL)
		end = &t
	}
	banID, err := s.repo.InsertBanLog(ctx, model.Ban{
		Start:  time.Now(),
		End:    end,
		Issuer: req.Issuer,
		Reason: req.Reason,
		Target: req.Player,
		IP:     primaryIP,
	})
	if err != nil {
		return "", err
	}

	for _, p := range players {
		if err := s.repo.ApplyBan(ctx, p, banID, req.Reason, req.TTL); err != nil {
			return "", err
		}
		if player, found, err := s.repo.GetPlayer(ctx, p); err == nil && found && player.Online() {
			if err := s.bus.Publish(ctx, eventbus.DisconnectPlayerEvent(eventbus.DisconnectPlayerPayload{
				Proxy:  player.Proxy,
				Player: p,
			})); err != nil {
				return "", err
			}
		}
	}
	for _, ip := range ips {
		if err := s.repo.InsertIPBan(ctx, model.IPBan{
			IP:     ip,
			Reason: req.Reason,
			Start:  time.Now(),
			End:    end,
			Ban:    banID,
		}, req.TTL); err != nil {
			return "", err
		}
	}

	return banID, nil
}

// unbanIPClosure re-derives the same closure from the player's current
// session IPs and clears every member; the ban log itself only records
// one representative IP, so the closure is recomputed rather than stored.
func (s *Service) unbanIPClosure(ctx context.Context, seedPlayer string) error {
	players, ips, err := s.banClosure(ctx, seedPlayer)
	if err != nil {
		return err
	}
	for _, p := range players {
		if err := s.repo.ClearBan(ctx, p); err != nil {
			return err
		}
	}
	for _, ip := range ips {
		if err := s.repo.ClearIPBan(ctx, ip); err != nil {
			return err
		}
	}
	return nil
}

// Mute applies or clears a mute, invalidating the player's current server
// so it reloads permissions.
func (s *Service) Mute(ctx context.Context, player, reason string, unmute bool, ttl time.Duration) error {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanPlayerMute, trace.WithAttributes(tracing.AttrPlayerUUID(player)))
	defer span.End()

	if unmute {
		if err := s.repo.ClearMute(ctx, player); err != nil {
			return err
		}
	} else {
		muteID, err := s.repo.InsertBanLog(ctx, model.Ban{Start: time.Now(), Reason: reason, Target: player})
		if err != nil {
			return err
		}
		if err := s.repo.ApplyMute(ctx, player, muteID, ttl); err != nil {
			return err
		}
	}

	return s.invalidateIfOnServer(ctx, player)
}

func (s *Service) invalidateIfOnServer(ctx context.Context, uuid string) error {
	p, found, err := s.repo.GetPlayer(ctx, uuid)
	if err != nil {
		return err
	}
	if !found || p.Server == "" {
		return nil
	}
	return s.bus.Publish(ctx, eventbus.InvalidatePlayerEvent(eventbus.InvalidatePlayerPayload{Server: p.Server, UUID: uuid}))
}

// Sanction implements spec §4.6.5's Sanction branch: walk the board's
// escalation ladder using a per-(player,category) cursor.
func (s *Service) Sanction(ctx context.Context, player, category string, unsanction bool) error {
	tracer := otel.Tracer("skynet")
	ctx, span := tracer.Start(ctx, tracing.SpanPlayerSanction, trace.WithAttributes(tracing.AttrPlayerUUID(player), tracing.AttrSanctionCategory(category)))
	defer span.End()

	board, found, err := s.repo.GetSanctionBoard(ctx, category)
	if err != nil {
		return err
	}
	if !found || len(board.Sanctions) == 0 {
		return nil
	}

	state, found, err := s.repo.GetSanctionState(ctx, player, category)
	cursor := 0
	if found {
		cursor = state.Value
	}
	if err != nil {
		return err
	}

	if cursor >= len(board.Sanctions) {
		cursor = len(board.Sanctions) - 1
	}
	if cursor < 0 {
		cursor = 0
	}

	entry := board.Sanctions[cursor]
	if err := s.applySanctionEntry(ctx, player, entry, unsanction); err != nil {
		return err
	}

	next := cursor
	if unsanction {
		next--
		if next < 0 {
			next = 0
		}
	} else {
		next++
	}
	if err := s.repo.SetSanctionState(ctx, player, category, next); err != nil {
		return err
	}

	span.AddEvent(tracing.EventPlayerSanctionApplied)
	return nil
}

// applySanctionEntry parses "K", "B<seconds>", or "M<seconds>" and applies
// (or, on unsanction, reverses) the corresponding action.
func (s *Service) applySanctionEntry(ctx context.Context, player, entry string, reverse bool) error {
	switch {
	case entry == "K":
		if reverse {
			return nil
		}
		p, found, err := s.repo.GetPlayer(ctx, player)
		if err != nil {
			return err
		}
		if !found || !p.Online() {
			return nil
		}
		return s.bus.Publish(ctx, eventbus.DisconnectPlayerEvent(eventbus.DisconnectPlayerPayload{Proxy: p.Proxy, Player: player}))

	case strings.HasPrefix(entry, "B"):
		ttl, err := sanctionDuration(entry[1:])
		if err != nil {
			return err
		}
		if reverse {
			return s.repo.ClearBan(ctx, player)
		}
		banID, err := s.repo.InsertBanLog(ctx, model.Ban{Start: time.Now(), Reason: "sanction board escalation", Target: player})
		if err != nil {
			return err
		}
		if err := s.repo.ApplyBan(ctx, player, banID, "sanction board escalation", ttl); err != nil {
			return err
		}
		return s.disconnectIfOnline(ctx, player)

	case strings.HasPrefix(entry, "M"):
		ttl, err := sanctionDuration(entry[1:])
		if err != nil {
			return err
		}
		if reverse {
			return s.repo.ClearMute(ctx, player)
		}
		muteID, err := s.repo.InsertBanLog(ctx, model.Ban{Start: time.Now(), Reason: "sanction board escalation", Target: player})
		if err != nil {
			return err
		}
		return s.repo.ApplyMute(ctx, player, muteID, ttl)

	default:
		return fmt.Errorf("sanction board entry %q is not K, B<seconds>, or M<seconds>", entry)
	}
}

func (s *Service) disconnectIfOnline(ctx context.Context, player string) error {
	p, found, err := s.repo.GetPlayer(ctx, player)
	if err != nil {
		return err
	}
	if found && p.Online() {
		return s.bus.Publish(ctx, eventbus.DisconnectPlayerEvent(eventbus.DisconnectPlayerPayload{Proxy: p.Proxy, Player: player}))
	}
	return nil
}

// sanctionDuration parses the numeric seconds suffix of a B/M sanction
// entry; an empty suffix means permanent (ttl=0).
func sanctionDuration(suffix string) (time.Duration, error) {
	if suffix == "" {
		return 0, nil
	}
	seconds, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid sanction duration %q: %w", suffix, err)
	}
	return time.Duration(seconds) * time.Second, nil
}
