// Package discord issues and completes account-link codes and forwards
// named webhook messages, per spec §3 "DiscordLink" and §6's discord
// routes. Webhook URLs are resolved through the settings store under a
// "discord_webhook:<name>" key, reusing the generic settings mechanism
// rather than a dedicated table.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/menestis/skynet/internal/apierr"
	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/repository"
)

const (
	linkTTL              = 10 * time.Minute
	webhookSettingPrefix = "discord_webhook:"
	defaultTimeout       = 5 * time.Second
)

// Message is the webhook payload forwarded verbatim when the caller's body
// is valid JSON, or synthesized with a plain "content" field otherwise.
type Message map[string]any

// Service issues link codes, completes/deletes links, and forwards
// webhook calls.
type Service struct {
	repo       repository.Repository
	bus        eventbus.Bus
	httpClient *http.Client
}

func New(repo repository.Repository, bus eventbus.Bus) *Service {
	return &Service{repo: repo, bus: bus, httpClient: &http.Client{Timeout: defaultTimeout}}
}

// CreateLink mints a new link code for an existing player.
func (s *Service) CreateLink(ctx context.Context, uuid string) (string, error) {
	if _, found, err := s.repo.GetPlayer(ctx, uuid); err != nil {
		return "", err
	} else if !found {
		return "", apierr.New(apierr.KindNotFound, "player %s not found", uuid)
	}

	link, err := s.repo.CreateDiscordLink(ctx, uuid, linkTTL)
	if err != nil {
		return "", err
	}
	return link.Code, nil
}

// CompleteLink resolves a link code, binds discordID to the player, and
// invalidates any cached session the player's proxy/server holds.
func (s *Service) CompleteLink(ctx context.Context, code, discordID string) error {
	link, found, err := s.repo.ResolveDiscordLink(ctx, code)
	if err != nil {
		return err
	}
	if !found {
		return apierr.New(apierr.KindNotFound, "discord link %s not found or expired", code)
	}

	if err := s.repo.BindDiscord(ctx, link.UUID, discordID); err != nil {
		return err
	}
	return s.invalidate(ctx, link.UUID)
}

// DeleteLink unbinds discordID from its player, invalidating any cached
// session as above.
func (s *Service) DeleteLink(ctx context.Context, discordID string) error {
	player, found, err := s.repo.GetPlayerByDiscordID(ctx, discordID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if err := s.repo.UnbindDiscord(ctx, discordID); err != nil {
		return err
	}
	return s.invalidate(ctx, player.UUID)
}

func (s *Service) invalidate(ctx context.Context, uuid string) error {
	player, found, err := s.repo.GetPlayer(ctx, uuid)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if player.Proxy != "" {
		if err := s.bus.Publish(ctx, eventbus.InvalidatePlayerEvent(eventbus.InvalidatePlayerPayload{Server: player.Proxy, UUID: uuid})); err != nil {
			return err
		}
	}
	if player.Server != "" {
		if err := s.bus.Publish(ctx, eventbus.InvalidatePlayerEvent(eventbus.InvalidatePlayerPayload{Server: player.Server, UUID: uuid})); err != nil {
			return err
		}
	}
	return nil
}

// CallWebhook forwards body to the URL registered under name, wrapping a
// non-JSON body in {"content": body} as the original tool did.
func (s *Service) CallWebhook(ctx context.Context, name string, body []byte) error {
	webhookURL, found, err := s.repo.GetSetting(ctx, webhookSettingPrefix+name)
	if err != nil {
		return err
	}
	if !found {
		return apierr.New(apierr.KindNotFound, "webhook %s not registered", name)
	}

	var message Message
	if err := json.Unmarshal(body, &message); err != nil {
		message = Message{"content": string(body)}
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apierr.Wrap(apierr.KindInternal, err, "webhook %s forward failed", name)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apierr.New(apierr.KindInternal, "webhook %s returned status %d", name, resp.StatusCode)
	}
	return nil
}
