// Package playerlifecycle implements pre-login admission, proxy/server
// login, player moves, moderation (ban/mute/sanction), disconnect/session
// close, and transactions (currency/inventory/groups), per spec §4.6. It
// holds opaque handles to Repository, EventBus, Autoscaler, the reputation
// collaborator, and the echo teardown client, per spec §9's note on
// avoiding cyclic references between components.
package playerlifecycle

import (
	"github.com/go-logr/logr"

	"github.com/menestis/skynet/internal/autoscaler"
	"github.com/menestis/skynet/internal/echo"
	"github.com/menestis/skynet/internal/eventbus"
	"github.com/menestis/skynet/internal/repository"
	"github.com/menestis/skynet/internal/reputation"
)

// Service is the PlayerLifecycle component.
type Service struct {
	repo       repository.Repository
	bus        eventbus.Bus
	autoscaler *autoscaler.Autoscaler
	reputation reputation.Checker
	echo       *echo.Client
	log        logr.Logger
}

func New(repo repository.Repository, bus eventbus.Bus, autoscaler *autoscaler.Autoscaler, reputation reputation.Checker, echoClient *echo.Client, log logr.Logger) *Service {
	return &Service{repo: repo, bus: bus, autoscaler: autoscaler, reputation: reputation, echo: echoClient, log: log}
}
