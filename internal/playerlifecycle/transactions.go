package playerlifecycle

import (
	"context"

	"github.com/menestis/skynet/internal/model"
	"github.com/menestis/skynet/internal/repository"
)

// ApplyCurrency implements spec §4.6.7's Currency transaction: atomic
// read-modify-write rejecting negative balances, invalidating the
// player's current server on success.
func (s *Service) ApplyCurrency(ctx context.Context, uuid string, currencyDelta, premiumDelta int64) (model.Player, error) {
	player, err := s.repo.UpdatePlayerCurrency(ctx, uuid, currencyDelta, premiumDelta)
	if err != nil {
		return model.Player{}, err
	}
	if err := s.invalidateIfOnServer(ctx, uuid); err != nil {
		return model.Player{}, err
	}
	return player, nil
}

// ApplyInventory implements spec §4.6.7's Inventory transaction: a
// multi-item delta, rejecting if any item would go negative.
func (s *Service) ApplyInventory(ctx context.Context, uuid string, delta map[string]int) (model.Player, error) {
	player, err := s.repo.UpdatePlayerInventory(ctx, uuid, delta)
	if err != nil {
		return model.Player{}, err
	}
	if err := s.invalidateIfOnServer(ctx, uuid); err != nil {
		return model.Player{}, err
	}
	return player, nil
}

// ApplyGroups implements spec §4.6.7's Groups transaction: applies each
// update in turn, invalidating only if any change was actually made.
func (s *Service) ApplyGroups(ctx context.Context, uuid string, updates []repository.GroupUpdate) (model.Player, error) {
	player, changed, err := s.repo.UpdatePlayerGroups(ctx, uuid, updates)
	if err != nil {
		return model.Player{}, err
	}
	if changed {
		if err := s.invalidateIfOnServer(ctx, uuid); err != nil {
			return model.Player{}, err
		}
	}
	return player, nil
}
