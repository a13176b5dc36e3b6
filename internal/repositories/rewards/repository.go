package rewards

//go:generate mockgen -destination=mock/mock_repository.go -package=mockrewardrepo -source=repository.go

import (
	"context"

	"github.com/ironveil/labyrinth/internal/domain/reward"
)

// Repository defines the interface for reward storage operations
type Repository interface {
	// Create stores a new earned reward
	Create(ctx context.Context, r *reward.Reward) error

	// Get retrieves a reward by ID
	Get(ctx context.Context, id string) (*reward.Reward, error)

	// ListByCharacter retrieves every unclaimed reward for a character
	ListByCharacter(ctx context.Context, characterID string) ([]*reward.Reward, error)

	// Delete removes a reward; claiming is deletion by explicit player action
	Delete(ctx context.Context, id string) error
}
