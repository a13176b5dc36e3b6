package reward

//go:generate mockgen -destination=mock/mock_service.go -package=mockreward -source=service.go

import (
	"context"
	"strings"
	"time"

	"github.com/ironveil/labyrinth/internal/domain/reward"
	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/repositories/rewards"
	"github.com/ironveil/labyrinth/internal/uuid"
)

// Repository is an alias for the reward repository interface
type Repository = rewards.Repository

// Grant describes one reward to hand out
type Grant struct {
	Type       reward.Type
	Identifier string
	Quantity   int
}

// Service defines the reward service interface
type Service interface {
	// GrantRewards creates earned rewards for a character; they stay
	// unclaimed until the player claims them explicitly
	GrantRewards(ctx context.Context, characterID, source string, grants []Grant) ([]*reward.Reward, error)

	// ListUnclaimed retrieves every unclaimed reward for a character
	ListUnclaimed(ctx context.Context, characterID string) ([]*reward.Reward, error)

	// Claim removes a reward by explicit player action. The caller must own
	// the reward.
	Claim(ctx context.Context, characterID, rewardID string) (*reward.Reward, error)
}

type service struct {
	repository    Repository
	uuidGenerator uuid.Generator
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository    Repository     // Required
	UUIDGenerator uuid.Generator // Optional
}

// NewService creates a new reward service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}

	svc := &service{
		repository: cfg.Repository,
	}

	if cfg.UUIDGenerator != nil {
		svc.uuidGenerator = cfg.UUIDGenerator
	} else {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}

	return svc
}

// GrantRewards creates earned rewards for a character
func (s *service) GrantRewards(ctx context.Context, characterID, source string, grants []Grant) ([]*reward.Reward, error) {
	if strings.TrimSpace(characterID) == "" {
		return nil, apperr.InvalidArgument("character ID is required")
	}

	out := make([]*reward.Reward, 0, len(grants))
	for _, g := range grants {
		if g.Quantity < 1 {
			continue
		}
		rw := &reward.Reward{
			ID:          s.uuidGenerator.New(),
			CharacterID: characterID,
			Type:        g.Type,
			Identifier:  g.Identifier,
			Quantity:    g.Quantity,
			Source:      source,
			EarnedAt:    time.Now().UTC(),
		}
		if err := s.repository.Create(ctx, rw); err != nil {
			return nil, apperr.Wrap(err, "failed to store reward")
		}
		out = append(out, rw)
	}
	return out, nil
}

// ListUnclaimed retrieves every unclaimed reward for a character
func (s *service) ListUnclaimed(ctx context.Context, characterID string) ([]*reward.Reward, error) {
	if strings.TrimSpace(characterID) == "" {
		return nil, apperr.InvalidArgument("character ID is required")
	}
	return s.repository.ListByCharacter(ctx, characterID)
}

// Claim removes a reward by explicit player action
func (s *service) Claim(ctx context.Context, characterID, rewardID string) (*reward.Reward, error) {
	rw, err := s.repository.Get(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if rw.CharacterID != characterID {
		return nil, apperr.NotFoundf("reward not found: %s", rewardID)
	}

	if err := s.repository.Delete(ctx, rewardID); err != nil {
		return nil, err
	}
	return rw, nil
}
