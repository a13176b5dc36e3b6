package rewards

import (
	"context"
	"sync"

	"github.com/ironveil/labyrinth/internal/domain/reward"
	apperr "github.com/ironveil/labyrinth/internal/errors"
)

// inMemoryRepository implements Repository using in-memory storage
type inMemoryRepository struct {
	mu      sync.RWMutex
	rewards map[string]*reward.Reward
	byChar  map[string][]string // characterID -> reward IDs
}

// NewInMemoryRepository creates a new in-memory reward repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		rewards: make(map[string]*reward.Reward),
		byChar:  make(map[string][]string),
	}
}

// Create stores a new earned reward
func (r *inMemoryRepository) Create(ctx context.Context, rw *reward.Reward) error {
	if rw == nil {
		return apperr.InvalidArgument("reward cannot be nil")
	}
	if rw.ID == "" {
		return apperr.InvalidArgument("reward ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rewards[rw.ID]; exists {
		return apperr.AlreadyExistsf("reward %s already exists", rw.ID)
	}

	rewardCopy := *rw
	r.rewards[rw.ID] = &rewardCopy
	r.byChar[rw.CharacterID] = append(r.byChar[rw.CharacterID], rw.ID)
	return nil
}

// Get retrieves a reward by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*reward.Reward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rw, exists := r.rewards[id]
	if !exists {
		return nil, apperr.NotFoundf("reward not found: %s", id)
	}

	rewardCopy := *rw
	return &rewardCopy, nil
}

// ListByCharacter retrieves every unclaimed reward for a character
func (r *inMemoryRepository) ListByCharacter(ctx context.Context, characterID string) ([]*reward.Reward, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byChar[characterID]
	out := make([]*reward.Reward, 0, len(ids))
	for _, id := range ids {
		if rw, exists := r.rewards[id]; exists {
			rewardCopy := *rw
			out = append(out, &rewardCopy)
		}
	}
	return out, nil
}

// Delete removes a reward
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rw, exists := r.rewards[id]
	if !exists {
		return apperr.NotFoundf("reward not found: %s", id)
	}

	delete(r.rewards, id)

	ids := r.byChar[rw.CharacterID]
	for i, rid := range ids {
		if rid == id {
			r.byChar[rw.CharacterID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}
