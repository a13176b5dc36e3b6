package encounters

import (
	"context"
	"fmt"
	"sync"

	"github.com/ironveil/labyrinth/internal/domain/combat"
	apperr "github.com/ironveil/labyrinth/internal/errors"
)

// inMemoryRepository implements the arena registry. One mutex covers every
// index so check-then-insert is atomic.
type inMemoryRepository struct {
	mu        sync.RWMutex
	instances map[string]*combat.Instance
	byNode    map[string]string // "floor:node" -> instance ID, live instances only
}

// NewInMemoryRepository creates a new in-memory encounter registry
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		instances: make(map[string]*combat.Instance),
		byNode:    make(map[string]string),
	}
}

func nodeKey(floorNumber int, nodeID string) string {
	return fmt.Sprintf("%d:%s", floorNumber, nodeID)
}

// CreatePrepared stores a new prepared instance with first-writer-wins
// semantics on the (floor, node) key
func (r *inMemoryRepository) CreatePrepared(ctx context.Context, instance *combat.Instance) error {
	if instance == nil {
		return apperr.InvalidArgument("instance cannot be nil")
	}
	if instance.State != combat.StatePrepared {
		return apperr.InvalidArgumentf("instance must be prepared, got %s", instance.State)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := nodeKey(instance.Floor, instance.NodeID)
	if existing, taken := r.byNode[key]; taken {
		return apperr.AlreadyExistsf("node %s on floor %d already has encounter %s", instance.NodeID, instance.Floor, existing)
	}
	if _, exists := r.instances[instance.ID]; exists {
		return apperr.AlreadyExistsf("encounter %s already exists", instance.ID)
	}

	r.instances[instance.ID] = instance
	r.byNode[key] = instance.ID
	return nil
}

// Get retrieves an instance by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*combat.Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, exists := r.instances[id]
	if !exists {
		return nil, apperr.NotFoundf("encounter not found: %s", id)
	}

	return instance, nil
}

// GetByNode retrieves the live instance at a node, or nil
func (r *inMemoryRepository) GetByNode(ctx context.Context, floorNumber int, nodeID string) (*combat.Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byNode[nodeKey(floorNumber, nodeID)]
	if !exists {
		return nil, nil
	}
	return r.instances[id], nil
}

// GetActiveByParticipant retrieves the active instance a participant is bound
// to, or nil
func (r *inMemoryRepository) GetActiveByParticipant(ctx context.Context, participantID string) (*combat.Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, instance := range r.instances {
		if instance.State == combat.StateActive && instance.HasParticipant(participantID) {
			return instance, nil
		}
	}
	return nil, nil
}

// Update replaces a stored instance
func (r *inMemoryRepository) Update(ctx context.Context, instance *combat.Instance) error {
	if instance == nil {
		return apperr.InvalidArgument("instance cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[instance.ID]; !exists {
		return apperr.NotFoundf("encounter not found: %s", instance.ID)
	}

	r.instances[instance.ID] = instance

	// A resolved instance no longer holds its node
	if instance.State == combat.StateResolved {
		key := nodeKey(instance.Floor, instance.NodeID)
		if r.byNode[key] == instance.ID {
			delete(r.byNode, key)
		}
	}
	return nil
}

// Remove discards an instance and clears its indexes
func (r *inMemoryRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, exists := r.instances[id]
	if !exists {
		return apperr.NotFoundf("encounter not found: %s", id)
	}

	delete(r.instances, id)

	key := nodeKey(instance.Floor, instance.NodeID)
	if r.byNode[key] == id {
		delete(r.byNode, key)
	}
	return nil
}
