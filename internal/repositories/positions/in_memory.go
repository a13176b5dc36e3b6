package positions

import (
	"context"
	"fmt"
	"sync"

	"github.com/ironveil/labyrinth/internal/domain/position"
	apperr "github.com/ironveil/labyrinth/internal/errors"
)

// inMemoryRepository implements Repository using in-memory storage
type inMemoryRepository struct {
	mu        sync.RWMutex
	positions map[string]*position.ParticipantPosition
}

// NewInMemoryRepository creates a new in-memory position repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		positions: make(map[string]*position.ParticipantPosition),
	}
}

func memKey(participantID string, floorNumber int) string {
	return fmt.Sprintf("%s:%d", participantID, floorNumber)
}

// Create stores a new position record
func (r *inMemoryRepository) Create(ctx context.Context, pos *position.ParticipantPosition) error {
	if pos == nil {
		return apperr.InvalidArgument("position cannot be nil")
	}
	if pos.ParticipantID == "" {
		return apperr.InvalidArgument("participant ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := memKey(pos.ParticipantID, pos.Floor)
	if _, exists := r.positions[key]; exists {
		return apperr.AlreadyExistsf("position already exists for participant %s on floor %d", pos.ParticipantID, pos.Floor)
	}

	posCopy := clone(pos)
	r.positions[key] = posCopy
	return nil
}

// Get retrieves the position of a participant on a floor
func (r *inMemoryRepository) Get(ctx context.Context, participantID string, floorNumber int) (*position.ParticipantPosition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, exists := r.positions[memKey(participantID, floorNumber)]
	if !exists {
		return nil, apperr.NotFoundf("no position for participant %s on floor %d", participantID, floorNumber)
	}

	return clone(pos), nil
}

// Update modifies an existing position record
func (r *inMemoryRepository) Update(ctx context.Context, pos *position.ParticipantPosition) error {
	if pos == nil {
		return apperr.InvalidArgument("position cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := memKey(pos.ParticipantID, pos.Floor)
	if _, exists := r.positions[key]; !exists {
		return apperr.NotFoundf("no position for participant %s on floor %d", pos.ParticipantID, pos.Floor)
	}

	r.positions[key] = clone(pos)
	return nil
}

// Delete removes a position record
func (r *inMemoryRepository) Delete(ctx context.Context, participantID string, floorNumber int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memKey(participantID, floorNumber)
	if _, exists := r.positions[key]; !exists {
		return apperr.NotFoundf("no position for participant %s on floor %d", participantID, floorNumber)
	}

	delete(r.positions, key)
	return nil
}

// ListByFloor retrieves every position record on a floor
func (r *inMemoryRepository) ListByFloor(ctx context.Context, floorNumber int) ([]*position.ParticipantPosition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*position.ParticipantPosition
	for _, pos := range r.positions {
		if pos.Floor == floorNumber {
			out = append(out, clone(pos))
		}
	}
	return out, nil
}

// clone deep-copies a position record to avoid external modifications
func clone(pos *position.ParticipantPosition) *position.ParticipantPosition {
	posCopy := *pos
	posCopy.Explored = make(map[string]bool, len(pos.Explored))
	for k, v := range pos.Explored {
		posCopy.Explored[k] = v
	}
	posCopy.History = append([]position.HistoryEntry(nil), pos.History...)
	return &posCopy
}
