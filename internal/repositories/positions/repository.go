package positions

//go:generate mockgen -destination=mock/mock_repository.go -package=mockposrepo -source=repository.go

import (
	"context"

	"github.com/ironveil/labyrinth/internal/domain/position"
)

// Repository defines the interface for participant position storage.
// Position records are keyed by (participant, floor).
type Repository interface {
	// Create stores a new position record; fails if one already exists for
	// the (participant, floor) pair
	Create(ctx context.Context, pos *position.ParticipantPosition) error

	// Get retrieves the position of a participant on a floor
	Get(ctx context.Context, participantID string, floorNumber int) (*position.ParticipantPosition, error)

	// Update modifies an existing position record
	Update(ctx context.Context, pos *position.ParticipantPosition) error

	// Delete removes a position record
	Delete(ctx context.Context, participantID string, floorNumber int) error

	// ListByFloor retrieves every position record on a floor, for occupancy
	// counting
	ListByFloor(ctx context.Context, floorNumber int) ([]*position.ParticipantPosition, error)
}
