package encounters

//go:generate mockgen -destination=mock/mock_repository.go -package=mockencrepo -source=repository.go

import (
	"context"

	"github.com/ironveil/labyrinth/internal/domain/combat"
)

// Repository is the arena registry for encounter instances. Instances are
// transient by design, so there is no persistent backend: the registry is
// in-memory and keyed by (floor, node) with atomic check-then-insert
// semantics for creation.
type Repository interface {
	// CreatePrepared stores a new prepared instance. Creation is an atomic
	// check-then-insert on the (floor, node) key: if a prepared or active
	// instance already exists there, the later request loses.
	CreatePrepared(ctx context.Context, instance *combat.Instance) error

	// Get retrieves an instance by ID
	Get(ctx context.Context, id string) (*combat.Instance, error)

	// GetByNode retrieves the live (prepared or active) instance at a node,
	// or nil if none exists
	GetByNode(ctx context.Context, floorNumber int, nodeID string) (*combat.Instance, error)

	// GetActiveByParticipant retrieves the active instance a participant is
	// bound to, or nil
	GetActiveByParticipant(ctx context.Context, participantID string) (*combat.Instance, error)

	// Update replaces a stored instance and refreshes the participant index
	Update(ctx context.Context, instance *combat.Instance) error

	// Remove discards a resolved instance and clears its indexes
	Remove(ctx context.Context, id string) error
}
