package parties

//go:generate mockgen -destination=mock/mock_repository.go -package=mockpartyrepo -source=repository.go

import (
	"context"

	"github.com/ironveil/labyrinth/internal/domain/party"
)

// Repository defines the interface for party storage operations
type Repository interface {
	// Create stores a new party
	Create(ctx context.Context, p *party.Party) error

	// Get retrieves a party by ID
	Get(ctx context.Context, id string) (*party.Party, error)

	// GetByParticipant retrieves the party a participant belongs to, or nil.
	// A participant belongs to at most one party at a time.
	GetByParticipant(ctx context.Context, participantID string) (*party.Party, error)

	// Update modifies an existing party
	Update(ctx context.Context, p *party.Party) error

	// Delete removes a party
	Delete(ctx context.Context, id string) error
}
