package floors

//go:generate mockgen -destination=mock/mock_repository.go -package=mockfloorrepo -source=repository.go

import (
	"context"

	"github.com/ironveil/labyrinth/internal/domain/floor"
)

// Repository defines the interface for floor graph storage operations
type Repository interface {
	// Save stores a floor's full graph, replacing any existing graph for
	// that floor number
	Save(ctx context.Context, graph *floor.Graph) error

	// Get retrieves a floor's graph by floor number
	Get(ctx context.Context, floorNumber int) (*floor.Graph, error)

	// Delete removes a floor's graph entirely; regeneration clears prior
	// nodes and edges this way before rebuilding
	Delete(ctx context.Context, floorNumber int) error

	// ListFloors returns the floor numbers with a stored graph
	ListFloors(ctx context.Context) ([]int, error)
}
