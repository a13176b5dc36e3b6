package floors

import (
	"context"
	"sort"
	"sync"

	"github.com/ironveil/labyrinth/internal/domain/floor"
	apperr "github.com/ironveil/labyrinth/internal/errors"
)

// inMemoryRepository implements Repository using in-memory storage
type inMemoryRepository struct {
	mu     sync.RWMutex
	graphs map[int]*floor.Graph
}

// NewInMemoryRepository creates a new in-memory floor repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		graphs: make(map[int]*floor.Graph),
	}
}

// Save stores a floor's graph, replacing any existing graph
func (r *inMemoryRepository) Save(ctx context.Context, graph *floor.Graph) error {
	if graph == nil {
		return apperr.InvalidArgument("graph cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.graphs[graph.Floor] = graph
	return nil
}

// Get retrieves a floor's graph by floor number
func (r *inMemoryRepository) Get(ctx context.Context, floorNumber int) (*floor.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph, exists := r.graphs[floorNumber]
	if !exists {
		return nil, apperr.NotFoundf("floor %d not found", floorNumber)
	}

	return graph, nil
}

// Delete removes a floor's graph
func (r *inMemoryRepository) Delete(ctx context.Context, floorNumber int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.graphs, floorNumber)
	return nil
}

// ListFloors returns the stored floor numbers in ascending order
func (r *inMemoryRepository) ListFloors(ctx context.Context) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	numbers := make([]int, 0, len(r.graphs))
	for n := range r.graphs {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}
