package parties

import (
	"context"
	"sync"

	"github.com/ironveil/labyrinth/internal/domain/party"
	apperr "github.com/ironveil/labyrinth/internal/errors"
)

// inMemoryRepository implements Repository using in-memory storage. The
// byMember index enforces single-party membership at the storage layer.
type inMemoryRepository struct {
	mu       sync.RWMutex
	parties  map[string]*party.Party
	byMember map[string]string // participantID -> party ID
}

// NewInMemoryRepository creates a new in-memory party repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		parties:  make(map[string]*party.Party),
		byMember: make(map[string]string),
	}
}

// Create stores a new party
func (r *inMemoryRepository) Create(ctx context.Context, p *party.Party) error {
	if p == nil {
		return apperr.InvalidArgument("party cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.parties[p.ID]; exists {
		return apperr.AlreadyExistsf("party %s already exists", p.ID)
	}
	for _, member := range p.MemberIDs {
		if other, taken := r.byMember[member]; taken {
			return apperr.AlreadyExistsf("participant %s already belongs to party %s", member, other)
		}
	}

	partyCopy := clone(p)
	r.parties[p.ID] = partyCopy
	for _, member := range p.MemberIDs {
		r.byMember[member] = p.ID
	}
	return nil
}

// Get retrieves a party by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*party.Party, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.parties[id]
	if !exists {
		return nil, apperr.NotFoundf("party not found: %s", id)
	}

	return clone(p), nil
}

// GetByParticipant retrieves the party a participant belongs to, or nil
func (r *inMemoryRepository) GetByParticipant(ctx context.Context, participantID string) (*party.Party, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byMember[participantID]
	if !exists {
		return nil, nil
	}
	return clone(r.parties[id]), nil
}

// Update modifies an existing party and refreshes the member index
func (r *inMemoryRepository) Update(ctx context.Context, p *party.Party) error {
	if p == nil {
		return apperr.InvalidArgument("party cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, exists := r.parties[p.ID]
	if !exists {
		return apperr.NotFoundf("party not found: %s", p.ID)
	}

	for _, member := range p.MemberIDs {
		if other, taken := r.byMember[member]; taken && other != p.ID {
			return apperr.AlreadyExistsf("participant %s already belongs to party %s", member, other)
		}
	}

	for _, member := range old.MemberIDs {
		if r.byMember[member] == p.ID {
			delete(r.byMember, member)
		}
	}
	r.parties[p.ID] = clone(p)
	for _, member := range p.MemberIDs {
		r.byMember[member] = p.ID
	}
	return nil
}

// Delete removes a party
func (r *inMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.parties[id]
	if !exists {
		return apperr.NotFoundf("party not found: %s", id)
	}

	for _, member := range p.MemberIDs {
		if r.byMember[member] == id {
			delete(r.byMember, member)
		}
	}
	delete(r.parties, id)
	return nil
}

func clone(p *party.Party) *party.Party {
	partyCopy := *p
	partyCopy.MemberIDs = append([]string(nil), p.MemberIDs...)
	return &partyCopy
}
