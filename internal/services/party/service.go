package party

//go:generate mockgen -destination=mock/mock_service.go -package=mockparty -source=service.go

import (
	"context"
	"strings"
	"time"

	partydomain "github.com/ironveil/labyrinth/internal/domain/party"
	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/repositories/parties"
	"github.com/ironveil/labyrinth/internal/uuid"
)

// Repository is an alias for the party repository interface
type Repository = parties.Repository

// Service defines the party service interface.
// Parties are informational groupings for combat co-membership; they never
// own position data and members are not auto-joined into each other's
// encounters.
type Service interface {
	// CreateParty creates a party led by the given participant
	CreateParty(ctx context.Context, leaderID string, floorNumber int) (*partydomain.Party, error)

	// GetParty retrieves a party by ID
	GetParty(ctx context.Context, partyID string) (*partydomain.Party, error)

	// GetPartyByParticipant retrieves the party a participant belongs to,
	// or nil
	GetPartyByParticipant(ctx context.Context, participantID string) (*partydomain.Party, error)

	// JoinParty adds a participant; a participant belongs to at most one
	// party at a time
	JoinParty(ctx context.Context, partyID, participantID string) (*partydomain.Party, error)

	// LeaveParty removes a participant; leadership passes on if the leader
	// leaves, and the party disbands when the last member leaves
	LeaveParty(ctx context.Context, partyID, participantID string) error
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

// NewService creates a new party service
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

// CreateParty creates a party led by the given participant
func (s *service) CreateParty(ctx context.Context, leaderID string, floorNumber int) (*partydomain.Party, error) {
	if strings.TrimSpace(leaderID) == "" {
		return nil, apperr.InvalidArgument("leader ID is required")
	}

	existing, err := s.repository.GetByParticipant(ctx, leaderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.AlreadyExistsf("participant %s already belongs to party %s", leaderID, existing.ID)
	}

	p := &partydomain.Party{
		ID:        s.uuidGenerator.New(),
		LeaderID:  leaderID,
		MemberIDs: []string{leaderID},
		Floor:     floorNumber,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repository.Create(ctx, p); err != nil {
		return nil, apperr.Wrap(err, "failed to create party")
	}
	return p, nil
}

// GetParty retrieves a party by ID
func (s *service) GetParty(ctx context.Context, partyID string) (*partydomain.Party, error) {
	if strings.TrimSpace(partyID) == "" {
		return nil, apperr.InvalidArgument("party ID is required")
	}
	return s.repository.Get(ctx, partyID)
}

// GetPartyByParticipant retrieves the party a participant belongs to, or nil
func (s *service) GetPartyByParticipant(ctx context.Context, participantID string) (*partydomain.Party, error) {
	if strings.TrimSpace(participantID) == "" {
		return nil, apperr.InvalidArgument("participant ID is required")
	}
	return s.repository.GetByParticipant(ctx, participantID)
}

// JoinParty adds a participant to a party
func (s *service) JoinParty(ctx context.Context, partyID, participantID string) (*partydomain.Party, error) {
	if strings.TrimSpace(participantID) == "" {
		return nil, apperr.InvalidArgument("participant ID is required")
	}

	p, err := s.repository.Get(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if p.HasMember(participantID) {
		return p, nil
	}

	existing, err := s.repository.GetByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.AlreadyExistsf("participant %s already belongs to party %s", participantID, existing.ID)
	}

	p.MemberIDs = append(p.MemberIDs, participantID)
	if err := s.repository.Update(ctx, p); err != nil {
		return nil, apperr.Wrap(err, "failed to update party")
	}
	return p, nil
}

// LeaveParty removes a participant from a party
func (s *service) LeaveParty(ctx context.Context, partyID, participantID string) error {
	p, err := s.repository.Get(ctx, partyID)
	if err != nil {
		return err
	}
	if !p.HasMember(participantID) {
		return apperr.NotFoundf("participant %s is not in party %s", participantID, partyID)
	}

	if empty := p.RemoveMember(participantID); empty {
		return s.repository.Delete(ctx, partyID)
	}
	return s.repository.Update(ctx, p)
}
