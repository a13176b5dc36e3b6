package movement

//go:generate mockgen -destination=mock/mock_service.go -package=mockmovement -source=service.go

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/ironveil/labyrinth/internal/domain/floor"
	"github.com/ironveil/labyrinth/internal/domain/position"
	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/repositories/floors"
	"github.com/ironveil/labyrinth/internal/repositories/positions"
	"github.com/ironveil/labyrinth/internal/services/visibility"
)

// StartPolicy selects how initial spawns are assigned to start nodes
type StartPolicy string

const (
	// StartPolicyEqual balances initial spawns across start nodes
	StartPolicyEqual StartPolicy = "equal"
	// StartPolicyRandom picks a random start node with free capacity
	StartPolicyRandom StartPolicy = "random"
)

// ItemSource is the boundary to the inventory system, which lives outside
// this module. A nil source means item-gated edges cannot be satisfied.
type ItemSource interface {
	HasItem(ctx context.Context, participantID, itemKey string) (bool, error)
}

// MoveResult carries everything a client needs to update without a second
// round trip
type MoveResult struct {
	Position        *position.ParticipantPosition
	RemainingPoints float64
	SpentPoints     float64

	// RevealedNodes is the delta of nodes newly visible after the move
	RevealedNodes []string
}

// Service defines the position and movement tracker interface
type Service interface {
	// InitializePosition places a participant on one of the floor's start
	// nodes according to the configured start policy
	InitializePosition(ctx context.Context, participantID string, floorNumber int, maxPoints float64) (*position.ParticipantPosition, error)

	// Position returns the participant's position with the movement-point
	// balance regenerated to now
	Position(ctx context.Context, participantID string, floorNumber int) (*position.ParticipantPosition, error)

	// CurrentPoints returns the lazily regenerated movement-point balance
	CurrentPoints(ctx context.Context, participantID string, floorNumber int) (float64, error)

	// MoveToNode validates and applies a move along an edge. On failure the
	// position, balance, and explored set are untouched.
	MoveToNode(ctx context.Context, participantID string, floorNumber int, targetNode string) (*MoveResult, error)

	// OccupantCounts returns how many participants currently occupy each
	// node of the floor; nodes with no occupants are absent
	OccupantCounts(ctx context.Context, floorNumber int) (map[string]int, error)

	// RemovePosition drops a participant's record when they leave the floor
	RemovePosition(ctx context.Context, participantID string, floorNumber int) error
}

type service struct {
	floorRepo    floors.Repository
	positionRepo positions.Repository
	timeProvider positions.TimeProvider
	itemSource   ItemSource
	regenPerHour float64
	startPolicy  StartPolicy
	rules        visibility.Rules
	random       *rand.Rand
	randomMu     sync.Mutex

	// one lock per (participant, floor) serializes that participant's moves
	locks sync.Map
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	FloorRepository    floors.Repository    // Required
	PositionRepository positions.Repository // Required
	TimeProvider       positions.TimeProvider
	ItemSource         ItemSource // Optional; nil rejects item-gated edges
	RegenRatePerHour   float64
	StartPolicy        StartPolicy
	VisibilityRules    visibility.Rules
}

// NewService creates a new movement service
func NewService(cfg *ServiceConfig) Service {
	if cfg.FloorRepository == nil {
		panic("floor repository is required")
	}
	if cfg.PositionRepository == nil {
		panic("position repository is required")
	}

	svc := &service{
		floorRepo:    cfg.FloorRepository,
		positionRepo: cfg.PositionRepository,
		timeProvider: cfg.TimeProvider,
		itemSource:   cfg.ItemSource,
		regenPerHour: cfg.RegenRatePerHour,
		startPolicy:  cfg.StartPolicy,
		rules:        cfg.VisibilityRules,
		random:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if svc.timeProvider == nil {
		svc.timeProvider = positions.RealTimeProvider{}
	}
	if svc.startPolicy == "" {
		svc.startPolicy = StartPolicyEqual
	}
	if svc.rules == (visibility.Rules{}) {
		svc.rules = visibility.DefaultRules()
	}

	return svc
}

func (s *service) lockFor(participantID string, floorNumber int) *sync.Mutex {
	key := struct {
		p string
		f int
	}{participantID, floorNumber}
	actual, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// InitializePosition places a participant on one of the floor's start nodes
func (s *service) InitializePosition(ctx context.Context, participantID string, floorNumber int, maxPoints float64) (*position.ParticipantPosition, error) {
	if participantID == "" {
		return nil, apperr.InvalidArgument("participant ID is required")
	}
	if maxPoints <= 0 {
		return nil, apperr.InvalidArgument("max points must be positive")
	}

	mu := s.lockFor(participantID, floorNumber)
	mu.Lock()
	defer mu.Unlock()

	graph, err := s.floorRepo.Get(ctx, floorNumber)
	if err != nil {
		return nil, err
	}

	starts := graph.StartNodes()
	if len(starts) == 0 {
		return nil, apperr.Configurationf("floor %d has no start nodes", floorNumber)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].ID < starts[j].ID })

	occupancy, err := s.OccupantCounts(ctx, floorNumber)
	if err != nil {
		return nil, err
	}

	start := s.pickStartNode(starts, occupancy)
	if start == nil {
		return nil, apperr.Validationf("all start nodes on floor %d are at capacity", floorNumber)
	}

	now := s.timeProvider.Now()
	pos := position.New(participantID, floorNumber, maxPoints, now)
	pos.PlaceAt(start.ID, now)

	if err := s.positionRepo.Create(ctx, pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// pickStartNode applies the start policy, skipping nodes at capacity
func (s *service) pickStartNode(starts []*floor.Node, occupancy map[string]int) *floor.Node {
	withCapacity := make([]*floor.Node, 0, len(starts))
	for _, node := range starts {
		if node.HasCapacity(occupancy[node.ID]) {
			withCapacity = append(withCapacity, node)
		}
	}
	if len(withCapacity) == 0 {
		return nil
	}

	if s.startPolicy == StartPolicyRandom {
		s.randomMu.Lock()
		pick := s.random.Intn(len(withCapacity))
		s.randomMu.Unlock()
		return withCapacity[pick]
	}

	// equal: least-occupied start node, lowest ID on ties
	best := withCapacity[0]
	for _, node := range withCapacity[1:] {
		if occupancy[node.ID] < occupancy[best.ID] {
			best = node
		}
	}
	return best
}

// Position returns the participant's position with the balance regenerated
func (s *service) Position(ctx context.Context, participantID string, floorNumber int) (*position.ParticipantPosition, error) {
	pos, err := s.positionRepo.Get(ctx, participantID, floorNumber)
	if err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()
	pos.Points = pos.PointsAt(now, s.regenPerHour)
	pos.LastRegen = now
	return pos, nil
}

// CurrentPoints returns the lazily regenerated movement-point balance
func (s *service) CurrentPoints(ctx context.Context, participantID string, floorNumber int) (float64, error) {
	pos, err := s.positionRepo.Get(ctx, participantID, floorNumber)
	if err != nil {
		return 0, err
	}
	return pos.PointsAt(s.timeProvider.Now(), s.regenPerHour), nil
}

// MoveToNode validates and applies a move along an edge. Validation order:
// edge exists, edge gate satisfied, sufficient points, target capacity,
// boss gate. The first failing condition rejects the move with no mutation.
func (s *service) MoveToNode(ctx context.Context, participantID string, floorNumber int, targetNode string) (*MoveResult, error) {
	if targetNode == "" {
		return nil, apperr.InvalidArgument("target node is required")
	}

	mu := s.lockFor(participantID, floorNumber)
	mu.Lock()
	defer mu.Unlock()

	graph, err := s.floorRepo.Get(ctx, floorNumber)
	if err != nil {
		return nil, err
	}

	pos, err := s.positionRepo.Get(ctx, participantID, floorNumber)
	if err != nil {
		return nil, err
	}

	target := graph.Node(targetNode)
	if target == nil {
		return nil, apperr.NotFoundf("node %s does not exist on floor %d", targetNode, floorNumber)
	}

	// (1) an edge must connect the current and target nodes
	edge := graph.EdgeBetween(pos.NodeID, targetNode)
	if edge == nil {
		return nil, apperr.Validationf("no edge from %s to %s", pos.NodeID, targetNode).
			WithMeta("target", targetNode)
	}

	// (2) the edge's gate, if any, must be satisfied
	if err := s.checkEdgeGate(ctx, participantID, pos, edge, targetNode); err != nil {
		return nil, err
	}

	// (3) the regenerated balance must cover the edge cost
	now := s.timeProvider.Now()
	available := pos.PointsAt(now, s.regenPerHour)
	if available < edge.Cost {
		return nil, apperr.Validationf("insufficient movement points: need %.1f, have %.1f", edge.Cost, available).
			WithMeta("cost", edge.Cost).
			WithMeta("available", available)
	}

	// (4) the target's capacity limit must not be exceeded
	if target.Capacity > 0 {
		occupancy, err := s.OccupantCounts(ctx, floorNumber)
		if err != nil {
			return nil, err
		}
		if !target.HasCapacity(occupancy[targetNode]) {
			return nil, apperr.Validationf("node %s is at capacity (%d)", targetNode, target.Capacity)
		}
	}

	// (5) a boss-gated node needs the floor boss defeated
	if target.RequiresBossDefeated && !graph.BossDefeated {
		return nil, apperr.Validationf("node %s requires the floor boss to be defeated", targetNode)
	}

	before := visibility.Compute(graph, pos, s.rules)

	pos.ApplyMove(targetNode, edge.Cost, s.regenPerHour, now)

	if err := s.positionRepo.Update(ctx, pos); err != nil {
		return nil, err
	}

	after := visibility.Compute(graph, pos, s.rules)

	return &MoveResult{
		Position:        pos,
		RemainingPoints: pos.Points,
		SpentPoints:     edge.Cost,
		RevealedNodes:   revealedDelta(before, after),
	}, nil
}

// checkEdgeGate validates the required-item and visibility gates
func (s *service) checkEdgeGate(ctx context.Context, participantID string, pos *position.ParticipantPosition, edge *floor.Edge, targetNode string) error {
	if edge.RequiredItem != "" {
		if s.itemSource == nil {
			return apperr.Validationf("edge to %s requires item %s", targetNode, edge.RequiredItem)
		}
		has, err := s.itemSource.HasItem(ctx, participantID, edge.RequiredItem)
		if err != nil {
			return apperr.Wrapf(err, "failed to check item %s", edge.RequiredItem)
		}
		if !has {
			return apperr.Validationf("edge to %s requires item %s", targetNode, edge.RequiredItem)
		}
	}

	if edge.RequiresExplored && !pos.HasExplored(targetNode) {
		return apperr.Validationf("the passage to %s has not been discovered", targetNode)
	}

	return nil
}

// OccupantCounts returns per-node occupancy for a floor
func (s *service) OccupantCounts(ctx context.Context, floorNumber int) (map[string]int, error) {
	all, err := s.positionRepo.ListByFloor(ctx, floorNumber)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, pos := range all {
		if pos.NodeID != "" {
			counts[pos.NodeID]++
		}
	}
	return counts, nil
}

// RemovePosition drops a participant's record when they leave the floor
func (s *service) RemovePosition(ctx context.Context, participantID string, floorNumber int) error {
	return s.positionRepo.Delete(ctx, participantID, floorNumber)
}

// revealedDelta lists nodes visible after the move that were hidden before
func revealedDelta(before, after *visibility.View) []string {
	var out []string
	for _, id := range after.Visible() {
		if !before.CanSee(id) {
			out = append(out, id)
		}
	}
	return out
}
