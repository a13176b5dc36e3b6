package position

import (
	"time"
)

// maxHistoryEntries bounds the client-replay move log
const maxHistoryEntries = 50

// HistoryEntry records one applied move for client replay and debugging.
// The history is informational, not authoritative.
type HistoryEntry struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	Cost float64   `json:"cost"`
	At   time.Time `json:"at"`
}

// ParticipantPosition is the authoritative movement state of one participant
// on one floor. Owned exclusively by the movement tracker.
type ParticipantPosition struct {
	ParticipantID string          `json:"participant_id"`
	Floor         int             `json:"floor"`
	NodeID        string          `json:"node_id"` // empty only before first placement
	Points        float64         `json:"points"`
	MaxPoints     float64         `json:"max_points"`
	LastRegen     time.Time       `json:"last_regen"`
	Explored      map[string]bool `json:"explored"`
	History       []HistoryEntry  `json:"history,omitempty"`
}

// New creates a position record for a participant entering a floor
func New(participantID string, floorNumber int, maxPoints float64, now time.Time) *ParticipantPosition {
	return &ParticipantPosition{
		ParticipantID: participantID,
		Floor:         floorNumber,
		MaxPoints:     maxPoints,
		Points:        maxPoints,
		LastRegen:     now,
		Explored:      make(map[string]bool),
	}
}

// PointsAt returns the movement-point balance at the given instant, applying
// lazy regeneration: min(max, balance + elapsed_hours * rate). Pure function
// of elapsed time, so no locking or background timer is needed.
func (p *ParticipantPosition) PointsAt(now time.Time, regenRatePerHour float64) float64 {
	elapsed := now.Sub(p.LastRegen).Hours()
	if elapsed < 0 {
		elapsed = 0
	}
	points := p.Points + elapsed*regenRatePerHour
	if points > p.MaxPoints {
		points = p.MaxPoints
	}
	return points
}

// PlaceAt sets the initial spawn node and marks it explored
func (p *ParticipantPosition) PlaceAt(nodeID string, now time.Time) {
	p.NodeID = nodeID
	p.Explored[nodeID] = true
	p.LastRegen = now
}

// HasExplored reports whether the participant has ever visited the node
func (p *ParticipantPosition) HasExplored(nodeID string) bool {
	return p.Explored[nodeID]
}

// ApplyMove deducts the edge cost from the regenerated balance, moves the
// participant, marks the target explored, and appends a history entry. The
// caller has already validated the move; newlyExplored reports whether the
// target was unseen before.
func (p *ParticipantPosition) ApplyMove(targetNode string, cost float64, regenRatePerHour float64, now time.Time) (newlyExplored bool) {
	p.Points = p.PointsAt(now, regenRatePerHour) - cost
	p.LastRegen = now

	from := p.NodeID
	p.NodeID = targetNode

	newlyExplored = !p.Explored[targetNode]
	p.Explored[targetNode] = true

	p.History = append(p.History, HistoryEntry{
		From: from,
		To:   targetNode,
		Cost: cost,
		At:   now,
	})
	if len(p.History) > maxHistoryEntries {
		p.History = p.History[len(p.History)-maxHistoryEntries:]
	}

	return newlyExplored
}
