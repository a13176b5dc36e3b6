package api

import (
	"context"
	"net/http"

	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/protocol"
	"github.com/ironveil/labyrinth/internal/services/movement"
)

type moveRequest struct {
	Participant string `json:"participant"`
	TargetNode  string `json:"target_node"`
}

type moveResponse struct {
	NodeID          string   `json:"nodeId"`
	RemainingPoints float64  `json:"remainingPoints"`
	SpentPoints     float64  `json:"spentPoints"`
	RevealedNodes   []string `json:"revealedNodes,omitempty"`
}

// handleMove applies one move and pushes the side effects to the floor
func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	floorNum, err := floorNumber(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Participant == "" || req.TargetNode == "" {
		writeError(w, apperr.InvalidArgument("participant and target_node are required"))
		return
	}

	result, err := h.applyMove(r.Context(), floorNum, req.Participant, req.TargetNode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, moveResponse{
		NodeID:          result.Position.NodeID,
		RemainingPoints: result.RemainingPoints,
		SpentPoints:     result.SpentPoints,
		RevealedNodes:   result.RevealedNodes,
	})
}

// applyMove runs the move, then notifies the floor session: everyone gets
// the occupancy refresh, the mover gets their visibility delta, and entering
// a combat-eligible node prepares an encounter.
func (h *Handler) applyMove(ctx context.Context, floorNum int, participantID, targetNode string) (*movement.MoveResult, error) {
	result, err := h.provider.MovementService.MoveToNode(ctx, participantID, floorNum, targetNode)
	if err != nil {
		return nil, err
	}

	h.broadcastOccupancy(ctx, floorNum, result.Position.NodeID)
	if len(result.RevealedNodes) > 0 {
		h.hub.Send(floorNum, participantID, protocol.EventVisibilityDelta, protocol.VisibilityDelta{
			ParticipantID: participantID,
			Revealed:      result.RevealedNodes,
		})
	}

	h.prepareEncounterAt(ctx, floorNum, participantID, result.Position.NodeID)
	return result, nil
}

// prepareEncounterAt opens a prepared encounter when the mover lands on a
// combat-eligible node with no live instance
func (h *Handler) prepareEncounterAt(ctx context.Context, floorNum int, participantID, nodeID string) {
	instance, created, err := h.provider.EncounterService.TriggerAtNode(ctx, participantID, floorNum, nodeID)
	if err != nil || !created {
		return
	}
	h.hub.Broadcast(floorNum, protocol.EventEncounterPrepared, protocol.EncounterPrepared{
		InstanceID:   instance.ID,
		NodeID:       instance.NodeID,
		Participants: instance.Participants,
	})
}

func (h *Handler) broadcastOccupancy(ctx context.Context, floorNum int, nodeID string) {
	counts, err := h.provider.MovementService.OccupantCounts(ctx, floorNum)
	if err != nil {
		return
	}
	h.hub.Broadcast(floorNum, protocol.EventOccupancyChanged, protocol.OccupancyChanged{
		NodeID:    nodeID,
		Occupants: counts[nodeID],
	})
}
