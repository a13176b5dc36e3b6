package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/coder/websocket"

	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/protocol"
)

// handleFloorSession upgrades to a WebSocket and runs the participant's
// floor session until the connection drops
func (h *Handler) handleFloorSession(w http.ResponseWriter, r *http.Request) {
	floorNum, err := floorNumber(r)
	if err != nil {
		writeError(w, err)
		return
	}
	participantID := r.URL.Query().Get("participant")
	if participantID == "" {
		writeError(w, apperr.InvalidArgument("participant query parameter is required"))
		return
	}

	// place the participant before upgrading so a bad floor fails as HTTP
	pos, err := h.ensurePosition(r.Context(), floorNum, participantID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		return
	}

	h.hub.Join(floorNum, participantID, conn)
	h.hub.Broadcast(floorNum, protocol.EventParticipantJoined, protocol.ParticipantJoined{
		ParticipantID: participantID,
		NodeID:        pos.NodeID,
	})
	h.broadcastOccupancy(r.Context(), floorNum, pos.NodeID)
	h.sendMapView(r.Context(), floorNum, participantID)

	go h.runSession(floorNum, participantID, conn)
}

// ensurePosition loads the participant's position, spawning them on a start
// node on their first visit to the floor
func (h *Handler) ensurePosition(ctx context.Context, floorNum int, participantID string) (pos *positionView, err error) {
	existing, err := h.provider.MovementService.Position(ctx, participantID, floorNum)
	if err == nil {
		return &positionView{NodeID: existing.NodeID}, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	created, err := h.provider.MovementService.InitializePosition(ctx, participantID, floorNum, h.provider.MaxMovementPoints)
	if err != nil {
		return nil, err
	}
	return &positionView{NodeID: created.NodeID}, nil
}

type positionView struct {
	NodeID string
}

func (h *Handler) runSession(floorNum int, participantID string, conn *websocket.Conn) {
	ctx := context.Background()
	defer func() {
		h.hub.Leave(floorNum, participantID, conn)
		_ = conn.Close(websocket.StatusNormalClosure, "")
		h.leaveEncounters(ctx, floorNum, participantID)
		h.hub.Broadcast(floorNum, protocol.EventParticipantLeft, protocol.ParticipantLeft{
			ParticipantID: participantID,
		})
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var env protocol.IntentEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		h.dispatchIntent(ctx, floorNum, participantID, &env)
	}
}

// dispatchIntent applies one client intent; failures go back to the
// requester only
func (h *Handler) dispatchIntent(ctx context.Context, floorNum int, participantID string, env *protocol.IntentEnvelope) {
	var err error

	switch env.Type {
	case protocol.IntentMove:
		var req protocol.RequestMove
		if err = json.Unmarshal(env.Payload, &req); err != nil {
			return
		}
		_, err = h.applyMove(ctx, floorNum, participantID, req.TargetNodeID)

	case protocol.IntentEngage:
		var req protocol.RequestEngage
		if err = json.Unmarshal(env.Payload, &req); err != nil {
			return
		}
		_, err = h.engage(ctx, floorNum, &engageRequest{
			Participant: participantID,
			Node:        req.NodeID,
			Action:      "prepare",
		})

	case protocol.IntentJoinCombat:
		var req protocol.RequestJoinCombat
		if err = json.Unmarshal(env.Payload, &req); err != nil {
			return
		}
		_, err = h.engage(ctx, floorNum, &engageRequest{
			Participant: participantID,
			InstanceID:  req.InstanceID,
			Action:      "join",
		})

	case protocol.IntentInitiate:
		var req protocol.RequestInitiate
		if err = json.Unmarshal(env.Payload, &req); err != nil {
			return
		}
		_, err = h.engage(ctx, floorNum, &engageRequest{
			Participant: participantID,
			InstanceID:  req.InstanceID,
			Action:      "initiate",
		})

	case protocol.IntentCombatAction:
		var req protocol.RequestCombatAction
		if err = json.Unmarshal(env.Payload, &req); err != nil {
			return
		}
		_, err = h.engage(ctx, floorNum, &engageRequest{
			Participant: participantID,
			InstanceID:  req.InstanceID,
			Action:      req.Action,
			TargetID:    req.TargetID,
			SkillKey:    req.SkillKey,
			ItemKey:     req.ItemKey,
		})

	case protocol.IntentMapView:
		h.sendMapView(ctx, floorNum, participantID)

	default:
		err = apperr.InvalidArgumentf("unknown intent type %q", env.Type)
	}

	if err != nil {
		h.hub.Send(floorNum, participantID, protocol.EventError, protocol.ErrorPayload{
			Code:    string(apperr.GetCode(err)),
			Message: err.Error(),
		})
	}
}

func (h *Handler) sendMapView(ctx context.Context, floorNum int, participantID string) {
	view, err := h.buildMapView(ctx, floorNum, participantID)
	if err != nil {
		log.Printf("failed to build map view for %s on floor %d: %v", participantID, floorNum, err)
		return
	}
	h.hub.Send(floorNum, participantID, protocol.EventMapView, view)
}

// leaveEncounters unbinds a disconnected participant from the instance at
// their node, if any
func (h *Handler) leaveEncounters(ctx context.Context, floorNum int, participantID string) {
	pos, err := h.provider.MovementService.Position(ctx, participantID, floorNum)
	if err != nil {
		return
	}
	instance, err := h.provider.EncounterService.GetInstanceAtNode(ctx, floorNum, pos.NodeID)
	if err != nil || instance == nil || !instance.HasParticipant(participantID) {
		return
	}
	_ = h.provider.EncounterService.Leave(ctx, instance.ID, participantID)
}
