package api

import (
	"context"
	"net/http"

	"github.com/ironveil/labyrinth/internal/domain/combat"
	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/protocol"
	"github.com/ironveil/labyrinth/internal/services/encounter"
)

type engageRequest struct {
	Participant string `json:"participant"`
	Node        string `json:"node,omitempty"`
	InstanceID  string `json:"instance_id,omitempty"`
	Action      string `json:"action"`
	TargetID    string `json:"target_id,omitempty"`
	SkillKey    string `json:"skill_key,omitempty"`
	ItemKey     string `json:"item_key,omitempty"`
}

// handleEngage drives the encounter lifecycle: prepare, join, initiate,
// combat actions, and leave
func (h *Handler) handleEngage(w http.ResponseWriter, r *http.Request) {
	floorNum, err := floorNumber(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req engageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Participant == "" {
		writeError(w, apperr.InvalidArgument("participant is required"))
		return
	}

	body, err := h.engage(r.Context(), floorNum, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) engage(ctx context.Context, floorNum int, req *engageRequest) (any, error) {
	svc := h.provider.EncounterService

	switch req.Action {
	case "prepare":
		instance, created, err := svc.TriggerAtNode(ctx, req.Participant, floorNum, req.Node)
		if err != nil {
			return nil, err
		}
		if created {
			h.hub.Broadcast(floorNum, protocol.EventEncounterPrepared, protocol.EncounterPrepared{
				InstanceID:   instance.ID,
				NodeID:       instance.NodeID,
				Participants: instance.Participants,
				Party:        h.partyID(ctx, req.Participant),
			})
		}
		return instance, nil

	case "join":
		instance, err := svc.Join(ctx, req.InstanceID, req.Participant)
		if err != nil {
			return nil, err
		}
		h.hub.Broadcast(floorNum, protocol.EventEncounterPrepared, protocol.EncounterPrepared{
			InstanceID:   instance.ID,
			NodeID:       instance.NodeID,
			Participants: instance.Participants,
			Party:        h.partyID(ctx, req.Participant),
		})
		return instance, nil

	case "initiate":
		instance, err := svc.Initiate(ctx, req.InstanceID, req.Participant)
		if err != nil {
			return nil, err
		}
		h.hub.Broadcast(floorNum, protocol.EventEncounterInitiated, protocol.EncounterInitiated{
			InstanceID: instance.ID,
			Round:      instance.Round,
			WaveIndex:  instance.WaveIndex,
			WaveCount:  instance.WaveCount(),
			TurnOrder:  instance.TurnOrder,
		})
		h.broadcastCombatState(floorNum, instance, nil)
		return instance, nil

	case "attack", "skill", "item":
		result, err := svc.SubmitAction(ctx, req.InstanceID, req.Participant, &encounter.Action{
			Type:     actionType(req.Action),
			TargetID: req.TargetID,
			SkillKey: req.SkillKey,
			ItemKey:  req.ItemKey,
		})
		if err != nil {
			return nil, err
		}
		h.pushTurnResult(floorNum, result)
		return result, nil

	case "leave":
		if err := svc.Leave(ctx, req.InstanceID, req.Participant); err != nil {
			return nil, err
		}
		return map[string]string{"status": "left"}, nil

	default:
		return nil, apperr.InvalidArgumentf("unknown engage action %q", req.Action)
	}
}

// partyID annotates encounter events with the acting participant's party,
// when they have one
func (h *Handler) partyID(ctx context.Context, participantID string) string {
	p, err := h.provider.PartyService.GetPartyByParticipant(ctx, participantID)
	if err != nil || p == nil {
		return ""
	}
	return p.ID
}

func actionType(action string) encounter.ActionType {
	switch action {
	case "skill":
		return encounter.ActionUseSkill
	case "item":
		return encounter.ActionUseItem
	default:
		return encounter.ActionAttack
	}
}

// pushTurnResult pushes combat progress to the floor session, including the
// per-wave ended event and any rewards earned on final victory
func (h *Handler) pushTurnResult(floorNum int, result *encounter.TurnResult) {
	instance := result.Instance
	h.broadcastCombatState(floorNum, instance, result.Log)

	if result.WaveEnded != nil {
		h.hub.Broadcast(floorNum, protocol.EventEncounterEnded, protocol.EncounterEnded{
			InstanceID: instance.ID,
			WaveIndex:  result.WaveEnded.WaveIndex,
			WaveCount:  result.WaveEnded.WaveCount,
			Outcome:    string(result.WaveEnded.Outcome),
			Final:      result.WaveEnded.Final,
		})
	}

	for _, rw := range result.Rewards {
		h.hub.Send(floorNum, rw.CharacterID, protocol.EventRewardEarned, protocol.RewardEarned{
			RewardID: rw.ID,
			Type:     string(rw.Type),
			Quantity: rw.Quantity,
			Source:   rw.Source,
		})
	}
}

func (h *Handler) broadcastCombatState(floorNum int, instance *combat.Instance, entries []string) {
	update := protocol.EncounterUpdate{
		InstanceID: instance.ID,
		Round:      instance.Round,
		WaveIndex:  instance.WaveIndex,
		Log:        entries,
	}
	if current := instance.CurrentCombatant(); current != nil {
		update.Current = current.ID
	}
	for _, id := range instance.TurnOrder {
		c := instance.Combatants[id]
		if c == nil {
			continue
		}
		update.Combatants = append(update.Combatants, protocol.CombatantView{
			ID:        c.ID,
			Name:      c.Name,
			Type:      string(c.Type),
			CurrentHP: c.CurrentHP,
			MaxHP:     c.MaxHP,
		})
	}
	h.hub.Broadcast(floorNum, protocol.EventEncounterUpdate, update)
}
