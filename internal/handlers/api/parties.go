package api

import (
	"net/http"

	apperr "github.com/ironveil/labyrinth/internal/errors"
)

type createPartyRequest struct {
	Leader string `json:"leader"`
	Floor  int    `json:"floor"`
}

// handleCreateParty creates a party led by the requester
func (h *Handler) handleCreateParty(w http.ResponseWriter, r *http.Request) {
	var req createPartyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Leader == "" {
		writeError(w, apperr.InvalidArgument("leader is required"))
		return
	}

	p, err := h.provider.PartyService.CreateParty(r.Context(), req.Leader, req.Floor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleGetParty looks a party up by ID, or by member via the participant
// query parameter
func (h *Handler) handleGetParty(w http.ResponseWriter, r *http.Request) {
	if participantID := r.URL.Query().Get("participant"); participantID != "" {
		p, err := h.provider.PartyService.GetPartyByParticipant(r.Context(), participantID)
		if err != nil {
			writeError(w, err)
			return
		}
		if p == nil {
			writeError(w, apperr.NotFoundf("participant %s has no party", participantID))
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	p, err := h.provider.PartyService.GetParty(r.Context(), r.PathValue("party"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type partyMemberRequest struct {
	Participant string `json:"participant"`
}

// handleJoinParty adds the requester to a party
func (h *Handler) handleJoinParty(w http.ResponseWriter, r *http.Request) {
	var req partyMemberRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Participant == "" {
		writeError(w, apperr.InvalidArgument("participant is required"))
		return
	}

	p, err := h.provider.PartyService.JoinParty(r.Context(), r.PathValue("party"), req.Participant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleLeaveParty removes the requester from a party
func (h *Handler) handleLeaveParty(w http.ResponseWriter, r *http.Request) {
	var req partyMemberRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Participant == "" {
		writeError(w, apperr.InvalidArgument("participant is required"))
		return
	}

	if err := h.provider.PartyService.LeaveParty(r.Context(), r.PathValue("party"), req.Participant); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}
