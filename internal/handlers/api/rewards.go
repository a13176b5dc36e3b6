package api

import (
	"net/http"

	apperr "github.com/ironveil/labyrinth/internal/errors"
)

// handleListRewards lists a character's unclaimed rewards
func (h *Handler) handleListRewards(w http.ResponseWriter, r *http.Request) {
	characterID := r.URL.Query().Get("character")
	if characterID == "" {
		writeError(w, apperr.InvalidArgument("character query parameter is required"))
		return
	}

	rewards, err := h.provider.RewardService.ListUnclaimed(r.Context(), characterID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

type claimRequest struct {
	Character string `json:"character"`
	RewardID  string `json:"reward_id"`
}

// handleClaimReward claims one reward by explicit action
func (h *Handler) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Character == "" || req.RewardID == "" {
		writeError(w, apperr.InvalidArgument("character and reward_id are required"))
		return
	}

	claimed, err := h.provider.RewardService.Claim(r.Context(), req.Character, req.RewardID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claimed)
}
