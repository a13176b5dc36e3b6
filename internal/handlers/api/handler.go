package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/services"
	"github.com/ironveil/labyrinth/internal/ws"
)

// Handler is the HTTP and WebSocket request surface. It composes the
// services with the floor hub: mutations answer the requester synchronously
// and push the side effects to the floor's session.
type Handler struct {
	provider *services.Provider
	hub      *ws.Hub
}

// NewHandler creates a new API handler
func NewHandler(provider *services.Provider, hub *ws.Hub) *Handler {
	if provider == nil {
		panic("service provider is required")
	}
	if hub == nil {
		panic("hub is required")
	}
	return &Handler{provider: provider, hub: hub}
}

// RegisterRoutes attaches all routes to the mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/floors", h.handleListFloors)
	mux.HandleFunc("GET /api/floors/{floor}/map", h.handleMapView)
	mux.HandleFunc("GET /api/floors/{floor}/position", h.handlePosition)
	mux.HandleFunc("POST /api/floors/{floor}/move", h.handleMove)
	mux.HandleFunc("POST /api/floors/{floor}/engage", h.handleEngage)
	mux.HandleFunc("POST /api/parties", h.handleCreateParty)
	mux.HandleFunc("GET /api/parties", h.handleGetParty)
	mux.HandleFunc("GET /api/parties/{party}", h.handleGetParty)
	mux.HandleFunc("POST /api/parties/{party}/join", h.handleJoinParty)
	mux.HandleFunc("POST /api/parties/{party}/leave", h.handleLeaveParty)
	mux.HandleFunc("GET /api/rewards", h.handleListRewards)
	mux.HandleFunc("POST /api/rewards/claim", h.handleClaimReward)
	mux.HandleFunc("GET /ws/floors/{floor}", h.handleFloorSession)
}

func floorNumber(r *http.Request) (int, error) {
	n, err := strconv.Atoi(r.PathValue("floor"))
	if err != nil {
		return 0, apperr.InvalidArgumentf("invalid floor number %q", r.PathValue("floor"))
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{
		Code:    string(apperr.GetCode(err)),
		Message: err.Error(),
	})
}

// statusFor maps error codes to HTTP statuses
func statusFor(err error) int {
	switch {
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	case apperr.IsInvalidArgument(err):
		return http.StatusBadRequest
	case apperr.IsValidation(err):
		return http.StatusUnprocessableEntity
	case apperr.IsAlreadyExists(err):
		return http.StatusConflict
	case apperr.IsConfiguration(err):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return apperr.InvalidArgument("invalid request body")
	}
	return nil
}
