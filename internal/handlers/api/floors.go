package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/ironveil/labyrinth/internal/domain/floor"
	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/protocol"
	"github.com/ironveil/labyrinth/internal/services/visibility"
)

type floorSummary struct {
	Floor      int      `json:"floor"`
	NodeCount  int      `json:"nodeCount"`
	StairNodes []string `json:"stairNodes,omitempty"`
}

// handleListFloors lists known floors for the client's floor selector
func (h *Handler) handleListFloors(w http.ResponseWriter, r *http.Request) {
	numbers, err := h.provider.FloorRepository.ListFloors(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	sort.Ints(numbers)

	out := make([]floorSummary, 0, len(numbers))
	for _, n := range numbers {
		graph, err := h.provider.FloorRepository.Get(r.Context(), n)
		if err != nil {
			writeError(w, err)
			return
		}
		summary := floorSummary{Floor: n, NodeCount: len(graph.Nodes)}
		for _, node := range graph.Nodes {
			if node.Kind == floor.NodeKindStairs {
				summary.StairNodes = append(summary.StairNodes, node.ID)
			}
		}
		sort.Strings(summary.StairNodes)
		out = append(out, summary)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleMapView returns the participant's filtered view of a floor
func (h *Handler) handleMapView(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.buildMapView(r.Context(), floorNum, participantID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handlePosition returns the participant's position with regenerated points
func (h *Handler) handlePosition(w http.ResponseWriter, r *http.Request) {
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

	pos, err := h.provider.MovementService.Position(r.Context(), participantID, floorNum)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// buildMapView projects a floor through the participant's visibility. Hidden
// nodes keep their ID only; edges appear when both endpoints are visible.
func (h *Handler) buildMapView(ctx context.Context, floorNum int, participantID string) (*protocol.MapView, error) {
	graph, err := h.provider.FloorRepository.Get(ctx, floorNum)
	if err != nil {
		return nil, err
	}
	pos, err := h.provider.MovementService.Position(ctx, participantID, floorNum)
	if err != nil {
		return nil, err
	}

	rules := visibility.Resolve(h.provider.VisibilityRules, graph.Visibility)
	view := visibility.Compute(graph, pos, rules)

	out := &protocol.MapView{
		Floor:  floorNum,
		NodeID: pos.NodeID,
		Points: pos.Points,
	}

	ids := make([]string, 0, len(graph.Nodes))
	for id := range graph.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		node := graph.Nodes[id]
		nv := protocol.NodeView{ID: id, Visibility: string(view.TagFor(id))}
		if view.CanSee(id) {
			nv.Kind = string(node.Kind)
			nv.X = node.X
			nv.Y = node.Y
			nv.Name = node.Name
		}
		out.Nodes = append(out.Nodes, nv)
	}

	for _, edge := range graph.Edges {
		if view.CanSee(edge.From) && view.CanSee(edge.To) {
			out.Edges = append(out.Edges, protocol.EdgeView{
				From: edge.From,
				To:   edge.To,
				Cost: edge.Cost,
			})
		}
	}
	return out, nil
}
