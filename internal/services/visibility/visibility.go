// Package visibility derives per-participant fog-of-war views. It is a pure
// projection from (graph, participant position) to a view, computed on
// demand; nothing here holds mutable per-participant state.
package visibility

import (
	"sort"

	"github.com/ironveil/labyrinth/internal/domain/floor"
	"github.com/ironveil/labyrinth/internal/domain/position"
)

// Tag classifies one node for rendering
type Tag string

const (
	TagExplored Tag = "explored" // ever visited
	TagAdjacent Tag = "adjacent" // within range of the current node, unvisited
	TagRevealed Tag = "revealed" // force-shown by rules (start points, boss rooms)
	TagHidden   Tag = "hidden"
)

// Rules configures the projection. Floors may override via the graph's
// VisibilityOverride; sessions may pass their own Rules.
type Rules struct {
	// Range is how many hops from the current node count as adjacent
	Range int

	// RevealStartNodes forces start points to be at least minimally visible
	RevealStartNodes bool

	// RevealBossNodes forces boss rooms to be at least minimally visible
	RevealBossNodes bool
}

// DefaultRules is the baseline configuration
func DefaultRules() Rules {
	return Rules{
		Range:            1,
		RevealStartNodes: true,
		RevealBossNodes:  true,
	}
}

// Resolve applies a floor's override on top of session rules
func Resolve(rules Rules, override *floor.VisibilityOverride) Rules {
	if override == nil {
		return rules
	}
	if override.Range != nil {
		rules.Range = *override.Range
	}
	if override.RevealStartNodes != nil {
		rules.RevealStartNodes = *override.RevealStartNodes
	}
	if override.RevealBossNodes != nil {
		rules.RevealBossNodes = *override.RevealBossNodes
	}
	return rules
}

// View is the personalized fog-of-war projection for one participant.
// The four tag classes partition the floor's nodes.
type View struct {
	tags map[string]Tag
}

// TagFor returns the node's visibility tag
func (v *View) TagFor(nodeID string) Tag {
	if tag, ok := v.tags[nodeID]; ok {
		return tag
	}
	return TagHidden
}

// Explored returns every node the participant has visited
func (v *View) Explored() []string {
	return v.withTag(TagExplored)
}

// Adjacent returns unvisited nodes within range of the current node
func (v *View) Adjacent() []string {
	return v.withTag(TagAdjacent)
}

// Revealed returns nodes force-shown by rules
func (v *View) Revealed() []string {
	return v.withTag(TagRevealed)
}

// Hidden returns everything else
func (v *View) Hidden() []string {
	return v.withTag(TagHidden)
}

// Visible returns the union used for rendering: explored, adjacent, revealed
func (v *View) Visible() []string {
	out := v.withTag(TagExplored)
	out = append(out, v.withTag(TagAdjacent)...)
	out = append(out, v.withTag(TagRevealed)...)
	sort.Strings(out)
	return out
}

// CanSee reports whether the node is part of the visible union
func (v *View) CanSee(nodeID string) bool {
	return v.TagFor(nodeID) != TagHidden
}

func (v *View) withTag(tag Tag) []string {
	var out []string
	for id, t := range v.tags {
		if t == tag {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Compute projects the participant's view of the graph. Tags are assigned by
// priority: explored beats adjacent beats revealed beats hidden, so the four
// classes are disjoint.
func Compute(graph *floor.Graph, pos *position.ParticipantPosition, rules Rules) *View {
	rules = Resolve(rules, graph.Visibility)

	view := &View{tags: make(map[string]Tag, len(graph.Nodes))}
	for id := range graph.Nodes {
		view.tags[id] = TagHidden
	}

	if rules.RevealStartNodes || rules.RevealBossNodes {
		for id, node := range graph.Nodes {
			if (rules.RevealStartNodes && node.StartPoint) ||
				(rules.RevealBossNodes && node.Kind == floor.NodeKindBoss) {
				view.tags[id] = TagRevealed
			}
		}
	}

	if pos != nil {
		if pos.NodeID != "" {
			for _, id := range withinRange(graph, pos.NodeID, rules.Range) {
				if !pos.HasExplored(id) {
					view.tags[id] = TagAdjacent
				}
			}
		}
		for id := range pos.Explored {
			if _, exists := graph.Nodes[id]; exists {
				view.tags[id] = TagExplored
			}
		}
	}

	return view
}

// withinRange walks up to hops edges out from the origin, excluding it
func withinRange(graph *floor.Graph, origin string, hops int) []string {
	if hops < 1 {
		hops = 1
	}

	depth := map[string]int{origin: 0}
	queue := []string{origin}
	var out []string

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if depth[current] == hops {
			continue
		}
		for _, neighbor := range graph.Neighbors(current) {
			if _, seen := depth[neighbor]; seen {
				continue
			}
			depth[neighbor] = depth[current] + 1
			out = append(out, neighbor)
			queue = append(queue, neighbor)
		}
	}
	return out
}
