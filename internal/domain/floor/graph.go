package floor

// VisibilityOverride carries per-floor fog-of-war rule overrides.
// Nil fields fall back to the session defaults.
type VisibilityOverride struct {
	Range            *int  `json:"range,omitempty"`
	RevealStartNodes *bool `json:"reveal_start_nodes,omitempty"`
	RevealBossNodes  *bool `json:"reveal_boss_nodes,omitempty"`
}

// Graph is the full node/edge graph of one floor
type Graph struct {
	Floor        int                 `json:"floor"`
	Nodes        map[string]*Node    `json:"nodes"`
	Edges        []*Edge             `json:"edges"`
	MonsterPool  []string            `json:"monster_pool,omitempty"` // floor default, by template name
	BossDefeated bool                `json:"boss_defeated"`
	Visibility   *VisibilityOverride `json:"visibility,omitempty"`
}

// NewGraph creates an empty graph for a floor
func NewGraph(floorNumber int) *Graph {
	return &Graph{
		Floor: floorNumber,
		Nodes: make(map[string]*Node),
	}
}

// Node returns the node with the given ID, or nil
func (g *Graph) Node(id string) *Node {
	return g.Nodes[id]
}

// StartNodes returns every node flagged as a start point
func (g *Graph) StartNodes() []*Node {
	var starts []*Node
	for _, node := range g.Nodes {
		if node.StartPoint {
			starts = append(starts, node)
		}
	}
	return starts
}

// EdgeBetween returns the first edge permitting travel from one node to
// another, honoring the bidirectional flag, or nil
func (g *Graph) EdgeBetween(from, to string) *Edge {
	for _, edge := range g.Edges {
		if edge.Connects(from, to) {
			return edge
		}
	}
	return nil
}

// Neighbors returns the IDs of every node reachable one edge away from the
// given node
func (g *Graph) Neighbors(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, edge := range g.Edges {
		var other string
		switch {
		case edge.From == id:
			other = edge.To
		case edge.Bidirectional && edge.To == id:
			other = edge.From
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	return out
}

// HasEdge reports whether an edge already exists for the ordered pair
func (g *Graph) HasEdge(from, to string) bool {
	for _, edge := range g.Edges {
		if edge.From == from && edge.To == to {
			return true
		}
	}
	return false
}

// ReachableFromStarts walks the graph from every start node and returns the
// set of node IDs reached
func (g *Graph) ReachableFromStarts() map[string]bool {
	reached := make(map[string]bool)
	var queue []string
	for _, start := range g.StartNodes() {
		reached[start.ID] = true
		queue = append(queue, start.ID)
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, neighbor := range g.Neighbors(current) {
			if !reached[neighbor] {
				reached[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}
	return reached
}
