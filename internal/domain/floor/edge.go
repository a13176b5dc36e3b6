package floor

// Edge connects two nodes of the same floor
type Edge struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	Cost          float64 `json:"cost"`
	Bidirectional bool    `json:"bidirectional"`

	// RequiredItem, when set, gates traversal on possessing the named item
	RequiredItem string `json:"required_item,omitempty"`

	// RequiresExplored, when set, gates traversal on the target node already
	// being in the participant's explored set (a hidden passage discovered
	// from the far side)
	RequiresExplored bool `json:"requires_explored,omitempty"`
}

// Connects reports whether the edge permits travel from one node to the other,
// honoring the bidirectional flag
func (e *Edge) Connects(from, to string) bool {
	if e.From == from && e.To == to {
		return true
	}
	return e.Bidirectional && e.From == to && e.To == from
}
