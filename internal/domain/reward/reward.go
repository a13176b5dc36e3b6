package reward

import "time"

// Type categorizes an earned grant
type Type string

const (
	TypeGold       Type = "gold"
	TypeExperience Type = "experience"
	TypeItem       Type = "item"
)

// Reward is an earned-but-possibly-unclaimed grant for a character. Created
// by the encounter coordinator or floor-transition logic; deleted (claimed)
// by an explicit player action.
type Reward struct {
	ID          string    `json:"id"`
	CharacterID string    `json:"character_id"`
	Type        Type      `json:"type"`
	Identifier  string    `json:"identifier,omitempty"` // item key for TypeItem
	Quantity    int       `json:"quantity"`
	Source      string    `json:"source,omitempty"` // originating encounter or floor transition
	EarnedAt    time.Time `json:"earned_at"`
}
