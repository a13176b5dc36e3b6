package floor

// NodeKind represents the special role of a node on a floor
type NodeKind string

const (
	NodeKindRegular        NodeKind = "regular"
	NodeKindBoss           NodeKind = "boss"
	NodeKindMonsterSpawn   NodeKind = "monster_spawn"
	NodeKindMonsterSpawner NodeKind = "monster_spawner"
	NodeKindSafeZone       NodeKind = "safe_zone"
	NodeKindCrafting       NodeKind = "crafting"
	NodeKindStairs         NodeKind = "stairs"
	NodeKindGuildHall      NodeKind = "guild_hall"
)

// WaveConfig describes the multi-wave combat attached to a node.
// Each entry is the monster roster for one wave, by template name.
type WaveConfig struct {
	Waves [][]string `json:"waves"`
}

// Node is a discrete location on a floor's graph
type Node struct {
	ID                   string         `json:"id"`
	Floor                int            `json:"floor"`
	Kind                 NodeKind       `json:"kind"`
	X                    int            `json:"x"`
	Y                    int            `json:"y"`
	Name                 string         `json:"name,omitempty"`
	Metadata             map[string]any `json:"metadata,omitempty"`
	Wave                 *WaveConfig    `json:"wave,omitempty"`
	StartPoint           bool           `json:"start_point"`
	Capacity             int            `json:"capacity,omitempty"` // 0 means unlimited
	RequiresBossDefeated bool           `json:"requires_boss_defeated,omitempty"`
}

// CombatEligible reports whether entering this node can trigger an encounter
func (n *Node) CombatEligible() bool {
	if n.Wave != nil && len(n.Wave.Waves) > 0 {
		return true
	}
	return n.Kind == NodeKindMonsterSpawn || n.Kind == NodeKindBoss
}

// HasCapacity reports whether occupants more participants can fit
func (n *Node) HasCapacity(occupants int) bool {
	return n.Capacity == 0 || occupants < n.Capacity
}
