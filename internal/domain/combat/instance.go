package combat

import (
	"fmt"
	"sort"
	"time"
)

// State represents the lifecycle state of an encounter instance.
// Transitions are strictly prepared -> active -> resolved.
type State string

const (
	StatePrepared State = "prepared" // created, open for co-located participants to join
	StateActive   State = "active"   // combat in progress
	StateResolved State = "resolved" // finished, instance is discarded
)

// WaveOutcome reports how a wave concluded
type WaveOutcome string

const (
	WaveOutcomeVictory WaveOutcome = "victory"
	WaveOutcomeDefeat  WaveOutcome = "defeat"
)

const maxCombatLogEntries = 20

// Instance is a transient, in-memory combat encounter tied to a node.
// At most one prepared-or-active instance exists per (node, floor).
type Instance struct {
	ID     string `json:"id"`
	Floor  int    `json:"floor"`
	NodeID string `json:"node_id"`
	State  State  `json:"state"`

	// Participants bound to the instance, in join order
	Participants []string `json:"participants"`

	// Combatants holds the current wave's monster roster plus the joined
	// players; keyed by combatant ID
	Combatants map[string]*Combatant `json:"combatants"`

	// TurnOrder fixes the sequencing policy for the current wave: players in
	// join order first, then monsters in spawn order
	TurnOrder []string `json:"turn_order"`
	Turn      int      `json:"turn"`
	Round     int      `json:"round"`

	WaveIndex int        `json:"wave_index"` // zero-based, current wave
	Waves     [][]string `json:"waves"`      // roster template names per wave

	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	CombatLog []string `json:"combat_log,omitempty"`
}

// NewPreparedInstance creates a prepared encounter at a node with the given
// wave plan. The triggering participant is bound immediately.
func NewPreparedInstance(id string, floorNumber int, nodeID string, waves [][]string, triggeredBy string) *Instance {
	return &Instance{
		ID:           id,
		Floor:        floorNumber,
		NodeID:       nodeID,
		State:        StatePrepared,
		Participants: []string{triggeredBy},
		Combatants:   make(map[string]*Combatant),
		Waves:        waves,
		CreatedAt:    time.Now(),
	}
}

// WaveCount returns the total number of waves
func (i *Instance) WaveCount() int {
	return len(i.Waves)
}

// HasParticipant reports whether the participant is bound to the instance
func (i *Instance) HasParticipant(participantID string) bool {
	for _, id := range i.Participants {
		if id == participantID {
			return true
		}
	}
	return false
}

// Join binds a participant while the instance is still prepared
func (i *Instance) Join(participantID string) bool {
	if i.State != StatePrepared || i.HasParticipant(participantID) {
		return false
	}
	i.Participants = append(i.Participants, participantID)
	return true
}

// RemoveParticipant unbinds a participant. While the instance is active their
// combatant leaves combat with them, the turn order is rebuilt, and a turn
// cursor that pointed at the departed combatant passes to the next living
// one. Returns true when no participants remain.
func (i *Instance) RemoveParticipant(participantID string) bool {
	remaining := i.Participants[:0]
	for _, id := range i.Participants {
		if id != participantID {
			remaining = append(remaining, id)
		}
	}
	i.Participants = remaining

	if i.State == StateActive {
		var currentID string
		if i.Turn < len(i.TurnOrder) {
			currentID = i.TurnOrder[i.Turn]
		}
		for id, c := range i.Combatants {
			if c.Type == ActorTypePlayer && c.ParticipantID == participantID {
				delete(i.Combatants, id)
			}
		}
		i.RebuildTurnOrder()
		i.Turn = 0
		for idx, id := range i.TurnOrder {
			if id == currentID {
				i.Turn = idx
				break
			}
		}
		i.skipDead()
		if i.Turn >= len(i.TurnOrder) {
			i.Round++
			i.Turn = 0
			i.skipDead()
		}
	}

	return len(i.Participants) == 0
}

// AddCombatant adds a combatant to the current wave
func (i *Instance) AddCombatant(c *Combatant) {
	i.Combatants[c.ID] = c
}

// Activate transitions prepared -> active and starts round 1 of wave 1.
// The caller has already spawned the first wave's roster and the player
// combatants.
func (i *Instance) Activate() bool {
	if i.State != StatePrepared {
		return false
	}
	now := time.Now()
	i.State = StateActive
	i.StartedAt = &now
	i.Round = 1
	i.Turn = 0
	i.RebuildTurnOrder()
	i.skipDead()
	return true
}

// RebuildTurnOrder fixes the sequencing for the current wave: player actors
// in join order, then monster actors in spawn order. Called after each wave's
// roster is spawned.
func (i *Instance) RebuildTurnOrder() {
	i.TurnOrder = i.TurnOrder[:0]
	for _, pid := range i.Participants {
		for id, c := range i.Combatants {
			if c.Type == ActorTypePlayer && c.ParticipantID == pid {
				i.TurnOrder = append(i.TurnOrder, id)
			}
		}
	}
	var monsters []string
	for id, c := range i.Combatants {
		if c.Type == ActorTypeMonster {
			monsters = append(monsters, id)
		}
	}
	// spawn order is encoded in the IDs (waveN-mM); map iteration isn't
	// stable, and a shorter index must precede a longer one (m9 before m10)
	sort.Slice(monsters, func(a, b int) bool {
		if len(monsters[a]) != len(monsters[b]) {
			return len(monsters[a]) < len(monsters[b])
		}
		return monsters[a] < monsters[b]
	})
	i.TurnOrder = append(i.TurnOrder, monsters...)
}

// CurrentCombatant returns the combatant whose turn it is, or nil
func (i *Instance) CurrentCombatant() *Combatant {
	if i.State != StateActive || i.Turn >= len(i.TurnOrder) {
		return nil
	}
	return i.Combatants[i.TurnOrder[i.Turn]]
}

// IsParticipantTurn checks whether it is the given participant's turn
func (i *Instance) IsParticipantTurn(participantID string) bool {
	current := i.CurrentCombatant()
	return current != nil && current.Type == ActorTypePlayer && current.ParticipantID == participantID
}

// NextTurn advances to the next living combatant, rolling over rounds
func (i *Instance) NextTurn() {
	if i.State != StateActive {
		return
	}
	i.Turn++
	i.skipDead()
	if i.Turn >= len(i.TurnOrder) {
		i.Round++
		i.Turn = 0
		i.skipDead()
	}
}

// skipDead advances past dead combatants without rolling over the round
func (i *Instance) skipDead() {
	for i.Turn < len(i.TurnOrder) {
		if c, ok := i.Combatants[i.TurnOrder[i.Turn]]; ok && c.IsAlive() {
			return
		}
		i.Turn++
	}
}

// CheckWaveEnd reports whether the current wave has concluded and how.
// Victory means all monsters are dead; defeat means all players are dead.
func (i *Instance) CheckWaveEnd() (ended bool, outcome WaveOutcome) {
	aliveMonsters := 0
	alivePlayers := 0
	for _, c := range i.Combatants {
		if !c.IsAlive() {
			continue
		}
		switch c.Type {
		case ActorTypeMonster:
			aliveMonsters++
		case ActorTypePlayer:
			alivePlayers++
		}
	}

	if aliveMonsters == 0 {
		return true, WaveOutcomeVictory
	}
	if alivePlayers == 0 {
		return true, WaveOutcomeDefeat
	}
	return false, ""
}

// HasNextWave reports whether more waves remain after the current one
func (i *Instance) HasNextWave() bool {
	return i.WaveIndex+1 < len(i.Waves)
}

// AdvanceWave moves to the next wave: the monster roster is cleared (the
// caller spawns the next one), player HP and mana carry over unchanged, and
// status effects are reset.
func (i *Instance) AdvanceWave() {
	i.WaveIndex++
	for id, c := range i.Combatants {
		if c.Type == ActorTypeMonster {
			delete(i.Combatants, id)
			continue
		}
		c.StatusEffects = nil
	}
	i.Round = 1
	i.Turn = 0
}

// BeginWave finalizes a freshly spawned wave: rebuilds the turn order and
// positions the turn cursor on the first living combatant
func (i *Instance) BeginWave() {
	i.RebuildTurnOrder()
	i.Turn = 0
	i.skipDead()
}

// Resolve transitions the instance to its terminal state
func (i *Instance) Resolve() {
	now := time.Now()
	i.State = StateResolved
	i.EndedAt = &now
}

// PlayerCombatant returns the player combatant bound to a participant, or nil
func (i *Instance) PlayerCombatant(participantID string) *Combatant {
	for _, c := range i.Combatants {
		if c.Type == ActorTypePlayer && c.ParticipantID == participantID {
			return c
		}
	}
	return nil
}

// AddLogEntry appends a round-stamped entry to the bounded combat log
func (i *Instance) AddLogEntry(entry string) {
	i.CombatLog = append(i.CombatLog, fmt.Sprintf("Wave %d, round %d: %s", i.WaveIndex+1, i.Round, entry))
	if len(i.CombatLog) > maxCombatLogEntries {
		i.CombatLog = i.CombatLog[len(i.CombatLog)-maxCombatLogEntries:]
	}
}
