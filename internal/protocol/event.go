package protocol

// EventEnvelope is one server push to a floor session. Sequence is
// per-floor monotonic so clients can detect gaps.
type EventEnvelope struct {
	Sequence uint64 `json:"seq"`
	Floor    int    `json:"floor"`
	Type     string `json:"type"`
	Payload  any    `json:"payload"`
}

const (
	EventParticipantJoined  = "participantJoined"
	EventParticipantLeft    = "participantLeft"
	EventMapView            = "mapView"
	EventVisibilityDelta    = "visibilityDelta"
	EventOccupancyChanged   = "occupancyChanged"
	EventEncounterPrepared  = "encounterPrepared"
	EventEncounterInitiated = "encounterInitiated"
	EventEncounterUpdate    = "encounterUpdate"
	EventEncounterEnded     = "encounterEnded"
	EventRewardEarned       = "rewardEarned"
	EventError              = "error"
)

type ParticipantJoined struct {
	ParticipantID string `json:"participantId"`
	NodeID        string `json:"nodeId"`
}

type ParticipantLeft struct {
	ParticipantID string `json:"participantId"`
}

// NodeView is one node as a given participant sees it. Edges and
// coordinates are withheld for nodes the participant cannot see.
type NodeView struct {
	ID         string `json:"id"`
	Kind       string `json:"kind,omitempty"`
	X          int    `json:"x,omitempty"`
	Y          int    `json:"y,omitempty"`
	Name       string `json:"name,omitempty"`
	Visibility string `json:"visibility"`
}

type EdgeView struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Cost float64 `json:"cost"`
}

// MapView is the per-participant projection of a floor
type MapView struct {
	Floor  int        `json:"floor"`
	Nodes  []NodeView `json:"nodes"`
	Edges  []EdgeView `json:"edges"`
	NodeID string     `json:"nodeId,omitempty"`
	Points float64    `json:"points,omitempty"`
}

type VisibilityDelta struct {
	ParticipantID string   `json:"participantId"`
	Revealed      []string `json:"revealed"`
}

type OccupancyChanged struct {
	NodeID    string `json:"nodeId"`
	Occupants int    `json:"occupants"`
}

type EncounterPrepared struct {
	InstanceID   string   `json:"instanceId"`
	NodeID       string   `json:"nodeId"`
	Participants []string `json:"participants"`
	Party        string   `json:"party,omitempty"`
}

type EncounterInitiated struct {
	InstanceID string   `json:"instanceId"`
	Round      int      `json:"round"`
	WaveIndex  int      `json:"waveIndex"`
	WaveCount  int      `json:"waveCount"`
	TurnOrder  []string `json:"turnOrder"`
}

type CombatantView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	CurrentHP int    `json:"currentHp"`
	MaxHP     int    `json:"maxHp"`
}

type EncounterUpdate struct {
	InstanceID string          `json:"instanceId"`
	Round      int             `json:"round"`
	WaveIndex  int             `json:"waveIndex"`
	Current    string          `json:"current,omitempty"`
	Combatants []CombatantView `json:"combatants"`
	Log        []string        `json:"log,omitempty"`
}

type EncounterEnded struct {
	InstanceID string `json:"instanceId"`
	WaveIndex  int    `json:"waveIndex"`
	WaveCount  int    `json:"waveCount"`
	Outcome    string `json:"outcome"`
	Final      bool   `json:"final"`
}

type RewardEarned struct {
	RewardID string `json:"rewardId"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
	Source   string `json:"source"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
