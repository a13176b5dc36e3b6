package protocol

import "encoding/json"

// IntentEnvelope is one client request over a floor session
type IntentEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	IntentMove         = "requestMove"
	IntentEngage       = "requestEngage"
	IntentJoinCombat   = "requestJoinCombat"
	IntentInitiate     = "requestInitiate"
	IntentCombatAction = "requestCombatAction"
	IntentMapView      = "requestMapView"
)

type RequestMove struct {
	TargetNodeID string `json:"targetNodeId"`
}

type RequestEngage struct {
	NodeID string `json:"nodeId"`
}

type RequestJoinCombat struct {
	InstanceID string `json:"instanceId"`
}

type RequestInitiate struct {
	InstanceID string `json:"instanceId"`
}

type RequestCombatAction struct {
	InstanceID string `json:"instanceId"`
	Action     string `json:"action"`
	TargetID   string `json:"targetId,omitempty"`
	SkillKey   string `json:"skillKey,omitempty"`
	ItemKey    string `json:"itemKey,omitempty"`
}

type RequestMapView struct {
}
