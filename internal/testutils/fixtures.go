package testutils

import (
	"time"

	"github.com/ironveil/labyrinth/internal/domain/combat"
	"github.com/ironveil/labyrinth/internal/domain/floor"
	"github.com/ironveil/labyrinth/internal/domain/position"
)

// CreateTestGraph creates a small floor graph:
//
//	start -- a -- b (spawn, 2 waves) -- boss
//	          \
//	           stairs (boss-gated)
func CreateTestGraph(floorNumber int) *floor.Graph {
	g := floor.NewGraph(floorNumber)

	g.Nodes["start"] = &floor.Node{ID: "start", Floor: floorNumber, Kind: floor.NodeKindRegular, StartPoint: true}
	g.Nodes["a"] = &floor.Node{ID: "a", Floor: floorNumber, Kind: floor.NodeKindRegular}
	g.Nodes["b"] = &floor.Node{
		ID: "b", Floor: floorNumber, Kind: floor.NodeKindMonsterSpawn,
		Wave: &floor.WaveConfig{Waves: [][]string{{"goblin"}, {"goblin", "orc"}}},
	}
	g.Nodes["boss"] = &floor.Node{ID: "boss", Floor: floorNumber, Kind: floor.NodeKindBoss}
	g.Nodes["stairs"] = &floor.Node{ID: "stairs", Floor: floorNumber, Kind: floor.NodeKindStairs, RequiresBossDefeated: true}

	g.Edges = []*floor.Edge{
		{From: "start", To: "a", Cost: 1, Bidirectional: true},
		{From: "a", To: "b", Cost: 1, Bidirectional: true},
		{From: "b", To: "boss", Cost: 2, Bidirectional: true},
		{From: "a", To: "stairs", Cost: 1, Bidirectional: true},
	}
	g.MonsterPool = []string{"goblin", "orc"}
	return g
}

// CreateTestPosition creates a position record on the given node with a
// full point balance
func CreateTestPosition(participantID string, floorNumber int, nodeID string, maxPoints float64, at time.Time) *position.ParticipantPosition {
	pos := position.New(participantID, floorNumber, maxPoints, at)
	pos.PlaceAt(nodeID, at)
	return pos
}

// CreateTestInstance creates a prepared encounter instance at a node
func CreateTestInstance(id string, floorNumber int, nodeID, triggeredBy string) *combat.Instance {
	return combat.NewPreparedInstance(id, floorNumber, nodeID, [][]string{{"goblin"}}, triggeredBy)
}
