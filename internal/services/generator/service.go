package generator

//go:generate mockgen -destination=mock/mock_service.go -package=mockgenerator -source=service.go

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/ironveil/labyrinth/internal/domain/floor"
	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/repositories/floors"
	"github.com/ironveil/labyrinth/internal/services/monster"
)

// Repository is an alias for the floor repository interface
type Repository = floors.Repository

// Layout selects the connection style of a generated floor
type Layout string

const (
	// LayoutMaze biases toward long corridors with few extra connections
	LayoutMaze Layout = "maze"
	// LayoutOpen biases toward densely cross-connected areas
	LayoutOpen Layout = "open"
)

// WaveInjection controls which generated nodes receive wave combat
type WaveInjection struct {
	// Fraction of eligible nodes that get a wave configuration, in [0,1]
	Fraction float64

	// WaveCount is the number of waves per injected node
	WaveCount int

	// MonstersPerWave is the roster size of the first wave; later waves grow
	// by one monster each
	MonstersPerWave int

	// Pool holds the template names rosters are drawn from; falls back to
	// the floor's default pool when empty
	Pool []string
}

// GenerateInput is the content budget for one floor
type GenerateInput struct {
	FloorNumber     int
	NodeCount       int
	BossCount       int
	SafeZoneCount   int
	CraftingCount   int
	StairsCount     int
	GuildHallCount  int
	StartPointCount int
	Layout          Layout
	Density         float64 // extra-connection density in [0,1]
	Wave            *WaveInjection
	MonsterPool     []string // floor default pool, by template name
	Seed            int64
}

// Service defines the floor graph generator interface
type Service interface {
	// GenerateFloor builds a full graph for a floor from a content budget,
	// clearing any prior graph for that floor first. The work completes
	// before the call returns. Deterministic for a given seed.
	GenerateFloor(ctx context.Context, input *GenerateInput) (*floor.Graph, error)
}

type service struct {
	repository     Repository
	monsterService monster.Service
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository     Repository      // Required
	MonsterService monster.Service // Optional; validates pools when present
}

// NewService creates a new generator service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}

	return &service{
		repository:     cfg.Repository,
		monsterService: cfg.MonsterService,
	}
}

// GenerateFloor builds a full graph for a floor from a content budget
func (s *service) GenerateFloor(ctx context.Context, input *GenerateInput) (*floor.Graph, error) {
	if input == nil {
		return nil, apperr.InvalidArgument("input cannot be nil")
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	// Partial regeneration is not supported: clear the prior graph first
	if err := s.repository.Delete(ctx, input.FloorNumber); err != nil {
		return nil, apperr.Wrapf(err, "failed to clear floor %d", input.FloorNumber)
	}

	rng := rand.New(rand.NewSource(input.Seed))

	graph := floor.NewGraph(input.FloorNumber)
	graph.MonsterPool = input.MonsterPool

	nodes := s.createNodes(input, rng, graph)
	s.connectSpanning(input, rng, graph, nodes)
	s.addDensityEdges(input, rng, graph, nodes)
	s.injectWaves(input, rng, graph, nodes)

	if err := s.repository.Save(ctx, graph); err != nil {
		return nil, apperr.Wrapf(err, "failed to save floor %d", input.FloorNumber)
	}

	return graph, nil
}

// validate rejects impossible budgets before any node is created
func (s *service) validate(ctx context.Context, input *GenerateInput) error {
	if input.NodeCount < 2 {
		return apperr.Configurationf("floor %d: node count %d is below the minimum of 2", input.FloorNumber, input.NodeCount)
	}

	special := input.BossCount + input.SafeZoneCount + input.CraftingCount + input.StairsCount + input.GuildHallCount
	if special > input.NodeCount {
		return apperr.Configurationf(
			"floor %d: special node counts (%d) exceed total node count (%d)",
			input.FloorNumber, special, input.NodeCount,
		)
	}

	if input.StartPointCount < 1 {
		return apperr.Configurationf("floor %d: at least one start point is required", input.FloorNumber)
	}
	if input.StartPointCount > input.NodeCount-special {
		return apperr.Configurationf(
			"floor %d: start point count %d exceeds the remaining regular nodes (%d)",
			input.FloorNumber, input.StartPointCount, input.NodeCount-special,
		)
	}

	if input.Density < 0 || input.Density > 1 {
		return apperr.Configurationf("floor %d: density %.2f is outside [0,1]", input.FloorNumber, input.Density)
	}

	switch input.Layout {
	case LayoutMaze, LayoutOpen:
	default:
		return apperr.Configurationf("floor %d: unknown layout %q", input.FloorNumber, input.Layout)
	}

	if input.Wave != nil {
		if input.Wave.Fraction < 0 || input.Wave.Fraction > 1 {
			return apperr.Configurationf("floor %d: wave fraction %.2f is outside [0,1]", input.FloorNumber, input.Wave.Fraction)
		}
		if input.Wave.WaveCount < 1 || input.Wave.MonstersPerWave < 1 {
			return apperr.Configurationf("floor %d: wave injection needs at least one wave with one monster", input.FloorNumber)
		}
		pool := input.Wave.Pool
		if len(pool) == 0 {
			pool = input.MonsterPool
		}
		if len(pool) == 0 {
			return apperr.Configurationf("floor %d: wave injection requested with an empty monster pool", input.FloorNumber)
		}
		if s.monsterService != nil {
			if _, err := s.monsterService.ResolveRoster(ctx, pool); err != nil {
				return err
			}
		}
	}

	return nil
}

// createNodes lays out the budgeted nodes on a jittered grid and assigns
// special kinds to a shuffled subset
func (s *service) createNodes(input *GenerateInput, rng *rand.Rand, graph *floor.Graph) []*floor.Node {
	nodes := make([]*floor.Node, input.NodeCount)
	cols := int(math.Ceil(math.Sqrt(float64(input.NodeCount))))

	for i := 0; i < input.NodeCount; i++ {
		nodes[i] = &floor.Node{
			ID:    fmt.Sprintf("f%d-n%d", input.FloorNumber, i),
			Floor: input.FloorNumber,
			Kind:  floor.NodeKindRegular,
			X:     (i%cols)*10 + rng.Intn(5),
			Y:     (i/cols)*10 + rng.Intn(5),
		}
		graph.Nodes[nodes[i].ID] = nodes[i]
	}

	order := rng.Perm(input.NodeCount)
	cursor := 0
	assign := func(kind floor.NodeKind, count int) {
		for i := 0; i < count; i++ {
			nodes[order[cursor]].Kind = kind
			cursor++
		}
	}
	assign(floor.NodeKindBoss, input.BossCount)
	assign(floor.NodeKindSafeZone, input.SafeZoneCount)
	assign(floor.NodeKindCrafting, input.CraftingCount)
	assign(floor.NodeKindStairs, input.StairsCount)
	assign(floor.NodeKindGuildHall, input.GuildHallCount)

	// Stairs up are gated behind the floor boss when one exists
	if input.BossCount > 0 {
		for _, node := range nodes {
			if node.Kind == floor.NodeKindStairs {
				node.RequiresBossDefeated = true
			}
		}
	}

	// Start points go on the remaining regular nodes
	started := 0
	for ; cursor < len(order) && started < input.StartPointCount; cursor++ {
		nodes[order[cursor]].StartPoint = true
		started++
	}

	return nodes
}

// connectSpanning guarantees every node is reachable from the start points.
// Maze layout attaches each node to a recently connected one, producing long
// corridors; open layout attaches to a uniformly random connected node.
func (s *service) connectSpanning(input *GenerateInput, rng *rand.Rand, graph *floor.Graph, nodes []*floor.Node) {
	order := rng.Perm(len(nodes))
	connected := []int{order[0]}

	for _, idx := range order[1:] {
		var anchor int
		if input.Layout == LayoutMaze {
			// bias toward the frontier
			lo := len(connected) - 3
			if lo < 0 {
				lo = 0
			}
			anchor = connected[lo+rng.Intn(len(connected)-lo)]
		} else {
			anchor = connected[rng.Intn(len(connected))]
		}

		graph.Edges = append(graph.Edges, &floor.Edge{
			From:          nodes[anchor].ID,
			To:            nodes[idx].ID,
			Cost:          float64(1 + rng.Intn(2)),
			Bidirectional: true,
		})
		connected = append(connected, idx)
	}
}

// addDensityEdges tops the spanning structure up to the requested density
func (s *service) addDensityEdges(input *GenerateInput, rng *rand.Rand, graph *floor.Graph, nodes []*floor.Node) {
	n := len(nodes)
	spanning := n - 1

	// cap the candidate surplus so dense floors stay traversable
	maxEdges := 3 * n
	if pairs := n * (n - 1) / 2; pairs < maxEdges {
		maxEdges = pairs
	}

	extra := int(math.Round(input.Density * float64(maxEdges-spanning)))
	if input.Layout == LayoutMaze {
		extra /= 2
	}

	attempts := 0
	for added := 0; added < extra && attempts < extra*20; attempts++ {
		a := rng.Intn(n)
		b := rng.Intn(n)
		if a == b {
			continue
		}
		from, to := nodes[a].ID, nodes[b].ID
		if graph.HasEdge(from, to) || graph.HasEdge(to, from) {
			continue
		}
		graph.Edges = append(graph.Edges, &floor.Edge{
			From:          from,
			To:            to,
			Cost:          float64(1 + rng.Intn(2)),
			Bidirectional: true,
		})
		added++
	}
}

// injectWaves marks the requested fraction of eligible nodes with wave combat
func (s *service) injectWaves(input *GenerateInput, rng *rand.Rand, graph *floor.Graph, nodes []*floor.Node) {
	if input.Wave == nil || input.Wave.Fraction == 0 {
		return
	}

	pool := input.Wave.Pool
	if len(pool) == 0 {
		pool = input.MonsterPool
	}

	var eligible []*floor.Node
	for _, node := range nodes {
		if node.Kind == floor.NodeKindRegular && !node.StartPoint {
			eligible = append(eligible, node)
		}
	}

	count := int(math.Round(input.Wave.Fraction * float64(len(eligible))))
	rng.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})

	for _, node := range eligible[:count] {
		waves := make([][]string, input.Wave.WaveCount)
		for w := range waves {
			// later waves escalate by one monster each
			roster := make([]string, input.Wave.MonstersPerWave+w)
			for m := range roster {
				roster[m] = pool[rng.Intn(len(pool))]
			}
			waves[w] = roster
		}
		node.Kind = floor.NodeKindMonsterSpawn
		node.Wave = &floor.WaveConfig{Waves: waves}
	}
}
