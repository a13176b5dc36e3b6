package generator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironveil/labyrinth/internal/domain/floor"
	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/repositories/floors"
	"github.com/ironveil/labyrinth/internal/services/generator"
	"github.com/ironveil/labyrinth/internal/services/monster"
)

func newTestService() (generator.Service, floors.Repository) {
	repo := floors.NewInMemoryRepository()
	svc := generator.NewService(&generator.ServiceConfig{
		Repository:     repo,
		MonsterService: monster.NewService(&monster.ServiceConfig{}),
	})
	return svc, repo
}

func validInput() *generator.GenerateInput {
	return &generator.GenerateInput{
		FloorNumber:     1,
		NodeCount:       30,
		BossCount:       1,
		SafeZoneCount:   2,
		CraftingCount:   1,
		StairsCount:     1,
		GuildHallCount:  1,
		StartPointCount: 3,
		Layout:          generator.LayoutMaze,
		Density:         0.4,
		MonsterPool:     []string{"goblin", "orc"},
		Seed:            42,
	}
}

func countKind(g *floor.Graph, kind floor.NodeKind) int {
	n := 0
	for _, node := range g.Nodes {
		if node.Kind == kind {
			n++
		}
	}
	return n
}

func TestGenerateFloor_HonorsBudget(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	graph, err := svc.GenerateFloor(ctx, validInput())
	require.NoError(t, err)

	assert.Len(t, graph.Nodes, 30)
	assert.Equal(t, 1, countKind(graph, floor.NodeKindBoss))
	assert.Equal(t, 2, countKind(graph, floor.NodeKindSafeZone))
	assert.Equal(t, 1, countKind(graph, floor.NodeKindCrafting))
	assert.Equal(t, 1, countKind(graph, floor.NodeKindStairs))
	assert.Equal(t, 1, countKind(graph, floor.NodeKindGuildHall))
	assert.Len(t, graph.StartNodes(), 3)

	for _, node := range graph.StartNodes() {
		assert.Equal(t, floor.NodeKindRegular, node.Kind, "start points stay on regular nodes")
	}
	for _, node := range graph.Nodes {
		if node.Kind == floor.NodeKindStairs {
			assert.True(t, node.RequiresBossDefeated, "stairs are boss-gated when a boss exists")
		}
	}
}

func TestGenerateFloor_AllNodesReachable(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, layout := range []generator.Layout{generator.LayoutMaze, generator.LayoutOpen} {
		t.Run(string(layout), func(t *testing.T) {
			input := validInput()
			input.Layout = layout
			graph, err := svc.GenerateFloor(ctx, input)
			require.NoError(t, err)

			reachable := graph.ReachableFromStarts()
			assert.Len(t, reachable, len(graph.Nodes), "every node must be reachable from a start point")
		})
	}
}

func TestGenerateFloor_DeterministicForSeed(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.GenerateFloor(ctx, validInput())
	require.NoError(t, err)
	second, err := svc.GenerateFloor(ctx, validInput())
	require.NoError(t, err)

	require.Len(t, second.Nodes, len(first.Nodes))
	for id, node := range first.Nodes {
		other, ok := second.Nodes[id]
		require.True(t, ok)
		assert.Equal(t, node.Kind, other.Kind)
		assert.Equal(t, node.X, other.X)
		assert.Equal(t, node.Y, other.Y)
		assert.Equal(t, node.StartPoint, other.StartPoint)
	}
	assert.Len(t, second.Edges, len(first.Edges))
}

func TestGenerateFloor_ReplacesPriorGraph(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.GenerateFloor(ctx, validInput())
	require.NoError(t, err)

	input := validInput()
	input.NodeCount = 12
	input.StartPointCount = 1
	input.Seed = 99
	_, err = svc.GenerateFloor(ctx, input)
	require.NoError(t, err)

	stored, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, stored.Nodes, 12, "regeneration clears the prior graph")
}

func TestGenerateFloor_WaveInjection(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	input := validInput()
	input.Wave = &generator.WaveInjection{
		Fraction:        0.5,
		WaveCount:       3,
		MonstersPerWave: 2,
	}

	graph, err := svc.GenerateFloor(ctx, input)
	require.NoError(t, err)

	injected := 0
	for _, node := range graph.Nodes {
		if node.Wave == nil {
			continue
		}
		injected++
		assert.Equal(t, floor.NodeKindMonsterSpawn, node.Kind)
		assert.False(t, node.StartPoint, "start points never get waves")
		require.Len(t, node.Wave.Waves, 3)
		for w, roster := range node.Wave.Waves {
			assert.Len(t, roster, 2+w, "later waves escalate by one monster")
		}
	}
	assert.Greater(t, injected, 0)
}

func TestGenerateFloor_ValidationErrors(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*generator.GenerateInput)
	}{
		{name: "too few nodes", mutate: func(in *generator.GenerateInput) { in.NodeCount = 1 }},
		{name: "specials exceed total", mutate: func(in *generator.GenerateInput) { in.BossCount = 40 }},
		{name: "no start points", mutate: func(in *generator.GenerateInput) { in.StartPointCount = 0 }},
		{name: "too many start points", mutate: func(in *generator.GenerateInput) { in.StartPointCount = 29 }},
		{name: "density out of range", mutate: func(in *generator.GenerateInput) { in.Density = 1.5 }},
		{name: "unknown layout", mutate: func(in *generator.GenerateInput) { in.Layout = "spiral" }},
		{name: "wave with empty pool", mutate: func(in *generator.GenerateInput) {
			in.MonsterPool = nil
			in.Wave = &generator.WaveInjection{Fraction: 0.5, WaveCount: 1, MonstersPerWave: 1}
		}},
		{name: "wave with unknown template", mutate: func(in *generator.GenerateInput) {
			in.Wave = &generator.WaveInjection{Fraction: 0.5, WaveCount: 1, MonstersPerWave: 1, Pool: []string{"dragon god"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			input.FloorNumber = 7
			tt.mutate(input)

			_, err := svc.GenerateFloor(ctx, input)
			require.Error(t, err)
			assert.True(t, apperr.IsConfiguration(err), "expected a configuration error, got %v", err)

			_, getErr := repo.Get(ctx, 7)
			assert.True(t, apperr.IsNotFound(getErr), "invalid input must not touch storage")
		})
	}
}
