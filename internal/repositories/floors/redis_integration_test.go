//go:build integration
// +build integration

package floors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/ironveil/labyrinth/internal/errors"
	"github.com/ironveil/labyrinth/internal/repositories/floors"
	"github.com/ironveil/labyrinth/internal/testutils"
)

func TestRedisRepository_Integration(t *testing.T) {
	client := testutils.StartRedisContainer(t)

	repo := floors.NewRedisRepository(&floors.RedisRepoConfig{
		Client: client,
	})

	ctx := context.Background()

	t.Run("save and retrieve graph", func(t *testing.T) {
		graph := testutils.CreateTestGraph(1)

		err := repo.Save(ctx, graph)
		require.NoError(t, err)

		retrieved, err := repo.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, graph.Floor, retrieved.Floor)
		assert.Len(t, retrieved.Nodes, len(graph.Nodes))
		assert.Len(t, retrieved.Edges, len(graph.Edges))
		assert.Equal(t, graph.MonsterPool, retrieved.MonsterPool)

		spawn := retrieved.Nodes["b"]
		require.NotNil(t, spawn)
		require.NotNil(t, spawn.Wave)
		assert.Len(t, spawn.Wave.Waves, 2)
	})

	t.Run("save replaces prior graph", func(t *testing.T) {
		graph := testutils.CreateTestGraph(2)
		require.NoError(t, repo.Save(ctx, graph))

		delete(graph.Nodes, "boss")
		require.NoError(t, repo.Save(ctx, graph))

		retrieved, err := repo.Get(ctx, 2)
		require.NoError(t, err)
		assert.NotContains(t, retrieved.Nodes, "boss")
	})

	t.Run("list floors", func(t *testing.T) {
		numbers, err := repo.ListFloors(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, numbers)
	})

	t.Run("delete floor", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, 2))

		_, err := repo.Get(ctx, 2)
		assert.True(t, apperr.IsNotFound(err))

		numbers, err := repo.ListFloors(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, numbers)
	})
}
