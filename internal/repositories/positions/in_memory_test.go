package positions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironveil/labyrinth/internal/domain/position"
	apperr "github.com/ironveil/labyrinth/internal/errors"
)

func testPosition(participantID string, floorNumber int) *position.ParticipantPosition {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	pos := position.New(participantID, floorNumber, 10.0, at)
	pos.PlaceAt("start", at)
	return pos
}

func TestInMemoryCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	pos := testPosition("alice", 1)
	require.NoError(t, repo.Create(ctx, pos))

	err := repo.Create(ctx, testPosition("alice", 1))
	assert.True(t, apperr.IsAlreadyExists(err))

	// same participant on a different floor is a separate record
	require.NoError(t, repo.Create(ctx, testPosition("alice", 2)))

	assert.True(t, apperr.IsInvalidArgument(repo.Create(ctx, nil)))
	assert.True(t, apperr.IsInvalidArgument(repo.Create(ctx, &position.ParticipantPosition{})))
}

func TestInMemoryGet_ReturnsIsolatedCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	require.NoError(t, repo.Create(ctx, testPosition("alice", 1)))

	first, err := repo.Get(ctx, "alice", 1)
	require.NoError(t, err)

	// mutating the returned record must not leak into storage
	first.NodeID = "elsewhere"
	first.Explored["elsewhere"] = true
	first.History = append(first.History, position.HistoryEntry{From: "start", To: "elsewhere"})

	second, err := repo.Get(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, "start", second.NodeID)
	assert.False(t, second.Explored["elsewhere"])
	assert.Empty(t, second.History)
}

func TestInMemoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	pos := testPosition("alice", 1)
	require.NoError(t, repo.Create(ctx, pos))

	pos.NodeID = "hall"
	pos.Explored["hall"] = true
	require.NoError(t, repo.Update(ctx, pos))

	stored, err := repo.Get(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, "hall", stored.NodeID)
	assert.True(t, stored.Explored["hall"])

	err = repo.Update(ctx, testPosition("ghost", 1))
	assert.True(t, apperr.IsNotFound(err))
}

func TestInMemoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	require.NoError(t, repo.Create(ctx, testPosition("alice", 1)))
	require.NoError(t, repo.Delete(ctx, "alice", 1))

	_, err := repo.Get(ctx, "alice", 1)
	assert.True(t, apperr.IsNotFound(err))

	err = repo.Delete(ctx, "alice", 1)
	assert.True(t, apperr.IsNotFound(err))
}

func TestInMemoryListByFloor(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	require.NoError(t, repo.Create(ctx, testPosition("alice", 1)))
	require.NoError(t, repo.Create(ctx, testPosition("bob", 1)))
	require.NoError(t, repo.Create(ctx, testPosition("carol", 2)))

	onFirst, err := repo.ListByFloor(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, onFirst, 2)

	onThird, err := repo.ListByFloor(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, onThird)
}
