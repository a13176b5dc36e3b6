package positions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ironveil/labyrinth/internal/domain/position"
	apperr "github.com/ironveil/labyrinth/internal/errors"
)

// redisRepository implements Repository using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis-backed position repository
func NewRedisRepository(client *redis.Client) Repository {
	if client == nil {
		panic("redis client is required")
	}

	return &redisRepository{
		client: client,
	}
}

func positionKey(participantID string, floorNumber int) string {
	return fmt.Sprintf("position:%s:%d", participantID, floorNumber)
}

func floorIndexKey(floorNumber int) string {
	return fmt.Sprintf("floor:%d:positions", floorNumber)
}

// Create stores a new position record
func (r *redisRepository) Create(ctx context.Context, pos *position.ParticipantPosition) error {
	if pos == nil {
		return apperr.InvalidArgument("position cannot be nil")
	}

	data, err := json.Marshal(pos)
	if err != nil {
		return err
	}

	key := positionKey(pos.ParticipantID, pos.Floor)
	set, err := r.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create position in Redis: %w", err)
	}
	if !set {
		return apperr.AlreadyExistsf("position already exists for participant %s on floor %d", pos.ParticipantID, pos.Floor)
	}

	if err := r.client.SAdd(ctx, floorIndexKey(pos.Floor), pos.ParticipantID).Err(); err != nil {
		return fmt.Errorf("failed to index position in Redis: %w", err)
	}

	return nil
}

// Get retrieves the position of a participant on a floor
func (r *redisRepository) Get(ctx context.Context, participantID string, floorNumber int) (*position.ParticipantPosition, error) {
	data, err := r.client.Get(ctx, positionKey(participantID, floorNumber)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperr.NotFoundf("no position for participant %s on floor %d", participantID, floorNumber)
		}
		return nil, err
	}

	var pos position.ParticipantPosition
	if err := json.Unmarshal(data, &pos); err != nil {
		return nil, err
	}

	return &pos, nil
}

// Update modifies an existing position record
func (r *redisRepository) Update(ctx context.Context, pos *position.ParticipantPosition) error {
	if pos == nil {
		return apperr.InvalidArgument("position cannot be nil")
	}

	data, err := json.Marshal(pos)
	if err != nil {
		return err
	}

	key := positionKey(pos.ParticipantID, pos.Floor)
	set, err := r.client.SetXX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update position in Redis: %w", err)
	}
	if !set {
		return apperr.NotFoundf("no position for participant %s on floor %d", pos.ParticipantID, pos.Floor)
	}

	return nil
}

// Delete removes a position record
func (r *redisRepository) Delete(ctx context.Context, participantID string, floorNumber int) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, positionKey(participantID, floorNumber))
	pipe.SRem(ctx, floorIndexKey(floorNumber), participantID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete position from Redis: %w", err)
	}

	return nil
}

// ListByFloor retrieves every position record on a floor
func (r *redisRepository) ListByFloor(ctx context.Context, floorNumber int) ([]*position.ParticipantPosition, error) {
	participantIDs, err := r.client.SMembers(ctx, floorIndexKey(floorNumber)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list floor positions from Redis: %w", err)
	}

	out := make([]*position.ParticipantPosition, len(participantIDs))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range participantIDs {
		g.Go(func() error {
			pos, err := r.Get(ctx, id, floorNumber)
			if err != nil {
				if apperr.IsNotFound(err) {
					return nil // index entry outlived the record
				}
				return err
			}
			out[i] = pos
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	positions := make([]*position.ParticipantPosition, 0, len(out))
	for _, pos := range out {
		if pos != nil {
			positions = append(positions, pos)
		}
	}
	return positions, nil
}
