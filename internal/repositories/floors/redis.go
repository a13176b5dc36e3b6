package floors

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/ironveil/labyrinth/internal/domain/floor"
	apperr "github.com/ironveil/labyrinth/internal/errors"
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client *redis.Client
}

// redisRepository implements Repository using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis-backed floor repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil || cfg.Client == nil {
		panic("RedisRepoConfig and Client are required")
	}

	return &redisRepository{
		client: cfg.Client,
	}
}

func floorKey(floorNumber int) string {
	return fmt.Sprintf("floor:%d", floorNumber)
}

// Save stores a floor's graph, replacing any existing graph
func (r *redisRepository) Save(ctx context.Context, graph *floor.Graph) error {
	if graph == nil {
		return apperr.InvalidArgument("graph cannot be nil")
	}

	data, err := json.Marshal(graph)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, floorKey(graph.Floor), data, 0)
	pipe.SAdd(ctx, "floors", strconv.Itoa(graph.Floor))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save floor %d to Redis: %w", graph.Floor, err)
	}

	return nil
}

// Get retrieves a floor's graph by floor number
func (r *redisRepository) Get(ctx context.Context, floorNumber int) (*floor.Graph, error) {
	data, err := r.client.Get(ctx, floorKey(floorNumber)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperr.NotFoundf("floor %d not found", floorNumber)
		}
		return nil, err
	}

	var graph floor.Graph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, err
	}

	return &graph, nil
}

// Delete removes a floor's graph
func (r *redisRepository) Delete(ctx context.Context, floorNumber int) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, floorKey(floorNumber))
	pipe.SRem(ctx, "floors", strconv.Itoa(floorNumber))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete floor %d from Redis: %w", floorNumber, err)
	}

	return nil
}

// ListFloors returns the stored floor numbers in ascending order
func (r *redisRepository) ListFloors(ctx context.Context) ([]int, error) {
	members, err := r.client.SMembers(ctx, "floors").Result()
	if err != nil {
		return nil, err
	}

	numbers := make([]int, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}
