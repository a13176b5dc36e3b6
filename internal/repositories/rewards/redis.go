package rewards

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ironveil/labyrinth/internal/domain/reward"
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

// NewRedisRepository creates a new Redis-backed reward repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg == nil || cfg.Client == nil {
		panic("RedisRepoConfig and Client are required")
	}

	return &redisRepository{
		client: cfg.Client,
	}
}

func rewardKey(id string) string {
	return fmt.Sprintf("reward:%s", id)
}

func characterRewardsKey(characterID string) string {
	return fmt.Sprintf("character:%s:rewards", characterID)
}

// Create stores a new earned reward
func (r *redisRepository) Create(ctx context.Context, rw *reward.Reward) error {
	if rw == nil {
		return apperr.InvalidArgument("reward cannot be nil")
	}

	data, err := json.Marshal(rw)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, rewardKey(rw.ID), data, 0)
	pipe.SAdd(ctx, characterRewardsKey(rw.CharacterID), rw.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save reward to Redis: %w", err)
	}

	return nil
}

// Get retrieves a reward by ID
func (r *redisRepository) Get(ctx context.Context, id string) (*reward.Reward, error) {
	data, err := r.client.Get(ctx, rewardKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperr.NotFoundf("reward not found: %s", id)
		}
		return nil, err
	}

	var rw reward.Reward
	if err := json.Unmarshal(data, &rw); err != nil {
		return nil, err
	}

	return &rw, nil
}

// ListByCharacter retrieves every unclaimed reward for a character
func (r *redisRepository) ListByCharacter(ctx context.Context, characterID string) ([]*reward.Reward, error) {
	ids, err := r.client.SMembers(ctx, characterRewardsKey(characterID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list character rewards from Redis: %w", err)
	}

	out := make([]*reward.Reward, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			rw, err := r.Get(ctx, id)
			if err != nil {
				if apperr.IsNotFound(err) {
					return nil
				}
				return err
			}
			out[i] = rw
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	rewards := make([]*reward.Reward, 0, len(out))
	for _, rw := range out {
		if rw != nil {
			rewards = append(rewards, rw)
		}
	}
	return rewards, nil
}

// Delete removes a reward
func (r *redisRepository) Delete(ctx context.Context, id string) error {
	rw, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, rewardKey(id))
	pipe.SRem(ctx, characterRewardsKey(rw.CharacterID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete reward from Redis: %w", err)
	}

	return nil
}
