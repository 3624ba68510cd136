package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/axiom/scriptgen/internal/models"
)

const runKeyPrefix = "scriptgen:run:"

// RedisRuns stores run results as JSON values that expire after ttl.
type RedisRuns struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRuns creates a run store. A zero ttl keeps results until evicted.
func NewRedisRuns(client *redis.Client, ttl time.Duration) *RedisRuns {
	return &RedisRuns{client: client, ttl: ttl}
}

func runKey(id uuid.UUID) string {
	return runKeyPrefix + id.String()
}

func (s *RedisRuns) Save(ctx context.Context, res models.RunResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	if err := s.client.Set(ctx, runKey(res.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	return nil
}

func (s *RedisRuns) Get(ctx context.Context, id uuid.UUID) (models.RunResult, error) {
	payload, err := s.client.Get(ctx, runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.RunResult{}, ErrNotFound
	}
	if err != nil {
		return models.RunResult{}, fmt.Errorf("load run: %w", err)
	}
	var res models.RunResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return models.RunResult{}, fmt.Errorf("decode run: %w", err)
	}
	return res, nil
}
