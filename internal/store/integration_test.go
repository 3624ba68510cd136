package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/axiom/scriptgen/internal/database"
	"github.com/axiom/scriptgen/internal/models"
)

// These tests need live services and are skipped unless
// TEST_DATABASE_URL or TEST_REDIS_URL is set.

func TestPostgresGenerations(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	require.NoError(t, database.RunMigrations(url, zap.NewNop()))
	pg, err := database.OpenHistory(ctx, url)
	require.NoError(t, err)
	defer pg.Close()

	s := NewPostgresGenerations(pg.Pool())
	gen := models.Generation{
		ID:          uuid.New(),
		Scenario:    "toggle the first checkbox",
		Script:      "console.log(1);",
		Source:      "canned",
		Canned:      true,
		Suggestions: []string{"a", "b"},
		Attempts:    []models.Attempt{{URL: "http://localhost:11434/api/generate", Dialect: "native", Outcome: "no_answer"}},
		ScriptHash:  "abc",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, s.Save(ctx, gen))

	got, err := s.Get(ctx, gen.ID)
	require.NoError(t, err)
	assert.Equal(t, gen.Scenario, got.Scenario)
	assert.Equal(t, gen.Suggestions, got.Suggestions)
	assert.Equal(t, gen.Attempts, got.Attempts)
	assert.True(t, gen.CreatedAt.Equal(got.CreatedAt))

	_, err = s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.List(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, list)
}

func TestRedisRuns(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := database.OpenRunCache(ctx, url)
	require.NoError(t, err)
	defer rdb.Close()

	s := NewRedisRuns(rdb.Client(), time.Minute)
	res := models.RunResult{ID: uuid.New(), ExitCode: 1, Stderr: "boom"}
	require.NoError(t, s.Save(ctx, res))

	got, err := s.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "boom", got.Stderr)
	assert.Equal(t, 1, got.ExitCode)

	ttl, err := rdb.Client().TTL(ctx, runKey(res.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
