package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/axiom/scriptgen/internal/models"
)

const generationColumns = `id, scenario, script, source, canned, suggestions, attempts, script_hash, latency_ms, created_at`

// PostgresGenerations stores generations in the generations table.
type PostgresGenerations struct {
	pool *pgxpool.Pool
}

// NewPostgresGenerations uses an open pool. Migrations must have been applied.
func NewPostgresGenerations(pool *pgxpool.Pool) *PostgresGenerations {
	return &PostgresGenerations{pool: pool}
}

func (s *PostgresGenerations) Save(ctx context.Context, gen models.Generation) error {
	attempts, err := json.Marshal(gen.Attempts)
	if err != nil {
		return fmt.Errorf("encode attempts: %w", err)
	}
	suggestions := gen.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO generations (`+generationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET suggestions = EXCLUDED.suggestions`,
		gen.ID, gen.Scenario, gen.Script, gen.Source, gen.Canned,
		suggestions, attempts, gen.ScriptHash, gen.LatencyMS, gen.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

func (s *PostgresGenerations) Get(ctx context.Context, id uuid.UUID) (models.Generation, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+generationColumns+` FROM generations WHERE id = $1`, id)
	gen, err := scanGeneration(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Generation{}, ErrNotFound
	}
	if err != nil {
		return models.Generation{}, fmt.Errorf("get generation: %w", err)
	}
	return gen, nil
}

func (s *PostgresGenerations) List(ctx context.Context, limit int) ([]models.Generation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+generationColumns+` FROM generations ORDER BY created_at DESC LIMIT $1`,
		ClampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var out []models.Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		out = append(out, gen)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	return out, nil
}

func scanGeneration(row pgx.Row) (models.Generation, error) {
	var (
		gen      models.Generation
		attempts []byte
	)
	err := row.Scan(
		&gen.ID, &gen.Scenario, &gen.Script, &gen.Source, &gen.Canned,
		&gen.Suggestions, &attempts, &gen.ScriptHash, &gen.LatencyMS, &gen.CreatedAt,
	)
	if err != nil {
		return models.Generation{}, err
	}
	if len(attempts) > 0 {
		if err := json.Unmarshal(attempts, &gen.Attempts); err != nil {
			return models.Generation{}, fmt.Errorf("decode attempts: %w", err)
		}
	}
	return gen, nil
}
