// Package store keeps generation history and run results.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/axiom/scriptgen/internal/models"
)

// ErrNotFound is returned when a record does not exist or has expired.
var ErrNotFound = errors.New("not found")

// DefaultListLimit and MaxListLimit bound List.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Generations stores produced scripts.
type Generations interface {
	Save(ctx context.Context, gen models.Generation) error
	Get(ctx context.Context, id uuid.UUID) (models.Generation, error)
	// List returns the most recent generations first.
	List(ctx context.Context, limit int) ([]models.Generation, error)
}

// Runs stores run results.
type Runs interface {
	Save(ctx context.Context, res models.RunResult) error
	Get(ctx context.Context, id uuid.UUID) (models.RunResult, error)
}

// ClampLimit maps a requested page size into [1, MaxListLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
