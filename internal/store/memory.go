package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/axiom/scriptgen/internal/models"
)

// MemoryGenerations keeps the most recent generations in process memory.
type MemoryGenerations struct {
	mu       sync.RWMutex
	capacity int
	order    []uuid.UUID
	byID     map[uuid.UUID]models.Generation
}

// NewMemoryGenerations keeps at most capacity generations, evicting the oldest.
func NewMemoryGenerations(capacity int) *MemoryGenerations {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryGenerations{capacity: capacity, byID: make(map[uuid.UUID]models.Generation)}
}

func (m *MemoryGenerations) Save(_ context.Context, gen models.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[gen.ID]; !ok {
		m.order = append(m.order, gen.ID)
	}
	m.byID[gen.ID] = gen
	for len(m.order) > m.capacity {
		delete(m.byID, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *MemoryGenerations) Get(_ context.Context, id uuid.UUID) (models.Generation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gen, ok := m.byID[id]
	if !ok {
		return models.Generation{}, ErrNotFound
	}
	return gen, nil
}

func (m *MemoryGenerations) List(_ context.Context, limit int) ([]models.Generation, error) {
	limit = ClampLimit(limit)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Generation, 0, min(limit, len(m.order)))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.byID[m.order[i]])
	}
	return out, nil
}

type memoryRun struct {
	result  models.RunResult
	expires time.Time
}

// MemoryRuns keeps run results in process memory until their TTL passes.
type MemoryRuns struct {
	mu   sync.Mutex
	ttl  time.Duration
	runs map[uuid.UUID]memoryRun
	now  func() time.Time
}

// NewMemoryRuns creates a run store. A zero ttl keeps results forever.
func NewMemoryRuns(ttl time.Duration) *MemoryRuns {
	return &MemoryRuns{ttl: ttl, runs: make(map[uuid.UUID]memoryRun), now: time.Now}
}

func (m *MemoryRuns) Save(_ context.Context, res models.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.evictLocked(now)
	entry := memoryRun{result: res}
	if m.ttl > 0 {
		entry.expires = now.Add(m.ttl)
	}
	m.runs[res.ID] = entry
	return nil
}

func (m *MemoryRuns) Get(_ context.Context, id uuid.UUID) (models.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictLocked(m.now())
	entry, ok := m.runs[id]
	if !ok {
		return models.RunResult{}, ErrNotFound
	}
	return entry.result, nil
}

func (m *MemoryRuns) evictLocked(now time.Time) {
	for id, entry := range m.runs {
		if !entry.expires.IsZero() && !now.Before(entry.expires) {
			delete(m.runs, id)
		}
	}
}
