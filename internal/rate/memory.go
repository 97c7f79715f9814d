package rate

import (
	"context"
	"sync"

	"github.com/lorebind/lorebind/internal/domain"
)

// MemoryStore is an in-process BudgetStore. It is the default when no
// persistent backend is configured, and the fixture for limiter tests.
type MemoryStore struct {
	mu      sync.Mutex
	budgets map[string]domain.RateBudget
}

// NewMemoryStore creates an empty in-memory budget store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{budgets: make(map[string]domain.RateBudget)}
}

// Read returns the budget for a model key; a never-written key reads as the
// zero-value budget.
func (s *MemoryStore) Read(_ context.Context, model string) (domain.RateBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgets[model], nil
}

// Update applies fn to the stored budget under the store lock.
func (s *MemoryStore) Update(_ context.Context, model string, fn func(domain.RateBudget) domain.RateBudget) (domain.RateBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := fn(s.budgets[model])
	s.budgets[model] = updated
	return updated, nil
}
