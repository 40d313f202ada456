package memory

import (
	"context"
	"sync"

	"live-trivia-service/internal/domain"
)

// ResultArchive keeps the most recent finished games in memory.
type ResultArchive struct {
	mu      sync.RWMutex
	limit   int
	results []domain.GameSummary // oldest first
}

func NewResultArchive(limit int) *ResultArchive {
	if limit <= 0 {
		limit = 100
	}
	return &ResultArchive{limit: limit}
}

func (a *ResultArchive) Archive(_ context.Context, summary domain.GameSummary) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, summary)
	if over := len(a.results) - a.limit; over > 0 {
		a.results = append([]domain.GameSummary(nil), a.results[over:]...)
	}
	return nil
}

// Recent returns up to limit summaries, newest first.
func (a *ResultArchive) Recent(_ context.Context, limit int) ([]domain.GameSummary, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if limit <= 0 || limit > len(a.results) {
		limit = len(a.results)
	}
	out := make([]domain.GameSummary, 0, limit)
	for i := len(a.results) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, a.results[i])
	}
	return out, nil
}
