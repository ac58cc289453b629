package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rgehrsitz/quotego/internal/domain"
)

// MemoryStore keeps quotes in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	quotes map[string]*domain.SubmittedQuote
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quotes: make(map[string]*domain.SubmittedQuote)}
}

func (m *MemoryStore) Save(ctx context.Context, quote *domain.SubmittedQuote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if quote.Reference == "" {
		return fmt.Errorf("quote reference is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.quotes[quote.Reference]; exists {
		return fmt.Errorf("quote %s already exists", quote.Reference)
	}
	m.quotes[quote.Reference] = copyQuote(quote)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, reference string) (*domain.SubmittedQuote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[reference]
	if !ok {
		return nil, fmt.Errorf("quote %s: %w", reference, ErrNotFound)
	}
	return copyQuote(q), nil
}

// List returns matching quotes, newest first
func (m *MemoryStore) List(ctx context.Context, filter Filter) ([]*domain.SubmittedQuote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.SubmittedQuote, 0, len(m.quotes))
	for _, q := range m.quotes {
		if filter.Matches(q) {
			out = append(out, copyQuote(q))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, reference string, status domain.QuoteStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[reference]
	if !ok {
		return fmt.Errorf("quote %s: %w", reference, ErrNotFound)
	}
	q.Status = status
	q.Draft.Status = status
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error { return nil }

func copyQuote(q *domain.SubmittedQuote) *domain.SubmittedQuote {
	c := *q
	c.Draft = *q.Draft.Clone()
	return &c
}

func sortNewestFirst(quotes []*domain.SubmittedQuote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		if quotes[i].SubmittedAt.Equal(quotes[j].SubmittedAt) {
			return quotes[i].Reference < quotes[j].Reference
		}
		return quotes[i].SubmittedAt.After(quotes[j].SubmittedAt)
	})
}
