// Package store persists submitted quotes and caches unfinished drafts.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/rgehrsitz/quotego/internal/domain"
)

// ErrNotFound is returned when no quote or draft exists under the key
var ErrNotFound = errors.New("not found")

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	Line   domain.InsuranceType
	Status domain.QuoteStatus
	Search string // case-insensitive match on reference or agent
}

// Matches reports whether the quote passes the filter
func (f Filter) Matches(q *domain.SubmittedQuote) bool {
	if f.Line != "" && q.InsuranceType != f.Line {
		return false
	}
	if f.Status != "" && q.Status != f.Status {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(q.Reference), needle) &&
			!strings.Contains(strings.ToLower(q.AgentID), needle) {
			return false
		}
	}
	return true
}

// QuoteStore is the storage collaborator receiving submitted quotes
type QuoteStore interface {
	Save(ctx context.Context, quote *domain.SubmittedQuote) error
	Get(ctx context.Context, reference string) (*domain.SubmittedQuote, error)
	List(ctx context.Context, filter Filter) ([]*domain.SubmittedQuote, error)
	UpdateStatus(ctx context.Context, reference string, status domain.QuoteStatus) error
	Close() error
}
