package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rgehrsitz/quotego/internal/domain"
)

// QuoteSaver is the storage collaborator a finished quote is handed to
type QuoteSaver interface {
	Save(ctx context.Context, quote *domain.SubmittedQuote) error
}

// Submit hands the completed, priced quote to the store. Failed saves are
// retried with a linearly growing back-off; after the last attempt
// ErrSubmitFailed is returned wrapping the store error and the session stays
// open so the user can retry. On success the session is closed.
//
// Every applicable step is validated again before saving; failures are
// recorded on the session and returned as domain.FieldErrors wrapped in
// ErrNotReady.
func (s *Session) Submit(ctx context.Context, store QuoteSaver, agentID string) (*domain.SubmittedQuote, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if !s.stepper.Completed() {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d of %d steps done", ErrNotReady, s.stepper.CurrentIndex(), s.stepper.Graph().Len())
	}
	if s.draft.Premium == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: premium has not been calculated", ErrNotReady)
	}
	if errs := s.stepper.ValidateAll(); !errs.Empty() {
		s.errors = errs
		out := s.copyErrors()
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrNotReady, out)
	}
	quote := domain.NewSubmittedQuote(s.draft, agentID, s.opts.Now())
	attempts, backoff, logger := s.opts.SubmitAttempts, s.opts.SubmitBackoff, s.opts.Logger
	s.submitting = true
	s.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = store.Save(ctx, quote); lastErr == nil {
			break
		}
		logger.Warnf("submit %s: attempt %d of %d failed: %v", quote.Reference, attempt, attempts, lastErr)
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, backoff*time.Duration(attempt)); err != nil {
			lastErr = err
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubmitFailed, lastErr)
	}
	s.draft.Status = domain.StatusSubmitted
	s.draft.AgentID = agentID
	s.touch()
	s.closeLocked()
	logger.Infof("submitted %s for agent %q", quote.Reference, agentID)
	return quote, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
