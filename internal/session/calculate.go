package session

import (
	"context"
	"time"

	"github.com/rgehrsitz/quotego/internal/calculation"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/wizard"
)

// Result is delivered by CalculateAsync
type Result struct {
	Premium *domain.PremiumBreakdown
	Err     error
}

// Calculate prices the draft now. A successful result is attached to the
// draft and sets its status to quoted; a calculation error is recorded as a
// field error and returned.
func (s *Session) Calculate() (*domain.PremiumBreakdown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return nil, err
	}
	s.generation++
	premium, err := s.price(s.draft)
	s.apply(premium, err)
	return premium, err
}

// CalculateAsync prices a copy of the draft after the configured delay.
// The result is discarded with ErrStale when the session moved on in the
// meantime (field update, navigation back, reset, close), and the wait is
// abandoned when ctx or the session is cancelled.
func (s *Session) CalculateAsync(ctx context.Context) <-chan Result {
	out := make(chan Result, 1)

	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		out <- Result{Err: err}
		return out
	}
	s.generation++
	token := s.generation
	draft := s.draft.Clone()
	delay := s.opts.CalcDelay
	sessionCtx := s.ctx
	s.mu.Unlock()

	go func() {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				out <- Result{Err: ctx.Err()}
				return
			case <-sessionCtx.Done():
				out <- Result{Err: ErrClosed}
				return
			case <-timer.C:
			}
		}

		premium, err := s.price(draft)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			out <- Result{Err: ErrClosed}
			return
		}
		if token != s.generation {
			s.opts.Logger.Debugf("session %s: dropping stale calculation", draft.ID)
			out <- Result{Err: ErrStale}
			return
		}
		s.apply(premium, err)
		out <- Result{Premium: premium, Err: err}
	}()
	return out
}

func (s *Session) price(draft *domain.QuoteDraft) (*domain.PremiumBreakdown, error) {
	return s.pricing.Calculator.Calculate(draft, s.pricing.Table, s.pricing.AddOns)
}

// apply must be called with the lock held
func (s *Session) apply(premium *domain.PremiumBreakdown, err error) {
	if err != nil {
		key := wizard.PremiumKey
		if cerr, ok := calculation.AsCalculationError(err); ok && cerr.Field != "" {
			key = cerr.Field
		}
		s.errors.Add(key, err.Error())
		s.opts.Logger.Warnf("session %s: calculation failed: %v", s.draft.ID, err)
		return
	}
	p := premium.Clone()
	s.draft.Premium = &p
	s.draft.Status = domain.StatusQuoted
	s.errors.Clear(wizard.PremiumKey)
	s.touch()
}
