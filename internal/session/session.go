// Package session glues one quotation draft to its stepper, its validation
// errors and the premium calculator for the lifetime of a wizard.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rgehrsitz/quotego/internal/calculation"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/rates"
	"github.com/rgehrsitz/quotego/internal/wizard"
)

var (
	ErrClosed           = errors.New("session is closed")
	ErrStale            = errors.New("calculation result is stale")
	ErrNotReady         = errors.New("quote is not ready to submit")
	ErrSubmitFailed     = errors.New("quote submission failed")
	ErrSubmitInProgress = errors.New("quote submission already in progress")
)

// Pricing bundles what the calculator needs for the session's line
type Pricing struct {
	Calculator *calculation.PremiumCalculator
	Table      *rates.RateTable
	AddOns     *domain.AddOnCatalog
}

// Options tune the asynchronous behaviour of a session
type Options struct {
	CalcDelay      time.Duration
	SubmitAttempts int
	SubmitBackoff  time.Duration
	Now            func() time.Time
	Logger         calculation.Logger
}

// DefaultOptions mirrors config.DefaultAppConfig
func DefaultOptions() Options {
	return Options{
		CalcDelay:      800 * time.Millisecond,
		SubmitAttempts: 3,
		SubmitBackoff:  500 * time.Millisecond,
		Now:            time.Now,
		Logger:         calculation.NopLogger{},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SubmitAttempts < 1 {
		o.SubmitAttempts = d.SubmitAttempts
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}

// Session owns one draft exclusively. Methods are safe to call from several
// goroutines; an asynchronous calculation only writes its result while the
// generation it started with is still current.
type Session struct {
	mu         sync.Mutex
	draft      *domain.QuoteDraft
	stepper    *wizard.Stepper
	errors     domain.FieldErrors
	pricing    Pricing
	opts       Options
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	closed     bool
	submitting bool
	lastActive time.Time
}

// Start creates a session with a fresh draft for the line
func Start(line domain.InsuranceType, pricing Pricing, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	return Resume(domain.NewQuoteDraft(line, opts.Now()), pricing, opts)
}

// Resume creates a session around an existing draft, keeping its position
func Resume(draft *domain.QuoteDraft, pricing Pricing, opts Options) (*Session, error) {
	if draft == nil {
		return nil, errors.New("draft is required")
	}
	if pricing.Calculator == nil {
		return nil, errors.New("pricing needs a calculator")
	}
	graph, err := wizard.FlowFor(draft.InsuranceType)
	if err != nil {
		return nil, err
	}
	stepper, err := wizard.NewStepper(graph, draft)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		draft:      draft,
		stepper:    stepper,
		errors:     domain.FieldErrors{},
		pricing:    pricing,
		opts:       opts,
		ctx:        ctx,
		cancel:     cancel,
		lastActive: opts.Now(),
	}, nil
}

// ID returns the draft ID
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.ID
}

// Line returns the insurance line of the draft
func (s *Session) Line() domain.InsuranceType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.InsuranceType
}

// Draft returns a copy of the draft
func (s *Session) Draft() *domain.QuoteDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Errors returns a copy of the current field errors
func (s *Session) Errors() domain.FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyErrors()
}

// Closed reports whether the session has ended
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// State is a point-in-time view of the session for presentation
type State struct {
	Draft          *domain.QuoteDraft    `json:"draft"`
	Step           *wizard.StepDefinition `json:"-"`
	StepID         string                `json:"stepId,omitempty"`
	StepIndex      int                   `json:"stepIndex"`
	HighestReached int                   `json:"highestReached"`
	TotalSteps     int                   `json:"totalSteps"`
	VisiblePath    []string              `json:"visiblePath"`
	Completed      bool                  `json:"completed"`
	Errors         domain.FieldErrors    `json:"errors,omitempty"`
	Closed         bool                  `json:"closed"`
}

// State returns the current view of the session
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Draft:          s.draft.Clone(),
		StepIndex:      s.stepper.CurrentIndex(),
		HighestReached: s.stepper.HighestReached(),
		TotalSteps:     s.stepper.TotalApplicableSteps(),
		Completed:      s.stepper.Completed(),
		Errors:         s.copyErrors(),
		Closed:         s.closed,
	}
	if step, ok := s.stepper.Current(); ok {
		st.Step = &step
		st.StepID = step.ID
	}
	for _, step := range s.stepper.VisiblePath() {
		st.VisiblePath = append(st.VisiblePath, step.ID)
	}
	return st
}

// Steps returns the full step list of the session's flow
func (s *Session) Steps() []wizard.StepDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepper.Graph().Steps()
}

// Update shallow-merges fields into the draft. Errors recorded for the
// touched keys are cleared without re-validating; validation happens on the
// next Advance. Any change drops a calculated premium and cancels a pending
// calculation.
func (s *Session) Update(partial map[string]string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return nil, err
	}
	touched := s.draft.Merge(partial)
	if len(touched) == 0 {
		return touched, nil
	}
	s.errors.Clear(touched...)
	s.invalidatePremium()
	s.touch()
	return touched, nil
}

// ToggleAddOn flips an add-on selection and returns the new state
func (s *Session) ToggleAddOn(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return false, err
	}
	selected := s.draft.ToggleAddOn(id)
	s.errors.Clear("addOns")
	s.invalidatePremium()
	s.touch()
	return selected, nil
}

// AttachDocument records a captured document on the draft
func (s *Session) AttachDocument(ref domain.DocumentRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if ref.UploadedAt.IsZero() {
		ref.UploadedAt = s.opts.Now()
	}
	s.draft.AttachDocument(ref)
	s.errors.Clear(wizard.DocumentKey(ref.Kind))
	s.touch()
	return nil
}

// Extractor turns a captured document into field values
type Extractor interface {
	Extract(ctx context.Context, ref domain.DocumentRef, targets []string) (map[string]string, error)
}

// ApplyExtraction attaches the document and feeds the extracted values
// through Update. Blank extracted values are ignored so extraction never
// clears a field the user already filled.
func (s *Session) ApplyExtraction(ctx context.Context, ex Extractor, ref domain.DocumentRef) ([]string, error) {
	targets := s.flowFields()
	values, err := ex.Extract(ctx, ref, targets)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", ref.Kind, err)
	}
	if err := s.AttachDocument(ref); err != nil {
		return nil, err
	}
	allowed := make(map[string]bool, len(targets))
	for _, t := range targets {
		allowed[t] = true
	}
	partial := make(map[string]string, len(values))
	for k, v := range values {
		if allowed[k] && v != "" {
			partial[k] = v
		}
	}
	return s.Update(partial)
}

func (s *Session) flowFields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	seen := map[string]bool{}
	for _, step := range s.stepper.Graph().Steps() {
		for _, f := range step.Fields {
			if !seen[f.Key] {
				seen[f.Key] = true
				keys = append(keys, f.Key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// Advance validates the current step and moves forward. Validation errors
// replace the recorded errors and are returned with wizard.ErrValidationFailed.
func (s *Session) Advance() (domain.FieldErrors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return nil, err
	}
	errs, err := s.stepper.Advance()
	if err != nil {
		if errors.Is(err, wizard.ErrValidationFailed) {
			s.errors = errs
			return s.copyErrors(), err
		}
		return nil, err
	}
	s.errors = domain.FieldErrors{}
	s.touch()
	return nil, nil
}

// Retreat moves back one step and cancels a pending calculation
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if err := s.stepper.Retreat(); err != nil {
		return err
	}
	s.generation++
	s.touch()
	return nil
}

// JumpTo moves to a reached step and cancels a pending calculation
func (s *Session) JumpTo(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if err := s.stepper.JumpTo(i); err != nil {
		return err
	}
	s.generation++
	s.touch()
	return nil
}

// Reset returns to the first step. Fields, add-ons and documents are kept.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.stepper.Reset()
	s.errors = domain.FieldErrors{}
	s.generation++
	s.touch()
	return nil
}

// Close ends the session and cancels any pending work
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	s.generation++
	s.cancel()
}

// editable reports why the draft cannot change right now. A submission in
// flight holds a snapshot of the draft, so edits wait until it resolves.
func (s *Session) editable() error {
	if s.closed {
		return ErrClosed
	}
	if s.submitting {
		return ErrSubmitInProgress
	}
	return nil
}

func (s *Session) invalidatePremium() {
	s.generation++
	if s.draft.Premium != nil {
		s.draft.Premium = nil
	}
	if s.draft.Status == domain.StatusQuoted {
		s.draft.Status = domain.StatusDraft
	}
}

func (s *Session) touch() {
	s.lastActive = s.opts.Now()
	s.draft.UpdatedAt = s.lastActive
}

// LastActive returns when the session was opened or last changed
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Busy reports whether a submission is in flight
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

func (s *Session) copyErrors() domain.FieldErrors {
	out := make(domain.FieldErrors, len(s.errors))
	out.Merge(s.errors)
	return out
}
