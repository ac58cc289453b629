package wizard

import (
	"errors"
	"fmt"

	"github.com/rgehrsitz/quotego/internal/domain"
)

var (
	ErrAtFirstStep       = errors.New("already at the first step")
	ErrJumpNotAllowed    = errors.New("step has not been reached yet")
	ErrStepNotApplicable = errors.New("step does not apply to this quote")
	ErrValidationFailed  = errors.New("step validation failed")
	ErrFlowComplete      = errors.New("all steps are complete")
)

// Stepper drives a draft through a step graph. Position lives on the draft
// (CurrentStepIndex, HighestStepReached); index Len() means every step is
// done and the quote can be submitted.
//
// Applicability is evaluated on a fresh snapshot at every traversal, so
// changing an earlier answer changes the path on the next move.
type Stepper struct {
	graph *StepGraph
	draft *domain.QuoteDraft
}

// NewStepper attaches a graph to a draft of the same line
func NewStepper(graph *StepGraph, draft *domain.QuoteDraft) (*Stepper, error) {
	if graph == nil || draft == nil {
		return nil, errors.New("stepper needs a graph and a draft")
	}
	if graph.Line != draft.InsuranceType {
		return nil, fmt.Errorf("step graph is for %s, draft is %s", graph.Line, draft.InsuranceType)
	}
	if draft.CurrentStepIndex < 0 || draft.CurrentStepIndex > graph.Len() {
		return nil, fmt.Errorf("current step %d is outside the flow", draft.CurrentStepIndex)
	}
	if draft.HighestStepReached < draft.CurrentStepIndex {
		draft.HighestStepReached = draft.CurrentStepIndex
	}
	if draft.HighestStepReached > graph.Len() {
		draft.HighestStepReached = graph.Len()
	}
	return &Stepper{graph: graph, draft: draft}, nil
}

// Graph returns the step graph
func (st *Stepper) Graph() *StepGraph { return st.graph }

// CurrentIndex returns the current step index
func (st *Stepper) CurrentIndex() int { return st.draft.CurrentStepIndex }

// HighestReached returns the furthest index reached
func (st *Stepper) HighestReached() int { return st.draft.HighestStepReached }

// Completed reports whether the submit sentinel has been reached
func (st *Stepper) Completed() bool {
	return st.draft.CurrentStepIndex >= st.graph.Len()
}

// Current returns the current step; false at the submit sentinel
func (st *Stepper) Current() (StepDefinition, bool) {
	return st.graph.Step(st.draft.CurrentStepIndex)
}

// ValidateCurrent runs the current step's validation without moving
func (st *Stepper) ValidateCurrent() domain.FieldErrors {
	step, ok := st.Current()
	if !ok {
		return domain.FieldErrors{}
	}
	return step.Validate(st.draft.Snapshot())
}

// ValidateAll runs the validation of every step that applies to the draft
// right now. Answers edited after a step was passed are caught here.
func (st *Stepper) ValidateAll() domain.FieldErrors {
	snap := st.draft.Snapshot()
	errs := domain.FieldErrors{}
	for _, i := range st.graph.ApplicableIndexes(snap) {
		step, _ := st.graph.Step(i)
		errs.Merge(step.Validate(snap))
	}
	return errs
}

// Advance validates the current step and moves to the next applicable one.
// On validation failure the field errors are returned with
// ErrValidationFailed and the position does not change.
func (st *Stepper) Advance() (domain.FieldErrors, error) {
	if st.Completed() {
		return nil, ErrFlowComplete
	}
	snap := st.draft.Snapshot()
	cur := st.draft.CurrentStepIndex
	step, _ := st.graph.Step(cur)

	if step.Applicable(snap) {
		if errs := step.Validate(snap); !errs.Empty() {
			return errs, ErrValidationFailed
		}
	}

	next := cur + 1
	for next < st.graph.Len() {
		candidate, _ := st.graph.Step(next)
		if candidate.Applicable(snap) {
			break
		}
		next++
	}
	st.moveTo(next)
	return nil, nil
}

// Retreat moves back one applicable step without validating
func (st *Stepper) Retreat() error {
	snap := st.draft.Snapshot()
	prev := st.draft.CurrentStepIndex - 1
	for prev >= 0 {
		candidate, _ := st.graph.Step(prev)
		if candidate.Applicable(snap) {
			break
		}
		prev--
	}
	if prev < 0 {
		return ErrAtFirstStep
	}
	st.moveTo(prev)
	return nil
}

// JumpTo moves to a step that has already been reached. The submit
// sentinel is only reachable through Advance.
func (st *Stepper) JumpTo(i int) error {
	if i < 0 || i >= st.graph.Len() {
		return fmt.Errorf("%w: step %d is outside the flow", ErrJumpNotAllowed, i)
	}
	if i > st.draft.HighestStepReached {
		return fmt.Errorf("%w: step %d, highest reached is %d", ErrJumpNotAllowed, i, st.draft.HighestStepReached)
	}
	if step, ok := st.graph.Step(i); ok && !step.Applicable(st.draft.Snapshot()) {
		return fmt.Errorf("%w: %s", ErrStepNotApplicable, step.ID)
	}
	st.moveTo(i)
	return nil
}

// Reset returns to the first step and forgets progress. Draft fields are kept.
func (st *Stepper) Reset() {
	st.draft.CurrentStepIndex = 0
	st.draft.HighestStepReached = 0
}

// TotalApplicableSteps counts the steps that apply to the draft right now
func (st *Stepper) TotalApplicableSteps() int {
	return len(st.graph.ApplicableIndexes(st.draft.Snapshot()))
}

// VisiblePath returns the steps that apply to the draft right now
func (st *Stepper) VisiblePath() []StepDefinition {
	indexes := st.graph.ApplicableIndexes(st.draft.Snapshot())
	path := make([]StepDefinition, 0, len(indexes))
	for _, i := range indexes {
		step, _ := st.graph.Step(i)
		path = append(path, step)
	}
	return path
}

func (st *Stepper) moveTo(i int) {
	st.draft.CurrentStepIndex = i
	if i > st.draft.HighestStepReached {
		st.draft.HighestStepReached = i
	}
}
