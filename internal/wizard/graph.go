package wizard

import (
	"errors"
	"fmt"

	"github.com/rgehrsitz/quotego/internal/domain"
)

// StepGraph is the ordered step list of one insurance line
type StepGraph struct {
	Line  domain.InsuranceType
	steps []StepDefinition
}

// NewStepGraph builds a graph. Orders must be strictly increasing and
// step IDs unique.
func NewStepGraph(line domain.InsuranceType, steps ...StepDefinition) (*StepGraph, error) {
	if len(steps) == 0 {
		return nil, errors.New("a step graph needs at least one step")
	}
	seen := make(map[string]bool, len(steps))
	for i, step := range steps {
		if step.ID == "" {
			return nil, fmt.Errorf("step %d: id is required", i)
		}
		if seen[step.ID] {
			return nil, fmt.Errorf("step %s: duplicate id", step.ID)
		}
		seen[step.ID] = true
		if i > 0 && step.Order <= steps[i-1].Order {
			return nil, fmt.Errorf("step %s: order %d must be greater than %d", step.ID, step.Order, steps[i-1].Order)
		}
	}
	return &StepGraph{Line: line, steps: append([]StepDefinition(nil), steps...)}, nil
}

// Len returns the number of steps; index Len() is the submit sentinel
func (g *StepGraph) Len() int {
	return len(g.steps)
}

// Step returns the step at index i
func (g *StepGraph) Step(i int) (StepDefinition, bool) {
	if i < 0 || i >= len(g.steps) {
		return StepDefinition{}, false
	}
	return g.steps[i], true
}

// Steps returns a copy of the step list
func (g *StepGraph) Steps() []StepDefinition {
	return append([]StepDefinition(nil), g.steps...)
}

// IndexOf returns the index of the step with the given ID, or -1
func (g *StepGraph) IndexOf(id string) int {
	for i, step := range g.steps {
		if step.ID == id {
			return i
		}
	}
	return -1
}

// ApplicableIndexes lists the indexes of the steps that apply to s
func (g *StepGraph) ApplicableIndexes(s domain.DraftSnapshot) []int {
	out := make([]int, 0, len(g.steps))
	for i, step := range g.steps {
		if step.Applicable(s) {
			out = append(out, i)
		}
	}
	return out
}
