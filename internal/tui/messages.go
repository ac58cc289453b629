package tui

import (
	"github.com/rgehrsitz/quotego/internal/domain"
)

// Scene represents different screens in the TUI
type Scene int

const (
	SceneLines Scene = iota
	SceneStep
	SceneReview
	SceneSubmitted
)

func (s Scene) String() string {
	switch s {
	case SceneLines:
		return "Lines"
	case SceneStep:
		return "Step"
	case SceneReview:
		return "Review"
	case SceneSubmitted:
		return "Submitted"
	default:
		return "Unknown"
	}
}

// ErrorMsg displays an error to the user
type ErrorMsg struct {
	Err error
}

// CalculationCompleteMsg carries the result of an asynchronous calculation
type CalculationCompleteMsg struct {
	Premium *domain.PremiumBreakdown
	Err     error
}

// SubmitCompleteMsg signals the store accepted (or rejected) the quote
type SubmitCompleteMsg struct {
	Quote *domain.SubmittedQuote
	Err   error
}
