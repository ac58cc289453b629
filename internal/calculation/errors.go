package calculation

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed calculation. Both kinds are terminal for the
// attempt; the caller has to collect different input.
type ErrorKind int

const (
	InvalidInput ErrorKind = iota
	NoRateForSelection
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case NoRateForSelection:
		return "no_rate_for_selection"
	default:
		return "unknown"
	}
}

// CalculationError is returned by the calculator instead of a breakdown
type CalculationError struct {
	Kind  ErrorKind
	Field string
	Err   error
}

func (e *CalculationError) Error() string {
	switch e.Kind {
	case InvalidInput:
		return fmt.Sprintf("invalid input for %s: %v", e.Field, e.Err)
	default:
		if e.Field != "" {
			return fmt.Sprintf("no rate for selection (%s): %v", e.Field, e.Err)
		}
		return fmt.Sprintf("no rate for selection: %v", e.Err)
	}
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}

func invalidInput(field string, format string, args ...any) *CalculationError {
	return &CalculationError{Kind: InvalidInput, Field: field, Err: fmt.Errorf(format, args...)}
}

func noRate(field string, err error) *CalculationError {
	return &CalculationError{Kind: NoRateForSelection, Field: field, Err: err}
}

// AsCalculationError extracts a CalculationError from err
func AsCalculationError(err error) (*CalculationError, bool) {
	var ce *CalculationError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsKind reports whether err is a CalculationError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	ce, ok := AsCalculationError(err)
	return ok && ce.Kind == kind
}
