package domain

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrors maps a field key to a user-facing validation message
type FieldErrors map[string]string

// Add records a message for key unless one is already present
func (fe FieldErrors) Add(key, message string) {
	if _, exists := fe[key]; !exists {
		fe[key] = message
	}
}

// Merge copies every error from other that is not already recorded
func (fe FieldErrors) Merge(other FieldErrors) {
	for k, v := range other {
		fe.Add(k, v)
	}
}

// Clear removes the errors recorded for the given keys
func (fe FieldErrors) Clear(keys ...string) {
	for _, k := range keys {
		delete(fe, k)
	}
}

// Empty reports whether there are no errors
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Keys returns the field keys with errors in sorted order
func (fe FieldErrors) Keys() []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Error implements error so callers can return FieldErrors directly
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, k := range fe.Keys() {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return strings.Join(parts, "; ")
}
