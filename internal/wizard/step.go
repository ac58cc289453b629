// Package wizard sequences and gates the data-collection steps of a quotation.
package wizard

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/shopspring/decimal"
)

// FieldKind tells the presentation layer how to collect a field
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindNumber FieldKind = "number"
	KindChoice FieldKind = "choice"
	KindFlag   FieldKind = "flag"
)

// FieldSpec describes one input collected by a step
type FieldSpec struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Options  []string  `json:"options,omitempty"`
	Optional bool      `json:"optional,omitempty"`
	Help     string    `json:"help,omitempty"`
}

// Predicate decides from a snapshot whether a step takes part in the flow
type Predicate func(domain.DraftSnapshot) bool

// Validator checks a snapshot and records failures in errs
type Validator func(s domain.DraftSnapshot, errs domain.FieldErrors)

// StepDefinition is one page of a wizard flow
type StepDefinition struct {
	ID                string
	Title             string
	Order             int
	Fields            []FieldSpec
	RequiredFieldKeys []string
	RequiredDocuments []string
	Validators        []Validator
	IsApplicable      Predicate
}

// Applicable evaluates the inclusion predicate. Steps without one always apply.
func (sd StepDefinition) Applicable(s domain.DraftSnapshot) bool {
	return sd.IsApplicable == nil || sd.IsApplicable(s)
}

// Field returns the definition of a field collected by this step
func (sd StepDefinition) Field(key string) (FieldSpec, bool) {
	for _, f := range sd.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Validate returns the field errors of this step for the snapshot.
// Required fields and documents are checked first, then the kind of every
// filled field, then the step validators. The first error per key wins.
func (sd StepDefinition) Validate(s domain.DraftSnapshot) domain.FieldErrors {
	errs := domain.FieldErrors{}

	for _, key := range sd.RequiredFieldKeys {
		if !s.Has(key) {
			errs.Add(key, fmt.Sprintf("%s is required", sd.label(key)))
		}
	}
	for _, kind := range sd.RequiredDocuments {
		if !s.HasDocument(kind) {
			errs.Add(DocumentKey(kind), fmt.Sprintf("%s document is required", humanize(kind)))
		}
	}
	for _, f := range sd.Fields {
		if !s.Has(f.Key) {
			continue
		}
		if msg := checkKind(f, s.Field(f.Key)); msg != "" {
			errs.Add(f.Key, msg)
		}
	}
	for _, v := range sd.Validators {
		v(s, errs)
	}
	return errs
}

func (sd StepDefinition) label(key string) string {
	if f, ok := sd.Field(key); ok && f.Label != "" {
		return f.Label
	}
	return humanize(key)
}

// DocumentKey is the error key used for a missing document
func DocumentKey(kind string) string {
	return "documents." + kind
}

func checkKind(f FieldSpec, value string) string {
	switch f.Kind {
	case KindNumber:
		return NonNegativeNumber(value)
	case KindChoice:
		if len(f.Options) == 0 {
			return ""
		}
		return OneOf(f.Options...)(value)
	case KindFlag:
		switch strings.ToLower(value) {
		case "yes", "no", "y", "n", "true", "false", "on", "off", "1", "0":
			return ""
		}
		return "must be yes or no"
	}
	return ""
}

func humanize(key string) string {
	key = strings.ReplaceAll(key, "_", " ")
	var b strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteRune(' ')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		return out
	}
	return strings.ToUpper(out[:1]) + out[1:]
}

func parseNumber(value string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "_", "", " ", "").Replace(strings.TrimSpace(value))
	return decimal.NewFromString(cleaned)
}
