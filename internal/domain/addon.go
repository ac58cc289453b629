package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PricingMode selects how an add-on is priced
type PricingMode string

const (
	PricingFlat       PricingMode = "flat"
	PricingPercentage PricingMode = "percentage"
)

// FieldCondition holds when the draft field equals one of In, ignoring case
type FieldCondition struct {
	Field string   `yaml:"field" json:"field"`
	In    []string `yaml:"in" json:"in"`
}

// Holds evaluates the condition against a snapshot
func (c FieldCondition) Holds(s DraftSnapshot) bool {
	for _, v := range c.In {
		if strings.EqualFold(s.Field(c.Field), v) {
			return true
		}
	}
	return false
}

// AllHold reports whether every condition holds
func AllHold(conditions []FieldCondition, s DraftSnapshot) bool {
	for _, c := range conditions {
		if !c.Holds(s) {
			return false
		}
	}
	return true
}

// AddOn is an optional supplementary cover. For percentage add-ons Amount is
// a rate applied to the base amount; Minimum floors the resulting cost.
type AddOn struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Category    string           `yaml:"category" json:"category"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	PricingMode PricingMode      `yaml:"pricing_mode" json:"pricingMode"`
	Amount      decimal.Decimal  `yaml:"amount" json:"amount"`
	Minimum     decimal.Decimal  `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Conditions  []FieldCondition `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

// AppliesTo reports whether every condition holds for the snapshot
func (a AddOn) AppliesTo(s DraftSnapshot) bool {
	return AllHold(a.Conditions, s)
}

// AddOnCatalog is the set of add-ons offered for one line
type AddOnCatalog struct {
	Line   InsuranceType `yaml:"line" json:"line"`
	AddOns []AddOn       `yaml:"add_ons" json:"addOns"`
}

// Find looks up an add-on by id
func (c *AddOnCatalog) Find(id string) (AddOn, bool) {
	if c == nil {
		return AddOn{}, false
	}
	for _, a := range c.AddOns {
		if a.ID == id {
			return a, true
		}
	}
	return AddOn{}, false
}

// Available returns the add-ons whose conditions hold for the snapshot
func (c *AddOnCatalog) Available(s DraftSnapshot) []AddOn {
	if c == nil {
		return nil
	}
	var out []AddOn
	for _, a := range c.AddOns {
		if a.AppliesTo(s) {
			out = append(out, a)
		}
	}
	return out
}
