package calculation

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/rates"
	"github.com/shopspring/decimal"
)

// Basis selects how the base amount is derived from the base rate
type Basis string

const (
	// BasisPercentage: base amount = principal x rate / 100
	BasisPercentage Basis = "percentage"
	// BasisFlat: base amount = rate (x units when a units rule applies)
	BasisFlat Basis = "flat"
)

// FactorMode selects how a factor rule turns a field into a table key
type FactorMode string

const (
	ModeEnum  FactorMode = "enum"
	ModeRange FactorMode = "range"
	ModeFlag  FactorMode = "flag"
)

// Derivation computes a factor input from other draft data
type Derivation string

const (
	DeriveNone       Derivation = ""
	DeriveVehicleAge Derivation = "vehicle_age"
)

// RoundingMode is applied to the final total
type RoundingMode string

const (
	RoundNone      RoundingMode = "none"
	RoundUpHundred RoundingMode = "up_100"
)

// AddOnReference names the amount percentage add-ons are priced against
type AddOnReference string

const (
	AddOnsOnBase     AddOnReference = "base"
	AddOnsOnAdjusted AddOnReference = "adjusted"
)

var stageRank = map[domain.AdjustmentStage]int{
	domain.StageBracket:   0,
	domain.StageRisk:      1,
	domain.StageDiscount:  2,
	domain.StageSurcharge: 3,
}

// Selector resolves one rate table coordinate from a draft field or a constant
type Selector struct {
	Field string `yaml:"field,omitempty" json:"field,omitempty"`
	Const string `yaml:"const,omitempty" json:"const,omitempty"`
}

func (s Selector) resolve(snap domain.DraftSnapshot) (string, bool) {
	if s.Const != "" {
		return s.Const, true
	}
	v := snap.Field(s.Field)
	return v, v != ""
}

// FactorRule describes one multiplicative adjustment.
// Flag rules look up the rule's Field name in Table when the flag is set.
// A rule with When conditions is skipped unless all of them hold, the same
// way add-on conditions gate an add-on.
type FactorRule struct {
	Name     string                  `yaml:"name" json:"name"`
	Stage    domain.AdjustmentStage  `yaml:"stage" json:"stage"`
	Table    string                  `yaml:"table" json:"table"`
	Field    string                  `yaml:"field" json:"field"`
	Mode     FactorMode              `yaml:"mode" json:"mode"`
	Optional bool                    `yaml:"optional,omitempty" json:"optional,omitempty"`
	Derive   Derivation              `yaml:"derive,omitempty" json:"derive,omitempty"`
	When     []domain.FieldCondition `yaml:"when,omitempty" json:"when,omitempty"`
}

// UnitsRule multiplies a flat base rate by a head count when When holds
type UnitsRule struct {
	Field string                  `yaml:"field" json:"field"`
	When  []domain.FieldCondition `yaml:"when,omitempty" json:"when,omitempty"`
}

// StatutoryConfig holds the regulatory charges. Percentages are of the
// floored premium amount.
type StatutoryConfig struct {
	StampDuty           decimal.Decimal `yaml:"stamp_duty" json:"stampDuty"`
	PHCFPercent         decimal.Decimal `yaml:"phcf_percent" json:"phcfPercent"`
	TrainingLevyPercent decimal.Decimal `yaml:"training_levy_percent" json:"trainingLevyPercent"`
}

func (sc StatutoryConfig) override(l *rates.Levies) StatutoryConfig {
	if l == nil {
		return sc
	}
	if l.StampDuty != nil {
		sc.StampDuty = *l.StampDuty
	}
	if l.PHCFPercent != nil {
		sc.PHCFPercent = *l.PHCFPercent
	}
	if l.TrainingLevyPercent != nil {
		sc.TrainingLevyPercent = *l.TrainingLevyPercent
	}
	return sc
}

// LineConfig parameterizes the shared pricing pipeline for one insurance line
type LineConfig struct {
	Line           domain.InsuranceType `yaml:"line" json:"line"`
	Basis          Basis                `yaml:"basis" json:"basis"`
	PrincipalField string               `yaml:"principal_field,omitempty" json:"principalField,omitempty"`
	Units          *UnitsRule           `yaml:"units,omitempty" json:"units,omitempty"`
	Category       Selector             `yaml:"category" json:"category"`
	Tier           Selector             `yaml:"tier" json:"tier"`
	Product        Selector             `yaml:"product" json:"product"`
	Insurer        *Selector            `yaml:"insurer,omitempty" json:"insurer,omitempty"`
	Factors        []FactorRule         `yaml:"factors" json:"factors"`
	DiscountCap    decimal.Decimal      `yaml:"discount_cap" json:"discountCap"`
	Statutory      *StatutoryConfig     `yaml:"statutory,omitempty" json:"statutory,omitempty"`
	Rounding       RoundingMode         `yaml:"rounding" json:"rounding"`
	AddOnReference AddOnReference       `yaml:"add_on_reference" json:"addOnReference"`
}

// Validate checks the configuration for internal consistency
func (lc LineConfig) Validate() error {
	if lc.Line == "" {
		return fmt.Errorf("line is required")
	}
	switch lc.Basis {
	case BasisPercentage:
		if lc.PrincipalField == "" {
			return fmt.Errorf("percentage basis requires a principal field")
		}
	case BasisFlat:
	default:
		return fmt.Errorf("unknown basis %q", lc.Basis)
	}
	for name, sel := range map[string]Selector{"category": lc.Category, "tier": lc.Tier, "product": lc.Product} {
		if sel.Field == "" && sel.Const == "" {
			return fmt.Errorf("%s selector needs a field or a constant", name)
		}
	}
	if lc.Insurer != nil && lc.Insurer.Field == "" && lc.Insurer.Const == "" {
		return fmt.Errorf("insurer selector needs a field or a constant")
	}
	for i, rule := range lc.Factors {
		if rule.Name == "" || rule.Table == "" || rule.Field == "" {
			return fmt.Errorf("factor %d: name, table and field are required", i)
		}
		if _, ok := stageRank[rule.Stage]; !ok {
			return fmt.Errorf("factor %s: unknown stage %q", rule.Name, rule.Stage)
		}
		switch rule.Mode {
		case ModeEnum, ModeRange, ModeFlag:
		default:
			return fmt.Errorf("factor %s: unknown mode %q", rule.Name, rule.Mode)
		}
		if rule.Derive != DeriveNone && rule.Mode != ModeRange {
			return fmt.Errorf("factor %s: derived inputs need range mode", rule.Name)
		}
		for _, cond := range rule.When {
			if cond.Field == "" {
				return fmt.Errorf("factor %s: condition field is required", rule.Name)
			}
		}
	}
	if lc.DiscountCap.IsNegative() || lc.DiscountCap.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("discount cap must be between 0 and 1")
	}
	switch lc.Rounding {
	case RoundNone, RoundUpHundred, "":
	default:
		return fmt.Errorf("unknown rounding %q", lc.Rounding)
	}
	switch lc.AddOnReference {
	case AddOnsOnBase, AddOnsOnAdjusted, "":
	default:
		return fmt.Errorf("unknown add-on reference %q", lc.AddOnReference)
	}
	return nil
}

// OrderedFactors returns the factor rules in pipeline order:
// bracket, risk, discount, surcharge. Rule order within a stage is kept.
func (lc LineConfig) OrderedFactors() []FactorRule {
	rules := append([]FactorRule(nil), lc.Factors...)
	sort.SliceStable(rules, func(i, j int) bool {
		return stageRank[rules[i].Stage] < stageRank[rules[j].Stage]
	})
	return rules
}

// PricingFields lists every draft field the pipeline reads
func (lc LineConfig) PricingFields() []string {
	var fields []string
	seen := map[string]bool{}
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	add(lc.Category.Field)
	add(lc.Tier.Field)
	add(lc.Product.Field)
	if lc.Insurer != nil {
		add(lc.Insurer.Field)
	}
	add(lc.PrincipalField)
	if lc.Units != nil {
		add(lc.Units.Field)
	}
	for _, rule := range lc.Factors {
		add(rule.Field)
		for _, cond := range rule.When {
			add(cond.Field)
		}
	}
	return fields
}

func (r RoundingMode) apply(total decimal.Decimal) decimal.Decimal {
	if r == RoundUpHundred {
		hundred := decimal.NewFromInt(100)
		return total.Div(hundred).Ceil().Mul(hundred)
	}
	return total
}
