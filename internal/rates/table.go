package rates

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNoRate is returned when a lookup has no matching entry. Lookups never
// fall back to a default value.
var ErrNoRate = errors.New("no rate for selection")

// Wildcard matches any category or tier in the minimum premium table
const Wildcard = "*"

// Tier maps bracket keys to values. A tier holds either numeric range keys
// or enumerated keys, never both.
type Tier map[string]decimal.Decimal

// Minimums maps category -> coverage tier -> minimum premium. Either key may
// be the Wildcard.
type Minimums map[string]map[string]decimal.Decimal

// RateTable is the read-only pricing data of one insurance line.
//
//	Base:     category -> coverage tier -> bracket key -> rate
//	Factors:  factor name -> bracket key -> multiplier (or negative discount)
//	Minimums: category -> coverage tier -> minimum premium
//	Insurers: insurer ID -> overrides applied when that insurer is chosen
type RateTable struct {
	Line     domain.InsuranceType       `yaml:"line" json:"line"`
	Base     map[string]map[string]Tier `yaml:"base" json:"base"`
	Factors  map[string]Tier            `yaml:"factors" json:"factors"`
	Minimums Minimums                   `yaml:"minimums" json:"minimums"`
	Insurers map[string]Insurer         `yaml:"insurers,omitempty" json:"insurers,omitempty"`
}

// Insurer holds the terms one underwriter applies on top of the market
// rates. RateFactor scales every base rate; Minimums and Levies replace the
// line's floor and statutory charges where they have an entry.
type Insurer struct {
	Name       string          `yaml:"name" json:"name"`
	RateFactor decimal.Decimal `yaml:"rate_factor" json:"rateFactor"`
	Minimums   Minimums        `yaml:"minimums,omitempty" json:"minimums,omitempty"`
	Levies     *Levies         `yaml:"levies,omitempty" json:"levies,omitempty"`
}

// Levies overrides individual statutory charges. Nil fields keep the line's
// value.
type Levies struct {
	StampDuty           *decimal.Decimal `yaml:"stamp_duty,omitempty" json:"stampDuty,omitempty"`
	PHCFPercent         *decimal.Decimal `yaml:"phcf_percent,omitempty" json:"phcfPercent,omitempty"`
	TrainingLevyPercent *decimal.Decimal `yaml:"training_levy_percent,omitempty" json:"trainingLevyPercent,omitempty"`
}

// Insurer looks up an underwriter by ID
func (rt *RateTable) Insurer(id string) (Insurer, error) {
	ins, ok := rt.Insurers[id]
	if !ok {
		return Insurer{}, fmt.Errorf("%w: insurer %s", ErrNoRate, id)
	}
	return ins, nil
}

// InsurerIDs lists the underwriters in sorted order
func (rt *RateTable) InsurerIDs() []string {
	return sortedKeys(rt.Insurers)
}

// MinimumPremium returns the insurer's own floor for a category and tier
func (ins Insurer) MinimumPremium(category, tier string) (decimal.Decimal, bool) {
	return ins.Minimums.lookup(category, tier)
}

// BaseRate resolves the base rate for an enumerated bracket key
func (rt *RateTable) BaseRate(category, tier, key string) (decimal.Decimal, error) {
	t, err := rt.baseTier(category, tier)
	if err != nil {
		return decimal.Zero, err
	}
	v, ok := t[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: base %s/%s/%s", ErrNoRate, category, tier, key)
	}
	return v, nil
}

// BaseRateForValue resolves the base rate for the range containing v
func (rt *RateTable) BaseRateForValue(category, tier string, v decimal.Decimal) (decimal.Decimal, string, error) {
	t, err := rt.baseTier(category, tier)
	if err != nil {
		return decimal.Zero, "", err
	}
	rate, key, ok := t.lookupValue(v)
	if !ok {
		return decimal.Zero, "", fmt.Errorf("%w: base %s/%s value %s", ErrNoRate, category, tier, v.String())
	}
	return rate, key, nil
}

// Factor resolves an enumerated factor
func (rt *RateTable) Factor(name, key string) (decimal.Decimal, error) {
	t, ok := rt.Factors[name]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: factor table %s", ErrNoRate, name)
	}
	v, ok := t[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: factor %s/%s", ErrNoRate, name, key)
	}
	return v, nil
}

// FactorForValue resolves the factor of the range containing v
func (rt *RateTable) FactorForValue(name string, v decimal.Decimal) (decimal.Decimal, string, error) {
	t, ok := rt.Factors[name]
	if !ok {
		return decimal.Zero, "", fmt.Errorf("%w: factor table %s", ErrNoRate, name)
	}
	factor, key, ok := t.lookupValue(v)
	if !ok {
		return decimal.Zero, "", fmt.Errorf("%w: factor %s value %s", ErrNoRate, name, v.String())
	}
	return factor, key, nil
}

// MinimumPremium returns the floor for a category and tier, trying the exact
// entry first and then wildcards. A missing entry means no floor.
func (rt *RateTable) MinimumPremium(category, tier string) decimal.Decimal {
	v, _ := rt.Minimums.lookup(category, tier)
	return v
}

func (m Minimums) lookup(category, tier string) (decimal.Decimal, bool) {
	candidates := [][2]string{
		{category, tier},
		{category, Wildcard},
		{Wildcard, tier},
		{Wildcard, Wildcard},
	}
	for _, c := range candidates {
		if tiers, ok := m[c[0]]; ok {
			if v, ok := tiers[c[1]]; ok {
				return v, true
			}
		}
	}
	return decimal.Zero, false
}

func (m Minimums) validate() error {
	for category, tiers := range m {
		for tier, v := range tiers {
			if v.IsNegative() {
				return fmt.Errorf("minimum %s/%s cannot be negative", category, tier)
			}
		}
	}
	return nil
}

// Categories lists the base categories in sorted order
func (rt *RateTable) Categories() []string {
	return sortedKeys(rt.Base)
}

// Tiers lists the coverage tiers of a category in sorted order
func (rt *RateTable) Tiers(category string) []string {
	return sortedKeys(rt.Base[category])
}

// Products lists the bracket keys of a category and tier in sorted order
func (rt *RateTable) Products(category, tier string) []string {
	return sortedKeys(rt.Base[category][tier])
}

// Validate checks every tier for a contiguous, non-overlapping range
// partition and rejects tiers that mix range and enumerated keys.
func (rt *RateTable) Validate() error {
	if rt.Line == "" {
		return fmt.Errorf("line is required")
	}
	if len(rt.Base) == 0 {
		return fmt.Errorf("base rates are required")
	}
	for _, category := range rt.Categories() {
		for _, tier := range rt.Tiers(category) {
			if err := rt.Base[category][tier].Validate(); err != nil {
				return fmt.Errorf("base %s/%s: %w", category, tier, err)
			}
		}
	}
	for _, name := range sortedKeys(rt.Factors) {
		if err := rt.Factors[name].Validate(); err != nil {
			return fmt.Errorf("factor %s: %w", name, err)
		}
	}
	if err := rt.Minimums.validate(); err != nil {
		return err
	}
	for _, id := range rt.InsurerIDs() {
		if err := rt.Insurers[id].validate(); err != nil {
			return fmt.Errorf("insurer %s: %w", id, err)
		}
	}
	return nil
}

func (ins Insurer) validate() error {
	if ins.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !ins.RateFactor.IsPositive() {
		return fmt.Errorf("rate factor must be positive")
	}
	if err := ins.Minimums.validate(); err != nil {
		return err
	}
	if l := ins.Levies; l != nil {
		for name, v := range map[string]*decimal.Decimal{
			"stamp duty":    l.StampDuty,
			"phcf":          l.PHCFPercent,
			"training levy": l.TrainingLevyPercent,
		} {
			if v != nil && v.IsNegative() {
				return fmt.Errorf("%s cannot be negative", name)
			}
		}
	}
	return nil
}

func (rt *RateTable) baseTier(category, tier string) (Tier, error) {
	tiers, ok := rt.Base[category]
	if !ok {
		return nil, fmt.Errorf("%w: category %s", ErrNoRate, category)
	}
	t, ok := tiers[tier]
	if !ok {
		return nil, fmt.Errorf("%w: tier %s/%s", ErrNoRate, category, tier)
	}
	return t, nil
}

// Brackets returns the parsed range keys sorted by lower bound
func (t Tier) Brackets() []Bracket {
	brackets := make([]Bracket, 0, len(t))
	for key := range t {
		if b, ok := ParseBracket(key); ok {
			brackets = append(brackets, b)
		}
	}
	sort.Slice(brackets, func(i, j int) bool {
		return brackets[i].Lower.LessThan(brackets[j].Lower)
	})
	return brackets
}

// Validate checks the range partition of the tier
func (t Tier) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("no entries")
	}
	for key, v := range t {
		if v.IsNegative() && !v.GreaterThan(decimal.NewFromInt(-1)) {
			return fmt.Errorf("value for %s must be greater than -1", key)
		}
	}
	brackets := t.Brackets()
	if len(brackets) == 0 {
		return nil
	}
	if len(brackets) != len(t) {
		return fmt.Errorf("range and enumerated keys cannot be mixed")
	}
	for i, b := range brackets {
		if !b.Open && !b.Lower.LessThan(b.Upper) {
			return fmt.Errorf("range %s is empty", b.Key)
		}
		if i == len(brackets)-1 {
			break
		}
		if b.Open {
			return fmt.Errorf("open range %s must be the last range", b.Key)
		}
		next := brackets[i+1]
		if b.Upper.GreaterThan(next.Lower) {
			return fmt.Errorf("ranges %s and %s overlap", b.Key, next.Key)
		}
		if b.Upper.LessThan(next.Lower) {
			return fmt.Errorf("gap between ranges %s and %s", b.Key, next.Key)
		}
	}
	return nil
}

func (t Tier) lookupValue(v decimal.Decimal) (decimal.Decimal, string, bool) {
	for _, b := range t.Brackets() {
		if b.Contains(v) {
			return t[b.Key], b.Key, true
		}
	}
	return decimal.Zero, "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
