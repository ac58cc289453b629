package calculation

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/rates"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PremiumCalculator runs the shared pricing pipeline for every configured line.
// Calculate has no side effects; the same inputs always give the same breakdown.
type PremiumCalculator struct {
	Logger Logger
	lines  map[domain.InsuranceType]LineConfig
}

// NewPremiumCalculator creates a calculator with the default line configurations
func NewPremiumCalculator() *PremiumCalculator {
	return NewPremiumCalculatorWithLines(DefaultLines()...)
}

// NewPremiumCalculatorWithLines creates a calculator for the given lines.
// A later config for the same line replaces an earlier one.
func NewPremiumCalculatorWithLines(lines ...LineConfig) *PremiumCalculator {
	pc := &PremiumCalculator{
		Logger: NopLogger{},
		lines:  make(map[domain.InsuranceType]LineConfig, len(lines)),
	}
	for _, lc := range lines {
		pc.lines[lc.Line] = lc
	}
	return pc
}

// SetLogger sets the logger; nil restores the no-op logger
func (pc *PremiumCalculator) SetLogger(l Logger) {
	if l == nil {
		pc.Logger = NopLogger{}
		return
	}
	pc.Logger = l
}

// LineConfig returns the configuration used for a line
func (pc *PremiumCalculator) LineConfig(line domain.InsuranceType) (LineConfig, bool) {
	lc, ok := pc.lines[line]
	return lc, ok
}

// Calculate prices a draft:
//
//  1. base rate lookup
//  2. base amount
//  3. adjustments (bracket, risk, discount, surcharge)
//  4. add-ons, priced against the base amount by default
//  5. minimum premium floor
//  6. statutory charges on the floored amount
//  7. rounding
//
// Errors are always *CalculationError.
func (pc *PremiumCalculator) Calculate(draft *domain.QuoteDraft, table *rates.RateTable, catalog *domain.AddOnCatalog) (*domain.PremiumBreakdown, error) {
	if draft == nil {
		return nil, invalidInput("draft", "draft is required")
	}
	line := draft.InsuranceType
	cfg, ok := pc.lines[line]
	if !ok {
		return nil, invalidInput("insuranceType", "unsupported insurance line %q", line)
	}
	if table == nil {
		return nil, noRate("", fmt.Errorf("%w: no rate table for %s", rates.ErrNoRate, line))
	}
	if table.Line != "" && table.Line != line {
		return nil, noRate("", fmt.Errorf("%w: rate table is for %s, draft is %s", rates.ErrNoRate, table.Line, line))
	}

	snap := draft.Snapshot()

	// 1. base rate
	category, err := resolveSelector(cfg.Category, snap)
	if err != nil {
		return nil, err
	}
	tier, err := resolveSelector(cfg.Tier, snap)
	if err != nil {
		return nil, err
	}
	product, err := resolveSelector(cfg.Product, snap)
	if err != nil {
		return nil, err
	}
	baseRate, lookupErr := table.BaseRate(category, tier, product)
	if lookupErr != nil {
		return nil, noRate(cfg.Product.Field, lookupErr)
	}
	insurerID, insurer, cerr := resolveInsurer(cfg.Insurer, snap, table)
	if cerr != nil {
		return nil, cerr
	}
	if insurer != nil {
		baseRate = baseRate.Mul(insurer.RateFactor)
	}
	pc.Logger.Debugf("%s: base rate %s for %s/%s/%s", line, baseRate, category, tier, product)

	breakdown := &domain.PremiumBreakdown{
		Line:     line,
		Product:  product,
		BaseRate: baseRate,
	}
	if insurer != nil {
		breakdown.Insurer = insurerID
		breakdown.InsurerName = insurer.Name
	}

	// 2. base amount
	switch cfg.Basis {
	case BasisPercentage:
		principal, cerr := parseNonNegative(snap, cfg.PrincipalField)
		if cerr != nil {
			return nil, cerr
		}
		breakdown.Principal = principal
		breakdown.BaseAmount = principal.Mul(baseRate).Div(hundred)
	default:
		units, cerr := resolveUnits(cfg.Units, snap)
		if cerr != nil {
			return nil, cerr
		}
		breakdown.Principal = units
		breakdown.BaseAmount = baseRate.Mul(units)
	}
	pc.Logger.Debugf("%s: base amount %s", line, breakdown.BaseAmount.StringFixed(2))

	// 3. adjustments
	amount, adjustments, cerr := pc.applyFactors(cfg, snap, table, breakdown.BaseAmount)
	if cerr != nil {
		return nil, cerr
	}
	breakdown.MultiplierAdjustments = adjustments
	breakdown.AdjustedAmount = amount

	// 4. add-ons
	reference := breakdown.BaseAmount
	if cfg.AddOnReference == AddOnsOnAdjusted {
		reference = amount
	}
	charges, skipped, cerr := priceAddOns(snap, catalog, reference)
	if cerr != nil {
		return nil, cerr
	}
	breakdown.AddOns = charges
	breakdown.SkippedAddOns = skipped
	for _, c := range charges {
		breakdown.AddOnTotal = breakdown.AddOnTotal.Add(c.Amount)
	}
	amount = amount.Add(breakdown.AddOnTotal)

	// 5. minimum floor
	breakdown.MinimumPremium = table.MinimumPremium(category, tier)
	if insurer != nil {
		if floor, ok := insurer.MinimumPremium(category, tier); ok {
			breakdown.MinimumPremium = floor
		}
	}
	if amount.LessThan(breakdown.MinimumPremium) {
		pc.Logger.Debugf("%s: amount %s below minimum %s", line, amount.StringFixed(2), breakdown.MinimumPremium.StringFixed(2))
		amount = breakdown.MinimumPremium
		breakdown.MinimumApplied = true
	}
	breakdown.PremiumAmount = amount

	// 6. statutory charges
	if cfg.Statutory != nil {
		levies := *cfg.Statutory
		if insurer != nil {
			levies = levies.override(insurer.Levies)
		}
		breakdown.StatutoryCharges = domain.StatutoryCharges{
			StampDuty:    levies.StampDuty,
			PHCF:         amount.Mul(levies.PHCFPercent).Div(hundred),
			TrainingLevy: amount.Mul(levies.TrainingLevyPercent).Div(hundred),
		}
	}
	breakdown.TotalBeforeRounding = amount.Add(breakdown.StatutoryCharges.Total())

	// 7. rounding
	breakdown.Total = cfg.Rounding.apply(breakdown.TotalBeforeRounding)
	pc.Logger.Infof("%s: premium total %s", line, breakdown.Total.StringFixed(2))

	return breakdown, nil
}

func (pc *PremiumCalculator) applyFactors(cfg LineConfig, snap domain.DraftSnapshot, table *rates.RateTable, amount decimal.Decimal) (decimal.Decimal, []domain.Adjustment, *CalculationError) {
	adjustments := []domain.Adjustment{}
	var discountBase decimal.Decimal
	discountStarted := false
	discountUsed := decimal.Zero

	for _, rule := range cfg.OrderedFactors() {
		if !domain.AllHold(rule.When, snap) {
			continue
		}
		factor, key, applies, cerr := resolveFactor(rule, snap, table)
		if cerr != nil {
			return decimal.Zero, nil, cerr
		}
		if !applies {
			continue
		}

		adj := domain.Adjustment{Name: rule.Name, Stage: rule.Stage, Key: key}
		if rule.Stage == domain.StageDiscount {
			if !discountStarted {
				discountBase = amount
				discountStarted = true
			}
			if factor.IsNegative() && cfg.DiscountCap.IsPositive() {
				remaining := cfg.DiscountCap.Sub(discountUsed)
				if factor.Neg().GreaterThan(remaining) {
					pc.Logger.Debugf("%s: %s capped at %s", cfg.Line, rule.Name, remaining.Neg())
					factor = remaining.Neg()
				}
				discountUsed = discountUsed.Add(factor.Neg())
			}
			adj.Factor = factor
			adj.Amount = discountBase.Mul(factor)
		} else {
			adj.Factor = factor
			adj.Amount = amount.Mul(factor).Sub(amount)
		}
		amount = amount.Add(adj.Amount)
		adjustments = append(adjustments, adj)
	}
	return amount, adjustments, nil
}

func resolveFactor(rule FactorRule, snap domain.DraftSnapshot, table *rates.RateTable) (decimal.Decimal, string, bool, *CalculationError) {
	switch rule.Mode {
	case ModeFlag:
		if !snap.Flag(rule.Field) {
			return decimal.Zero, "", false, nil
		}
		f, err := table.Factor(rule.Table, rule.Field)
		if err != nil {
			return decimal.Zero, "", false, noRate(rule.Field, err)
		}
		return f, rule.Field, true, nil

	case ModeRange:
		if !snap.Has(rule.Field) {
			if rule.Optional {
				return decimal.Zero, "", false, nil
			}
			return decimal.Zero, "", false, invalidInput(rule.Field, "is required")
		}
		v, cerr := parseNonNegative(snap, rule.Field)
		if cerr != nil {
			return decimal.Zero, "", false, cerr
		}
		if rule.Derive == DeriveVehicleAge {
			v, cerr = vehicleAge(snap, rule.Field, v)
			if cerr != nil {
				return decimal.Zero, "", false, cerr
			}
		}
		f, key, err := table.FactorForValue(rule.Table, v)
		if err != nil {
			return decimal.Zero, "", false, noRate(rule.Field, err)
		}
		return f, key, true, nil

	default:
		key := strings.ToLower(snap.Field(rule.Field))
		if key == "" {
			if rule.Optional {
				return decimal.Zero, "", false, nil
			}
			return decimal.Zero, "", false, invalidInput(rule.Field, "is required")
		}
		f, err := table.Factor(rule.Table, key)
		if err != nil {
			return decimal.Zero, "", false, noRate(rule.Field, err)
		}
		return f, key, true, nil
	}
}

func priceAddOns(snap domain.DraftSnapshot, catalog *domain.AddOnCatalog, reference decimal.Decimal) ([]domain.AddOnCharge, []string, *CalculationError) {
	var charges []domain.AddOnCharge
	var skipped []string
	for _, id := range snap.AddOnIDs() {
		addOn, ok := catalog.Find(id)
		if !ok {
			return nil, nil, invalidInput("addOns", "unknown add-on %q", id)
		}
		if !addOn.AppliesTo(snap) {
			skipped = append(skipped, id)
			continue
		}
		cost := addOn.Amount
		if addOn.PricingMode == domain.PricingPercentage {
			cost = reference.Mul(addOn.Amount).Div(hundred)
			if cost.LessThan(addOn.Minimum) {
				cost = addOn.Minimum
			}
		}
		charges = append(charges, domain.AddOnCharge{
			ID:     addOn.ID,
			Name:   addOn.Name,
			Mode:   addOn.PricingMode,
			Amount: cost,
		})
	}
	return charges, skipped, nil
}

// resolveInsurer returns the chosen underwriter. No selector, or an empty
// field, prices at the table's market rates.
func resolveInsurer(sel *Selector, snap domain.DraftSnapshot, table *rates.RateTable) (string, *rates.Insurer, *CalculationError) {
	if sel == nil {
		return "", nil, nil
	}
	id, ok := sel.resolve(snap)
	if !ok {
		return "", nil, nil
	}
	id = strings.ToLower(id)
	ins, err := table.Insurer(id)
	if err != nil {
		return "", nil, noRate(sel.Field, err)
	}
	return id, &ins, nil
}

func resolveSelector(sel Selector, snap domain.DraftSnapshot) (string, *CalculationError) {
	v, ok := sel.resolve(snap)
	if !ok {
		return "", invalidInput(sel.Field, "is required")
	}
	if sel.Const != "" {
		return v, nil
	}
	return strings.ToLower(v), nil
}

func resolveUnits(rule *UnitsRule, snap domain.DraftSnapshot) (decimal.Decimal, *CalculationError) {
	one := decimal.NewFromInt(1)
	if rule == nil || !domain.AllHold(rule.When, snap) {
		return one, nil
	}
	units, cerr := parseNonNegative(snap, rule.Field)
	if cerr != nil {
		return decimal.Zero, cerr
	}
	if !units.Equal(units.Truncate(0)) || units.LessThan(one) {
		return decimal.Zero, invalidInput(rule.Field, "must be a whole number of at least 1")
	}
	return units, nil
}

// parseNonNegative reads a finite, non-negative number. Thousands separators
// are accepted.
func parseNonNegative(snap domain.DraftSnapshot, field string) (decimal.Decimal, *CalculationError) {
	raw := snap.Field(field)
	if raw == "" {
		return decimal.Zero, invalidInput(field, "is required")
	}
	cleaned := strings.NewReplacer(",", "", "_", "", " ", "").Replace(raw)
	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, invalidInput(field, "%q is not a number", raw)
	}
	if v.IsNegative() {
		return decimal.Zero, invalidInput(field, "must not be negative")
	}
	return v, nil
}

func vehicleAge(snap domain.DraftSnapshot, field string, year decimal.Decimal) (decimal.Decimal, *CalculationError) {
	if !year.Equal(year.Truncate(0)) {
		return decimal.Zero, invalidInput(field, "must be a whole year")
	}
	reference := decimal.NewFromInt(int64(snap.CreatedAt().Year()))
	if year.GreaterThan(reference) {
		return decimal.Zero, invalidInput(field, "year %s is in the future", year)
	}
	return reference.Sub(year), nil
}
