package domain

import (
	"github.com/shopspring/decimal"
)

// AdjustmentStage orders the multiplicative adjustments of the pricing pipeline
type AdjustmentStage string

const (
	StageBracket   AdjustmentStage = "bracket"
	StageRisk      AdjustmentStage = "risk"
	StageDiscount  AdjustmentStage = "discount"
	StageSurcharge AdjustmentStage = "surcharge"
)

// Adjustment records one factor applied to the running amount.
// Amount is the change it caused; discounts carry a negative factor and amount.
type Adjustment struct {
	Name   string          `yaml:"name" json:"name"`
	Stage  AdjustmentStage `yaml:"stage" json:"stage"`
	Key    string          `yaml:"key,omitempty" json:"key,omitempty"`
	Factor decimal.Decimal `yaml:"factor" json:"factor"`
	Amount decimal.Decimal `yaml:"amount" json:"amount"`
}

// AddOnCharge is the priced cost of one selected add-on
type AddOnCharge struct {
	ID     string          `yaml:"id" json:"id"`
	Name   string          `yaml:"name" json:"name"`
	Mode   PricingMode     `yaml:"mode" json:"mode"`
	Amount decimal.Decimal `yaml:"amount" json:"amount"`
}

// StatutoryCharges are the regulatory fees added after the minimum floor
type StatutoryCharges struct {
	StampDuty    decimal.Decimal `yaml:"stamp_duty" json:"stampDuty"`
	PHCF         decimal.Decimal `yaml:"phcf" json:"phcf"`
	TrainingLevy decimal.Decimal `yaml:"training_levy" json:"trainingLevy"`
}

// Total sums all statutory charges
func (sc StatutoryCharges) Total() decimal.Decimal {
	return sc.StampDuty.Add(sc.PHCF).Add(sc.TrainingLevy)
}

// PremiumBreakdown is the derived result of a premium calculation
type PremiumBreakdown struct {
	Line                  InsuranceType    `yaml:"line" json:"line"`
	Product               string           `yaml:"product" json:"product"`
	Insurer               string           `yaml:"insurer,omitempty" json:"insurer,omitempty"`
	InsurerName           string           `yaml:"insurer_name,omitempty" json:"insurerName,omitempty"`
	BaseRate              decimal.Decimal  `yaml:"base_rate" json:"baseRate"`
	Principal             decimal.Decimal  `yaml:"principal" json:"principal"`
	BaseAmount            decimal.Decimal  `yaml:"base_amount" json:"baseAmount"`
	MultiplierAdjustments []Adjustment     `yaml:"adjustments" json:"multiplierAdjustments"`
	AdjustedAmount        decimal.Decimal  `yaml:"adjusted_amount" json:"adjustedAmount"`
	AddOns                []AddOnCharge    `yaml:"add_ons,omitempty" json:"addOns,omitempty"`
	SkippedAddOns         []string         `yaml:"skipped_add_ons,omitempty" json:"skippedAddOns,omitempty"`
	AddOnTotal            decimal.Decimal  `yaml:"add_on_total" json:"addOnTotal"`
	MinimumPremium        decimal.Decimal  `yaml:"minimum_premium" json:"minimumPremium"`
	MinimumApplied        bool             `yaml:"minimum_applied" json:"minimumApplied"`
	PremiumAmount         decimal.Decimal  `yaml:"premium_amount" json:"premiumAmount"`
	StatutoryCharges      StatutoryCharges `yaml:"statutory_charges" json:"statutoryCharges"`
	TotalBeforeRounding   decimal.Decimal  `yaml:"total_before_rounding" json:"totalBeforeRounding"`
	Total                 decimal.Decimal  `yaml:"total" json:"total"`
}

// Clone returns a copy that shares no slices with the original
func (pb PremiumBreakdown) Clone() PremiumBreakdown {
	c := pb
	c.MultiplierAdjustments = append([]Adjustment(nil), pb.MultiplierAdjustments...)
	c.AddOns = append([]AddOnCharge(nil), pb.AddOns...)
	c.SkippedAddOns = append([]string(nil), pb.SkippedAddOns...)
	return c
}
