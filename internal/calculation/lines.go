package calculation

import (
	"fmt"

	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/shopspring/decimal"
)

// ConfigFor returns the default pipeline configuration of a line
func ConfigFor(line domain.InsuranceType) (LineConfig, error) {
	switch line {
	case domain.InsuranceMotor:
		return motorLine(), nil
	case domain.InsuranceWIBA:
		return wibaLine(), nil
	case domain.InsuranceMedical:
		return medicalLine(), nil
	case domain.InsuranceTravel:
		return travelLine(), nil
	case domain.InsurancePersonalAccident:
		return personalAccidentLine(), nil
	case domain.InsuranceLastExpense:
		return lastExpenseLine(), nil
	default:
		return LineConfig{}, fmt.Errorf("no pricing configuration for line %q", line)
	}
}

// DefaultLines returns the configuration of every supported line
func DefaultLines() []LineConfig {
	lines := make([]LineConfig, 0, len(domain.AllInsuranceTypes()))
	for _, t := range domain.AllInsuranceTypes() {
		cfg, err := ConfigFor(t)
		if err != nil {
			continue
		}
		lines = append(lines, cfg)
	}
	return lines
}

func coverPeriodRule() FactorRule {
	return FactorRule{
		Name:     "cover_period",
		Stage:    domain.StageBracket,
		Table:    "cover_period",
		Field:    domain.FieldCoverPeriod,
		Mode:     ModeEnum,
		Optional: true,
	}
}

func ageRule() FactorRule {
	return FactorRule{
		Name:  "age",
		Stage: domain.StageBracket,
		Table: "age",
		Field: domain.FieldAge,
		Mode:  ModeRange,
	}
}

func flagDiscount(name, table, field string) FactorRule {
	return FactorRule{Name: name, Stage: domain.StageDiscount, Table: table, Field: field, Mode: ModeFlag}
}

func when(rule FactorRule, conds ...domain.FieldCondition) FactorRule {
	rule.When = append(rule.When, conds...)
	return rule
}

func groupUnits() *UnitsRule {
	return &UnitsRule{
		Field: domain.FieldMembers,
		When:  []domain.FieldCondition{{Field: domain.FieldPlanType, In: []string{"group"}}},
	}
}

func planSelectors(lc LineConfig) LineConfig {
	lc.Category = Selector{Field: domain.FieldPlanType}
	lc.Tier = Selector{Field: domain.FieldTier}
	lc.Product = Selector{Const: "premium"}
	return lc
}

func motorLine() LineConfig {
	// security features are only collected for comprehensive cover
	comprehensive := domain.FieldCondition{Field: domain.FieldCoverType, In: []string{domain.CoverComprehensive}}
	return LineConfig{
		Line:           domain.InsuranceMotor,
		Basis:          BasisPercentage,
		PrincipalField: domain.FieldVehicleValue,
		Category:       Selector{Field: domain.FieldVehicleCategory},
		Tier:           Selector{Field: domain.FieldCoverType},
		Product:        Selector{Field: domain.FieldProduct},
		Insurer:        &Selector{Field: domain.FieldInsurer},
		Factors: []FactorRule{
			coverPeriodRule(),
			{Name: "usage", Stage: domain.StageRisk, Table: "usage", Field: domain.FieldUsage, Mode: ModeEnum, Optional: true},
			when(flagDiscount("tracking_device", "security", domain.FieldHasTracking), comprehensive),
			when(flagDiscount("dashcam", "security", domain.FieldHasDashcam), comprehensive),
			when(flagDiscount("anti_theft", "security", domain.FieldHasAntiTheft), comprehensive),
			{
				Name:   "vehicle_age",
				Stage:  domain.StageSurcharge,
				Table:  "vehicle_age",
				Field:  domain.FieldYearOfManufacture,
				Mode:   ModeRange,
				Derive: DeriveVehicleAge,
			},
		},
		DiscountCap: decimal.NewFromFloat(0.20),
		Statutory: &StatutoryConfig{
			StampDuty:           decimal.NewFromInt(40),
			PHCFPercent:         decimal.NewFromFloat(0.25),
			TrainingLevyPercent: decimal.NewFromFloat(0.2),
		},
		Rounding:       RoundUpHundred,
		AddOnReference: AddOnsOnBase,
	}
}

func wibaLine() LineConfig {
	return LineConfig{
		Line:           domain.InsuranceWIBA,
		Basis:          BasisPercentage,
		PrincipalField: domain.FieldAnnualPayroll,
		Category:       Selector{Const: "employer"},
		Tier:           Selector{Field: domain.FieldCoverageLevel},
		Product:        Selector{Field: domain.FieldProduct},
		Factors: []FactorRule{
			coverPeriodRule(),
			{Name: "industry_risk", Stage: domain.StageRisk, Table: "industry_risk", Field: domain.FieldIndustryRisk, Mode: ModeEnum},
			{Name: "company_size", Stage: domain.StageRisk, Table: "company_size", Field: domain.FieldCompanySize, Mode: ModeEnum, Optional: true},
			{Name: "experience_rating", Stage: domain.StageRisk, Table: "experience_rating", Field: domain.FieldExperienceRating, Mode: ModeEnum, Optional: true},
			flagDiscount("safety_training", "safety", domain.FieldHasSafetyTraining),
			flagDiscount("first_aid", "safety", domain.FieldHasFirstAid),
			flagDiscount("safety_officer", "safety", domain.FieldHasSafetyOfficer),
			flagDiscount("protective_gear", "safety", domain.FieldHasProtectiveGear),
			flagDiscount("fire_safety", "safety", domain.FieldHasFireSafety),
		},
		DiscountCap:    decimal.NewFromFloat(0.20),
		Rounding:       RoundNone,
		AddOnReference: AddOnsOnBase,
	}
}

func medicalLine() LineConfig {
	return planSelectors(LineConfig{
		Line:  domain.InsuranceMedical,
		Basis: BasisFlat,
		Units: groupUnits(),
		Factors: []FactorRule{
			ageRule(),
			coverPeriodRule(),
		},
		Rounding:       RoundNone,
		AddOnReference: AddOnsOnBase,
	})
}

func travelLine() LineConfig {
	return planSelectors(LineConfig{
		Line:  domain.InsuranceTravel,
		Basis: BasisFlat,
		Factors: []FactorRule{
			{Name: "trip_duration", Stage: domain.StageBracket, Table: "trip_days", Field: domain.FieldTripDays, Mode: ModeRange, Optional: true},
			ageRule(),
			{Name: "destination", Stage: domain.StageRisk, Table: "destination", Field: domain.FieldDestination, Mode: ModeEnum},
		},
		Rounding:       RoundNone,
		AddOnReference: AddOnsOnBase,
	})
}

func personalAccidentLine() LineConfig {
	return planSelectors(LineConfig{
		Line:  domain.InsurancePersonalAccident,
		Basis: BasisFlat,
		Units: groupUnits(),
		Factors: []FactorRule{
			ageRule(),
			coverPeriodRule(),
			{Name: "occupation_risk", Stage: domain.StageRisk, Table: "occupation_risk", Field: domain.FieldOccupationRisk, Mode: ModeEnum},
		},
		Rounding:       RoundNone,
		AddOnReference: AddOnsOnBase,
	})
}

func lastExpenseLine() LineConfig {
	return planSelectors(LineConfig{
		Line:  domain.InsuranceLastExpense,
		Basis: BasisFlat,
		Factors: []FactorRule{
			ageRule(),
			coverPeriodRule(),
			{Name: "family_size", Stage: domain.StageRisk, Table: "family_size", Field: domain.FieldFamilySize, Mode: ModeEnum, Optional: true},
		},
		Rounding:       RoundNone,
		AddOnReference: AddOnsOnBase,
	})
}
