package wizard

import (
	"fmt"

	"github.com/rgehrsitz/quotego/internal/domain"
)

// FlowFor returns the step graph of an insurance line
func FlowFor(line domain.InsuranceType) (*StepGraph, error) {
	switch line {
	case domain.InsuranceMotor:
		return NewStepGraph(line, motorSteps()...)
	case domain.InsuranceMedical:
		return NewStepGraph(line, medicalSteps()...)
	case domain.InsuranceWIBA:
		return NewStepGraph(line, wibaSteps()...)
	case domain.InsuranceTravel:
		return NewStepGraph(line, travelSteps()...)
	case domain.InsurancePersonalAccident:
		return NewStepGraph(line, personalAccidentSteps()...)
	case domain.InsuranceLastExpense:
		return NewStepGraph(line, lastExpenseSteps()...)
	default:
		return nil, fmt.Errorf("no step flow for line %q", line)
	}
}

var coverPeriods = []string{"12", "6", "3", "1"}

// MotorInsurers are the underwriters offered in the motor flow. Each one
// has an entry in the motor rate table.
var MotorInsurers = []string{"jubilee", "madison", "kal"}

func motorSteps() []StepDefinition {
	comprehensive := Is(domain.FieldCoverType, domain.CoverComprehensive)
	return []StepDefinition{
		step(1, "vehicle_category", "Vehicle category",
			choice(domain.FieldVehicleCategory, "Vehicle category", "private", "commercial", "psv", "motorcycle", "tuktuk", "special"),
			choice(domain.FieldCoverType, "Cover type", domain.CoverComprehensive, domain.CoverThirdParty),
		),
		step(2, "vehicle_details", "Vehicle details",
			text(domain.FieldRegistrationNumber, "Registration number"),
			text(domain.FieldMake, "Make"),
			optional(text(domain.FieldModel, "Model")),
			number(domain.FieldYearOfManufacture, "Year of manufacture"),
			number(domain.FieldVehicleValue, "Vehicle value (KES)"),
			optional(choice(domain.FieldUsage, "Usage", "private", "commercial", "hire")),
		).with(
			Field(domain.FieldRegistrationNumber, VehicleRegistration),
			NotAfterCreationYear(domain.FieldYearOfManufacture, 1950),
			Field(domain.FieldVehicleValue, AtLeast(1)),
		),
		step(3, "product", "Insurance product",
			withHelp(text(domain.FieldProduct, "Product"), "for example private_comprehensive"),
			optional(choice(domain.FieldCoverPeriod, "Cover period (months)", coverPeriods...)),
		),
		step(4, "insurer", "Insurer",
			choice(domain.FieldInsurer, "Insurer", MotorInsurers...),
		),
		step(5, "security_and_addons", "Security features and add-ons",
			flag(domain.FieldHasTracking, "Tracking device"),
			flag(domain.FieldHasDashcam, "Dashcam"),
			flag(domain.FieldHasAntiTheft, "Anti-theft system"),
		).when(comprehensive),
		applicantStep(6, "owner", "Vehicle owner",
			text(domain.FieldIDNumber, "National ID number"),
			text(domain.FieldKRAPin, "KRA PIN"),
		).with(
			Field(domain.FieldIDNumber, KenyanNationalID),
			Field(domain.FieldKRAPin, KRAPin),
		),
		step(7, "documents", "Documents").documents(domain.DocumentLogbook, domain.DocumentNationalID),
		reviewStep(8),
	}
}

func medicalSteps() []StepDefinition {
	return []StepDefinition{
		step(1, "plan", "Plan",
			choice(domain.FieldPlanType, "Plan type", "individual", "family", "group"),
			choice(domain.FieldTier, "Tier", "basic", "standard", "premium"),
			optional(number(domain.FieldMembers, "Members")),
			optional(choice(domain.FieldCoverPeriod, "Cover period (months)", "12", "6", "3")),
		).with(
			RequiredWhen(domain.FieldMembers, domain.FieldCondition{Field: domain.FieldPlanType, In: []string{"group"}}),
			Field(domain.FieldMembers, WholeNumber, AtLeast(2)),
		),
		applicantStep(2, "principal_member", "Principal member",
			number(domain.FieldAge, "Age"),
			text(domain.FieldIDNumber, "National ID number"),
		).with(
			Field(domain.FieldAge, WholeNumber, Between(0, 100)),
			Field(domain.FieldIDNumber, KenyanNationalID),
		),
		step(3, "documents", "Documents").documents(domain.DocumentNationalID),
		reviewStep(4),
	}
}

func wibaSteps() []StepDefinition {
	return []StepDefinition{
		step(1, "company", "Company",
			text(domain.FieldCompanyName, "Company name"),
			text(domain.FieldBusinessRegistration, "Business registration number"),
			text(domain.FieldKRAPin, "KRA PIN"),
		).with(
			Field(domain.FieldBusinessRegistration, BusinessRegistration),
			Field(domain.FieldKRAPin, KRAPin),
		),
		step(2, "coverage", "Coverage",
			choice(domain.FieldCoverageLevel, "Coverage level", "basic", "enhanced", "comprehensive"),
			withHelp(text(domain.FieldProduct, "Product"), "for example enhanced_standard"),
			optional(choice(domain.FieldCoverPeriod, "Cover period (months)", "12", "6")),
		),
		step(3, "workforce", "Workforce",
			number(domain.FieldAnnualPayroll, "Annual payroll (KES)"),
			number(domain.FieldEmployeeCount, "Number of employees"),
			choice(domain.FieldIndustryRisk, "Industry risk", "low", "medium", "high", "very_high"),
			optional(choice(domain.FieldCompanySize, "Company size", "small", "medium", "large")),
			optional(choice(domain.FieldExperienceRating, "Claims experience", "excellent", "good", "average", "poor")),
		).with(
			Field(domain.FieldAnnualPayroll, AtLeast(1)),
			Field(domain.FieldEmployeeCount, WholeNumber, AtLeast(1)),
		),
		step(4, "safety", "Safety measures",
			flag(domain.FieldHasSafetyTraining, "Safety training"),
			flag(domain.FieldHasFirstAid, "First aid kits"),
			flag(domain.FieldHasSafetyOfficer, "Safety officer"),
			flag(domain.FieldHasProtectiveGear, "Protective gear"),
			flag(domain.FieldHasFireSafety, "Fire safety equipment"),
		),
		applicantStep(5, "contact", "Contact person"),
		step(6, "documents", "Documents").documents(domain.DocumentBusinessCert, domain.DocumentKRACertificate),
		reviewStep(7),
	}
}

func travelSteps() []StepDefinition {
	return []StepDefinition{
		step(1, "trip", "Trip",
			choice(domain.FieldDestination, "Destination", "domestic", "africa", "asia", "europe", "americas", "worldwide"),
			number(domain.FieldTripDays, "Trip length (days)"),
		).with(
			Field(domain.FieldTripDays, WholeNumber, Between(1, 180)),
		),
		step(2, "plan", "Plan",
			choice(domain.FieldPlanType, "Plan type", "individual", "family"),
			choice(domain.FieldTier, "Tier", "basic", "standard", "premium"),
		),
		applicantStep(3, "traveller", "Traveller",
			number(domain.FieldAge, "Age"),
			text(domain.FieldPassportNumber, "Passport number"),
		).with(
			Field(domain.FieldAge, WholeNumber, Between(0, 100)),
			Field(domain.FieldPassportNumber, Passport),
		),
		step(4, "documents", "Documents").documents(domain.DocumentPassport),
		reviewStep(5),
	}
}

func personalAccidentSteps() []StepDefinition {
	return []StepDefinition{
		step(1, "plan", "Plan",
			choice(domain.FieldPlanType, "Plan type", "individual", "group"),
			choice(domain.FieldTier, "Benefit level", "basic", "standard", "premium", "executive"),
			optional(number(domain.FieldMembers, "Members")),
			optional(choice(domain.FieldCoverPeriod, "Cover period (months)", "12", "6")),
		).with(
			RequiredWhen(domain.FieldMembers, domain.FieldCondition{Field: domain.FieldPlanType, In: []string{"group"}}),
			Field(domain.FieldMembers, WholeNumber, AtLeast(2)),
		),
		applicantStep(2, "insured", "Insured person",
			number(domain.FieldAge, "Age"),
			choice(domain.FieldOccupationRisk, "Occupation risk", "low", "medium", "high"),
			text(domain.FieldIDNumber, "National ID number"),
		).with(
			Field(domain.FieldAge, WholeNumber, Between(18, 70)),
			Field(domain.FieldIDNumber, KenyanNationalID),
		),
		step(3, "documents", "Documents").documents(domain.DocumentNationalID),
		reviewStep(4),
	}
}

func lastExpenseSteps() []StepDefinition {
	return []StepDefinition{
		step(1, "plan", "Plan",
			choice(domain.FieldPlanType, "Plan type", "individual", "family"),
			choice(domain.FieldTier, "Benefit level", "basic", "standard", "premium", "comprehensive"),
			optional(choice(domain.FieldFamilySize, "Family size", "small", "medium", "large")),
			optional(choice(domain.FieldCoverPeriod, "Cover period (months)", "12", "6")),
		).with(
			RequiredWhen(domain.FieldFamilySize, domain.FieldCondition{Field: domain.FieldPlanType, In: []string{"family"}}),
		),
		applicantStep(2, "principal_member", "Principal member",
			number(domain.FieldAge, "Age"),
			text(domain.FieldIDNumber, "National ID number"),
		).with(
			Field(domain.FieldAge, WholeNumber, Between(18, 100)),
			Field(domain.FieldIDNumber, KenyanNationalID),
		),
		step(3, "documents", "Documents").documents(domain.DocumentNationalID),
		reviewStep(4),
	}
}

func step(order int, id, title string, fields ...FieldSpec) StepDefinition {
	sd := StepDefinition{ID: id, Title: title, Order: order, Fields: fields}
	for _, f := range fields {
		if !f.Optional {
			sd.RequiredFieldKeys = append(sd.RequiredFieldKeys, f.Key)
		}
	}
	return sd
}

// applicantStep collects name and contact details plus any extra fields
func applicantStep(order int, id, title string, extra ...FieldSpec) StepDefinition {
	fields := append([]FieldSpec{
		text(domain.FieldFullName, "Full name"),
		text(domain.FieldPhone, "Phone number"),
		optional(text(domain.FieldEmail, "Email")),
	}, extra...)
	return step(order, id, title, fields...).with(
		Field(domain.FieldPhone, KenyanPhone),
		Field(domain.FieldEmail, Email),
	)
}

func reviewStep(order int) StepDefinition {
	return step(order, "review", "Review and premium").with(PremiumCalculated())
}

func (sd StepDefinition) with(validators ...Validator) StepDefinition {
	sd.Validators = append(append([]Validator(nil), sd.Validators...), validators...)
	return sd
}

func (sd StepDefinition) when(p Predicate) StepDefinition {
	sd.IsApplicable = p
	return sd
}

func (sd StepDefinition) documents(kinds ...string) StepDefinition {
	sd.RequiredDocuments = append(sd.RequiredDocuments, kinds...)
	return sd
}

func text(key, label string) FieldSpec {
	return FieldSpec{Key: key, Label: label, Kind: KindText}
}

func number(key, label string) FieldSpec {
	return FieldSpec{Key: key, Label: label, Kind: KindNumber}
}

func choice(key, label string, options ...string) FieldSpec {
	return FieldSpec{Key: key, Label: label, Kind: KindChoice, Options: options}
}

func flag(key, label string) FieldSpec {
	return FieldSpec{Key: key, Label: label, Kind: KindFlag, Optional: true}
}

func optional(f FieldSpec) FieldSpec {
	f.Optional = true
	return f
}

func withHelp(f FieldSpec, help string) FieldSpec {
	f.Help = help
	return f
}
