package domain

// Field keys shared between the step flows and the pricing configuration.
const (
	// Motor
	FieldVehicleCategory    = "vehicleCategory"
	FieldCoverType          = "coverType"
	FieldProduct            = "product"
	FieldInsurer            = "insurer"
	FieldVehicleValue       = "vehicleValue"
	FieldYearOfManufacture  = "yearOfManufacture"
	FieldRegistrationNumber = "registrationNumber"
	FieldMake               = "make"
	FieldModel              = "model"
	FieldUsage              = "usage"
	FieldHasTracking        = "hasTracking"
	FieldHasDashcam         = "hasDashcam"
	FieldHasAntiTheft       = "hasAntiTheft"

	// WIBA
	FieldCompanyName          = "companyName"
	FieldBusinessRegistration = "businessRegistration"
	FieldCoverageLevel        = "coverageLevel"
	FieldAnnualPayroll        = "annualPayroll"
	FieldEmployeeCount        = "employeeCount"
	FieldIndustryRisk         = "industryRisk"
	FieldCompanySize          = "companySize"
	FieldExperienceRating     = "experienceRating"
	FieldHasSafetyTraining    = "hasSafetyTraining"
	FieldHasFirstAid          = "hasFirstAid"
	FieldHasSafetyOfficer     = "hasSafetyOfficer"
	FieldHasProtectiveGear    = "hasProtectiveGear"
	FieldHasFireSafety        = "hasFireSafety"

	// Shared by the flat-rate lines
	FieldPlanType       = "planType"
	FieldTier           = "tier"
	FieldAge            = "age"
	FieldMembers        = "members"
	FieldCoverPeriod    = "coverPeriod"
	FieldDestination    = "destination"
	FieldTripDays       = "tripDays"
	FieldOccupationRisk = "occupationRisk"
	FieldFamilySize     = "familySize"

	// Applicant details
	FieldFullName       = "fullName"
	FieldIDNumber       = "idNumber"
	FieldPhone          = "phone"
	FieldEmail          = "email"
	FieldKRAPin         = "kraPin"
	FieldPassportNumber = "passportNumber"
)

// Cover types used by conditional steps and add-on conditions
const (
	CoverComprehensive = "comprehensive"
	CoverThirdParty    = "third_party"
)

// Document kinds attached to drafts
const (
	DocumentLogbook        = "logbook"
	DocumentNationalID     = "national_id"
	DocumentKRACertificate = "kra_certificate"
	DocumentPassport       = "passport"
	DocumentBusinessCert   = "business_certificate"
)
