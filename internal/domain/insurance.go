package domain

import (
	"fmt"
	"strings"
)

// InsuranceType identifies an insurance line. Each line selects one step flow,
// one rate table and one add-on catalog.
type InsuranceType string

const (
	InsuranceMotor            InsuranceType = "motor"
	InsuranceMedical          InsuranceType = "medical"
	InsuranceWIBA             InsuranceType = "wiba"
	InsuranceTravel           InsuranceType = "travel"
	InsurancePersonalAccident InsuranceType = "personal_accident"
	InsuranceLastExpense      InsuranceType = "last_expense"
)

// AllInsuranceTypes returns every supported line in display order
func AllInsuranceTypes() []InsuranceType {
	return []InsuranceType{
		InsuranceMotor,
		InsuranceMedical,
		InsuranceWIBA,
		InsuranceTravel,
		InsurancePersonalAccident,
		InsuranceLastExpense,
	}
}

// ParseInsuranceType converts user input into an InsuranceType
func ParseInsuranceType(s string) (InsuranceType, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for _, t := range AllInsuranceTypes() {
		if string(t) == normalized {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown insurance type %q", s)
}

// DisplayName returns a human readable name for the line
func (t InsuranceType) DisplayName() string {
	switch t {
	case InsuranceMotor:
		return "Motor"
	case InsuranceMedical:
		return "Medical"
	case InsuranceWIBA:
		return "WIBA"
	case InsuranceTravel:
		return "Travel"
	case InsurancePersonalAccident:
		return "Personal Accident"
	case InsuranceLastExpense:
		return "Last Expense"
	default:
		return string(t)
	}
}

// ReferencePrefix is the short code used in submitted quote references
func (t InsuranceType) ReferencePrefix() string {
	switch t {
	case InsuranceMotor:
		return "MTR"
	case InsuranceMedical:
		return "MED"
	case InsuranceWIBA:
		return "WIB"
	case InsuranceTravel:
		return "TRV"
	case InsurancePersonalAccident:
		return "PAC"
	case InsuranceLastExpense:
		return "LEX"
	default:
		return "GEN"
	}
}
