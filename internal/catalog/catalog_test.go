package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rgehrsitz/quotego/internal/calculation"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/wizard"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func draft(line domain.InsuranceType, fields map[string]string, addOns ...string) *domain.QuoteDraft {
	d := domain.NewQuoteDraft(line, created)
	d.Merge(fields)
	d.SetAddOns(addOns)
	return d
}

func TestLoad_AllLines(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.AllInsuranceTypes(), c.Lines())
	for _, line := range domain.AllInsuranceTypes() {
		assert.NotNil(t, c.Table(line), "line %s should have a rate table", line)
		assert.NotNil(t, c.AddOns(line), "line %s should have an add-on catalog", line)
		assert.Equal(t, line, c.AddOns(line).Line)
	}
}

func TestLoad_MotorMinimums(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	table := c.Table(domain.InsuranceMotor)

	tests := []struct {
		category, tier string
		want           int64
	}{
		{"private", "comprehensive", 25000},
		{"private", "third_party", 15000},
		{"commercial", "comprehensive", 25000},
		{"psv", "third_party", 35000},
		{"motorcycle", "comprehensive", 8000},
		{"tuktuk", "comprehensive", 12000},
		{"special", "third_party", 20000},
	}
	for _, tt := range tests {
		t.Run(tt.category+"/"+tt.tier, func(t *testing.T) {
			assert.True(t, table.MinimumPremium(tt.category, tt.tier).Equal(decimal.NewFromInt(tt.want)))
		})
	}
}

func TestLoad_MotorInsurersMatchFlow(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	table := c.Table(domain.InsuranceMotor)

	assert.ElementsMatch(t, wizard.MotorInsurers, table.InsurerIDs())
	for _, id := range wizard.MotorInsurers {
		ins, err := table.Insurer(id)
		require.NoError(t, err, id)
		assert.NotEmpty(t, ins.Name)
	}
}

func TestCatalog_Quote(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	pc := c.Calculator()

	tests := []struct {
		name  string
		draft *domain.QuoteDraft
		want  string
	}{
		{
			name: "motor comprehensive",
			draft: draft(domain.InsuranceMotor, map[string]string{
				domain.FieldVehicleCategory:   "private",
				domain.FieldCoverType:         domain.CoverComprehensive,
				domain.FieldProduct:           "private_comprehensive",
				domain.FieldVehicleValue:      "1,000,000",
				domain.FieldYearOfManufacture: "2023",
			}),
			want: "40300",
		},
		{
			name: "motor comprehensive with excess protector",
			draft: draft(domain.InsuranceMotor, map[string]string{
				domain.FieldVehicleCategory:   "private",
				domain.FieldCoverType:         domain.CoverComprehensive,
				domain.FieldProduct:           "private_comprehensive",
				domain.FieldVehicleValue:      "1000000",
				domain.FieldYearOfManufacture: "2023",
			}, "excess_protector"),
			want: "44300",
		},
		{
			name: "motor third party ignores security features",
			draft: draft(domain.InsuranceMotor, map[string]string{
				domain.FieldVehicleCategory:   "private",
				domain.FieldCoverType:         domain.CoverThirdParty,
				domain.FieldProduct:           "private_third_party",
				domain.FieldVehicleValue:      "2000000",
				domain.FieldYearOfManufacture: "2018",
				domain.FieldHasTracking:       "yes",
			}),
			want: "33200",
		},
		{
			name: "motor third party",
			draft: draft(domain.InsuranceMotor, map[string]string{
				domain.FieldVehicleCategory:   "private",
				domain.FieldCoverType:         domain.CoverThirdParty,
				domain.FieldProduct:           "private_third_party",
				domain.FieldVehicleValue:      "2000000",
				domain.FieldYearOfManufacture: "2018",
			}),
			want: "33200",
		},
		{
			name: "motor third party with madison",
			draft: draft(domain.InsuranceMotor, map[string]string{
				domain.FieldVehicleCategory:   "private",
				domain.FieldCoverType:         domain.CoverThirdParty,
				domain.FieldProduct:           "private_third_party",
				domain.FieldVehicleValue:      "800000",
				domain.FieldYearOfManufacture: "2023",
				domain.FieldInsurer:           "madison",
			}),
			want: "11500",
		},
		{
			name: "motor comprehensive with kenyan alliance",
			draft: draft(domain.InsuranceMotor, map[string]string{
				domain.FieldVehicleCategory:   "private",
				domain.FieldCoverType:         domain.CoverComprehensive,
				domain.FieldProduct:           "private_comprehensive",
				domain.FieldVehicleValue:      "1000000",
				domain.FieldYearOfManufacture: "2023",
				domain.FieldInsurer:           "kal",
			}),
			want: "42300",
		},
		{
			name: "wiba enhanced",
			draft: draft(domain.InsuranceWIBA, map[string]string{
				domain.FieldCoverageLevel: "enhanced",
				domain.FieldProduct:       "enhanced_standard",
				domain.FieldAnnualPayroll: "2000000",
				domain.FieldIndustryRisk:  "low",
			}),
			want: "50000",
		},
		{
			name: "travel to europe",
			draft: draft(domain.InsuranceTravel, map[string]string{
				domain.FieldPlanType:    "individual",
				domain.FieldTier:        "standard",
				domain.FieldTripDays:    "10",
				domain.FieldAge:         "30",
				domain.FieldDestination: "europe",
			}),
			want: "12960",
		},
		{
			name: "medical group",
			draft: draft(domain.InsuranceMedical, map[string]string{
				domain.FieldPlanType: "group",
				domain.FieldTier:     "standard",
				domain.FieldMembers:  "10",
				domain.FieldAge:      "30",
			}),
			want: "300000",
		},
		{
			name: "last expense floored",
			draft: draft(domain.InsuranceLastExpense, map[string]string{
				domain.FieldPlanType: "individual",
				domain.FieldTier:     "basic",
				domain.FieldAge:      "25",
			}),
			want: "1500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := c.Quote(pc, tt.draft)
			require.NoError(t, err)
			assert.True(t, result.Total.Equal(decimal.RequireFromString(tt.want)), "total %s, want %s", result.Total, tt.want)
		})
	}
}

func TestCatalog_Quote_AgeOutsideTable(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	_, err = c.Quote(c.Calculator(), draft(domain.InsurancePersonalAccident, map[string]string{
		domain.FieldPlanType:       "individual",
		domain.FieldTier:           "basic",
		domain.FieldAge:            "75",
		domain.FieldOccupationRisk: "low",
	}))
	require.Error(t, err)
	assert.True(t, calculation.IsKind(err, calculation.NoRateForSelection))
	cerr, ok := calculation.AsCalculationError(err)
	require.True(t, ok)
	assert.Equal(t, domain.FieldAge, cerr.Field)
}

func TestCatalog_Quote_NilDraft(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	_, err = c.Quote(c.Calculator(), nil)
	assert.True(t, calculation.IsKind(err, calculation.InvalidInput))
}

const medicalOverride = `
line: medical
base:
  individual:
    standard:
      premium: 40000
minimums:
  "*":
    "*": 1000
pricing:
  basis: flat
  category: {field: planType}
  tier: {field: tier}
  product: {const: premium}
  rounding: up_100
`

func TestLoadDir_Override(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "medical.yaml"), []byte(medicalOverride), 0644))

	c, err := LoadDir(dir)
	require.NoError(t, err)

	rate, err := c.Table(domain.InsuranceMedical).BaseRate("individual", "standard", "premium")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.NewFromInt(40000)))

	pc := c.Calculator()
	lc, ok := pc.LineConfig(domain.InsuranceMedical)
	require.True(t, ok)
	assert.Equal(t, calculation.RoundUpHundred, lc.Rounding, "pricing section replaces the default")
	assert.Empty(t, lc.Factors)

	// other lines keep the built-in documents
	assert.NotNil(t, c.Table(domain.InsuranceMotor))
}

func TestLoadDir_Errors(t *testing.T) {
	t.Run("invalid document", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("line: medical\n"), 0644))
		_, err := LoadDir(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "base rates are required")
	})

	t.Run("same line twice", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(medicalOverride), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(medicalOverride), 0644))
		_, err := LoadDir(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "both define line medical")
	})

	t.Run("empty dir keeps built-ins", func(t *testing.T) {
		c, err := LoadDir("")
		require.NoError(t, err)
		assert.Len(t, c.Lines(), len(domain.AllInsuranceTypes()))
	})
}
