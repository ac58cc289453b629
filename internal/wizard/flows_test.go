package wizard

import (
	"testing"

	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowFor_AllLines(t *testing.T) {
	for _, line := range domain.AllInsuranceTypes() {
		t.Run(string(line), func(t *testing.T) {
			g, err := FlowFor(line)
			require.NoError(t, err)
			assert.Equal(t, line, g.Line)

			last, ok := g.Step(g.Len() - 1)
			require.True(t, ok)
			assert.Equal(t, "review", last.ID, "every flow ends with the review step")
			assert.NotEqual(t, -1, g.IndexOf("documents"))
		})
	}

	_, err := FlowFor("boat")
	assert.Error(t, err)
}

func TestFlowFor_MotorThirdPartySkipsAddOns(t *testing.T) {
	g, err := FlowFor(domain.InsuranceMotor)
	require.NoError(t, err)
	addOns := g.IndexOf("security_and_addons")
	require.NotEqual(t, -1, addOns)

	draft := domain.NewQuoteDraft(domain.InsuranceMotor, created)
	draft.Merge(map[string]string{domain.FieldCoverType: domain.CoverThirdParty})
	assert.NotContains(t, g.ApplicableIndexes(draft.Snapshot()), addOns)

	draft.Merge(map[string]string{domain.FieldCoverType: domain.CoverComprehensive})
	assert.Contains(t, g.ApplicableIndexes(draft.Snapshot()), addOns)
}

func TestFlowFor_MotorWalkthrough(t *testing.T) {
	g, err := FlowFor(domain.InsuranceMotor)
	require.NoError(t, err)
	draft := domain.NewQuoteDraft(domain.InsuranceMotor, created)
	st, err := NewStepper(g, draft)
	require.NoError(t, err)

	answers := []map[string]string{
		{domain.FieldVehicleCategory: "private", domain.FieldCoverType: domain.CoverThirdParty},
		{
			domain.FieldRegistrationNumber: "KDA 123B",
			domain.FieldMake:               "Toyota",
			domain.FieldYearOfManufacture:  "2019",
			domain.FieldVehicleValue:       "1,200,000",
		},
		{domain.FieldProduct: "private_third_party"},
		{domain.FieldInsurer: "jubilee"},
		{
			domain.FieldFullName: "Achieng Odhiambo",
			domain.FieldPhone:    "0722000111",
			domain.FieldIDNumber: "29384756",
			domain.FieldKRAPin:   "A012345678B",
		},
	}
	for _, fields := range answers {
		draft.Merge(fields)
		errs, err := st.Advance()
		require.NoError(t, err, "step %d: %v", st.CurrentIndex(), errs)
	}
	current, _ := st.Current()
	assert.Equal(t, "documents", current.ID)

	errs, err := st.Advance()
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Len(t, errs, 2)

	draft.AttachDocument(domain.DocumentRef{Kind: domain.DocumentLogbook})
	draft.AttachDocument(domain.DocumentRef{Kind: domain.DocumentNationalID})
	_, err = st.Advance()
	require.NoError(t, err)

	errs, err = st.Advance()
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, errs, PremiumKey)

	draft.Premium = &domain.PremiumBreakdown{}
	_, err = st.Advance()
	require.NoError(t, err)
	assert.True(t, st.Completed())
	assert.Equal(t, 7, st.TotalApplicableSteps())
}

func TestFlowFor_MotorInsurerChoice(t *testing.T) {
	g, err := FlowFor(domain.InsuranceMotor)
	require.NoError(t, err)
	insurer, ok := g.Step(g.IndexOf("insurer"))
	require.True(t, ok)
	assert.Greater(t, g.IndexOf("insurer"), g.IndexOf("product"))

	draft := domain.NewQuoteDraft(domain.InsuranceMotor, created)
	errs := insurer.Validate(draft.Snapshot())
	assert.Equal(t, "Insurer is required", errs[domain.FieldInsurer])

	draft.Merge(map[string]string{domain.FieldInsurer: "acme"})
	errs = insurer.Validate(draft.Snapshot())
	assert.Contains(t, errs[domain.FieldInsurer], "must be one of")

	draft.Merge(map[string]string{domain.FieldInsurer: "madison"})
	assert.True(t, insurer.Validate(draft.Snapshot()).Empty())
}

func TestFlowFor_OwnerValidation(t *testing.T) {
	g, err := FlowFor(domain.InsuranceMotor)
	require.NoError(t, err)
	owner, ok := g.Step(g.IndexOf("owner"))
	require.True(t, ok)

	draft := domain.NewQuoteDraft(domain.InsuranceMotor, created)
	draft.Merge(map[string]string{
		domain.FieldFullName: "Kamau",
		domain.FieldPhone:    "12345",
		domain.FieldEmail:    "not-an-email",
		domain.FieldIDNumber: "11111111",
	})
	errs := owner.Validate(draft.Snapshot())
	assert.Equal(t, []string{domain.FieldEmail, domain.FieldIDNumber, domain.FieldKRAPin, domain.FieldPhone}, errs.Keys())
	assert.Equal(t, "KRA PIN is required", errs[domain.FieldKRAPin])
}
