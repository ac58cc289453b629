package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func TestQuoteDraft_Merge(t *testing.T) {
	draft := NewQuoteDraft(InsuranceMotor, testNow)
	draft.Merge(map[string]string{
		FieldVehicleCategory: "private",
		FieldCoverType:       CoverComprehensive,
	})

	touched := draft.Merge(map[string]string{FieldVehicleValue: "1000000"})
	assert.Equal(t, []string{FieldVehicleValue}, touched)
	assert.Equal(t, "private", draft.Field(FieldVehicleCategory), "unset keys keep their prior value")
	assert.Equal(t, "1000000", draft.Field(FieldVehicleValue))

	draft.Merge(map[string]string{FieldCoverType: ""})
	_, exists := draft.Fields[FieldCoverType]
	assert.False(t, exists, "empty value clears the field")
}

func TestQuoteDraft_AddOns(t *testing.T) {
	draft := NewQuoteDraft(InsuranceMotor, testNow)

	assert.True(t, draft.ToggleAddOn("loss_of_use"))
	assert.True(t, draft.ToggleAddOn("excess_protector"))
	assert.Equal(t, []string{"excess_protector", "loss_of_use"}, draft.SelectedAddOnIDs)

	assert.False(t, draft.ToggleAddOn("loss_of_use"))
	assert.False(t, draft.HasAddOn("loss_of_use"))

	draft.SetAddOns([]string{"b", "a", "b", " "})
	assert.Equal(t, []string{"a", "b"}, draft.SelectedAddOnIDs)
}

func TestQuoteDraft_AttachDocument(t *testing.T) {
	draft := NewQuoteDraft(InsuranceMotor, testNow)
	draft.AttachDocument(DocumentRef{Kind: DocumentLogbook, Name: "old.jpg"})
	draft.AttachDocument(DocumentRef{Kind: DocumentLogbook, Name: "new.jpg"})
	draft.AttachDocument(DocumentRef{Kind: DocumentNationalID, Name: "id.jpg"})

	require.Len(t, draft.Documents, 2)
	ref, ok := draft.Document(DocumentLogbook)
	require.True(t, ok)
	assert.Equal(t, "new.jpg", ref.Name)
}

func TestQuoteDraft_SnapshotIsIsolated(t *testing.T) {
	draft := NewQuoteDraft(InsuranceMotor, testNow)
	draft.Merge(map[string]string{FieldCoverType: CoverThirdParty, FieldHasTracking: "yes"})
	draft.ToggleAddOn("loss_of_use")

	snap := draft.Snapshot()
	draft.Merge(map[string]string{FieldCoverType: CoverComprehensive})
	draft.ToggleAddOn("loss_of_use")

	assert.True(t, snap.Is(FieldCoverType, "THIRD_PARTY"))
	assert.True(t, snap.HasAddOn("loss_of_use"))
	assert.True(t, snap.Flag(FieldHasTracking))
	assert.False(t, snap.Flag(FieldHasDashcam))
	assert.False(t, snap.HasPremium())
	assert.Equal(t, InsuranceMotor, snap.InsuranceType())
}

func TestQuoteDraft_Clone(t *testing.T) {
	draft := NewQuoteDraft(InsuranceWIBA, testNow)
	draft.Merge(map[string]string{FieldAnnualPayroll: "1000000"})
	draft.Premium = &PremiumBreakdown{
		Total:                 decimal.NewFromInt(50000),
		MultiplierAdjustments: []Adjustment{{Name: "industry_risk", Factor: decimal.NewFromInt(2)}},
	}

	clone := draft.Clone()
	clone.Fields[FieldAnnualPayroll] = "5"
	clone.Premium.MultiplierAdjustments[0].Name = "changed"

	assert.Equal(t, "1000000", draft.Field(FieldAnnualPayroll))
	assert.Equal(t, "industry_risk", draft.Premium.MultiplierAdjustments[0].Name)
	assert.NotSame(t, draft.Premium, clone.Premium)
}

func TestParseInsuranceType(t *testing.T) {
	tests := []struct {
		input    string
		expected InsuranceType
		wantErr  bool
	}{
		{"motor", InsuranceMotor, false},
		{" WIBA ", InsuranceWIBA, false},
		{"personal-accident", InsurancePersonalAccident, false},
		{"last_expense", InsuranceLastExpense, false},
		{"boat", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInsuranceType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAddOn_AppliesTo(t *testing.T) {
	addOn := AddOn{
		ID:         "excess_protector",
		Conditions: []FieldCondition{{Field: FieldCoverType, In: []string{CoverComprehensive}}},
	}

	draft := NewQuoteDraft(InsuranceMotor, testNow)
	draft.Merge(map[string]string{FieldCoverType: CoverThirdParty})
	assert.False(t, addOn.AppliesTo(draft.Snapshot()))

	draft.Merge(map[string]string{FieldCoverType: "Comprehensive"})
	assert.True(t, addOn.AppliesTo(draft.Snapshot()))

	catalog := &AddOnCatalog{Line: InsuranceMotor, AddOns: []AddOn{addOn, {ID: "loss_of_use"}}}
	assert.Len(t, catalog.Available(draft.Snapshot()), 2)
	_, ok := catalog.Find("missing")
	assert.False(t, ok)
}

func TestFieldErrors(t *testing.T) {
	errs := FieldErrors{}
	errs.Add("phone", "invalid phone")
	errs.Add("phone", "second message is ignored")
	errs.Merge(FieldErrors{"age": "required"})

	assert.Equal(t, "invalid phone", errs["phone"])
	assert.Equal(t, []string{"age", "phone"}, errs.Keys())
	assert.Equal(t, "age: required; phone: invalid phone", errs.Error())

	errs.Clear("age", "phone")
	assert.True(t, errs.Empty())
}

func TestNewSubmittedQuote(t *testing.T) {
	draft := NewQuoteDraft(InsuranceMotor, testNow)
	draft.Premium = &PremiumBreakdown{Total: decimal.NewFromInt(50300)}

	quote := NewSubmittedQuote(draft, "agent-7", testNow)
	assert.Regexp(t, `^QT-MTR-20250314-[0-9a-f]{8}$`, quote.Reference)
	assert.Equal(t, StatusSubmitted, quote.Draft.Status)
	assert.Equal(t, StatusDraft, draft.Status, "the live draft is not mutated")
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(50300)))
}
