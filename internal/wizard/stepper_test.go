package wizard

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

// fourStepGraph has a third step that only applies to comprehensive cover
func fourStepGraph(t *testing.T) *StepGraph {
	t.Helper()
	g, err := NewStepGraph(domain.InsuranceMotor,
		step(1, "cover", "Cover", choice(domain.FieldCoverType, "Cover type", domain.CoverComprehensive, domain.CoverThirdParty)),
		step(2, "vehicle", "Vehicle", number(domain.FieldVehicleValue, "Value")),
		step(3, "addons", "Add-ons").when(Is(domain.FieldCoverType, domain.CoverComprehensive)),
		step(4, "owner", "Owner", text(domain.FieldFullName, "Full name")),
	)
	require.NoError(t, err)
	return g
}

func newStepper(t *testing.T, g *StepGraph, fields map[string]string) (*Stepper, *domain.QuoteDraft) {
	t.Helper()
	draft := domain.NewQuoteDraft(g.Line, created)
	draft.Merge(fields)
	st, err := NewStepper(g, draft)
	require.NoError(t, err)
	return st, draft
}

func TestNewStepGraph_Errors(t *testing.T) {
	tests := []struct {
		name    string
		steps   []StepDefinition
		wantErr string
	}{
		{"empty", nil, "at least one step"},
		{"missing id", []StepDefinition{{Order: 1}}, "id is required"},
		{"duplicate id", []StepDefinition{{ID: "a", Order: 1}, {ID: "a", Order: 2}}, "duplicate id"},
		{"equal order", []StepDefinition{{ID: "a", Order: 1}, {ID: "b", Order: 1}}, "must be greater"},
		{"decreasing order", []StepDefinition{{ID: "a", Order: 2}, {ID: "b", Order: 1}}, "must be greater"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStepGraph(domain.InsuranceMotor, tt.steps...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewStepper_LineMismatch(t *testing.T) {
	g := fourStepGraph(t)
	_, err := NewStepper(g, domain.NewQuoteDraft(domain.InsuranceTravel, created))
	assert.Error(t, err)
}

func TestStepper_ConditionalSkip(t *testing.T) {
	g := fourStepGraph(t)
	st, draft := newStepper(t, g, map[string]string{
		domain.FieldCoverType:    domain.CoverThirdParty,
		domain.FieldVehicleValue: "500000",
	})

	_, err := st.Advance()
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentIndex())

	_, err = st.Advance()
	require.NoError(t, err)
	assert.Equal(t, 3, st.CurrentIndex(), "third party skips the add-on step")
	assert.Equal(t, 3, draft.HighestStepReached)
	assert.Equal(t, 3, st.TotalApplicableSteps())
}

func TestStepper_PredicateReevaluatedOnTraversal(t *testing.T) {
	g := fourStepGraph(t)
	st, draft := newStepper(t, g, map[string]string{
		domain.FieldCoverType:    domain.CoverThirdParty,
		domain.FieldVehicleValue: "500000",
	})
	_, err := st.Advance()
	require.NoError(t, err)

	draft.Merge(map[string]string{domain.FieldCoverType: domain.CoverComprehensive})
	_, err = st.Advance()
	require.NoError(t, err)
	assert.Equal(t, 2, st.CurrentIndex(), "comprehensive now visits the add-on step")

	draft.Merge(map[string]string{domain.FieldCoverType: domain.CoverThirdParty})
	require.NoError(t, st.Retreat())
	assert.Equal(t, 1, st.CurrentIndex())

	_, err = st.Advance()
	require.NoError(t, err)
	assert.Equal(t, 3, st.CurrentIndex())
}

func TestStepper_AdvanceValidationFailure(t *testing.T) {
	g := fourStepGraph(t)
	st, draft := newStepper(t, g, nil)

	errs, err := st.Advance()
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, []string{domain.FieldCoverType}, errs.Keys())
	assert.Equal(t, "Cover type is required", errs[domain.FieldCoverType])
	assert.Equal(t, 0, st.CurrentIndex())
	assert.Equal(t, 0, draft.HighestStepReached)

	draft.Merge(map[string]string{domain.FieldCoverType: "boat"})
	errs, err = st.Advance()
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, errs[domain.FieldCoverType], "must be one of")
}

func TestStepper_JumpTo(t *testing.T) {
	g := fourStepGraph(t)
	st, draft := newStepper(t, g, map[string]string{
		domain.FieldCoverType:    domain.CoverComprehensive,
		domain.FieldVehicleValue: "500000",
	})
	_, err := st.Advance()
	require.NoError(t, err)
	require.Equal(t, 1, draft.HighestStepReached)

	err = st.JumpTo(3)
	assert.ErrorIs(t, err, ErrJumpNotAllowed)
	assert.Equal(t, 1, st.CurrentIndex(), "rejected jump leaves state unchanged")
	assert.Equal(t, 1, st.HighestReached())

	require.NoError(t, st.JumpTo(0))
	assert.Equal(t, 0, st.CurrentIndex())
	assert.Equal(t, 1, st.HighestReached())

	assert.ErrorIs(t, st.JumpTo(-1), ErrJumpNotAllowed)
	assert.ErrorIs(t, st.JumpTo(g.Len()+1), ErrJumpNotAllowed)
}

func TestStepper_JumpToSubmitSentinelRejected(t *testing.T) {
	g := fourStepGraph(t)
	st, _ := newStepper(t, g, map[string]string{
		domain.FieldCoverType:    domain.CoverThirdParty,
		domain.FieldVehicleValue: "500000",
		domain.FieldFullName:     "Jane Wanjiku",
	})
	for !st.Completed() {
		_, err := st.Advance()
		require.NoError(t, err)
	}
	require.Equal(t, g.Len(), st.HighestReached())

	require.NoError(t, st.JumpTo(0))
	err := st.JumpTo(g.Len())
	assert.ErrorIs(t, err, ErrJumpNotAllowed)
	assert.Equal(t, 0, st.CurrentIndex())
	assert.False(t, st.Completed(), "only Advance reaches the sentinel")
}

func TestStepper_ValidateAll(t *testing.T) {
	g := fourStepGraph(t)
	st, draft := newStepper(t, g, map[string]string{
		domain.FieldCoverType:    domain.CoverThirdParty,
		domain.FieldVehicleValue: "500000",
		domain.FieldFullName:     "Jane Wanjiku",
	})
	for !st.Completed() {
		_, err := st.Advance()
		require.NoError(t, err)
	}
	assert.True(t, st.ValidateAll().Empty())

	draft.Merge(map[string]string{
		domain.FieldVehicleValue: "lots",
		domain.FieldFullName:     "",
	})
	errs := st.ValidateAll()
	assert.Equal(t, []string{domain.FieldFullName, domain.FieldVehicleValue}, errs.Keys())
	assert.True(t, st.Completed(), "validation does not move the stepper")
}

func TestStepper_JumpToInapplicableStep(t *testing.T) {
	g := fourStepGraph(t)
	st, draft := newStepper(t, g, map[string]string{
		domain.FieldCoverType:    domain.CoverComprehensive,
		domain.FieldVehicleValue: "500000",
	})
	for i := 0; i < 3; i++ {
		_, err := st.Advance()
		require.NoError(t, err)
	}
	require.Equal(t, 3, st.CurrentIndex())

	draft.Merge(map[string]string{domain.FieldCoverType: domain.CoverThirdParty})
	assert.ErrorIs(t, st.JumpTo(2), ErrStepNotApplicable)
	assert.Equal(t, 3, st.CurrentIndex())
}

func TestStepper_RetreatAndReset(t *testing.T) {
	g := fourStepGraph(t)
	st, draft := newStepper(t, g, map[string]string{
		domain.FieldCoverType:    domain.CoverThirdParty,
		domain.FieldVehicleValue: "500000",
		domain.FieldFullName:     "Jane Wanjiku",
	})

	assert.ErrorIs(t, st.Retreat(), ErrAtFirstStep)

	for !st.Completed() {
		_, err := st.Advance()
		require.NoError(t, err)
	}
	assert.Equal(t, g.Len(), st.CurrentIndex())
	_, ok := st.Current()
	assert.False(t, ok, "no step at the submit sentinel")
	_, err := st.Advance()
	assert.ErrorIs(t, err, ErrFlowComplete)

	require.NoError(t, st.Retreat())
	assert.Equal(t, 3, st.CurrentIndex())
	require.NoError(t, st.Retreat())
	assert.Equal(t, 1, st.CurrentIndex(), "retreat skips the add-on step too")

	st.Reset()
	assert.Equal(t, 0, st.CurrentIndex())
	assert.Equal(t, 0, st.HighestReached())
	assert.Equal(t, "Jane Wanjiku", draft.Field(domain.FieldFullName), "reset keeps draft fields")
}

func TestStepper_HighestReachedIsMonotonic(t *testing.T) {
	g := fourStepGraph(t)
	st, draft := newStepper(t, g, map[string]string{domain.FieldVehicleValue: "1"})
	rng := rand.New(rand.NewSource(42))
	covers := []string{domain.CoverComprehensive, domain.CoverThirdParty, ""}

	prev := st.HighestReached()
	for i := 0; i < 500; i++ {
		switch rng.Intn(5) {
		case 0, 1:
			_, _ = st.Advance()
		case 2:
			_ = st.Retreat()
		case 3:
			_ = st.JumpTo(rng.Intn(g.Len() + 2))
		case 4:
			draft.Merge(map[string]string{
				domain.FieldCoverType: covers[rng.Intn(len(covers))],
				domain.FieldFullName:  []string{"", "Otieno"}[rng.Intn(2)],
			})
		}
		require.GreaterOrEqual(t, st.HighestReached(), prev, "iteration %d", i)
		require.LessOrEqual(t, st.CurrentIndex(), st.HighestReached())
		prev = st.HighestReached()
	}
}

func TestStepper_VisiblePath(t *testing.T) {
	g := fourStepGraph(t)
	st, draft := newStepper(t, g, map[string]string{domain.FieldCoverType: domain.CoverComprehensive})

	ids := func() []string {
		var out []string
		for _, s := range st.VisiblePath() {
			out = append(out, s.ID)
		}
		return out
	}
	assert.Equal(t, []string{"cover", "vehicle", "addons", "owner"}, ids())

	draft.Merge(map[string]string{domain.FieldCoverType: domain.CoverThirdParty})
	assert.Equal(t, []string{"cover", "vehicle", "owner"}, ids())
}

func TestStepDefinition_RequiredDocuments(t *testing.T) {
	sd := step(1, "documents", "Documents").documents(domain.DocumentLogbook)
	draft := domain.NewQuoteDraft(domain.InsuranceMotor, created)

	errs := sd.Validate(draft.Snapshot())
	assert.Equal(t, "Logbook document is required", errs[DocumentKey(domain.DocumentLogbook)])

	draft.AttachDocument(domain.DocumentRef{Kind: domain.DocumentLogbook, Name: "logbook.pdf"})
	assert.True(t, sd.Validate(draft.Snapshot()).Empty())
}
