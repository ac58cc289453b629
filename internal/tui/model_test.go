package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rgehrsitz/quotego/internal/catalog"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/session"
	"github.com/rgehrsitz/quotego/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) (Model, *store.MemoryStore) {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	quotes := store.NewMemoryStore()
	m := NewModel(Config{
		Catalog: cat,
		Store:   quotes,
		AgentID: "agent-7",
		Options: session.Options{
			SubmitAttempts: 1,
			Now:            func() time.Time { return time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC) },
		},
	})
	return m, quotes
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

// startMotor selects the motor line from the list
func startMotor(t *testing.T, m Model) Model {
	t.Helper()
	for i, line := range m.lines {
		if line == domain.InsuranceMotor {
			m.lineCursor = i
		}
	}
	m, _ = send(t, m, key("enter"))
	require.Equal(t, SceneStep, m.scene)
	return m
}

// fillToReview answers every motor step through the session directly
func fillToReview(t *testing.T, m Model) Model {
	t.Helper()
	answers := []map[string]string{
		{domain.FieldVehicleCategory: "private", domain.FieldCoverType: domain.CoverThirdParty},
		{
			domain.FieldRegistrationNumber: "KCA 001A",
			domain.FieldMake:               "Mazda",
			domain.FieldYearOfManufacture:  "2018",
			domain.FieldVehicleValue:       "800000",
		},
		{domain.FieldProduct: "private_third_party"},
		{domain.FieldInsurer: "jubilee"},
		{
			domain.FieldFullName: "Wairimu Njoroge",
			domain.FieldPhone:    "0700111222",
			domain.FieldIDNumber: "30405060",
			domain.FieldKRAPin:   "A987654321C",
		},
	}
	for _, a := range answers {
		_, err := m.sess.Update(a)
		require.NoError(t, err)
		errs, err := m.sess.Advance()
		require.NoError(t, err, "%v", errs)
	}
	m, _ = m.loadStep()
	require.Equal(t, "documents", m.sess.State().StepID)
	return m
}

func TestModel_StartsOnLineList(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, SceneLines, m.scene)
	assert.Equal(t, domain.AllInsuranceTypes(), m.lines)
	assert.Contains(t, m.View(), "Choose an insurance line")

	m, _ = send(t, m, key("down"))
	assert.Equal(t, 1, m.lineCursor)
	m, _ = send(t, m, key("k"))
	assert.Equal(t, 0, m.lineCursor)
}

func TestModel_StepValidation(t *testing.T) {
	m, _ := newTestModel(t)
	m = startMotor(t, m)

	m, _ = send(t, m, key("enter"))
	assert.Equal(t, SceneStep, m.scene)
	assert.Equal(t, "vehicle_category", m.sess.State().StepID)
	assert.Equal(t, "2 field(s) need attention", m.status)
	assert.Contains(t, m.View(), "Vehicle category")
}

func TestModel_TypeAndAdvance(t *testing.T) {
	m, _ := newTestModel(t)
	m = startMotor(t, m)

	m, _ = send(t, m, key("private"))
	m, _ = send(t, m, key("down"))
	m, _ = send(t, m, key(domain.CoverThirdParty))
	m, _ = send(t, m, key("enter"))

	require.Empty(t, m.status)
	assert.Equal(t, "vehicle_details", m.sess.State().StepID)
	assert.Equal(t, "private", m.sess.Draft().Field(domain.FieldVehicleCategory))
}

func TestModel_EscOnFirstStepReturnsToLines(t *testing.T) {
	m, _ := newTestModel(t)
	m = startMotor(t, m)
	sess := m.sess

	m, _ = send(t, m, key("esc"))
	assert.Equal(t, SceneLines, m.scene)
	assert.Nil(t, m.sess)
	assert.True(t, sess.Closed())
}

func TestModel_DocumentsReviewAndSubmit(t *testing.T) {
	m, quotes := newTestModel(t)
	m = startMotor(t, m)
	m = fillToReview(t, m)

	require.Len(t, m.inputs, 2)
	m.inputs[0].input.SetValue("/scans/logbook.jpg")
	m.inputs[1].input.SetValue("/scans/id.jpg")
	m, cmd := send(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, SceneReview, m.scene)
	assert.True(t, m.calculating)

	ref, ok := m.sess.Draft().Document(domain.DocumentLogbook)
	require.True(t, ok)
	assert.Equal(t, "logbook.jpg", ref.Name)

	m, _ = send(t, m, m.calculateCmd()())
	assert.False(t, m.calculating)
	require.NotNil(t, m.premium)
	assert.Equal(t, "15200", m.premium.Total.String())
	assert.Contains(t, m.View(), "KES 15,200.00")

	m, cmd = send(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.True(t, m.submitting)

	m, _ = send(t, m, m.submitCmd()())
	assert.Equal(t, SceneSubmitted, m.scene)
	require.NotNil(t, m.submitted)
	assert.Contains(t, m.View(), m.submitted.Reference)

	saved, err := quotes.Get(context.Background(), m.submitted.Reference)
	require.NoError(t, err)
	assert.Equal(t, "agent-7", saved.AgentID)

	m, _ = send(t, m, key("n"))
	assert.Equal(t, SceneLines, m.scene)
}

func TestModel_StaleCalculationIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m.calculating = true

	m, _ = send(t, m, CalculationCompleteMsg{Err: session.ErrStale})
	assert.True(t, m.calculating, "a stale result leaves the pending calculation running")
	assert.Nil(t, m.err)
}

func TestModel_QuitKeys(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := send(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	m = startMotor(t, m)
	m, _ = send(t, m, key("q"))
	assert.Equal(t, SceneStep, m.scene, "q is typed into the field while filling a step")
	assert.Equal(t, "q", m.inputs[0].input.Value())
}

func TestModel_JumpToReachedStep(t *testing.T) {
	m, _ := newTestModel(t)
	m = startMotor(t, m)
	_, err := m.sess.Update(map[string]string{domain.FieldVehicleCategory: "private", domain.FieldCoverType: domain.CoverThirdParty})
	require.NoError(t, err)
	_, err = m.sess.Advance()
	require.NoError(t, err)
	m, _ = m.loadStep()
	require.Equal(t, "vehicle_details", m.sess.State().StepID)

	jump := tea.KeyMsg{Type: tea.KeyCtrlJ}

	m, _ = send(t, m, jump)
	assert.True(t, m.jumping)
	m, _ = send(t, m, key("3"))
	assert.False(t, m.jumping)
	assert.Equal(t, "That step has not been reached yet", m.status)
	assert.Equal(t, "vehicle_details", m.sess.State().StepID)

	m, _ = send(t, m, jump)
	m, _ = send(t, m, key("1"))
	assert.Equal(t, "vehicle_category", m.sess.State().StepID)
	assert.Equal(t, "private", m.inputs[0].input.Value(), "inputs reload from the draft")

	m, _ = send(t, m, jump)
	m, _ = send(t, m, key("x"))
	assert.False(t, m.jumping)
	assert.Equal(t, "vehicle_category", m.sess.State().StepID)
	assert.Equal(t, "private", m.inputs[0].input.Value(), "a cancelled jump does not type into the field")
}
