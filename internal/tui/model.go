// Package tui is a terminal front end for the quotation wizard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/quotego/internal/calculation"
	"github.com/rgehrsitz/quotego/internal/catalog"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/session"
	"github.com/rgehrsitz/quotego/internal/tui/tuistyles"
	"github.com/rgehrsitz/quotego/internal/wizard"
)

// Config carries the collaborators of the TUI. Extractor is optional.
type Config struct {
	Catalog   *catalog.Catalog
	Store     session.QuoteSaver
	Extractor session.Extractor
	Options   session.Options
	AgentID   string
}

// fieldInput is one editable row of a step. Document rows hold a file path.
type fieldInput struct {
	key      string
	label    string
	hint     string
	document string
	input    textinput.Model
}

// Model represents the entire application state
type Model struct {
	scene  Scene
	width  int
	height int

	catalog    *catalog.Catalog
	calculator *calculation.PremiumCalculator
	store      session.QuoteSaver
	extractor  session.Extractor
	opts       session.Options
	agentID    string

	lines      []domain.InsuranceType
	lineCursor int

	sess   *session.Session
	inputs []fieldInput
	focus  int

	addOnCursor int
	premium     *domain.PremiumBreakdown
	submitted   *domain.SubmittedQuote

	spinner     spinner.Model
	calculating bool
	submitting  bool

	jumping bool
	status  string
	err     error
}

// NewModel creates a new application model
func NewModel(cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sp.Style.Foreground(tuistyles.ColorPrimary)

	calc := cfg.Catalog.Calculator()
	if cfg.Options.Logger != nil {
		calc.SetLogger(cfg.Options.Logger)
	}
	return Model{
		scene:      SceneLines,
		catalog:    cfg.Catalog,
		calculator: calc,
		store:      cfg.Store,
		extractor:  cfg.Extractor,
		opts:       cfg.Options,
		agentID:    cfg.AgentID,
		lines:      cfg.Catalog.Lines(),
		spinner:    sp,
		width:      80,
		height:     24,
	}
}

// Init initializes the model (required by tea.Model interface)
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) pricing(line domain.InsuranceType) session.Pricing {
	return session.Pricing{
		Calculator: m.calculator,
		Table:      m.catalog.Table(line),
		AddOns:     m.catalog.AddOns(line),
	}
}

// startQuote opens a session for the line and shows its first step
func (m Model) startQuote(line domain.InsuranceType) (Model, tea.Cmd) {
	sess, err := session.Start(line, m.pricing(line), m.opts)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.sess = sess
	m.premium = nil
	m.submitted = nil
	m.err = nil
	m.status = ""
	return m.loadStep()
}

// loadStep rebuilds the view for the session's current step
func (m Model) loadStep() (Model, tea.Cmd) {
	state := m.sess.State()
	if state.Step == nil || state.Step.ID == "review" || state.Completed {
		m.scene = SceneReview
		m.inputs = nil
		m.addOnCursor = 0
		return m.startCalculation()
	}

	m.scene = SceneStep
	m.inputs = buildInputs(*state.Step, state.Draft)
	m.focus = 0
	if len(m.inputs) == 0 {
		return m, nil
	}
	return m, m.inputs[0].input.Focus()
}

func buildInputs(step wizard.StepDefinition, draft *domain.QuoteDraft) []fieldInput {
	var inputs []fieldInput
	for _, f := range step.Fields {
		ti := textinput.New()
		ti.Prompt = "› "
		ti.CharLimit = 120
		ti.SetValue(draft.Field(f.Key))
		hint := f.Help
		switch f.Kind {
		case wizard.KindChoice:
			ti.SetSuggestions(f.Options)
			ti.ShowSuggestions = true
			if hint == "" {
				hint = fmt.Sprint(f.Options)
			}
		case wizard.KindFlag:
			ti.SetSuggestions([]string{"true", "false"})
			ti.ShowSuggestions = true
			if hint == "" {
				hint = "true / false"
			}
		}
		if f.Optional {
			hint = "optional " + hint
		}
		inputs = append(inputs, fieldInput{key: f.Key, label: f.Label, hint: hint, input: ti})
	}
	for _, kind := range step.RequiredDocuments {
		ti := textinput.New()
		ti.Prompt = "› "
		ti.Placeholder = "path to scanned document"
		if ref, ok := draft.Document(kind); ok {
			ti.SetValue(ref.URI)
		}
		inputs = append(inputs, fieldInput{
			key:      wizard.DocumentKey(kind),
			label:    "Document: " + kind,
			document: kind,
			input:    ti,
		})
	}
	return inputs
}

// commitStep writes the inputs to the session and tries to advance
func (m Model) commitStep() (Model, tea.Cmd) {
	partial := make(map[string]string, len(m.inputs))
	var docs []domain.DocumentRef
	attached := m.sess.Draft()
	for _, in := range m.inputs {
		value := in.input.Value()
		if in.document == "" {
			partial[in.key] = value
			continue
		}
		if value == "" {
			continue
		}
		if ref, ok := attached.Document(in.document); ok && ref.URI == value {
			continue
		}
		docs = append(docs, domain.DocumentRef{Kind: in.document, Name: filepath.Base(value), URI: value})
	}

	if _, err := m.sess.Update(partial); err != nil {
		m.err = err
		return m, nil
	}
	for _, ref := range docs {
		if err := m.attach(ref); err != nil {
			m.err = err
			return m, nil
		}
	}

	errs, err := m.sess.Advance()
	if errors.Is(err, wizard.ErrValidationFailed) {
		m.status = fmt.Sprintf("%d field(s) need attention", len(errs))
		return m, nil
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	m.status = ""
	m.err = nil
	return m.loadStep()
}

// attach records a document, reading field values from it when an extractor
// is configured
func (m Model) attach(ref domain.DocumentRef) error {
	if m.extractor == nil {
		return m.sess.AttachDocument(ref)
	}
	if _, err := m.sess.ApplyExtraction(context.Background(), m.extractor, ref); err != nil {
		return m.sess.AttachDocument(ref)
	}
	return nil
}

// retreat moves one step back, or back to the line list from the first step
func (m Model) retreat() (Model, tea.Cmd) {
	err := m.sess.Retreat()
	if errors.Is(err, wizard.ErrAtFirstStep) {
		m.sess.Close()
		m.sess = nil
		m.scene = SceneLines
		m.status = ""
		return m, nil
	}
	if err != nil {
		m.err = err
		return m, nil
	}
	m.premium = nil
	m.calculating = false
	return m.loadStep()
}

// startCalculation prices the draft in the background
func (m Model) startCalculation() (Model, tea.Cmd) {
	m.calculating = true
	m.premium = nil
	return m, tea.Batch(m.spinner.Tick, m.calculateCmd())
}

func (m Model) calculateCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		res := <-sess.CalculateAsync(context.Background())
		return CalculationCompleteMsg{Premium: res.Premium, Err: res.Err}
	}
}

// submit completes the review step and hands the quote to the store
func (m Model) submit() (Model, tea.Cmd) {
	if m.premium == nil || m.calculating || m.submitting {
		return m, nil
	}
	if !m.sess.State().Completed {
		if _, err := m.sess.Advance(); err != nil {
			m.err = err
			return m, nil
		}
	}
	m.submitting = true
	m.status = "Submitting quote..."
	return m, tea.Batch(m.spinner.Tick, m.submitCmd())
}

func (m Model) submitCmd() tea.Cmd {
	sess, store, agent := m.sess, m.store, m.agentID
	return func() tea.Msg {
		quote, err := sess.Submit(context.Background(), store, agent)
		return SubmitCompleteMsg{Quote: quote, Err: err}
	}
}

// addOns lists the add-ons of the current line
func (m Model) addOns() []domain.AddOn {
	if m.sess == nil {
		return nil
	}
	catalog := m.catalog.AddOns(m.sess.Line())
	if catalog == nil {
		return nil
	}
	return catalog.AddOns
}
