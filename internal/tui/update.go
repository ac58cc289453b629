package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/quotego/internal/session"
	"github.com/rgehrsitz/quotego/internal/wizard"
)

// Update handles all messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case spinner.TickMsg:
		if !m.calculating && !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case CalculationCompleteMsg:
		// a newer calculation is already on its way
		if errors.Is(msg.Err, session.ErrStale) {
			return m, nil
		}
		m.calculating = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.premium = msg.Premium
		return m, nil

	case SubmitCompleteMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err
			m.status = "Submission failed; press enter to retry"
			return m, nil
		}
		m.err = nil
		m.status = ""
		m.submitted = msg.Quote
		m.sess = nil
		m.scene = SceneSubmitted
		return m, nil
	}

	return m.updateCurrentScene(msg)
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.sess != nil {
			m.sess.Close()
		}
		return m, tea.Quit
	case "q":
		// typed as text while a step is being filled in
		if m.scene != SceneStep {
			if m.sess != nil {
				m.sess.Close()
			}
			return m, tea.Quit
		}
	}

	if m.jumping {
		return m.handleJumpKey(msg)
	}
	if msg.String() == "ctrl+j" && m.sess != nil && !m.submitting {
		m.jumping = true
		m.status = fmt.Sprintf("Jump to step (1-%d), any other key cancels", len(m.sess.State().VisiblePath))
		return m, nil
	}

	switch m.scene {
	case SceneLines:
		return m.handleLinesKey(msg)
	case SceneStep:
		return m.handleStepKey(msg)
	case SceneReview:
		return m.handleReviewKey(msg)
	case SceneSubmitted:
		if msg.String() == "n" || msg.String() == "enter" {
			m.scene = SceneLines
			m.submitted = nil
			m.premium = nil
		}
		return m, nil
	}
	return m, nil
}

// handleJumpKey takes the step number typed after ctrl+j. Only steps already
// reached can be jumped to.
func (m Model) handleJumpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.jumping = false
	m.status = ""
	n, err := strconv.Atoi(msg.String())
	path := m.sess.State().VisiblePath
	if err != nil || n < 1 || n > len(path) {
		return m, nil
	}
	index := -1
	for i, step := range m.sess.Steps() {
		if step.ID == path[n-1] {
			index = i
			break
		}
	}
	if err := m.sess.JumpTo(index); err != nil {
		if errors.Is(err, wizard.ErrJumpNotAllowed) {
			m.status = "That step has not been reached yet"
			return m, nil
		}
		m.err = err
		return m, nil
	}
	m.err = nil
	m.premium = nil
	m.calculating = false
	return m.loadStep()
}

func (m Model) handleLinesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.lineCursor > 0 {
			m.lineCursor--
		}
	case "down", "j":
		if m.lineCursor < len(m.lines)-1 {
			m.lineCursor++
		}
	case "enter":
		if len(m.lines) == 0 {
			return m, nil
		}
		return m.startQuote(m.lines[m.lineCursor])
	}
	return m, nil
}

func (m Model) handleStepKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.commitStep()
	case "esc":
		return m.retreat()
	case "ctrl+r":
		if err := m.sess.Reset(); err != nil {
			m.err = err
			return m, nil
		}
		m.status = "Quote reset"
		return m.loadStep()
	case "tab":
		if len(m.inputs) == 0 {
			return m, nil
		}
		// accept a pending completion before moving on
		in := m.inputs[m.focus].input
		if suggestion := in.CurrentSuggestion(); suggestion != "" && suggestion != in.Value() && in.Value() != "" {
			return m.updateCurrentScene(msg)
		}
		return m.moveFocus(1)
	case "down":
		return m.moveFocus(1)
	case "shift+tab", "up":
		return m.moveFocus(-1)
	}
	return m.updateCurrentScene(msg)
}

func (m Model) moveFocus(delta int) (tea.Model, tea.Cmd) {
	if len(m.inputs) == 0 {
		return m, nil
	}
	m.inputs[m.focus].input.Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m, m.inputs[m.focus].input.Focus()
}

func (m Model) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	addOns := m.addOns()
	switch msg.String() {
	case "esc":
		if m.submitting {
			return m, nil
		}
		return m.retreat()
	case "up", "k":
		if m.addOnCursor > 0 {
			m.addOnCursor--
		}
	case "down", "j":
		if m.addOnCursor < len(addOns)-1 {
			m.addOnCursor++
		}
	case " ", "space":
		if len(addOns) == 0 || m.submitting {
			return m, nil
		}
		if _, err := m.sess.ToggleAddOn(addOns[m.addOnCursor].ID); err != nil {
			m.err = err
			return m, nil
		}
		return m.startCalculation()
	case "r":
		if m.submitting {
			return m, nil
		}
		return m.startCalculation()
	case "enter":
		return m.submit()
	}
	return m, nil
}

// updateCurrentScene forwards a message to the focused input
func (m Model) updateCurrentScene(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.scene != SceneStep || len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus].input, cmd = m.inputs[m.focus].input.Update(msg)
	return m, cmd
}
