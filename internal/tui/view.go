package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/quotego/internal/output"
	"github.com/rgehrsitz/quotego/internal/tui/components"
)

// View renders the current state of the application
func (m Model) View() string {
	var content string
	switch m.scene {
	case SceneLines:
		content = m.renderLines()
	case SceneStep:
		content = m.renderStep()
	case SceneReview:
		content = m.renderReview()
	case SceneSubmitted:
		content = m.renderSubmitted()
	default:
		content = "Unknown scene"
	}
	return m.renderApp(content)
}

// renderApp wraps content with title bar and status bar
func (m Model) renderApp(content string) string {
	parts := []string{m.renderTitleBar(), content}
	if m.err != nil {
		parts = append(parts, ErrorStyle.Render("Error: "+m.err.Error()))
	}
	if m.status != "" {
		parts = append(parts, InfoStyle.Render(m.status))
	}
	parts = append(parts, m.renderStatusBar())
	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderTitleBar() string {
	title := TitleStyle.Render("quotego - Insurance Quotation")
	crumb := m.scene.String()
	if m.sess != nil {
		crumb = fmt.Sprintf("%s / %s", m.sess.Line().DisplayName(), crumb)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, SubtitleStyle.Render(crumb))
}

// renderStatusBar lists the keys that work in the current scene
func (m Model) renderStatusBar() string {
	var shortcuts []string
	switch m.scene {
	case SceneLines:
		shortcuts = []string{formatShortcut("↑/↓", "choose"), formatShortcut("enter", "start quote"), formatShortcut("q", "quit")}
	case SceneStep:
		shortcuts = []string{formatShortcut("tab", "next field"), formatShortcut("enter", "continue"), formatShortcut("esc", "back"), formatShortcut("ctrl+j", "jump"), formatShortcut("ctrl+r", "reset"), formatShortcut("ctrl+c", "quit")}
	case SceneReview:
		shortcuts = []string{formatShortcut("space", "toggle add-on"), formatShortcut("r", "recalculate"), formatShortcut("enter", "submit"), formatShortcut("esc", "back"), formatShortcut("ctrl+j", "jump"), formatShortcut("q", "quit")}
	case SceneSubmitted:
		shortcuts = []string{formatShortcut("n", "new quote"), formatShortcut("q", "quit")}
	}
	return StatusBarStyle.Width(m.width).Render(strings.Join(shortcuts, " • "))
}

func formatShortcut(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func (m Model) renderLines() string {
	var b strings.Builder
	b.WriteString("Choose an insurance line\n\n")
	for i, line := range m.lines {
		if i == m.lineCursor {
			b.WriteString(SelectedItemStyle.Render("▸ " + line.DisplayName()))
		} else {
			b.WriteString(UnselectedItemStyle.Render("  " + line.DisplayName()))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderProgress shows the visible path with the current step highlighted
func (m Model) renderProgress() string {
	state := m.sess.State()
	var labels []string
	current := len(state.VisiblePath)
	for i, id := range state.VisiblePath {
		labels = append(labels, stepTitle(m, id))
		if id == state.StepID {
			current = i
		}
	}
	indicator := components.NewStepIndicator(labels, current, len(state.Errors) > 0)
	bar := components.NewProgressBar(min(current, len(labels)), len(labels)).WithWidth(24)
	return lipgloss.JoinVertical(lipgloss.Left, bar.Render(), "", indicator.Render())
}

func stepTitle(m Model, id string) string {
	for _, step := range m.sess.Steps() {
		if step.ID == id {
			return step.Title
		}
	}
	return id
}

func (m Model) renderStep() string {
	state := m.sess.State()
	var b strings.Builder
	if state.Step != nil {
		b.WriteString(TitleStyle.Render(state.Step.Title))
		b.WriteString("\n")
	}
	for i, in := range m.inputs {
		label := in.label
		if i == m.focus {
			label = SelectedItemStyle.Render(label)
		}
		b.WriteString(LabelStyle.Render(label))
		b.WriteString(in.input.View())
		if in.hint != "" {
			b.WriteString("  " + HelpDescStyle.Render(in.hint))
		}
		b.WriteString("\n")
		if msg, ok := state.Errors[in.key]; ok {
			b.WriteString(ErrorStyle.Render("    " + msg))
			b.WriteString("\n")
		}
	}
	if len(m.inputs) == 0 {
		b.WriteString(SubtitleStyle.Render("Nothing to fill in here. Press enter to continue."))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(34).Render(m.renderProgress()),
		b.String(),
	)
}

func (m Model) renderReview() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Review and premium"))
	b.WriteString("\n")

	addOns := m.addOns()
	if len(addOns) > 0 {
		draft := m.sess.Draft()
		b.WriteString("Add-ons\n")
		for i, a := range addOns {
			box := "[ ]"
			if draft.HasAddOn(a.ID) {
				box = "[x]"
			}
			line := fmt.Sprintf("%s %s", box, a.Name)
			if i == m.addOnCursor {
				b.WriteString(SelectedItemStyle.Render("▸ " + line))
			} else {
				b.WriteString(UnselectedItemStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	switch {
	case m.calculating:
		b.WriteString(m.spinner.View() + " Calculating premium...")
	case m.premium != nil:
		if data, err := (output.ConsoleFormatter{}).Format(m.premium); err == nil {
			b.Write(data)
		}
		b.WriteString("\n")
		b.WriteString(TotalStyle.Render("Total " + FormatCurrency(m.premium.Total)))
	default:
		b.WriteString(SubtitleStyle.Render("No premium yet. Press r to calculate."))
	}
	if m.submitting {
		b.WriteString("\n" + m.spinner.View() + " Submitting...")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(34).Render(m.renderProgress()),
		b.String(),
	)
}

func (m Model) renderSubmitted() string {
	if m.submitted == nil {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("Quote submitted"),
		fmt.Sprintf("Reference: %s", m.submitted.Reference),
		fmt.Sprintf("Line:      %s", m.submitted.InsuranceType.DisplayName()),
		"",
		TotalStyle.Render("Total "+FormatCurrency(m.submitted.Total)),
	)
}
