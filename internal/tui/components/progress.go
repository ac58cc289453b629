package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/quotego/internal/tui/tuistyles"
)

// ProgressBar displays how far through the wizard the user is
type ProgressBar struct {
	Current   int
	Total     int
	Width     int
	Label     string
	ShowCount bool
}

// NewProgressBar creates a new progress bar
func NewProgressBar(current, total int) *ProgressBar {
	return &ProgressBar{
		Current:   current,
		Total:     total,
		Width:     30,
		ShowCount: true,
	}
}

// WithLabel sets the progress label
func (p *ProgressBar) WithLabel(label string) *ProgressBar {
	p.Label = label
	return p
}

// WithWidth sets the bar width
func (p *ProgressBar) WithWidth(width int) *ProgressBar {
	p.Width = width
	return p
}

// Percentage returns the completion percentage
func (p *ProgressBar) Percentage() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Total) * 100
}

// Render returns the styled progress bar
func (p *ProgressBar) Render() string {
	var content strings.Builder

	if p.Label != "" {
		labelStyle := lipgloss.NewStyle().
			Foreground(tuistyles.ColorForeground).
			Bold(true)
		content.WriteString(labelStyle.Render(p.Label))
		content.WriteString(" ")
	}

	filled := int(float64(p.Width) * p.Percentage() / 100)
	if filled > p.Width {
		filled = p.Width
	}
	empty := p.Width - filled

	barStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorSuccess)
	emptyStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorBorder)

	content.WriteString("[")
	if filled > 0 {
		content.WriteString(barStyle.Render(strings.Repeat("█", filled)))
	}
	if empty > 0 {
		content.WriteString(emptyStyle.Render(strings.Repeat("░", empty)))
	}
	content.WriteString("]")

	if p.ShowCount {
		countStyle := lipgloss.NewStyle().Foreground(tuistyles.ColorMuted)
		content.WriteString(" ")
		content.WriteString(countStyle.Render(fmt.Sprintf("%d/%d", p.Current, p.Total)))
	}
	return content.String()
}

// StepStatus is the state of one entry in a StepIndicator
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepCurrent  StepStatus = "current"
	StepComplete StepStatus = "complete"
	StepError    StepStatus = "error"
)

// StepItem is a single step in the indicator
type StepItem struct {
	Label  string
	Status StepStatus
}

// StepIndicator lists the visible steps of a flow with their status
type StepIndicator struct {
	Items []StepItem
}

// NewStepIndicator builds an indicator for labels, marking everything before
// current complete. A current index past the end marks every step complete.
func NewStepIndicator(labels []string, current int, failed bool) *StepIndicator {
	si := &StepIndicator{Items: make([]StepItem, len(labels))}
	for i, label := range labels {
		status := StepPending
		switch {
		case i < current:
			status = StepComplete
		case i == current && failed:
			status = StepError
		case i == current:
			status = StepCurrent
		}
		si.Items[i] = StepItem{Label: label, Status: status}
	}
	return si
}

// Render returns one line per step
func (si *StepIndicator) Render() string {
	lines := make([]string, 0, len(si.Items))
	for _, item := range si.Items {
		icon := statusStyle(item.Status).Render(statusIcon(item.Status))
		label := lipgloss.NewStyle().Foreground(tuistyles.ColorForeground)
		if item.Status == StepCurrent || item.Status == StepError {
			label = label.Bold(true)
		}
		lines = append(lines, icon+" "+label.Render(item.Label))
	}
	return strings.Join(lines, "\n")
}

func statusIcon(status StepStatus) string {
	switch status {
	case StepCurrent:
		return "◐"
	case StepComplete:
		return "●"
	case StepError:
		return "✗"
	default:
		return "○"
	}
}

func statusStyle(status StepStatus) lipgloss.Style {
	switch status {
	case StepCurrent:
		return lipgloss.NewStyle().Foreground(tuistyles.ColorInfo)
	case StepComplete:
		return lipgloss.NewStyle().Foreground(tuistyles.ColorSuccess)
	case StepError:
		return lipgloss.NewStyle().Foreground(tuistyles.ColorDanger)
	default:
		return lipgloss.NewStyle().Foreground(tuistyles.ColorMuted)
	}
}
