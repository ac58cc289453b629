package store

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/output"
	"github.com/shopspring/decimal"
)

// ExportFormats lists the names accepted by Export
var ExportFormats = []string{"table", "json", "csv"}

// ExportEnvelope wraps exported quotes in JSON output
type ExportEnvelope struct {
	ExportedAt time.Time                `json:"exportedAt"`
	Count      int                      `json:"count"`
	Total      decimal.Decimal          `json:"total"`
	Quotes     []*domain.SubmittedQuote `json:"quotes"`
}

// Export renders quotes in the named format
func Export(format string, quotes []*domain.SubmittedQuote, now time.Time) (string, error) {
	switch strings.ToLower(format) {
	case "", "table":
		return (&TableFormatter{}).Format(quotes), nil
	case "json":
		return (&JSONFormatter{Pretty: true, Now: func() time.Time { return now }}).Format(quotes)
	case "csv":
		return (&CSVFormatter{}).Format(quotes)
	default:
		return "", fmt.Errorf("unknown export format %q (want %s)", format, strings.Join(ExportFormats, ", "))
	}
}

// TableFormatter formats saved quotes as a console table
type TableFormatter struct{}

// Format generates a table of quotes followed by per-line totals
func (tf *TableFormatter) Format(quotes []*domain.SubmittedQuote) string {
	var sb strings.Builder

	sb.WriteString("SAVED QUOTES\n")
	sb.WriteString(strings.Repeat("=", 96) + "\n")

	refWidth := 30
	lineWidth := 18
	statusWidth := 10
	agentWidth := 12
	numWidth := 14

	sb.WriteString(fmt.Sprintf("%-*s %-*s %-*s %-*s %*s  %s\n",
		refWidth, "Reference",
		lineWidth, "Line",
		statusWidth, "Status",
		agentWidth, "Agent",
		numWidth, "Total (KES)",
		"Submitted"))
	sb.WriteString(strings.Repeat("-", 96) + "\n")

	if len(quotes) == 0 {
		sb.WriteString("(no quotes)\n")
		sb.WriteString(strings.Repeat("=", 96) + "\n")
		return sb.String()
	}

	totals := make(map[domain.InsuranceType]decimal.Decimal)
	counts := make(map[domain.InsuranceType]int)
	grand := decimal.Zero
	for _, q := range quotes {
		sb.WriteString(fmt.Sprintf("%-*s %-*s %-*s %-*s %*s  %s\n",
			refWidth, tf.truncate(q.Reference, refWidth),
			lineWidth, tf.truncate(q.InsuranceType.DisplayName(), lineWidth),
			statusWidth, string(q.Status),
			agentWidth, tf.truncate(q.AgentID, agentWidth),
			numWidth, output.FormatAmount(q.Total),
			q.SubmittedAt.Format("2006-01-02 15:04")))
		totals[q.InsuranceType] = totals[q.InsuranceType].Add(q.Total)
		counts[q.InsuranceType]++
		grand = grand.Add(q.Total)
	}
	sb.WriteString(strings.Repeat("=", 96) + "\n")

	sb.WriteString("\nTOTALS BY LINE\n")
	sb.WriteString(strings.Repeat("-", 48) + "\n")
	lines := make([]domain.InsuranceType, 0, len(totals))
	for line := range totals {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i] < lines[j] })
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("%-*s %4d %*s\n",
			lineWidth, line.DisplayName(), counts[line], numWidth, output.FormatAmount(totals[line])))
	}
	sb.WriteString(fmt.Sprintf("%-*s %4d %*s\n", lineWidth, "All lines", len(quotes), numWidth, output.FormatAmount(grand)))

	return sb.String()
}

func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// JSONFormatter formats saved quotes as JSON
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
	Now    func() time.Time
}

// Format generates an ExportEnvelope document
func (jf *JSONFormatter) Format(quotes []*domain.SubmittedQuote) (string, error) {
	now := time.Now
	if jf.Now != nil {
		now = jf.Now
	}
	if quotes == nil {
		quotes = []*domain.SubmittedQuote{}
	}
	env := ExportEnvelope{ExportedAt: now().UTC(), Count: len(quotes), Total: decimal.Zero, Quotes: quotes}
	for _, q := range quotes {
		env.Total = env.Total.Add(q.Total)
	}

	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(env, "", "  ")
	} else {
		data, err = json.Marshal(env)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// CSVFormatter formats saved quotes as CSV, one row per quote
type CSVFormatter struct{}

// Format generates CSV output
func (cf *CSVFormatter) Format(quotes []*domain.SubmittedQuote) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Reference",
		"Line",
		"Status",
		"Agent",
		"Submitted At",
		"Product",
		"Premium",
		"Add-ons",
		"Statutory Levies",
		"Total",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	for _, q := range quotes {
		if err := writer.Write(cf.formatRow(q)); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func (cf *CSVFormatter) formatRow(q *domain.SubmittedQuote) []string {
	product, base, addOns, levies := "", "", "", ""
	if p := q.Draft.Premium; p != nil {
		product = p.Product
		base = p.PremiumAmount.StringFixed(2)
		addOns = p.AddOnTotal.StringFixed(2)
		levies = p.StatutoryCharges.Total().StringFixed(2)
	}
	return []string{
		q.Reference,
		string(q.InsuranceType),
		string(q.Status),
		q.AgentID,
		q.SubmittedAt.UTC().Format(time.RFC3339),
		product,
		base,
		addOns,
		levies,
		q.Total.StringFixed(2),
	}
}
