package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmittedQuote is the finalized draft handed to the storage collaborator
type SubmittedQuote struct {
	Reference     string          `yaml:"reference" json:"reference"`
	InsuranceType InsuranceType   `yaml:"insurance_type" json:"insuranceType"`
	Status        QuoteStatus     `yaml:"status" json:"status"`
	AgentID       string          `yaml:"agent_id" json:"agentId"`
	Total         decimal.Decimal `yaml:"total" json:"total"`
	SubmittedAt   time.Time       `yaml:"submitted_at" json:"submittedAt"`
	Draft         QuoteDraft      `yaml:"draft" json:"draft"`
}

// NewSubmittedQuote freezes a copy of the draft for submission
func NewSubmittedQuote(draft *QuoteDraft, agentID string, now time.Time) *SubmittedQuote {
	frozen := draft.Clone()
	frozen.Status = StatusSubmitted
	frozen.AgentID = agentID
	frozen.UpdatedAt = now

	total := decimal.Zero
	if frozen.Premium != nil {
		total = frozen.Premium.Total
	}
	return &SubmittedQuote{
		Reference:     NewQuoteReference(draft.InsuranceType, now),
		InsuranceType: draft.InsuranceType,
		Status:        StatusSubmitted,
		AgentID:       agentID,
		Total:         total,
		SubmittedAt:   now,
		Draft:         *frozen,
	}
}

// NewQuoteReference builds a reference such as QT-MTR-20250101-1a2b3c4d
func NewQuoteReference(t InsuranceType, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("QT-%s-%s-%s", t.ReferencePrefix(), now.Format("20060102"), suffix)
}
