package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuoteStatus tracks where a draft is in its lifecycle
type QuoteStatus string

const (
	StatusDraft     QuoteStatus = "draft"
	StatusQuoted    QuoteStatus = "quoted"
	StatusSubmitted QuoteStatus = "submitted"
	StatusConverted QuoteStatus = "converted"
	StatusExpired   QuoteStatus = "expired"
)

// ParseQuoteStatus converts user input into a QuoteStatus
func ParseQuoteStatus(s string) (QuoteStatus, error) {
	switch st := QuoteStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusDraft, StatusQuoted, StatusSubmitted, StatusConverted, StatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown quote status %q", s)
}

// DocumentRef points at a captured document. The binary itself lives outside
// the engine; only the reference travels with the draft.
type DocumentRef struct {
	Kind       string    `yaml:"kind" json:"kind"`
	Name       string    `yaml:"name" json:"name"`
	URI        string    `yaml:"uri" json:"uri"`
	UploadedAt time.Time `yaml:"uploaded_at" json:"uploadedAt"`
}

// QuoteDraft is the record being built by one wizard session
type QuoteDraft struct {
	ID                 string            `yaml:"id" json:"id"`
	InsuranceType      InsuranceType     `yaml:"insurance_type" json:"insuranceType"`
	CurrentStepIndex   int               `yaml:"current_step_index" json:"currentStepIndex"`
	HighestStepReached int               `yaml:"highest_step_reached" json:"highestStepReached"`
	Fields             map[string]string `yaml:"fields" json:"fields"`
	SelectedAddOnIDs   []string          `yaml:"add_ons,omitempty" json:"selectedAddOnIds,omitempty"`
	Documents          []DocumentRef     `yaml:"documents,omitempty" json:"documents,omitempty"`
	Premium            *PremiumBreakdown `yaml:"premium,omitempty" json:"premium,omitempty"`
	Status             QuoteStatus       `yaml:"status" json:"status"`
	AgentID            string            `yaml:"agent_id,omitempty" json:"agentId,omitempty"`
	CreatedAt          time.Time         `yaml:"created_at" json:"createdAt"`
	UpdatedAt          time.Time         `yaml:"updated_at" json:"updatedAt"`
}

// NewQuoteDraft creates an empty draft for the given line
func NewQuoteDraft(insuranceType InsuranceType, now time.Time) *QuoteDraft {
	return &QuoteDraft{
		ID:            uuid.NewString(),
		InsuranceType: insuranceType,
		Fields:        make(map[string]string),
		Status:        StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Field returns the trimmed value stored under key
func (d *QuoteDraft) Field(key string) string {
	if d.Fields == nil {
		return ""
	}
	return strings.TrimSpace(d.Fields[key])
}

// Merge applies a shallow update. Keys present in partial overwrite the prior
// value; an empty value removes the key. It returns the keys that were touched.
func (d *QuoteDraft) Merge(partial map[string]string) []string {
	if d.Fields == nil {
		d.Fields = make(map[string]string)
	}
	touched := make([]string, 0, len(partial))
	for key, value := range partial {
		if strings.TrimSpace(value) == "" {
			delete(d.Fields, key)
		} else {
			d.Fields[key] = value
		}
		touched = append(touched, key)
	}
	sort.Strings(touched)
	return touched
}

// HasAddOn reports whether the add-on is selected
func (d *QuoteDraft) HasAddOn(id string) bool {
	for _, selected := range d.SelectedAddOnIDs {
		if selected == id {
			return true
		}
	}
	return false
}

// ToggleAddOn flips the selection of an add-on and returns the new state
func (d *QuoteDraft) ToggleAddOn(id string) bool {
	for i, selected := range d.SelectedAddOnIDs {
		if selected == id {
			d.SelectedAddOnIDs = append(d.SelectedAddOnIDs[:i], d.SelectedAddOnIDs[i+1:]...)
			return false
		}
	}
	d.SelectedAddOnIDs = append(d.SelectedAddOnIDs, id)
	sort.Strings(d.SelectedAddOnIDs)
	return true
}

// SetAddOns replaces the add-on selection, dropping duplicates
func (d *QuoteDraft) SetAddOns(ids []string) {
	seen := make(map[string]bool, len(ids))
	selected := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, id)
	}
	sort.Strings(selected)
	d.SelectedAddOnIDs = selected
}

// AttachDocument adds a document reference, replacing one of the same kind
func (d *QuoteDraft) AttachDocument(ref DocumentRef) {
	for i, existing := range d.Documents {
		if existing.Kind == ref.Kind {
			d.Documents[i] = ref
			return
		}
	}
	d.Documents = append(d.Documents, ref)
}

// Document returns the attached document of the given kind
func (d *QuoteDraft) Document(kind string) (DocumentRef, bool) {
	for _, ref := range d.Documents {
		if ref.Kind == kind {
			return ref, true
		}
	}
	return DocumentRef{}, false
}

// Snapshot returns an immutable copy of the draft for predicates and validators
func (d *QuoteDraft) Snapshot() DraftSnapshot {
	fields := make(map[string]string, len(d.Fields))
	for k, v := range d.Fields {
		fields[k] = v
	}
	addOns := make(map[string]bool, len(d.SelectedAddOnIDs))
	for _, id := range d.SelectedAddOnIDs {
		addOns[id] = true
	}
	documents := make(map[string]bool, len(d.Documents))
	for _, ref := range d.Documents {
		documents[ref.Kind] = true
	}
	return DraftSnapshot{
		insuranceType: d.InsuranceType,
		fields:        fields,
		addOns:        addOns,
		documents:     documents,
		hasPremium:    d.Premium != nil,
		createdAt:     d.CreatedAt,
	}
}

// Clone returns a deep copy of the draft
func (d *QuoteDraft) Clone() *QuoteDraft {
	c := *d
	c.Fields = make(map[string]string, len(d.Fields))
	for k, v := range d.Fields {
		c.Fields[k] = v
	}
	c.SelectedAddOnIDs = append([]string(nil), d.SelectedAddOnIDs...)
	c.Documents = append([]DocumentRef(nil), d.Documents...)
	if d.Premium != nil {
		p := d.Premium.Clone()
		c.Premium = &p
	}
	return &c
}

// DraftSnapshot is a read-only view of a draft taken at one point in time
type DraftSnapshot struct {
	insuranceType InsuranceType
	fields        map[string]string
	addOns        map[string]bool
	documents     map[string]bool
	hasPremium    bool
	createdAt     time.Time
}

// InsuranceType returns the line of the snapshotted draft
func (s DraftSnapshot) InsuranceType() InsuranceType { return s.insuranceType }

// CreatedAt returns the creation time of the snapshotted draft
func (s DraftSnapshot) CreatedAt() time.Time { return s.createdAt }

// Field returns the trimmed value of key
func (s DraftSnapshot) Field(key string) string { return strings.TrimSpace(s.fields[key]) }

// Has reports whether key carries a non-blank value
func (s DraftSnapshot) Has(key string) bool { return s.Field(key) != "" }

// Is reports whether key equals value, ignoring case
func (s DraftSnapshot) Is(key, value string) bool {
	return strings.EqualFold(s.Field(key), value)
}

// Flag interprets the field as a boolean answer
func (s DraftSnapshot) Flag(key string) bool {
	switch strings.ToLower(s.Field(key)) {
	case "yes", "y", "on":
		return true
	}
	b, err := strconv.ParseBool(s.Field(key))
	return err == nil && b
}

func (s DraftSnapshot) HasAddOn(id string) bool      { return s.addOns[id] }
func (s DraftSnapshot) HasDocument(kind string) bool { return s.documents[kind] }
func (s DraftSnapshot) HasPremium() bool             { return s.hasPremium }

// AddOnIDs returns the selected add-ons in sorted order
func (s DraftSnapshot) AddOnIDs() []string {
	ids := make([]string, 0, len(s.addOns))
	for id := range s.addOns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
