package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/quotego/internal/calculation"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/rates"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of rate tables, add-on catalogs, line
// configurations and draft files
type InputParser struct {
	now func() time.Time
}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{now: time.Now}
}

// LineDocument is the YAML layout of one insurance line: the rate table keys
// (line, base, factors, minimums) and the add-on list in a single file.
type LineDocument struct {
	Table   *rates.RateTable
	AddOns  *domain.AddOnCatalog
	Pricing *calculation.LineConfig
}

type lineDocumentYAML struct {
	Pricing *calculation.LineConfig `yaml:"pricing"`
}

// LoadLineDocument loads a rate table and its add-on catalog from one file
func (ip *InputParser) LoadLineDocument(filename string) (*LineDocument, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	doc, err := ip.ParseLineDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return doc, nil
}

// ParseLineDocument parses and validates a line document
func (ip *InputParser) ParseLineDocument(data []byte) (*LineDocument, error) {
	var table rates.RateTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	var catalog domain.AddOnCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	var extra lineDocumentYAML
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateRateTable(&table); err != nil {
		return nil, fmt.Errorf("rate table validation failed: %w", err)
	}
	if catalog.Line == "" {
		catalog.Line = table.Line
	}
	if err := ip.ValidateAddOnCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("add-on validation failed: %w", err)
	}
	if extra.Pricing != nil {
		if extra.Pricing.Line == "" {
			extra.Pricing.Line = table.Line
		}
		if err := ip.ValidateLineConfig(extra.Pricing); err != nil {
			return nil, fmt.Errorf("pricing configuration validation failed: %w", err)
		}
	}

	return &LineDocument{Table: &table, AddOns: &catalog, Pricing: extra.Pricing}, nil
}

// LoadRateTable loads a rate table from a YAML file
func (ip *InputParser) LoadRateTable(filename string) (*rates.RateTable, error) {
	doc, err := ip.LoadLineDocument(filename)
	if err != nil {
		return nil, err
	}
	return doc.Table, nil
}

// ValidateRateTable validates a loaded rate table
func (ip *InputParser) ValidateRateTable(table *rates.RateTable) error {
	if _, err := domain.ParseInsuranceType(string(table.Line)); err != nil {
		return err
	}
	if err := table.Validate(); err != nil {
		return err
	}
	for category, tiers := range table.Base {
		for tier, entries := range tiers {
			for key, rate := range entries {
				if !rate.IsPositive() {
					return fmt.Errorf("base rate %s/%s/%s must be positive", category, tier, key)
				}
			}
		}
	}
	return nil
}

// ValidateAddOnCatalog validates add-on definitions
func (ip *InputParser) ValidateAddOnCatalog(catalog *domain.AddOnCatalog) error {
	seen := make(map[string]bool, len(catalog.AddOns))
	for i, a := range catalog.AddOns {
		if a.ID == "" {
			return fmt.Errorf("add-on %d: id is required", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("add-on %s: duplicate id", a.ID)
		}
		seen[a.ID] = true
		if a.Name == "" {
			return fmt.Errorf("add-on %s: name is required", a.ID)
		}
		switch a.PricingMode {
		case domain.PricingFlat, domain.PricingPercentage:
		default:
			return fmt.Errorf("add-on %s: unknown pricing mode %q", a.ID, a.PricingMode)
		}
		if a.Amount.IsNegative() {
			return fmt.Errorf("add-on %s: amount cannot be negative", a.ID)
		}
		if a.PricingMode == domain.PricingPercentage && a.Amount.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("add-on %s: percentage cannot exceed 100", a.ID)
		}
		if a.Minimum.IsNegative() {
			return fmt.Errorf("add-on %s: minimum cannot be negative", a.ID)
		}
		for _, c := range a.Conditions {
			if c.Field == "" || len(c.In) == 0 {
				return fmt.Errorf("add-on %s: conditions need a field and at least one value", a.ID)
			}
		}
	}
	return nil
}

// LoadLineConfig loads a pricing configuration override from a YAML file
func (ip *InputParser) LoadLineConfig(filename string) (*calculation.LineConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	var lc calculation.LineConfig
	if err := yaml.Unmarshal(data, &lc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := ip.ValidateLineConfig(&lc); err != nil {
		return nil, fmt.Errorf("pricing configuration validation failed: %w", err)
	}
	return &lc, nil
}

// ValidateLineConfig validates a pricing configuration
func (ip *InputParser) ValidateLineConfig(lc *calculation.LineConfig) error {
	if _, err := domain.ParseInsuranceType(string(lc.Line)); err != nil {
		return err
	}
	return lc.Validate()
}

// draftFile is the on-disk layout accepted by LoadDraft
type draftFile struct {
	ID            string               `yaml:"id"`
	InsuranceType string               `yaml:"insurance_type"`
	Fields        map[string]yaml.Node `yaml:"fields"`
	AddOns        []string             `yaml:"add_ons"`
	Documents     []domain.DocumentRef `yaml:"documents"`
	AgentID       string               `yaml:"agent_id"`
	CreatedAt     *time.Time           `yaml:"created_at"`
}

// LoadDraft loads a draft from a YAML file
func (ip *InputParser) LoadDraft(filename string) (*domain.QuoteDraft, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.ParseDraft(data)
}

// ParseDraft parses a draft document. Scalar field values of any YAML type
// are kept as their literal text.
func (ip *InputParser) ParseDraft(data []byte) (*domain.QuoteDraft, error) {
	var raw draftFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	line, err := domain.ParseInsuranceType(raw.InsuranceType)
	if err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}

	created := ip.now()
	if raw.CreatedAt != nil {
		created = *raw.CreatedAt
	}
	draft := domain.NewQuoteDraft(line, created)
	if raw.ID != "" {
		if _, err := uuid.Parse(raw.ID); err != nil {
			return nil, fmt.Errorf("draft validation failed: id %q is not a UUID", raw.ID)
		}
		draft.ID = raw.ID
	}
	draft.AgentID = raw.AgentID

	fields := make(map[string]string, len(raw.Fields))
	for key, node := range raw.Fields {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("draft validation failed: field %s must be a scalar", key)
		}
		if node.Tag == "!!null" {
			continue
		}
		fields[key] = strings.TrimSpace(node.Value)
	}
	draft.Merge(fields)
	draft.SetAddOns(raw.AddOns)
	for _, doc := range raw.Documents {
		if doc.Kind == "" {
			return nil, fmt.Errorf("draft validation failed: document kind is required")
		}
		draft.AttachDocument(doc)
	}
	return draft, nil
}
