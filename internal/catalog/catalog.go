// Package catalog bundles the rate tables, add-on catalogs and pricing
// configurations of every insurance line.
package catalog

import (
	"embed"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rgehrsitz/quotego/internal/calculation"
	"github.com/rgehrsitz/quotego/internal/config"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/rgehrsitz/quotego/internal/rates"
)

//go:embed data/*.yaml
var builtin embed.FS

// Catalog holds one line document per insurance line
type Catalog struct {
	lines map[domain.InsuranceType]*config.LineDocument
}

// Load parses the built-in line documents
func Load() (*Catalog, error) {
	parser := config.NewInputParser()
	entries, err := builtin.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("failed to list built-in rate tables: %w", err)
	}

	c := &Catalog{lines: make(map[domain.InsuranceType]*config.LineDocument, len(entries))}
	for _, entry := range entries {
		data, err := builtin.ReadFile("data/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		doc, err := parser.ParseLineDocument(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		if err := c.add(doc); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadDir loads the built-in documents and then every *.yaml file in dir.
// A file replaces the built-in document of the same line.
func LoadDir(dir string) (*Catalog, error) {
	c, err := Load()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return c, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	parser := config.NewInputParser()
	overridden := make(map[domain.InsuranceType]string)
	for _, file := range files {
		doc, err := parser.LoadLineDocument(file)
		if err != nil {
			return nil, err
		}
		if prev, dup := overridden[doc.Table.Line]; dup {
			return nil, fmt.Errorf("%s and %s both define line %s", prev, file, doc.Table.Line)
		}
		overridden[doc.Table.Line] = file
		c.lines[doc.Table.Line] = doc
	}
	return c, nil
}

func (c *Catalog) add(doc *config.LineDocument) error {
	if _, dup := c.lines[doc.Table.Line]; dup {
		return fmt.Errorf("line %s is defined twice", doc.Table.Line)
	}
	c.lines[doc.Table.Line] = doc
	return nil
}

// Lines returns the configured lines in display order
func (c *Catalog) Lines() []domain.InsuranceType {
	var out []domain.InsuranceType
	for _, t := range domain.AllInsuranceTypes() {
		if _, ok := c.lines[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Document returns the line document of an insurance line
func (c *Catalog) Document(line domain.InsuranceType) (*config.LineDocument, bool) {
	doc, ok := c.lines[line]
	return doc, ok
}

// Table returns the rate table of a line, or nil
func (c *Catalog) Table(line domain.InsuranceType) *rates.RateTable {
	if doc, ok := c.lines[line]; ok {
		return doc.Table
	}
	return nil
}

// AddOns returns the add-on catalog of a line, or nil
func (c *Catalog) AddOns(line domain.InsuranceType) *domain.AddOnCatalog {
	if doc, ok := c.lines[line]; ok {
		return doc.AddOns
	}
	return nil
}

// Calculator builds a premium calculator from the default line
// configurations, replaced by any pricing section found in the documents.
func (c *Catalog) Calculator() *calculation.PremiumCalculator {
	lines := calculation.DefaultLines()
	keys := make([]string, 0, len(c.lines))
	for line := range c.lines {
		keys = append(keys, string(line))
	}
	sort.Strings(keys)
	for _, key := range keys {
		if doc := c.lines[domain.InsuranceType(key)]; doc.Pricing != nil {
			lines = append(lines, *doc.Pricing)
		}
	}
	return calculation.NewPremiumCalculatorWithLines(lines...)
}

// Quote prices a draft against the catalog entry of its line
func (c *Catalog) Quote(pc *calculation.PremiumCalculator, draft *domain.QuoteDraft) (*domain.PremiumBreakdown, error) {
	if draft == nil {
		return pc.Calculate(nil, nil, nil)
	}
	return pc.Calculate(draft, c.Table(draft.InsuranceType), c.AddOns(draft.InsuranceType))
}
