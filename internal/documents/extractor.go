// Package documents turns captured documents into draft field values.
package documents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rgehrsitz/quotego/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrNoSidecar is returned when a document has no readable sidecar file
var ErrNoSidecar = errors.New("no extraction data for document")

// Extractor reads field values out of a captured document
type Extractor interface {
	Extract(ctx context.Context, ref domain.DocumentRef, targets []string) (map[string]string, error)
}

// KindFields lists the fields each document kind can supply
var KindFields = map[string][]string{
	domain.DocumentNationalID:     {domain.FieldIDNumber, domain.FieldFullName},
	domain.DocumentKRACertificate: {domain.FieldKRAPin, domain.FieldFullName},
	domain.DocumentLogbook:        {domain.FieldRegistrationNumber, domain.FieldMake, domain.FieldModel, domain.FieldYearOfManufacture},
	domain.DocumentPassport:       {domain.FieldPassportNumber, domain.FieldFullName},
	domain.DocumentBusinessCert:   {domain.FieldBusinessRegistration, domain.FieldCompanyName},
}

// SidecarExtractor reads values from a YAML file stored next to the
// document (<document>.yaml). Root resolves relative document paths.
type SidecarExtractor struct {
	Root string
}

// NewSidecarExtractor creates an extractor rooted at dir
func NewSidecarExtractor(dir string) *SidecarExtractor {
	return &SidecarExtractor{Root: dir}
}

// Extract returns the sidecar values the document kind may supply,
// restricted to targets when targets is not empty.
func (se *SidecarExtractor) Extract(ctx context.Context, ref domain.DocumentRef, targets []string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := se.resolve(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path + ".yaml")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", ref.Name, ErrNoSidecar)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", path+".yaml", err)
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	allowed := allowedFields(ref.Kind, targets)
	values := make(map[string]string, len(raw))
	for key, node := range raw {
		if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
			continue
		}
		if allowed != nil && !allowed[key] {
			continue
		}
		if v := Normalize(key, node.Value); v != "" {
			values[key] = v
		}
	}
	return values, nil
}

func (se *SidecarExtractor) resolve(ref domain.DocumentRef) (string, error) {
	location := strings.TrimPrefix(ref.URI, "file://")
	if location == "" {
		location = ref.Name
	}
	if location == "" {
		return "", fmt.Errorf("document %s has no location", ref.Kind)
	}
	if filepath.IsAbs(location) || se.Root == "" {
		return filepath.Clean(location), nil
	}
	clean := filepath.Clean(location)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("document path %s escapes the document root", location)
	}
	return filepath.Join(se.Root, clean), nil
}

// allowedFields returns nil when every key may pass
func allowedFields(kind string, targets []string) map[string]bool {
	kindFields, known := KindFields[kind]
	if !known && len(targets) == 0 {
		return nil
	}
	allowed := make(map[string]bool)
	if known {
		for _, f := range kindFields {
			allowed[f] = true
		}
	}
	if len(targets) > 0 {
		want := make(map[string]bool, len(targets))
		for _, t := range targets {
			want[t] = true
		}
		if !known {
			return want
		}
		for f := range allowed {
			if !want[f] {
				delete(allowed, f)
			}
		}
	}
	return allowed
}

var (
	spaces    = regexp.MustCompile(`\s+`)
	nonDigits = regexp.MustCompile(`\D`)
)

// Normalize cleans an extracted value the way the field expects it
func Normalize(field, value string) string {
	value = strings.TrimSpace(spaces.ReplaceAllString(value, " "))
	switch field {
	case domain.FieldIDNumber:
		return nonDigits.ReplaceAllString(value, "")
	case domain.FieldKRAPin, domain.FieldPassportNumber:
		return strings.ToUpper(strings.ReplaceAll(value, " ", ""))
	case domain.FieldRegistrationNumber:
		return strings.ToUpper(value)
	case domain.FieldFullName:
		return titleCase(value)
	}
	return value
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
