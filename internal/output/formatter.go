// Package output renders premium breakdowns for people and for other programs.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rgehrsitz/quotego/internal/domain"
)

// Formatter renders a premium breakdown
type Formatter interface {
	Name() string
	Format(pb *domain.PremiumBreakdown) ([]byte, error)
}

// FormatterFunc adapts a function to the Formatter interface
type FormatterFunc struct {
	ID string
	F  func(pb *domain.PremiumBreakdown) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(pb *domain.PremiumBreakdown) ([]byte, error) {
	return f.F(pb)
}

var formatters = map[string]func() Formatter{
	"console":         func() Formatter { return ConsoleFormatter{} },
	"console-verbose": func() Formatter { return ConsoleFormatter{Verbose: true} },
	"json":            func() Formatter { return JSONFormatter{Pretty: true} },
	"yaml":            func() Formatter { return YAMLFormatter{} },
	"csv":             func() Formatter { return CSVFormatter{} },
	"html":            func() Formatter { return HTMLFormatter{} },
}

var aliases = map[string]string{
	"text":     "console",
	"verbose":  "console-verbose",
	"detailed": "console-verbose",
	"yml":      "yaml",
}

// AvailableFormatterNames lists the canonical formatter names
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetFormatterByName returns the formatter registered under name or one of
// its aliases, or nil when there is none
func GetFormatterByName(name string) Formatter {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	build, ok := formatters[name]
	if !ok {
		return nil
	}
	return build()
}

// WriteFormatted renders pb and writes it to a timestamped file in dir.
// It returns the file name.
func WriteFormatted(f Formatter, pb *domain.PremiumBreakdown, dir, ext string) (string, error) {
	data, err := f.Format(pb)
	if err != nil {
		return "", err
	}
	line := "quote"
	if pb != nil && pb.Line != "" {
		line = string(pb.Line)
	}
	name := fmt.Sprintf("quote_%s_%s.%s", line, time.Now().Format("20060102_150405"), ext)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
