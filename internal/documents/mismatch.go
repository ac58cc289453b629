package documents

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// MismatchThreshold is the similarity below which a value is flagged
const MismatchThreshold = 0.8

// Mismatch is an extracted value that disagrees with what was entered
type Mismatch struct {
	Field      string  `json:"field"`
	Entered    string  `json:"entered"`
	Extracted  string  `json:"extracted"`
	Similarity float64 `json:"similarity"`
}

// Compare flags fields present in both maps whose values are less than
// MismatchThreshold similar. Case and repeated spaces are ignored.
func Compare(extracted, entered map[string]string) []Mismatch {
	var out []Mismatch
	for field, got := range extracted {
		have, ok := entered[field]
		if !ok || strings.TrimSpace(have) == "" || strings.TrimSpace(got) == "" {
			continue
		}
		a, b := foldValue(got), foldValue(have)
		if a == b {
			continue
		}
		if sim := Similarity(a, b); sim < MismatchThreshold {
			out = append(out, Mismatch{Field: field, Entered: have, Extracted: got, Similarity: sim})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func foldValue(s string) string {
	return strings.ToLower(strings.TrimSpace(spaces.ReplaceAllString(s, " ")))
}

// Similarity is 1 minus the edit distance over the longer length in runes
func Similarity(a, b string) float64 {
	longer := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longer == 0 {
		return 1
	}
	return float64(longer-levenshtein.ComputeDistance(a, b)) / float64(longer)
}
