package rates

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Bracket is a half-open numeric range parsed from a rate table key.
// "18-36" covers [18, 36); "76+" covers [76, inf).
type Bracket struct {
	Key   string
	Lower decimal.Decimal
	Upper decimal.Decimal
	Open  bool
}

// ParseBracket parses a range key. Keys that are not ranges are enumerated
// factors and return false.
func ParseBracket(key string) (Bracket, bool) {
	k := strings.TrimSpace(key)
	if strings.HasSuffix(k, "+") {
		lower, err := decimal.NewFromString(strings.TrimSuffix(k, "+"))
		if err != nil {
			return Bracket{}, false
		}
		return Bracket{Key: key, Lower: lower, Open: true}, true
	}

	parts := strings.SplitN(k, "-", 2)
	if len(parts) != 2 {
		return Bracket{}, false
	}
	lower, err := decimal.NewFromString(parts[0])
	if err != nil {
		return Bracket{}, false
	}
	upper, err := decimal.NewFromString(parts[1])
	if err != nil {
		return Bracket{}, false
	}
	return Bracket{Key: key, Lower: lower, Upper: upper}, true
}

// Contains reports whether v falls inside the bracket
func (b Bracket) Contains(v decimal.Decimal) bool {
	if v.LessThan(b.Lower) {
		return false
	}
	return b.Open || v.LessThan(b.Upper)
}
