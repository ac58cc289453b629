package output

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/shopspring/decimal"
)

// FormatAmount renders an amount with two decimals and thousands separators
func FormatAmount(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var sb strings.Builder
	if d.IsNegative() {
		sb.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('.')
	sb.WriteString(frac)
	return sb.String()
}

// FormatCurrency formats a decimal as Kenyan shillings
func FormatCurrency(amount decimal.Decimal) string {
	return "KES " + FormatAmount(amount)
}

// FormatPercentage formats a decimal as percentage
func FormatPercentage(amount decimal.Decimal) string {
	return amount.StringFixed(2) + "%"
}

// FormatFactor renders a multiplier, e.g. "x1.10"
func FormatFactor(f decimal.Decimal) string {
	return "x" + f.StringFixed(2)
}

// adjustmentLabel names an adjustment with the table key it matched
func adjustmentLabel(a domain.Adjustment) string {
	name := strings.ReplaceAll(a.Name, "_", " ")
	if a.Key == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, a.Key)
}

// Notes returns the assumptions printed under a quote, followed by any
// remarks specific to the breakdown
func Notes(pb *domain.PremiumBreakdown) []string {
	notes := append([]string(nil), DefaultAssumptions...)
	if pb == nil {
		return notes
	}
	if pb.MinimumApplied {
		notes = append(notes, fmt.Sprintf("Minimum premium of %s applied", FormatCurrency(pb.MinimumPremium)))
	}
	if len(pb.SkippedAddOns) > 0 {
		notes = append(notes, "Add-ons not applicable to this cover: "+strings.Join(pb.SkippedAddOns, ", "))
	}
	if !pb.Total.Equal(pb.TotalBeforeRounding) {
		notes = append(notes, fmt.Sprintf("Total rounded from %s", FormatCurrency(pb.TotalBeforeRounding)))
	}
	return notes
}
