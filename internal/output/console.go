package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rgehrsitz/quotego/internal/domain"
)

// ConsoleFormatter prints a premium breakdown for the terminal. The verbose
// form adds every adjustment and the quote notes.
type ConsoleFormatter struct {
	Verbose bool
}

func (c ConsoleFormatter) Name() string {
	if c.Verbose {
		return "console-verbose"
	}
	return "console"
}

func (c ConsoleFormatter) Format(pb *domain.PremiumBreakdown) ([]byte, error) {
	if pb == nil {
		return nil, fmt.Errorf("no premium to format")
	}
	var buf bytes.Buffer
	row := func(label, value string) {
		fmt.Fprintf(&buf, "  %-34s %18s\n", label, value)
	}

	fmt.Fprintln(&buf, strings.Repeat("=", 56))
	fmt.Fprintf(&buf, "%s QUOTE\n", strings.ToUpper(pb.Line.DisplayName()))
	fmt.Fprintln(&buf, strings.Repeat("=", 56))
	row("Product", pb.Product)
	if pb.InsurerName != "" {
		row("Insurer", pb.InsurerName)
	}
	if !pb.Principal.IsZero() {
		row("Sum insured / basis", FormatAmount(pb.Principal))
	}
	row("Base rate", pb.BaseRate.String())
	row("Base amount", FormatAmount(pb.BaseAmount))

	if c.Verbose && len(pb.MultiplierAdjustments) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "ADJUSTMENTS")
		fmt.Fprintln(&buf, strings.Repeat("-", 56))
		for _, a := range pb.MultiplierAdjustments {
			fmt.Fprintf(&buf, "  %-24s %-9s %6s %14s\n", adjustmentLabel(a), a.Stage, FormatFactor(a.Factor), FormatAmount(a.Amount))
		}
		fmt.Fprintln(&buf)
	}
	row("Adjusted amount", FormatAmount(pb.AdjustedAmount))

	for _, a := range pb.AddOns {
		row("+ "+a.Name, FormatAmount(a.Amount))
	}
	if len(pb.AddOns) > 0 {
		row("Add-on total", FormatAmount(pb.AddOnTotal))
	}
	if pb.MinimumApplied {
		row("Minimum premium applied", FormatAmount(pb.MinimumPremium))
	}
	row("Premium", FormatAmount(pb.PremiumAmount))

	sc := pb.StatutoryCharges
	if !sc.Total().IsZero() {
		row("Stamp duty", FormatAmount(sc.StampDuty))
		row("PHCF", FormatAmount(sc.PHCF))
		row("Training levy", FormatAmount(sc.TrainingLevy))
	}
	fmt.Fprintln(&buf, strings.Repeat("-", 56))
	row("TOTAL", FormatCurrency(pb.Total))
	fmt.Fprintln(&buf, strings.Repeat("=", 56))

	if c.Verbose {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "Notes:")
		for _, n := range Notes(pb) {
			fmt.Fprintf(&buf, "  - %s\n", n)
		}
	}
	return buf.Bytes(), nil
}
