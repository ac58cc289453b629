package output

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rgehrsitz/quotego/internal/domain"
	"gopkg.in/yaml.v3"
)

// JSONFormatter emits the breakdown in its API JSON form
type JSONFormatter struct {
	Pretty bool
}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(pb *domain.PremiumBreakdown) ([]byte, error) {
	if pb == nil {
		return nil, fmt.Errorf("no premium to format")
	}
	if j.Pretty {
		return json.MarshalIndent(pb, "", "  ")
	}
	return json.Marshal(pb)
}

// YAMLFormatter emits the breakdown with the same keys the line documents use
type YAMLFormatter struct{}

func (YAMLFormatter) Name() string { return "yaml" }

func (YAMLFormatter) Format(pb *domain.PremiumBreakdown) ([]byte, error) {
	if pb == nil {
		return nil, fmt.Errorf("no premium to format")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(pb); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CSVFormatter writes one row per component of the premium: the base amount,
// each adjustment, each add-on, the statutory levies and the total.
type CSVFormatter struct{}

func (CSVFormatter) Name() string { return "csv" }

func (CSVFormatter) Format(pb *domain.PremiumBreakdown) ([]byte, error) {
	if pb == nil {
		return nil, fmt.Errorf("no premium to format")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{{"Component", "Detail", "Factor", "Amount"}}
	rows = append(rows, []string{"Base", pb.Product, pb.BaseRate.String(), pb.BaseAmount.StringFixed(2)})
	for _, a := range pb.MultiplierAdjustments {
		rows = append(rows, []string{"Adjustment", adjustmentLabel(a), a.Factor.String(), a.Amount.StringFixed(2)})
	}
	for _, a := range pb.AddOns {
		rows = append(rows, []string{"Add-on", a.Name, string(a.Mode), a.Amount.StringFixed(2)})
	}
	if pb.MinimumApplied {
		rows = append(rows, []string{"Minimum", "minimum premium", "", pb.MinimumPremium.StringFixed(2)})
	}
	rows = append(rows,
		[]string{"Premium", "", "", pb.PremiumAmount.StringFixed(2)},
		[]string{"Statutory", "stamp duty", "", pb.StatutoryCharges.StampDuty.StringFixed(2)},
		[]string{"Statutory", "phcf", "", pb.StatutoryCharges.PHCF.StringFixed(2)},
		[]string{"Statutory", "training levy", "", pb.StatutoryCharges.TrainingLevy.StringFixed(2)},
		[]string{"Total", string(pb.Line), "", pb.Total.StringFixed(2)},
	)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
