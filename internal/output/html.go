package output

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/rgehrsitz/quotego/internal/domain"
)

// HTMLFormatter renders a printable quote page
type HTMLFormatter struct{}

func (h HTMLFormatter) Name() string { return "html" }

//go:embed templates/quote.html.tmpl
var htmlTemplateSource string

var htmlTemplate = template.Must(template.New("quote").Funcs(template.FuncMap{
	"curr":   FormatCurrency,
	"amount": FormatAmount,
	"factor": FormatFactor,
	"label":  adjustmentLabel,
}).Parse(htmlTemplateSource))

func (h HTMLFormatter) Format(pb *domain.PremiumBreakdown) ([]byte, error) {
	if pb == nil {
		return nil, fmt.Errorf("no premium to format")
	}
	var buf bytes.Buffer
	data := struct {
		*domain.PremiumBreakdown
		Title string
		Notes []string
	}{pb, pb.Line.DisplayName() + " Quote", Notes(pb)}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
