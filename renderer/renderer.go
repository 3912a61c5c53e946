// Package renderer renders positions, holdings and trades as markdown.
package renderer

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/etnz/captrack"
	"github.com/shopspring/decimal"
)

var funcs = template.FuncMap{
	"day":  func(t time.Time) string { return t.Format(time.DateOnly) },
	"join": strings.Join,
	"pct": func(p *captrack.Percent) string {
		if p == nil {
			return "-"
		}
		return p.SignedString()
	},
	"short": func(id string) string {
		if len(id) > 8 {
			return id[:8]
		}
		return id
	},
	"fees": func(f decimal.NullDecimal) string {
		if !f.Valid {
			return ""
		}
		return f.Decimal.String()
	},
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, main string, partials map[string]string, data any) string {
	tmpl, err := template.New(templateName).Funcs(funcs).Parse(main)
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", templateName, err)
	}
	for name, content := range partials {
		// An empty content is a valid case, resulting in an empty template.
		if _, err := tmpl.New(name).Parse(content); err != nil {
			return fmt.Sprintf("error parsing partial template %q: %v", name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// Positions is the data of a positions report.
type Positions struct {
	Platform  string                  `json:"platform,omitempty"`
	Positions []captrack.Position     `json:"positions"`
	Skipped   []captrack.SkippedTrade `json:"skipped,omitempty"`
}

const positionsTemplate = `# Positions{{ if .Platform }} on {{ .Platform }}{{ end }}
{{ if .Positions }}
| Symbol | Type | Currency | Quantity | Avg Cost | Cost Basis | Fees |
|:---|:---|:---|---:|---:|---:|---:|
{{- range .Positions }}
| {{ .Asset.Symbol }} | {{ .Asset.Type }} | {{ .Currency }} | {{ .Quantity }} | {{ .AvgCost }} | {{ .CostBasis }} | {{ .TotalFees }} |
{{- end }}
{{ else }}
No open positions.
{{ end }}
{{- template "skipped_trades" . }}`

const skippedTemplate = `
{{- if .Skipped }}
## Skipped Trades

| Date | Side | Symbol | Quantity | Price | Reason |
|:---|:---|:---|---:|---:|:---|
{{- range .Skipped }}
| {{ day .Trade.OccurredAt }} | {{ .Trade.Side }} | {{ .Trade.Asset.Symbol }} | {{ .Trade.Quantity }} | {{ .Trade.Price }} | {{ .Reason }} |
{{- end }}
{{ end -}}`

// RenderPositions renders the positions report, and the skipped trades when
// there are some.
func RenderPositions(p *Positions) string {
	partials := map[string]string{
		"skipped_trades": skippedTemplate,
	}
	return renderTemplate("positions", positionsTemplate, partials, p)
}

const holdingTemplate = `# Holdings in {{ .BaseCurrency }}
{{ if .Holdings }}
Total Market Value: **{{ .Totals.MarketValue }}**{{ if not .FXReady }} (incomplete){{ end }}

| Symbol | Name | Quantity | Price | Market Value | Cost Basis | Unrealized | Return | Day |
|:---|:---|---:|---:|---:|---:|---:|---:|---:|
{{- range .Holdings }}
| {{ .Symbol }} | {{ .Name }} | {{ .Quantity }} | {{ if .Priced }}{{ .Price }}{{ else }}-{{ end }} | {{ if .Priced }}{{ .MarketValue }}{{ else }}-{{ end }} | {{ .CostBasis }} | {{ if .Priced }}{{ .Unrealized.SignedString }}{{ else }}-{{ end }} | {{ pct .UnrealizedPercent }} | {{ pct .DayChange }} |
{{- end }}
| **Total** | | | | **{{ .Totals.MarketValue }}** | **{{ .Totals.CostBasis }}** | **{{ .Totals.Unrealized.SignedString }}** | **{{ .Totals.Return.SignedString }}** | **{{ .Totals.DayChange.SignedString }}** |
{{ else }}
No open positions.
{{ end }}
{{- template "holding_missing" . }}`

const holdingMissingTemplate = `
{{- if .MissingQuotes }}
Missing quotes: {{ join .MissingQuotes ", " }}
{{ end }}
{{- if .MissingRates }}
Missing FX rates to {{ .BaseCurrency }}: {{ join .MissingRates ", " }}
{{ end -}}`

// RenderHolding renders the holding report.
func RenderHolding(r *captrack.HoldingReport) string {
	partials := map[string]string{
		"holding_missing": holdingMissingTemplate,
	}
	return renderTemplate("holding", holdingTemplate, partials, r)
}

const tradesTemplate = `# Trades
{{ if . }}
| Date | ID | Side | Symbol | Type | Quantity | Price | Fees | Currency | Platform | Notes |
|:---|:---|:---|:---|:---|---:|---:|---:|:---|:---|:---|
{{- range . }}
| {{ day .OccurredAt }} | {{ short .ID }} | {{ .Side }} | {{ .Asset.Symbol }} | {{ .Asset.Type }} | {{ .Quantity }} | {{ .Price }} | {{ fees .Fees }} | {{ .Currency }} | {{ .PlatformName }} | {{ .Notes }} |
{{- end }}
{{ else }}
No trades.
{{ end -}}`

// RenderTrades renders trades as a table, in the given order.
func RenderTrades(trades []captrack.Trade) string {
	return renderTemplate("trades", tradesTemplate, nil, trades)
}
