package pdf

import (
	"bytes"
	"fmt"
	"html/template"

	"nexa/internal/core/types"
	"nexa/internal/domain/documents/invoice"
	"nexa/internal/domain/documents/quote"
)

var docTemplate = template.Must(template.New("document").Funcs(template.FuncMap{
	"money": func(m types.Money) string { return types.RoundCurrency(m).StringFixed(2) },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.DocLabel}} {{.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #1a1a1a; }
h1 { font-size: 20px; margin-bottom: 2px; }
.meta { color: #555; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th { text-align: left; border-bottom: 2px solid #1a1a1a; padding: 6px 4px; }
td { border-bottom: 1px solid #ddd; padding: 6px 4px; }
td.num, th.num { text-align: right; }
.totals { margin-top: 16px; width: 40%; margin-left: auto; }
.totals td { border: none; padding: 3px 4px; }
.totals .grand td { border-top: 2px solid #1a1a1a; font-weight: bold; }
.note { margin-top: 24px; font-size: 11px; color: #555; }
</style>
</head>
<body>
<h1>{{.DocLabel}} {{.Number}}</h1>
<div class="meta">
{{.ClientName}} &middot; {{.DateLabel}}: {{.Date}}{{if .SecondDate}} &middot; {{.SecondDateLabel}}: {{.SecondDate}}{{end}}
</div>
<table>
<tr><th>Descrizione</th><th class="num">Qt&agrave;</th><th class="num">Prezzo</th><th class="num">Importo</th></tr>
{{range .Lines}}
<tr><td>{{.Description}}</td><td class="num">{{money .Quantity}}</td><td class="num">{{money .UnitPrice}}</td><td class="num">{{money .Amount}} {{$.Currency}}</td></tr>
{{end}}
</table>
<table class="totals">
<tr><td>Imponibile</td><td class="num">{{money .Subtotal}} {{.Currency}}</td></tr>
<tr><td>IVA</td><td class="num">{{money .TaxAmount}} {{.Currency}}</td></tr>
{{if .HasWithholding}}<tr><td>Ritenuta d'acconto</td><td class="num">-{{money .WithholdingAmount}} {{.Currency}}</td></tr>{{end}}
<tr class="grand"><td>Totale</td><td class="num">{{money .TotalAmount}} {{.Currency}}</td></tr>
</table>
{{if .Notes}}<div class="note">{{.Notes}}</div>{{end}}
</body>
</html>`))

type docLine struct {
	Description string
	Quantity    types.Money
	UnitPrice   types.Money
	Amount      types.Money
}

type docData struct {
	DocLabel          string
	Number            string
	ClientName        string
	DateLabel         string
	Date              string
	SecondDateLabel   string
	SecondDate        string
	Currency          string
	Lines             []docLine
	Subtotal          types.Money
	TaxAmount         types.Money
	WithholdingAmount types.Money
	HasWithholding    bool
	TotalAmount       types.Money
	Notes             string
}

const dateLayout = "02/01/2006"

// InvoiceHTML renders an invoice into the printable document layout.
func InvoiceHTML(inv *invoice.Invoice) (string, error) {
	data := docData{
		DocLabel:          "Fattura",
		Number:            inv.Number,
		ClientName:        inv.ClientName,
		DateLabel:         "Data",
		Date:              inv.IssueDate.Format(dateLayout),
		SecondDateLabel:   "Scadenza",
		SecondDate:        inv.DueDate.Format(dateLayout),
		Currency:          inv.Currency,
		Subtotal:          inv.Subtotal,
		TaxAmount:         inv.TaxAmount,
		WithholdingAmount: inv.WithholdingAmount,
		HasWithholding:    inv.WithholdingAmount.IsPositive(),
		TotalAmount:       inv.TotalAmount,
		Notes:             inv.Notes,
	}
	for _, l := range inv.Lines {
		data.Lines = append(data.Lines, docLine{
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Amount:      l.Amount,
		})
	}
	return render(data)
}

// QuoteHTML renders a quote into the printable document layout.
// Optional positions are marked in the description.
func QuoteHTML(q *quote.Quote) (string, error) {
	data := docData{
		DocLabel:          "Preventivo",
		Number:            q.Number,
		ClientName:        q.ClientName,
		DateLabel:         "Data",
		Date:              q.IssueDate.Format(dateLayout),
		SecondDateLabel:   "Valido fino al",
		SecondDate:        q.ExpiryDate.Format(dateLayout),
		Currency:          q.Currency,
		Subtotal:          q.Subtotal,
		TaxAmount:         q.TaxAmount,
		WithholdingAmount: q.WithholdingAmount,
		HasWithholding:    q.WithholdingAmount.IsPositive(),
		TotalAmount:       q.TotalAmount,
		Notes:             q.Notes,
	}
	for _, l := range q.Lines {
		desc := l.Description
		if l.Optional {
			desc = fmt.Sprintf("%s (opzionale)", desc)
		}
		data.Lines = append(data.Lines, docLine{
			Description: desc,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Amount:      l.Amount,
		})
	}
	return render(data)
}

func render(data docData) (string, error) {
	var buf bytes.Buffer
	if err := docTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute document template: %w", err)
	}
	return buf.String(), nil
}
