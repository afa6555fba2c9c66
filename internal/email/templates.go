package email

import (
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"
)

// FormatMinor renders a minor-unit amount as a rupee string, e.g. 33500 -> "₹335.00".
func FormatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, amount/100, amount%100)
}

// OrderConfirmationData carries the fields rendered into the order
// confirmation email.
type OrderConfirmationData struct {
	CustomerName      string
	OrderNumber       string
	Items             []OrderLineData
	Subtotal          string
	Tax               string
	DeliveryCharge    string
	Discount          string
	Total             string
	EstimatedDelivery string
}

// OrderLineData is one priced line in an order email.
type OrderLineData struct {
	ProductName string
	Variant     string
	Quantity    int32
	UnitPrice   string
	LineTotal   string
}

// StatusUpdateData carries the fields for a shipping / delivery update email.
type StatusUpdateData struct {
	CustomerName string
	OrderNumber  string
	Status       string
	Note         string
}

// AdminAlertData carries the fields for an operational alert to the shop admin.
type AdminAlertData struct {
	Subject string
	Lines   []string
}

const orderConfirmationHTML = `<html><body style="font-family:sans-serif">
<h2>Thanks for your order, {{.CustomerName}}!</h2>
<p>Your order <strong>{{.OrderNumber}}</strong> is confirmed.</p>
<table cellpadding="6" border="1" style="border-collapse:collapse">
<tr><th>Item</th><th>Variant</th><th>Qty</th><th>Unit</th><th>Total</th></tr>
{{range .Items}}<tr><td>{{.ProductName}}</td><td>{{.Variant}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice}}</td><td>{{.LineTotal}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal}}<br>
GST: {{.Tax}}<br>
Delivery: {{.DeliveryCharge}}<br>
{{if .Discount}}Discount: -{{.Discount}}<br>{{end}}
<strong>Total: {{.Total}}</strong></p>
<p>Estimated delivery: {{.EstimatedDelivery}}</p>
</body></html>`

const orderConfirmationText = `Thanks for your order, {{.CustomerName}}!

Your order {{.OrderNumber}} is confirmed.

{{range .Items}}- {{.ProductName}} ({{.Variant}}) x{{.Quantity}} @ {{.UnitPrice}} = {{.LineTotal}}
{{end}}
Subtotal: {{.Subtotal}}
GST: {{.Tax}}
Delivery: {{.DeliveryCharge}}
{{if .Discount}}Discount: -{{.Discount}}
{{end}}Total: {{.Total}}

Estimated delivery: {{.EstimatedDelivery}}
`

const statusUpdateHTML = `<html><body style="font-family:sans-serif">
<h2>Order {{.OrderNumber}} update</h2>
<p>Hi {{.CustomerName}},</p>
<p>Your order is now <strong>{{.Status}}</strong>.{{if .Note}} {{.Note}}{{end}}</p>
</body></html>`

const statusUpdateText = `Hi {{.CustomerName}},

Your order {{.OrderNumber}} is now {{.Status}}.{{if .Note}} {{.Note}}{{end}}
`

const adminAlertText = `{{range .Lines}}{{.}}
{{end}}`

// executable is satisfied by both html/template and text/template.
type executable interface {
	Execute(w io.Writer, data any) error
	Name() string
}

// HTML bodies are escaped; plain-text bodies must pass names and addresses
// through verbatim, so they parse with text/template.
type renderedTemplates struct {
	confirmationHTML *htmltemplate.Template
	confirmationText *texttemplate.Template
	statusHTML       *htmltemplate.Template
	statusText       *texttemplate.Template
	adminText        *texttemplate.Template
}

func parseTemplates() (*renderedTemplates, error) {
	var (
		t   renderedTemplates
		err error
	)
	if t.confirmationHTML, err = htmltemplate.New("confirmation_html").Parse(orderConfirmationHTML); err != nil {
		return nil, err
	}
	if t.confirmationText, err = texttemplate.New("confirmation_text").Parse(orderConfirmationText); err != nil {
		return nil, err
	}
	if t.statusHTML, err = htmltemplate.New("status_html").Parse(statusUpdateHTML); err != nil {
		return nil, err
	}
	if t.statusText, err = texttemplate.New("status_text").Parse(statusUpdateText); err != nil {
		return nil, err
	}
	if t.adminText, err = texttemplate.New("admin_text").Parse(adminAlertText); err != nil {
		return nil, err
	}
	return &t, nil
}

func render(t executable, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", t.Name(), err)
	}
	return sb.String(), nil
}
