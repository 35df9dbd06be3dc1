package services

import (
	"html/template"
	"strings"

	"rempah/pkg/logging"
)

var (
	shippedMail = template.Must(template.New("shipped").Parse(
		`<h2>Order Shipped</h2><p>Your order has been shipped via <strong>{{.CourierName}}</strong>.</p><p>Tracking ID: {{.TrackingID}}</p>`))

	contactMail = template.Must(template.New("contact").Parse(`<h2>New Contact Message Received</h2>
<p><strong>From:</strong> {{.Name}} ({{.Email}})</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<hr>
<p><strong>Message:</strong></p>
<p>{{.Body}}</p>`))
)

// renderHTML executes an email body template. On failure the message goes
// out as plain text only.
func renderHTML(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		logging.Warn().Err(err).Str("template", t.Name()).Msg("failed to render email body")
		return ""
	}
	return b.String()
}
