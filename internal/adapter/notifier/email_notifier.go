// Package notifier delivers best-effort order confirmations.
package notifier

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/shopspring/decimal"

	"storefront/internal/core/domain"
	"storefront/internal/obs"
)

// Sender delivers a rendered message. It is the extension point for a
// retry queue or a provider SDK.
type Sender interface {
	Send(ctx context.Context, to, subject string, htmlBody []byte) error
}

// SMTPSender sends through a plain SMTP relay without authentication.
type SMTPSender struct {
	Addr string
	From string
}

func (s *SMTPSender) Send(_ context.Context, to, subject string, htmlBody []byte) error {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(htmlBody)

	return smtp.SendMail(s.Addr, nil, s.From, []string{to}, msg.Bytes())
}

// LogSender logs instead of delivering; used when no SMTP relay is
// configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject string, _ []byte) error {
	obs.Logger.Info("email delivery disabled, confirmation not sent",
		"to", to,
		"subject", subject,
	)
	return nil
}

const orderConfirmationTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Order Confirmation</title>
</head>
<body>
<h1>Order Confirmation</h1>
<p>Dear {{.CustomerName}},</p>
<p>Thank you for your order! We're pleased to confirm that we've received your order and it's being processed.</p>
<p><strong>Order Number:</strong> {{.OrderNumber}}</p>
<p><strong>Order Date:</strong> {{.CreatedAt.Format "January 02, 2006 3:04 PM"}}</p>
<p><strong>Status:</strong> {{.Status}}</p>
{{if .ShippingAddress}}<p><strong>Shipping Address:</strong><br>{{.ShippingAddress}}</p>{{end}}
<h2>Order Items</h2>
<table>
{{range .Items}}<tr>
<td><strong>{{.Product.Name}}</strong><br>
<small>SKU: {{.Product.SKU}}</small><br>
<small>Quantity: {{.Quantity}} &times; ${{money .Price}}</small></td>
<td>${{money .Subtotal}}</td>
</tr>
{{end}}</table>
<p><strong>Total: ${{money .TotalAmount}}</strong></p>
<p>We'll send you another email when your order ships.</p>
</body>
</html>
`

// EmailNotifier renders the confirmation email and hands it to a Sender.
type EmailNotifier struct {
	sender Sender
	tmpl   *template.Template
}

func NewEmailNotifier(sender Sender) *EmailNotifier {
	tmpl := template.Must(template.New("order_confirmation").
		Funcs(template.FuncMap{
			"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		}).
		Parse(orderConfirmationTemplate))

	return &EmailNotifier{sender: sender, tmpl: tmpl}
}

func (n *EmailNotifier) SendOrderConfirmation(ctx context.Context, order domain.Order) error {
	var body bytes.Buffer
	if err := n.tmpl.Execute(&body, order); err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}

	subject := fmt.Sprintf("Order Confirmation %s", order.OrderNumber)
	if err := n.sender.Send(ctx, order.CustomerEmail, subject, body.Bytes()); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}

	return nil
}
