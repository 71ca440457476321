package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/gyaneshwarpardhi/notification-service/internal/channel"
)

// DateLayout formats the transaction date in payment confirmations.
const DateLayout = "Jan 02, 2006 03:04 PM"

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl"))
)

// Message is a rendered email ready for a Transport.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type welcomeView struct {
	Brand channel.Brand
	Name  string
}

type paymentView struct {
	Brand   channel.Brand
	Payment channel.Payment
	Date    string
}

// RenderWelcome builds the welcome email for name.
func RenderWelcome(brand channel.Brand, to, name string) (Message, error) {
	view := welcomeView{Brand: brand, Name: channel.DisplayName(name)}
	msg := Message{
		To:      to,
		Subject: fmt.Sprintf("Welcome to %s — Next steps to get started", brand.Name),
	}
	var err error
	if msg.Text, err = renderText("welcome.txt.tmpl", view); err != nil {
		return Message{}, err
	}
	if msg.HTML, err = renderHTML("welcome.html.tmpl", view); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// RenderPayment builds the payment confirmation email dated at.
func RenderPayment(brand channel.Brand, to string, p channel.Payment, at time.Time) (Message, error) {
	view := paymentView{Brand: brand, Payment: p, Date: at.Format(DateLayout)}
	msg := Message{
		To:      to,
		Subject: "Payment Confirmation - Order #" + p.OrderID,
	}
	var err error
	if msg.Text, err = renderText("payment.txt.tmpl", view); err != nil {
		return Message{}, err
	}
	if msg.HTML, err = renderHTML("payment.html.tmpl", view); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func renderText(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderHTML(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
