package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/notification-service/internal/channel"
)

var testBrand = channel.Brand{
	Name:         "Hiru Sandu Bridal Wears",
	ShortName:    "Hiru Sandu",
	Tagline:      "Making Your Special Moments Unforgettable",
	CatalogURL:   "https://hirusandu.com/#featured-products",
	ProfileURL:   "https://hirusandu.com/",
	BookingURL:   "https://hirusandu.com/contact.php",
	SupportEmail: "support@hirusandu.example",
	SupportPhone: "+94 11 123 4567",
}

type fakeTransport struct {
	sent []Message
	err  error
}

func (f *fakeTransport) Send(_ context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func TestRenderWelcome(t *testing.T) {
	msg, err := RenderWelcome(testBrand, "a@b.com", "Nimali <script>")
	if err != nil {
		t.Fatalf("RenderWelcome: %v", err)
	}
	if msg.Subject != "Welcome to Hiru Sandu Bridal Wears — Next steps to get started" {
		t.Errorf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "Welcome Nimali <script>!") {
		t.Errorf("text = %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "https://hirusandu.com/contact.php") {
		t.Errorf("text missing booking link: %q", msg.Text)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("html body must escape the recipient name")
	}
	if !strings.Contains(msg.HTML, "Welcome, Nimali &lt;script&gt;") {
		t.Errorf("html missing escaped greeting")
	}
}

func TestRenderWelcome_NoName(t *testing.T) {
	msg, err := RenderWelcome(testBrand, "a@b.com", "")
	if err != nil {
		t.Fatalf("RenderWelcome: %v", err)
	}
	if !strings.Contains(msg.Text, "Welcome there!") {
		t.Errorf("text = %q", msg.Text)
	}
}

func TestRenderPayment(t *testing.T) {
	at := time.Date(2025, 3, 1, 14, 5, 0, 0, time.UTC)
	msg, err := RenderPayment(testBrand, "a@b.com", channel.PaymentFrom(map[string]string{"orderId": "123", "amount": "500"}), at)
	if err != nil {
		t.Fatalf("RenderPayment: %v", err)
	}
	if msg.Subject != "Payment Confirmation - Order #123" {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"123", "Rs. 500", "Payment method: -", "Mar 01, 2025 02:05 PM"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text missing %q: %q", want, msg.Text)
		}
	}
	for _, want := range []string{"123", "Rs. 500", "Mar 01, 2025 02:05 PM", testBrand.Tagline} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestSender_PaymentUsesClock(t *testing.T) {
	tr := &fakeTransport{}
	fixed := time.Date(2025, 12, 24, 9, 30, 0, 0, time.UTC)
	s, err := New(Config{Brand: testBrand, Transport: tr, Location: time.UTC, Now: func() time.Time { return fixed }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.SendPaymentConfirmation(context.Background(), "a@b.com", nil); err != nil {
		t.Fatalf("SendPaymentConfirmation: %v", err)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("sent = %d", len(tr.sent))
	}
	got := tr.sent[0]
	if got.To != "a@b.com" || got.Subject != "Payment Confirmation - Order #-" {
		t.Errorf("message = %+v", got)
	}
	if !strings.Contains(got.Text, "Dec 24, 2025 09:30 AM") || !strings.Contains(got.Text, "Rs. 0.00") {
		t.Errorf("text = %q", got.Text)
	}
}

func TestSender_TransportError(t *testing.T) {
	boom := errors.New("550 mailbox unavailable")
	s, _ := New(Config{Brand: testBrand, Transport: &fakeTransport{err: boom}})
	if err := s.SendWelcome(context.Background(), "a@b.com", "x"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestNew_NoTransport(t *testing.T) {
	if _, err := New(Config{Brand: testBrand}); !errors.Is(err, channel.ErrUnconfigured) {
		t.Fatalf("err = %v, want ErrUnconfigured", err)
	}
}

func TestSMTPTransport_BuildMsg(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"})
	if err != nil {
		t.Fatalf("NewSMTPTransport: %v", err)
	}
	m, err := tr.buildMsg(Message{To: "a@b.com", Subject: "Payment Confirmation - Order #123", Text: "plain", HTML: "<p>rich</p>"})
	if err != nil {
		t.Fatalf("buildMsg: %v", err)
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"Subject: Payment Confirmation - Order #123", "multipart/alternative", "text/plain", "text/html"} {
		if !strings.Contains(raw, want) {
			t.Errorf("raw message missing %q", want)
		}
	}
}

func TestSMTPTransport_InvalidAddress(t *testing.T) {
	tr, _ := NewSMTPTransport(SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"})
	if _, err := tr.buildMsg(Message{To: "not an address"}); err == nil {
		t.Fatal("expected error for invalid recipient")
	}
}

func TestNewSMTPTransport_Required(t *testing.T) {
	if _, err := NewSMTPTransport(SMTPConfig{From: "x@y.z"}); err == nil {
		t.Error("expected error without host")
	}
	if _, err := NewSMTPTransport(SMTPConfig{Host: "h"}); err == nil {
		t.Error("expected error without from")
	}
}
