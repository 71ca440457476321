package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioTransport sends WhatsApp messages through the Twilio Messages API.
type TwilioTransport struct {
	AccountSID string
	AuthToken  string
	From       string // sender number, with or without the "whatsapp:" prefix
	BaseURL    string // replaces https://api.twilio.com when set
	HTTPClient *http.Client
}

// NewTwilioTransport creates a Twilio transport with a bounded HTTP timeout.
func NewTwilioTransport(accountSID, authToken, from string, timeout time.Duration) *TwilioTransport {
	return &TwilioTransport{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		HTTPClient: newHTTPClient(timeout),
	}
}

// SendText creates a WhatsApp message to "to" and returns its SID.
func (t *TwilioTransport) SendText(ctx context.Context, to, body string) (string, error) {
	rest, err := t.restClient(ctx)
	if err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetPathAccountSid(t.AccountSID)
	params.SetTo(whatsappAddress(to))
	params.SetFrom(whatsappAddress(t.From))
	params.SetBody(body)

	msg, err := rest.Api.CreateMessage(params)
	if err != nil {
		var restErr *client.TwilioRestError
		if errors.As(err, &restErr) {
			return "", &APIError{
				Provider:   "twilio",
				StatusCode: restErr.Status,
				Body:       fmt.Sprintf("%d %s", restErr.Code, restErr.Message),
			}
		}
		return "", fmt.Errorf("twilio create message: %w", err)
	}
	if msg.ErrorCode != nil && *msg.ErrorCode != 0 {
		return "", fmt.Errorf("twilio rejected message %s: %d %s", deref(msg.Sid), *msg.ErrorCode, deref(msg.ErrorMessage))
	}
	return deref(msg.Sid), nil
}

// restClient builds an SDK client bound to ctx. The SDK issues requests
// without a context, so ctx and the optional base URL are applied by the
// injected HTTP transport.
func (t *TwilioTransport) restClient(ctx context.Context) (*twilio.RestClient, error) {
	base := http.DefaultClient
	if t.HTTPClient != nil {
		base = t.HTTPClient
	}
	rt := &requestRewriter{ctx: ctx, next: base.Transport}
	if t.BaseURL != "" {
		u, err := url.Parse(strings.TrimRight(t.BaseURL, "/"))
		if err != nil {
			return nil, fmt.Errorf("twilio base url: %w", err)
		}
		rt.base = u
	}
	httpClient := *base
	httpClient.Transport = rt

	c := &client.Client{
		Credentials: client.NewCredentials(t.AccountSID, t.AuthToken),
		HTTPClient:  &httpClient,
	}
	c.SetAccountSid(t.AccountSID)
	return twilio.NewRestClientWithParams(twilio.ClientParams{Client: c}), nil
}

// requestRewriter attaches ctx to every request and, when base is set,
// points it at another host.
type requestRewriter struct {
	ctx  context.Context
	base *url.URL
	next http.RoundTripper
}

func (r *requestRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(r.ctx)
	if r.base != nil {
		out.URL.Scheme = r.base.Scheme
		out.URL.Host = r.base.Host
		out.URL.Path = r.base.Path + req.URL.Path
		out.Host = r.base.Host
	}
	next := r.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(out)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func whatsappAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
