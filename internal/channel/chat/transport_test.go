package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestTwilioTransport_SendText(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "tok" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		_ = r.ParseForm()
		got = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"sid":"SM42","status":"queued","error_code":null}`)
	}))
	defer srv.Close()

	tr := NewTwilioTransport("AC123", "tok", "+14155238886", time.Second)
	tr.BaseURL = srv.URL

	sid, err := tr.SendText(context.Background(), "+94771234567", "hello")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if sid != "SM42" {
		t.Errorf("sid = %q", sid)
	}
	if got.Get("To") != "whatsapp:+94771234567" || got.Get("From") != "whatsapp:+14155238886" || got.Get("Body") != "hello" {
		t.Errorf("form = %v", got)
	}
}

func TestTwilioTransport_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":21211,"message":"invalid To","status":400}`)
	}))
	defer srv.Close()

	tr := NewTwilioTransport("AC123", "tok", "whatsapp:+14155238886", time.Second)
	tr.BaseURL = srv.URL

	_, err := tr.SendText(context.Background(), "+1", "x")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("err = %v, want APIError 400", err)
	}
	if !strings.Contains(apiErr.Body, "21211") {
		t.Errorf("body = %q", apiErr.Body)
	}
}

func TestTwilioTransport_ErrorCodeInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"sid":"SM43","status":"failed","error_code":63016,"error_message":"outside session window"}`)
	}))
	defer srv.Close()

	tr := NewTwilioTransport("AC123", "tok", "+14155238886", time.Second)
	tr.BaseURL = srv.URL

	_, err := tr.SendText(context.Background(), "+94771234567", "x")
	if err == nil || !strings.Contains(err.Error(), "63016") {
		t.Fatalf("err = %v, want rejection with code 63016", err)
	}
}

func TestTwilioTransport_HonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer srv.Close()

	tr := NewTwilioTransport("AC123", "tok", "+14155238886", time.Second)
	tr.BaseURL = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.SendText(ctx, "+94771234567", "x"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestKapsoTransport_SendText(t *testing.T) {
	var req kapsoSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pn-1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "key" {
			t.Errorf("api key = %q", r.Header.Get("X-API-Key"))
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = io.WriteString(w, `{"messaging_product":"whatsapp","messages":[{"id":"wamid.1"}]}`)
	}))
	defer srv.Close()

	tr := NewKapsoTransport("key", "pn-1", time.Second)
	tr.BaseURL = srv.URL

	id, err := tr.SendText(context.Background(), "+94771234567", "hi")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if id != "wamid.1" {
		t.Errorf("id = %q", id)
	}
	if req.To != "+94771234567" || req.Text.Body != "hi" || req.MessagingProduct != "whatsapp" {
		t.Errorf("request = %+v", req)
	}
}

func TestKapsoTransport_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := NewKapsoTransport("bad", "pn-1", time.Second)
	tr.BaseURL = srv.URL
	if _, err := tr.SendText(context.Background(), "+1", "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSimulatedTransport(t *testing.T) {
	id, err := SimulatedTransport{}.SendText(context.Background(), "+94771234567", "hi")
	if err != nil || id != "simulated" {
		t.Fatalf("got %q, %v", id, err)
	}
}
