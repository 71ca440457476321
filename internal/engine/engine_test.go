package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/notification-service/internal/channel"
	"github.com/gyaneshwarpardhi/notification-service/internal/config"
	"github.com/gyaneshwarpardhi/notification-service/internal/dispatch"
	"github.com/gyaneshwarpardhi/notification-service/internal/queue"
	"github.com/gyaneshwarpardhi/notification-service/internal/router"
)

// recordingSender records the recipient of every send. If gate is set,
// each send waits for it (or ctx) before returning.
type recordingSender struct {
	ch      dispatch.Channel
	mu      sync.Mutex
	to      []string
	started chan struct{}
	gate    chan struct{}
}

func (s *recordingSender) Channel() dispatch.Channel { return s.ch }

func (s *recordingSender) record(ctx context.Context, to string) error {
	s.mu.Lock()
	s.to = append(s.to, to)
	s.mu.Unlock()
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *recordingSender) SendWelcome(ctx context.Context, to, _ string) error {
	return s.record(ctx, to)
}

func (s *recordingSender) SendPaymentConfirmation(ctx context.Context, to string, _ map[string]string) error {
	return s.record(ctx, to)
}

func (s *recordingSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.to...)
}

func newRouter(s *recordingSender) *router.Router {
	reg := channel.NewRegistry()
	reg.Register(s)
	return router.New(dispatch.NewPolicy(dispatch.StrategyAll), reg)
}

func welcomeFor(phone string) queue.Message {
	return queue.Message{
		Source: "test",
		Value:  []byte(fmt.Sprintf(`{"eventType":"WELCOME","recipientPhone":%q,"recipientName":"Ann"}`, phone)),
	}
}

func conf(workers, depth int) config.EngineConf {
	return config.EngineConf{Workers: workers, QueueDepth: depth, EventTimeoutMs: 2000}
}

func TestEngine_SerialOrder(t *testing.T) {
	s := &recordingSender{ch: dispatch.ChannelChat}
	e := New(newRouter(s), conf(1, 16))

	ctx := context.Background()
	want := []string{"+94770000001", "+94770000002", "+94770000003", "+94770000004"}
	for _, p := range want {
		if err := e.HandleMessage(ctx, welcomeFor(p)); err != nil {
			t.Fatalf("HandleMessage: %v", err)
		}
	}
	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	got := s.recipients()
	if len(got) != len(want) {
		t.Fatalf("recipients = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("recipients = %v, want %v (order must be preserved)", got, want)
		}
	}
}

func TestEngine_DropsUndecodableAndContinues(t *testing.T) {
	s := &recordingSender{ch: dispatch.ChannelChat}
	e := New(newRouter(s), conf(1, 4))
	defer e.Shutdown(context.Background())
	ctx := context.Background()

	for _, raw := range []string{"", "null", `{"eventType":`} {
		rep, err := e.ProcessSync(ctx, queue.Message{Value: []byte(raw)})
		if err != nil || rep != nil {
			t.Errorf("ProcessSync(%q) = %v, %v; want nil report and nil error", raw, rep, err)
		}
	}

	rep, err := e.ProcessSync(ctx, welcomeFor("+94771234567"))
	if err != nil {
		t.Fatalf("ProcessSync: %v", err)
	}
	if rep.Outcome != router.OutcomeDelivered {
		t.Errorf("outcome = %s", rep.Outcome)
	}
}

func TestEngine_AssignsEventID(t *testing.T) {
	s := &recordingSender{ch: dispatch.ChannelChat}
	e := New(newRouter(s), conf(1, 4))
	defer e.Shutdown(context.Background())

	rep, err := e.ProcessSync(context.Background(), welcomeFor("+94771234567"))
	if err != nil {
		t.Fatalf("ProcessSync: %v", err)
	}
	if rep.EventID == "" {
		t.Error("missing eventId should be assigned")
	}
}

func TestEngine_RecoversAndSwapsRouter(t *testing.T) {
	// A nil router panics inside process; the worker must survive it.
	e := New(nil, conf(1, 4))
	defer e.Shutdown(context.Background())
	ctx := context.Background()

	rep, err := e.ProcessSync(ctx, welcomeFor("+94771234567"))
	if err != nil || rep != nil {
		t.Fatalf("ProcessSync with nil router = %v, %v", rep, err)
	}

	s := &recordingSender{ch: dispatch.ChannelChat}
	e.SwapRouter(newRouter(s))
	rep, err = e.ProcessSync(ctx, welcomeFor("+94771234567"))
	if err != nil {
		t.Fatalf("ProcessSync: %v", err)
	}
	if rep == nil || rep.Outcome != router.OutcomeDelivered {
		t.Fatalf("report = %+v", rep)
	}
	if got := s.recipients(); len(got) != 1 {
		t.Errorf("recipients = %v", got)
	}
}

func TestEngine_ProcessAsyncQueueFull(t *testing.T) {
	s := &recordingSender{
		ch:      dispatch.ChannelChat,
		started: make(chan struct{}, 4),
		gate:    make(chan struct{}),
	}
	e := New(newRouter(s), conf(1, 1))

	if !e.ProcessAsync(welcomeFor("+94770000001")) {
		t.Fatal("first submit rejected")
	}
	<-s.started // worker is busy
	if !e.ProcessAsync(welcomeFor("+94770000002")) {
		t.Fatal("second submit should fill the queue")
	}
	if e.ProcessAsync(welcomeFor("+94770000003")) {
		t.Fatal("third submit should be rejected")
	}
	if u := e.QueueUtilization(); u != 1 {
		t.Errorf("utilization = %v, want 1", u)
	}

	close(s.gate)
	if err := e.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := s.recipients(); len(got) != 2 {
		t.Errorf("recipients = %v, want 2 sends", got)
	}
}

func TestEngine_ShutdownTimeoutCancelsInFlight(t *testing.T) {
	s := &recordingSender{
		ch:      dispatch.ChannelChat,
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}), // never opened
	}
	e := New(newRouter(s), conf(1, 4))
	if !e.ProcessAsync(welcomeFor("+94770000001")) {
		t.Fatal("submit rejected")
	}
	<-s.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := e.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Shutdown = %v, want deadline exceeded", err)
	}

	if err := e.HandleMessage(context.Background(), welcomeFor("+94770000002")); !errors.Is(err, ErrClosed) {
		t.Errorf("HandleMessage after Shutdown = %v, want ErrClosed", err)
	}
}
