package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gyaneshwarpardhi/notification-service/internal/channel"
	"github.com/gyaneshwarpardhi/notification-service/internal/dispatch"
	"github.com/gyaneshwarpardhi/notification-service/internal/event"
	"github.com/gyaneshwarpardhi/notification-service/internal/logger"
	"github.com/gyaneshwarpardhi/notification-service/internal/metrics"
	"github.com/gyaneshwarpardhi/notification-service/internal/recipient"
)

const tracerName = "github.com/gyaneshwarpardhi/notification-service/internal/router"

// deliverFunc sends one kind of notification through s to identifier.
type deliverFunc func(ctx context.Context, s channel.Sender, identifier string, ev *event.NotificationEvent) error

var deliverers = map[event.Kind]deliverFunc{
	event.KindWelcome: func(ctx context.Context, s channel.Sender, to string, ev *event.NotificationEvent) error {
		return s.SendWelcome(ctx, to, ev.RecipientName)
	},
	event.KindPaymentConfirmed: func(ctx context.Context, s channel.Sender, to string, ev *event.NotificationEvent) error {
		return s.SendPaymentConfirmation(ctx, to, ev.Data())
	},
}

// Kinds returns the event kinds the router handles.
func Kinds() []event.Kind {
	return []event.Kind{event.KindWelcome, event.KindPaymentConfirmed}
}

// Router maps events to channel sends. It is immutable once built; config
// reloads build a new Router.
type Router struct {
	policy  *dispatch.Policy
	senders *channel.Registry
	tracer  trace.Tracer
}

// New creates a Router.
func New(policy *dispatch.Policy, senders *channel.Registry) *Router {
	return &Router{
		policy:  policy,
		senders: senders,
		tracer:  otel.Tracer(tracerName),
	}
}

// Route dispatches ev to every channel in its plan. It never panics because
// of a sender and never returns an error; failures are recorded in the Report.
func (r *Router) Route(ctx context.Context, ev *event.NotificationEvent) *Report {
	start := time.Now()
	if ev == nil {
		logger.From(ctx).Warn("received nil event")
		metrics.EventsProcessed.WithLabelValues("", string(OutcomeInvalid)).Inc()
		return &Report{Outcome: OutcomeInvalid}
	}

	ctx, span := r.tracer.Start(ctx, "notification.route", trace.WithAttributes(
		attribute.String("event.id", ev.EventID),
		attribute.String("event.type", ev.EventType),
		attribute.String("event.priority", ev.Priority.String()),
	))
	defer span.End()

	report := &Report{EventID: ev.EventID, EventType: ev.EventType}
	r.route(ctx, ev, report)
	report.finish()
	report.DurationMs = time.Since(start).Milliseconds()

	span.SetAttributes(attribute.String("notification.outcome", string(report.Outcome)))
	if report.Outcome == OutcomeFailed {
		span.SetStatus(codes.Error, "all channel attempts failed")
	}
	kind := string(ev.Kind())
	if report.Outcome == OutcomeUnknownType {
		kind = "other"
	}
	metrics.EventsProcessed.WithLabelValues(kind, string(report.Outcome)).Inc()
	return report
}

func (r *Router) route(ctx context.Context, ev *event.NotificationEvent, report *Report) {
	log := logger.From(ctx).With(slog.String("event_id", ev.EventID), slog.String("event_type", ev.EventType))

	deliver, ok := deliverers[ev.Kind()]
	if !ok {
		log.Warn("unknown event type")
		report.Outcome = OutcomeUnknownType
		return
	}

	contacts := recipient.Resolve(ev)
	plan := r.policy.Plan(ev.Priority, contacts.PhoneUsable, contacts.EmailUsable)
	report.Strategy = plan.Strategy

	if plan.Empty() {
		log.Warn("recipient unreachable: no usable phone or email")
		report.Outcome = OutcomeUnreachable
		return
	}
	if plan.PreferredSkipped() {
		log.Warn("no recipient identifier for preferred channel",
			slog.String("channel", string(plan.Preferred)),
			slog.String("priority", ev.Priority.String()),
		)
	}

	delivered := false
	for _, a := range plan.Attempts {
		to := identifierFor(a.Channel, contacts)
		if delivered && plan.Strategy == dispatch.StrategyFallback {
			report.Attempts = append(report.Attempts, AttemptResult{
				Channel: a.Channel, Role: a.Role, Recipient: to, Status: StatusSkipped,
				Error: "earlier channel delivered",
			})
			metrics.ChannelAttempts.WithLabelValues(string(a.Channel), string(a.Role), string(StatusSkipped)).Inc()
			continue
		}
		res := r.attempt(ctx, a, to, ev, deliver)
		report.Attempts = append(report.Attempts, res)
		metrics.ChannelAttempts.WithLabelValues(string(a.Channel), string(a.Role), string(res.Status)).Inc()

		switch res.Status {
		case StatusSent:
			delivered = true
		case StatusSkipped:
			log.Warn("channel unavailable",
				slog.String("channel", string(a.Channel)),
				slog.String("recipient", to),
				slog.Any("err", res.err),
			)
		case StatusFailed:
			log.Error("channel send failed",
				slog.String("channel", string(a.Channel)),
				slog.String("role", string(a.Role)),
				slog.String("recipient", to),
				slog.Any("err", res.err),
			)
		}
	}
}

// attempt runs one channel send, converting errors and panics into an
// AttemptResult.
func (r *Router) attempt(ctx context.Context, a dispatch.Attempt, to string, ev *event.NotificationEvent, deliver deliverFunc) (res AttemptResult) {
	res = AttemptResult{Channel: a.Channel, Role: a.Role, Recipient: to}
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "notification.send."+string(a.Channel), trace.WithAttributes(
		attribute.String("channel", string(a.Channel)),
		attribute.String("role", string(a.Role)),
	))
	defer func() {
		if p := recover(); p != nil {
			res.err = fmt.Errorf("panic in %s sender: %v", a.Channel, p)
			res.Status = StatusFailed
		}
		if res.err != nil {
			res.Error = res.err.Error()
			span.RecordError(res.err)
			span.SetStatus(codes.Error, res.Error)
		}
		res.DurationMs = time.Since(start).Milliseconds()
		span.SetAttributes(attribute.String("status", string(res.Status)))
		span.End()
	}()

	s, err := r.senders.Get(a.Channel)
	if err != nil {
		res.Status, res.err = StatusSkipped, err
		return res
	}
	if err := deliver(ctx, s, to, ev); err != nil {
		res.Status, res.err = StatusFailed, err
		if errors.Is(err, channel.ErrUnconfigured) {
			res.Status = StatusSkipped
		}
		return res
	}
	res.Status = StatusSent
	return res
}

func identifierFor(ch dispatch.Channel, c recipient.Contacts) string {
	if ch == dispatch.ChannelEmail {
		return c.Email
	}
	return c.Phone
}
