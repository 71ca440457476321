package router

import "github.com/gyaneshwarpardhi/notification-service/internal/dispatch"

// Status is the outcome of a single channel attempt.
type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome summarises how an event was handled.
type Outcome string

const (
	OutcomeDelivered   Outcome = "delivered"    // at least one attempt sent
	OutcomeFailed      Outcome = "failed"       // attempts made, none sent
	OutcomeUnavailable Outcome = "unavailable"  // every planned channel skipped, none tried
	OutcomeUnreachable Outcome = "unreachable"  // no usable identifier
	OutcomeUnknownType Outcome = "unknown_type" // event type not handled
	OutcomeInvalid     Outcome = "invalid"      // nil event
)

// AttemptResult records one planned channel attempt.
type AttemptResult struct {
	Channel    dispatch.Channel `json:"channel"`
	Role       dispatch.Role    `json:"role"`
	Recipient  string           `json:"recipient"`
	Status     Status           `json:"status"`
	Error      string           `json:"error,omitempty"`
	DurationMs int64            `json:"duration_ms"`

	err error
}

// Err returns the send error of a failed or skipped attempt.
func (a AttemptResult) Err() error { return a.err }

// Report is the result of routing one event.
type Report struct {
	EventID    string            `json:"event_id"`
	EventType  string            `json:"event_type"`
	Strategy   dispatch.Strategy `json:"strategy,omitempty"`
	Outcome    Outcome           `json:"outcome"`
	Attempts   []AttemptResult   `json:"attempts"`
	DurationMs int64             `json:"duration_ms"`
}

// Count returns how many attempts ended with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, a := range r.Attempts {
		if a.Status == s {
			n++
		}
	}
	return n
}

// Attempted returns the channels a transport call was made for, in order.
func (r *Report) Attempted() []dispatch.Channel {
	var out []dispatch.Channel
	for _, a := range r.Attempts {
		if a.Status != StatusSkipped {
			out = append(out, a.Channel)
		}
	}
	return out
}

func (r *Report) finish() {
	switch {
	case r.Outcome != "":
	case r.Count(StatusSent) > 0:
		r.Outcome = OutcomeDelivered
	case len(r.Attempts) > 0 && r.Count(StatusSkipped) == len(r.Attempts):
		r.Outcome = OutcomeUnavailable
	default:
		r.Outcome = OutcomeFailed
	}
}
