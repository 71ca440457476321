package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the notification event type carried in eventType.
type Kind string

const (
	KindWelcome          Kind = "WELCOME"
	KindPaymentConfirmed Kind = "PAYMENT_CONFIRMED"
)

// ErrEmptyPayload is returned by Decode for empty or JSON null messages.
var ErrEmptyPayload = errors.New("empty event payload")

// NotificationEvent is the canonical input model consumed from the queue.
// Unknown JSON fields are ignored. String fields and templateData values
// also accept JSON numbers and booleans; null and nested values are dropped.
type NotificationEvent struct {
	EventID        string            `json:"eventId"`
	EventType      string            `json:"eventType"` // WELCOME, PAYMENT_CONFIRMED, …
	RecipientPhone string            `json:"recipientPhone"`
	RecipientEmail string            `json:"recipientEmail"`
	RecipientName  string            `json:"recipientName"`
	TemplateData   map[string]string `json:"templateData"`
	Priority       Priority          `json:"priority"`  // 1 = chat first, 2 = email first
	Timestamp      Timestamp         `json:"timestamp"` // informational only
	ReceivedAt     time.Time         `json:"-"`
}

// Kind returns the normalised event kind (trimmed, upper-cased).
func (e *NotificationEvent) Kind() Kind {
	return Kind(strings.ToUpper(strings.TrimSpace(e.EventType)))
}

// Data returns TemplateData, never nil.
func (e *NotificationEvent) Data() map[string]string {
	if e.TemplateData == nil {
		return map[string]string{}
	}
	return e.TemplateData
}

// Decode parses a queue message body into a NotificationEvent.
func Decode(data []byte) (*NotificationEvent, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyPayload
	}
	var ev NotificationEvent
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return nil, fmt.Errorf("decode notification event: %w", err)
	}
	ev.ReceivedAt = time.Now()
	return &ev, nil
}

// UnmarshalJSON decodes through tolerant scalar types so producers that
// send numeric phones or template values are not rejected.
func (e *NotificationEvent) UnmarshalJSON(b []byte) error {
	var w struct {
		EventID        scalar    `json:"eventId"`
		EventType      scalar    `json:"eventType"`
		RecipientPhone scalar    `json:"recipientPhone"`
		RecipientEmail scalar    `json:"recipientEmail"`
		RecipientName  scalar    `json:"recipientName"`
		TemplateData   scalarMap `json:"templateData"`
		Priority       Priority  `json:"priority"`
		Timestamp      Timestamp `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*e = NotificationEvent{
		EventID:        string(w.EventID),
		EventType:      string(w.EventType),
		RecipientPhone: string(w.RecipientPhone),
		RecipientEmail: string(w.RecipientEmail),
		RecipientName:  string(w.RecipientName),
		TemplateData:   map[string]string(w.TemplateData),
		Priority:       w.Priority,
		Timestamp:      w.Timestamp,
	}
	return nil
}

// -----------------------------------------------------------------------
// Scalars
// -----------------------------------------------------------------------

// scalar is a string that also accepts number and boolean literals. Numbers
// keep their literal text, so 500.00 stays "500.00".
type scalar string

func (s *scalar) UnmarshalJSON(b []byte) error {
	v, _ := scalarText(b)
	*s = scalar(v)
	return nil
}

// scalarMap is a string map whose values go through scalarText. Keys with
// null, object or array values are skipped.
type scalarMap map[string]string

func (m *scalarMap) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil || raw == nil {
		*m = nil
		return nil
	}
	out := make(scalarMap, len(raw))
	for k, v := range raw {
		if text, ok := scalarText(v); ok {
			out[k] = text
		}
	}
	*m = out
	return nil
}

// scalarText renders a JSON scalar as text. ok is false for null, objects,
// arrays and anything that does not parse.
func scalarText(b []byte) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return "", false
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return "", false
		}
		return v, true
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return "", false
		}
		return strconv.FormatBool(v), true
	case 'n', '{', '[':
		return "", false
	default:
		n := json.Number(b)
		if _, err := n.Float64(); err != nil {
			return "", false
		}
		return n.String(), true
	}
}

// -----------------------------------------------------------------------
// Priority
// -----------------------------------------------------------------------

// Priority is the optional channel-preference hint. Producers send it as a
// number, a numeric string, or null.
type Priority struct {
	Value int
	Set   bool
}

// PriorityOf returns a set Priority.
func PriorityOf(v int) Priority { return Priority{Value: v, Set: true} }

// Is reports whether the priority is present and equal to v.
func (p Priority) Is(v int) bool { return p.Set && p.Value == v }

func (p *Priority) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*p = Priority{}
		return nil
	}
	s = strings.Trim(s, `"`)
	i, err := json.Number(s).Int64()
	if err != nil {
		// Unparseable hints fall back to the default ordering.
		*p = Priority{}
		return nil
	}
	*p = Priority{Value: int(i), Set: true}
	return nil
}

func (p Priority) MarshalJSON() ([]byte, error) {
	if !p.Set {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

func (p Priority) String() string {
	if !p.Set {
		return "none"
	}
	return fmt.Sprintf("%d", p.Value)
}

// -----------------------------------------------------------------------
// Timestamp
// -----------------------------------------------------------------------

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp accepts RFC3339, zone-less ISO local date-times, and the
// [year, month, day, hour, minute, second, nanos] array form. A value that
// cannot be parsed is left zero; it never fails decoding.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null" || s == "":
		return nil
	case strings.HasPrefix(s, "["):
		var parts []int
		if err := json.Unmarshal(b, &parts); err != nil || len(parts) < 3 {
			return nil
		}
		for len(parts) < 7 {
			parts = append(parts, 0)
		}
		t.Time = time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], parts[6], time.UTC)
		return nil
	case strings.HasPrefix(s, `"`):
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, raw); err == nil {
				t.Time = parsed
				return nil
			}
		}
		return nil
	default:
		var ms int64
		if err := json.Unmarshal(b, &ms); err == nil {
			t.Time = time.UnixMilli(ms).UTC()
		}
		return nil
	}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format("2006-01-02T15:04:05"))
}
