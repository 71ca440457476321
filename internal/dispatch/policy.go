package dispatch

import (
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/notification-service/internal/event"
)

// Channel identifies a delivery transport.
type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelEmail Channel = "email"
)

// PriorityEmailFirst is the only priority hint that changes the default
// chat-first ordering.
const PriorityEmailFirst = 2

// Role tags an attempt with its place in the preference order.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

// Strategy decides whether later attempts depend on earlier outcomes.
type Strategy string

const (
	// StrategyAll attempts every usable channel regardless of outcomes.
	StrategyAll Strategy = "all"
	// StrategyFallback stops at the first successful attempt.
	StrategyFallback Strategy = "fallback"
)

// ParseStrategy maps a config value to a Strategy. Empty means StrategyAll.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyAll:
		return StrategyAll, nil
	case StrategyFallback:
		return StrategyFallback, nil
	}
	return "", fmt.Errorf("unknown dispatch strategy %q (want %q or %q)", s, StrategyAll, StrategyFallback)
}

// Attempt is one planned channel send.
type Attempt struct {
	Channel Channel
	Role    Role
}

// Plan is the ordered list of channel attempts for one event.
type Plan struct {
	Strategy  Strategy
	Preferred Channel
	Attempts  []Attempt
}

// Empty reports that no channel is reachable.
func (p Plan) Empty() bool { return len(p.Attempts) == 0 }

// PreferredSkipped reports that the preferred channel was dropped because
// its identifier is unusable.
func (p Plan) PreferredSkipped() bool {
	for _, a := range p.Attempts {
		if a.Channel == p.Preferred {
			return false
		}
	}
	return true
}

// Channels returns the planned channels in order.
func (p Plan) Channels() []Channel {
	out := make([]Channel, len(p.Attempts))
	for i, a := range p.Attempts {
		out[i] = a.Channel
	}
	return out
}

// Policy orders and filters channels for an event.
// It holds no mutable state and is safe for concurrent use.
type Policy struct {
	strategy Strategy
}

// NewPolicy returns a Policy using strategy (StrategyAll when empty).
func NewPolicy(strategy Strategy) *Policy {
	if strategy == "" {
		strategy = StrategyAll
	}
	return &Policy{strategy: strategy}
}

// Strategy returns the configured strategy.
func (p *Policy) Strategy() Strategy { return p.strategy }

// Order returns the preference order for a priority hint: email first for
// priority 2, chat first otherwise (including absent hints).
func Order(priority event.Priority) []Channel {
	if priority.Is(PriorityEmailFirst) {
		return []Channel{ChannelEmail, ChannelChat}
	}
	return []Channel{ChannelChat, ChannelEmail}
}

// Plan builds the attempt list for the given hint and identifier usability.
// Channels whose identifier is unusable are removed; an empty plan means the
// recipient is unreachable.
func (p *Policy) Plan(priority event.Priority, phoneUsable, emailUsable bool) Plan {
	order := Order(priority)
	plan := Plan{
		Strategy:  p.strategy,
		Preferred: order[0],
		Attempts:  make([]Attempt, 0, len(order)),
	}
	for i, ch := range order {
		if !usableFor(ch, phoneUsable, emailUsable) {
			continue
		}
		role := RoleSecondary
		if i == 0 {
			role = RolePrimary
		}
		plan.Attempts = append(plan.Attempts, Attempt{Channel: ch, Role: role})
	}
	return plan
}

func usableFor(ch Channel, phoneUsable, emailUsable bool) bool {
	switch ch {
	case ChannelChat:
		return phoneUsable
	case ChannelEmail:
		return emailUsable
	}
	return false
}
