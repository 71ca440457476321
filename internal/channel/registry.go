package channel

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gyaneshwarpardhi/notification-service/internal/dispatch"
)

// Registry maps channels to their senders.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu      sync.RWMutex
	senders map[dispatch.Channel]Sender
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{senders: make(map[dispatch.Channel]Sender)}
}

// Register adds a sender. Panics on duplicate channel to surface misconfiguration early.
func (r *Registry) Register(s Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.senders[s.Channel()]; exists {
		panic(fmt.Sprintf("channel registry: duplicate channel %q", s.Channel()))
	}
	r.senders[s.Channel()] = s
}

// Get returns the sender for ch, or an error wrapping ErrUnavailable.
func (r *Registry) Get(ch dispatch.Channel) (Sender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.senders[ch]
	if !ok {
		return nil, fmt.Errorf("%w: no sender registered for %q", ErrUnavailable, ch)
	}
	return s, nil
}

// Channels returns the registered channels, sorted.
func (r *Registry) Channels() []dispatch.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dispatch.Channel, 0, len(r.senders))
	for k := range r.senders {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
