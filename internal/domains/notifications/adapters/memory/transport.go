package memory

import (
	"context"
	"sync"

	"github.com/Apurer/restaurant-orders/internal/domains/notifications/ports"
)

var _ ports.Transport = (*Transport)(nil)

// Transport records messages in memory. Useful for tests and local runs.
type Transport struct {
	mu       sync.Mutex
	messages []ports.Message
	err      error
}

func NewTransport() *Transport {
	return &Transport{}
}

// FailWith makes subsequent sends return err after recording the message.
func (t *Transport) FailWith(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
}

func (t *Transport) Send(_ context.Context, message ports.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, message)
	return t.err
}

// Messages returns a copy of everything sent so far.
func (t *Transport) Messages() []ports.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ports.Message{}, t.messages...)
}

// ByChannel returns the messages sent on channel.
func (t *Transport) ByChannel(channel ports.Channel) []ports.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []ports.Message
	for _, m := range t.messages {
		if m.Channel == channel {
			out = append(out, m)
		}
	}
	return out
}

func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}
