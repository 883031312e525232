package smtp

import (
	"sync"
	"time"
)

// DefaultInboxCapacity bounds how many messages the sink keeps in memory
const DefaultInboxCapacity = 500

// ReceivedMessage is one message accepted by the sink
type ReceivedMessage struct {
	EnvelopeFrom string
	Recipients   []string
	ReceivedAt   time.Time
	Size         int64
	Email        *ParsedEmail
}

// Inbox keeps the most recent messages accepted by the sink.
// Oldest messages are dropped once capacity is reached.
type Inbox struct {
	mu       sync.RWMutex
	capacity int
	messages []ReceivedMessage
	onAdd    func(ReceivedMessage)
}

// NewInbox creates an inbox. A capacity of zero or less uses DefaultInboxCapacity.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxCapacity
	}
	return &Inbox{capacity: capacity}
}

// OnAdd registers a callback run after each message is stored
func (i *Inbox) OnAdd(fn func(ReceivedMessage)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.onAdd = fn
}

// Add stores a message
func (i *Inbox) Add(msg ReceivedMessage) {
	i.mu.Lock()
	i.messages = append(i.messages, msg)
	if len(i.messages) > i.capacity {
		i.messages = i.messages[len(i.messages)-i.capacity:]
	}
	fn := i.onAdd
	i.mu.Unlock()

	if fn != nil {
		fn(msg)
	}
}

// Messages returns a copy of the stored messages, oldest first
func (i *Inbox) Messages() []ReceivedMessage {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]ReceivedMessage, len(i.messages))
	copy(out, i.messages)
	return out
}

// Len returns the number of stored messages
func (i *Inbox) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.messages)
}

// Clear drops all stored messages
func (i *Inbox) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages = nil
}
