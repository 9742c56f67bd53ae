package session

import (
	"sync"
	"time"
)

// Message is one topic/payload pair received from the broker.
type Message struct {
	// Topic the message arrived on.
	Topic string

	// Payload is the raw UTF-8 JSON payload.
	Payload []byte
}

// Inbox is the unbounded FIFO queue shared by every consumer of one
// session. The broker callback feeds it; discovery scans and pending
// action waits drain it cooperatively. Safe for concurrent use.
type Inbox struct {
	mu    sync.Mutex
	queue []Message
	ready chan struct{}
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{ready: make(chan struct{}, 1)}
}

// Put appends a message to the back of the queue.
func (b *Inbox) Put(msg Message) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest message, waiting until the deadline
// if the queue is empty. Returns ok=false when the deadline passes first.
func (b *Inbox) Pop(deadline time.Time) (Message, bool) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			msg := b.queue[0]
			b.queue = b.queue[1:]
			backlog := len(b.queue)
			b.mu.Unlock()
			if backlog > 0 {
				// The single-slot ready channel coalesces signals, so a
				// burst of Puts can leave more messages than wakeups.
				// Pass the signal on for the next blocked consumer.
				select {
				case b.ready <- struct{}{}:
				default:
				}
			}
			return msg, true
		}
		b.mu.Unlock()

		wait := time.Until(deadline)
		if wait <= 0 {
			return Message{}, false
		}
		timer := time.NewTimer(wait)
		select {
		case <-b.ready:
			timer.Stop()
		case <-timer.C:
			return Message{}, false
		}
	}
}

// Len returns the current queue depth.
func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
