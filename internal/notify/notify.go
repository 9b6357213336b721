// Package notify delivers user-facing workspace notifications to
// subscribed views. Publishers fire and forget; slow subscribers drop
// rather than block the publishing store.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a notification for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a single transient user-facing message.
type Notification struct {
	ID       string
	Severity Severity
	Message  string
	Time     time.Time
}

// Publisher is the write side consumed by stores that emit notifications.
type Publisher interface {
	Publish(severity Severity, message string)
}

// Center fans notifications out to subscribers. Subscriber channels are
// buffered; a full channel drops the notification for that subscriber
// instead of blocking the publisher.
type Center struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Notification
	now    func() time.Time
}

// NewCenter constructs an empty notification center.
func NewCenter() *Center {
	return &Center{
		subs: make(map[int]chan Notification),
		now:  time.Now,
	}
}

// Publish delivers a notification to every current subscriber.
func (c *Center) Publish(severity Severity, message string) {
	n := Notification{
		ID:       uuid.NewString(),
		Severity: severity,
		Message:  message,
		Time:     c.now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. The channel is closed on unsubscribe.
func (c *Center) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Notification, buffer)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.mu.Unlock()

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// Recorder is a Publisher that retains everything published, for tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Publish records the notification.
func (r *Recorder) Publish(severity Severity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Notification{Severity: severity, Message: message})
}

// All returns a copy of everything published so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// BySeverity returns recorded notifications of the given severity.
func (r *Recorder) BySeverity(s Severity) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.sent {
		if n.Severity == s {
			out = append(out, n)
		}
	}
	return out
}
