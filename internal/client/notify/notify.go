// Package notify is the transient message channel of the client. Any service
// may publish; a single Sink renders what is active. Each notification expires
// on its own timer, started at publish time.
package notify

import (
	"slices"
	"sync"
	"time"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// DefaultTTL is how long a notification stays active unless dismissed.
const DefaultTTL = 4000 * time.Millisecond

type ID uint64

type Notification struct {
	ID        ID
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// Sink renders notifications. Show and Hide are called without the channel
// lock held, at most once per notification each.
type Sink interface {
	Show(n Notification)
	Hide(id ID)
}

// Publisher is what services depend on.
type Publisher interface {
	Publish(message string, sev Severity) ID
}

type entry struct {
	n     Notification
	timer *time.Timer
	shown bool
}

type Channel struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	lastID ID
	active []*entry
	sink   Sink
	closed bool
}

func NewChannel(ttl time.Duration) *Channel {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Channel{ttl: ttl, now: time.Now}
}

// Publish adds a notification and schedules its removal. A nil channel
// accepts the call and returns 0.
func (c *Channel) Publish(message string, sev Severity) ID {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	c.lastID++
	e := &entry{n: Notification{ID: c.lastID, Message: message, Severity: sev, CreatedAt: c.now()}}
	c.active = append(c.active, e)
	id := e.n.ID
	e.timer = time.AfterFunc(c.ttl, func() { c.remove(id) })

	sink := c.sink
	if sink != nil {
		e.shown = true
	}
	c.mu.Unlock()

	if sink != nil {
		sink.Show(e.n)
	}
	return id
}

// Dismiss removes id immediately. Unknown or already expired ids are ignored.
func (c *Channel) Dismiss(id ID) {
	if c == nil {
		return
	}
	c.remove(id)
}

func (c *Channel) remove(id ID) {
	c.mu.Lock()
	i := slices.IndexFunc(c.active, func(e *entry) bool { return e.n.ID == id })
	if i < 0 {
		c.mu.Unlock()
		return
	}
	e := c.active[i]
	c.active = slices.Delete(c.active, i, i+1)
	e.timer.Stop()

	sink := c.sink
	notifySink := sink != nil && e.shown
	c.mu.Unlock()

	if notifySink {
		sink.Hide(id)
	}
}

// Active returns the live notifications in publish order.
func (c *Channel) Active() []Notification {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, 0, len(c.active))
	for _, e := range c.active {
		out = append(out, e.n)
	}
	return out
}

// Mount attaches the renderer and replays everything published before it
// that has not expired yet. Mounting again replaces the sink.
func (c *Channel) Mount(s Sink) {
	c.mu.Lock()
	c.sink = s
	var pending []Notification
	for _, e := range c.active {
		if !e.shown {
			e.shown = true
			pending = append(pending, e.n)
		}
	}
	c.mu.Unlock()

	for _, n := range pending {
		s.Show(n)
	}
}

// Close stops every timer and drops the active list without calling the sink.
// Later publishes are ignored.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.active {
		e.timer.Stop()
	}
	c.active = nil
	c.closed = true
}
