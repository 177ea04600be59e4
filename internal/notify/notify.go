package notify

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of a notice.
type State string

const (
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailure State = "failure"
)

func (s State) IsSettled() bool {
	return s == StateSuccess || s == StateFailure
}

var (
	// ErrUnknownNotice is returned for IDs the center never issued or already evicted.
	ErrUnknownNotice = errors.New("unknown notice")
	// ErrSettled is returned when updating a notice that already succeeded or failed.
	ErrSettled = errors.New("notice already settled")
)

// Notice is a user-visible message addressable by ID.
type Notice struct {
	ID        string
	Title     string
	Detail    string
	State     State
	UpdatedAt time.Time
}

// Center keeps the most recent notices and tells subscribers about changes.
type Center struct {
	mu      sync.Mutex
	limit   int
	order   []string
	notices map[string]*Notice
	subs    map[int]func(Notice)
	nextSub int
	now     func() time.Time
}

// NewCenter returns a Center that remembers up to limit notices.
func NewCenter(limit int) *Center {
	if limit <= 0 {
		limit = 50
	}
	return &Center{
		limit:   limit,
		notices: make(map[string]*Notice),
		subs:    make(map[int]func(Notice)),
		now:     time.Now,
	}
}

// Subscribe registers fn for every change. Callbacks run on the goroutine that
// made the change, outside the center's lock.
func (c *Center) Subscribe(fn func(Notice)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Start creates a pending notice and returns its ID.
func (c *Center) Start(title, detail string) string {
	return c.add(title, detail, StatePending)
}

func (c *Center) Info(title, detail string) string {
	return c.add(title, detail, StateSuccess)
}

func (c *Center) Error(title, detail string) string {
	return c.add(title, detail, StateFailure)
}

// Succeed moves a pending notice to success in place.
func (c *Center) Succeed(id, detail string) error {
	return c.settle(id, detail, StateSuccess)
}

// Fail moves a pending notice to failure in place.
func (c *Center) Fail(id, detail string) error {
	return c.settle(id, detail, StateFailure)
}

func (c *Center) Get(id string) (Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.notices[id]
	if !ok {
		return Notice{}, false
	}
	return *n, true
}

// Recent returns up to n notices, most recently created first.
func (c *Center) Recent(n int) []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 || n > len(c.order) {
		n = len(c.order)
	}
	out := make([]Notice, 0, n)
	for i := len(c.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, *c.notices[c.order[i]])
	}
	return out
}

func (c *Center) add(title, detail string, state State) string {
	c.mu.Lock()
	n := &Notice{
		ID:        uuid.NewString(),
		Title:     title,
		Detail:    detail,
		State:     state,
		UpdatedAt: c.now(),
	}
	c.notices[n.ID] = n
	c.order = append(c.order, n.ID)
	for len(c.order) > c.limit {
		delete(c.notices, c.order[0])
		c.order = c.order[1:]
	}
	snapshot, subs := *n, c.subscribers()
	c.mu.Unlock()

	publish(subs, snapshot)
	return snapshot.ID
}

func (c *Center) settle(id, detail string, state State) error {
	c.mu.Lock()
	n, ok := c.notices[id]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownNotice
	}
	if n.State.IsSettled() {
		c.mu.Unlock()
		return ErrSettled
	}
	n.State = state
	n.Detail = detail
	n.UpdatedAt = c.now()
	snapshot, subs := *n, c.subscribers()
	c.mu.Unlock()

	publish(subs, snapshot)
	return nil
}

func (c *Center) subscribers() []func(Notice) {
	subs := make([]func(Notice), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}

func publish(subs []func(Notice), n Notice) {
	for _, fn := range subs {
		fn(n)
	}
}
