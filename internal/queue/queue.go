package queue

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyscroll/internal/clock"
)

// DefaultDedupeWindow is how long an identical request is suppressed
const DefaultDedupeWindow = 100 * time.Millisecond

// Source identifies where a navigation request came from
type Source string

const (
	SourceWheel        Source = "wheel"
	SourceTouch        Source = "touch"
	SourceKeyboard     Source = "keyboard"
	SourceProgrammatic Source = "programmatic"
	SourceRecovery     Source = "recovery"
	SourceNarrative    Source = "narrative"
)

// Priority orders pending requests
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Options are per-request overrides
type Options struct {
	Duration   time.Duration // zero uses the distance-scaled default
	Immediate  bool
	Force      bool
	OnComplete func()
}

// Request is a pending navigation
type Request struct {
	ID        string
	Target    int
	Source    Source
	Priority  Priority
	Timestamp time.Time
	Options   Options
}

type recent struct {
	req *Request
	at  time.Time
}

// Queue buffers navigation requests. The caller clamps targets; the queue
// does not know the section count.
type Queue struct {
	mu      sync.Mutex
	clk     clock.Clock
	log     *zap.Logger
	window  time.Duration
	pending []*Request
	history []recent
}

// New creates a queue. A non-positive window uses DefaultDedupeWindow.
func New(window time.Duration, clk clock.Clock, log *zap.Logger) *Queue {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		clk:    clock.OrReal(clk),
		log:    log,
		window: window,
	}
}

// Enqueue inserts req by priority and returns the stored request and true.
// When a request for the same target is already pending, or the same target
// and source was seen within the dedupe window, the existing request is
// returned with false and nothing is inserted.
func (q *Queue) Enqueue(req Request) (*Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clk.Now()
	q.pruneLocked(now)

	for _, p := range q.pending {
		if p.Target == req.Target {
			q.log.Debug("navigation request coalesced",
				zap.Int("target", req.Target),
				zap.String("source", string(req.Source)),
				zap.String("existing", p.ID))
			return p, false
		}
	}
	for _, h := range q.history {
		if h.req.Target == req.Target && h.req.Source == req.Source {
			q.log.Debug("duplicate navigation request",
				zap.Int("target", req.Target),
				zap.String("source", string(req.Source)),
				zap.Duration("age", now.Sub(h.at)))
			return h.req, false
		}
	}

	stored := req
	stored.ID = uuid.NewString()
	stored.Timestamp = now
	q.insertLocked(&stored)
	q.history = append(q.history, recent{req: &stored, at: now})
	return &stored, true
}

func (q *Queue) insertLocked(r *Request) {
	at := len(q.pending)
	switch r.Priority {
	case PriorityCritical:
		at = q.indexLocked(func(p *Request) bool { return p.Priority != PriorityCritical })
	case PriorityHigh:
		at = q.indexLocked(func(p *Request) bool { return p.Priority <= PriorityNormal })
	}
	q.pending = append(q.pending, nil)
	copy(q.pending[at+1:], q.pending[at:])
	q.pending[at] = r
}

func (q *Queue) indexLocked(match func(*Request) bool) int {
	for i, p := range q.pending {
		if match(p) {
			return i
		}
	}
	return len(q.pending)
}

func (q *Queue) pruneLocked(now time.Time) {
	keep := q.history[:0]
	for _, h := range q.history {
		if now.Sub(h.at) < q.window {
			keep = append(keep, h)
		}
	}
	q.history = keep
}

// Dequeue removes and returns the head, or nil when empty
func (q *Queue) Dequeue() *Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	head := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return head
}

// Peek returns the head without removing it
func (q *Queue) Peek() *Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	return q.pending[0]
}

// Remove drops a pending request by id
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, p := range q.pending {
		if p.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Clear drops every pending request and the dedupe history
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
	q.history = nil
}

// Pending returns a snapshot in dequeue order
func (q *Queue) Pending() []Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Request, len(q.pending))
	for i, p := range q.pending {
		out[i] = *p
	}
	return out
}
