package board

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ldi/taskboard/pkg/models"
)

type EventType string

const (
	EventTaskCreated       EventType = "task.created"
	EventTaskStatusChanged EventType = "task.status_changed"
	EventTaskDeleted       EventType = "task.deleted"
)

// Event describes a successful mutation. From/To are only set for status
// changes.
type Event struct {
	ID   string        `json:"id"`
	Type EventType     `json:"type"`
	Task models.Task   `json:"task"`
	From models.Status `json:"from,omitempty"`
	To   models.Status `json:"to,omitempty"`
	At   time.Time     `json:"at"`
}

// Subscriber receives events after each successful mutation. Subscribers
// are best-effort: they run synchronously but can never fail the mutation.
type Subscriber func(Event)

type emitter struct {
	mu   sync.RWMutex
	subs []Subscriber
}

func (e *emitter) subscribe(fn Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

func (e *emitter) emit(evt Event) {
	evt.ID = uuid.NewString()
	evt.At = time.Now().UTC()

	e.mu.RLock()
	subs := e.subs
	e.mu.RUnlock()

	for _, fn := range subs {
		safeNotify(fn, evt)
	}
}

// safeNotify shields the mutation from a misbehaving subscriber.
func safeNotify(fn Subscriber, evt Event) {
	defer func() { _ = recover() }()
	fn(evt)
}

// LogSubscriber returns a subscriber that records notable mutations:
// creation and deletion of HIGH-priority tasks, and every status change.
func LogSubscriber(logger *log.Logger) Subscriber {
	return func(evt Event) {
		switch evt.Type {
		case EventTaskCreated:
			if evt.Task.Priority == models.PriorityHigh {
				logger.Warn("high priority task created", "id", evt.Task.ID, "title", evt.Task.Title)
			}
		case EventTaskDeleted:
			if evt.Task.Priority == models.PriorityHigh {
				logger.Warn("high priority task deleted", "id", evt.Task.ID, "title", evt.Task.Title)
			}
		case EventTaskStatusChanged:
			logger.Info("task status changed", "id", evt.Task.ID, "from", evt.From, "to", evt.To)
		}
	}
}
