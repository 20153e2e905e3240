package eventbus

import (
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"storyscroll/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventSectionChanged     = domain.EventSectionChanged
	EventNavigationRejected = domain.EventNavigationRejected
	EventNavigationStarted  = domain.EventNavigationStarted
	EventNavigationAborted  = domain.EventNavigationAborted
	EventRecovery           = domain.EventRecovery
	EventEmergencyReset     = domain.EventEmergencyReset
	EventStoryLoaded        = domain.EventStoryLoaded
	EventStoryReloaded      = domain.EventStoryReloaded
	EventError              = domain.EventError
	EventConfigLoaded       = domain.EventConfigLoaded
	EventConfigSaved        = domain.EventConfigSaved
)

// Re-export domain event types
type SectionChangedEvent = domain.SectionChangedEvent
type NavigationRejectedEvent = domain.NavigationRejectedEvent
type NavigationStartedEvent = domain.NavigationStartedEvent
type NavigationAbortedEvent = domain.NavigationAbortedEvent
type RecoveryEvent = domain.RecoveryEvent
type EmergencyResetEvent = domain.EmergencyResetEvent
type StoryLoadedEvent = domain.StoryLoadedEvent
type StoryReloadedEvent = domain.StoryReloadedEvent
type ErrorEvent = domain.ErrorEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigSavedEvent = domain.ConfigSavedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	log       *zap.Logger
	wg        sync.WaitGroup // dispatcher
	inflight  sync.WaitGroup // running handlers
	quit      chan struct{}
	closeOnce sync.Once
}

// New creates a new event bus
func New(log *zap.Logger) EventBus {
	if log == nil {
		log = zap.NewNop()
	}
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 1000),
		log:       log.Named("eventbus"),
		quit:      make(chan struct{}),
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers. It never blocks; when the
// buffer is full the event is dropped and logged.
func (b *bus) Publish(event DomainEvent) {
	select {
	case <-b.quit:
		return
	default:
	}

	// Skip logging for high-frequency events
	switch event.Type() {
	case EventNavigationRejected:
	default:
		b.log.Debug("publishing event", zap.String("type", string(event.Type())))
	}

	select {
	case b.eventChan <- event:
	default:
		b.log.Warn("event bus channel full, dropping event", zap.String("type", string(event.Type())))
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher and waits for running handlers. Pending events
// are discarded.
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
		b.wg.Wait()
		b.inflight.Wait()
	})
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.mu.RLock()
			subs := b.handlers[event.Type()]
			handlersCopy := make([]EventHandler, len(subs))
			for i, s := range subs {
				handlersCopy[i] = s.handler
			}
			b.mu.RUnlock()

			for _, handler := range handlersCopy {
				b.inflight.Add(1)
				go func(h EventHandler, eventType EventType) {
					defer b.inflight.Done()
					defer func() {
						if r := recover(); r != nil {
							b.log.Error("event handler panic",
								zap.String("type", string(eventType)),
								zap.Any("panic", r),
								zap.ByteString("stack", debug.Stack()))
						}
					}()
					h(event)
				}(handler, event.Type())
			}

		case <-b.quit:
			// Drain remaining events
			for {
				select {
				case <-b.eventChan:
				default:
					return
				}
			}
		}
	}
}
