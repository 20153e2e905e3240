package ui

import (
	"time"

	"storyscroll/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// frameMsg drives one animation frame
type frameMsg time.Time

// verifyMsg triggers a state verification pass
type verifyMsg time.Time

// pagerMsg reports the end of a pager session
type pagerMsg struct {
	err error
}

// clearStatusMsg clears a transient status message
type clearStatusMsg struct{}

// reloadMsg rebuilds the controller after a failed emergency reset
type reloadMsg struct{}
