package domain

import "time"

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSectionChanged     EventType = "SectionChanged"
	EventNavigationRejected EventType = "NavigationRejected"
	EventNavigationStarted  EventType = "NavigationStarted"
	EventNavigationAborted  EventType = "NavigationAborted"
	EventRecovery           EventType = "Recovery"
	EventEmergencyReset     EventType = "EmergencyReset"
	EventStoryLoaded        EventType = "StoryLoaded"
	EventStoryReloaded      EventType = "StoryReloaded"
	EventError              EventType = "Error"
	EventConfigLoaded       EventType = "ConfigLoaded"
	EventConfigSaved        EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SectionChangedEvent is emitted once per committed navigation
type SectionChangedEvent struct {
	From     int
	To       int
	Pathname string
	At       time.Time
}

func (e SectionChangedEvent) Type() EventType { return EventSectionChanged }

// NavigationStartedEvent is emitted when an animation toward a section begins
type NavigationStartedEvent struct {
	AnimationID string
	From        int
	To          int
	Source      string
}

func (e NavigationStartedEvent) Type() EventType { return EventNavigationStarted }

// NavigationRejectedEvent is emitted when a navigation request is dropped by a gate
type NavigationRejectedEvent struct {
	Target int
	Source string
	Reason string
}

func (e NavigationRejectedEvent) Type() EventType { return EventNavigationRejected }

// NavigationAbortedEvent is emitted when an in-flight animation is interrupted
// or cannot start because its section could not be located
type NavigationAbortedEvent struct {
	AnimationID string
	Target      int
	Reason      string
}

func (e NavigationAbortedEvent) Type() EventType { return EventNavigationAborted }

// RecoveryEvent is emitted when the verifier corrects the controller state
type RecoveryEvent struct {
	Check  string // "section-mismatch", "stuck-animation", "invalid-target", "idle-drift"
	Detail string
}

func (e RecoveryEvent) Type() EventType { return EventRecovery }

// EmergencyResetEvent is emitted after a full teardown and reset
type EmergencyResetEvent struct {
	FromSection int
	Recovered   bool // false when the host had to be asked to reload
}

func (e EmergencyResetEvent) Type() EventType { return EventEmergencyReset }

// StoryLoadedEvent is emitted when a story is first loaded
type StoryLoadedEvent struct {
	Story Story
}

func (e StoryLoadedEvent) Type() EventType { return EventStoryLoaded }

// StoryReloadedEvent is emitted when the story source changed on disk
type StoryReloadedEvent struct {
	Story Story
}

func (e StoryReloadedEvent) Type() EventType { return EventStoryReloaded }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
