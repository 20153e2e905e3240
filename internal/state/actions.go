package state

import "time"

// Action is an input to Reduce. Actions defined outside this package are
// accepted and ignored.
type Action interface {
	ActionType() string
}

type SetClientMounted struct{ Mounted bool }

type SetPathname struct{ Pathname string }

type SetCurrentIndex struct{ Index int }

// StartAnimation locks navigation toward Target
type StartAnimation struct {
	Target int
	At     time.Time
}

// EndAnimation releases the lock and clears the target without committing
type EndAnimation struct{}

type StartScrolling struct{ At time.Time }

type EndScrolling struct{}

type UpdateScrollTime struct{ At time.Time }

// ResetScrollState clears navigation fields but keeps client, pathname and
// section count
type ResetScrollState struct{}

// GotoSection atomically sets the current index, marks the state animating
// and stamps the scroll time
type GotoSection struct {
	Index     int
	Timestamp time.Time
}

// CommitSection finishes a navigation: Index becomes current and the lock is released
type CommitSection struct {
	Index int
	At    time.Time
}

type SetSectionCount struct{ Count int }

// SetTargetSection sets the target; NoTarget clears it
type SetTargetSection struct{ Index int }

type RecordScrollPosition struct{ Position float64 }

// ResetState returns to Initial()
type ResetState struct{}

func (SetClientMounted) ActionType() string     { return "SET_CLIENT_MOUNTED" }
func (SetPathname) ActionType() string          { return "SET_PATHNAME" }
func (SetCurrentIndex) ActionType() string      { return "SET_CURRENT_INDEX" }
func (StartAnimation) ActionType() string       { return "START_ANIMATION" }
func (EndAnimation) ActionType() string         { return "END_ANIMATION" }
func (StartScrolling) ActionType() string       { return "START_SCROLLING" }
func (EndScrolling) ActionType() string         { return "END_SCROLLING" }
func (UpdateScrollTime) ActionType() string     { return "UPDATE_SCROLL_TIME" }
func (ResetScrollState) ActionType() string     { return "RESET_SCROLL_STATE" }
func (GotoSection) ActionType() string          { return "GOTO_SECTION" }
func (CommitSection) ActionType() string        { return "COMMIT_SECTION" }
func (SetSectionCount) ActionType() string      { return "SET_SECTION_COUNT" }
func (SetTargetSection) ActionType() string     { return "SET_TARGET_SECTION" }
func (RecordScrollPosition) ActionType() string { return "RECORD_SCROLL_POSITION" }
func (ResetState) ActionType() string           { return "RESET_STATE" }
