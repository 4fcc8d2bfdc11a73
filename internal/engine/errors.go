package engine

import (
	"errors"
	"fmt"
)

// GateError indicates a feature is locked behind a required displayed level.
// This is returned by gate checks and should be shown to the user.
type GateError struct {
	Feature       string
	RequiredLevel int
	CurrentLevel  int
	// PlanLimited is set when the current plan can never reach RequiredLevel.
	PlanLimited bool
}

func (e GateError) Error() string {
	if e.RequiredLevel <= 0 {
		return fmt.Sprintf("feature '%s' is locked", e.Feature)
	}
	if e.PlanLimited {
		return fmt.Sprintf("feature '%s' unlocks at level %d, which your plan does not reach", e.Feature, e.RequiredLevel)
	}
	return fmt.Sprintf("feature '%s' unlocks at level %d (currently %d)", e.Feature, e.RequiredLevel, e.CurrentLevel)
}

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("session closed")

// ErrUnknownTask is returned when a task id is not in the history.
var ErrUnknownTask = errors.New("unknown task")
