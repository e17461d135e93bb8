package timekeeper

import (
	"time"

	"github.com/stemsi/lentera-backend/internal/model"
)

// WindowState is an assignment's temporal availability, distinct from any
// session's own time-budget state.
type WindowState string

const (
	WindowNotStarted WindowState = "NOT_STARTED"
	WindowActive     WindowState = "ACTIVE"
	WindowEnded      WindowState = "ENDED"
)

// WindowInputs are the assignment fields that drive availability.
type WindowInputs struct {
	StartTime       *time.Time
	DurationMinutes *int
	Deadline        *time.Time
	Status          model.AssignmentStatus
}

// WindowInputsFor extracts the window inputs from an assignment.
func WindowInputsFor(a *model.Assignment) WindowInputs {
	return WindowInputs{
		StartTime:       a.StartTime,
		DurationMinutes: a.DurationMinutes,
		Deadline:        a.Deadline,
		Status:          a.Status,
	}
}

// EvaluateWindow computes an assignment's availability at a given instant.
//
// An assignment whose start time is still in the future is NOT_STARTED.
// Once available, a set deadline ends it strictly after the deadline
// passes; with no deadline it ends only when the assignment is GRADED.
// DurationMinutes bounds a session's consumable time, never the window.
func EvaluateWindow(now time.Time, in WindowInputs) WindowState {
	if in.StartTime != nil && in.StartTime.After(now) {
		return WindowNotStarted
	}

	if in.Deadline != nil {
		if now.After(*in.Deadline) {
			return WindowEnded
		}
		return WindowActive
	}

	if in.Status == model.AssignmentStatusGraded {
		return WindowEnded
	}
	return WindowActive
}
