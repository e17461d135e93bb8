package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates assignment session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusSubmitted  SessionStatus = "SUBMITTED"
	SessionStatusExpired    SessionStatus = "EXPIRED"
)

// AssignmentSession represents a student's attempt at an assignment.
// Exactly one session exists per (student, assignment) pair.
//
// LastResumedAt carries the run state: non-nil means the clock has been
// running since that instant, nil means paused with TimeUsedSeconds fully
// committed. The timekeeper package is the only writer of the
// (LastResumedAt, TimeUsedSeconds, Status) triple.
type AssignmentSession struct {
	ID              uuid.UUID     `json:"id"`
	AssignmentID    uuid.UUID     `json:"assignment_id"`
	StudentID       int           `json:"student_id"`
	StartedAt       time.Time     `json:"started_at"`
	LastResumedAt   *time.Time    `json:"last_resumed_at,omitempty"`
	TimeUsedSeconds int64         `json:"time_used_seconds"`
	Status          SessionStatus `json:"status"`
	SubmittedAt     *time.Time    `json:"submitted_at,omitempty"`
	Score           *float64      `json:"score,omitempty"`
}

// GradeSessionRequest is the payload for scoring one submitted session.
type GradeSessionRequest struct {
	Score float64 `json:"score" binding:"min=0,max=100"`
}

// SessionView is the caller-facing projection of a session, with the clock
// evaluated at a concrete instant.
type SessionView struct {
	Session              AssignmentSession `json:"session"`
	EffectiveUsedSeconds int64             `json:"effective_used_seconds"`
	// RemainingSeconds is a hint only; nil when the assignment has no
	// duration budget. Never negative.
	RemainingSeconds *int64 `json:"remaining_seconds,omitempty"`
}
