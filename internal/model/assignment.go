package model

import (
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus enumerates the lifecycle states of an assignment.
type AssignmentStatus string

const (
	AssignmentStatusDraft          AssignmentStatus = "DRAFT"
	AssignmentStatusProcessing     AssignmentStatus = "PROCESSING"
	AssignmentStatusReadyForReview AssignmentStatus = "READY_FOR_REVIEW"
	AssignmentStatusPublished      AssignmentStatus = "PUBLISHED"
	AssignmentStatusGraded         AssignmentStatus = "GRADED"
)

// Assignment represents a timed assignment inside a course.
//
// StartTime, DurationMinutes and Deadline are all optional. DurationMinutes
// bounds a session's consumable time only; it never closes the assignment's
// publication window.
type Assignment struct {
	ID              uuid.UUID        `json:"id"`
	CourseID        uuid.UUID        `json:"course_id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	StartTime       *time.Time       `json:"start_time,omitempty"`
	DurationMinutes *int             `json:"duration_minutes,omitempty"`
	Deadline        *time.Time       `json:"deadline,omitempty"`
	Status          AssignmentStatus `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CreateAssignmentRequest is the payload for creating a new assignment.
type CreateAssignmentRequest struct {
	CourseID        uuid.UUID  `json:"course_id" binding:"required"`
	Title           string     `json:"title" binding:"required,min=3,max=255"`
	Description     string     `json:"description" binding:"omitempty,max=5000"`
	StartTime       *time.Time `json:"start_time" binding:"omitempty"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Deadline        *time.Time `json:"deadline" binding:"omitempty"`
}

// UpdateAssignmentRequest is the payload for updating a draft assignment.
type UpdateAssignmentRequest struct {
	Title           string     `json:"title" binding:"omitempty,min=3,max=255"`
	Description     string     `json:"description" binding:"omitempty,max=5000"`
	StartTime       *time.Time `json:"start_time" binding:"omitempty"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Deadline        *time.Time `json:"deadline" binding:"omitempty"`
}

// AssignmentPayload is the Redis-cached payload sent to students on session start.
type AssignmentPayload struct {
	AssignmentID    uuid.UUID  `json:"assignment_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Deadline        *time.Time `json:"deadline,omitempty"`
}
