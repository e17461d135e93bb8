package model

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment links a student to a course. Unique per (course, student).
type Enrollment struct {
	ID        uuid.UUID `json:"id"`
	CourseID  uuid.UUID `json:"course_id"`
	StudentID int       `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateEnrollmentRequest is the payload for enrolling a student in a course.
type CreateEnrollmentRequest struct {
	StudentID int `json:"student_id" binding:"required"`
}
