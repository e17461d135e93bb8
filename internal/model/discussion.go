package model

import (
	"time"

	"github.com/google/uuid"
)

// AuthorRole identifies who wrote a discussion post.
type AuthorRole string

const (
	AuthorRoleStudent    AuthorRole = "STUDENT"
	AuthorRoleInstructor AuthorRole = "INSTRUCTOR"
)

// Discussion represents a discussion post on a course.
type Discussion struct {
	ID         uuid.UUID  `json:"id"`
	CourseID   uuid.UUID  `json:"course_id"`
	AuthorID   int        `json:"author_id"`
	AuthorRole AuthorRole `json:"author_role"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CreateDiscussionRequest is the payload for posting to a course discussion.
type CreateDiscussionRequest struct {
	Body string `json:"body" binding:"required,min=1,max=10000"`
}
