package model

import (
	"time"

	"github.com/google/uuid"
)

// Video represents a lecture video attached to a course.
type Video struct {
	ID              uuid.UUID `json:"id"`
	CourseID        uuid.UUID `json:"course_id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	DurationSeconds int       `json:"duration_seconds"`
	OrderNum        int       `json:"order_num"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateVideoRequest is the payload for adding a video to a course.
type CreateVideoRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	URL             string `json:"url" binding:"required,url,max=2048"`
	DurationSeconds int    `json:"duration_seconds" binding:"omitempty,min=0"`
	OrderNum        int    `json:"order_num" binding:"omitempty,min=0"`
}

// UpdateVideoRequest is the payload for updating a video.
type UpdateVideoRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	URL             string `json:"url" binding:"omitempty,url,max=2048"`
	DurationSeconds int    `json:"duration_seconds" binding:"omitempty,min=0"`
	OrderNum        int    `json:"order_num" binding:"omitempty,min=0"`
}
