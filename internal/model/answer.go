package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AssignmentAnswer stores a student's answer for one assignment item.
// The payload is opaque to this service; grading owns its interpretation.
type AssignmentAnswer struct {
	ID         uuid.UUID       `json:"id"`
	SessionID  uuid.UUID       `json:"session_id"`
	ItemNumber int             `json:"item_number"`
	Payload    json.RawMessage `json:"payload"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// SaveAnswerRequest is the payload for creating or replacing an answer.
type SaveAnswerRequest struct {
	Payload json.RawMessage `json:"payload" binding:"required"`
}
