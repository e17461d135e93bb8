package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave  Action = "autosave"
	ActionHeartbeat Action = "heartbeat"
	ActionSubmit    Action = "submit"
	ActionPing      Action = "ping"
)

// RequestPayload is the single client message shape. Fields beyond Action
// are only meaningful for some actions.
type RequestPayload struct {
	Action     Action          `json:"action"`
	ItemNumber int             `json:"item_number,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventTick      Event = "tick"
	EventSubmitted Event = "submitted"
	EventPong      Event = "pong"
)

// TickResponse reports the session clock after a heartbeat or autosave.
type TickResponse struct {
	Event                Event  `json:"event"`
	EffectiveUsedSeconds int64  `json:"effective_used_seconds"`
	RemainingSeconds     *int64 `json:"remaining_seconds,omitempty"`
}

// SubmittedResponse confirms a finalized session.
type SubmittedResponse struct {
	Event           Event `json:"event"`
	TimeUsedSeconds int64 `json:"time_used_seconds"`
}

// ErrorResponse carries a machine-readable error code.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
}

// PongResponse answers a ping.
type PongResponse struct {
	Event Event `json:"event"`
}
