package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/lentera-backend/internal/config"
)

// SessionEventType classifies session lifecycle events.
type SessionEventType string

const (
	EventSessionStarted   SessionEventType = "SESSION_STARTED"
	EventSessionSubmitted SessionEventType = "SESSION_SUBMITTED"
	EventSessionExpired   SessionEventType = "SESSION_EXPIRED"
)

// SessionEvent is one session lifecycle occurrence. Events are queued for
// durable persistence and fanned out to the live monitor.
type SessionEvent struct {
	SessionID    uuid.UUID        `json:"session_id"`
	AssignmentID uuid.UUID        `json:"assignment_id"`
	StudentID    int              `json:"student_id"`
	Type         SessionEventType `json:"type"`
	OccurredAt   time.Time        `json:"occurred_at"`
	Payload      map[string]any   `json:"payload,omitempty"`
}

// SessionEventSink receives session lifecycle events.
type SessionEventSink interface {
	Publish(ctx context.Context, ev SessionEvent) error
}

// RedisSessionEventSink pushes events onto the persistence queue and the
// assignment's monitor PubSub channel.
type RedisSessionEventSink struct {
	rdb *redis.Client
}

// NewRedisSessionEventSink creates a new RedisSessionEventSink.
func NewRedisSessionEventSink(rdb *redis.Client) *RedisSessionEventSink {
	return &RedisSessionEventSink{rdb: rdb}
}

// Publish enqueues the event for the persistence worker and notifies the
// live monitor channel. Only the queue write can fail the call; monitors
// resync on connect.
func (s *RedisSessionEventSink) Publish(ctx context.Context, ev SessionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistSessionEventsQueue, data).Err(); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}

	_ = s.rdb.Publish(ctx, config.CacheKey.AssignmentMonitorChannel(ev.AssignmentID.String()), data).Err()
	return nil
}
