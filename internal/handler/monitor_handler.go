package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/lentera-backend/internal/config"
	"github.com/stemsi/lentera-backend/internal/middleware"
	"github.com/stemsi/lentera-backend/internal/response"
	"github.com/stemsi/lentera-backend/internal/service"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // prevent slow queries from blocking the SSE loop
)

// MonitorHandler streams live assignment progress to instructors over SSE.
type MonitorHandler struct {
	rdb               *redis.Client
	assignmentService *service.AssignmentService
	monitorService    *service.MonitorService
	log               zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	rdb *redis.Client,
	assignmentService *service.AssignmentService,
	monitorService *service.MonitorService,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:               rdb,
		assignmentService: assignmentService,
		monitorService:    monitorService,
		log:               log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorAssignmentSSE godoc
// GET /api/v1/instructor/assignments/:assignment_id/monitor
// Pushes an initial snapshot, then forwards session events from Pub/Sub
// and refreshes clock positions on a timer.
func (h *MonitorHandler) MonitorAssignmentSSE(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assignmentID, err := uuid.Parse(c.Param("assignment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	assignment, err := h.assignmentService.GetByID(c.Request.Context(), assignmentID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	// Initial snapshot with a scoped timeout so a slow query cannot stall
	// the connection setup.
	snapCtx, cancel := context.WithTimeout(reqCtx, refreshTimeout)
	snapshot, err := h.monitorService.GetSnapshot(snapCtx, assignmentID)
	cancel()
	if err != nil {
		h.log.Warn().Err(err).Str("assignment_id", assignmentID.String()).Msg("Failed to build initial monitor snapshot")
		snapshot = &service.MonitorSnapshot{AssignmentID: assignmentID}
	}

	c.SSEvent("message", map[string]interface{}{
		"type": "snapshot",
		"data": map[string]interface{}{
			"assignment": map[string]interface{}{
				"id":       assignment.ID.String(),
				"title":    assignment.Title,
				"duration": assignment.DurationMinutes,
				"deadline": assignment.Deadline,
				"status":   assignment.Status,
			},
			"students": snapshot.Students,
		},
	})
	c.Writer.Flush()

	channelName := config.CacheKey.AssignmentMonitorChannel(assignmentID.String())
	pubsub := h.rdb.Subscribe(reqCtx, channelName)
	defer pubsub.Close()

	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	// Skip timed refreshes until at least one session exists.
	hasSessions := len(snapshot.Students) > 0

	h.log.Info().Str("assignment_id", assignmentID.String()).Msg("Instructor attached to live monitor SSE")

	// Reusable ping payload, never changes.
	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("assignment_id", assignmentID.String()).Msg("Instructor disconnected from live monitor SSE")
			return

		case msg := <-ch:
			// Forward raw JSON directly, no deserialization needed.
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

			// A session event proves at least one student is in.
			hasSessions = true

		case <-refreshTicker.C:
			if !hasSessions {
				continue
			}
			h.sendRefresh(c, reqCtx, assignmentID)

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// sendRefresh re-evaluates every session clock and sends a compact refresh
// event.
func (h *MonitorHandler) sendRefresh(c *gin.Context, parentCtx context.Context, assignmentID uuid.UUID) {
	ctx, cancel := context.WithTimeout(parentCtx, refreshTimeout)
	defer cancel()

	snapshot, err := h.monitorService.GetSnapshot(ctx, assignmentID)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to build monitor refresh")
		return
	}

	c.SSEvent("message", map[string]interface{}{
		"type":     "refresh",
		"taken_at": snapshot.TakenAt,
		"students": snapshot.Students,
	})
	c.Writer.Flush()
}
