package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/lentera-backend/internal/middleware"
	"github.com/stemsi/lentera-backend/internal/response"
	"github.com/stemsi/lentera-backend/internal/service"
	"github.com/stemsi/lentera-backend/internal/timekeeper"
	ws "github.com/stemsi/lentera-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a working session over WebSocket: autosaves,
// heartbeats and submission without per-request HTTP overhead.
type WSHandler struct {
	accountingService *service.SessionAccountingService
	answerService     *service.AnswerService
	log               zerolog.Logger
	upgrader          websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	accountingService *service.SessionAccountingService,
	answerService *service.AnswerService,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		accountingService: accountingService,
		answerService:     answerService,
		log:               log.With().Str("component", "ws_handler").Logger(),
		upgrader:          buildUpgrader(allowedOrigins),
	}
}

// wsErrorCode flattens session accounting failures to a wire error code.
func wsErrorCode(err error) string {
	var denial *timekeeper.Denial
	switch {
	case errors.As(err, &denial):
		return string(denial.Reason)
	case errors.Is(err, timekeeper.ErrSessionNotFound):
		return string(response.ErrSessionNotFound)
	case errors.Is(err, timekeeper.ErrConcurrentModification):
		return string(response.ErrConcurrentModification)
	default:
		return string(response.ErrInternal)
	}
}

// SessionStream godoc
// WS /ws/v1/student/sessions/:session_id/stream
// Upgrades to WebSocket for real-time autosave, heartbeats and submit.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	studentID := claims.UserID

	// Ownership and liveness check before upgrading. A terminal session can
	// still attach; every action it sends will be denied individually.
	if _, err := h.accountingService.FetchSessionView(c.Request.Context(), sessionID, studentID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": wsErrorCode(err)})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("session_id", sessionID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, wsLog, sessionID, studentID, &msg)
		case ws.ActionHeartbeat:
			h.handleHeartbeat(conn, sessionID, studentID)
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, sessionID, studentID)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "UNKNOWN_ACTION")
		}
	}
}

// handleAutosave gates the write through the session clock, then lands the
// payload in the fast lane.
func (h *WSHandler) handleAutosave(conn *websocket.Conn, wsLog zerolog.Logger, sessionID uuid.UUID, studentID int, msg *ws.RequestPayload) {
	ctx := context.Background()

	if msg.ItemNumber < 1 || len(msg.Payload) == 0 {
		ws.WriteError(conn, "ITEM_NUMBER_AND_PAYLOAD_REQUIRED")
		return
	}

	view, err := h.accountingService.RecordAnswerMutation(ctx, sessionID, studentID)
	if err != nil {
		ws.WriteError(conn, wsErrorCode(err))
		return
	}

	if err := h.answerService.SaveAnswer(ctx, sessionID, msg.ItemNumber, msg.Payload); err != nil {
		wsLog.Error().Err(err).Int("item_number", msg.ItemNumber).Msg("Autosave failed")
		ws.WriteError(conn, "SAVE_FAILED")
		return
	}

	ws.WriteTyped(conn, ws.TickResponse{
		Event:                ws.EventSaved,
		EffectiveUsedSeconds: view.EffectiveUsedSeconds,
		RemainingSeconds:     view.RemainingSeconds,
	})
}

// handleHeartbeat commits the running delta and reports the clock.
func (h *WSHandler) handleHeartbeat(conn *websocket.Conn, sessionID uuid.UUID, studentID int) {
	view, err := h.accountingService.Heartbeat(context.Background(), sessionID, studentID)
	if err != nil {
		ws.WriteError(conn, wsErrorCode(err))
		return
	}

	ws.WriteTyped(conn, ws.TickResponse{
		Event:                ws.EventTick,
		EffectiveUsedSeconds: view.EffectiveUsedSeconds,
		RemainingSeconds:     view.RemainingSeconds,
	})
}

// handleSubmit finalizes the session.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, sessionID uuid.UUID, studentID int) {
	view, err := h.accountingService.Submit(context.Background(), sessionID, studentID)
	if err != nil {
		ws.WriteError(conn, wsErrorCode(err))
		return
	}

	wsLog.Info().
		Int64("time_used_seconds", view.Session.TimeUsedSeconds).
		Msg("Session submitted")

	ws.WriteTyped(conn, ws.SubmittedResponse{
		Event:           ws.EventSubmitted,
		TimeUsedSeconds: view.Session.TimeUsedSeconds,
	})
}
