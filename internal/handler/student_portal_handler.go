package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/lentera-backend/internal/middleware"
	"github.com/stemsi/lentera-backend/internal/model"
	"github.com/stemsi/lentera-backend/internal/response"
	"github.com/stemsi/lentera-backend/internal/service"
	"github.com/stemsi/lentera-backend/internal/timekeeper"
	"github.com/stemsi/lentera-backend/internal/validator"
)

// StudentPortalHandler serves the student-facing surface: enrolled courses,
// assignment listings, session lifecycle and the answer fast lane.
type StudentPortalHandler struct {
	accountingService *service.SessionAccountingService
	assignmentService *service.AssignmentService
	answerService     *service.AnswerService
	enrollmentService *service.EnrollmentService
	courseService     *service.CourseService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	accountingService *service.SessionAccountingService,
	assignmentService *service.AssignmentService,
	answerService *service.AnswerService,
	enrollmentService *service.EnrollmentService,
	courseService *service.CourseService,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		accountingService: accountingService,
		assignmentService: assignmentService,
		answerService:     answerService,
		enrollmentService: enrollmentService,
		courseService:     courseService,
	}
}

// failSessionError maps session accounting failures onto the response
// envelope. Denials carry their reason; everything else falls through to
// the generic buckets.
func failSessionError(c *gin.Context, err error) {
	var denial *timekeeper.Denial
	switch {
	case errors.As(err, &denial):
		switch denial.Reason {
		case timekeeper.DenyAssignmentNotStarted:
			response.Fail(c, http.StatusForbidden, response.ErrAssignmentNotStarted)
		case timekeeper.DenyAssignmentDeadlinePassed:
			response.Fail(c, http.StatusForbidden, response.ErrAssignmentDeadlinePassed)
		case timekeeper.DenyAssignmentEnded:
			response.Fail(c, http.StatusForbidden, response.ErrAssignmentEnded)
		case timekeeper.DenySessionSubmitted:
			response.Fail(c, http.StatusConflict, response.ErrSessionSubmitted)
		case timekeeper.DenySessionExpired:
			response.Fail(c, http.StatusConflict, response.ErrSessionExpired)
		default:
			response.Fail(c, http.StatusForbidden, response.ErrActionForbidden)
		}
	case errors.Is(err, timekeeper.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, timekeeper.ErrConcurrentModification):
		response.Fail(c, http.StatusConflict, response.ErrConcurrentModification)
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
	case errors.Is(err, service.ErrAssignmentNotAvailable):
		response.Fail(c, http.StatusBadRequest, response.ErrAssignmentNotAvailable)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// ListCourses godoc
// GET /api/v1/student/courses
// Returns the courses the authenticated student is enrolled in.
func (h *StudentPortalHandler) ListCourses(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courses, err := h.enrollmentService.ListCourses(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// ListCourseAssignments godoc
// GET /api/v1/student/courses/:course_id/assignments
// Returns the visible assignments of one enrolled course, each with its
// window state and the student's session when one exists.
func (h *StudentPortalHandler) ListCourseAssignments(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	enrolled, err := h.enrollmentService.IsEnrolled(c.Request.Context(), courseID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if !enrolled {
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
		return
	}

	assignments, err := h.assignmentService.ListForStudent(c.Request.Context(), courseID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignments": assignments})
}

// ListCourseVideos godoc
// GET /api/v1/student/courses/:course_id/videos
// Returns the videos of one enrolled course.
func (h *StudentPortalHandler) ListCourseVideos(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	enrolled, err := h.enrollmentService.IsEnrolled(c.Request.Context(), courseID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if !enrolled {
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
		return
	}

	videos, err := h.courseService.ListVideos(c.Request.Context(), courseID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"videos": videos})
}

// StartSession godoc
// POST /api/v1/student/assignments/:assignment_id/session
// Returns the student's session for an assignment, creating it on first
// call. Safe to retry: reconnecting always lands on the same attempt.
func (h *StudentPortalHandler) StartSession(c *gin.Context) {
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

	session, err := h.accountingService.GetOrCreateSession(c.Request.Context(), assignmentID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetAssignmentPaper godoc
// GET /api/v1/student/assignments/:assignment_id/paper
// Returns the cached assignment payload. Requires an existing session so
// students cannot read papers they never started.
func (h *StudentPortalHandler) GetAssignmentPaper(c *gin.Context) {
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

	if _, err := h.accountingService.GetSessionForAssignment(c.Request.Context(), assignmentID, claims.UserID); err != nil {
		failSessionError(c, err)
		return
	}

	payload, err := h.assignmentService.GetAssignmentPayload(c.Request.Context(), assignmentID)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotPublished) {
			response.Fail(c, http.StatusForbidden, response.ErrAssignmentNotAvailable)
			return
		}
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignment": payload})
}

// GetSession godoc
// GET /api/v1/student/sessions/:session_id
// Returns the session with its clock evaluated now, plus the current
// answers keyed by item number.
func (h *StudentPortalHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.accountingService.FetchSessionView(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	answers, err := h.answerService.GetAnswers(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": view,
		"answers": answers,
	})
}

// Heartbeat godoc
// POST /api/v1/student/sessions/:session_id/heartbeat
// Records liveness and returns the refreshed session view.
func (h *StudentPortalHandler) Heartbeat(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.accountingService.Heartbeat(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// SubmitSession godoc
// POST /api/v1/student/sessions/:session_id/submit
// Finalizes the session.
func (h *StudentPortalHandler) SubmitSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.accountingService.Submit(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// SaveAnswer godoc
// PUT /api/v1/student/sessions/:session_id/answers/:item_number
// Saves one answer. The write is gated through the session clock first;
// only then does the payload enter the fast lane.
func (h *StudentPortalHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	itemNumber, err := strconv.Atoi(c.Param("item_number"))
	if err != nil || itemNumber < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.accountingService.RecordAnswerMutation(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	if err := h.answerService.SaveAnswer(c.Request.Context(), sessionID, itemNumber, req.Payload); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}

// DeleteAnswer godoc
// DELETE /api/v1/student/sessions/:session_id/answers/:item_number
// Removes one answer. Gated through the session clock like a save.
func (h *StudentPortalHandler) DeleteAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	itemNumber, err := strconv.Atoi(c.Param("item_number"))
	if err != nil || itemNumber < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.accountingService.RecordAnswerMutation(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		failSessionError(c, err)
		return
	}

	if err := h.answerService.DeleteAnswer(c.Request.Context(), sessionID, itemNumber); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": view})
}
