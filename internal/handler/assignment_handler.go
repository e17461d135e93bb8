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
	"github.com/stemsi/lentera-backend/internal/validator"
)

// AssignmentHandler serves the instructor assignment surface: lifecycle,
// grading and results.
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// failAssignmentError maps assignment lifecycle failures onto the
// response envelope.
func failAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotCourseOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrAssignmentNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrAssignmentNotDraft)
	case errors.Is(err, service.ErrAssignmentNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrAssignmentNotAvailable)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// List godoc
// GET /api/v1/instructor/assignments?page=1&per_page=10
// Returns assignments across the instructor's courses.
func (h *AssignmentHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	assignments, pagination, err := h.assignmentService.ListByInstructor(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"assignments": assignments}, pagination)
}

// Get godoc
// GET /api/v1/instructor/assignments/:assignment_id
func (h *AssignmentHandler) Get(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("assignment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	assignment, err := h.assignmentService.GetByID(c.Request.Context(), assignmentID)
	if err != nil {
		failAssignmentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignment": assignment})
}

// Create godoc
// POST /api/v1/instructor/assignments
// Creates a new DRAFT assignment in one of the instructor's courses.
func (h *AssignmentHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	assignment := &model.Assignment{
		CourseID:        req.CourseID,
		Title:           req.Title,
		Description:     req.Description,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Deadline:        req.Deadline,
	}

	if err := h.assignmentService.Create(c.Request.Context(), claims.UserID, assignment); err != nil {
		failAssignmentError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"assignment": assignment})
}

// Update godoc
// PUT /api/v1/instructor/assignments/:assignment_id
// Updates a draft assignment. Published assignments are immutable.
func (h *AssignmentHandler) Update(c *gin.Context) {
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

	var req model.UpdateAssignmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	existing, err := h.assignmentService.GetByID(c.Request.Context(), assignmentID)
	if err != nil {
		failAssignmentError(c, err)
		return
	}

	if req.Title != "" {
		existing.Title = req.Title
	}
	if req.Description != "" {
		existing.Description = req.Description
	}
	if req.StartTime != nil {
		existing.StartTime = req.StartTime
	}
	if req.DurationMinutes != nil {
		existing.DurationMinutes = req.DurationMinutes
	}
	if req.Deadline != nil {
		existing.Deadline = req.Deadline
	}

	if err := h.assignmentService.Update(c.Request.Context(), claims.UserID, existing); err != nil {
		failAssignmentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assignment": existing})
}

// Delete godoc
// DELETE /api/v1/instructor/assignments/:assignment_id
// Deletes a draft assignment.
func (h *AssignmentHandler) Delete(c *gin.Context) {
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

	if err := h.assignmentService.Delete(c.Request.Context(), assignmentID, claims.UserID); err != nil {
		failAssignmentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Publish godoc
// POST /api/v1/instructor/assignments/:assignment_id/publish
// Publishes a draft assignment and warms its Redis payload.
func (h *AssignmentHandler) Publish(c *gin.Context) {
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

	if err := h.assignmentService.Publish(c.Request.Context(), assignmentID, claims.UserID); err != nil {
		failAssignmentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": model.AssignmentStatusPublished})
}

// MarkGraded godoc
// POST /api/v1/instructor/assignments/:assignment_id/grade
// Moves a published assignment to GRADED. For assignments without a
// deadline this closes the window.
func (h *AssignmentHandler) MarkGraded(c *gin.Context) {
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

	if err := h.assignmentService.MarkGraded(c.Request.Context(), assignmentID, claims.UserID); err != nil {
		failAssignmentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": model.AssignmentStatusGraded})
}

// GradeSession godoc
// PUT /api/v1/instructor/sessions/:session_id/score
// Records a score for one submitted session.
func (h *AssignmentHandler) GradeSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GradeSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.assignmentService.GradeSession(c.Request.Context(), sessionID, req.Score); err != nil {
		failAssignmentError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GetResults godoc
// GET /api/v1/instructor/assignments/:assignment_id/results?page=1&per_page=10
// Returns paginated session results for an assignment.
func (h *AssignmentHandler) GetResults(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("assignment_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	results, total, err := h.assignmentService.GetResults(c.Request.Context(), assignmentID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	totalPages := (int(total) + perPage - 1) / perPage
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}
