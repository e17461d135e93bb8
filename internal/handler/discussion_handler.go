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

// DiscussionHandler serves course discussion threads for both roles.
type DiscussionHandler struct {
	discussionService *service.DiscussionService
}

// NewDiscussionHandler creates a new DiscussionHandler.
func NewDiscussionHandler(discussionService *service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{discussionService: discussionService}
}

func failDiscussionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotEnrolled):
		response.Fail(c, http.StatusForbidden, response.ErrNotEnrolled)
	case errors.Is(err, service.ErrNotCourseOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrNotPostAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrActionForbidden)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// List godoc
// GET /api/v1/{student,instructor}/courses/:course_id/discussions?page=1&per_page=20
func (h *DiscussionHandler) List(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	posts, pagination, err := h.discussionService.List(c.Request.Context(), courseID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"discussions": posts}, pagination)
}

// PostAsStudent godoc
// POST /api/v1/student/courses/:course_id/discussions
func (h *DiscussionHandler) PostAsStudent(c *gin.Context) {
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

	var req model.CreateDiscussionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	post, err := h.discussionService.PostAsStudent(c.Request.Context(), courseID, claims.UserID, req.Body)
	if err != nil {
		failDiscussionError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"discussion": post})
}

// PostAsInstructor godoc
// POST /api/v1/instructor/courses/:course_id/discussions
func (h *DiscussionHandler) PostAsInstructor(c *gin.Context) {
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

	var req model.CreateDiscussionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	post, err := h.discussionService.PostAsInstructor(c.Request.Context(), courseID, claims.UserID, req.Body)
	if err != nil {
		failDiscussionError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"discussion": post})
}

// DeleteAsStudent godoc
// DELETE /api/v1/student/discussions/:discussion_id
// Students may only delete their own posts.
func (h *DiscussionHandler) DeleteAsStudent(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	discussionID, err := uuid.Parse(c.Param("discussion_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.discussionService.DeleteAsStudent(c.Request.Context(), discussionID, claims.UserID); err != nil {
		failDiscussionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// DeleteAsInstructor godoc
// DELETE /api/v1/instructor/discussions/:discussion_id
// Instructors may moderate any post on their own courses.
func (h *DiscussionHandler) DeleteAsInstructor(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	discussionID, err := uuid.Parse(c.Param("discussion_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.discussionService.DeleteAsInstructor(c.Request.Context(), discussionID, claims.UserID); err != nil {
		failDiscussionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
