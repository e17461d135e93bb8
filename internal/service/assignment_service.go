package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/lentera-backend/internal/config"
	"github.com/stemsi/lentera-backend/internal/model"
	"github.com/stemsi/lentera-backend/internal/repository"
	"github.com/stemsi/lentera-backend/internal/response"
	"github.com/stemsi/lentera-backend/internal/timekeeper"
)

// Domain errors.
var (
	ErrNotCourseOwner         = errors.New("not the instructor of this course")
	ErrAssignmentNotDraft     = errors.New("assignment status is not DRAFT")
	ErrAssignmentNotPublished = errors.New("assignment status is not PUBLISHED")
)

// AssignmentService handles assignment business logic and Redis caching.
type AssignmentService struct {
	assignmentRepo *repository.AssignmentRepository
	courseRepo     *repository.CourseRepository
	sessionRepo    *repository.AssignmentSessionRepository
	rdb            *redis.Client
	clock          timekeeper.Clock
	log            zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	assignmentRepo *repository.AssignmentRepository,
	courseRepo *repository.CourseRepository,
	sessionRepo *repository.AssignmentSessionRepository,
	rdb *redis.Client,
	clock timekeeper.Clock,
	log zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		courseRepo:     courseRepo,
		sessionRepo:    sessionRepo,
		rdb:            rdb,
		clock:          clock,
		log:            log.With().Str("component", "assignment_service").Logger(),
	}
}

// StudentAssignment pairs an assignment with its availability and, when the
// student already has one, their session.
type StudentAssignment struct {
	Assignment  model.Assignment         `json:"assignment"`
	WindowState timekeeper.WindowState   `json:"window_state"`
	Session     *model.AssignmentSession `json:"session,omitempty"`
}

// ListForStudent retrieves the visible assignments of a course from a
// student's perspective: published and graded assignments with their window
// state evaluated now, overlaid with the student's existing sessions.
func (s *AssignmentService) ListForStudent(ctx context.Context, courseID uuid.UUID, studentID int) ([]StudentAssignment, error) {
	assignments, err := s.assignmentRepo.ListByCourse(ctx, courseID,
		model.AssignmentStatusPublished, model.AssignmentStatusGraded)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	sessions, err := s.sessionRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	byAssignment := make(map[uuid.UUID]*model.AssignmentSession, len(sessions))
	for i := range sessions {
		byAssignment[sessions[i].AssignmentID] = &sessions[i]
	}

	now := s.clock.Now()
	entries := make([]StudentAssignment, 0, len(assignments))
	for i := range assignments {
		entries = append(entries, StudentAssignment{
			Assignment:  assignments[i],
			WindowState: timekeeper.EvaluateWindow(now, timekeeper.WindowInputsFor(&assignments[i])),
			Session:     byAssignment[assignments[i].ID],
		})
	}
	return entries, nil
}

// GetByID retrieves an assignment by its UUID.
func (s *AssignmentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	return s.assignmentRepo.GetByID(ctx, id)
}

// ListByInstructor retrieves assignments across an instructor's courses.
func (s *AssignmentService) ListByInstructor(ctx context.Context, instructorID, page, perPage int) ([]model.Assignment, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	assignments, total, err := s.assignmentRepo.ListByInstructorPaginated(ctx, instructorID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}

	totalPages := (total + perPage - 1) / perPage
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}
	return assignments, pagination, nil
}

// ListByCourse retrieves assignments in a course, optionally status-filtered.
func (s *AssignmentService) ListByCourse(ctx context.Context, courseID uuid.UUID, statuses ...model.AssignmentStatus) ([]model.Assignment, error) {
	return s.assignmentRepo.ListByCourse(ctx, courseID, statuses...)
}

// Create inserts a new assignment as DRAFT after verifying course ownership.
func (s *AssignmentService) Create(ctx context.Context, instructorID int, assignment *model.Assignment) error {
	if err := s.verifyOwner(ctx, assignment.CourseID, instructorID); err != nil {
		return err
	}
	assignment.Status = model.AssignmentStatusDraft
	return s.assignmentRepo.Create(ctx, assignment)
}

// Update modifies an existing draft assignment.
func (s *AssignmentService) Update(ctx context.Context, instructorID int, assignment *model.Assignment) error {
	existing, err := s.assignmentRepo.GetByID(ctx, assignment.ID)
	if err != nil {
		return err
	}
	if err := s.verifyOwner(ctx, existing.CourseID, instructorID); err != nil {
		return err
	}
	if existing.Status != model.AssignmentStatusDraft {
		return ErrAssignmentNotDraft
	}
	return s.assignmentRepo.Update(ctx, assignment)
}

// Delete removes a draft assignment.
func (s *AssignmentService) Delete(ctx context.Context, id uuid.UUID, instructorID int) error {
	existing, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.verifyOwner(ctx, existing.CourseID, instructorID); err != nil {
		return err
	}
	if existing.Status != model.AssignmentStatusDraft {
		return ErrAssignmentNotDraft
	}
	return s.assignmentRepo.Delete(ctx, id)
}

// Publish changes assignment status to PUBLISHED and caches the payload
// in Redis. This is the path that populates the student fast lane.
func (s *AssignmentService) Publish(ctx context.Context, assignmentID uuid.UUID, instructorID int) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return fmt.Errorf("get assignment: %w", err)
	}
	if err := s.verifyOwner(ctx, assignment.CourseID, instructorID); err != nil {
		return err
	}
	if assignment.Status != model.AssignmentStatusDraft {
		return ErrAssignmentNotDraft
	}

	if err := s.WarmAssignmentCache(ctx, assignment); err != nil {
		return err
	}

	if err := s.assignmentRepo.UpdateStatus(ctx, assignmentID, model.AssignmentStatusPublished); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("assignment_id", assignmentID.String()).Msg("Assignment published")
	return nil
}

// MarkGraded moves a published assignment to GRADED. For assignments
// without a deadline this is what finally closes the window.
func (s *AssignmentService) MarkGraded(ctx context.Context, assignmentID uuid.UUID, instructorID int) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return fmt.Errorf("get assignment: %w", err)
	}
	if err := s.verifyOwner(ctx, assignment.CourseID, instructorID); err != nil {
		return err
	}
	if assignment.Status != model.AssignmentStatusPublished {
		return ErrAssignmentNotPublished
	}

	if err := s.assignmentRepo.UpdateStatus(ctx, assignmentID, model.AssignmentStatusGraded); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("assignment_id", assignmentID.String()).Msg("Assignment graded")
	return nil
}

// GradeSession records a score for one submitted session.
func (s *AssignmentService) GradeSession(ctx context.Context, sessionID uuid.UUID, score float64) error {
	return s.sessionRepo.UpdateScore(ctx, sessionID, score)
}

// GetResults retrieves paginated session results for an assignment.
func (s *AssignmentService) GetResults(ctx context.Context, assignmentID uuid.UUID, page, perPage int) ([]repository.SessionResult, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	return s.sessionRepo.ListByAssignment(ctx, assignmentID, page, perPage)
}

// WarmAssignmentCache loads an assignment's student payload into Redis.
// Used by Publish and PrewarmAllCaches.
func (s *AssignmentService) WarmAssignmentCache(ctx context.Context, assignment *model.Assignment) error {
	payload := model.AssignmentPayload{
		AssignmentID:    assignment.ID,
		Title:           assignment.Title,
		Description:     assignment.Description,
		DurationMinutes: assignment.DurationMinutes,
		Deadline:        assignment.Deadline,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	key := config.CacheKey.AssignmentPayloadKey(assignment.ID.String())
	if err := s.rdb.Set(ctx, key, payloadJSON, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().Str("assignment_id", assignment.ID.String()).Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all published assignments into Redis on
// application startup, avoiding lazy-loading races under herd traffic.
func (s *AssignmentService) PrewarmAllCaches(ctx context.Context) error {
	assignments, err := s.assignmentRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published assignments: %w", err)
	}

	if len(assignments) == 0 {
		s.log.Info().Msg("No published assignments to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(assignments)).Msg("Prewarming published assignments...")

	warmed := 0
	for i := range assignments {
		if err := s.WarmAssignmentCache(ctx, &assignments[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("assignment_id", assignments[i].ID.String()).
				Msg("Failed to warm assignment, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(assignments)).
		Msg("Prewarming complete")
	return nil
}

// GetAssignmentPayload retrieves the cached student payload from Redis,
// falling back to PostgreSQL on a cache miss.
func (s *AssignmentService) GetAssignmentPayload(ctx context.Context, assignmentID uuid.UUID) (*model.AssignmentPayload, error) {
	key := config.CacheKey.AssignmentPayloadKey(assignmentID.String())
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var payload model.AssignmentPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &payload, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get payload: %w", err)
	}

	// Cache miss: rebuild from the source of truth and self-heal.
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if assignment.Status != model.AssignmentStatusPublished {
		return nil, ErrAssignmentNotPublished
	}
	if err := s.WarmAssignmentCache(ctx, assignment); err != nil {
		s.log.Warn().Err(err).Str("assignment_id", assignmentID.String()).Msg("Self-heal cache write failed")
	}

	return &model.AssignmentPayload{
		AssignmentID:    assignment.ID,
		Title:           assignment.Title,
		Description:     assignment.Description,
		DurationMinutes: assignment.DurationMinutes,
		Deadline:        assignment.Deadline,
	}, nil
}

func (s *AssignmentService) verifyOwner(ctx context.Context, courseID uuid.UUID, instructorID int) error {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return fmt.Errorf("get course: %w", err)
	}
	if instructorID != 0 && course.InstructorID != instructorID {
		return ErrNotCourseOwner
	}
	return nil
}
