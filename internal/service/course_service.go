package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/lentera-backend/internal/model"
	"github.com/stemsi/lentera-backend/internal/repository"
	"github.com/stemsi/lentera-backend/internal/response"
)

// CourseService handles course business logic.
type CourseService struct {
	courseRepo *repository.CourseRepository
	videoRepo  *repository.VideoRepository
}

// NewCourseService creates a new CourseService.
func NewCourseService(courseRepo *repository.CourseRepository, videoRepo *repository.VideoRepository) *CourseService {
	return &CourseService{courseRepo: courseRepo, videoRepo: videoRepo}
}

// GetByID retrieves a course by its UUID.
func (s *CourseService) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	return s.courseRepo.GetByID(ctx, id)
}

// List retrieves courses with pagination and an optional instructor filter.
func (s *CourseService) List(ctx context.Context, instructorID, page, perPage int) ([]model.Course, *response.Pagination, error) {
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

	courses, total, err := s.courseRepo.ListPaginated(ctx, instructorID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if courses == nil {
		courses = []model.Course{}
	}

	totalPages := (total + perPage - 1) / perPage
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}
	return courses, pagination, nil
}

// Create inserts a new course owned by the instructor.
func (s *CourseService) Create(ctx context.Context, course *model.Course) error {
	return s.courseRepo.Create(ctx, course)
}

// Update modifies a course after verifying ownership.
func (s *CourseService) Update(ctx context.Context, instructorID int, course *model.Course) error {
	existing, err := s.courseRepo.GetByID(ctx, course.ID)
	if err != nil {
		return err
	}
	if instructorID != 0 && existing.InstructorID != instructorID {
		return ErrNotCourseOwner
	}
	return s.courseRepo.Update(ctx, course)
}

// Delete removes a course after verifying ownership.
func (s *CourseService) Delete(ctx context.Context, id uuid.UUID, instructorID int) error {
	existing, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if instructorID != 0 && existing.InstructorID != instructorID {
		return ErrNotCourseOwner
	}
	return s.courseRepo.Delete(ctx, id)
}

// ListVideos retrieves a course's videos in order.
func (s *CourseService) ListVideos(ctx context.Context, courseID uuid.UUID) ([]model.Video, error) {
	videos, err := s.videoRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []model.Video{}
	}
	return videos, nil
}

// AddVideo attaches a video to a course after verifying ownership.
func (s *CourseService) AddVideo(ctx context.Context, instructorID int, video *model.Video) error {
	course, err := s.courseRepo.GetByID(ctx, video.CourseID)
	if err != nil {
		return fmt.Errorf("get course: %w", err)
	}
	if instructorID != 0 && course.InstructorID != instructorID {
		return ErrNotCourseOwner
	}
	return s.videoRepo.Create(ctx, video)
}

// UpdateVideo modifies a video after verifying course ownership.
func (s *CourseService) UpdateVideo(ctx context.Context, instructorID int, video *model.Video) error {
	existing, err := s.videoRepo.GetByID(ctx, video.ID)
	if err != nil {
		return err
	}
	course, err := s.courseRepo.GetByID(ctx, existing.CourseID)
	if err != nil {
		return fmt.Errorf("get course: %w", err)
	}
	if instructorID != 0 && course.InstructorID != instructorID {
		return ErrNotCourseOwner
	}
	video.CourseID = existing.CourseID
	return s.videoRepo.Update(ctx, video)
}

// DeleteVideo removes a video after verifying course ownership.
func (s *CourseService) DeleteVideo(ctx context.Context, id uuid.UUID, instructorID int) error {
	existing, err := s.videoRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	course, err := s.courseRepo.GetByID(ctx, existing.CourseID)
	if err != nil {
		return fmt.Errorf("get course: %w", err)
	}
	if instructorID != 0 && course.InstructorID != instructorID {
		return ErrNotCourseOwner
	}
	return s.videoRepo.Delete(ctx, id)
}
