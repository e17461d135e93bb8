package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/lentera-backend/internal/model"
	"github.com/stemsi/lentera-backend/internal/repository"
	"github.com/stemsi/lentera-backend/internal/response"
)

// ErrNotPostAuthor is returned when a student tries to delete a post they
// did not write.
var ErrNotPostAuthor = errors.New("not the author of this post")

// DiscussionService handles course discussion business logic.
type DiscussionService struct {
	discussionRepo *repository.DiscussionRepository
	enrollmentRepo *repository.EnrollmentRepository
	courseRepo     *repository.CourseRepository
}

// NewDiscussionService creates a new DiscussionService.
func NewDiscussionService(
	discussionRepo *repository.DiscussionRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
) *DiscussionService {
	return &DiscussionService{
		discussionRepo: discussionRepo,
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
	}
}

// PostAsStudent creates a discussion post by an enrolled student.
func (s *DiscussionService) PostAsStudent(ctx context.Context, courseID uuid.UUID, studentID int, body string) (*model.Discussion, error) {
	enrolled, err := s.enrollmentRepo.IsEnrolled(ctx, courseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	post := &model.Discussion{
		CourseID:   courseID,
		AuthorID:   studentID,
		AuthorRole: model.AuthorRoleStudent,
		Body:       body,
	}
	if err := s.discussionRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// PostAsInstructor creates a discussion post by the course's instructor.
func (s *DiscussionService) PostAsInstructor(ctx context.Context, courseID uuid.UUID, instructorID int, body string) (*model.Discussion, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if instructorID != 0 && course.InstructorID != instructorID {
		return nil, ErrNotCourseOwner
	}

	post := &model.Discussion{
		CourseID:   courseID,
		AuthorID:   instructorID,
		AuthorRole: model.AuthorRoleInstructor,
		Body:       body,
	}
	if err := s.discussionRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// List retrieves a course's discussion posts, newest first.
func (s *DiscussionService) List(ctx context.Context, courseID uuid.UUID, page, perPage int) ([]model.Discussion, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	posts, total, err := s.discussionRepo.ListByCoursePaginated(ctx, courseID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if posts == nil {
		posts = []model.Discussion{}
	}

	totalPages := (total + perPage - 1) / perPage
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}
	return posts, pagination, nil
}

// DeleteAsInstructor removes any post on a course the instructor owns.
func (s *DiscussionService) DeleteAsInstructor(ctx context.Context, id uuid.UUID, instructorID int) error {
	post, err := s.discussionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	course, err := s.courseRepo.GetByID(ctx, post.CourseID)
	if err != nil {
		return fmt.Errorf("get course: %w", err)
	}
	if instructorID != 0 && course.InstructorID != instructorID {
		return ErrNotCourseOwner
	}
	return s.discussionRepo.Delete(ctx, id)
}

// DeleteAsStudent removes a student's own post.
func (s *DiscussionService) DeleteAsStudent(ctx context.Context, id uuid.UUID, studentID int) error {
	post, err := s.discussionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorRole != model.AuthorRoleStudent || post.AuthorID != studentID {
		return ErrNotPostAuthor
	}
	return s.discussionRepo.Delete(ctx, id)
}
