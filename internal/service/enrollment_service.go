package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stemsi/lentera-backend/internal/model"
	"github.com/stemsi/lentera-backend/internal/repository"
)

// EnrollmentService handles course enrollment business logic.
type EnrollmentService struct {
	enrollmentRepo *repository.EnrollmentRepository
	courseRepo     *repository.CourseRepository
	studentRepo    *repository.StudentRepository
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	studentRepo *repository.StudentRepository,
) *EnrollmentService {
	return &EnrollmentService{
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		studentRepo:    studentRepo,
	}
}

// Enroll adds a student to a course after verifying the instructor owns it.
func (s *EnrollmentService) Enroll(ctx context.Context, instructorID int, courseID uuid.UUID, studentID int) (*model.Enrollment, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	if instructorID != 0 && course.InstructorID != instructorID {
		return nil, ErrNotCourseOwner
	}

	if _, err := s.studentRepo.GetByID(ctx, studentID); err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	enrollment := &model.Enrollment{CourseID: courseID, StudentID: studentID}
	if err := s.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Unenroll removes a student from a course after verifying ownership.
func (s *EnrollmentService) Unenroll(ctx context.Context, instructorID int, courseID uuid.UUID, studentID int) error {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return fmt.Errorf("get course: %w", err)
	}
	if instructorID != 0 && course.InstructorID != instructorID {
		return ErrNotCourseOwner
	}
	return s.enrollmentRepo.Delete(ctx, courseID, studentID)
}

// IsEnrolled reports whether the student is enrolled in the course.
func (s *EnrollmentService) IsEnrolled(ctx context.Context, courseID uuid.UUID, studentID int) (bool, error) {
	return s.enrollmentRepo.IsEnrolled(ctx, courseID, studentID)
}

// ListStudents retrieves all students enrolled in a course.
func (s *EnrollmentService) ListStudents(ctx context.Context, courseID uuid.UUID) ([]model.Student, error) {
	students, err := s.enrollmentRepo.ListStudentsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []model.Student{}
	}
	return students, nil
}

// ListCourses retrieves all courses a student is enrolled in.
func (s *EnrollmentService) ListCourses(ctx context.Context, studentID int) ([]model.Course, error) {
	courses, err := s.enrollmentRepo.ListCoursesByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}
