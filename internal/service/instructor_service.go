package service

import (
	"context"

	"github.com/stemsi/lentera-backend/internal/model"
	"github.com/stemsi/lentera-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// InstructorService handles instructor account business logic.
type InstructorService struct {
	instructorRepo *repository.InstructorRepository
}

// NewInstructorService creates a new InstructorService.
func NewInstructorService(instructorRepo *repository.InstructorRepository) *InstructorService {
	return &InstructorService{instructorRepo: instructorRepo}
}

// GetByID retrieves an instructor by ID.
func (s *InstructorService) GetByID(ctx context.Context, id int) (*model.Instructor, error) {
	return s.instructorRepo.GetByID(ctx, id)
}

// GetByEmail retrieves an instructor by email.
func (s *InstructorService) GetByEmail(ctx context.Context, email string) (*model.Instructor, error) {
	return s.instructorRepo.GetByEmail(ctx, email)
}

// Create inserts a new instructor with a hashed password.
func (s *InstructorService) Create(ctx context.Context, instructor *model.Instructor) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(instructor.PasswordHash), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	instructor.PasswordHash = string(hashed)
	return s.instructorRepo.Create(ctx, instructor)
}
