package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/lentera-backend/internal/model"
)

// AssignmentRepository handles assignment data access.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

const assignmentColumns = `id, course_id, title, description, start_time,
	        duration_minutes, deadline, status, created_at, updated_at`

// GetByID retrieves an assignment by its UUID.
func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	a := &model.Assignment{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+assignmentColumns+`
		 FROM assignments WHERE id = $1`, id,
	).Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.StartTime,
		&a.DurationMinutes, &a.Deadline, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListByCourse retrieves all assignments in a course, optionally filtered
// to a set of statuses.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID uuid.UUID, statuses ...model.AssignmentStatus) ([]model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE course_id = $1`
	args := []any{courseID}

	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		ss := make([]string, 0, len(statuses))
		for _, s := range statuses {
			ss = append(ss, string(s))
		}
		args = append(args, ss)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.StartTime,
			&a.DurationMinutes, &a.Deadline, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ListByInstructorPaginated retrieves assignments across an instructor's
// courses with pagination.
func (r *AssignmentRepository) ListByInstructorPaginated(ctx context.Context, instructorID, limit, offset int) ([]model.Assignment, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM assignments a JOIN courses c ON a.course_id = c.id
		 WHERE c.instructor_id = $1`, instructorID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT a.id, a.course_id, a.title, a.description, a.start_time,
	                 a.duration_minutes, a.deadline, a.status, a.created_at, a.updated_at
	          FROM assignments a JOIN courses c ON a.course_id = c.id
	          WHERE c.instructor_id = $1
	          ORDER BY a.created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, instructorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.StartTime,
			&a.DurationMinutes, &a.Deadline, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		assignments = append(assignments, a)
	}
	return assignments, total, rows.Err()
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO assignments (course_id, title, description, start_time, duration_minutes, deadline, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		a.CourseID, a.Title, a.Description, a.StartTime,
		a.DurationMinutes, a.Deadline, a.Status,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Update modifies an assignment's editable fields.
func (r *AssignmentRepository) Update(ctx context.Context, a *model.Assignment) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assignments
		 SET title = $1, description = $2, start_time = $3, duration_minutes = $4,
		     deadline = $5, updated_at = NOW()
		 WHERE id = $6`,
		a.Title, a.Description, a.StartTime, a.DurationMinutes, a.Deadline, a.ID)
	return err
}

// UpdateStatus updates an assignment's lifecycle status.
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AssignmentStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assignments SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// Delete removes a draft assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	return err
}

// ListPublished returns all assignments with PUBLISHED status.
// Used for cache prewarming on application startup.
func (r *AssignmentRepository) ListPublished(ctx context.Context) ([]model.Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+assignmentColumns+`
		 FROM assignments WHERE status = $1
		 ORDER BY created_at DESC`, model.AssignmentStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.StartTime,
			&a.DurationMinutes, &a.Deadline, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
