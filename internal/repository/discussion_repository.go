package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/lentera-backend/internal/model"
)

// DiscussionRepository handles course discussion data access.
type DiscussionRepository struct {
	pool *pgxpool.Pool
}

// NewDiscussionRepository creates a new DiscussionRepository.
func NewDiscussionRepository(pool *pgxpool.Pool) *DiscussionRepository {
	return &DiscussionRepository{pool: pool}
}

// Create inserts a new discussion post.
func (r *DiscussionRepository) Create(ctx context.Context, d *model.Discussion) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO discussions (course_id, author_id, author_role, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		d.CourseID, d.AuthorID, d.AuthorRole, d.Body,
	).Scan(&d.ID, &d.CreatedAt)
}

// GetByID retrieves a single discussion post.
func (r *DiscussionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Discussion, error) {
	var d model.Discussion
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, author_id, author_role, body, created_at
		 FROM discussions WHERE id = $1`, id,
	).Scan(&d.ID, &d.CourseID, &d.AuthorID, &d.AuthorRole, &d.Body, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByCoursePaginated retrieves discussion posts for a course, newest
// first, with pagination.
func (r *DiscussionRepository) ListByCoursePaginated(ctx context.Context, courseID uuid.UUID, limit, offset int) ([]model.Discussion, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM discussions WHERE course_id = $1`, courseID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, author_id, author_role, body, created_at
		 FROM discussions WHERE course_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, courseID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var posts []model.Discussion
	for rows.Next() {
		var d model.Discussion
		if err := rows.Scan(&d.ID, &d.CourseID, &d.AuthorID, &d.AuthorRole, &d.Body, &d.CreatedAt); err != nil {
			return nil, 0, err
		}
		posts = append(posts, d)
	}
	return posts, total, rows.Err()
}

// Delete removes a discussion post by ID.
func (r *DiscussionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM discussions WHERE id = $1`, id)
	return err
}
