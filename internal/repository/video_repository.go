package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/lentera-backend/internal/model"
)

// VideoRepository handles course video data access.
type VideoRepository struct {
	pool *pgxpool.Pool
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(pool *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{pool: pool}
}

// GetByID retrieves a video by its UUID.
func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	v := &model.Video{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, title, url, duration_seconds, order_num, created_at, updated_at
		 FROM videos WHERE id = $1`, id,
	).Scan(&v.ID, &v.CourseID, &v.Title, &v.URL, &v.DurationSeconds, &v.OrderNum, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListByCourse retrieves all videos in a course ordered by position.
func (r *VideoRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Video, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, title, url, duration_seconds, order_num, created_at, updated_at
		 FROM videos WHERE course_id = $1
		 ORDER BY order_num ASC, created_at ASC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []model.Video
	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.ID, &v.CourseID, &v.Title, &v.URL, &v.DurationSeconds, &v.OrderNum, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// Create inserts a new video.
func (r *VideoRepository) Create(ctx context.Context, v *model.Video) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO videos (course_id, title, url, duration_seconds, order_num)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		v.CourseID, v.Title, v.URL, v.DurationSeconds, v.OrderNum,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

// Update modifies a video's fields.
func (r *VideoRepository) Update(ctx context.Context, v *model.Video) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE videos
		 SET title = $1, url = $2, duration_seconds = $3, order_num = $4, updated_at = NOW()
		 WHERE id = $5`,
		v.Title, v.URL, v.DurationSeconds, v.OrderNum, v.ID)
	return err
}

// Delete removes a video by ID.
func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	return err
}
