package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/lentera-backend/internal/model"
)

// MonitorSessionRow is one row of the live monitor snapshot.
type MonitorSessionRow struct {
	SessionID       uuid.UUID           `json:"session_id"`
	StudentID       int                 `json:"student_id"`
	StudentName     string              `json:"student_name"`
	Status          model.SessionStatus `json:"status"`
	LastResumedAt   *time.Time          `json:"last_resumed_at"`
	TimeUsedSeconds int64               `json:"time_used_seconds"`
}

// MonitorRepository provides data access for the live assignment monitor.
// It combines PostgreSQL (session state) and Redis (fast-lane answer counts).
type MonitorRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool, rdb *redis.Client) *MonitorRepository {
	return &MonitorRepository{pool: pool, rdb: rdb}
}

// GetSessionRows returns the session snapshot for every student who has a
// session on the given assignment.
func (r *MonitorRepository) GetSessionRows(ctx context.Context, assignmentID uuid.UUID) ([]MonitorSessionRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ss.id, ss.student_id, st.name, ss.status, ss.last_resumed_at, ss.time_used_seconds
		 FROM assignment_sessions ss
		 JOIN students st ON ss.student_id = st.id
		 WHERE ss.assignment_id = $1
		 ORDER BY st.name ASC`,
		assignmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MonitorSessionRow
	for rows.Next() {
		var m MonitorSessionRow
		if err := rows.Scan(&m.SessionID, &m.StudentID, &m.StudentName, &m.Status, &m.LastResumedAt, &m.TimeUsedSeconds); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// GetLiveAnswerCount returns the number of fast-lane answers currently in
// Redis for a session. Falls back to zero when the hash does not exist.
func (r *MonitorRepository) GetLiveAnswerCount(ctx context.Context, answersKey string) (int64, error) {
	n, err := r.rdb.HLen(ctx, answersKey).Result()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	return n, nil
}
