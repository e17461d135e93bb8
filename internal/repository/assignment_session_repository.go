package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/lentera-backend/internal/model"
	"github.com/stemsi/lentera-backend/internal/timekeeper"
)

// SessionResult combines student data with their session details for the
// instructor results view.
type SessionResult struct {
	StudentID       int                 `json:"student_id"`
	Name            string              `json:"name"`
	NISN            string              `json:"nisn"`
	Status          model.SessionStatus `json:"status"`
	TimeUsedSeconds int64               `json:"time_used_seconds"`
	StartedAt       time.Time           `json:"started_at"`
	SubmittedAt     *time.Time          `json:"submitted_at"`
	Score           *float64            `json:"score"`
}

// AssignmentSessionRepository handles assignment session data access. It
// implements timekeeper.SessionStore so the concurrency guard can drive
// its conditional writes.
type AssignmentSessionRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentSessionRepository creates a new AssignmentSessionRepository.
func NewAssignmentSessionRepository(pool *pgxpool.Pool) *AssignmentSessionRepository {
	return &AssignmentSessionRepository{pool: pool}
}

const sessionColumns = `id, assignment_id, student_id, started_at, last_resumed_at,
	        time_used_seconds, status, submitted_at, score`

// GetByID retrieves a session by its UUID.
func (r *AssignmentSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AssignmentSession, error) {
	s := &model.AssignmentSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM assignment_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.AssignmentID, &s.StudentID, &s.StartedAt, &s.LastResumedAt,
		&s.TimeUsedSeconds, &s.Status, &s.SubmittedAt, &s.Score)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, timekeeper.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByAssignmentAndStudent retrieves a session for a specific
// assignment-student combination.
func (r *AssignmentSessionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID uuid.UUID, studentID int) (*model.AssignmentSession, error) {
	s := &model.AssignmentSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM assignment_sessions
		 WHERE assignment_id = $1 AND student_id = $2`, assignmentID, studentID,
	).Scan(&s.ID, &s.AssignmentID, &s.StudentID, &s.StartedAt, &s.LastResumedAt,
		&s.TimeUsedSeconds, &s.Status, &s.SubmittedAt, &s.Score)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, timekeeper.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a new session with the clock running from the database's
// NOW(). ON CONFLICT DO NOTHING makes concurrent starts converge on a
// single row: when no row is returned the caller must re-read the winner.
func (r *AssignmentSessionRepository) Create(ctx context.Context, assignmentID uuid.UUID, studentID int) (*model.AssignmentSession, error) {
	s := &model.AssignmentSession{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Status:       model.SessionStatusInProgress,
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO assignment_sessions (assignment_id, student_id, status, last_resumed_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (assignment_id, student_id) DO NOTHING
		 RETURNING id, started_at, last_resumed_at`,
		assignmentID, studentID, model.SessionStatusInProgress,
	).Scan(&s.ID, &s.StartedAt, &s.LastResumedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the creation race; the winner's row is authoritative.
		return r.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CompareAndSwap writes the accounting triple only while last_resumed_at
// still holds the value the caller read. IS NOT DISTINCT FROM makes the
// comparison NULL-safe (a paused clock is stored as NULL).
func (r *AssignmentSessionRepository) CompareAndSwap(ctx context.Context, id uuid.UUID, expected *time.Time, patch timekeeper.SessionPatch) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assignment_sessions
		 SET last_resumed_at = $2, time_used_seconds = $3, status = $4,
		     submitted_at = COALESCE($5, submitted_at)
		 WHERE id = $1 AND last_resumed_at IS NOT DISTINCT FROM $6`,
		id, patch.LastResumedAt, patch.TimeUsedSeconds, patch.Status,
		patch.SubmittedAt, expected)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateScore records a grade for a submitted session.
func (r *AssignmentSessionRepository) UpdateScore(ctx context.Context, id uuid.UUID, score float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assignment_sessions SET score = $1 WHERE id = $2`, score, id)
	return err
}

// ListByStudent retrieves all sessions for a given student.
func (r *AssignmentSessionRepository) ListByStudent(ctx context.Context, studentID int) ([]model.AssignmentSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM assignment_sessions
		 WHERE student_id = $1
		 ORDER BY started_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.AssignmentSession
	for rows.Next() {
		var s model.AssignmentSession
		if err := rows.Scan(&s.ID, &s.AssignmentID, &s.StudentID, &s.StartedAt, &s.LastResumedAt,
			&s.TimeUsedSeconds, &s.Status, &s.SubmittedAt, &s.Score); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListByAssignment retrieves all student results for an assignment with
// pagination, for the instructor results view.
func (r *AssignmentSessionRepository) ListByAssignment(ctx context.Context, assignmentID uuid.UUID, page, perPage int) ([]SessionResult, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assignment_sessions WHERE assignment_id = $1`,
		assignmentID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT st.id, st.name, st.nisn,
		       ss.status, ss.time_used_seconds, ss.started_at, ss.submitted_at, ss.score
		FROM assignment_sessions ss
		JOIN students st ON ss.student_id = st.id
		WHERE ss.assignment_id = $1
		ORDER BY st.name ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, assignmentID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []SessionResult
	for rows.Next() {
		var sr SessionResult
		if err := rows.Scan(&sr.StudentID, &sr.Name, &sr.NISN,
			&sr.Status, &sr.TimeUsedSeconds, &sr.StartedAt, &sr.SubmittedAt, &sr.Score); err != nil {
			return nil, 0, err
		}
		results = append(results, sr)
	}
	return results, total, rows.Err()
}
