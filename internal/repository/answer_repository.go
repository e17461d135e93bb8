package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/lentera-backend/internal/model"
)

// AnswerRepository handles persisted assignment answers. Live answers ride
// the Redis fast lane; this repository is the durable side written by the
// answer worker and read back on session resume.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert creates or replaces the answer for one item of a session.
func (r *AnswerRepository) Upsert(ctx context.Context, sessionID uuid.UUID, itemNumber int, payload json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO assignment_answers (session_id, item_number, payload)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id, item_number) DO UPDATE
		 SET payload = EXCLUDED.payload, updated_at = NOW()`,
		sessionID, itemNumber, payload)
	return err
}

// ListBySession retrieves all answers for a session ordered by item.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AssignmentAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, item_number, payload, updated_at
		 FROM assignment_answers WHERE session_id = $1
		 ORDER BY item_number ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.AssignmentAnswer
	for rows.Next() {
		var a model.AssignmentAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.ItemNumber, &a.Payload, &a.UpdatedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// Delete removes the answer for one item of a session.
func (r *AnswerRepository) Delete(ctx context.Context, sessionID uuid.UUID, itemNumber int) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM assignment_answers WHERE session_id = $1 AND item_number = $2`,
		sessionID, itemNumber)
	return err
}

// CountBySessions returns the number of persisted answers per session.
// Used by the live monitor to report progress.
func (r *AnswerRepository) CountBySessions(ctx context.Context, assignmentID uuid.UUID) (map[uuid.UUID]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.session_id, COUNT(*)
		 FROM assignment_answers a
		 JOIN assignment_sessions s ON a.session_id = s.id
		 WHERE s.assignment_id = $1
		 GROUP BY a.session_id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int64)
	for rows.Next() {
		var sid uuid.UUID
		var count int64
		if err := rows.Scan(&sid, &count); err != nil {
			return nil, err
		}
		counts[sid] = count
	}
	return counts, rows.Err()
}
