package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/lentera-backend/internal/model"
)

// DashboardRepository handles instructor dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context) (totalStudents, totalCourses, totalAssignments, totalSessions int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM assignments),
			(SELECT COUNT(*) FROM assignment_sessions)`,
	).Scan(&totalStudents, &totalCourses, &totalAssignments, &totalSessions)
	return
}

// GetAssignmentStatusCounts retrieves the distribution of assignments by status.
func (r *DashboardRepository) GetAssignmentStatusCounts(ctx context.Context) (map[model.AssignmentStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM assignments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.AssignmentStatus]int)
	for rows.Next() {
		var status model.AssignmentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// DashboardUpcomingAssignment represents minimal data for assignments with
// a scheduled start in the future.
type DashboardUpcomingAssignment struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	StartTime *time.Time `json:"start_time"`
	Deadline  *time.Time `json:"deadline"`
}

// GetUpcomingAssignments retrieves the next N published assignments whose
// start time has not been reached yet.
func (r *DashboardRepository) GetUpcomingAssignments(ctx context.Context, limit int) ([]DashboardUpcomingAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, start_time, deadline
		 FROM assignments
		 WHERE status = $1 AND start_time > NOW()
		 ORDER BY start_time ASC LIMIT $2`,
		model.AssignmentStatusPublished, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []DashboardUpcomingAssignment
	for rows.Next() {
		var a DashboardUpcomingAssignment
		if err := rows.Scan(&a.ID, &a.Title, &a.StartTime, &a.Deadline); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if assignments == nil {
		assignments = []DashboardUpcomingAssignment{}
	}
	return assignments, rows.Err()
}

// DashboardRecentAssignmentResult represents minimal data for recently
// graded assignments, averaging session scores.
type DashboardRecentAssignmentResult struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	GradedAt         time.Time `json:"graded_at"`
	ParticipantCount int       `json:"participant_count"`
	AverageScore     *float64  `json:"average_score"`
}

// GetRecentAssignmentResults retrieves the last N graded assignments with
// session participation stats.
func (r *DashboardRepository) GetRecentAssignmentResults(ctx context.Context, limit int) ([]DashboardRecentAssignmentResult, error) {
	query := `
		SELECT
			a.id,
			a.title,
			a.updated_at AS graded_at,
			COUNT(s.id) AS participant_count,
			AVG(s.score) AS average_score
		FROM assignments a
		LEFT JOIN assignment_sessions s ON a.id = s.assignment_id
		WHERE a.status = $1
		GROUP BY a.id, a.title, a.updated_at
		ORDER BY a.updated_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, model.AssignmentStatusGraded, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DashboardRecentAssignmentResult
	for rows.Next() {
		var res DashboardRecentAssignmentResult
		if err := rows.Scan(&res.ID, &res.Title, &res.GradedAt, &res.ParticipantCount, &res.AverageScore); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	if results == nil {
		results = []DashboardRecentAssignmentResult{}
	}
	return results, rows.Err()
}
