package service

import (
	"context"

	"github.com/stemsi/lentera-backend/internal/model"
	"github.com/stemsi/lentera-backend/internal/repository"
)

// DashboardData consolidates all metrics for the instructor dashboard.
type DashboardData struct {
	TotalStudents          int                                          `json:"total_students"`
	TotalCourses           int                                          `json:"total_courses"`
	TotalAssignments       int                                          `json:"total_assignments"`
	TotalSessions          int                                          `json:"total_sessions"`
	AssignmentStatusCounts map[model.AssignmentStatus]int               `json:"assignment_status_counts"`
	UpcomingAssignments    []repository.DashboardUpcomingAssignment     `json:"upcoming_assignments"`
	RecentGradedResults    []repository.DashboardRecentAssignmentResult `json:"recent_graded_results"`
}

// DashboardService handles instructor dashboard business logic.
type DashboardService struct {
	repo *repository.DashboardRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetDashboardData fetches all dashboard metrics.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*DashboardData, error) {
	students, courses, assignments, sessions, err := s.repo.GetSummaryCounts(ctx)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.repo.GetAssignmentStatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.repo.GetUpcomingAssignments(ctx, 5)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.GetRecentAssignmentResults(ctx, 5)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		TotalStudents:          students,
		TotalCourses:           courses,
		TotalAssignments:       assignments,
		TotalSessions:          sessions,
		AssignmentStatusCounts: statusCounts,
		UpcomingAssignments:    upcoming,
		RecentGradedResults:    recent,
	}, nil
}
