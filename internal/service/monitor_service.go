package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/lentera-backend/internal/config"
	"github.com/stemsi/lentera-backend/internal/model"
	"github.com/stemsi/lentera-backend/internal/repository"
	"github.com/stemsi/lentera-backend/internal/timekeeper"
)

// MonitorService builds live snapshots of an assignment's sessions for
// the instructor monitor.
type MonitorService struct {
	monitorRepo *repository.MonitorRepository
	answerRepo  *repository.AnswerRepository
	clock       timekeeper.Clock
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(monitorRepo *repository.MonitorRepository, answerRepo *repository.AnswerRepository, clock timekeeper.Clock) *MonitorService {
	return &MonitorService{monitorRepo: monitorRepo, answerRepo: answerRepo, clock: clock}
}

// MonitorStudentRow is one student's live state in the monitor snapshot.
type MonitorStudentRow struct {
	SessionID            uuid.UUID           `json:"session_id"`
	StudentID            int                 `json:"student_id"`
	StudentName          string              `json:"student_name"`
	Status               model.SessionStatus `json:"status"`
	ClockRunning         bool                `json:"clock_running"`
	EffectiveUsedSeconds int64               `json:"effective_used_seconds"`
	AnsweredCount        int64               `json:"answered_count"`
}

// MonitorSnapshot is the full monitor state for one assignment at an instant.
type MonitorSnapshot struct {
	AssignmentID uuid.UUID           `json:"assignment_id"`
	TakenAt      time.Time           `json:"taken_at"`
	Students     []MonitorStudentRow `json:"students"`
}

// GetSnapshot returns every student's session state with the clock
// evaluated at now, plus their answered counts. Session rows and persisted
// answer counts are fetched concurrently; live fast-lane counts override
// the persisted ones.
func (s *MonitorService) GetSnapshot(ctx context.Context, assignmentID uuid.UUID) (*MonitorSnapshot, error) {
	var (
		sessionRows []repository.MonitorSessionRow
		answerCount map[uuid.UUID]int64
		sessionErr  error
		answerErr   error
		wg          sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sessionRows, sessionErr = s.monitorRepo.GetSessionRows(ctx, assignmentID)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		answerCount, answerErr = s.answerRepo.CountBySessions(ctx, assignmentID)
	}()

	wg.Wait()

	// Session rows are critical; persisted answer counts are best-effort.
	if sessionErr != nil {
		return nil, sessionErr
	}
	if answerErr != nil {
		answerCount = map[uuid.UUID]int64{}
	}

	now := s.clock.Now()
	snapshot := &MonitorSnapshot{
		AssignmentID: assignmentID,
		TakenAt:      now,
		Students:     make([]MonitorStudentRow, 0, len(sessionRows)),
	}

	for _, row := range sessionRows {
		ledger := timekeeper.LedgerOf(row.LastResumedAt, row.TimeUsedSeconds)

		answered := answerCount[row.SessionID]
		if row.Status == model.SessionStatusInProgress {
			liveKey := config.CacheKey.SessionAnswersKey(row.SessionID.String())
			if live, err := s.monitorRepo.GetLiveAnswerCount(ctx, liveKey); err == nil && live > answered {
				answered = live
			}
		}

		snapshot.Students = append(snapshot.Students, MonitorStudentRow{
			SessionID:            row.SessionID,
			StudentID:            row.StudentID,
			StudentName:          row.StudentName,
			Status:               row.Status,
			ClockRunning:         ledger.Clock.IsRunning() && row.Status == model.SessionStatusInProgress,
			EffectiveUsedSeconds: ledger.EffectiveUsed(now),
			AnsweredCount:        answered,
		})
	}

	return snapshot, nil
}
