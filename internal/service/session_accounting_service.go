package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/lentera-backend/internal/model"
	"github.com/stemsi/lentera-backend/internal/timekeeper"
)

// Session accounting errors surfaced to handlers.
var (
	ErrAssignmentNotAvailable = errors.New("assignment is not available")
	ErrNotEnrolled            = errors.New("student is not enrolled in this course")
)

// SessionStore is the session persistence the accounting service needs.
// *repository.AssignmentSessionRepository satisfies it.
type SessionStore interface {
	timekeeper.SessionStore
	GetByAssignmentAndStudent(ctx context.Context, assignmentID uuid.UUID, studentID int) (*model.AssignmentSession, error)
	Create(ctx context.Context, assignmentID uuid.UUID, studentID int) (*model.AssignmentSession, error)
}

// AssignmentStore resolves assignments for window evaluation.
type AssignmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
}

// EnrollmentStore answers enrollment checks for session creation.
type EnrollmentStore interface {
	IsEnrolled(ctx context.Context, courseID uuid.UUID, studentID int) (bool, error)
}

// SessionAccountingService orchestrates every operation that touches a
// session's time ledger. All writes to the accounting triple go through
// the concurrency guard; denials come back as *timekeeper.Denial values.
type SessionAccountingService struct {
	sessions    SessionStore
	assignments AssignmentStore
	enrollments EnrollmentStore
	guard       *timekeeper.Guard
	events      SessionEventSink
	clock       timekeeper.Clock
	log         zerolog.Logger
}

// NewSessionAccountingService creates a new SessionAccountingService.
func NewSessionAccountingService(
	sessions SessionStore,
	assignments AssignmentStore,
	enrollments EnrollmentStore,
	events SessionEventSink,
	clock timekeeper.Clock,
	log zerolog.Logger,
) *SessionAccountingService {
	return &SessionAccountingService{
		sessions:    sessions,
		assignments: assignments,
		enrollments: enrollments,
		guard:       timekeeper.NewGuard(sessions),
		events:      events,
		clock:       clock,
		log:         log.With().Str("component", "session_accounting").Logger(),
	}
}

// GetOrCreateSession returns the student's session for an assignment,
// creating it with a running clock on first call. Idempotent: an existing
// session is returned as-is regardless of its state, so a reconnecting
// student always lands on the same attempt.
func (s *SessionAccountingService) GetOrCreateSession(ctx context.Context, assignmentID uuid.UUID, studentID int) (*model.AssignmentSession, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}

	existing, err := s.sessions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, timekeeper.ErrSessionNotFound) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}

	// First attempt: the assignment must actually be open to this student.
	if assignment.Status != model.AssignmentStatusPublished {
		return nil, ErrAssignmentNotAvailable
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, assignment.CourseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	now := s.clock.Now()
	switch timekeeper.EvaluateWindow(now, timekeeper.WindowInputsFor(assignment)) {
	case timekeeper.WindowNotStarted:
		return nil, &timekeeper.Denial{Reason: timekeeper.DenyAssignmentNotStarted}
	case timekeeper.WindowEnded:
		return nil, &timekeeper.Denial{Reason: timekeeper.DenyAssignmentDeadlinePassed}
	}

	sess, err := s.sessions.Create(ctx, assignmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.emit(ctx, sess, EventSessionStarted, nil)
	return sess, nil
}

// GetSessionForAssignment returns the student's existing session for an
// assignment without touching the ledger.
func (s *SessionAccountingService) GetSessionForAssignment(ctx context.Context, assignmentID uuid.UUID, studentID int) (*model.AssignmentSession, error) {
	return s.sessions.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
}

// Heartbeat records liveness for a session. It commits any running delta
// and restarts the clock, so silent gaps shorter than the inactivity
// threshold count as active time.
func (s *SessionAccountingService) Heartbeat(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.SessionView, error) {
	return s.authorized(ctx, timekeeper.OpHeartbeat, sessionID, studentID)
}

// RecordAnswerMutation authorizes an answer write against the session's
// clock. The answer payload itself rides the Redis fast lane; this method
// only moves the ledger and tells the caller whether the write may land.
func (s *SessionAccountingService) RecordAnswerMutation(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.SessionView, error) {
	return s.authorized(ctx, timekeeper.OpAnswerMutation, sessionID, studentID)
}

// Submit finalizes a session. The ledger is committed with the clock
// stopped and the session becomes terminal. Submitting is allowed past the
// duration budget but never past the assignment window.
func (s *SessionAccountingService) Submit(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.SessionView, error) {
	view, err := s.authorized(ctx, timekeeper.OpSubmit, sessionID, studentID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, &view.Session, EventSessionSubmitted, nil)
	return view, nil
}

// FetchSessionView returns the session with its clock evaluated at now.
// Reads repair state they observe: a clock silent past the inactivity
// threshold is paused with its delta committed, and a session past its
// budget is expired. A fresh running clock is reported as-is without a
// write.
func (s *SessionAccountingService) FetchSessionView(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.SessionView, error) {
	now := s.clock.Now()
	var (
		assignment *model.Assignment
		expired    bool
	)

	sess, err := s.guard.Apply(ctx, sessionID, func(cur *model.AssignmentSession) (*timekeeper.SessionPatch, error) {
		if cur.StudentID != studentID {
			return nil, timekeeper.ErrSessionNotFound
		}

		var err error
		assignment, err = s.assignments.GetByID(ctx, cur.AssignmentID)
		if err != nil {
			return nil, fmt.Errorf("get assignment: %w", err)
		}

		if cur.Status != model.SessionStatusInProgress {
			return nil, nil
		}

		ledger := timekeeper.LedgerOf(cur.LastResumedAt, cur.TimeUsedSeconds)

		if timekeeper.OverBudget(ledger.EffectiveUsed(now), assignment.DurationMinutes) {
			expired = true
			committed := ledger.Pause(now)
			return &timekeeper.SessionPatch{
				TimeUsedSeconds: committed.Used,
				Status:          model.SessionStatusExpired,
			}, nil
		}

		if ledger.Idle(now) {
			paused := ledger.Pause(now)
			return &timekeeper.SessionPatch{
				TimeUsedSeconds: paused.Used,
				Status:          model.SessionStatusInProgress,
			}, nil
		}

		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if expired {
		s.emit(ctx, sess, EventSessionExpired, nil)
	}
	return buildView(sess, assignment, now), nil
}

// authorized runs one gate-checked state transition under the guard and
// projects the resulting session.
func (s *SessionAccountingService) authorized(ctx context.Context, op timekeeper.Operation, sessionID uuid.UUID, studentID int) (*model.SessionView, error) {
	now := s.clock.Now()
	var (
		assignment *model.Assignment
		expired    bool
	)

	sess, err := s.guard.Apply(ctx, sessionID, func(cur *model.AssignmentSession) (*timekeeper.SessionPatch, error) {
		if cur.StudentID != studentID {
			return nil, timekeeper.ErrSessionNotFound
		}

		var err error
		assignment, err = s.assignments.GetByID(ctx, cur.AssignmentID)
		if err != nil {
			return nil, fmt.Errorf("get assignment: %w", err)
		}

		v := timekeeper.Authorize(op, cur, timekeeper.WindowInputsFor(assignment), now)
		if v.Denial != nil {
			expired = v.Patch != nil && v.Patch.Status == model.SessionStatusExpired
			return v.Patch, v.Denial
		}
		return v.Patch, nil
	})

	if expired && sess != nil {
		s.emit(ctx, sess, EventSessionExpired, nil)
	}
	if err != nil {
		return nil, err
	}
	return buildView(sess, assignment, now), nil
}

// buildView projects a session with its clock evaluated at now and, when
// the assignment carries a duration budget, a never-negative
// remaining-time hint.
func buildView(sess *model.AssignmentSession, assignment *model.Assignment, now time.Time) *model.SessionView {
	ledger := timekeeper.LedgerOf(sess.LastResumedAt, sess.TimeUsedSeconds)
	v := &model.SessionView{
		Session:              *sess,
		EffectiveUsedSeconds: ledger.EffectiveUsed(now),
	}
	if assignment != nil && assignment.DurationMinutes != nil {
		remaining := int64(*assignment.DurationMinutes)*60 - v.EffectiveUsedSeconds
		if remaining < 0 {
			remaining = 0
		}
		v.RemainingSeconds = &remaining
	}
	return v
}

func (s *SessionAccountingService) emit(ctx context.Context, sess *model.AssignmentSession, typ SessionEventType, payload map[string]any) {
	if s.events == nil {
		return
	}
	ev := SessionEvent{
		SessionID:    sess.ID,
		AssignmentID: sess.AssignmentID,
		StudentID:    sess.StudentID,
		Type:         typ,
		OccurredAt:   s.clock.Now(),
		Payload:      payload,
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("session_id", sess.ID.String()).
			Str("event", string(typ)).
			Msg("Failed to publish session event")
	}
}
