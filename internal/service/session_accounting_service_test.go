package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/lentera-backend/internal/model"
	"github.com/stemsi/lentera-backend/internal/timekeeper"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type memSessionStore struct {
	sessions map[uuid.UUID]*model.AssignmentSession
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[uuid.UUID]*model.AssignmentSession)}
}

func (m *memSessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.AssignmentSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, timekeeper.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionStore) GetByAssignmentAndStudent(_ context.Context, assignmentID uuid.UUID, studentID int) (*model.AssignmentSession, error) {
	for _, s := range m.sessions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, timekeeper.ErrSessionNotFound
}

func (m *memSessionStore) Create(_ context.Context, assignmentID uuid.UUID, studentID int) (*model.AssignmentSession, error) {
	for _, s := range m.sessions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			cp := *s
			return &cp, nil
		}
	}
	now := createClock.now
	s := &model.AssignmentSession{
		ID:            uuid.New(),
		AssignmentID:  assignmentID,
		StudentID:     studentID,
		StartedAt:     now,
		LastResumedAt: &now,
		Status:        model.SessionStatusInProgress,
	}
	m.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (m *memSessionStore) CompareAndSwap(_ context.Context, id uuid.UUID, expected *time.Time, patch timekeeper.SessionPatch) (bool, error) {
	s, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	if !sameInstant(s.LastResumedAt, expected) {
		return false, nil
	}
	s.LastResumedAt = patch.LastResumedAt
	s.TimeUsedSeconds = patch.TimeUsedSeconds
	s.Status = patch.Status
	if patch.SubmittedAt != nil {
		s.SubmittedAt = patch.SubmittedAt
	}
	return true, nil
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// createClock lets the in-memory store stamp new sessions with the test's
// frozen time.
var createClock *fakeClock

type memAssignmentStore struct {
	assignments map[uuid.UUID]*model.Assignment
}

func (m *memAssignmentStore) GetByID(_ context.Context, id uuid.UUID) (*model.Assignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, errors.New("assignment not found")
	}
	cp := *a
	return &cp, nil
}

type memEnrollmentStore struct {
	enrolled map[int]bool
}

func (m *memEnrollmentStore) IsEnrolled(_ context.Context, _ uuid.UUID, studentID int) (bool, error) {
	return m.enrolled[studentID], nil
}

type captureSink struct {
	events []SessionEvent
}

func (c *captureSink) Publish(_ context.Context, ev SessionEvent) error {
	c.events = append(c.events, ev)
	return nil
}

type fixture struct {
	svc        *SessionAccountingService
	clock      *fakeClock
	store      *memSessionStore
	sink       *captureSink
	assignment *model.Assignment
	studentID  int
}

func newFixture(t *testing.T, durationMinutes *int) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
	createClock = clock

	assignment := &model.Assignment{
		ID:              uuid.New(),
		CourseID:        uuid.New(),
		Title:           "Tugas Struktur Data",
		DurationMinutes: durationMinutes,
		Status:          model.AssignmentStatusPublished,
	}

	store := newMemSessionStore()
	sink := &captureSink{}
	svc := NewSessionAccountingService(
		store,
		&memAssignmentStore{assignments: map[uuid.UUID]*model.Assignment{assignment.ID: assignment}},
		&memEnrollmentStore{enrolled: map[int]bool{7: true}},
		sink,
		clock,
		zerolog.Nop(),
	)

	return &fixture{svc: svc, clock: clock, store: store, sink: sink, assignment: assignment, studentID: 7}
}

func intPtr(n int) *int { return &n }

func TestGetOrCreateSessionIdempotent(t *testing.T) {
	f := newFixture(t, intPtr(10))
	ctx := context.Background()

	first, err := f.svc.GetOrCreateSession(ctx, f.assignment.ID, f.studentID)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.Status != model.SessionStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", first.Status)
	}
	if first.LastResumedAt == nil {
		t.Error("new session must have a running clock")
	}

	second, err := f.svc.GetOrCreateSession(ctx, f.assignment.ID, f.studentID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second call created a new session: %s != %s", second.ID, first.ID)
	}

	if len(f.sink.events) != 1 || f.sink.events[0].Type != EventSessionStarted {
		t.Errorf("events = %v, want exactly one SESSION_STARTED", f.sink.events)
	}
}

func TestGetOrCreateSessionDeniedBeforeStart(t *testing.T) {
	f := newFixture(t, nil)
	start := f.clock.now.Add(time.Hour)
	f.assignment.StartTime = &start

	_, err := f.svc.GetOrCreateSession(context.Background(), f.assignment.ID, f.studentID)
	var denial *timekeeper.Denial
	if !errors.As(err, &denial) || denial.Reason != timekeeper.DenyAssignmentNotStarted {
		t.Fatalf("error = %v, want ASSIGNMENT_NOT_STARTED denial", err)
	}
}

func TestGetOrCreateSessionRequiresEnrollment(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.GetOrCreateSession(context.Background(), f.assignment.ID, 99)
	if !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("error = %v, want ErrNotEnrolled", err)
	}
}

// A fetch observing a session silent past the inactivity threshold pauses
// it with the full silent gap committed; the next heartbeat resumes from
// that baseline without re-counting the gap.
func TestFetchPausesIdleSessionThenHeartbeatResumes(t *testing.T) {
	f := newFixture(t, intPtr(30))
	ctx := context.Background()

	sess, err := f.svc.GetOrCreateSession(ctx, f.assignment.ID, f.studentID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.clock.advance(200 * time.Second)
	view, err := f.svc.FetchSessionView(ctx, sess.ID, f.studentID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if view.EffectiveUsedSeconds != 200 {
		t.Errorf("effective used = %d, want 200", view.EffectiveUsedSeconds)
	}
	if view.Session.LastResumedAt != nil {
		t.Error("idle session should be paused after fetch")
	}
	if view.Session.TimeUsedSeconds != 200 {
		t.Errorf("committed = %d, want 200", view.Session.TimeUsedSeconds)
	}

	f.clock.advance(60 * time.Second)
	view, err = f.svc.Heartbeat(ctx, sess.ID, f.studentID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if view.Session.TimeUsedSeconds != 200 {
		t.Errorf("paused gap was counted: committed = %d, want 200", view.Session.TimeUsedSeconds)
	}
	if view.Session.LastResumedAt == nil || !view.Session.LastResumedAt.Equal(f.clock.now) {
		t.Error("heartbeat should restart the clock at now")
	}
	if view.RemainingSeconds == nil || *view.RemainingSeconds != 30*60-200 {
		t.Errorf("remaining = %v, want %d", view.RemainingSeconds, 30*60-200)
	}
}

// A fetch within the inactivity threshold reports the running delta
// without writing anything.
func TestFetchFreshSessionDoesNotWrite(t *testing.T) {
	f := newFixture(t, intPtr(30))
	ctx := context.Background()

	sess, err := f.svc.GetOrCreateSession(ctx, f.assignment.ID, f.studentID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.clock.advance(60 * time.Second)
	view, err := f.svc.FetchSessionView(ctx, sess.ID, f.studentID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if view.EffectiveUsedSeconds != 60 {
		t.Errorf("effective used = %d, want 60", view.EffectiveUsedSeconds)
	}
	if view.Session.TimeUsedSeconds != 0 {
		t.Errorf("fetch committed %d seconds, want 0", view.Session.TimeUsedSeconds)
	}
	if view.Session.LastResumedAt == nil {
		t.Error("fresh running clock must stay running")
	}
}

func TestHeartbeatCountsSilentGapWithinThreshold(t *testing.T) {
	f := newFixture(t, intPtr(30))
	ctx := context.Background()

	sess, err := f.svc.GetOrCreateSession(ctx, f.assignment.ID, f.studentID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.clock.advance(90 * time.Second)
	view, err := f.svc.Heartbeat(ctx, sess.ID, f.studentID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if view.Session.TimeUsedSeconds != 90 {
		t.Errorf("committed = %d, want 90", view.Session.TimeUsedSeconds)
	}
}

func TestAnswerMutationDeniedPastBudget(t *testing.T) {
	f := newFixture(t, intPtr(10))
	ctx := context.Background()

	sess, err := f.svc.GetOrCreateSession(ctx, f.assignment.ID, f.studentID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 10 min budget + 45s grace: 646 elapsed seconds is one past the line.
	f.clock.advance(646 * time.Second)
	_, err = f.svc.RecordAnswerMutation(ctx, sess.ID, f.studentID)

	var denial *timekeeper.Denial
	if !errors.As(err, &denial) || denial.Reason != timekeeper.DenySessionExpired {
		t.Fatalf("error = %v, want SESSION_EXPIRED denial", err)
	}

	// The overage must be committed exactly once alongside the denial.
	stored, _ := f.store.GetByID(ctx, sess.ID)
	if stored.Status != model.SessionStatusExpired {
		t.Errorf("status = %s, want EXPIRED", stored.Status)
	}
	if stored.TimeUsedSeconds != 646 {
		t.Errorf("committed = %d, want 646", stored.TimeUsedSeconds)
	}

	foundExpired := false
	for _, ev := range f.sink.events {
		if ev.Type == EventSessionExpired {
			foundExpired = true
		}
	}
	if !foundExpired {
		t.Error("expiry event was not emitted")
	}
}

func TestSubmitAllowedPastBudget(t *testing.T) {
	f := newFixture(t, intPtr(10))
	ctx := context.Background()

	sess, err := f.svc.GetOrCreateSession(ctx, f.assignment.ID, f.studentID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.clock.advance(700 * time.Second)
	view, err := f.svc.Submit(ctx, sess.ID, f.studentID)
	if err != nil {
		t.Fatalf("submit past budget should succeed: %v", err)
	}
	if view.Session.Status != model.SessionStatusSubmitted {
		t.Errorf("status = %s, want SUBMITTED", view.Session.Status)
	}
	if view.Session.TimeUsedSeconds != 700 {
		t.Errorf("committed = %d, want 700", view.Session.TimeUsedSeconds)
	}
	if view.Session.SubmittedAt == nil || !view.Session.SubmittedAt.Equal(f.clock.now) {
		t.Error("submitted_at should be stamped with now")
	}

	// Submitting twice is a terminal denial, not a second transition.
	_, err = f.svc.Submit(ctx, sess.ID, f.studentID)
	var denial *timekeeper.Denial
	if !errors.As(err, &denial) || denial.Reason != timekeeper.DenySessionSubmitted {
		t.Fatalf("second submit error = %v, want SESSION_SUBMITTED denial", err)
	}
}

func TestHeartbeatDeniedAfterDeadline(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	deadline := f.clock.now.Add(5 * time.Minute)
	f.assignment.Deadline = &deadline

	sess, err := f.svc.GetOrCreateSession(ctx, f.assignment.ID, f.studentID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.clock.advance(5*time.Minute + time.Second)
	_, err = f.svc.Heartbeat(ctx, sess.ID, f.studentID)

	var denial *timekeeper.Denial
	if !errors.As(err, &denial) || denial.Reason != timekeeper.DenyAssignmentDeadlinePassed {
		t.Fatalf("error = %v, want ASSIGNMENT_DEADLINE_PASSED denial", err)
	}
}

func TestFetchForeignSessionNotFound(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	sess, err := f.svc.GetOrCreateSession(ctx, f.assignment.ID, f.studentID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.svc.FetchSessionView(ctx, sess.ID, 99)
	if !errors.Is(err, timekeeper.ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}

// Lazy expiry: a fetch that finds the session past its budget commits the
// expiry so the state is terminal for every later observer.
func TestFetchExpiresOverBudgetSession(t *testing.T) {
	f := newFixture(t, intPtr(10))
	ctx := context.Background()

	sess, err := f.svc.GetOrCreateSession(ctx, f.assignment.ID, f.studentID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f.clock.advance(646 * time.Second)
	view, err := f.svc.FetchSessionView(ctx, sess.ID, f.studentID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if view.Session.Status != model.SessionStatusExpired {
		t.Errorf("status = %s, want EXPIRED", view.Session.Status)
	}
	if view.RemainingSeconds == nil || *view.RemainingSeconds != 0 {
		t.Errorf("remaining = %v, want 0", view.RemainingSeconds)
	}

	// Exactly at budget+grace is still fine for a sibling session.
	f2 := newFixture(t, intPtr(10))
	sess2, _ := f2.svc.GetOrCreateSession(ctx, f2.assignment.ID, f2.studentID)
	f2.clock.advance(645 * time.Second)
	view2, err := f2.svc.FetchSessionView(ctx, sess2.ID, f2.studentID)
	if err != nil {
		t.Fatalf("fetch at grace boundary: %v", err)
	}
	if view2.Session.Status != model.SessionStatusInProgress {
		t.Errorf("status at boundary = %s, want IN_PROGRESS", view2.Session.Status)
	}
}
