package timekeeper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/lentera-backend/internal/model"
)

func newSession(status model.SessionStatus, resumedAt *time.Time, used int64) *model.AssignmentSession {
	return &model.AssignmentSession{
		ID:              uuid.New(),
		AssignmentID:    uuid.New(),
		StudentID:       7,
		StartedAt:       time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		LastResumedAt:   resumedAt,
		TimeUsedSeconds: used,
		Status:          status,
	}
}

func TestAuthorizeDenialOrder(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	published := WindowInputs{Status: model.AssignmentStatusPublished}

	tests := []struct {
		name string
		sess *model.AssignmentSession
		win  WindowInputs
		want DenialReason
	}{
		{
			name: "submitted session wins over everything",
			sess: newSession(model.SessionStatusSubmitted, nil, 0),
			win:  WindowInputs{Status: model.AssignmentStatusGraded},
			want: DenySessionSubmitted,
		},
		{
			name: "expired session",
			sess: newSession(model.SessionStatusExpired, nil, 0),
			win:  published,
			want: DenySessionExpired,
		},
		{
			name: "graded assignment",
			sess: newSession(model.SessionStatusInProgress, nil, 0),
			win:  WindowInputs{Status: model.AssignmentStatusGraded, Deadline: ptrTime(now.Add(time.Hour))},
			want: DenyAssignmentEnded,
		},
		{
			name: "window not started",
			sess: newSession(model.SessionStatusInProgress, nil, 0),
			win:  WindowInputs{StartTime: ptrTime(now.Add(time.Minute)), Status: model.AssignmentStatusPublished},
			want: DenyAssignmentNotStarted,
		},
		{
			name: "deadline passed",
			sess: newSession(model.SessionStatusInProgress, nil, 0),
			win:  WindowInputs{Deadline: ptrTime(now.Add(-time.Minute)), Status: model.AssignmentStatusPublished},
			want: DenyAssignmentDeadlinePassed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Authorize(OpHeartbeat, tc.sess, tc.win, now)
			if v.Allowed() {
				t.Fatal("expected denial")
			}
			if v.Denial.Reason != tc.want {
				t.Errorf("reason = %s, want %s", v.Denial.Reason, tc.want)
			}
		})
	}
}

func TestAuthorizeBudgetExpiry(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	win := WindowInputs{DurationMinutes: ptrInt(10), Status: model.AssignmentStatusPublished}

	t.Run("within budget plus grace resumes", func(t *testing.T) {
		sess := newSession(model.SessionStatusInProgress, ptrTime(start), 0)
		now := start.Add(645 * time.Second)

		v := Authorize(OpHeartbeat, sess, win, now)
		if !v.Allowed() {
			t.Fatalf("denied at exactly budget+grace: %v", v.Denial)
		}
		if v.Patch.TimeUsedSeconds != 645 {
			t.Errorf("committed %d, want 645", v.Patch.TimeUsedSeconds)
		}
		if v.Patch.LastResumedAt == nil || !v.Patch.LastResumedAt.Equal(now) {
			t.Error("clock not restarted at now")
		}
	})

	t.Run("past grace commits overage and denies", func(t *testing.T) {
		sess := newSession(model.SessionStatusInProgress, ptrTime(start), 0)
		now := start.Add(646 * time.Second)

		v := Authorize(OpHeartbeat, sess, win, now)
		if v.Allowed() {
			t.Fatal("expected denial")
		}
		if v.Denial.Reason != DenySessionExpired {
			t.Errorf("reason = %s, want %s", v.Denial.Reason, DenySessionExpired)
		}
		if v.Patch == nil {
			t.Fatal("expiry must carry a commit patch")
		}
		if v.Patch.Status != model.SessionStatusExpired {
			t.Errorf("patch status = %s, want EXPIRED", v.Patch.Status)
		}
		if v.Patch.TimeUsedSeconds != 646 {
			t.Errorf("overage committed %d, want 646", v.Patch.TimeUsedSeconds)
		}
		if v.Patch.LastResumedAt != nil {
			t.Error("expired session must not keep a running clock")
		}
	})
}

func TestAuthorizeSubmit(t *testing.T) {
	start := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	win := WindowInputs{DurationMinutes: ptrInt(10), Status: model.AssignmentStatusPublished}

	t.Run("submit allowed past budget", func(t *testing.T) {
		sess := newSession(model.SessionStatusInProgress, ptrTime(start), 0)
		now := start.Add(700 * time.Second)

		v := Authorize(OpSubmit, sess, win, now)
		if !v.Allowed() {
			t.Fatalf("submit denied: %v", v.Denial)
		}
		if v.Patch.Status != model.SessionStatusSubmitted {
			t.Errorf("patch status = %s, want SUBMITTED", v.Patch.Status)
		}
		if v.Patch.SubmittedAt == nil || !v.Patch.SubmittedAt.Equal(now) {
			t.Error("submitted_at not set to now")
		}
		if v.Patch.LastResumedAt != nil {
			t.Error("submitted session must not keep a running clock")
		}
		if v.Patch.TimeUsedSeconds != 700 {
			t.Errorf("committed %d, want 700", v.Patch.TimeUsedSeconds)
		}
	})

	t.Run("submit denied on terminal session", func(t *testing.T) {
		sess := newSession(model.SessionStatusExpired, nil, 646)
		v := Authorize(OpSubmit, sess, win, start.Add(time.Hour))
		if v.Allowed() || v.Denial.Reason != DenySessionExpired {
			t.Errorf("expected SESSION_EXPIRED, got %+v", v)
		}
	})
}

func TestAuthorizeResumesPausedSession(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	win := WindowInputs{Status: model.AssignmentStatusPublished}
	sess := newSession(model.SessionStatusInProgress, nil, 200)

	v := Authorize(OpAnswerMutation, sess, win, now)
	if !v.Allowed() {
		t.Fatalf("denied: %v", v.Denial)
	}
	if v.Patch.TimeUsedSeconds != 200 {
		t.Errorf("resume changed committed seconds to %d", v.Patch.TimeUsedSeconds)
	}
	if v.Patch.LastResumedAt == nil || !v.Patch.LastResumedAt.Equal(now) {
		t.Error("clock not started at now")
	}
}

func TestDenialTerminal(t *testing.T) {
	if !(&Denial{Reason: DenySessionSubmitted}).Terminal() {
		t.Error("SESSION_SUBMITTED should be terminal")
	}
	if !(&Denial{Reason: DenySessionExpired}).Terminal() {
		t.Error("SESSION_EXPIRED should be terminal")
	}
	if (&Denial{Reason: DenyAssignmentNotStarted}).Terminal() {
		t.Error("ASSIGNMENT_NOT_STARTED is recoverable")
	}
}
