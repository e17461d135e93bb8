package timekeeper

import (
	"time"

	"github.com/stemsi/lentera-backend/internal/model"
)

// Operation identifies the mutating request being authorized.
type Operation string

const (
	OpHeartbeat      Operation = "heartbeat"
	OpAnswerMutation Operation = "answer_mutation"
	OpSubmit         Operation = "submit"
)

// DenialReason classifies why the gate rejected an operation.
type DenialReason string

const (
	DenyAssignmentNotStarted     DenialReason = "ASSIGNMENT_NOT_STARTED"
	DenyAssignmentDeadlinePassed DenialReason = "ASSIGNMENT_DEADLINE_PASSED"
	DenyAssignmentEnded          DenialReason = "ASSIGNMENT_ENDED"
	DenySessionSubmitted         DenialReason = "SESSION_SUBMITTED"
	DenySessionExpired           DenialReason = "SESSION_EXPIRED"
)

// Denial is a policy rejection. It is returned as a value so callers can
// map it deterministically to a user-facing response; nothing here panics
// or throws across the operation boundary.
type Denial struct {
	Reason DenialReason
}

func (d *Denial) Error() string { return string(d.Reason) }

// Terminal reports whether retrying the same operation can never succeed.
func (d *Denial) Terminal() bool {
	return d.Reason == DenySessionSubmitted || d.Reason == DenySessionExpired
}

// Verdict is the gate's decision. Patch may be set even when Denial is
// set: an expiry discovered during authorization must still be committed
// exactly once before the denial is surfaced.
type Verdict struct {
	Denial *Denial
	Patch  *SessionPatch
}

// Allowed reports whether the operation may proceed.
func (v Verdict) Allowed() bool { return v.Denial == nil }

// Authorize is the single policy checkpoint for mutating session
// operations. Checks short-circuit in order: session status, assignment
// lifecycle, window, duration budget. On success the verdict carries the
// state transition to persist.
//
// A submit skips only the budget check: a student may submit right at the
// edge of their budget, but never after the session is already terminal or
// the assignment window has closed.
func Authorize(op Operation, sess *model.AssignmentSession, win WindowInputs, now time.Time) Verdict {
	switch sess.Status {
	case model.SessionStatusSubmitted:
		return Verdict{Denial: &Denial{Reason: DenySessionSubmitted}}
	case model.SessionStatusExpired:
		return Verdict{Denial: &Denial{Reason: DenySessionExpired}}
	}

	if win.Status == model.AssignmentStatusGraded {
		return Verdict{Denial: &Denial{Reason: DenyAssignmentEnded}}
	}

	switch EvaluateWindow(now, win) {
	case WindowNotStarted:
		return Verdict{Denial: &Denial{Reason: DenyAssignmentNotStarted}}
	case WindowEnded:
		return Verdict{Denial: &Denial{Reason: DenyAssignmentDeadlinePassed}}
	}

	ledger := LedgerOf(sess.LastResumedAt, sess.TimeUsedSeconds)

	if op != OpSubmit && OverBudget(ledger.EffectiveUsed(now), win.DurationMinutes) {
		// Commit the overage exactly once, then reject.
		expired := ledger.Pause(now)
		return Verdict{
			Denial: &Denial{Reason: DenySessionExpired},
			Patch: &SessionPatch{
				TimeUsedSeconds: expired.Used,
				Status:          model.SessionStatusExpired,
			},
		}
	}

	if op == OpSubmit {
		paused := ledger.Pause(now)
		submittedAt := now
		return Verdict{Patch: &SessionPatch{
			TimeUsedSeconds: paused.Used,
			Status:          model.SessionStatusSubmitted,
			SubmittedAt:     &submittedAt,
		}}
	}

	// Presence of a request always restarts the clock: a running ledger
	// commits its delta, a paused one resumes from its committed baseline.
	resumed := ledger.Resume(now)
	return Verdict{Patch: &SessionPatch{
		LastResumedAt:   resumed.Clock.ResumedAt(),
		TimeUsedSeconds: resumed.Used,
		Status:          model.SessionStatusInProgress,
	}}
}
