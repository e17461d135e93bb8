package timekeeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/lentera-backend/internal/model"
)

// fakeStore is an in-memory SessionStore that can inject a conflicting
// write between the guard's read and its conditional write.
type fakeStore struct {
	sess     *model.AssignmentSession
	casCalls int
	getCalls int

	// conflictOn makes CAS attempt n (1-based) fail as a lost race.
	conflictOn map[int]bool
	// afterGet runs once the snapshot is taken, simulating a rival writer
	// landing between the guard's read and its conditional write.
	afterGet func(calls int, sess *model.AssignmentSession)
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*model.AssignmentSession, error) {
	f.getCalls++
	if f.sess == nil || f.sess.ID != id {
		return nil, ErrSessionNotFound
	}
	cp := *f.sess
	if f.afterGet != nil {
		f.afterGet(f.getCalls, f.sess)
	}
	return &cp, nil
}

func (f *fakeStore) CompareAndSwap(_ context.Context, id uuid.UUID, expected *time.Time, patch SessionPatch) (bool, error) {
	f.casCalls++
	if f.conflictOn[f.casCalls] {
		return false, nil
	}
	if f.sess == nil || f.sess.ID != id {
		return false, nil
	}
	if !timeEqual(f.sess.LastResumedAt, expected) {
		return false, nil
	}
	patch.apply(f.sess)
	return true, nil
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func TestGuardAppliesPatch(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	sess := newSession(model.SessionStatusInProgress, ptrTime(base), 0)
	store := &fakeStore{sess: sess}
	guard := NewGuard(store)

	now := base.Add(30 * time.Second)
	got, err := guard.Apply(context.Background(), sess.ID, func(cur *model.AssignmentSession) (*SessionPatch, error) {
		ledger := LedgerOf(cur.LastResumedAt, cur.TimeUsedSeconds).Resume(now)
		return &SessionPatch{
			LastResumedAt:   ledger.Clock.ResumedAt(),
			TimeUsedSeconds: ledger.Used,
			Status:          model.SessionStatusInProgress,
		}, nil
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if got.TimeUsedSeconds != 30 {
		t.Errorf("committed %d, want 30", got.TimeUsedSeconds)
	}
	if store.sess.TimeUsedSeconds != 30 {
		t.Errorf("store committed %d, want 30", store.sess.TimeUsedSeconds)
	}
}

func TestGuardNilPatchSkipsWrite(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	sess := newSession(model.SessionStatusInProgress, ptrTime(base), 0)
	store := &fakeStore{sess: sess}
	guard := NewGuard(store)

	_, err := guard.Apply(context.Background(), sess.ID, func(*model.AssignmentSession) (*SessionPatch, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if store.casCalls != 0 {
		t.Errorf("expected no CAS call, got %d", store.casCalls)
	}
}

// TestGuardRetriesLostRace simulates two heartbeats racing: the first CAS
// loses because another request advanced the clock between read and write.
// The retry must recompute from the fresh row so both requests' elapsed
// time lands exactly once.
func TestGuardRetriesLostRace(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	sess := newSession(model.SessionStatusInProgress, ptrTime(base), 0)
	store := &fakeStore{sess: sess}

	// Between the guard's first read and its write, a rival heartbeat at
	// base+20s commits 20 seconds and restarts the clock. The first CAS
	// must then observe a stale expected value and lose.
	rivalAt := base.Add(20 * time.Second)
	store.afterGet = func(calls int, cur *model.AssignmentSession) {
		if calls == 1 {
			ledger := LedgerOf(cur.LastResumedAt, cur.TimeUsedSeconds).Resume(rivalAt)
			cur.TimeUsedSeconds = ledger.Used
			cur.LastResumedAt = ledger.Clock.ResumedAt()
		}
	}

	guard := NewGuard(store)
	now := base.Add(60 * time.Second)

	got, err := guard.Apply(context.Background(), sess.ID, func(cur *model.AssignmentSession) (*SessionPatch, error) {
		ledger := LedgerOf(cur.LastResumedAt, cur.TimeUsedSeconds).Resume(now)
		return &SessionPatch{
			LastResumedAt:   ledger.Clock.ResumedAt(),
			TimeUsedSeconds: ledger.Used,
			Status:          model.SessionStatusInProgress,
		}, nil
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	// 20s committed by the rival + 40s between the rival's resume and now.
	if got.TimeUsedSeconds != 60 {
		t.Errorf("final ledger %d, want 60 (no double-counting, no lost update)", got.TimeUsedSeconds)
	}
	if store.casCalls != 2 {
		t.Errorf("CAS attempts = %d, want 2 (one lost, one won)", store.casCalls)
	}
}

func TestGuardExhaustsRetries(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	sess := newSession(model.SessionStatusInProgress, ptrTime(base), 0)
	store := &fakeStore{
		sess:       sess,
		conflictOn: map[int]bool{1: true, 2: true, 3: true},
	}
	guard := NewGuard(store)

	_, err := guard.Apply(context.Background(), sess.ID, func(cur *model.AssignmentSession) (*SessionPatch, error) {
		return &SessionPatch{Status: model.SessionStatusInProgress}, nil
	})
	if !errors.Is(err, ErrConcurrentModification) {
		t.Errorf("error = %v, want ErrConcurrentModification", err)
	}
	if store.casCalls != maxCASRetries {
		t.Errorf("CAS attempts = %d, want %d", store.casCalls, maxCASRetries)
	}
}

// An expiry commit that accompanies a denial must land before the denial
// is surfaced.
func TestGuardPersistsPatchWithError(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	sess := newSession(model.SessionStatusInProgress, ptrTime(base), 0)
	store := &fakeStore{sess: sess}
	guard := NewGuard(store)

	win := WindowInputs{DurationMinutes: ptrInt(10), Status: model.AssignmentStatusPublished}
	now := base.Add(1000 * time.Second)

	got, err := guard.Apply(context.Background(), sess.ID, func(cur *model.AssignmentSession) (*SessionPatch, error) {
		v := Authorize(OpHeartbeat, cur, win, now)
		if v.Denial != nil {
			return v.Patch, v.Denial
		}
		return v.Patch, nil
	})

	var denial *Denial
	if !errors.As(err, &denial) || denial.Reason != DenySessionExpired {
		t.Fatalf("error = %v, want SESSION_EXPIRED denial", err)
	}
	if got == nil || got.Status != model.SessionStatusExpired {
		t.Error("expiry was not committed alongside the denial")
	}
	if store.sess.Status != model.SessionStatusExpired {
		t.Error("store does not reflect the expiry commit")
	}
	if store.sess.TimeUsedSeconds != 1000 {
		t.Errorf("overage committed %d, want 1000", store.sess.TimeUsedSeconds)
	}
}
