package timekeeper

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/lentera-backend/internal/model"
)

// maxCASRetries bounds the optimistic retry loop.
const maxCASRetries = 3

var (
	// ErrConcurrentModification is returned when every retry lost the race.
	// Transient: the caller may safely retry the whole request.
	ErrConcurrentModification = errors.New("session modified concurrently, retries exhausted")

	// ErrSessionNotFound is returned for an unknown or foreign session id.
	ErrSessionNotFound = errors.New("session not found")
)

// SessionPatch is the state transition the guard persists. It always
// carries the full (last_resumed_at, time_used_seconds, status) triple;
// SubmittedAt is set only by a submit.
type SessionPatch struct {
	LastResumedAt   *time.Time
	TimeUsedSeconds int64
	Status          model.SessionStatus
	SubmittedAt     *time.Time
}

// SessionStore is the persistence seam the guard drives. CompareAndSwap
// must apply the patch only while the stored last_resumed_at still equals
// expected, and report whether the write landed.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.AssignmentSession, error)
	CompareAndSwap(ctx context.Context, id uuid.UUID, expected *time.Time, patch SessionPatch) (bool, error)
}

// Guard linearizes writes to a single session via compare-and-swap on
// last_resumed_at, the field every code path reads then writes. It is the
// only component permitted to write the session accounting triple.
type Guard struct {
	store SessionStore
}

// NewGuard creates a Guard over the given store.
func NewGuard(store SessionStore) *Guard {
	return &Guard{store: store}
}

// Apply runs fn against a fresh session snapshot and persists the patch fn
// returns, retrying the whole read-compute-write cycle when the
// conditional write loses a race. A nil patch means nothing to write.
//
// fn may return a patch together with an error (an expiry commit that
// accompanies a denial): the patch is persisted first and the error is
// surfaced only once the write lands, so the overage is committed exactly
// once even under contention.
func (g *Guard) Apply(
	ctx context.Context,
	id uuid.UUID,
	fn func(*model.AssignmentSession) (*SessionPatch, error),
) (*model.AssignmentSession, error) {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		sess, err := g.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		patch, fnErr := fn(sess)
		if patch == nil {
			return sess, fnErr
		}

		ok, err := g.store.CompareAndSwap(ctx, id, sess.LastResumedAt, *patch)
		if err != nil {
			return nil, err
		}
		if ok {
			patch.apply(sess)
			return sess, fnErr
		}
		// Lost the race: re-read the fresh row and recompute.
	}
	return nil, ErrConcurrentModification
}

func (p *SessionPatch) apply(sess *model.AssignmentSession) {
	sess.LastResumedAt = p.LastResumedAt
	sess.TimeUsedSeconds = p.TimeUsedSeconds
	sess.Status = p.Status
	if p.SubmittedAt != nil {
		sess.SubmittedAt = p.SubmittedAt
	}
}
