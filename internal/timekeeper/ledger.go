package timekeeper

import "time"

const (
	// GraceSeconds is added to the duration budget before a session is
	// declared expired. It absorbs network latency between "time's up" on
	// the client and its last in-flight write.
	GraceSeconds = 45

	// InactivityThreshold is how long a running session may stay silent
	// before read paths treat it as paused instead of advancing the clock.
	InactivityThreshold = 120 * time.Second
)

// RunClock is a session clock's tagged run state: running since a known
// instant, or paused. It replaces nullable-timestamp juggling in the
// accounting logic while keeping the persisted last_resumed_at semantics.
type RunClock struct {
	running bool
	since   time.Time
}

// Running returns a clock running since the given instant.
func Running(since time.Time) RunClock {
	return RunClock{running: true, since: since}
}

// Stopped returns a paused clock.
func Stopped() RunClock { return RunClock{} }

// ClockFromResumedAt converts the persisted last_resumed_at field into a
// RunClock. Nil means paused.
func ClockFromResumedAt(t *time.Time) RunClock {
	if t == nil {
		return Stopped()
	}
	return Running(*t)
}

// ResumedAt converts back to the persisted representation.
func (c RunClock) ResumedAt() *time.Time {
	if !c.running {
		return nil
	}
	t := c.since
	return &t
}

// IsRunning reports whether the clock is running.
func (c RunClock) IsRunning() bool { return c.running }

// Ledger is a session's active-time bookkeeping snapshot: the committed
// seconds plus the run state of its clock.
type Ledger struct {
	Used  int64
	Clock RunClock
}

// LedgerOf builds a ledger from persisted session fields.
func LedgerOf(lastResumedAt *time.Time, timeUsedSeconds int64) Ledger {
	return Ledger{Used: timeUsedSeconds, Clock: ClockFromResumedAt(lastResumedAt)}
}

// EffectiveUsed returns the seconds that would be on the ledger if the
// clock were stopped at now. The running delta is clamped non-negative to
// tolerate clock skew.
func (l Ledger) EffectiveUsed(now time.Time) int64 {
	if !l.Clock.running {
		return l.Used
	}
	delta := int64(now.Sub(l.Clock.since) / time.Second)
	if delta < 0 {
		delta = 0
	}
	return l.Used + delta
}

// Pause commits the running delta and stops the clock. Pausing an already
// paused ledger leaves the committed seconds unchanged.
func (l Ledger) Pause(now time.Time) Ledger {
	return Ledger{Used: l.EffectiveUsed(now), Clock: Stopped()}
}

// Resume restarts the clock at now. A running ledger commits its elapsed
// delta first, so the time between the old and new resume instants is
// counted exactly once.
func (l Ledger) Resume(now time.Time) Ledger {
	return Ledger{Used: l.EffectiveUsed(now), Clock: Running(now)}
}

// Idle reports whether a running clock has been silent past the
// inactivity threshold. A paused clock is never idle.
func (l Ledger) Idle(now time.Time) bool {
	return l.Clock.running && now.Sub(l.Clock.since) > InactivityThreshold
}

// OverBudget reports whether effectiveUsed exceeds the duration budget
// plus grace. A nil duration means the session has no budget.
func OverBudget(effectiveUsed int64, durationMinutes *int) bool {
	if durationMinutes == nil {
		return false
	}
	return effectiveUsed > int64(*durationMinutes)*60+GraceSeconds
}
