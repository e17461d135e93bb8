package timekeeper

import (
	"math/rand"
	"testing"
	"time"
)

func TestEffectiveUsed(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		ledger Ledger
		now    time.Time
		want   int64
	}{
		{
			name:   "paused ledger returns committed value",
			ledger: Ledger{Used: 300, Clock: Stopped()},
			now:    base,
			want:   300,
		},
		{
			name:   "running ledger adds elapsed delta",
			ledger: Ledger{Used: 300, Clock: Running(base)},
			now:    base.Add(45 * time.Second),
			want:   345,
		},
		{
			name:   "clock skew clamps delta to zero",
			ledger: Ledger{Used: 300, Clock: Running(base.Add(time.Minute))},
			now:    base,
			want:   300,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.ledger.EffectiveUsed(tc.now); got != tc.want {
				t.Errorf("EffectiveUsed() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestOverBudget(t *testing.T) {
	tests := []struct {
		name     string
		used     int64
		duration *int
		want     bool
	}{
		{"no budget never expires", 999999, nil, false},
		{"exactly budget plus grace is within", 645, ptrInt(10), false},
		{"one second past grace is over", 646, ptrInt(10), true},
		{"well under budget", 10, ptrInt(10), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := OverBudget(tc.used, tc.duration); got != tc.want {
				t.Errorf("OverBudget(%d) = %t, want %t", tc.used, got, tc.want)
			}
		})
	}
}

func TestPauseCommitsOnce(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	l := Ledger{Used: 100, Clock: Running(base)}
	paused := l.Pause(base.Add(50 * time.Second))

	if paused.Used != 150 {
		t.Fatalf("first pause committed %d, want 150", paused.Used)
	}
	if paused.Clock.IsRunning() {
		t.Fatal("pause left the clock running")
	}

	// A second pause without an intervening resume must not move the ledger.
	again := paused.Pause(base.Add(500 * time.Second))
	if again.Used != 150 {
		t.Errorf("double pause changed ledger to %d, want 150", again.Used)
	}
}

func TestResume(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	t.Run("paused ledger keeps baseline", func(t *testing.T) {
		l := Ledger{Used: 200, Clock: Stopped()}
		r := l.Resume(base)
		if r.Used != 200 {
			t.Errorf("resume changed committed seconds to %d", r.Used)
		}
		if at := r.Clock.ResumedAt(); at == nil || !at.Equal(base) {
			t.Error("resume did not start the clock at now")
		}
	})

	t.Run("running ledger counts the gap exactly once", func(t *testing.T) {
		l := Ledger{Used: 200, Clock: Running(base)}
		r := l.Resume(base.Add(30 * time.Second))
		if r.Used != 230 {
			t.Errorf("resume committed %d, want 230", r.Used)
		}
		// A later pause must only add time since the new resume instant.
		p := r.Pause(base.Add(40 * time.Second))
		if p.Used != 240 {
			t.Errorf("pause after resume committed %d, want 240", p.Used)
		}
	})
}

func TestIdle(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	l := Ledger{Clock: Running(base)}
	if l.Idle(base.Add(InactivityThreshold)) {
		t.Error("exactly at threshold should not be idle")
	}
	if !l.Idle(base.Add(InactivityThreshold + time.Second)) {
		t.Error("past threshold should be idle")
	}

	paused := Ledger{Clock: Stopped()}
	if paused.Idle(base.Add(time.Hour)) {
		t.Error("paused ledger can never be idle")
	}
}

// TestMonotonicity drives random pause/resume sequences forward in time and
// asserts the committed ledger never decreases.
func TestMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	for run := 0; run < 100; run++ {
		l := Ledger{Clock: Running(base)}
		now := base
		prev := int64(0)

		for step := 0; step < 50; step++ {
			now = now.Add(time.Duration(rng.Intn(300)) * time.Second)

			switch rng.Intn(3) {
			case 0:
				l = l.Pause(now)
			case 1:
				l = l.Resume(now)
			case 2:
				// Observation only.
			}

			if eff := l.EffectiveUsed(now); eff < prev {
				t.Fatalf("run %d step %d: effective used went from %d to %d", run, step, prev, eff)
			} else {
				prev = eff
			}
			if l.Used > l.EffectiveUsed(now) {
				t.Fatalf("committed %d exceeds effective %d", l.Used, l.EffectiveUsed(now))
			}
		}
	}
}
