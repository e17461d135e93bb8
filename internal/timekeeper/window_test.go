package timekeeper

import (
	"testing"
	"time"

	"github.com/stemsi/lentera-backend/internal/model"
)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrInt(n int) *int              { return &n }

func TestEvaluateWindow(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		in   WindowInputs
		want WindowState
	}{
		{
			name: "start time in future",
			now:  base.Add(-time.Second),
			in:   WindowInputs{StartTime: ptrTime(base), Status: model.AssignmentStatusPublished},
			want: WindowNotStarted,
		},
		{
			name: "start time exactly now is active",
			now:  base,
			in:   WindowInputs{StartTime: ptrTime(base), Status: model.AssignmentStatusPublished},
			want: WindowActive,
		},
		{
			name: "no start time is immediately available",
			now:  base,
			in:   WindowInputs{Status: model.AssignmentStatusPublished},
			want: WindowActive,
		},
		{
			name: "deadline exactly now is still active",
			now:  base,
			in:   WindowInputs{Deadline: ptrTime(base), Status: model.AssignmentStatusPublished},
			want: WindowActive,
		},
		{
			name: "past deadline ends the window",
			now:  base.Add(time.Second),
			in:   WindowInputs{Deadline: ptrTime(base), Status: model.AssignmentStatusPublished},
			want: WindowEnded,
		},
		{
			name: "deadline overrides graded status while open",
			now:  base,
			in:   WindowInputs{Deadline: ptrTime(base.Add(time.Hour)), Status: model.AssignmentStatusGraded},
			want: WindowActive,
		},
		{
			name: "no deadline and graded is ended",
			now:  base,
			in:   WindowInputs{Status: model.AssignmentStatusGraded},
			want: WindowEnded,
		},
		{
			name: "no deadline and published stays active",
			now:  base,
			in:   WindowInputs{Status: model.AssignmentStatusPublished},
			want: WindowActive,
		},
		{
			name: "duration alone never ends the window",
			now:  base.Add(100 * time.Hour),
			in:   WindowInputs{StartTime: ptrTime(base), DurationMinutes: ptrInt(10), Status: model.AssignmentStatusPublished},
			want: WindowActive,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateWindow(tc.now, tc.in); got != tc.want {
				t.Errorf("EvaluateWindow() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestWindowInputsFor(t *testing.T) {
	deadline := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	a := &model.Assignment{
		StartTime:       nil,
		DurationMinutes: ptrInt(30),
		Deadline:        &deadline,
		Status:          model.AssignmentStatusPublished,
	}

	in := WindowInputsFor(a)
	if in.StartTime != nil {
		t.Error("expected nil start time")
	}
	if in.DurationMinutes == nil || *in.DurationMinutes != 30 {
		t.Error("duration not carried over")
	}
	if in.Deadline == nil || !in.Deadline.Equal(deadline) {
		t.Error("deadline not carried over")
	}
	if in.Status != model.AssignmentStatusPublished {
		t.Error("status not carried over")
	}
}
