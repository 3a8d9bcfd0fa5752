package progress

import (
	"testing"
)

func TestTracker_AdvanceClamps(t *testing.T) {
	tr := NewTracker()
	tr.Reset(32)

	tr.Advance(15)
	tr.Advance(15)
	tr.Advance(15)

	got := tr.Snapshot()
	if got.Completed != 32 || got.Total != 32 {
		t.Errorf("Snapshot() = %+v, want {32 32}", got)
	}
	if !got.Done() {
		t.Error("Done() = false, want true")
	}
}

func TestTracker_IgnoresNonPositive(t *testing.T) {
	tr := NewTracker()
	tr.Reset(10)
	tr.Advance(4)
	tr.Advance(0)
	tr.Advance(-3)

	if got := tr.Snapshot().Completed; got != 4 {
		t.Errorf("Completed = %d, want 4", got)
	}
}

func TestTracker_ListenersSeeMonotonicStates(t *testing.T) {
	tr := NewTracker()
	var seen []State
	tr.Subscribe(func(s State) { seen = append(seen, s) })

	tr.Reset(5)
	tr.Advance(2)
	tr.Advance(2)
	tr.Advance(2)

	if len(seen) != 4 {
		t.Fatalf("listener called %d times, want 4", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i].Completed < seen[i-1].Completed {
			t.Errorf("state %d went backwards: %+v -> %+v", i, seen[i-1], seen[i])
		}
		if seen[i].Completed > seen[i].Total {
			t.Errorf("state %d exceeds total: %+v", i, seen[i])
		}
	}
}

func TestState_Percent(t *testing.T) {
	tests := []struct {
		state State
		want  float64
	}{
		{State{0, 0}, 0},
		{State{1, 4}, 25},
		{State{4, 4}, 100},
	}
	for _, tt := range tests {
		if got := tt.state.Percent(); got != tt.want {
			t.Errorf("%+v.Percent() = %v, want %v", tt.state, got, tt.want)
		}
	}
}
