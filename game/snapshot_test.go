package game

import "testing"

func TestSnapshotFormat(t *testing.T) {
	state := FinalState{
		Turn:        12,
		Money:       1234.5,
		Risk:        23.4,
		OutputCount: 3,
		StaffCount:  7,
	}

	want := "v1|turn=12|money=1234.50|risk=23.40|papers=3|staff=7"
	if got := Snapshot(state); got != want {
		t.Errorf("Snapshot = %q, want %q", got, want)
	}
}

func TestSnapshotByteStable(t *testing.T) {
	state := FinalState{Turn: 5, Money: 0.1 + 0.2, Risk: 33.333333, OutputCount: 1, StaffCount: 4}

	first := Snapshot(state)
	for i := 0; i < 100; i++ {
		if got := Snapshot(state); got != first {
			t.Fatalf("snapshot drifted on run %d: %q != %q", i, got, first)
		}
	}
}

func TestSnapshotRoundsBeforeSerializing(t *testing.T) {
	// 0.1+0.2 = 0.30000000000000004 must serialize as 0.30
	state := FinalState{Money: 0.1 + 0.2}
	want := "v1|turn=0|money=0.30|risk=0.00|papers=0|staff=0"
	if got := Snapshot(state); got != want {
		t.Errorf("Snapshot = %q, want %q", got, want)
	}
}

func TestFormatFixedHalfEven(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1.005, "1.00"}, // 1.005 is stored below the tie, rounds down
		{2.675, "2.67"},
		{1.25, "1.25"},
		{0.125, "0.12"}, // exact tie, rounds to even
		{0.375, "0.38"}, // exact tie, rounds to even
		{-0.125, "-0.12"},
		{100.0, "100.00"},
	}

	for _, c := range cases {
		if got := FormatFixed(c.in); got != c.want {
			t.Errorf("FormatFixed(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRoundFixed(t *testing.T) {
	if got := RoundFixed(23.456); got != 23.46 {
		t.Errorf("RoundFixed(23.456) = %v, want 23.46", got)
	}
	if got := RoundFixed(-1.239); got != -1.24 {
		t.Errorf("RoundFixed(-1.239) = %v, want -1.24", got)
	}
}
