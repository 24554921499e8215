package game

import "testing"

func TestScoreFormula(t *testing.T) {
	state := FinalState{
		Turn:        30,
		Money:       1234.5,
		Risk:        20,
		OutputCount: 3,
		StaffCount:  7,
	}

	// 3*1000 + 7*100 + 1234.50 - 20*25 = 4434.5 -> 4434 (half to even)
	if got := Score(state); got != 4434 {
		t.Errorf("Score = %d, want 4434", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	state := FinalState{Money: 0.1 + 0.2, Risk: 33.335, OutputCount: 2, StaffCount: 5}
	first := Score(state)
	for i := 0; i < 100; i++ {
		if got := Score(state); got != first {
			t.Fatalf("score drifted: %d != %d", got, first)
		}
	}
}

func TestScoreZeroState(t *testing.T) {
	if got := Score(FinalState{}); got != 0 {
		t.Errorf("Score of zero state = %d, want 0", got)
	}
}

func TestPackageSubmission(t *testing.T) {
	chain := NewSessionChain("quantum-2024")
	state := FinalState{Turn: 3, Money: 1100, Risk: 1.2, OutputCount: 1, StaffCount: 3}
	chain.RecordAction(Snapshot(state))

	sub := PackageSubmission(chain, state, "p1")

	if sub.Seed != "quantum-2024" {
		t.Errorf("seed = %q", sub.Seed)
	}
	if sub.PlayerID != "p1" {
		t.Errorf("player = %q", sub.PlayerID)
	}
	if sub.Score != Score(state) {
		t.Errorf("score = %d, want %d", sub.Score, Score(state))
	}
	if sub.VerificationHash != chain.Current() {
		t.Errorf("hash = %s, want %s", sub.VerificationHash, chain.Current())
	}
	// Packaging finalizes the chain
	if err := chain.Record(EventAction, "late"); err != ErrChainFinalized {
		t.Errorf("chain still writable after packaging: %v", err)
	}
}
