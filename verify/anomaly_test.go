package verify

import (
	"context"
	"sync"
	"testing"
	"time"
)

/* =========================
   FAKES
========================= */

type fakeHistory struct {
	mu     sync.Mutex
	seeds  map[string][]int64
	flags  []string
	detail []string
}

func (f *fakeHistory) SeedScores(ctx context.Context, seed string) ([]int64, error) {
	return f.seeds[seed], nil
}

func (f *fakeHistory) InsertAnomalyFlag(ctx context.Context, submissionID int64, playerID, kind, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags = append(f.flags, kind)
	f.detail = append(f.detail, detail)
	return nil
}

func (f *fakeHistory) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.flags...)
}

type fakeWindows struct {
	recent map[string][]int64
	pushed []int64
	rate   int64
}

func (f *fakeWindows) RecentScores(ctx context.Context, playerID string) ([]int64, error) {
	return f.recent[playerID], nil
}

func (f *fakeWindows) PushScore(ctx context.Context, playerID string, score int64) error {
	f.pushed = append(f.pushed, score)
	return nil
}

func (f *fakeWindows) IncrSubmissionRate(ctx context.Context, playerID string) (int64, error) {
	f.rate++
	return f.rate, nil
}

/* =========================
   DETECTOR TESTS
========================= */

func accepted(player string, score int64) Accepted {
	return Accepted{
		SubmissionID: 1,
		PlayerID:     player,
		Seed:         "quantum-2024",
		Score:        score,
		SubmittedAt:  time.Now(),
	}
}

func TestReviewScoreOutlier(t *testing.T) {
	history := &fakeHistory{seeds: map[string][]int64{
		"quantum-2024": {1000, 1010, 990, 1005, 995, 1000},
	}}
	detector := NewAnomalyDetector(history, &fakeWindows{recent: map[string][]int64{}})

	detector.review(context.Background(), accepted("p1", 5000))

	if kinds := history.kinds(); len(kinds) != 1 || kinds[0] != FlagScoreOutlier {
		t.Errorf("flags = %v, want [%s]", kinds, FlagScoreOutlier)
	}
}

func TestReviewNoOutlierWithFewSamples(t *testing.T) {
	// Below the sample minimum the z-score is meaningless, no flag
	history := &fakeHistory{seeds: map[string][]int64{
		"quantum-2024": {1000, 1010},
	}}
	detector := NewAnomalyDetector(history, &fakeWindows{recent: map[string][]int64{}})

	detector.review(context.Background(), accepted("p1", 50000))

	if kinds := history.kinds(); len(kinds) != 0 {
		t.Errorf("flags = %v, want none", kinds)
	}
}

func TestReviewImprovementJump(t *testing.T) {
	history := &fakeHistory{seeds: map[string][]int64{}}
	windows := &fakeWindows{recent: map[string][]int64{
		"p1": {1000, 1100, 900},
	}}
	detector := NewAnomalyDetector(history, windows)

	detector.review(context.Background(), accepted("p1", 9000))

	if kinds := history.kinds(); len(kinds) != 1 || kinds[0] != FlagImprovementJump {
		t.Errorf("flags = %v, want [%s]", kinds, FlagImprovementJump)
	}
	if len(windows.pushed) != 1 || windows.pushed[0] != 9000 {
		t.Errorf("pushed scores = %v, want [9000]", windows.pushed)
	}
}

func TestReviewSteadyImprovementNotFlagged(t *testing.T) {
	history := &fakeHistory{seeds: map[string][]int64{}}
	windows := &fakeWindows{recent: map[string][]int64{
		"p1": {1000, 1100, 900},
	}}
	detector := NewAnomalyDetector(history, windows)

	detector.review(context.Background(), accepted("p1", 1500))

	if kinds := history.kinds(); len(kinds) != 0 {
		t.Errorf("flags = %v, want none", kinds)
	}
}

func TestReviewRateAbuse(t *testing.T) {
	history := &fakeHistory{seeds: map[string][]int64{}}
	windows := &fakeWindows{recent: map[string][]int64{}, rate: 10}
	detector := NewAnomalyDetector(history, windows)

	detector.review(context.Background(), accepted("p1", 1000))

	if kinds := history.kinds(); len(kinds) != 1 || kinds[0] != FlagRateAbuse {
		t.Errorf("flags = %v, want [%s]", kinds, FlagRateAbuse)
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	detector := NewAnomalyDetector(&fakeHistory{seeds: map[string][]int64{}}, &fakeWindows{recent: map[string][]int64{}})

	// No consumer running: fill the queue past capacity, calls must return
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			detector.Enqueue(accepted("p1", int64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestZScore(t *testing.T) {
	population := []int64{10, 10, 10, 10}
	if z := zScore(10, population); z != 0 {
		t.Errorf("zScore on zero-variance population = %v, want 0", z)
	}

	population = []int64{8, 12, 8, 12}
	if z := zScore(14, population); z != 2 {
		t.Errorf("zScore = %v, want 2", z)
	}
}
