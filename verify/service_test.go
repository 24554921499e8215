package verify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"labVerifyServer/game"
)

/* =========================
   IN-MEMORY STORE FAKE
========================= */

type storedSubmission struct {
	req        Request
	isOriginal bool
}

type memDuplicate struct {
	submissionID int64
	delta        float64
}

// memStore mimics the Postgres registry semantics, including the atomic
// insert-or-fetch on the hash entry.
type memStore struct {
	mu          sync.Mutex
	nextID      int64
	submissions map[int64]*storedSubmission
	entries     map[string]*HashEntry
	duplicates  map[string][]memDuplicate
}

func newMemStore() *memStore {
	return &memStore{
		submissions: make(map[int64]*storedSubmission),
		entries:     make(map[string]*HashEntry),
		duplicates:  make(map[string][]memDuplicate),
	}
}

func (m *memStore) InsertSubmission(ctx context.Context, req *Request) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.submissions[m.nextID] = &storedSubmission{req: *req, isOriginal: true}
	return m.nextID, nil
}

func (m *memStore) GetOrCreateHashEntry(ctx context.Context, req *Request, submissionID int64) (*HashEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.entries[req.VerificationHash]; ok {
		existing.DuplicateCount++
		m.duplicates[req.VerificationHash] = append(m.duplicates[req.VerificationHash], memDuplicate{
			submissionID: submissionID,
			delta:        req.SubmittedAt.Sub(existing.FirstSubmittedAt).Seconds(),
		})
		copied := *existing
		return &copied, false, nil
	}

	entry := &HashEntry{
		HashID:            int64(len(m.entries) + 1),
		VerificationHash:  req.VerificationHash,
		FirstSubmissionID: submissionID,
		FirstSubmittedBy:  req.PlayerID,
		FirstSubmittedAt:  req.SubmittedAt,
		Seed:              req.Seed,
	}
	m.entries[req.VerificationHash] = entry
	copied := *entry
	return &copied, true, nil
}

func (m *memStore) MarkDuplicate(ctx context.Context, submissionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[submissionID].isOriginal = false
	return nil
}

func (m *memStore) ScoreRank(ctx context.Context, score int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rank := 1
	for _, sub := range m.submissions {
		if sub.req.Score > score {
			rank++
		}
	}
	return rank, nil
}

/* =========================
   PIPELINE TESTS
========================= */

func validRequest(player string, at time.Time) *Request {
	state := game.FinalState{Turn: 30, Money: 1234.5, Risk: 20, OutputCount: 3, StaffCount: 7}
	chain := game.NewSessionChain("quantum-2024")
	chain.RecordAction(game.Snapshot(state))
	return &Request{
		PlayerID:         player,
		Seed:             "quantum-2024",
		Score:            game.Score(state),
		VerificationHash: chain.Finalize(),
		FinalState:       state,
		SubmittedAt:      at,
	}
}

func TestProcessAccepted(t *testing.T) {
	service := NewService(newMemStore())
	req := validRequest("p1", time.Now())

	result, err := service.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.Status != "accepted" {
		t.Errorf("status = %q, want accepted", result.Status)
	}
	if !result.Verified || !result.IsOriginal {
		t.Errorf("verified=%v original=%v, want both true", result.Verified, result.IsOriginal)
	}
	if result.Rank == nil || *result.Rank != 1 {
		t.Errorf("rank = %v, want 1", result.Rank)
	}
	if result.Reason != nil {
		t.Errorf("reason = %q, want nil", *result.Reason)
	}
}

func TestProcessMalformedHash(t *testing.T) {
	service := NewService(newMemStore())

	for _, hash := range []string{
		"",
		"zzzz",
		strings.Repeat("a", 63),
		strings.Repeat("a", 65),
		strings.ToUpper(strings.Repeat("ab", 32)),
		strings.Repeat("a", 63) + "g",
	} {
		req := validRequest("p1", time.Now())
		req.VerificationHash = hash

		result, err := service.Process(context.Background(), req)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if result.Status != "rejected" || result.Reason == nil || *result.Reason != ReasonMalformedHash {
			t.Errorf("hash %q: got %+v, want MalformedHash rejection", hash, result)
		}
	}
}

func TestProcessImplausibleState(t *testing.T) {
	service := NewService(newMemStore())

	cases := []func(*game.FinalState){
		func(s *game.FinalState) { s.Risk = 150 },
		func(s *game.FinalState) { s.Risk = -1 },
		func(s *game.FinalState) { s.Turn = -1 },
		func(s *game.FinalState) { s.Turn = 20000 },
		func(s *game.FinalState) { s.OutputCount = -3 },
		func(s *game.FinalState) { s.StaffCount = 2000000 },
		func(s *game.FinalState) { s.Money = 2e9 },
	}

	for i, mutate := range cases {
		req := validRequest("p1", time.Now())
		mutate(&req.FinalState)

		result, err := service.Process(context.Background(), req)
		if err != nil {
			t.Fatalf("case %d: Process failed: %v", i, err)
		}
		if result.Status != "rejected" || result.Reason == nil || *result.Reason != ReasonImplausibleState {
			t.Errorf("case %d: got %+v, want ImplausibleState rejection", i, result)
		}
	}
}

func TestProcessScoreMismatch(t *testing.T) {
	service := NewService(newMemStore())

	req := validRequest("p1", time.Now())
	req.Score += 2 // beyond the one-point tolerance

	result, err := service.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Status != "rejected" || result.Reason == nil || *result.Reason != ReasonScoreMismatch {
		t.Errorf("got %+v, want ScoreMismatch rejection", result)
	}
}

func TestProcessScoreWithinTolerance(t *testing.T) {
	service := NewService(newMemStore())

	req := validRequest("p1", time.Now())
	req.Score++ // off by one is allowed

	result, err := service.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.Status != "accepted" {
		t.Errorf("status = %q, want accepted", result.Status)
	}
	// The server-side recomputation is authoritative
	if result.Score != req.Score-1 {
		t.Errorf("score = %d, want recomputed %d", result.Score, req.Score-1)
	}
}

func TestProcessDuplicateResolution(t *testing.T) {
	store := newMemStore()
	service := NewService(store)

	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	first, err := service.Process(context.Background(), validRequest("P1", t0))
	if err != nil {
		t.Fatalf("first Process failed: %v", err)
	}
	second, err := service.Process(context.Background(), validRequest("P2", t0.Add(5*time.Second)))
	if err != nil {
		t.Fatalf("second Process failed: %v", err)
	}

	if !first.IsOriginal {
		t.Error("first submission not marked original")
	}
	if second.Status != "accepted" {
		t.Errorf("duplicate status = %q, want accepted", second.Status)
	}
	if second.IsOriginal {
		t.Error("duplicate submission marked original")
	}

	hash := validRequest("P1", t0).VerificationHash
	entry := store.entries[hash]
	if entry.FirstSubmittedBy != "P1" {
		t.Errorf("first_submitted_by = %q, want P1", entry.FirstSubmittedBy)
	}
	if entry.DuplicateCount != 1 {
		t.Errorf("duplicate_count = %d, want 1", entry.DuplicateCount)
	}

	dups := store.duplicates[hash]
	if len(dups) != 1 {
		t.Fatalf("duplicate records = %d, want 1", len(dups))
	}
	if dups[0].delta != 5 {
		t.Errorf("time_delta_seconds = %v, want 5", dups[0].delta)
	}

	if !store.submissions[1].isOriginal {
		t.Error("first stored submission flipped to duplicate")
	}
	if store.submissions[2].isOriginal {
		t.Error("second stored submission still marked original")
	}
}

// Many identical hashes racing in: exactly one winner, everyone accepted.
func TestProcessConcurrentDuplicates(t *testing.T) {
	store := newMemStore()
	service := NewService(store)

	const racers = 16
	results := make([]*Result, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := service.Process(context.Background(), validRequest("racer", time.Now()))
			if err != nil {
				t.Errorf("racer %d failed: %v", i, err)
				return
			}
			results[i] = result
		}(i)
	}
	wg.Wait()

	originals := 0
	for i, result := range results {
		if result == nil {
			t.Fatalf("racer %d has no result", i)
		}
		if result.Status != "accepted" {
			t.Errorf("racer %d status = %q", i, result.Status)
		}
		if result.IsOriginal {
			originals++
		}
	}
	if originals != 1 {
		t.Errorf("got %d originals, want exactly 1", originals)
	}
}

func TestOnAcceptedHook(t *testing.T) {
	service := NewService(newMemStore())

	var got []Accepted
	service.OnAccepted(func(sub Accepted) { got = append(got, sub) })

	// Rejected submission must not fire the hook
	bad := validRequest("p1", time.Now())
	bad.FinalState.Risk = 150
	service.Process(context.Background(), bad)
	if len(got) != 0 {
		t.Fatalf("hook fired on rejection")
	}

	service.Process(context.Background(), validRequest("p1", time.Now()))
	if len(got) != 1 {
		t.Fatalf("hook fired %d times, want 1", len(got))
	}
	if got[0].PlayerID != "p1" || !got[0].IsOriginal {
		t.Errorf("unexpected accepted payload: %+v", got[0])
	}
}
