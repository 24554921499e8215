package verify

import (
	"context"
	"fmt"
	"log"
	"time"

	"labVerifyServer/config"
	"labVerifyServer/crypto"
	"labVerifyServer/game"
)

/* =========================
   SUBMISSION PIPELINE TYPES
========================= */

// Stages of the per-submission state machine
const (
	StageReceived  = "RECEIVED"
	StageFormatOK  = "FORMAT_OK"
	StagePlausible = "PLAUSIBLE"
	StageScoreOK   = "SCORE_OK"
	StageResolved  = "RESOLVED"
)

// Request is one submission entering the pipeline. PlayerID is an
// opaque label resolved by the external auth collaborator; it is
// treated as untrusted-but-authenticated and never validated here.
type Request struct {
	PlayerID         string
	Seed             string
	Score            int64
	VerificationHash string
	FinalState       game.FinalState
	SubmittedAt      time.Time
}

// Result is the verification verdict for one submission
type Result struct {
	Status     string  `json:"status"` // accepted | rejected
	Score      int64   `json:"score"`
	Rank       *int    `json:"rank"`
	Verified   bool    `json:"verified"`
	IsOriginal bool    `json:"is_original"`
	Reason     *string `json:"reason"`
}

// HashEntry mirrors one verification_hashes row
type HashEntry struct {
	HashID            int64
	VerificationHash  string
	FirstSubmissionID int64
	FirstSubmittedBy  string
	FirstSubmittedAt  time.Time
	Seed              string
	DuplicateCount    int64
}

// Accepted describes a submission that cleared the pipeline; handed to
// the anomaly detector and the live feed, both off the acceptance path.
type Accepted struct {
	SubmissionID     int64     `json:"submissionId"`
	PlayerID         string    `json:"playerId"`
	Seed             string    `json:"seed"`
	Score            int64     `json:"score"`
	VerificationHash string    `json:"verificationHash"`
	IsOriginal       bool      `json:"isOriginal"`
	Rank             int       `json:"rank"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

// Store is the persistence surface the pipeline needs. db.VerifyStore
// implements it on Postgres.
type Store interface {
	// InsertSubmission persists an accepted submission and returns its id
	InsertSubmission(ctx context.Context, req *Request) (int64, error)
	// GetOrCreateHashEntry atomically claims the hash for this submission
	// or, on a uniqueness conflict, increments the existing entry's
	// duplicate count and appends a duplicate record. Never a separate
	// read followed by a separate write.
	GetOrCreateHashEntry(ctx context.Context, req *Request, submissionID int64) (*HashEntry, bool, error)
	// MarkDuplicate flags a stored submission as non-original
	MarkDuplicate(ctx context.Context, submissionID int64) error
	// ScoreRank returns the 1-based leaderboard rank for a score
	ScoreRank(ctx context.Context, score int64) (int, error)
}

/* =========================
   VERIFICATION SERVICE
========================= */

// Service runs submissions through format -> plausibility -> score ->
// duplicate resolution. Each submission is independent: a bad one is
// rejected and logged, never affecting any other.
type Service struct {
	store      Store
	onAccepted func(Accepted)
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// OnAccepted registers a hook invoked after acceptance. The hook must
// not block; it runs on the request path but only after the verdict is
// already decided.
func (s *Service) OnAccepted(fn func(Accepted)) {
	s.onAccepted = fn
}

// Process resolves one submission to accepted/duplicate/rejected.
// A non-nil error means infrastructure failure, not a verdict.
func (s *Service) Process(ctx context.Context, req *Request) (*Result, error) {
	stage := StageReceived

	// 1. Format check
	if !crypto.IsHashHex(req.VerificationHash) {
		log.Printf("🚫 Rejected at %s - player %s: malformed hash %q", stage, req.PlayerID, req.VerificationHash)
		return rejected(req.Score, ReasonMalformedHash), nil
	}
	stage = StageFormatOK

	// 2. Plausibility check (wide bounds, audit-logged)
	if detail := implausible(req.FinalState); detail != "" {
		log.Printf("🚫 AUDIT: rejected at %s - player %s seed %s: %s", stage, req.PlayerID, req.Seed, detail)
		return rejected(req.Score, ReasonImplausibleState), nil
	}
	stage = StagePlausible

	// 3. Score recomputation (server result is authoritative)
	recomputed := game.Score(req.FinalState)
	if diff := req.Score - recomputed; diff > config.ScoreTolerance || diff < -config.ScoreTolerance {
		log.Printf("🚫 Rejected at %s - player %s: submitted score %d, recomputed %d", stage, req.PlayerID, req.Score, recomputed)
		return rejected(req.Score, ReasonScoreMismatch), nil
	}
	stage = StageScoreOK

	// 4. Persist, then resolve originality against the registry
	submissionID, err := s.store.InsertSubmission(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	entry, isNew, err := s.store.GetOrCreateHashEntry(ctx, req, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hash registry entry: %w", err)
	}
	if !isNew {
		// Duplicate hashes are a feature (reproducible optimal play),
		// accepted onto the leaderboard but marked as non-original.
		if err := s.store.MarkDuplicate(ctx, submissionID); err != nil {
			return nil, fmt.Errorf("failed to mark duplicate submission: %w", err)
		}
		log.Printf("♻️  Duplicate hash %s - first seen from %s at %s (now %d duplicates)",
			req.VerificationHash, entry.FirstSubmittedBy, entry.FirstSubmittedAt.Format(time.RFC3339), entry.DuplicateCount)
	}

	rank, err := s.store.ScoreRank(ctx, recomputed)
	if err != nil {
		return nil, fmt.Errorf("failed to compute rank: %w", err)
	}
	stage = StageResolved

	accepted := Accepted{
		SubmissionID:     submissionID,
		PlayerID:         req.PlayerID,
		Seed:             req.Seed,
		Score:            recomputed,
		VerificationHash: req.VerificationHash,
		IsOriginal:       isNew,
		Rank:             rank,
		SubmittedAt:      req.SubmittedAt,
	}
	if s.onAccepted != nil {
		s.onAccepted(accepted)
	}

	log.Printf("✅ %s - player %s, score %d, rank %d, original=%v", stage, req.PlayerID, recomputed, rank, isNew)

	return &Result{
		Status:     "accepted",
		Score:      recomputed,
		Rank:       &rank,
		Verified:   true,
		IsOriginal: isNew,
	}, nil
}

// implausible returns a non-empty description when a field is outside
// its domain bounds.
func implausible(state game.FinalState) string {
	switch {
	case state.Turn < 0 || state.Turn > config.MaxTurns:
		return fmt.Sprintf("turn %d outside [0, %d]", state.Turn, config.MaxTurns)
	case state.Money < config.MinMoney || state.Money > config.MaxMoney:
		return fmt.Sprintf("money %.2f outside [%.0f, %.0f]", state.Money, config.MinMoney, config.MaxMoney)
	case state.Risk < config.MinRisk || state.Risk > config.MaxRisk:
		return fmt.Sprintf("risk %.2f outside [%.0f, %.0f]", state.Risk, config.MinRisk, config.MaxRisk)
	case state.OutputCount < 0 || state.OutputCount > config.MaxOutputCount:
		return fmt.Sprintf("output count %d outside [0, %d]", state.OutputCount, config.MaxOutputCount)
	case state.StaffCount < 0 || state.StaffCount > config.MaxStaffCount:
		return fmt.Sprintf("staff count %d outside [0, %d]", state.StaffCount, config.MaxStaffCount)
	}
	return ""
}

func rejected(score int64, reason string) *Result {
	return &Result{
		Status: "rejected",
		Score:  score,
		Reason: &reason,
	}
}
