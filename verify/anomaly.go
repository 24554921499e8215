package verify

import (
	"context"
	"fmt"
	"log"
	"math"

	"labVerifyServer/config"
)

/* =========================
   ANOMALY DETECTOR
========================= */

// HistoryStore reads historical scores and persists review flags.
// db.VerifyStore implements it on Postgres.
type HistoryStore interface {
	// SeedScores returns all accepted scores for a seed
	SeedScores(ctx context.Context, seed string) ([]int64, error)
	// InsertAnomalyFlag appends an advisory flag to the review queue
	InsertAnomalyFlag(ctx context.Context, submissionID int64, playerID, kind, detail string) error
}

// WindowStore keeps per-player rolling windows. db's Redis layer
// implements it.
type WindowStore interface {
	// RecentScores returns the player's recent accepted scores, newest first
	RecentScores(ctx context.Context, playerID string) ([]int64, error)
	// PushScore records a new accepted score in the rolling window
	PushScore(ctx context.Context, playerID string, score int64) error
	// IncrSubmissionRate bumps and returns the player's submission count
	// in the current rate window
	IncrSubmissionRate(ctx context.Context, playerID string) (int64, error)
}

// AnomalyDetector reviews accepted submissions off the acceptance path.
// It only ever produces advisory flags for human review; it never blocks
// and never reverses an acceptance.
type AnomalyDetector struct {
	history HistoryStore
	windows WindowStore
	queue   chan Accepted
}

func NewAnomalyDetector(history HistoryStore, windows WindowStore) *AnomalyDetector {
	return &AnomalyDetector{
		history: history,
		windows: windows,
		queue:   make(chan Accepted, config.AnomalyQueueSize),
	}
}

// Enqueue hands an accepted submission to the detector. Never blocks:
// if the review queue is full the submission is skipped, acceptance
// already happened and review is best-effort.
func (d *AnomalyDetector) Enqueue(sub Accepted) {
	select {
	case d.queue <- sub:
	default:
		log.Printf("⚠️  Anomaly queue full, skipping review of submission %d", sub.SubmissionID)
	}
}

// Start runs the review loop until ctx is cancelled.
func (d *AnomalyDetector) Start(ctx context.Context) {
	go func() {
		log.Println("🔍 Anomaly detector started")
		for {
			select {
			case <-ctx.Done():
				log.Println("🔍 Anomaly detector stopped")
				return
			case sub := <-d.queue:
				d.review(ctx, sub)
			}
		}
	}()
}

// review computes all checks for one submission and persists any flags.
// Errors are logged and swallowed: review must never propagate failure.
func (d *AnomalyDetector) review(ctx context.Context, sub Accepted) {
	// (a) z-score against the same-seed distribution
	if scores, err := d.history.SeedScores(ctx, sub.Seed); err != nil {
		log.Printf("⚠️  Anomaly review: failed to load seed scores: %v", err)
	} else if len(scores) >= config.AnomalyMinSeedSamples {
		if z := zScore(sub.Score, scores); z > config.AnomalyZScoreThreshold {
			d.flag(ctx, sub, FlagScoreOutlier,
				fmt.Sprintf("z-score %.2f over %d same-seed submissions", z, len(scores)))
		}
	}

	// (b) sudden jump over the player's recent average
	if recent, err := d.windows.RecentScores(ctx, sub.PlayerID); err != nil {
		log.Printf("⚠️  Anomaly review: failed to load recent scores: %v", err)
	} else if len(recent) >= config.AnomalyMinJumpSamples {
		avg := mean(recent)
		if avg > 0 && float64(sub.Score) > avg*config.AnomalyJumpRatio {
			d.flag(ctx, sub, FlagImprovementJump,
				fmt.Sprintf("score %d is %.1fx the recent average %.0f", sub.Score, float64(sub.Score)/avg, avg))
		}
	}
	if err := d.windows.PushScore(ctx, sub.PlayerID, sub.Score); err != nil {
		log.Printf("⚠️  Anomaly review: failed to push score window: %v", err)
	}

	// (c) submission-rate abuse
	if count, err := d.windows.IncrSubmissionRate(ctx, sub.PlayerID); err != nil {
		log.Printf("⚠️  Anomaly review: failed to bump rate counter: %v", err)
	} else if count > config.AnomalyRateLimit {
		d.flag(ctx, sub, FlagRateAbuse,
			fmt.Sprintf("%d submissions within %s", count, config.AnomalyRateWindow))
	}
}

func (d *AnomalyDetector) flag(ctx context.Context, sub Accepted, kind, detail string) {
	log.Printf("🚩 Anomaly flag [%s] submission %d player %s: %s", kind, sub.SubmissionID, sub.PlayerID, detail)
	if err := d.history.InsertAnomalyFlag(ctx, sub.SubmissionID, sub.PlayerID, kind, detail); err != nil {
		log.Printf("⚠️  Failed to persist anomaly flag: %v", err)
	}
}

func mean(scores []int64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += float64(s)
	}
	return sum / float64(len(scores))
}

func zScore(score int64, population []int64) float64 {
	avg := mean(population)
	variance := 0.0
	for _, s := range population {
		diff := float64(s) - avg
		variance += diff * diff
	}
	variance /= float64(len(population))
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	return (float64(score) - avg) / stddev
}
