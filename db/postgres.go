package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"labVerifyServer/config"
	"labVerifyServer/verify"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// PostgresPool is the global PostgreSQL connection pool
	PostgresPool *pgxpool.Pool
)

// LeaderboardEntry represents one ranked accepted submission
type LeaderboardEntry struct {
	Rank             int       `json:"rank"`
	PlayerID         string    `json:"playerId"`
	Seed             string    `json:"seed"`
	Score            int64     `json:"score"`
	VerificationHash string    `json:"verificationHash"`
	IsOriginal       bool      `json:"isOriginal"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

// DuplicateRecord represents one hash_duplicates row
type DuplicateRecord struct {
	DuplicateID      int64     `json:"duplicateId"`
	SubmissionID     int64     `json:"submissionId"`
	SubmittedAt      time.Time `json:"submittedAt"`
	TimeDeltaSeconds float64   `json:"timeDeltaSeconds"`
}

// InitPostgres initializes the PostgreSQL connection pool
func InitPostgres() error {
	log.Println("🔌 Connecting to PostgreSQL...")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = config.MaxOpenConns
	poolConfig.MinConns = config.MinOpenConns
	poolConfig.MaxConnLifetime = config.ConnMaxLifetime

	PostgresPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := PostgresPool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ PostgreSQL connected successfully")

	if err := InitSchema(context.Background()); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// ClosePostgres closes the PostgreSQL connection pool
func ClosePostgres() {
	if PostgresPool != nil {
		log.Println("🔌 Closing PostgreSQL connection...")
		PostgresPool.Close()
	}
}

// InitSchema creates the database tables if they don't exist
func InitSchema(ctx context.Context) error {
	log.Println("📋 Initializing database schema...")

	submissionsSchema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id BIGSERIAL PRIMARY KEY,
		player_id TEXT NOT NULL,
		seed TEXT NOT NULL,
		score BIGINT NOT NULL,
		verification_hash TEXT NOT NULL,
		final_state JSONB NOT NULL,
		is_original BOOLEAN NOT NULL DEFAULT TRUE,
		submitted_at TIMESTAMPTZ NOT NULL
	);

	-- Index on score for leaderboard ordering
	CREATE INDEX IF NOT EXISTS idx_submissions_score ON submissions(score DESC);

	-- Index on player_id for player history
	CREATE INDEX IF NOT EXISTS idx_submissions_player ON submissions(player_id);

	-- Index on seed for per-seed score distributions
	CREATE INDEX IF NOT EXISTS idx_submissions_seed ON submissions(seed);
	`

	if _, err := PostgresPool.Exec(ctx, submissionsSchema); err != nil {
		return fmt.Errorf("failed to create submissions table: %w", err)
	}

	// The UNIQUE constraint on verification_hash is what makes
	// first-writer-wins atomic; originality is never decided by a
	// read-then-write check.
	hashesSchema := `
	CREATE TABLE IF NOT EXISTS verification_hashes (
		hash_id BIGSERIAL PRIMARY KEY,
		verification_hash TEXT NOT NULL UNIQUE,
		first_submission_id BIGINT NOT NULL,
		first_submitted_by TEXT NOT NULL,
		first_submitted_at TIMESTAMPTZ NOT NULL,
		seed TEXT NOT NULL,
		duplicate_count BIGINT NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_verification_hashes_seed ON verification_hashes(seed);
	`

	if _, err := PostgresPool.Exec(ctx, hashesSchema); err != nil {
		return fmt.Errorf("failed to create verification_hashes table: %w", err)
	}

	duplicatesSchema := `
	CREATE TABLE IF NOT EXISTS hash_duplicates (
		duplicate_id BIGSERIAL PRIMARY KEY,
		hash_id BIGINT NOT NULL REFERENCES verification_hashes(hash_id),
		submission_id BIGINT NOT NULL,
		submitted_at TIMESTAMPTZ NOT NULL,
		time_delta_seconds DOUBLE PRECISION NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_hash_duplicates_hash ON hash_duplicates(hash_id);
	`

	if _, err := PostgresPool.Exec(ctx, duplicatesSchema); err != nil {
		return fmt.Errorf("failed to create hash_duplicates table: %w", err)
	}

	anomalySchema := `
	CREATE TABLE IF NOT EXISTS anomaly_flags (
		flag_id BIGSERIAL PRIMARY KEY,
		submission_id BIGINT NOT NULL,
		player_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		detail TEXT NOT NULL,
		flagged_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_anomaly_flags_player ON anomaly_flags(player_id);
	`

	if _, err := PostgresPool.Exec(ctx, anomalySchema); err != nil {
		return fmt.Errorf("failed to create anomaly_flags table: %w", err)
	}

	log.Println("✅ Database schema initialized")
	return nil
}

/* =========================
   VERIFY STORE
========================= */

// VerifyStore implements verify.Store and verify.HistoryStore on the
// global PostgreSQL pool.
type VerifyStore struct{}

// InsertSubmission persists an accepted submission and returns its id
func (VerifyStore) InsertSubmission(ctx context.Context, req *verify.Request) (int64, error) {
	if PostgresPool == nil {
		return 0, fmt.Errorf("PostgreSQL connection pool not initialized")
	}

	stateJSON, err := json.Marshal(req.FinalState)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal final state: %w", err)
	}

	query := `
		INSERT INTO submissions
		(player_id, seed, score, verification_hash, final_state, is_original, submitted_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6)
		RETURNING id
	`

	var id int64
	err = PostgresPool.QueryRow(
		ctx,
		query,
		req.PlayerID,
		req.Seed,
		req.Score,
		req.VerificationHash,
		stateJSON,
		req.SubmittedAt,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to store submission: %w", err)
	}

	return id, nil
}

// GetOrCreateHashEntry atomically claims the verification hash for this
// submission. Two identical hashes can legitimately land within
// milliseconds of each other (independent discovery of the same optimal
// line of play), so the winner is decided by the UNIQUE constraint, not
// by a prior read. On conflict the duplicate count is incremented and a
// duplicate record appended in the same transaction.
func (VerifyStore) GetOrCreateHashEntry(ctx context.Context, req *verify.Request, submissionID int64) (*verify.HashEntry, bool, error) {
	if PostgresPool == nil {
		return nil, false, fmt.Errorf("PostgreSQL connection pool not initialized")
	}

	tx, err := PostgresPool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `
		INSERT INTO verification_hashes
		(verification_hash, first_submission_id, first_submitted_by, first_submitted_at, seed, duplicate_count)
		VALUES ($1, $2, $3, $4, $5, 0)
		ON CONFLICT (verification_hash) DO NOTHING
		RETURNING hash_id
	`

	var hashID int64
	err = tx.QueryRow(
		ctx,
		insertQuery,
		req.VerificationHash,
		submissionID,
		req.PlayerID,
		req.SubmittedAt,
		req.Seed,
	).Scan(&hashID)

	if err == nil {
		// This submission is the original discoverer
		if err := tx.Commit(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to commit hash entry: %w", err)
		}
		return &verify.HashEntry{
			HashID:            hashID,
			VerificationHash:  req.VerificationHash,
			FirstSubmissionID: submissionID,
			FirstSubmittedBy:  req.PlayerID,
			FirstSubmittedAt:  req.SubmittedAt,
			Seed:              req.Seed,
		}, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("failed to insert hash entry: %w", err)
	}

	// Conflict: fetch the existing entry and bump its duplicate count in
	// one statement
	updateQuery := `
		UPDATE verification_hashes
		SET duplicate_count = duplicate_count + 1
		WHERE verification_hash = $1
		RETURNING hash_id, first_submission_id, first_submitted_by, first_submitted_at, seed, duplicate_count
	`

	var entry verify.HashEntry
	entry.VerificationHash = req.VerificationHash
	err = tx.QueryRow(ctx, updateQuery, req.VerificationHash).Scan(
		&entry.HashID,
		&entry.FirstSubmissionID,
		&entry.FirstSubmittedBy,
		&entry.FirstSubmittedAt,
		&entry.Seed,
		&entry.DuplicateCount,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to update duplicate count: %w", err)
	}

	duplicateQuery := `
		INSERT INTO hash_duplicates
		(hash_id, submission_id, submitted_at, time_delta_seconds)
		VALUES ($1, $2, $3, $4)
	`

	delta := req.SubmittedAt.Sub(entry.FirstSubmittedAt).Seconds()
	if _, err := tx.Exec(ctx, duplicateQuery, entry.HashID, submissionID, req.SubmittedAt, delta); err != nil {
		return nil, false, fmt.Errorf("failed to store duplicate record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit duplicate resolution: %w", err)
	}

	return &entry, false, nil
}

// MarkDuplicate flags a stored submission as non-original
func (VerifyStore) MarkDuplicate(ctx context.Context, submissionID int64) error {
	if PostgresPool == nil {
		return fmt.Errorf("PostgreSQL connection pool not initialized")
	}

	query := `UPDATE submissions SET is_original = FALSE WHERE id = $1`

	result, err := PostgresPool.Exec(ctx, query, submissionID)
	if err != nil {
		return fmt.Errorf("failed to mark submission as duplicate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no submission found with id %d", submissionID)
	}

	return nil
}

// ScoreRank returns the 1-based rank a score holds on the leaderboard
func (VerifyStore) ScoreRank(ctx context.Context, score int64) (int, error) {
	if PostgresPool == nil {
		return 0, fmt.Errorf("PostgreSQL connection pool not initialized")
	}

	query := `SELECT COUNT(*) + 1 FROM submissions WHERE score > $1`

	var rank int
	if err := PostgresPool.QueryRow(ctx, query, score).Scan(&rank); err != nil {
		return 0, fmt.Errorf("failed to compute score rank: %w", err)
	}

	return rank, nil
}

// SeedScores returns all accepted scores recorded for a seed
func (VerifyStore) SeedScores(ctx context.Context, seed string) ([]int64, error) {
	if PostgresPool == nil {
		return nil, fmt.Errorf("PostgreSQL connection pool not initialized")
	}

	query := `SELECT score FROM submissions WHERE seed = $1`

	rows, err := PostgresPool.Query(ctx, query, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to query seed scores: %w", err)
	}
	defer rows.Close()

	var scores []int64
	for rows.Next() {
		var score int64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return scores, nil
}

// InsertAnomalyFlag appends an advisory review flag
func (VerifyStore) InsertAnomalyFlag(ctx context.Context, submissionID int64, playerID, kind, detail string) error {
	if PostgresPool == nil {
		return fmt.Errorf("PostgreSQL connection pool not initialized")
	}

	query := `
		INSERT INTO anomaly_flags (submission_id, player_id, kind, detail)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := PostgresPool.Exec(ctx, query, submissionID, playerID, kind, detail); err != nil {
		return fmt.Errorf("failed to store anomaly flag: %w", err)
	}

	return nil
}

/* =========================
   LEADERBOARD
========================= */

// GetLeaderboard returns the top N submissions ranked by score,
// optionally restricted to one seed
func GetLeaderboard(ctx context.Context, limit int, seed string) ([]*LeaderboardEntry, error) {
	if PostgresPool == nil {
		return []*LeaderboardEntry{}, nil
	}

	var rows pgx.Rows
	var err error

	if seed == "" {
		query := `
			SELECT ROW_NUMBER() OVER (ORDER BY score DESC, submitted_at ASC) as rank,
			       player_id, seed, score, verification_hash, is_original, submitted_at
			FROM submissions
			ORDER BY score DESC, submitted_at ASC
			LIMIT $1
		`
		rows, err = PostgresPool.Query(ctx, query, limit)
	} else {
		query := `
			SELECT ROW_NUMBER() OVER (ORDER BY score DESC, submitted_at ASC) as rank,
			       player_id, seed, score, verification_hash, is_original, submitted_at
			FROM submissions
			WHERE seed = $2
			ORDER BY score DESC, submitted_at ASC
			LIMIT $1
		`
		rows, err = PostgresPool.Query(ctx, query, limit, seed)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*LeaderboardEntry
	for rows.Next() {
		var entry LeaderboardEntry
		if err := rows.Scan(
			&entry.Rank,
			&entry.PlayerID,
			&entry.Seed,
			&entry.Score,
			&entry.VerificationHash,
			&entry.IsOriginal,
			&entry.SubmittedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// GetPlayerBest returns a player's best submission with its overall rank
func GetPlayerBest(ctx context.Context, playerID string) (*LeaderboardEntry, error) {
	if PostgresPool == nil {
		return nil, nil
	}

	query := `
		SELECT rank, player_id, seed, score, verification_hash, is_original, submitted_at FROM (
			SELECT ROW_NUMBER() OVER (ORDER BY score DESC, submitted_at ASC) as rank,
			       player_id, seed, score, verification_hash, is_original, submitted_at
			FROM submissions
		) ranked
		WHERE player_id = $1
		ORDER BY rank ASC
		LIMIT 1
	`

	var entry LeaderboardEntry
	err := PostgresPool.QueryRow(ctx, query, playerID).Scan(
		&entry.Rank,
		&entry.PlayerID,
		&entry.Seed,
		&entry.Score,
		&entry.VerificationHash,
		&entry.IsOriginal,
		&entry.SubmittedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player best: %w", err)
	}

	return &entry, nil
}

/* =========================
   HASH LOOKUP
========================= */

// GetHashEntry retrieves a registry entry by verification hash
func GetHashEntry(ctx context.Context, hash string) (*verify.HashEntry, error) {
	if PostgresPool == nil {
		return nil, nil
	}

	query := `
		SELECT hash_id, verification_hash, first_submission_id, first_submitted_by,
		       first_submitted_at, seed, duplicate_count
		FROM verification_hashes
		WHERE verification_hash = $1
	`

	var entry verify.HashEntry
	err := PostgresPool.QueryRow(ctx, query, hash).Scan(
		&entry.HashID,
		&entry.VerificationHash,
		&entry.FirstSubmissionID,
		&entry.FirstSubmittedBy,
		&entry.FirstSubmittedAt,
		&entry.Seed,
		&entry.DuplicateCount,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hash entry: %w", err)
	}

	return &entry, nil
}

// GetHashDuplicates retrieves the duplicate chain for a registry entry
func GetHashDuplicates(ctx context.Context, hashID int64) ([]*DuplicateRecord, error) {
	if PostgresPool == nil {
		return []*DuplicateRecord{}, nil
	}

	query := `
		SELECT duplicate_id, submission_id, submitted_at, time_delta_seconds
		FROM hash_duplicates
		WHERE hash_id = $1
		ORDER BY submitted_at ASC
	`

	rows, err := PostgresPool.Query(ctx, query, hashID)
	if err != nil {
		return nil, fmt.Errorf("failed to query hash duplicates: %w", err)
	}
	defer rows.Close()

	var records []*DuplicateRecord
	for rows.Next() {
		var record DuplicateRecord
		if err := rows.Scan(
			&record.DuplicateID,
			&record.SubmissionID,
			&record.SubmittedAt,
			&record.TimeDeltaSeconds,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

/* =========================
   HEALTH CHECK
========================= */

// HealthCheckPostgres performs a PostgreSQL health check
func HealthCheckPostgres(ctx context.Context) error {
	if PostgresPool == nil {
		return fmt.Errorf("PostgreSQL connection pool not initialized")
	}
	return PostgresPool.Ping(ctx)
}
