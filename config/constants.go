package config

import "time"

/* =========================
   HASH CHAIN CONFIGURATION
========================= */

const (
	// Protocol version mixed into the chain genesis hash.
	// Bump this whenever the snapshot format or score formula changes.
	ChainVersion = "v1"

	// Hex length of a SHA-256 verification hash
	HashHexLength = 64
)

/* =========================
   CANONICAL SNAPSHOT
========================= */

const (
	// Snapshot format version, first field of every canonical snapshot
	SnapshotVersion = "v1"

	// Decimal places kept for floating fields (money, risk).
	// Rounding happens BEFORE hashing, round half to even.
	SnapshotPrecision = 2
)

/* =========================
   SCORE FORMULA
========================= */

const (
	// score = papers*PaperWeight + staff*StaffWeight + money - risk*RiskPenalty
	PaperWeight = 1000.0
	StaffWeight = 100.0
	RiskPenalty = 25.0

	// Allowed absolute difference between a submitted score and the
	// server-side recomputation. Scores are integers computed from a
	// 2-decimal canonical state, so exact agreement is the norm; the
	// one-point slack absorbs clients that round money before summing
	// instead of after. Anything wider would weaken score integrity.
	ScoreTolerance = 1
)

/* =========================
   PLAUSIBILITY BOUNDS
========================= */

// Wide on purpose: creative-but-legitimate play must never trip these.
const (
	MaxTurns = 10000

	MinMoney = -1e9
	MaxMoney = 1e9

	MinRisk = 0.0
	MaxRisk = 100.0

	MaxOutputCount = 100000
	MaxStaffCount  = 100000
)

/* =========================
   ANOMALY DETECTION
========================= */

const (
	// z-score threshold against the same-seed score distribution
	AnomalyZScoreThreshold = 3.0
	// Minimum same-seed samples before a z-score is meaningful
	AnomalyMinSeedSamples = 5

	// Flag when a score exceeds this multiple of the player's recent average
	AnomalyJumpRatio      = 5.0
	AnomalyMinJumpSamples = 3

	// Submission-rate abuse window
	AnomalyRateWindow = 10 * time.Minute
	AnomalyRateLimit  = 10

	// Accepted submissions queued for review before the detector drops them
	AnomalyQueueSize = 256
)

/* =========================
   REDIS TTL CONFIGURATION
========================= */

const (
	// Recent scores per player (rolling window for jump detection)
	// Key: scores:recent:{playerId}
	RecentScoresTTL = 24 * time.Hour
	RecentScoresMax = 20

	// Submission-rate counter TTL equals the rate window
	// Key: submissions:rate:{playerId}
	SubmissionRateTTL = AnomalyRateWindow
)

/* =========================
   REDIS KEY PATTERNS
========================= */

const (
	RedisRecentScoresKey   = "scores:recent:%s"   // scores:recent:{playerId}
	RedisSubmissionRateKey = "submissions:rate:%s" // submissions:rate:{playerId}
)

/* =========================
   POSTGRESQL CONFIGURATION
========================= */

const (
	// Connection pool settings
	MaxOpenConns    = 25
	MinOpenConns    = 5
	ConnMaxLifetime = 5 * time.Minute
)

/* =========================
   API CONFIGURATION
========================= */

const (
	// Server settings
	ServerPort = "8080"
	ServerHost = "0.0.0.0"

	// Leaderboard defaults
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

/* =========================
   WEBSOCKET CONFIGURATION
========================= */

const (
	WSWriteDeadline = 10 * time.Second

	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
)
