package verify

// Rejection reasons returned on the wire. DuplicateSubmission is
// deliberately absent: a duplicate hash is a successful, non-original
// acceptance, not an error. Registry race conflicts are resolved into
// the duplicate path internally and never surface to the caller.
const (
	ReasonMalformedHash    = "MalformedHash"
	ReasonImplausibleState = "ImplausibleState"
	ReasonScoreMismatch    = "ScoreMismatch"
)

// Anomaly flag kinds, advisory only
const (
	FlagScoreOutlier    = "score_outlier"
	FlagImprovementJump = "improvement_jump"
	FlagRateAbuse       = "rate_abuse"
)
