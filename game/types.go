package game

// FinalState is the subset of lab state that gets snapshotted, hashed
// and submitted at game end.
type FinalState struct {
	Turn        int     `json:"turn"`
	Money       float64 `json:"money"`
	Risk        float64 `json:"risk"`
	OutputCount int     `json:"output_count"`
	StaffCount  int     `json:"staff_count"`
}

// DrawRecord logs one RNG invocation. Emission order matters: the
// ordering itself is hashed, so records are never reordered or deduped.
type DrawRecord struct {
	Context string  `json:"context"`
	Value   float64 `json:"value"`
	Turn    int     `json:"turn"`
}

// Submission is the final payload assembled by the packager.
type Submission struct {
	PlayerID         string     `json:"player_id,omitempty"`
	Seed             string     `json:"seed"`
	Score            int64      `json:"score"`
	VerificationHash string     `json:"verification_hash"`
	FinalState       FinalState `json:"final_state"`
}
