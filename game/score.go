package game

import (
	"strconv"

	"labVerifyServer/config"
)

// Score computes the canonical score from a final state. The client
// computes it before submitting (fail fast) and the verification
// service recomputes it from the same state — the server result is
// authoritative. Floats go through the canonical rounding step first so
// both sides sum identical inputs.
func Score(state FinalState) int64 {
	money := RoundFixed(state.Money)
	risk := RoundFixed(state.Risk)

	raw := float64(state.OutputCount)*config.PaperWeight +
		float64(state.StaffCount)*config.StaffWeight +
		money -
		risk*config.RiskPenalty

	// Round to a whole point, half to even, same rule as the snapshots
	score, _ := strconv.ParseInt(strconv.FormatFloat(raw, 'f', 0, 64), 10, 64)
	return score
}
