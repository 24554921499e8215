package game

import (
	"strconv"

	"labVerifyServer/config"
)

// Snapshot serializes the state into its canonical form:
//
//	v1|turn=12|money=1234.50|risk=23.40|papers=3|staff=7
//
// Fixed field order, fixed separators, floats rounded to 2 decimals
// (half to even) BEFORE serialization. Two logically-equal states must
// serialize byte-for-byte identically on every platform — this is the
// single invariant the whole verification protocol stands on. No clocks,
// no map iteration, no locale-sensitive formatting.
func Snapshot(state FinalState) string {
	return config.SnapshotVersion +
		"|turn=" + strconv.Itoa(state.Turn) +
		"|money=" + FormatFixed(state.Money) +
		"|risk=" + FormatFixed(state.Risk) +
		"|papers=" + strconv.Itoa(state.OutputCount) +
		"|staff=" + strconv.Itoa(state.StaffCount)
}

// FormatFixed renders a float with SnapshotPrecision decimals.
// strconv rounds ties to even, which is exactly the rounding rule the
// protocol requires.
func FormatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', config.SnapshotPrecision, 64)
}

// RoundFixed rounds a float to SnapshotPrecision decimals, half to even.
// Every caller that needs pre-hash rounding goes through here; the
// rounding rule lives in one place only.
func RoundFixed(v float64) float64 {
	rounded, _ := strconv.ParseFloat(FormatFixed(v), 64)
	return rounded
}
