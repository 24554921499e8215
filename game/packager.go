package game

// PackageSubmission assembles the final payload from a finished session.
// Finalizes the chain if the caller has not already done so. The score
// is derived from the final state with the same formula the server uses.
func PackageSubmission(chain *HashChain, finalState FinalState, playerID string) *Submission {
	return &Submission{
		PlayerID:         playerID,
		Seed:             chain.Seed(),
		Score:            Score(finalState),
		VerificationHash: chain.Finalize(),
		FinalState:       finalState,
	}
}
