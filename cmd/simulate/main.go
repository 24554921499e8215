package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"

	"labVerifyServer/crypto"
	"labVerifyServer/game"
)

// Plays a scripted lab session through the real client core (draw
// source -> snapshots -> hash chain -> packager) and submits the result.
// Dev tool for populating a leaderboard end to end; the same seed and
// turn count always produce the same verification hash.

var actionNames = []string{"hire", "research", "publish", "fundraise", "audit"}

func main() {
	seed := flag.String("seed", "", "session seed (random when empty)")
	player := flag.String("player", "sim-player-1", "player id sent in X-Player-ID")
	turns := flag.Int("turns", 24, "turns to play")
	server := flag.String("server", "http://localhost:8080", "server base URL")
	dryRun := flag.Bool("dry-run", false, "print the payload instead of submitting")
	flag.Parse()

	if *seed == "" {
		*seed = crypto.GenerateSessionSeed()
	}

	submission := playSession(*seed, *player, *turns)

	fmt.Printf("Seed:  %s\n", submission.Seed)
	fmt.Printf("Score: %d\n", submission.Score)
	fmt.Printf("Hash:  %s\n", submission.VerificationHash)

	if *dryRun {
		payload, _ := json.MarshalIndent(submission, "", "  ")
		fmt.Println(string(payload))
		return
	}

	if err := submit(*server, submission); err != nil {
		log.Fatalf("Failed to submit: %v", err)
	}
}

// playSession runs a deterministic toy playthrough. The lab state
// transitions are stand-ins for the real game rules; what matters is
// that every action, event, draw and turn boundary reaches the chain in
// emission order.
func playSession(seed, player string, turns int) *game.Submission {
	chain := game.NewSessionChain(seed)
	source := game.NewDrawSource(seed)
	source.SetSink(func(context string, value float64) {
		chain.RecordRNGDraw(context, value)
	})

	state := game.FinalState{Money: 1000, StaffCount: 2}
	weights := []float64{3, 4, 2, 2, 1}

	for turn := 1; turn <= turns; turn++ {
		state.Turn = turn
		source.SetTurn(turn)

		switch actionNames[source.DrawWeighted("turn-action", weights)] {
		case "hire":
			state.StaffCount++
			state.Money -= 150
		case "research":
			state.Risk += game.RoundFixed(source.Draw("research-risk") * 4)
			state.Money -= 50 * float64(state.StaffCount)
		case "publish":
			state.OutputCount++
			state.Money += 400
		case "fundraise":
			state.Money += game.RoundFixed(500 + source.Draw("fundraise-amount")*1500)
		case "audit":
			state.Risk = game.RoundFixed(state.Risk * 0.8)
			state.Money -= 200
		}
		if state.Risk > 100 {
			state.Risk = 100
		}
		chain.RecordAction(game.Snapshot(state))

		// Random setback event, one in five turns
		if source.Draw("event-roll") < 0.2 {
			state.Risk = game.RoundFixed(state.Risk + 2.5)
			if state.Risk > 100 {
				state.Risk = 100
			}
			chain.RecordEvent(game.Snapshot(state))
		}

		chain.RecordTurnEnd(game.Snapshot(state))
	}

	return game.PackageSubmission(chain, state, player)
}

func submit(server string, submission *game.Submission) error {
	payload, err := json.Marshal(map[string]interface{}{
		"seed":              submission.Seed,
		"score":             submission.Score,
		"verification_hash": submission.VerificationHash,
		"final_state":       submission.FinalState,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, server+"/api/submit", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Player-ID", submission.PlayerID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send submission: %w", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Printf("Server response (%d):\n%s\n", resp.StatusCode, pretty)
	return nil
}
