package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"labVerifyServer/game"
	"labVerifyServer/verify"
)

/* =========================
   REQUEST/RESPONSE TYPES
========================= */

// SubmitRequest is the submission wire payload. The player identity
// comes from the X-Player-ID header, resolved by the external auth
// collaborator in front of this service.
type SubmitRequest struct {
	Seed             string          `json:"seed"`
	Score            int64           `json:"score"`
	VerificationHash string          `json:"verification_hash"`
	FinalState       game.FinalState `json:"final_state"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

var verifyService *verify.Service

// SetVerifyService wires the verification service into the handlers
func SetVerifyService(s *verify.Service) {
	verifyService = s
}

/* =========================
   SUBMISSION ENDPOINT
========================= */

// HandleSubmit handles leaderboard submissions
// POST /api/submit
func HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	playerID := r.Header.Get("X-Player-ID")
	if playerID == "" {
		sendError(w, http.StatusUnauthorized, "X-Player-ID header is required")
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Seed == "" {
		sendError(w, http.StatusBadRequest, "Seed is required")
		return
	}
	if req.VerificationHash == "" {
		sendError(w, http.StatusBadRequest, "Verification hash is required")
		return
	}

	if verifyService == nil {
		sendError(w, http.StatusServiceUnavailable, "Verification service not available")
		return
	}

	result, err := verifyService.Process(r.Context(), &verify.Request{
		PlayerID:         playerID,
		Seed:             req.Seed,
		Score:            req.Score,
		VerificationHash: req.VerificationHash,
		FinalState:       req.FinalState,
		SubmittedAt:      time.Now().UTC(),
	})
	if err != nil {
		log.Printf("❌ Failed to process submission from %s: %v", playerID, err)
		sendError(w, http.StatusInternalServerError, "Failed to process submission")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

/* =========================
   HELPER FUNCTIONS
========================= */

// sendError sends an error response
func sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error:   message,
	})
}
