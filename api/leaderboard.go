package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"labVerifyServer/config"
	"labVerifyServer/db"
)

/* =========================
   RESPONSE TYPES
========================= */

// LeaderboardResponse represents the leaderboard API response
type LeaderboardResponse struct {
	Success      bool                   `json:"success"`
	Leaderboard  []*db.LeaderboardEntry `json:"leaderboard"`
	UserPosition *db.LeaderboardEntry   `json:"userPosition,omitempty"`
}

/* =========================
   HTTP ENDPOINTS
========================= */

// HandleGetLeaderboard handles GET /api/leaderboard
// Query params: seed (optional), player (optional), limit (optional)
func HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()

	limit := config.DefaultLeaderboardLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if n, err := strconv.Atoi(limitParam); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > config.MaxLeaderboardLimit {
		limit = config.MaxLeaderboardLimit
	}

	seed := r.URL.Query().Get("seed")

	entries, err := db.GetLeaderboard(ctx, limit, seed)
	if err != nil {
		log.Printf("❌ Failed to get leaderboard: %v", err)
		sendError(w, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	response := LeaderboardResponse{
		Success:     true,
		Leaderboard: entries,
	}
	if response.Leaderboard == nil {
		response.Leaderboard = []*db.LeaderboardEntry{}
	}

	// If the requested player is outside the returned slice, fetch their
	// best submission separately
	if playerParam := r.URL.Query().Get("player"); playerParam != "" {
		playerShown := false
		for _, entry := range entries {
			if entry.PlayerID == playerParam {
				playerShown = true
				break
			}
		}

		if !playerShown {
			best, err := db.GetPlayerBest(ctx, playerParam)
			if err != nil {
				log.Printf("⚠️  Failed to get player position: %v", err)
			} else if best != nil {
				response.UserPosition = best
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	log.Printf("📋 Retrieved leaderboard with %d entries", len(entries))
}
