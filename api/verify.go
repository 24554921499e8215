package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"labVerifyServer/crypto"
	"labVerifyServer/db"
)

/* =========================
   RESPONSE TYPES
========================= */

// HashLookupResponse describes a registry entry and its duplicate chain,
// so clients can show "this score has been discovered before" provenance
type HashLookupResponse struct {
	Success          bool                  `json:"success"`
	VerificationHash string                `json:"verificationHash"`
	Seed             string                `json:"seed"`
	FirstSubmittedBy string                `json:"firstSubmittedBy"`
	FirstSubmittedAt time.Time             `json:"firstSubmittedAt"`
	DuplicateCount   int64                 `json:"duplicateCount"`
	Duplicates       []*db.DuplicateRecord `json:"duplicates"`
}

/* =========================
   HASH LOOKUP ENDPOINT
========================= */

// HandleHashLookup handles GET /api/verify/:hash
func HandleHashLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()

	hash := strings.TrimPrefix(r.URL.Path, "/api/verify/")
	if !crypto.IsHashHex(hash) {
		sendError(w, http.StatusBadRequest, "Invalid verification hash")
		return
	}

	entry, err := db.GetHashEntry(ctx, hash)
	if err != nil {
		log.Printf("❌ Failed to get hash entry: %v", err)
		sendError(w, http.StatusInternalServerError, "Failed to look up hash")
		return
	}
	if entry == nil {
		sendError(w, http.StatusNotFound, "Hash not found")
		return
	}

	duplicates, err := db.GetHashDuplicates(ctx, entry.HashID)
	if err != nil {
		log.Printf("❌ Failed to get duplicate chain: %v", err)
		sendError(w, http.StatusInternalServerError, "Failed to look up duplicates")
		return
	}
	if duplicates == nil {
		duplicates = []*db.DuplicateRecord{}
	}

	response := HashLookupResponse{
		Success:          true,
		VerificationHash: entry.VerificationHash,
		Seed:             entry.Seed,
		FirstSubmittedBy: entry.FirstSubmittedBy,
		FirstSubmittedAt: entry.FirstSubmittedAt,
		DuplicateCount:   entry.DuplicateCount,
		Duplicates:       duplicates,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
