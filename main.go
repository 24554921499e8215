package main

import (
	"context"
	"log"
	"net/http"

	"labVerifyServer/api"
	"labVerifyServer/config"
	"labVerifyServer/db"
	"labVerifyServer/verify"
	"labVerifyServer/ws"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables")
	} else {
		log.Println("✅ Loaded environment variables from .env")
	}

	// Initialize database connections
	if err := db.InitPostgres(); err != nil {
		log.Printf("⚠️  Warning: PostgreSQL initialization failed: %v", err)
		log.Println("   Submissions cannot be accepted without the hash registry")
	}
	defer db.ClosePostgres()

	if err := db.InitRedis(); err != nil {
		log.Printf("⚠️  Warning: Redis initialization failed: %v", err)
		log.Println("   Anomaly review windows will be disabled")
	}
	defer db.CloseRedis()

	// Anomaly detector runs off the acceptance path
	store := db.VerifyStore{}
	detector := verify.NewAnomalyDetector(store, db.WindowStore{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	detector.Start(ctx)

	// Verification pipeline
	service := verify.NewService(store)
	service.OnAccepted(func(sub verify.Accepted) {
		detector.Enqueue(sub)
		ws.BroadcastAccepted(sub)
	})
	api.SetVerifyService(service)

	// WebSocket endpoints
	http.HandleFunc("/ws/leaderboard", ws.HandleLeaderboardWS)

	// API endpoints
	http.HandleFunc("/api/submit", api.HandleSubmit)
	http.HandleFunc("/api/leaderboard", api.HandleGetLeaderboard)
	http.HandleFunc("/api/verify/", api.HandleHashLookup) // Trailing slash for :hash
	http.HandleFunc("/api/health", api.HandleHealthCheck)

	addr := config.ServerHost + ":" + config.ServerPort
	log.Printf("🚀 Server starting on %s", addr)
	log.Println("")
	log.Println("📡 WebSocket Endpoints:")
	log.Println("   ws://localhost:8080/ws/leaderboard - Live accepted-submission feed")
	log.Println("")
	log.Println("🔌 API Endpoints:")
	log.Println("   POST /api/submit - Submit a verified game result")
	log.Println("   GET  /api/leaderboard - Ranked submissions (seed/player/limit params)")
	log.Println("   GET  /api/verify/:hash - Registry entry + duplicate chain")
	log.Println("   GET  /api/health - Health check (Redis + PostgreSQL)")
	log.Println("")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("❌ Server error:", err)
	}
}
