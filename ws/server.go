package ws

import (
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"labVerifyServer/config"
	"labVerifyServer/verify"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  config.WSReadBufferSize,
	WriteBufferSize: config.WSWriteBufferSize,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

var (
	clientsMu   sync.Mutex
	clients     = make(map[*websocket.Conn]bool)
	clientCount int64
)

// FeedMessage is one live-feed frame pushed to spectators
type FeedMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// HandleLeaderboardWS handles the live leaderboard feed
// WS /ws/leaderboard
func HandleLeaderboardWS(w http.ResponseWriter, r *http.Request) {
	log.Println("📥 WebSocket connection attempt from:", r.RemoteAddr)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("❌ WebSocket upgrade failed:", err)
		return
	}

	clientsMu.Lock()
	clients[conn] = true
	clientsMu.Unlock()

	atomic.AddInt64(&clientCount, 1)
	log.Printf("✅ Spectator connected! Total clients: %d", atomic.LoadInt64(&clientCount))

	// Greeting frame so clients can confirm the stream is live
	conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
	conn.WriteJSON(FeedMessage{
		Type: "connected",
		Data: map[string]interface{}{
			"connectedUsers": atomic.LoadInt64(&clientCount),
		},
	})

	// Spectators only listen; the read loop just detects disconnects
	go func() {
		defer removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func removeClient(conn *websocket.Conn) {
	clientsMu.Lock()
	if clients[conn] {
		delete(clients, conn)
		conn.Close()
		atomic.AddInt64(&clientCount, -1)
		log.Printf("👋 Spectator disconnected. Total clients: %d", atomic.LoadInt64(&clientCount))
	}
	clientsMu.Unlock()
}

// BroadcastAccepted pushes an accepted submission to every spectator.
// Dead connections are dropped; the acceptance path never waits on a
// slow client beyond the write deadline.
func BroadcastAccepted(sub verify.Accepted) {
	msg := FeedMessage{Type: "submission_accepted", Data: sub}

	clientsMu.Lock()
	defer clientsMu.Unlock()

	for conn := range clients {
		conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
		if err := conn.WriteJSON(msg); err != nil {
			delete(clients, conn)
			conn.Close()
			atomic.AddInt64(&clientCount, -1)
			log.Printf("👋 Dropped slow spectator: %v", err)
		}
	}
}
