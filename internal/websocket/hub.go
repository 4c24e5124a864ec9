package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"labelops-backend/internal/models"
)

const presenceChannel = "presence_updates"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans presence changes out to connected dashboard clients. Changes flow
// through a Redis pub/sub channel so every server process sees them, not
// just the one that evaluated.
type Hub struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]struct{}
	redisClient *redis.Client
	jwtSecret   []byte
}

func NewHub(redisClient *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]struct{}),
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
	}
}

// HandleWebSocket authenticates via token query param and keeps the
// connection registered until the client goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.connections[conn] = struct{}{}
	total := len(h.connections)
	h.mu.Unlock()
	log.Printf("WebSocket connected (total: %d)", total)

	go func() {
		defer h.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	delete(h.connections, conn)
	log.Printf("WebSocket disconnected (total: %d)", len(h.connections))
}

// Run subscribes to the presence channel and forwards every payload to all
// connected clients. Blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.redisClient.Subscribe(ctx, presenceChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// PublishPresence pushes changed presence statuses onto the channel. Wired
// as the evaluator's change hook.
func (h *Hub) PublishPresence(ctx context.Context, changed []models.PresenceStatus) {
	data, err := json.Marshal(map[string]interface{}{
		"type":    "presence",
		"payload": changed,
	})
	if err != nil {
		return
	}
	if err := h.redisClient.Publish(ctx, presenceChannel, data).Err(); err != nil {
		log.Printf("presence publish failed: %v", err)
	}
}
