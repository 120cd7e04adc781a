package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"streamraffle-backend/internal/common/logger"
	redisplatform "streamraffle-backend/internal/platform/redis"
)

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 16
	maxMessageSize = 512
)

// Hub fans participant-added events out to connected operator dashboards.
// It subscribes to the Redis participants channel so every instance of the
// service sees events regardless of which instance accumulated the entry.
type Hub struct {
	client   *redisplatform.Client
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	conn     *websocket.Conn
	outgoing chan []byte
}

func NewHub(client *redisplatform.Client, origin string) *Hub {
	return &Hub{
		client:  client,
		clients: make(map[*hubClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				o := r.Header.Get("Origin")
				return o == "" || o == origin
			},
		},
	}
}

// Run subscribes to the participants channel and broadcasts until ctx is
// cancelled.
func (h *Hub) Run(ctx context.Context) {
	sub := h.client.Subscribe(ctx, ParticipantsChannel)
	defer sub.Close()

	ch := sub.Channel()
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

func (h *Hub) broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.outgoing <- payload:
		default:
			// Slow client; drop the event rather than block the hub.
		}
	}
}

// Handle upgrades a request to a websocket and streams events to it.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	client := &hubClient{conn: conn, outgoing: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *Hub) writeLoop(client *hubClient) {
	for payload := range client.outgoing {
		client.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (h *Hub) readLoop(client *hubClient) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, client)
		h.mu.Unlock()
		close(client.outgoing)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	for {
		// Clients only listen; reads exist to detect disconnects.
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
