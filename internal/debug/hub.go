package debug

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// MaxWSConnections caps connected dashboards
const MaxWSConnections = 16

const wsWriteTimeout = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsLocalOrigin(origin) {
			return true
		}
		log.Printf("⚠️ Stats websocket rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// StatsHub fans stats messages out to connected dashboards. The client set
// is owned by the Run goroutine.
type StatsHub struct {
	clients    map[*websocket.Conn]struct{}
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	count      atomic.Int32
}

// NewStatsHub creates a hub. Nothing runs until Run is called.
func NewStatsHub() *StatsHub {
	return &StatsHub{
		clients:    make(map[*websocket.Conn]struct{}),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then closes every connection.
func (h *StatsHub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				conn.Close()
			}
			h.clients = nil
			h.setCount(0)
			return

		case conn := <-h.register:
			h.clients[conn] = struct{}{}
			h.setCount(len(h.clients))
			log.Printf("📱 Dashboard connected (%d total)", len(h.clients))

		case conn := <-h.unregister:
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				h.setCount(len(h.clients))
				log.Printf("📱 Dashboard disconnected (%d remaining)", len(h.clients))
			}

		case message := <-h.broadcast:
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					delete(h.clients, conn)
					conn.Close()
				}
			}
			h.setCount(len(h.clients))
			wsMessagesTotal.Inc()
		}
	}
}

func (h *StatsHub) setCount(n int) {
	h.count.Store(int32(n))
	wsConnectionsActive.Set(float64(n))
}

// ClientCount returns the number of connected dashboards.
func (h *StatsHub) ClientCount() int {
	return int(h.count.Load())
}

// Broadcast queues {"event": event, "data": data} for every dashboard. The
// message is dropped when the queue is full.
func (h *StatsHub) Broadcast(event string, data any) {
	msg, err := json.Marshal(map[string]any{
		"event": event,
		"data":  data,
	})
	if err != nil {
		log.Printf("⚠️ Stats broadcast marshal failed: %v", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
	}
}

// StartBroadcastLoop pushes the current stats every interval while at least
// one dashboard is connected.
func (h *StatsHub) StartBroadcastLoop(ctx context.Context, stats StatsProvider, interval time.Duration) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if h.ClientCount() == 0 {
					continue
				}
				h.Broadcast("fx:stats", stats.Stats())
			}
		}
	}()
}

// HandleWebSocket upgrades a dashboard connection and registers it.
func (h *StatsHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.ClientCount() >= MaxWSConnections {
		RecordConnectionRejected("ws_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️ Stats websocket upgrade error: %v", err)
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
		return
	}

	// Dashboards only listen; reading detects the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		select {
		case h.unregister <- conn:
		case <-h.done:
		}
	}()
}
