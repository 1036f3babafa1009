package coordinator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StateHub broadcasts cluster-state snapshots to every subscribed
// websocket client, adapted from the dashboard event-bus fan-out pattern:
// one buffered channel feeding a broadcast loop, subscribers registered
// and removed under a mutex.
type StateHub struct {
	mu          sync.RWMutex
	subscribers map[string]chan []ClusterStateEntry
	logger      *slog.Logger
}

// NewStateHub builds an empty hub.
func NewStateHub(logger *slog.Logger) *StateHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateHub{subscribers: make(map[string]chan []ClusterStateEntry), logger: logger}
}

func (h *StateHub) subscribe(id string) chan []ClusterStateEntry {
	ch := make(chan []ClusterStateEntry, 4)
	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()
	return ch
}

func (h *StateHub) unsubscribe(id string) {
	h.mu.Lock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
	h.mu.Unlock()
}

// Broadcast pushes state to every currently subscribed client, dropping
// the message for any subscriber whose channel is full rather than
// blocking the publisher.
func (h *StateHub) Broadcast(state []ClusterStateEntry) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subscribers {
		select {
		case ch <- state:
		default:
			h.logger.Warn("coordinator: dropping cluster-state push, subscriber channel full", "subscriber", id)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Run periodically calls svc.ReportClusterState and broadcasts the result
// to every websocket subscriber until ctx is canceled.
func (h *StateHub) Run(ctx context.Context, svc *Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Broadcast(svc.ReportClusterState(ctx))
		}
	}
}

// ServeWS upgrades the request to a websocket connection and streams
// cluster-state snapshots to it until the client disconnects.
func (h *StateHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("coordinator: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id := r.RemoteAddr + "-" + time.Now().Format(time.RFC3339Nano)
	ch := h.subscribe(id)
	defer h.unsubscribe(id)

	for state := range ch {
		data, err := json.Marshal(state)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
