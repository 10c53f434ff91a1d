package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"ontoview/domain/events"
)

const clientBuffer = 64

// Hub streams diagram events to browsers over Server-Sent Events. It
// subscribes to the diagram bus and fans each event out to every connected
// client; a client that cannot keep up is dropped rather than allowed to
// stall the mutating goroutine.
type Hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	dispose events.Disposer
	logger  *zap.Logger
}

// NewHub creates a hub attached to the given event bus
func NewHub(bus *events.Bus, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients: make(map[chan []byte]struct{}),
		logger:  logger,
	}
	h.dispose = bus.SubscribeAll(h.broadcast)
	return h
}

// Close detaches the hub from the bus and disconnects every client
func (h *Hub) Close() {
	h.dispose()

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client)
		delete(h.clients, client)
	}
}

// ClientCount reports the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(event events.DomainEvent) {
	payload, err := json.Marshal(map[string]interface{}{
		"kind":  event.GetKind(),
		"event": event,
	})
	if err != nil {
		h.logger.Warn("failed to serialize event for streaming",
			zap.String("kind", string(event.GetKind())),
			zap.Error(err),
		)
		return
	}
	frame := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.GetKind(), payload))

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client <- frame:
		default:
			// Slow consumer: drop it so Publish never blocks
			close(client)
			delete(h.clients, client)
			h.logger.Warn("dropping slow event stream client")
		}
	}
}

// ServeHTTP handles GET /events, streaming until the client disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	client := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if _, stillThere := h.clients[client]; stillThere {
			close(client)
			delete(h.clients, client)
		}
		h.mu.Unlock()
	}()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case frame, open := <-client:
			if !open {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()

		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
