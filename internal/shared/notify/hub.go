package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event message delivered to a stream client
type Event struct {
	Topic string
	Data  []byte
}

// Client connected stream client
type Client struct {
	ID     string
	Events chan Event
}

// Hub fans published messages out to in-process stream clients. The last payload per topic
// is retained and replayed to clients on registration.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	retained map[string][]byte
	order    []string
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:  make(map[string]*Client),
		retained: make(map[string][]byte),
		logger:   logger,
	}
}

// Register creates a client with a buffered channel, preloaded with the retained messages
func (h *Hub) Register(buffer int) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if buffer < len(h.order) {
		buffer = len(h.order)
	}
	client := &Client{ID: uuid.NewString(), Events: make(chan Event, buffer)}
	for _, topic := range h.order {
		client.Events <- Event{Topic: topic, Data: h.retained[topic]}
	}
	h.clients[client.ID] = client
	h.logger.Debug("stream client registered", zap.String("client_id", client.ID), zap.Int("total", len(h.clients)))
	return client
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("stream client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// Publish retains payload and broadcasts it. Clients with a full buffer miss the event.
func (h *Hub) Publish(_ context.Context, topic string, payload []byte) error {
	data := append([]byte(nil), payload...)

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.retained[topic]; !ok {
		h.order = append(h.order, topic)
	}
	h.retained[topic] = data
	for _, client := range h.clients {
		select {
		case client.Events <- Event{Topic: topic, Data: data}:
		default:
			h.logger.Warn("stream client buffer full, skipping event",
				zap.String("client_id", client.ID), zap.String("topic", topic))
		}
	}
	return nil
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Events)
		delete(h.clients, id)
	}
	return nil
}
