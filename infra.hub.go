package main

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	LiveMessageType   = "SHELF_SNAPSHOT"
	liveWriteDeadline = 10 * time.Second
)

var ErrHubClosed = errors.New("live hub closed")

// LiveMessage is pushed to dashboard clients each time the visible shelves change.
type LiveMessage struct {
	Type string  `json:"type"`
	Data []Shelf `json:"data"`
}

type liveClient struct {
	id   string
	send chan []Shelf
}

// LiveHub keeps the websocket connections of the dashboard clients and
// pushes them the visible shelves. A slow client only gets the latest state.
type LiveHub struct {
	logger     *zap.Logger
	metrics    *Metrics
	upgrader   websocket.Upgrader
	pingPeriod time.Duration

	mu      sync.Mutex
	clients map[string]*liveClient
	closed  bool
}

// NewLiveHub provides a hub ready to serve live clients.
func NewLiveHub(logger *zap.Logger, metrics *Metrics, pingPeriod time.Duration) *LiveHub {
	return &LiveHub{
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingPeriod: pingPeriod,
		clients:    make(map[string]*liveClient),
	}
}

// Serve upgrades the request and pushes the current shelves then every
// broadcasted state until the client leaves or the hub is closed. The
// current shelves are read once the client is registered so no broadcast
// issued after the upgrade can be missed.
func (hub *LiveHub) Serve(w http.ResponseWriter, r *http.Request, id string, current func() []Shelf) error {
	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	client := &liveClient{id: id, send: make(chan []Shelf, 1)}
	if err = hub.register(client, current); err != nil {
		return err
	}
	defer hub.unregister(client)

	// the reader only serves control frames and detects the client leaving.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(hub.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case shelves, ok := <-client.send:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteDeadline))
			if err := conn.WriteJSON(LiveMessage{Type: LiveMessageType, Data: shelves}); err != nil {
				return err
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteDeadline)); err != nil {
				return err
			}
		case <-gone:
			return nil
		}
	}
}

func (hub *LiveHub) register(c *liveClient, current func() []Shelf) error {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.closed {
		return ErrHubClosed
	}
	// Broadcast holds the same lock so it either replaces this state or
	// comes after it.
	c.send <- current()
	hub.clients[c.id] = c
	if hub.metrics != nil {
		hub.metrics.LiveClients.Set(float64(len(hub.clients)))
	}
	hub.logger.Info("live client joined", zap.String("live.id", c.id), zap.Int("live.clients", len(hub.clients)))
	return nil
}

func (hub *LiveHub) unregister(c *liveClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if _, ok := hub.clients[c.id]; !ok {
		return
	}
	delete(hub.clients, c.id)
	if hub.metrics != nil {
		hub.metrics.LiveClients.Set(float64(len(hub.clients)))
	}
	hub.logger.Info("live client left", zap.String("live.id", c.id), zap.Int("live.clients", len(hub.clients)))
}

// Broadcast replaces the pending state of every client with the given shelves.
func (hub *LiveHub) Broadcast(shelves []Shelf) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for _, c := range hub.clients {
		select {
		case c.send <- shelves:
		default:
			select {
			case <-c.send:
			default:
			}
			c.send <- shelves
		}
	}
}

// Count returns the number of connected clients.
func (hub *LiveHub) Count() int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.clients)
}

// Close disconnects all clients and refuses new ones.
func (hub *LiveHub) Close() {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.closed {
		return
	}
	hub.closed = true
	for id, c := range hub.clients {
		close(c.send)
		delete(hub.clients, id)
	}
	if hub.metrics != nil {
		hub.metrics.LiveClients.Set(0)
	}
}
