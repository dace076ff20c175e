package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fuelserve/internal/shared/jwt"
	"fuelserve/internal/shared/util"
	"fuelserve/internal/workflow/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsClient struct {
	workerID string
	role     domain.Role
	send     chan []byte
}

// Hub pushes workflow events to connected workers so their pool view can
// re-fetch instead of polling. It is an EventPublisher like the AMQP
// publisher; delivery is best-effort and slow clients are dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
	logger  *util.Logger
}

func NewHub(logger *util.Logger) *Hub {
	return &Hub{clients: make(map[string]*wsClient), logger: logger}
}

func (hub *Hub) register(c *wsClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if old, ok := hub.clients[c.workerID]; ok {
		close(old.send)
	}
	hub.clients[c.workerID] = c
}

func (hub *Hub) unregister(c *wsClient) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.clients[c.workerID] == c {
		delete(hub.clients, c.workerID)
		close(c.send)
	}
}

// PublishItemEvent fans the event out to workers of the kind's role. An
// availability change goes only to the worker it concerns.
func (hub *Hub) PublishItemEvent(ctx context.Context, event domain.WorkItemEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ws event: %w", err)
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for _, c := range hub.clients {
		if event.ItemID == "" {
			if c.workerID != event.WorkerID {
				continue
			}
		} else if c.role != domain.RequiredRole(event.Kind) {
			continue
		}

		select {
		case c.send <- body:
		default:
			// Slow consumer; the read loop will notice the closed socket.
		}
	}
	return nil
}

// WorkerWSHandler upgrades an authenticated worker connection and streams
// workflow events to it. The token travels in a query parameter because
// browser websocket clients cannot set headers.
func (h *Handler) WorkerWSHandler(w http.ResponseWriter, r *http.Request) {
	instance := "Gateway.WorkerWS"

	claims, err := jwt.ParseToken(h.secret, r.URL.Query().Get("token"))
	if err != nil {
		util.WriteJSONError(w, "UNAUTHORIZED", "invalid or expired token", http.StatusUnauthorized)
		return
	}

	worker, err := h.service.ResolveWorker(r.Context(), claims.IdentityID, domain.Role(claims.Role))
	if err != nil {
		h.writeDomainError(w, r, instance, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(instance, fmt.Errorf("websocket upgrade failed: %w", err))
		return
	}

	client := &wsClient{workerID: worker.ID, role: worker.Role, send: make(chan []byte, 16)}
	h.hub.register(client)
	h.logger.Info(instance, fmt.Sprintf("worker %s connected", worker.ID))

	go h.writePump(conn, client)
	go h.readPump(conn, client, instance)
}

func (h *Handler) writePump(conn *websocket.Conn, client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) readPump(conn *websocket.Conn, client *wsClient, instance string) {
	defer func() {
		h.hub.unregister(client)
		conn.Close()
		h.logger.Info(instance, fmt.Sprintf("worker %s disconnected", client.workerID))
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Workers only listen on this feed; reads exist to detect close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
