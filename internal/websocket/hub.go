package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"chromir-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_progress"

// Hub fans progress out to every socket of an organization. With redis set,
// messages go through the cluster channel so every instance delivers its own sockets.
type Hub struct {
	// OrganizationID -> clients (several members, several tabs)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client
	// done is closed once Run returns.
	done chan struct{}

	mu sync.RWMutex

	rdb    *redis.Client
	logger logger.ILogger
}

type clusterMessage struct {
	OrganizationID uuid.UUID       `json:"organization_id"`
	Message        json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.OrganizationID] = append(h.clients[client.OrganizationID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"organization_id": client.OrganizationID, "user_id": client.UserID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// join reports false when the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.OrganizationID]
	for i, c := range clients {
		if c == client {
			h.clients[client.OrganizationID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.OrganizationID]) == 0 {
		delete(h.clients, client.OrganizationID)
	}
}

// SendToOrganization delivers payload to the organization's sockets on every instance.
func (h *Hub) SendToOrganization(orgID uuid.UUID, payload []byte) {
	if h.rdb == nil {
		h.deliverLocal(orgID, payload)
		return
	}

	data, _ := json.Marshal(clusterMessage{OrganizationID: orgID, Message: payload})
	if err := h.rdb.Publish(context.Background(), clusterChannel, data).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed, delivering locally", map[string]interface{}{"error": err.Error()})
		h.deliverLocal(orgID, payload)
	}
}

// ConnectedClients counts the local sockets of an organization.
func (h *Hub) ConnectedClients(orgID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[orgID])
}

func (h *Hub) deliverLocal(orgID uuid.UUID, payload []byte) {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[orgID]...)
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- payload:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"user_id": client.UserID})
			go h.leave(client)
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var cm clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &cm); err != nil {
			h.logger.Warn("Hub", "Malformed cluster message", map[string]interface{}{"error": err.Error()})
			continue
		}
		h.deliverLocal(cm.OrganizationID, cm.Message)
	}
}
