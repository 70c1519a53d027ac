package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Hub fans live vehicle positions out to websocket subscribers. When a redis
// client is present, broadcasts are also published so subscribers connected
// to other instances receive them.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	VehicleID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(vehicleID string) *Client {
	client := &Client{
		VehicleID: vehicleID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[vehicleID] == nil {
		h.clients[vehicleID] = map[*Client]struct{}{}
	}
	h.clients[vehicleID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if vehicleClients, ok := h.clients[client.VehicleID]; ok {
		delete(vehicleClients, client)
		if len(vehicleClients) == 0 {
			delete(h.clients, client.VehicleID)
		}
	}
	close(client.Send)
}

// Broadcast delivers a payload to subscribers of a vehicle. With redis
// present, the payload goes through pubsub only; the local subscription
// loop delivers it, so clients never see the message twice.
func (h *Hub) Broadcast(vehicleID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(vehicleID), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
		return
	}
	h.deliver(vehicleID, payload)
}

// deliver fans out under the read lock so Unregister cannot close a
// channel mid-send. Sends are non-blocking, slow clients drop messages.
func (h *Hub) deliver(vehicleID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[vehicleID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "vehicles:*:broadcast")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.deliver(vehicleIDFromChannel(msg.Channel), []byte(msg.Payload))
	}
}

func redisChannel(vehicleID string) string {
	return "vehicles:" + vehicleID + ":broadcast"
}

func vehicleIDFromChannel(ch string) string {
	// vehicles:{vehicle}:broadcast
	const prefix = "vehicles:"
	const suffix = ":broadcast"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
