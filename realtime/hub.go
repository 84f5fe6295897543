package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/seed-sell/seedsell-api/models"
)

// pubSubChannel is the Redis channel used to fan out insert events across
// API instances.
const pubSubChannel = "chat:inserts"

// Event is the payload delivered on a push subscription.
type Event struct {
	Type    string             `json:"type"` // currently only "insert"
	Message models.ChatMessage `json:"message"`
}

// envelope wraps an event with its recipient for the Redis wire format.
type envelope struct {
	RecipientID string `json:"recipient_id"`
	Event       Event  `json:"event"`
}

// Subscription is a live push channel scoped to one recipient. Events arrive
// on C until Close is called. Close is safe to call more than once.
type Subscription struct {
	C chan Event

	hub    *Hub
	userID string
	once   sync.Once
}

// Close tears down the subscription and releases it from the hub.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
		close(s.C)
	})
}

// Hub routes message insert events to subscribers keyed by recipient user id.
// When a Redis client is provided, events travel through Redis pub/sub so
// every API instance delivers them; without Redis delivery is in-process only.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]struct{}

	redis  *redis.Client
	ctx    context.Context
	cancel context.CancelFunc
}

var hubInstance *Hub

// InitHub creates the hub singleton and starts its Redis listener if a
// client is provided.
func InitHub(rdb *redis.Client) *Hub {
	hubInstance = NewHub(rdb)
	hubInstance.Run()
	return hubInstance
}

// GetHub returns the hub singleton
func GetHub() *Hub {
	return hubInstance
}

// SetHub sets the hub singleton (primarily for testing)
func SetHub(h *Hub) {
	hubInstance = h
}

// NewHub creates a hub. rdb may be nil for single-instance deployments and tests.
func NewHub(rdb *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		subscribers: make(map[string]map[*Subscription]struct{}),
		redis:       rdb,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the Redis pub/sub listener goroutine when Redis is configured.
func (h *Hub) Run() {
	if h.redis == nil {
		return
	}

	go func() {
		pubsub := h.redis.Subscribe(h.ctx, pubSubChannel)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for msg := range ch {
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("Error unmarshalling pub/sub payload: %v", err)
				continue
			}
			h.deliver(env.RecipientID, env.Event)
		}
	}()
}

// Subscribe registers a push channel for the given recipient.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		C:      make(chan Event, 256),
		hub:    h,
		userID: userID,
	}

	h.mu.Lock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[*Subscription]struct{})
	}
	h.subscribers[userID][sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[sub.userID]
	if subs == nil {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subscribers, sub.userID)
	}
}

// PublishInsert announces a newly created message to its recipient. With
// Redis configured the event goes through pub/sub so other instances see it;
// otherwise it is delivered to local subscribers directly.
func (h *Hub) PublishInsert(recipientID string, msg models.ChatMessage) {
	event := Event{Type: "insert", Message: msg}

	if h.redis != nil {
		payload, err := json.Marshal(envelope{RecipientID: recipientID, Event: event})
		if err != nil {
			log.Printf("Error marshalling insert event: %v", err)
			return
		}
		if err := h.redis.Publish(h.ctx, pubSubChannel, payload).Err(); err != nil {
			log.Printf("Error publishing insert event: %v", err)
		}
		return
	}

	h.deliver(recipientID, event)
}

// deliver pushes an event to every live subscription for the recipient.
// Slow subscribers are skipped rather than blocking delivery.
func (h *Hub) deliver(recipientID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers[recipientID] {
		select {
		case sub.C <- event:
		default:
			log.Printf("Dropping event for slow subscriber %s", recipientID)
		}
	}
}

// Close stops the Redis listener. Open subscriptions remain valid but will
// no longer receive cross-instance events.
func (h *Hub) Close() {
	h.cancel()
}
