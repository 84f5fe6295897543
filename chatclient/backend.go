// Package chatclient implements the client side of the SeedSell messaging
// flow: room list, history loading, optimistic sends and realtime delivery.
// It is UI-free; callers render the view models it produces. All remote
// access goes through the Backend and Subscriber interfaces so the transport
// (the HTTP API, or a test double) is swappable without touching sync logic.
package chatclient

import (
	"context"
	"time"
)

// Profile is the cached identity of a marketplace user.
type Profile struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Location    string `json:"location"`
	Role        string `json:"role"`
}

// RoomRecord is a chat room as the backend returns it, with both display
// names resolved.
type RoomRecord struct {
	ID         string `json:"id"`
	BuyerID    string `json:"buyer_id"`
	FarmerID   string `json:"farmer_id"`
	BuyerName  string `json:"buyer_name"`
	FarmerName string `json:"farmer_name"`
}

// Message is a chat message view model. Pending marks an optimistic entry
// whose backend write has not confirmed yet.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"message_content"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
	Pending   bool      `json:"-"`
}

// Backend is the remote data gateway the messaging flow talks to. Every
// method is a suspension point: the caller stays responsive and must guard
// against stale responses itself.
type Backend interface {
	// FetchProfile returns the profile for a user id.
	FetchProfile(ctx context.Context, userID string) (Profile, error)

	// ListRooms returns every room the user participates in, in backend order.
	ListRooms(ctx context.Context, userID string) ([]RoomRecord, error)

	// StartChat returns the room for the (buyer, farmer) pair, creating it
	// if none exists yet.
	StartChat(ctx context.Context, buyerID, farmerID string) (RoomRecord, error)

	// ListMessages returns the full history of a room in ascending
	// creation-time order.
	ListMessages(ctx context.Context, roomID string) ([]Message, error)

	// MarkRoomRead marks every message in the room not sent by the user as read.
	MarkRoomRead(ctx context.Context, roomID, userID string) error

	// MarkMessageRead marks a single received message as read.
	MarkMessageRead(ctx context.Context, messageID, userID string) error

	// SendMessage persists a message and returns it with its assigned id.
	SendMessage(ctx context.Context, roomID, senderID, content string) (Message, error)

	// UnreadCounts returns the per-room unread totals for the user.
	UnreadCounts(ctx context.Context, userID string) (map[string]int64, error)
}

// Subscription is a live realtime channel handle. Close releases it; closing
// twice is harmless.
type Subscription interface {
	Close() error
}

// Subscriber creates push subscriptions for messages addressed to a user.
// The handler runs on the subscriber's delivery goroutine.
type Subscriber interface {
	SubscribeInserts(ctx context.Context, userID string, handler func(Message)) (Subscription, error)
}
