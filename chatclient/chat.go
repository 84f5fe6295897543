package chatclient

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Room is a room-list view model: the counterpart's identity plus the badge
// count for the current user.
type Room struct {
	ID              string
	CounterpartID   string
	CounterpartName string
	Unread          int64
}

var (
	// ErrNotSignedIn is returned when an operation needs an active session.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrStaleLoad is returned when a history response arrives after the
	// user has already opened a different room. Callers render nothing.
	ErrStaleLoad = errors.New("room changed while loading")
)

// Client drives the messaging flow for one signed-in session. It owns what
// used to be page-level globals: the active room id, the transcript with its
// date cursor, the unread index and the single realtime subscription handle.
//
// Every remote call can overlap with user actions, so loads carry a sequence
// number and only the response matching the currently active room renders.
type Client struct {
	mu         sync.Mutex
	backend    Backend
	subscriber Subscriber
	guard      *Guard

	activeRoomID string
	loadSeq      uint64
	transcript   *Transcript

	unread    map[string]int64
	hasUnread bool

	sub       Subscription
	inputBusy bool
}

// NewClient creates a messaging client for the given session guard.
func NewClient(backend Backend, subscriber Subscriber, guard *Guard) *Client {
	return &Client{
		backend:    backend,
		subscriber: subscriber,
		guard:      guard,
		unread:     make(map[string]int64),
	}
}

// SignIn establishes the session and dials the notification subscription
// right away, so inserts bump the unread badges while the user is still on
// the room list or anywhere else without an open conversation.
func (c *Client) SignIn(ctx context.Context, userID string) {
	c.guard.SignIn(ctx, userID)

	c.mu.Lock()
	seq := c.loadSeq
	c.mu.Unlock()
	c.resubscribe(ctx, seq)
}

// LoadRooms fetches the unread index and the room list, resolving each
// counterpart's display name for the viewer. Rooms keep backend order. A
// failed unread fetch degrades to empty badges; a failed room query is the
// caller's error state.
func (c *Client) LoadRooms(ctx context.Context) ([]Room, error) {
	userID := c.guard.UserID()
	if userID == "" {
		return nil, ErrNotSignedIn
	}

	counts, err := c.backend.UnreadCounts(ctx, userID)
	if err != nil {
		log.Printf("Failed to fetch unread counts: %v", err)
		counts = nil
	}

	c.mu.Lock()
	c.unread = make(map[string]int64, len(counts))
	for roomID, n := range counts {
		c.unread[roomID] = n
	}
	c.hasUnread = len(counts) > 0
	c.mu.Unlock()

	records, err := c.backend.ListRooms(ctx, userID)
	if err != nil {
		return nil, err
	}

	rooms := make([]Room, 0, len(records))
	for _, rec := range records {
		room := Room{ID: rec.ID}
		if rec.BuyerID == userID {
			room.CounterpartID = rec.FarmerID
			room.CounterpartName = rec.FarmerName
		} else {
			room.CounterpartID = rec.BuyerID
			room.CounterpartName = rec.BuyerName
		}
		room.Unread = counts[rec.ID]
		rooms = append(rooms, room)
	}

	return rooms, nil
}

// StartChat opens (or creates) the room pairing the signed-in buyer with a
// farmer. Repeating the call for the same pair returns the same room.
func (c *Client) StartChat(ctx context.Context, farmerID string) (RoomRecord, error) {
	userID := c.guard.UserID()
	if userID == "" {
		return RoomRecord{}, ErrNotSignedIn
	}
	return c.backend.StartChat(ctx, userID, farmerID)
}

// OpenRoom makes roomID the active conversation: clears its badge, issues
// the one mark-read write for messages addressed to the viewer, refreshes
// the unread index, fetches history and renders it, then swaps the realtime
// subscription over to the new room context.
//
// If the user opens another room while this load is in flight, the late
// response is discarded and ErrStaleLoad is returned.
func (c *Client) OpenRoom(ctx context.Context, roomID string) ([]Entry, error) {
	userID := c.guard.UserID()
	if userID == "" {
		return nil, ErrNotSignedIn
	}

	c.mu.Lock()
	c.activeRoomID = roomID
	c.loadSeq++
	seq := c.loadSeq
	c.transcript = NewTranscript(userID)
	// Badge cleared optimistically, without re-querying
	delete(c.unread, roomID)
	c.hasUnread = len(c.unread) > 0
	c.mu.Unlock()

	if err := c.backend.MarkRoomRead(ctx, roomID, userID); err != nil {
		return nil, err
	}

	// Refresh the header indicator now that this room is read
	if counts, err := c.backend.UnreadCounts(ctx, userID); err == nil {
		c.mu.Lock()
		if c.loadSeq == seq {
			c.unread = counts
			c.hasUnread = len(counts) > 0
		}
		c.mu.Unlock()
	} else {
		log.Printf("Failed to refresh unread counts: %v", err)
	}

	msgs, err := c.backend.ListMessages(ctx, roomID)

	c.mu.Lock()
	if c.loadSeq != seq {
		c.mu.Unlock()
		return nil, ErrStaleLoad
	}
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.transcript.AppendAll(msgs)
	entries := c.transcript.Entries()
	c.mu.Unlock()

	c.resubscribe(ctx, seq)

	return entries, nil
}

// CloseRoom leaves the active conversation. The subscription stays up so
// inserts keep feeding the unread badges.
func (c *Client) CloseRoom() {
	c.mu.Lock()
	c.activeRoomID = ""
	c.transcript = nil
	c.mu.Unlock()
}

// Send transmits trimmed message text to the active room, rendering the
// optimistic entry before the write confirms. It reports false for no-ops:
// whitespace-only input, no active room, or no session.
//
// A failed write is logged and the optimistic entry stays; the returned
// message then still carries its temporary id.
func (c *Client) Send(ctx context.Context, text string) (Message, bool) {
	userID := c.guard.UserID()
	content := strings.TrimSpace(text)

	c.mu.Lock()
	if content == "" || userID == "" || c.activeRoomID == "" || c.transcript == nil {
		c.mu.Unlock()
		return Message{}, false
	}

	roomID := c.activeRoomID
	temp := Message{
		ID:        "temp-" + uuid.NewString(),
		RoomID:    roomID,
		SenderID:  userID,
		Content:   content,
		CreatedAt: time.Now(),
		Pending:   true,
	}
	c.transcript.Append(temp)
	c.inputBusy = true
	c.mu.Unlock()

	saved, err := c.backend.SendMessage(ctx, roomID, userID, content)

	c.mu.Lock()
	// Input is re-enabled regardless of outcome
	c.inputBusy = false
	if err != nil {
		c.mu.Unlock()
		log.Printf("Error sending message: %v", err)
		return temp, true
	}

	// Swap the temporary id for the assigned one so the realtime echo of
	// this message is recognized as a duplicate.
	if c.transcript != nil {
		c.transcript.Reconcile(temp.ID, saved)
	}
	c.mu.Unlock()

	temp.ID = saved.ID
	temp.Pending = false
	return temp, true
}

// SignOut tears down the realtime subscription unconditionally and clears
// all conversation state along with the session.
func (c *Client) SignOut() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.activeRoomID = ""
	c.transcript = nil
	c.unread = make(map[string]int64)
	c.hasUnread = false
	c.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			log.Printf("Error closing subscription: %v", err)
		}
	}

	c.guard.SignOut()
}

// Transcript returns the rendered rows of the open conversation.
func (c *Client) Transcript() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transcript == nil {
		return nil
	}
	return c.transcript.Entries()
}

// ActiveRoomID returns the open room's id, or "" when none is open.
func (c *Client) ActiveRoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeRoomID
}

// InputBusy reports whether a send is in flight (the input stays disabled).
func (c *Client) InputBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputBusy
}

// HasUnread reports whether any room has unread messages (header badge).
func (c *Client) HasUnread() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasUnread
}

// UnreadCount returns the badge count for one room.
func (c *Client) UnreadCount(roomID string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread[roomID]
}

// resubscribe replaces the realtime subscription so its handler runs against
// the current room context. The previous handle is closed first; two live
// subscriptions would deliver every event twice.
func (c *Client) resubscribe(ctx context.Context, seq uint64) {
	userID := c.guard.UserID()
	if userID == "" || c.subscriber == nil {
		return
	}

	c.mu.Lock()
	old := c.sub
	c.sub = nil
	c.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			log.Printf("Error closing subscription: %v", err)
		}
	}

	sub, err := c.subscriber.SubscribeInserts(ctx, userID, func(msg Message) {
		c.handleInsert(context.Background(), msg)
	})
	if err != nil {
		log.Printf("Failed to subscribe to inserts: %v", err)
		return
	}

	c.mu.Lock()
	if c.loadSeq != seq {
		// Another room open raced us and owns the subscription now
		c.mu.Unlock()
		sub.Close()
		return
	}
	c.sub = sub
	c.mu.Unlock()
}

// handleInsert merges one realtime event: append-and-mark-read when it
// belongs to the open room and is not already rendered, badge bump otherwise.
func (c *Client) handleInsert(ctx context.Context, msg Message) {
	c.mu.Lock()

	if msg.RoomID == c.activeRoomID && c.transcript != nil {
		appended := c.transcript.Append(msg)
		c.mu.Unlock()

		if appended {
			userID := c.guard.UserID()
			if err := c.backend.MarkMessageRead(ctx, msg.ID, userID); err != nil {
				log.Printf("Failed to mark message %s read: %v", msg.ID, err)
			}
		}
		return
	}

	c.unread[msg.RoomID]++
	c.hasUnread = true
	c.mu.Unlock()
}

// RoomIDFromURL extracts the room_id deep-link parameter from a messages
// page URL, or "" when absent.
func RoomIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get("room_id")
}
