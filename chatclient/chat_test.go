package chatclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory Backend that records calls for assertions
type fakeBackend struct {
	mu sync.Mutex

	profiles map[string]Profile
	rooms    []RoomRecord
	messages map[string][]Message
	counts   map[string]int64

	nextID  int
	sendErr error

	markRoomReadCalls    []string
	markMessageReadCalls []string

	// fetchProfileHook and listMessagesHook run before the call returns,
	// letting tests interleave user actions with in-flight requests
	fetchProfileHook func(userID string)
	listMessagesHook func(roomID string)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		profiles: make(map[string]Profile),
		messages: make(map[string][]Message),
		counts:   make(map[string]int64),
	}
}

func (f *fakeBackend) FetchProfile(ctx context.Context, userID string) (Profile, error) {
	if f.fetchProfileHook != nil {
		f.fetchProfileHook(userID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[userID]
	if !ok {
		return Profile{}, errors.New("profile not found")
	}
	return profile, nil
}

func (f *fakeBackend) ListRooms(ctx context.Context, userID string) ([]RoomRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RoomRecord, len(f.rooms))
	copy(out, f.rooms)
	return out, nil
}

func (f *fakeBackend) StartChat(ctx context.Context, buyerID, farmerID string) (RoomRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, room := range f.rooms {
		if room.BuyerID == buyerID && room.FarmerID == farmerID {
			return room, nil
		}
	}

	room := RoomRecord{ID: "room-" + farmerID, BuyerID: buyerID, FarmerID: farmerID}
	f.rooms = append(f.rooms, room)
	return room, nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, roomID string) ([]Message, error) {
	if f.listMessagesHook != nil {
		f.listMessagesHook(roomID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.messages[roomID]))
	copy(out, f.messages[roomID])
	return out, nil
}

func (f *fakeBackend) MarkRoomRead(ctx context.Context, roomID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markRoomReadCalls = append(f.markRoomReadCalls, roomID)
	delete(f.counts, roomID)
	return nil
}

func (f *fakeBackend) MarkMessageRead(ctx context.Context, messageID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markMessageReadCalls = append(f.markMessageReadCalls, messageID)
	return nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, roomID, senderID, content string) (Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return Message{}, f.sendErr
	}

	f.nextID++
	msg := Message{
		ID:        fmt.Sprintf("srv-%d", f.nextID),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.messages[roomID] = append(f.messages[roomID], msg)
	return msg, nil
}

func (f *fakeBackend) UnreadCounts(ctx context.Context, userID string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64, len(f.counts))
	for roomID, n := range f.counts {
		out[roomID] = n
	}
	return out, nil
}

func (f *fakeBackend) roomReadCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.markRoomReadCalls))
	copy(out, f.markRoomReadCalls)
	return out
}

func (f *fakeBackend) messageReadCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.markMessageReadCalls))
	copy(out, f.markMessageReadCalls)
	return out
}

// fakeSubscription records whether it was closed
type fakeSubscription struct {
	mu     sync.Mutex
	closed bool
}

func (s *fakeSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeSubscriber hands out fakeSubscriptions and keeps the latest handler so
// tests can push events through it
type fakeSubscriber struct {
	mu      sync.Mutex
	subs    []*fakeSubscription
	handler func(Message)
}

func (f *fakeSubscriber) SubscribeInserts(ctx context.Context, userID string, handler func(Message)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSubscription{}
	f.subs = append(f.subs, sub)
	f.handler = handler
	return sub, nil
}

func (f *fakeSubscriber) deliver(msg Message) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		handler(msg)
	}
}

func (f *fakeSubscriber) subscription(i int) *fakeSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[i]
}

func (f *fakeSubscriber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// newTestClient wires a signed-in client against fresh fakes
func newTestClient(t *testing.T, userID string) (*Client, *fakeBackend, *fakeSubscriber) {
	backend := newFakeBackend()
	backend.profiles[userID] = Profile{ID: userID, FullName: "Test User", Role: "buyer"}

	subscriber := &fakeSubscriber{}
	client := NewClient(backend, subscriber, NewGuard(backend))
	client.SignIn(context.Background(), userID)

	return client, backend, subscriber
}

func messageTexts(entries []Entry) []string {
	var out []string
	for _, entry := range entries {
		if entry.Kind == EntryMessage {
			out = append(out, entry.Message.Content)
		}
	}
	return out
}

func TestLoadRooms(t *testing.T) {
	client, backend, _ := newTestClient(t, "buyer-1")

	backend.rooms = []RoomRecord{
		{ID: "room-a", BuyerID: "buyer-1", FarmerID: "farmer-1", BuyerName: "Tendai", FarmerName: "Rudo"},
		{ID: "room-b", BuyerID: "buyer-1", FarmerID: "farmer-2", BuyerName: "Tendai", FarmerName: "Takunda"},
	}
	backend.counts["room-b"] = 3

	rooms, err := client.LoadRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	// The viewer is the buyer, so the counterpart is the farmer
	assert.Equal(t, "farmer-1", rooms[0].CounterpartID)
	assert.Equal(t, "Rudo", rooms[0].CounterpartName)
	assert.Equal(t, int64(0), rooms[0].Unread)

	assert.Equal(t, "Takunda", rooms[1].CounterpartName)
	assert.Equal(t, int64(3), rooms[1].Unread)

	assert.True(t, client.HasUnread())
}

func TestLoadRoomsCounterpartForFarmer(t *testing.T) {
	client, backend, _ := newTestClient(t, "farmer-1")

	backend.rooms = []RoomRecord{
		{ID: "room-a", BuyerID: "buyer-1", FarmerID: "farmer-1", BuyerName: "Tendai", FarmerName: "Rudo"},
	}

	rooms, err := client.LoadRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	assert.Equal(t, "buyer-1", rooms[0].CounterpartID)
	assert.Equal(t, "Tendai", rooms[0].CounterpartName)
}

func TestLoadRoomsRequiresSession(t *testing.T) {
	backend := newFakeBackend()
	client := NewClient(backend, &fakeSubscriber{}, NewGuard(backend))

	_, err := client.LoadRooms(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestOpenRoomRendersHistoryAndMarksReadOnce(t *testing.T) {
	client, backend, _ := newTestClient(t, "buyer-1")

	now := time.Now()
	backend.messages["room-a"] = []Message{
		{ID: "m1", RoomID: "room-a", SenderID: "farmer-1", Content: "Seed in stock", CreatedAt: now.Add(-2 * time.Minute)},
		{ID: "m2", RoomID: "room-a", SenderID: "buyer-1", Content: "Reserve two bags", CreatedAt: now.Add(-time.Minute)},
	}
	backend.counts["room-a"] = 1

	entries, err := client.OpenRoom(context.Background(), "room-a")
	require.NoError(t, err)

	assert.Equal(t, []string{"Seed in stock", "Reserve two bags"}, messageTexts(entries))
	assert.Equal(t, "room-a", client.ActiveRoomID())

	// Opening issues the mark-read write exactly once
	assert.Equal(t, []string{"room-a"}, backend.roomReadCalls())

	// The badge for the opened room is gone
	assert.Equal(t, int64(0), client.UnreadCount("room-a"))
	assert.False(t, client.HasUnread())
}

func TestOpenRoomDiscardsStaleResponse(t *testing.T) {
	client, backend, _ := newTestClient(t, "buyer-1")

	backend.messages["room-a"] = []Message{
		{ID: "a1", RoomID: "room-a", SenderID: "farmer-1", Content: "From room A", CreatedAt: time.Now()},
	}
	backend.messages["room-b"] = []Message{
		{ID: "b1", RoomID: "room-b", SenderID: "farmer-2", Content: "From room B", CreatedAt: time.Now()},
	}

	// While room A's history is still in flight, the user opens room B
	opened := false
	backend.listMessagesHook = func(roomID string) {
		if roomID == "room-a" && !opened {
			opened = true
			backend.listMessagesHook = nil
			_, err := client.OpenRoom(context.Background(), "room-b")
			require.NoError(t, err)
		}
	}

	_, err := client.OpenRoom(context.Background(), "room-a")
	assert.ErrorIs(t, err, ErrStaleLoad)

	// Only room B's history is rendered
	assert.Equal(t, "room-b", client.ActiveRoomID())
	assert.Equal(t, []string{"From room B"}, messageTexts(client.Transcript()))
}

func TestOpenRoomReplacesSubscription(t *testing.T) {
	client, _, subscriber := newTestClient(t, "buyer-1")
	require.Equal(t, 1, subscriber.count())

	_, err := client.OpenRoom(context.Background(), "room-a")
	require.NoError(t, err)
	require.Equal(t, 2, subscriber.count())

	_, err = client.OpenRoom(context.Background(), "room-b")
	require.NoError(t, err)
	require.Equal(t, 3, subscriber.count())

	// Each handle was released before its replacement went live
	assert.True(t, subscriber.subscription(0).isClosed())
	assert.True(t, subscriber.subscription(1).isClosed())
	assert.False(t, subscriber.subscription(2).isClosed())
}

func TestSignInStartsBadgeFeed(t *testing.T) {
	client, backend, subscriber := newTestClient(t, "buyer-1")

	// Signed in with no room opened: the subscription is already live
	require.Equal(t, 1, subscriber.count())
	assert.False(t, subscriber.subscription(0).isClosed())

	backend.rooms = []RoomRecord{
		{ID: "room-a", BuyerID: "buyer-1", FarmerID: "farmer-1", BuyerName: "Tendai", FarmerName: "Rudo"},
	}
	_, err := client.LoadRooms(context.Background())
	require.NoError(t, err)

	// An insert arriving while the user sits on the room list bumps the
	// badge without rendering or marking anything read
	subscriber.deliver(Message{
		ID:       "m-bg",
		RoomID:   "room-a",
		SenderID: "farmer-1",
		Content:  "Any maize seed left?",
	})

	assert.True(t, client.HasUnread())
	assert.Equal(t, int64(1), client.UnreadCount("room-a"))
	assert.Empty(t, client.Transcript())
	assert.Empty(t, backend.messageReadCalls())
}

func TestSendOptimisticThenReconciled(t *testing.T) {
	client, backend, subscriber := newTestClient(t, "buyer-1")

	_, err := client.OpenRoom(context.Background(), "room-a")
	require.NoError(t, err)

	sent, ok := client.Send(context.Background(), "  Hello there  ")
	require.True(t, ok)

	// Content was trimmed and the backend id took over from the temp id
	assert.Equal(t, "Hello there", sent.Content)
	assert.False(t, strings.HasPrefix(sent.ID, "temp-"))
	assert.False(t, sent.Pending)

	entries := client.Transcript()
	assert.Equal(t, []string{"Hello there"}, messageTexts(entries))

	// The realtime echo of the same message must not render twice
	subscriber.deliver(Message{
		ID:       sent.ID,
		RoomID:   "room-a",
		SenderID: "buyer-1",
		Content:  "Hello there",
	})
	assert.Equal(t, []string{"Hello there"}, messageTexts(client.Transcript()))

	// A deduplicated echo is not marked read either
	assert.Empty(t, backend.messageReadCalls())
}

func TestSendEmptyInputIsNoOp(t *testing.T) {
	client, backend, _ := newTestClient(t, "buyer-1")

	_, err := client.OpenRoom(context.Background(), "room-a")
	require.NoError(t, err)

	for _, input := range []string{"", "   ", "\n\t  "} {
		_, ok := client.Send(context.Background(), input)
		assert.False(t, ok, "input %q should not send", input)
	}

	assert.Empty(t, client.Transcript())
	assert.Empty(t, backend.messages["room-a"])
}

func TestSendWithoutOpenRoomIsNoOp(t *testing.T) {
	client, _, _ := newTestClient(t, "buyer-1")

	_, ok := client.Send(context.Background(), "Hello")
	assert.False(t, ok)
}

func TestSendFailureKeepsOptimisticBubble(t *testing.T) {
	client, backend, _ := newTestClient(t, "buyer-1")

	_, err := client.OpenRoom(context.Background(), "room-a")
	require.NoError(t, err)

	backend.sendErr = errors.New("network down")

	sent, ok := client.Send(context.Background(), "Hello")
	require.True(t, ok)

	// The bubble stays with its temporary id, input is usable again
	assert.True(t, strings.HasPrefix(sent.ID, "temp-"))
	assert.True(t, sent.Pending)
	assert.Equal(t, []string{"Hello"}, messageTexts(client.Transcript()))
	assert.False(t, client.InputBusy())
}

func TestInsertForOpenRoomAppendsAndMarksRead(t *testing.T) {
	client, backend, subscriber := newTestClient(t, "buyer-1")

	_, err := client.OpenRoom(context.Background(), "room-a")
	require.NoError(t, err)

	subscriber.deliver(Message{
		ID:        "m-new",
		RoomID:    "room-a",
		SenderID:  "farmer-1",
		Content:   "Fresh stock today",
		CreatedAt: time.Now(),
	})

	assert.Equal(t, []string{"Fresh stock today"}, messageTexts(client.Transcript()))
	assert.Equal(t, []string{"m-new"}, backend.messageReadCalls())

	// Redelivery of the same event renders nothing new
	subscriber.deliver(Message{ID: "m-new", RoomID: "room-a", SenderID: "farmer-1", Content: "Fresh stock today"})
	assert.Equal(t, []string{"Fresh stock today"}, messageTexts(client.Transcript()))
	assert.Equal(t, []string{"m-new"}, backend.messageReadCalls())
}

func TestInsertForOtherRoomBumpsBadge(t *testing.T) {
	client, backend, subscriber := newTestClient(t, "buyer-1")

	_, err := client.OpenRoom(context.Background(), "room-a")
	require.NoError(t, err)

	subscriber.deliver(Message{
		ID:       "m-bg",
		RoomID:   "room-b",
		SenderID: "farmer-2",
		Content:  "Background message",
	})

	// Not rendered, not marked read, counted as unread
	assert.Empty(t, messageTexts(client.Transcript()))
	assert.Empty(t, backend.messageReadCalls())
	assert.Equal(t, int64(1), client.UnreadCount("room-b"))
	assert.True(t, client.HasUnread())
}

func TestStartChatSamePairReturnsSameRoom(t *testing.T) {
	client, _, _ := newTestClient(t, "buyer-1")

	first, err := client.StartChat(context.Background(), "farmer-1")
	require.NoError(t, err)

	second, err := client.StartChat(context.Background(), "farmer-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestSignOutTearsDownSubscription(t *testing.T) {
	client, _, subscriber := newTestClient(t, "buyer-1")

	_, err := client.OpenRoom(context.Background(), "room-a")
	require.NoError(t, err)
	require.Equal(t, 2, subscriber.count())

	client.SignOut()

	assert.True(t, subscriber.subscription(1).isClosed())
	assert.Equal(t, "", client.ActiveRoomID())
	assert.Empty(t, client.Transcript())
	assert.False(t, client.HasUnread())
}

func TestCloseRoomKeepsBadgeFeed(t *testing.T) {
	client, _, subscriber := newTestClient(t, "buyer-1")

	_, err := client.OpenRoom(context.Background(), "room-a")
	require.NoError(t, err)

	client.CloseRoom()
	assert.Equal(t, "", client.ActiveRoomID())

	// Events for the closed room now feed the badge instead of a transcript
	subscriber.deliver(Message{ID: "m-late", RoomID: "room-a", SenderID: "farmer-1", Content: "Late"})
	assert.Equal(t, int64(1), client.UnreadCount("room-a"))
}

func TestRoomIDFromURL(t *testing.T) {
	assert.Equal(t, "room-42", RoomIDFromURL("https://seedsell.co.zw/messages.html?room_id=room-42"))
	assert.Equal(t, "", RoomIDFromURL("https://seedsell.co.zw/messages.html"))
	assert.Equal(t, "", RoomIDFromURL("://not a url"))
}
