package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/seed-sell/seedsell-api/chatclient"
	"github.com/seed-sell/seedsell-api/config"
	"github.com/seed-sell/seedsell-api/controllers"
	"github.com/seed-sell/seedsell-api/models"
	"github.com/seed-sell/seedsell-api/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// tokenAuthMiddleware resolves bearer tokens to user ids for tests, standing
// in for the JWT middleware
func tokenAuthMiddleware(tokens map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		userID, ok := tokens[token]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "INVALID_TOKEN", "message": "Unknown token"},
			})
			return
		}
		c.Set("user_id", userID)
		c.Set("access_token", token)
		c.Next()
	}
}

// setupIntegrationServer wires the full messaging stack: SQLite, the realtime
// hub and the v1 routes, served over a real HTTP listener
func setupIntegrationServer(t *testing.T, tokens map[string]string) (*httptest.Server, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&models.ChatRoom{},
		&models.ChatMessage{},
		&models.Listing{},
	))
	config.SetDB(db)

	hub := realtime.NewHub(nil)
	realtime.SetHub(hub)
	t.Cleanup(func() {
		realtime.SetHub(nil)
		hub.Close()
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()

	v1 := router.Group("/api/v1", tokenAuthMiddleware(tokens))
	{
		v1.GET("/profiles/me", controllers.GetMyProfile)
		v1.GET("/rooms", controllers.ListRooms)
		v1.POST("/rooms", controllers.StartChat)
		v1.GET("/rooms/:id/messages", controllers.ListRoomMessages)
		v1.POST("/rooms/:id/messages", controllers.SendRoomMessage)
		v1.POST("/rooms/:id/read", controllers.MarkRoomRead)
		v1.POST("/messages/:id/read", controllers.MarkMessageRead)
		v1.GET("/messages/unread-counts", controllers.GetUnreadCounts)
		v1.GET("/ws", controllers.ServeWebSocket)
	}

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, db
}

// TestChatFlowEndToEnd walks the full conversation flow: the buyer opens a
// chat and sends a message over HTTP, the farmer receives it through the
// websocket push channel and it lands marked read.
func TestChatFlowEndToEnd(t *testing.T) {
	tokens := map[string]string{
		"buyer-token":  "auth0|buyer1",
		"farmer-token": "auth0|farmer1",
	}
	server, db := setupIntegrationServer(t, tokens)

	require.NoError(t, db.Create(&models.Profile{
		ID: "auth0|buyer1", FullName: "Tendai Moyo", PhoneNumber: "+263771234567",
		Location: "Harare", Role: "buyer",
	}).Error)
	require.NoError(t, db.Create(&models.Profile{
		ID: "auth0|farmer1", FullName: "Rudo Chikafu", PhoneNumber: "+263779876543",
		Location: "Mutare", Role: "farmer",
	}).Error)

	ctx := context.Background()

	// Buyer side
	buyerBackend := chatclient.NewHTTPBackend(server.URL, "buyer-token")
	buyerGuard := chatclient.NewGuard(buyerBackend)
	buyer := chatclient.NewClient(buyerBackend, chatclient.NewWSSubscriber(server.URL, "buyer-token"), buyerGuard)
	buyer.SignIn(ctx, "auth0|buyer1")

	// Farmer side
	farmerBackend := chatclient.NewHTTPBackend(server.URL, "farmer-token")
	farmerGuard := chatclient.NewGuard(farmerBackend)
	farmer := chatclient.NewClient(farmerBackend, chatclient.NewWSSubscriber(server.URL, "farmer-token"), farmerGuard)
	farmer.SignIn(ctx, "auth0|farmer1")
	defer farmer.SignOut()
	defer buyer.SignOut()

	require.NotNil(t, farmerGuard.Profile())
	assert.Equal(t, "Rudo Chikafu", farmerGuard.Profile().FullName)

	// The buyer starts a chat; repeating it returns the same room
	room, err := buyer.StartChat(ctx, "auth0|farmer1")
	require.NoError(t, err)
	again, err := buyer.StartChat(ctx, "auth0|farmer1")
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)

	// Both sides open the room; this dials the websocket subscriptions
	_, err = buyer.OpenRoom(ctx, room.ID)
	require.NoError(t, err)
	_, err = farmer.OpenRoom(ctx, room.ID)
	require.NoError(t, err)

	// The buyer sends; the farmer's open room receives it over the push channel
	sent, ok := buyer.Send(ctx, "  Do you still have maize seed?  ")
	require.True(t, ok)
	assert.Equal(t, "Do you still have maize seed?", sent.Content)

	assert.Eventually(t, func() bool {
		for _, entry := range farmer.Transcript() {
			if entry.Kind == chatclient.EntryMessage && entry.Message.ID == sent.ID {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond, "farmer should receive the message via websocket")

	// Receiving into an open room marks the message read on the backend
	assert.Eventually(t, func() bool {
		var message models.ChatMessage
		if err := db.First(&message, "id = ?", sent.ID).Error; err != nil {
			return false
		}
		return message.IsRead
	}, 5*time.Second, 20*time.Millisecond, "received message should be marked read")

	// The buyer's own echo never duplicates the optimistic bubble
	texts := 0
	for _, entry := range buyer.Transcript() {
		if entry.Kind == chatclient.EntryMessage {
			texts++
		}
	}
	assert.Equal(t, 1, texts)

	// With the farmer's room open, nothing is left unread anywhere
	counts, err := farmerBackend.UnreadCounts(ctx, "auth0|farmer1")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

// TestUnreadFlowEndToEnd checks the badge path: messages into a room the
// recipient has not opened accumulate as unread until the room is opened.
func TestUnreadFlowEndToEnd(t *testing.T) {
	tokens := map[string]string{
		"buyer-token":  "auth0|buyer1",
		"farmer-token": "auth0|farmer1",
	}
	server, db := setupIntegrationServer(t, tokens)

	require.NoError(t, db.Create(&models.Profile{
		ID: "auth0|buyer1", FullName: "Tendai Moyo", PhoneNumber: "+263771234567",
		Location: "Harare", Role: "buyer",
	}).Error)
	require.NoError(t, db.Create(&models.Profile{
		ID: "auth0|farmer1", FullName: "Rudo Chikafu", PhoneNumber: "+263779876543",
		Location: "Mutare", Role: "farmer",
	}).Error)

	ctx := context.Background()

	buyerBackend := chatclient.NewHTTPBackend(server.URL, "buyer-token")
	buyerGuard := chatclient.NewGuard(buyerBackend)
	buyer := chatclient.NewClient(buyerBackend, chatclient.NewWSSubscriber(server.URL, "buyer-token"), buyerGuard)
	buyer.SignIn(ctx, "auth0|buyer1")
	defer buyer.SignOut()

	room, err := buyer.StartChat(ctx, "auth0|farmer1")
	require.NoError(t, err)
	_, err = buyer.OpenRoom(ctx, room.ID)
	require.NoError(t, err)

	for _, text := range []string{"First", "Second", "Third"} {
		_, ok := buyer.Send(ctx, text)
		require.True(t, ok)
	}

	// The farmer has not opened anything yet; the index shows three unread
	farmerBackend := chatclient.NewHTTPBackend(server.URL, "farmer-token")
	farmerGuard := chatclient.NewGuard(farmerBackend)
	farmer := chatclient.NewClient(farmerBackend, chatclient.NewWSSubscriber(server.URL, "farmer-token"), farmerGuard)
	farmer.SignIn(ctx, "auth0|farmer1")
	defer farmer.SignOut()

	rooms, err := farmer.LoadRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(3), rooms[0].Unread)
	assert.Equal(t, "Tendai Moyo", rooms[0].CounterpartName)
	assert.True(t, farmer.HasUnread())

	// With the farmer still on the room list, a fourth message bumps the
	// badge through the push channel dialed at sign-in
	_, ok := buyer.Send(ctx, "Fourth")
	require.True(t, ok)
	assert.Eventually(t, func() bool {
		return farmer.UnreadCount(room.ID) == 4
	}, 5*time.Second, 20*time.Millisecond, "badge should bump before any room is opened")

	// Opening the room clears the backlog in one write
	entries, err := farmer.OpenRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), farmer.UnreadCount(room.ID))

	var unread int64
	db.Model(&models.ChatMessage{}).
		Where("room_id = ? AND sender_id <> ? AND is_read = ?", room.ID, "auth0|farmer1", false).
		Count(&unread)
	assert.Equal(t, int64(0), unread)

	// History renders in order under a single date header
	var texts []string
	headers := 0
	for _, entry := range entries {
		switch entry.Kind {
		case chatclient.EntryDateHeader:
			headers++
		case chatclient.EntryMessage:
			texts = append(texts, entry.Message.Content)
		}
	}
	assert.Equal(t, 1, headers)
	assert.Equal(t, []string{"First", "Second", "Third", "Fourth"}, texts)
}
