package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/seed-sell/seedsell-api/config"
	"github.com/seed-sell/seedsell-api/middleware"
	"github.com/seed-sell/seedsell-api/models"
	"github.com/seed-sell/seedsell-api/realtime"
)

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	MessageContent string `json:"message_content" binding:"required"`
}

// ListRoomMessages handles GET /api/v1/rooms/:id/messages - returns the full
// message history of a room in ascending creation-time order. Marking the
// room read is a separate write (MarkRoomRead) so clients control when it
// happens relative to the fetch.
func ListRoomMessages(c *gin.Context) {
	// Extract user ID from JWT token
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	// Get room ID from URL parameter
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Room ID is required",
			},
		})
		return
	}

	// Fetch the room
	db := config.GetDB()
	var room models.ChatRoom
	if err := db.First(&room, "id = ?", roomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ROOM_NOT_FOUND",
				"message": "Chat room not found",
			},
		})
		return
	}

	// Authorization check: only participants may read a room. Client-side
	// filters are advisory; this check is the one that counts.
	if !roomMember(&room, userID) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to view this chat room",
			},
		})
		return
	}

	// Fetch messages in creation order
	var messages []models.ChatMessage
	if err := db.Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch messages",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// SendRoomMessage handles POST /api/v1/rooms/:id/messages - sends a message
// in a room and pushes an insert event to the other participant.
func SendRoomMessage(c *gin.Context) {
	// Extract user ID from JWT token
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	// Get room ID from URL parameter
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Room ID is required",
			},
		})
		return
	}

	// Fetch the room
	db := config.GetDB()
	var room models.ChatRoom
	if err := db.First(&room, "id = ?", roomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ROOM_NOT_FOUND",
				"message": "Chat room not found",
			},
		})
		return
	}

	// Authorization check: only participants may send into a room
	if !roomMember(&room, userID) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to message in this chat room",
			},
		})
		return
	}

	// Parse request body
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	// Whitespace-only content never reaches the table
	content := strings.TrimSpace(req.MessageContent)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Message content must not be empty",
			},
		})
		return
	}

	// Create the message
	message := models.ChatMessage{
		RoomID:         roomID,
		SenderID:       userID,
		MessageContent: content,
	}

	if err := db.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create message",
			},
		})
		return
	}

	// Notify the recipient's push channel
	if hub := realtime.GetHub(); hub != nil {
		hub.PublishInsert(roomCounterpart(&room, userID), message)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// MarkRoomRead handles POST /api/v1/rooms/:id/read - marks every unread
// message in the room addressed to the caller as read. Clients issue this
// once when opening a room, before fetching history.
func MarkRoomRead(c *gin.Context) {
	// Extract user ID from JWT token
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	// Get room ID from URL parameter
	roomID := c.Param("id")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Room ID is required",
			},
		})
		return
	}

	// Fetch the room
	db := config.GetDB()
	var room models.ChatRoom
	if err := db.First(&room, "id = ?", roomID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ROOM_NOT_FOUND",
				"message": "Chat room not found",
			},
		})
		return
	}

	if !roomMember(&room, userID) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to view this chat room",
			},
		})
		return
	}

	// Only messages from the other side count; own messages stay untouched
	if err := db.Model(&models.ChatMessage{}).
		Where("room_id = ? AND sender_id <> ? AND is_read = ?", roomID, userID, false).
		Update("is_read", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update read status",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// MarkMessageRead handles POST /api/v1/messages/:id/read - marks a single
// message as read. Only the recipient may do this; marking your own message
// is a no-op by the sender guard in the update clause.
func MarkMessageRead(c *gin.Context) {
	// Extract user ID from JWT token
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	// Get message ID from URL parameter
	messageID := c.Param("id")
	if messageID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Message ID is required",
			},
		})
		return
	}

	// Fetch the message together with its room for the membership check
	db := config.GetDB()
	var message models.ChatMessage
	if err := db.Preload("Room").First(&message, "id = ?", messageID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MESSAGE_NOT_FOUND",
				"message": "Message not found",
			},
		})
		return
	}

	if !roomMember(&message.Room, userID) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to update this message",
			},
		})
		return
	}

	// Idempotent: already-read messages and own messages are left untouched
	if err := db.Model(&models.ChatMessage{}).
		Where("id = ? AND sender_id <> ?", messageID, userID).
		Update("is_read", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update read status",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
