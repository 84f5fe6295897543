package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/seed-sell/seedsell-api/config"
	"github.com/seed-sell/seedsell-api/middleware"
)

// RoomUnreadCount is one row of the unread-counts aggregate
type RoomUnreadCount struct {
	RoomID      string `json:"room_id"`
	UnreadCount int64  `json:"unread_count"`
}

// GetUnreadCounts handles GET /api/v1/messages/unread-counts - returns the
// number of unread messages addressed to the caller, grouped by room. Rooms
// with nothing unread are omitted.
func GetUnreadCounts(c *gin.Context) {
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

	db := config.GetDB()
	var counts []RoomUnreadCount
	if err := db.Table("chat_messages").
		Select("chat_messages.room_id AS room_id, COUNT(*) AS unread_count").
		Joins("JOIN chat_rooms ON chat_rooms.id = chat_messages.room_id").
		Where("chat_messages.is_read = ?", false).
		Where("chat_messages.sender_id <> ?", userID).
		Where("chat_rooms.buyer_id = ? OR chat_rooms.farmer_id = ?", userID, userID).
		Where("chat_messages.deleted_at IS NULL").
		Group("chat_messages.room_id").
		Scan(&counts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch unread counts",
			},
		})
		return
	}

	// Always return an array, never null
	if counts == nil {
		counts = []RoomUnreadCount{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    counts,
	})
}
