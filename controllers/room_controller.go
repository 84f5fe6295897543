package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/seed-sell/seedsell-api/config"
	"github.com/seed-sell/seedsell-api/middleware"
	"github.com/seed-sell/seedsell-api/models"
)

// StartChatRequest represents the request body for starting a chat with a farmer
type StartChatRequest struct {
	FarmerID string `json:"farmer_id" binding:"required"`
}

// ListRooms handles GET /api/v1/rooms - lists chat rooms the caller participates in
func ListRooms(c *gin.Context) {
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

	// Fetch rooms where the caller is either side of the conversation.
	// Both profiles are preloaded so clients can show the counterpart's name.
	db := config.GetDB()
	var rooms []models.ChatRoom
	if err := db.Where("buyer_id = ? OR farmer_id = ?", userID, userID).
		Preload("Buyer").
		Preload("Farmer").
		Find(&rooms).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch chat rooms",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rooms,
	})
}

// StartChat handles POST /api/v1/rooms - opens a conversation with a farmer.
// A room is identified by its (buyer, farmer) pair: if one already exists it
// is returned instead of creating a duplicate. The lookup-then-insert has a
// benign race under simultaneous requests; the unique index on the pair makes
// the second insert fail, and that failure is treated as "room exists".
func StartChat(c *gin.Context) {
	// Extract user ID from JWT token; the caller acts as the buyer
	buyerID, err := middleware.GetUserID(c)
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

	// Parse request body
	var req StartChatRequest
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

	if req.FarmerID == buyerID {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Cannot start a chat with yourself",
			},
		})
		return
	}

	// The farmer must have a profile
	db := config.GetDB()
	var farmer models.Profile
	if err := db.First(&farmer, "id = ?", req.FarmerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FARMER_NOT_FOUND",
				"message": "Farmer profile not found",
			},
		})
		return
	}

	// Look up an existing room for this pair first
	var room models.ChatRoom
	err = db.Where("buyer_id = ? AND farmer_id = ?", buyerID, req.FarmerID).
		Preload("Buyer").
		Preload("Farmer").
		First(&room).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    room,
		})
		return
	}

	// Not found: create the room
	room = models.ChatRoom{
		BuyerID:  buyerID,
		FarmerID: req.FarmerID,
	}
	if err := db.Create(&room).Error; err != nil {
		// A concurrent request may have created the pair in between; the
		// unique index rejects ours, so re-read and return the winner.
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") ||
			strings.Contains(errMsg, "unique constraint") ||
			strings.Contains(errMsg, "unique") {
			if err := db.Where("buyer_id = ? AND farmer_id = ?", buyerID, req.FarmerID).
				Preload("Buyer").
				Preload("Farmer").
				First(&room).Error; err == nil {
				c.JSON(http.StatusOK, gin.H{
					"success": true,
					"data":    room,
				})
				return
			}
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create chat room",
			},
		})
		return
	}

	// Load both profiles to return complete data
	if err := db.Preload("Buyer").Preload("Farmer").First(&room, "id = ?", room.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load chat room details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    room,
	})
}

// roomMember reports whether the user participates in the room.
func roomMember(room *models.ChatRoom, userID string) bool {
	return room.BuyerID == userID || room.FarmerID == userID
}

// roomCounterpart returns the other participant's id.
func roomCounterpart(room *models.ChatRoom, userID string) string {
	if room.BuyerID == userID {
		return room.FarmerID
	}
	return room.BuyerID
}
