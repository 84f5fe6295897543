package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/seed-sell/seedsell-api/config"
	"github.com/seed-sell/seedsell-api/middleware"
	"github.com/seed-sell/seedsell-api/models"
)

// CreateListingRequest represents the request body for creating a listing
type CreateListingRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  string  `json:"description" binding:"omitempty"`
	Price        float64 `json:"price" binding:"required,gt=0"`
	Unit         string  `json:"unit" binding:"omitempty"`
	Location     string  `json:"location" binding:"omitempty"`
	Category     string  `json:"category" binding:"omitempty"`
	MainImageURL string  `json:"main_image_url" binding:"omitempty"`
}

// ListListings handles GET /api/v1/listings - lists produce listings,
// newest first, optionally filtered by category or seller. Public endpoint.
func ListListings(c *gin.Context) {
	db := config.GetDB()

	query := db.Preload("Seller").Order("created_at DESC")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if sellerID := c.Query("seller_id"); sellerID != "" {
		query = query.Where("seller_id = ?", sellerID)
	}

	var listings []models.Listing
	if err := query.Find(&listings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch listings",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    listings,
	})
}

// GetListing handles GET /api/v1/listings/:id - returns one listing. Public endpoint.
func GetListing(c *gin.Context) {
	listingID := c.Param("id")
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Listing ID is required",
			},
		})
		return
	}

	db := config.GetDB()
	var listing models.Listing
	if err := db.Preload("Seller").First(&listing, listingID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LISTING_NOT_FOUND",
				"message": "Listing not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    listing,
	})
}

// CreateListing handles POST /api/v1/listings - creates a listing for the caller.
// Only farmers may sell.
func CreateListing(c *gin.Context) {
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

	// Find the caller's profile
	db := config.GetDB()
	var profile models.Profile
	if err := db.First(&profile, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PROFILE_NOT_FOUND",
				"message": "Profile not found. Please create a profile first.",
			},
		})
		return
	}

	if profile.Role != "farmer" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only farmers can create listings",
			},
		})
		return
	}

	// Parse request body
	var req CreateListingRequest
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

	// Create the listing
	listing := models.Listing{
		SellerID:     userID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Unit:         req.Unit,
		Location:     req.Location,
		Category:     req.Category,
		MainImageURL: req.MainImageURL,
	}

	if err := db.Create(&listing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create listing",
			},
		})
		return
	}

	// Load the seller relationship to return complete data
	if err := db.Preload("Seller").First(&listing, listing.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load listing details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    listing,
	})
}
