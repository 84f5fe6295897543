package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/seed-sell/seedsell-api/middleware"
	"github.com/seed-sell/seedsell-api/services"
	"github.com/seed-sell/seedsell-api/utils"
)

// UploadImage handles POST /api/v1/uploads - uploads a listing image and
// returns its storage key plus ready-to-use public URLs. The thumbnail URL
// carries the 800x600 cover transform the listing cards render with.
func UploadImage(c *gin.Context) {
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

	// Get the uploaded file from the multipart form
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "No image file provided",
			},
		})
		return
	}

	// Validate and upload through the image service
	imageService := services.GetImageService()
	key, err := imageService.UploadImage(userID, fileHeader)
	if err != nil {
		// Validation failures carry their own error code
		if uploadErr, ok := err.(*utils.FileUploadError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_ERROR",
				"message": "Failed to upload image",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"key": key,
			"url": imageService.GetImageURL(key, nil),
			"thumbnail_url": imageService.GetImageURL(key, &services.ImageTransform{
				Width:  800,
				Height: 600,
				Resize: "cover",
			}),
		},
	})
}
