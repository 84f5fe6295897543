package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/seed-sell/seedsell-api/config"
	"github.com/seed-sell/seedsell-api/controllers"
	"github.com/seed-sell/seedsell-api/middleware"
	"github.com/seed-sell/seedsell-api/models"
	"github.com/seed-sell/seedsell-api/realtime"
	"github.com/seed-sell/seedsell-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting SeedSell API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Profile{},
		&models.ChatRoom{},
		&models.ChatMessage{},
		&models.Listing{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Connect Redis and start the realtime hub
	rdb, err := config.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to configure Redis: %v", err)
	}
	realtime.InitHub(rdb)

	// Initialize image storage
	s3Service, err := services.InitS3Service()
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}
	services.InitImageService(s3Service)

	// Initialize Gin router
	router := gin.Default()

	// The API is consumed by a browser client on another origin
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://seedsell.co.zw", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// JWT middleware shared by the protected routes
	requireAuth := middleware.EnsureValidToken(cfg)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Public listing browsing
		v1.GET("/listings", controllers.ListListings)
		v1.GET("/listings/:id", controllers.GetListing)

		// Everything else needs a valid token
		authed := v1.Group("", requireAuth)
		{
			authed.POST("/profiles", controllers.CreateProfile)
			authed.GET("/profiles/me", controllers.GetMyProfile)
			authed.PUT("/profiles/me", controllers.UpdateMyProfile)

			authed.GET("/rooms", controllers.ListRooms)
			authed.POST("/rooms", controllers.StartChat)
			authed.GET("/rooms/:id/messages", controllers.ListRoomMessages)
			authed.POST("/rooms/:id/messages", controllers.SendRoomMessage)
			authed.POST("/rooms/:id/read", controllers.MarkRoomRead)

			authed.POST("/messages/:id/read", controllers.MarkMessageRead)
			authed.GET("/messages/unread-counts", controllers.GetUnreadCounts)

			authed.POST("/listings", controllers.CreateListing)
			authed.POST("/uploads", controllers.UploadImage)

			authed.GET("/ws", controllers.ServeWebSocket)
		}
	}

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "SeedSell API is running",
	})
}
