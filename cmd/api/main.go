package main

import (
	"fmt"
	"net/http"
	"os"

	"astrawise/internal/config"
	"astrawise/internal/database"
	"astrawise/internal/handlers"
	"astrawise/internal/llm"
	"astrawise/internal/logger"
	"astrawise/internal/middleware"
	"astrawise/internal/plaid"
	"astrawise/internal/services"
	"astrawise/internal/validator"
	"astrawise/internal/vector"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "astrawise/internal/docs" // Import swagger docs
)

// @title           AstraWise API
// @version         1.0
// @description     AstraWise is a personal finance application that links bank accounts, syncs financial data, and answers questions about it through an AI assistant.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name sessionToken

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// External clients. A missing completion model is a hard startup
	// failure; the assistant cannot run without one.
	completionClient, err := llm.NewClient(llm.Config{
		APIKey:         appConfig.OpenAIAPIKey,
		Model:          appConfig.OpenAIModel,
		BaseURL:        appConfig.OpenAIBaseURL,
		EmbeddingModel: appConfig.EmbeddingModel,
	})
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	plaidClient := plaid.NewClient(plaid.Config{
		ClientID: appConfig.PlaidClientID,
		Secret:   appConfig.PlaidSecret,
		BaseURL:  appConfig.PlaidBaseURL,
	})

	vectorIndex := vector.NewClient(vector.Config{
		APIKey:    appConfig.PineconeAPIKey,
		IndexHost: appConfig.PineconeIndexHost,
	})

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	sessionService := services.NewSessionService(db)
	linkService := services.NewLinkService(db, plaidClient)
	syncService := services.NewSyncService(db, linkService, plaidClient, completionClient, vectorIndex)
	accountService := services.NewAccountService(db)
	chatService := services.NewChatService(db)
	assistantService := services.NewAssistantService(db, completionClient, chatService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, sessionService)
	plaidHandler := handlers.NewPlaidHandler(linkService, syncService)
	userHandler := handlers.NewUserHandler(accountService)
	chatHandler := handlers.NewChatHandler(chatService, assistantService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware. Credentials require an explicit origin.
	router.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.GET("/validate", authHandler.Validate)

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.SessionAuth(sessionService))

	// Institution linking and sync
	plaidRoutes := protected.Group("/plaid")
	plaidRoutes.POST("/create-link-token", plaidHandler.CreateLinkToken)
	plaidRoutes.POST("/exchange-token", plaidHandler.ExchangeToken)
	plaidRoutes.POST("/fetch-accounts", plaidHandler.FetchAccounts)
	plaidRoutes.POST("/fetch-transactions", plaidHandler.FetchTransactions)

	// Synced data views
	user := protected.Group("/user")
	user.GET("/has-account", userHandler.HasAccount)
	user.GET("/get-accounts", userHandler.GetAccounts)
	user.GET("/get-transactions", userHandler.GetTransactions)

	// Assistant
	astrabot := protected.Group("/astrabot")
	astrabot.POST("/create-new-chat", chatHandler.CreateNewChat)
	astrabot.GET("/fetch-chats", chatHandler.FetchChats)
	astrabot.DELETE("/delete-chat", chatHandler.DeleteChat)
	astrabot.POST("/chat", chatHandler.Chat)

	log.Infof("Starting AstraWise backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
