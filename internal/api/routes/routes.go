package routes

import (
	"calendar-relay-backend/internal/api/handlers"
	"calendar-relay-backend/internal/api/middleware"
	"calendar-relay-backend/internal/auth"
	"calendar-relay-backend/internal/client"
	"calendar-relay-backend/internal/config"
	"calendar-relay-backend/internal/repository"
	"calendar-relay-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(db *gorm.DB, cfg *config.Config, authConfig *auth.AuthConfig) (*gin.Engine, error) {
	// Create router
	router := gin.New()

	// Add middleware; request id first so the access log can carry it
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg))

	// Initialize validator
	validate := validator.New()

	// Identity verification
	authService, err := auth.NewAuthService(authConfig)
	if err != nil {
		return nil, err
	}
	authMiddleware := auth.NewAuthMiddleware(authService)

	// Token store and Microsoft Graph client
	tokenRepo := repository.NewTokenRepository(db)
	graphClient := client.NewGraphClient(
		authConfig.Microsoft.Tenant,
		authConfig.Microsoft.ClientID,
		authConfig.Microsoft.ClientSecret,
		authConfig.Microsoft.RedirectURL,
	)

	// Services
	tokenService := service.NewTokenService(tokenRepo, graphClient, &authConfig.Microsoft)
	calendarService := service.NewCalendarService(tokenService, graphClient)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	connectionHandler := handlers.NewConnectionHandler(tokenService, validate)
	calendarHandler := handlers.NewCalendarHandler(calendarService)

	// Health check routes
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/health/live", healthHandler.Live)

	// Swagger documentation route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes - all endpoints require a verified bearer credential
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.RequireAuth())
	{
		connections := v1.Group("/connections")
		{
			connections.GET("/start", connectionHandler.Start)
			connections.POST("/token", connectionHandler.ExchangeToken)
			connections.POST("/status", connectionHandler.Status)
			connections.POST("/disconnect", connectionHandler.Disconnect)
		}

		calendars := v1.Group("/calendars")
		{
			calendars.POST("", calendarHandler.ListCalendars)
			calendars.POST("/events", calendarHandler.ListEvents)
		}

		v1.POST("/events", calendarHandler.CreateEvent)
	}

	// Catch-all route for undefined endpoints
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":      "Endpoint not found",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString("request_id"),
		})
	})

	return router, nil
}

// SetupHealthRoutes sets up only health check routes (useful for testing)
func SetupHealthRoutes(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(db)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/health/live", healthHandler.Live)

	return router
}
