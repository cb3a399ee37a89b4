package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"faregate/internal/handler"
	"faregate/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TapHandler  *handler.TapHandler
	UserHandler *handler.UserHandler
	CardHandler *handler.CardHandler
	RideHandler *handler.RideHandler
	RedisClient *redis.Client
	NewRelicApp *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Tap webhook: the reader posts raw tap events here.
		v1.POST("/taps", deps.TapHandler.HandleTap)

		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("/:id/balance", deps.UserHandler.GetBalance)
			users.POST("/:id/recharge", deps.UserHandler.Recharge)
			users.GET("/:id/rides", deps.UserHandler.GetRides)
			users.GET("/:id/payments", deps.UserHandler.GetPayments)
		}

		// Card routes.
		cards := v1.Group("/cards")
		{
			cards.POST("/register", deps.CardHandler.Register)
			cards.POST("/detect", deps.CardHandler.Detect)
		}

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.GET("", deps.RideHandler.GetAll)
			rides.GET("/:id", deps.RideHandler.GetRide)
		}
	}

	return router
}
