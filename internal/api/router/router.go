package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socialfi-labs/token-worker/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "token-tx-api-service",
		})
	})

	txHandler := handler.NewTransactionHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		transactions := v1.Group("/transactions")
		{
			// POST /api/v1/transactions - Enqueue a new transaction job
			transactions.POST("", txHandler.CreateTransaction)

			// GET /api/v1/transactions - List jobs with filtering and pagination
			transactions.GET("", txHandler.ListTransactions)

			// GET /api/v1/transactions/:job_id - Get job status and detail
			transactions.GET("/:job_id", txHandler.GetTransaction)
		}
	}

	return r
}
