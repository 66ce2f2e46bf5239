package handler

import (
	"github.com/dafibh/fintrack/fintrack-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, transactionHandler *TransactionHandler, categoryHandler *CategoryHandler) {
	// API version 1
	api := e.Group("/api/v1")

	// OpenAPI 3 document (public)
	api.GET("/openapi.json", ServeOpenAPI3Spec)

	// Category routes (protected)
	categories := api.Group("/categories")
	categories.Use(authMiddleware.Authenticate())
	categories.POST("", categoryHandler.CreateCategory)

	// Transaction routes (protected)
	transactions := api.Group("/transactions")
	transactions.Use(authMiddleware.Authenticate())

	// Imports write to the database and are rate limited per owner
	imports := middleware.RateLimitMiddleware(rateLimiter)
	transactions.POST("", transactionHandler.ImportTransactions, imports)
	transactions.POST("/import", transactionHandler.ImportFile, imports)

	transactions.GET("/stats", transactionHandler.GetStats)
	transactions.GET("/summary", transactionHandler.GetSummary)
	transactions.GET("/report", transactionHandler.GetReport)
}
