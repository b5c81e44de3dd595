// Package router sets up all HTTP routes for the API.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docgenie-api/internal/handlers"
	"github.com/Shimizu-Technology/docgenie-api/internal/middleware"
)

// Setup creates and configures the Gin router with all routes.
// rateLimiter may be nil to disable per-user limits.
func Setup(h *handlers.Handler, rateLimiter *middleware.RateLimiter, allowedOrigins []string) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORS(allowedOrigins))

	// --- Public Routes (no auth required) ---
	r.GET("/api/v1/health", h.HealthCheck)

	// API Documentation
	r.GET("/api/docs", h.ServeSwaggerUI)
	r.GET(handlers.OpenAPIPath, h.ServeOpenAPISpec)

	// Mock auth
	r.POST("/api/v1/auth/login", h.Login)
	r.POST("/api/v1/auth/signup", h.Signup)

	// Anonymous callers are told to show the login page.
	r.GET("/api/v1/view", middleware.OptionalJWT(h.JWTSecret, h.Revoked), h.GetView)

	// --- JWT-protected routes ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(h.JWTSecret, h.Revoked))
	if rateLimiter != nil {
		protected.Use(rateLimiter.RateLimit())
	}
	{
		protected.POST("/auth/logout", h.Logout)
		protected.GET("/auth/me", h.Me)

		// Header and page navigation
		protected.POST("/view/:action", h.ApplyViewAction)

		// Settings (the generative API key)
		protected.GET("/settings", h.GetSettings)
		protected.PUT("/settings/api-key", h.SaveAPIKey)
		protected.DELETE("/settings/api-key", h.ClearAPIKey)

		// History
		protected.GET("/history", h.ListHistory)
		protected.POST("/history/:id/open", h.OpenHistory)

		// Upload and chat
		protected.POST("/documents", h.UploadDocument)
		protected.GET("/chats/:id", h.GetChat)
		protected.POST("/chats/:id/messages", h.PostChatMessage)
		protected.DELETE("/chats/:id", h.CloseChat)
	}

	return r
}
