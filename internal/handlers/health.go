// Package handlers contains HTTP handler functions for the API.
//
// Go Pattern: Handlers in Gin receive a *gin.Context which provides:
// - Request data (params, query, body, headers)
// - Response methods (JSON, String, Status)
// - Middleware data (c.Get/c.Set)
//
// We group related handlers into a struct (Handler) that holds shared dependencies.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docgenie-api/internal/middleware"
	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/chat"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/settings"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/worker"
	"github.com/Shimizu-Technology/docgenie-api/internal/view"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// HealthChecker is implemented by *database.DB.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all HTTP handlers.
// Go Pattern: Dependency injection via struct fields. Instead of global
// variables or service locators, we pass dependencies explicitly.
// This makes testing easy: just create a Handler with fake dependencies.
type Handler struct {
	DB       HealthChecker // nil when settings live in memory
	Settings *settings.Service
	Chats    *chat.Manager
	Views    *view.Registry
	Revoked  *middleware.Revocations
	Workers  *worker.Pool // optional; reported by the health check

	JWTSecret      string
	TokenTTL       time.Duration
	MaxUploadBytes int64
	AnswerTimeout  time.Duration // 0 leaves questions bound only by the request
}

// HealthCheck returns the API health status.
// GET /api/v1/health
func (h *Handler) HealthCheck(c *gin.Context) {
	storeStatus := "memory"
	if h.DB != nil {
		storeStatus = "postgres: healthy"
		if err := h.DB.HealthCheck(c.Request.Context()); err != nil {
			storeStatus = "postgres: unhealthy: " + err.Error()
		}
	}

	resp := models.HealthResponse{
		Status:       "ok",
		Version:      Version,
		Settings:     storeStatus,
		OpenSessions: h.Chats.Count(),
	}
	if h.Workers != nil {
		resp.Workers = h.Workers.WorkerCount()
		resp.QueuedJobs = h.Workers.QueueSize()
	}
	c.JSON(http.StatusOK, resp)
}

// respondError writes the standard error envelope and aborts the chain.
func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}

// currentUser returns the authenticated user. Routes using it sit behind
// JWTAuth, so a nil user is a wiring bug and answered with 401.
func currentUser(c *gin.Context) *models.User {
	user := middleware.GetUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Not authenticated")
	}
	return user
}
