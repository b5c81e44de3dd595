// settings.go manages the generative API key.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/settings"
)

// GetSettings reports whether an API key is stored, never the key itself.
// GET /api/v1/settings
func (h *Handler) GetSettings(c *gin.Context) {
	configured, preview, err := h.Settings.Status(c.Request.Context())
	if err != nil {
		log.Printf("❌ Failed to read settings: %v", err)
		respondError(c, http.StatusInternalServerError, "settings_error", "Failed to read settings")
		return
	}
	c.JSON(http.StatusOK, models.SettingsResponse{
		APIKeyConfigured: configured,
		APIKeyPreview:    preview,
	})
}

// SaveAPIKey stores (or replaces) the API key.
// PUT /api/v1/settings/api-key
func (h *Handler) SaveAPIKey(c *gin.Context) {
	var req models.SaveAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Request body must be JSON with api_key")
		return
	}

	err := h.Settings.SaveAPIKey(c.Request.Context(), req.APIKey)
	if errors.Is(err, settings.ErrEmptyKey) {
		respondError(c, http.StatusBadRequest, "invalid_request", "API key must not be empty")
		return
	}
	if err != nil {
		log.Printf("❌ Failed to save API key: %v", err)
		respondError(c, http.StatusInternalServerError, "settings_error", "Failed to save API key")
		return
	}

	log.Println("🔑 API key updated")
	h.GetSettings(c)
}

// ClearAPIKey removes the API key.
// DELETE /api/v1/settings/api-key
func (h *Handler) ClearAPIKey(c *gin.Context) {
	if err := h.Settings.ClearAPIKey(c.Request.Context()); err != nil {
		log.Printf("❌ Failed to clear API key: %v", err)
		respondError(c, http.StatusInternalServerError, "settings_error", "Failed to clear API key")
		return
	}

	log.Println("🔑 API key cleared")
	c.JSON(http.StatusOK, models.SettingsResponse{APIKeyConfigured: false})
}
