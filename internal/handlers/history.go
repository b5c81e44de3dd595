// history.go serves the document history list.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/history"
)

// ListHistory returns the previously analyzed documents.
// GET /api/v1/history
func (h *Handler) ListHistory(c *gin.Context) {
	items := history.List()
	c.JSON(http.StatusOK, models.HistoryResponse{
		Documents: items,
		Total:     len(items),
	})
}

// OpenHistory starts a chat for a history entry and switches to it.
// Entries still being processed cannot be opened.
// POST /api/v1/history/:id/open
func (h *Handler) OpenHistory(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	file, err := history.Open(c.Param("id"))
	switch {
	case errors.Is(err, history.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", "History entry not found")
		return
	case errors.Is(err, history.ErrIncomplete):
		respondError(c, http.StatusConflict, "analysis_incomplete", "This document is still being processed")
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, "history_error", err.Error())
		return
	}

	session := h.Chats.Open(user.ID, file)
	h.showChat(user.ID, session.ID)
	c.JSON(http.StatusCreated, session)
}
