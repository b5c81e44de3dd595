// chat.go handles the document chat endpoints.
//
// Question answering never fails at the HTTP level: bad keys, rate limits
// and upstream errors come back as assistant messages. HTTP errors are
// kept for request problems (unknown chat, empty question, busy chat).
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/services/chat"
	"github.com/Shimizu-Technology/docgenie-api/internal/view"
)

// chatError maps chat manager errors to HTTP responses.
func chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", "Chat session not found")
	case errors.Is(err, chat.ErrBusy):
		respondError(c, http.StatusConflict, "chat_busy", "Please wait for the current answer before asking another question")
	case errors.Is(err, chat.ErrEmptyQuestion):
		respondError(c, http.StatusBadRequest, "invalid_request", "Message must not be empty")
	default:
		log.Printf("❌ Chat error: %v", err)
		respondError(c, http.StatusInternalServerError, "chat_error", "Failed to process chat request")
	}
}

// GetChat returns the chat history for a session.
// GET /api/v1/chats/:id
func (h *Handler) GetChat(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	session, err := h.Chats.Get(user.ID, c.Param("id"))
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// PostChatMessage asks a question about the session's document.
// POST /api/v1/chats/:id/messages
func (h *Handler) PostChatMessage(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req models.CreateChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Message is required")
		return
	}

	// Go Pattern: The request context is cancelled when the client goes
	// away, which also cancels the outbound generateContent call.
	ctx := c.Request.Context()
	if h.AnswerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.AnswerTimeout)
		defer cancel()
	}

	reply, err := h.Chats.Ask(ctx, user.ID, c.Param("id"), req.Message)
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// CloseChat discards a session and its messages.
// DELETE /api/v1/chats/:id
func (h *Handler) CloseChat(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	id := c.Param("id")
	if err := h.Chats.Close(user.ID, id); err != nil {
		chatError(c, err)
		return
	}

	// Closing the chat on screen sends the user back to landing.
	_, next, _ := h.Views.Update(user.ID, func(s view.State) (view.State, error) {
		s.LoggedIn = true
		if s.ChatID == id {
			return s.Apply(view.ActionBack)
		}
		return s, nil
	})
	c.JSON(http.StatusOK, viewResponse(next))
}
