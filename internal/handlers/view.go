// view.go exposes the screen router.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docgenie-api/internal/middleware"
	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/view"
)

func viewResponse(s view.State) models.ViewResponse {
	page := s.Resolve()
	resp := models.ViewResponse{Page: string(page), LoggedIn: s.LoggedIn}
	if page == view.Chat {
		resp.ChatID = s.ChatID
	}
	return resp
}

// loggedIn returns the user's state. A valid token means the user is
// logged in even if the registry lost track of them.
func (h *Handler) loggedIn(userID string) view.State {
	s := h.Views.Get(userID)
	s.LoggedIn = true
	return s
}

// GetView reports the page to render. Anonymous callers always get login.
// GET /api/v1/view
func (h *Handler) GetView(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusOK, viewResponse(view.Initial()))
		return
	}
	c.JSON(http.StatusOK, viewResponse(h.loggedIn(user.ID)))
}

// ApplyViewAction handles header and page navigation (logo, new, back).
// Leaving a chat closes it.
// POST /api/v1/view/:action
func (h *Handler) ApplyViewAction(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	action := view.Action(c.Param("action"))
	prev, next, err := h.Views.Update(user.ID, func(s view.State) (view.State, error) {
		s.LoggedIn = true
		return s.Apply(action)
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_action", err.Error())
		return
	}

	h.closeAbandonedChat(user.ID, prev, next)
	c.JSON(http.StatusOK, viewResponse(next))
}

// showChat moves the user to the chat page for chatID, closing whatever
// chat they had open before.
func (h *Handler) showChat(userID, chatID string) view.State {
	prev, next, _ := h.Views.Update(userID, func(s view.State) (view.State, error) {
		s.LoggedIn = true
		return s.OpenChat(chatID), nil
	})
	h.closeAbandonedChat(userID, prev, next)
	return next
}

// closeAbandonedChat drops the chat the user navigated away from.
func (h *Handler) closeAbandonedChat(userID string, prev, next view.State) {
	if prev.ChatID != "" && prev.ChatID != next.ChatID {
		_ = h.Chats.Close(userID, prev.ChatID)
	}
}
