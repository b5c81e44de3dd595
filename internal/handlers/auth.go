// auth.go handles the mock login/signup flow.
//
// Nothing is verified: any non-empty email and password logs in. The
// fabricated user only exists inside the token handed back, which the
// client sends on every later request.
package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shimizu-Technology/docgenie-api/internal/middleware"
	"github.com/Shimizu-Technology/docgenie-api/internal/models"
	"github.com/Shimizu-Technology/docgenie-api/internal/view"
)

// minPasswordLength applies to signup only.
const minPasswordLength = 6

// Login accepts any non-empty email and password.
// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Request body must be JSON with email and password")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "invalid_request", "Email and password are required")
		return
	}

	// The display name is the part of the email before the @.
	name, _, _ := strings.Cut(email, "@")
	h.startSession(c, http.StatusOK, &models.User{
		ID:    uuid.New().String(),
		Name:  name,
		Email: email,
	})
}

// Signup validates the form and logs the new user in.
// POST /api/v1/auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "Request body must be JSON")
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	email := strings.TrimSpace(req.Email)

	switch {
	case fullName == "" || email == "" || req.Password == "" || req.ConfirmPassword == "":
		respondError(c, http.StatusBadRequest, "invalid_request", "All fields are required")
		return
	case req.Password != req.ConfirmPassword:
		respondError(c, http.StatusBadRequest, "invalid_request", "Passwords do not match")
		return
	case len([]rune(req.Password)) < minPasswordLength:
		respondError(c, http.StatusBadRequest, "invalid_request", "Password must be at least 6 characters")
		return
	}

	h.startSession(c, http.StatusCreated, &models.User{
		ID:    uuid.New().String(),
		Name:  fullName,
		Email: email,
	})
}

// startSession issues a token for user and moves them to the landing page.
func (h *Handler) startSession(c *gin.Context, status int, user *models.User) {
	token, err := middleware.GenerateJWT(user, h.JWTSecret, h.TokenTTL)
	if err != nil {
		log.Printf("❌ Failed to generate token: %v", err)
		respondError(c, http.StatusInternalServerError, "token_error", "Failed to generate token")
		return
	}

	_, next, _ := h.Views.Update(user.ID, func(s view.State) (view.State, error) {
		return s.LoggedInAs(), nil
	})

	log.Printf("👤 %s logged in", user.Email)
	c.JSON(status, models.AuthResponse{
		Token: token,
		User:  *user,
		View:  string(next.Resolve()),
	})
}

// Logout ends the session: the token is revoked, open chats are closed
// and the view returns to login.
// POST /api/v1/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	h.Revoked.Revoke(middleware.GetClaims(c))
	closed := h.Chats.DropUser(user.ID)
	h.Views.Forget(user.ID)

	log.Printf("👋 %s logged out (%d chat(s) closed)", user.Email, closed)
	c.JSON(http.StatusOK, models.ViewResponse{
		Page:     string(view.Initial().LoggedOut().Resolve()),
		LoggedIn: false,
	})
}

// Me returns the current user.
// GET /api/v1/auth/me
func (h *Handler) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	c.JSON(http.StatusOK, user)
}
