// jwt.go issues and checks the session tokens of the mock login flow.
//
// Login and signup accept any well-formed input, so a token proves nothing
// about identity. It only lets the service tell one browser's chats, view
// state and rate limit apart from another's.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
)

const (
	userContextKey   = "user"
	claimsContextKey = "jwt_claims"
)

// JWTClaims extends standard JWT claims with user info.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// GenerateJWT creates a new JWT token for a user.
func GenerateJWT(user *models.User, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseJWT validates and parses a JWT token string.
// Only HS256 is accepted.
func ParseJWT(tokenString, secret string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}

// Revocations remembers tokens ended by logout until they would have
// expired anyway.
type Revocations struct {
	mu  sync.Mutex
	ids map[string]time.Time // token ID → expiry
}

// NewRevocations creates an empty revocation list.
func NewRevocations() *Revocations {
	return &Revocations{ids: make(map[string]time.Time)}
}

// Revoke marks the token as logged out.
func (r *Revocations) Revoke(claims *JWTClaims) {
	if claims == nil || claims.ID == "" {
		return
	}
	exp := time.Now().Add(time.Hour)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[claims.ID] = exp

	// Expired entries can never match a valid token again.
	now := time.Now()
	for id, e := range r.ids {
		if now.After(e) {
			delete(r.ids, id)
		}
	}
}

// Revoked reports whether the token ID was logged out.
func (r *Revocations) Revoked(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

var errNoBearer = errors.New("missing bearer token")

// authenticate parses the Authorization header into claims.
func authenticate(c *gin.Context, secret string, revoked *Revocations) (*JWTClaims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errNoBearer
	}

	claims, err := ParseJWT(strings.TrimPrefix(authHeader, "Bearer "), secret)
	if err != nil {
		return nil, err
	}
	if revoked != nil && revoked.Revoked(claims.ID) {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func setUser(c *gin.Context, claims *JWTClaims) {
	c.Set(claimsContextKey, claims)
	c.Set(userContextKey, &models.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Name:  claims.Name,
	})
}

// JWTAuth returns middleware that requires a valid Bearer token.
// The user is rebuilt from the claims; there is no user table to consult.
func JWTAuth(jwtSecret string, revoked *Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticate(c, jwtSecret, revoked)
		if errors.Is(err, errNoBearer) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: "Missing or invalid Authorization header. Use 'Bearer <token>'",
				Code:    http.StatusUnauthorized,
			})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
				Code:    http.StatusUnauthorized,
			})
			c.Abort()
			return
		}

		setUser(c, claims)
		c.Next()
	}
}

// OptionalJWT sets the user when a valid token is present and lets the
// request through either way.
func OptionalJWT(jwtSecret string, revoked *Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := authenticate(c, jwtSecret, revoked); err == nil {
			setUser(c, claims)
		}
		c.Next()
	}
}

// GetUser retrieves the authenticated user from the request context.
func GetUser(c *gin.Context) *models.User {
	val, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetClaims retrieves the parsed token claims from the request context.
func GetClaims(c *gin.Context) *JWTClaims {
	val, exists := c.Get(claimsContextKey)
	if !exists {
		return nil
	}
	claims, _ := val.(*JWTClaims)
	return claims
}
