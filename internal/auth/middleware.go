package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type contextKey string

const userContextKey contextKey = "modelvaultUser"

// CookieName is the cookie carrying the access token for browser clients.
const CookieName = "jwt"

// ContextUser represents the authenticated principal stored in the request context.
type ContextUser struct {
	ID       int64
	Email    string
	Username string
}

// AuthMiddleware validates the bearer token, or the jwt cookie when no
// Authorization header is sent, and injects the authenticated user.
func AuthMiddleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := requestToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		claims, err := service.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		SetUser(c, ContextUser{
			ID:       claims.UserID,
			Email:    claims.Email,
			Username: claims.Username,
		})

		c.Next()
	}
}

// SetUser stores the authenticated principal on the request context.
func SetUser(c *gin.Context, user ContextUser) {
	c.Set(string(userContextKey), user)
}

// CurrentUser extracts the authenticated user from the context.
func CurrentUser(c *gin.Context) (ContextUser, bool) {
	value, exists := c.Get(string(userContextKey))
	if !exists {
		return ContextUser{}, false
	}
	user, ok := value.(ContextUser)
	return user, ok
}

// RequireUser fetches the authenticated user and its identifier.
func RequireUser(c *gin.Context) (int64, ContextUser, bool) {
	user, ok := CurrentUser(c)
	if !ok || user.ID <= 0 {
		return 0, ContextUser{}, false
	}
	return user.ID, user, true
}

func requestToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		token := extractBearerToken(header)
		return token, token != ""
	}
	if cookie, err := c.Cookie(CookieName); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
