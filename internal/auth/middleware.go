package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const CtxClaimsKey = "auth_claims"

// VersionSource reports the current token version of a user.
type VersionSource interface {
	GetTokenVersion(ctx context.Context, userID string) (int, error)
}

// Authenticate validates a raw token and, when versions is non-nil, rejects
// tokens revoked by logout or a password change.
func Authenticate(ctx context.Context, tokens TokenService, versions VersionSource, raw string) (*Claims, error) {
	claims, err := tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	if versions != nil {
		current, err := versions.GetTokenVersion(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		if current != claims.TokenVersion {
			return nil, errors.New("token revoked")
		}
	}
	return claims, nil
}

// Middleware reads a bearer token from the Authorization header, or from the
// token query parameter for websocket upgrades that cannot set headers.
func Middleware(tokens TokenService, versions VersionSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw = strings.TrimSpace(c.Query("token"))
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := Authenticate(c.Request.Context(), tokens, versions, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	if len(header) < len("bearer ") || !strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("bearer "):])
}

func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
