package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hunter/internal/metrics"
	"hunter/internal/service"
)

const (
	authClaimsKey = "auth_claims"
	contextUserID = "auth_user_id"
)

// JWTAuthMiddleware validates bearer access tokens and stores the claims
// in the request context.
func JWTAuthMiddleware(tokens *service.TokenService, collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "auth not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			recordAuthFailure(collector)
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := tokens.ParseAccessToken(token)
		if err != nil {
			recordAuthFailure(collector)
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Access Token has expired"})
			case errors.Is(err, service.ErrTokenRevoked):
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Access Token has been revoked"})
			default:
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			}
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Set(contextUserID, claims.UserID)
		c.Next()
	}
}

// GetAuthClaims reads the validated token claims from the context.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

func recordAuthFailure(collector *metrics.Collector) {
	if collector != nil {
		collector.RecordAuthFailure()
	}
}
