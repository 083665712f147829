package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cleanmate-app/services"
	"github.com/yeremiapane/cleanmate-app/utils"
)

const principalKey = "principal"

type PrincipalResolver interface {
	ResolvePrincipal(token string) (services.Principal, error)
}

// AuthMiddleware requires a bearer token and stores the resolved principal.
func AuthMiddleware(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("authorization header missing"))
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("invalid or expired token"))
			return
		}

		principal, err := resolver.ResolvePrincipal(strings.TrimSpace(tokenString))
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("invalid or expired token"))
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// WebSocketAuthMiddleware reads the token from the query string, since
// browsers cannot set headers on a websocket handshake.
func WebSocketAuthMiddleware(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token, _ = strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		principal, err := resolver.ResolvePrincipal(token)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

func SetPrincipal(c *gin.Context, p services.Principal) {
	c.Set(principalKey, p)
}

func GetPrincipal(c *gin.Context) (services.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return services.Principal{}, false
	}
	p, ok := v.(services.Principal)
	return p, ok
}
