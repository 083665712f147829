package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cleanmate-app/services"
	"github.com/yeremiapane/cleanmate-app/utils"
)

const (
	SessionCookie = "cleanmate_session"
	sessionIDKey  = "session_id"
)

type SessionReader interface {
	Get(ctx context.Context, id string) (services.Principal, error)
}

// SessionMiddleware guards console pages. Requests without a live session
// are sent to the login page.
func SessionMiddleware(store SessionReader, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			c.Redirect(http.StatusSeeOther, loginPath)
			c.Abort()
			return
		}

		principal, err := store.Get(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, services.ErrUnauthenticated) {
				utils.ErrorLogger.Errorf("session lookup failed: %v", err)
			}
			c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
			c.Redirect(http.StatusSeeOther, loginPath)
			c.Abort()
			return
		}

		SetPrincipal(c, principal)
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
