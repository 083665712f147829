package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/cleanmate-app/hub"
	"github.com/yeremiapane/cleanmate-app/middlewares"
	"github.com/yeremiapane/cleanmate-app/models"
)

// BookingFeedHandler upgrades cleaners and admins to the live booking feed.
func BookingFeedHandler(h *hub.BookingHub, allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origins[origin] || origin == "http://"+r.Host || origin == "https://"+r.Host
		},
	}

	return func(c *gin.Context) {
		p, ok := middlewares.GetPrincipal(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		switch p.Role {
		case models.RoleCleaner, models.RoleAdmin:
		default:
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		h.RegisterClient(ws, p.Role, p.UserID)

		// clients never send; reading detects the disconnect
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		h.UnregisterClient(ws)
	}
}
