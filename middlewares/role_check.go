package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/utils"
)

// RequireRole lets through principals holding one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.String())
	}
	denied := fmt.Errorf("%s access required", strings.ToLower(strings.Join(names, " or ")))

	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			utils.AbortWithError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			return
		}

		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		utils.AbortWithError(c, http.StatusForbidden, denied)
	}
}
