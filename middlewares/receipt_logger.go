package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cleanmate-app/utils"
)

func ReceiptLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() == http.StatusOK {
			utils.InfoLogger.Printf("Receipt generated for booking %s", c.Param("id"))
		} else {
			utils.ErrorLogger.Errorf("Receipt for booking %s failed with status %d", c.Param("id"), c.Writer.Status())
		}
	}
}
