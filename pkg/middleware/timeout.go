package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/cyberguard/pkg/common"
)

// Timeout aborts handlers that run longer than d with a 503
func Timeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusServiceUnavailable, "request timed out")
		}),
	)
}
