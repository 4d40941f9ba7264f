package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseLimit parses the limit query parameter. Missing, malformed or
// non-positive values fall back to def; values above max are capped.
func ParseLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
