package server

import (
	"strconv"

	"stock-market-api/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Handler helpers. Error responses use the {"detail": ...} shape everywhere.
// -----------------------------------------------------------------------------

func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// -----------------------------------------------------------------------------

// pathID parses the :id path parameter. On failure it writes a 400 response
// and returns false.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortDetail(c, 400, "Invalid id")
		return 0, false
	}
	return id, true
}

// -----------------------------------------------------------------------------

// queryInt parses an integer query parameter, clamping to [min, max].
// Malformed values fall back to def.
func queryInt(c *gin.Context, name string, def, min, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// -----------------------------------------------------------------------------

// queryDate parses an optional YYYY-MM-DD query parameter. On failure it
// writes a 400 response and returns false.
func queryDate(c *gin.Context, name string) (*models.MDate, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := models.ParseMDate(raw)
	if err != nil {
		abortDetail(c, 400, "Invalid "+name+", expected YYYY-MM-DD")
		return nil, false
	}
	return &d, true
}
