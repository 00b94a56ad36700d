package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salescrm/internal/authz"
	"salescrm/internal/middleware"
)

// viewer returns the Viewer placed by the auth middleware. It aborts with 401 when missing.
func viewer(c *gin.Context) (authz.Viewer, bool) {
	v, ok := c.Get(middleware.CtxViewer)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no viewer in context"})
		return authz.Viewer{}, false
	}
	vw, ok := v.(authz.Viewer)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no viewer in context"})
		return authz.Viewer{}, false
	}
	return vw, true
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil || n < 0 {
		return def
	}
	return n
}
