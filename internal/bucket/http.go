package bucket

import (
	"net/http"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/auth"
	"github.com/abduss/modelvault/internal/logger"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts bucket endpoints onto the router.
func RegisterRoutes(group *gin.RouterGroup, resolver *Resolver) {
	handler := &httpHandler{resolver: resolver}
	group.GET("/storage/bucket", handler.getBucket)
	group.POST("/storage/bucket", handler.ensureBucket)
}

type httpHandler struct {
	resolver *Resolver
}

func (h *httpHandler) getBucket(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	assignment, err := h.resolver.Lookup(c.Request.Context(), userID)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to fetch bucket")
		return
	}

	name, assigned := assignment.Name()
	c.JSON(http.StatusOK, gin.H{"success": true, "bucket": name, "assigned": assigned})
}

func (h *httpHandler) ensureBucket(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	name, err := h.resolver.Resolve(c.Request.Context(), userID)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to create bucket")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bucket": name, "assigned": true})
}
