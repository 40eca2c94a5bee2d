package presigned

import (
	"net/http"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/auth"
	"github.com/abduss/modelvault/internal/logger"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the presign endpoint.
func RegisterRoutes(group *gin.RouterGroup, svc *Service) {
	handler := &httpHandler{svc: svc}
	group.POST("/storage/presign", handler.generate)
}

type httpHandler struct {
	svc *Service
}

func (h *httpHandler) generate(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bucket and key are required"})
		return
	}

	grant, err := h.svc.Generate(c.Request.Context(), userID, req)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to generate presigned url")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"url":        grant.URL,
		"method":     grant.Method,
		"bucket":     grant.Bucket,
		"key":        grant.Key,
		"expires_at": grant.ExpiresAt,
	})
}
