package file

import (
	"io"
	"net/http"
	"strconv"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/auth"
	"github.com/abduss/modelvault/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterPublicRoutes mounts the object streaming endpoint.
func RegisterPublicRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/files/object", handler.serveObject)
}

// RegisterRoutes mounts file operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/files", handler.uploadFile)
	group.GET("/files", handler.listFiles)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) uploadFile(c *gin.Context) {
	userID, user, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	meta, err := h.service.Upload(c.Request.Context(), userID, user.Username, fileHeader)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to upload file")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "file": meta})
}

func (h *httpHandler) listFiles(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	list, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to list files")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "files": list, "count": len(list)})
}

func (h *httpHandler) serveObject(c *gin.Context) {
	reader, size, contentType, err := h.service.Open(c.Request.Context(), c.Query("bucket"), c.Query("path"))
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to fetch file")
		return
	}
	defer reader.Close()

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Header("Content-Length", strconv.FormatInt(size, 10))
	c.Status(http.StatusOK)

	if _, err := io.Copy(c.Writer, reader); err != nil {
		logger.FromContext(c).Warn("stream object interrupted", zap.Error(err))
	}
}
