package model

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/auth"
	"github.com/abduss/modelvault/internal/logger"
	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes mounts the public catalog.
func RegisterPublicRoutes(group *gin.RouterGroup, svc *Service) {
	handler := &httpHandler{svc: svc}
	group.GET("/models", handler.catalog)
}

// RegisterRoutes mounts the authenticated model endpoints.
func RegisterRoutes(group *gin.RouterGroup, svc *Service) {
	handler := &httpHandler{svc: svc}
	group.GET("/user-models", handler.userModels)
	group.POST("/models", handler.create)
	group.PUT("/models", handler.rename)
	group.DELETE("/models", handler.delete)
}

type httpHandler struct {
	svc *Service
}

type deleteRequest struct {
	BucketName string `json:"bucketName" binding:"required"`
	FolderName string `json:"folderName" binding:"required"`
}

func (h *httpHandler) catalog(c *gin.Context) {
	models, err := h.svc.Catalog(c.Request.Context())
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to list models")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "models": models})
}

func (h *httpHandler) userModels(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	models, err := h.svc.UserModels(c.Request.Context(), userID)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to list models")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "models": models})
}

func (h *httpHandler) create(c *gin.Context) {
	userID, user, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	image, closeImage, err := formUpload(c, "image")
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to read upload")
		return
	}
	defer closeImage()
	asset, closeAsset, err := formUpload(c, "model")
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to read upload")
		return
	}
	defer closeAsset()
	if image == nil || asset == nil {
		apperror.Respond(c, logger.FromContext(c), ErrMissingFiles, "")
		return
	}

	by := Uploader{UserID: userID, Username: user.Username}
	mdl, err := h.svc.Create(c.Request.Context(), by, c.PostForm("folderName"), *image, *asset)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to upload model")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "model": mdl})
}

func (h *httpHandler) rename(c *gin.Context) {
	userID, user, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	bucketName := c.PostForm("bucketName")
	oldFolder := c.PostForm("oldFolderName")
	newFolder := c.PostForm("newFolderName")
	if bucketName == "" || oldFolder == "" || newFolder == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bucketName, oldFolderName and newFolderName are required"})
		return
	}

	image, closeImage, err := formUpload(c, "image")
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to read upload")
		return
	}
	defer closeImage()
	asset, closeAsset, err := formUpload(c, "model")
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to read upload")
		return
	}
	defer closeAsset()

	by := Uploader{UserID: userID, Username: user.Username}
	mdl, err := h.svc.Rename(c.Request.Context(), by, bucketName, oldFolder, newFolder, image, asset)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to update model")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "model": mdl})
}

func (h *httpHandler) delete(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bucketName and folderName are required"})
		return
	}

	removed, err := h.svc.Delete(c.Request.Context(), userID, req.BucketName, req.FolderName)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to delete model")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": removed})
}

// formUpload opens an optional multipart file. A missing field yields a nil
// upload and no error.
func formUpload(c *gin.Context, field string) (*Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, func() {}, nil
		}
		return nil, func() {}, apperror.Wrap(apperror.ErrValidation, "invalid multipart form", err)
	}
	return openUpload(header)
}

func openUpload(header *multipart.FileHeader) (*Upload, func(), error) {
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	upload := &Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}
	return upload, func() { _ = f.Close() }, nil
}
