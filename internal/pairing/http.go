package pairing

import (
	"net/http"
	"strconv"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/auth"
	"github.com/abduss/modelvault/internal/logger"
	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes mounts the device side of pairing.
func RegisterPublicRoutes(group *gin.RouterGroup, svc *Service) {
	handler := &httpHandler{svc: svc}
	group.POST("/pairing/complete", handler.complete)
}

// RegisterRoutes mounts the user side of pairing and device management.
func RegisterRoutes(group *gin.RouterGroup, svc *Service) {
	handler := &httpHandler{svc: svc}
	group.POST("/pairing", handler.create)
	group.GET("/pairing/:id", handler.status)
	group.GET("/devices", handler.devices)
	group.DELETE("/devices/:id", handler.unpair)
}

type httpHandler struct {
	svc *Service
}

type completeRequest struct {
	PairingID          string `json:"pairingId"`
	DeviceSerialNumber string `json:"deviceSerialNumber"`
}

func (h *httpHandler) create(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sess, err := h.svc.Create(c.Request.Context(), userID)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to create pairing session")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pairingId": sess.ID, "expiresAt": sess.ExpiresAt})
}

func (h *httpHandler) status(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status, device, err := h.svc.Status(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to check pairing status")
		return
	}
	if status == StatusCompleted {
		c.JSON(http.StatusOK, gin.H{"status": status, "device": device})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *httpHandler) complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperror.Respond(c, logger.FromContext(c), ErrMissingFields, "")
		return
	}

	created, err := h.svc.Complete(c.Request.Context(), req.PairingID, req.DeviceSerialNumber)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to complete pairing")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"message": "pairing completed"})
}

func (h *httpHandler) devices(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	devices, err := h.svc.Devices(c.Request.Context(), userID)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to fetch devices")
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

func (h *httpHandler) unpair(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	deviceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return
	}

	if err := h.svc.Unpair(c.Request.Context(), userID, deviceID); err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to unpair device")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "device unpaired"})
}
