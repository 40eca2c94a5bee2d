package billing

import (
	"io"
	"net/http"
	"strings"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/auth"
	"github.com/abduss/modelvault/internal/logger"
	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = int64(65536)

// RegisterPublicRoutes mounts plan listing and the Stripe webhook.
func RegisterPublicRoutes(group *gin.RouterGroup, svc *Service) {
	handler := &httpHandler{svc: svc}
	group.GET("/plans", handler.plans)
	group.POST("/billing/webhook", handler.webhook)
}

// RegisterRoutes mounts the authenticated billing endpoints.
func RegisterRoutes(group *gin.RouterGroup, svc *Service, publicURL string) {
	handler := &httpHandler{svc: svc, publicURL: publicURL}
	group.GET("/billing/subscription", handler.subscription)
	group.POST("/billing/checkout", handler.checkout)
	group.POST("/billing/cancel", handler.cancel)
}

type httpHandler struct {
	svc       *Service
	publicURL string
}

type checkoutRequest struct {
	PlanID int64 `json:"plan_id" binding:"required"`
}

func (h *httpHandler) plans(c *gin.Context) {
	plans, err := h.svc.Plans(c.Request.Context())
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to list plans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "plans": plans})
}

func (h *httpHandler) subscription(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sub, err := h.svc.Subscription(c.Request.Context(), userID)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to load subscription")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "subscription": sub})
}

func (h *httpHandler) checkout(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan_id is required"})
		return
	}

	session, err := h.svc.Checkout(c.Request.Context(), userID, req.PlanID, h.baseURL(c))
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to create checkout session")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *httpHandler) cancel(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), userID); err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to cancel subscription")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "subscription cancelled; access continues until the end of the paid period"})
}

func (h *httpHandler) webhook(c *gin.Context) {
	if !h.svc.WebhookEnabled() {
		c.JSON(http.StatusOK, gin.H{"message": "webhook not configured"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to read body"})
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to process webhook")
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// baseURL prefers the configured public URL, then the Origin header.
func (h *httpHandler) baseURL(c *gin.Context) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	origin := c.GetHeader("Origin")
	if origin == "" {
		origin = c.Request.Host
	}
	if !strings.HasPrefix(origin, "http") {
		origin = "https://" + origin
	}
	return origin
}
