package quota

import (
	"context"
	"net/http"

	"github.com/abduss/modelvault/internal/apperror"
	"github.com/abduss/modelvault/internal/auth"
	"github.com/abduss/modelvault/internal/bucket"
	"github.com/abduss/modelvault/internal/logger"
	"github.com/gin-gonic/gin"
)

type bucketLookup interface {
	Lookup(ctx context.Context, userID int64) (bucket.Assignment, error)
}

// RegisterRoutes mounts the usage endpoint.
func RegisterRoutes(group *gin.RouterGroup, accountant *Accountant, buckets bucketLookup) {
	handler := &httpHandler{accountant: accountant, buckets: buckets}
	group.GET("/storage/usage", handler.usage)
}

type httpHandler struct {
	accountant *Accountant
	buckets    bucketLookup
}

func (h *httpHandler) usage(c *gin.Context) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	ctx := c.Request.Context()

	assignment, err := h.buckets.Lookup(ctx, userID)
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to compute storage usage")
		return
	}

	var snap Snapshot
	if name, assigned := assignment.Name(); assigned {
		snap, err = h.accountant.Snapshot(ctx, userID, name)
	} else {
		var limit int64
		limit, err = h.accountant.LimitFor(ctx, userID)
		snap = Snapshot{LimitBytes: limit}
	}
	if err != nil {
		apperror.Respond(c, logger.FromContext(c), err, "failed to compute storage usage")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"bucket":      snap.Bucket,
		"used_bytes":  snap.UsedBytes,
		"limit_bytes": snap.LimitBytes,
		"used_mb":     snap.UsedMB(),
		"limit_mb":    snap.LimitMB(),
	})
}
