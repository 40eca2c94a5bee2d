package server

import (
	"github.com/abduss/modelvault/internal/auth"
	"github.com/abduss/modelvault/internal/billing"
	"github.com/abduss/modelvault/internal/bucket"
	"github.com/abduss/modelvault/internal/config"
	"github.com/abduss/modelvault/internal/file"
	"github.com/abduss/modelvault/internal/logger"
	"github.com/abduss/modelvault/internal/metrics"
	"github.com/abduss/modelvault/internal/model"
	"github.com/abduss/modelvault/internal/pairing"
	"github.com/abduss/modelvault/internal/presigned"
	"github.com/abduss/modelvault/internal/quota"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router. Nil
// services leave their routes unmounted.
type Dependencies struct {
	Config          config.Config
	Logger          *zap.Logger
	Checks          []Check
	AuthService     *auth.Service
	BucketResolver  *bucket.Resolver
	QuotaAccountant *quota.Accountant
	ModelService    *model.Service
	FileService     *file.Service
	PresignService  *presigned.Service
	BillingService  *billing.Service
	PairingService  *pairing.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware(log))
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps.Checks)
	metrics.InitMetrics()
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	api := router.Group("/v1")

	if deps.ModelService != nil {
		model.RegisterPublicRoutes(api, deps.ModelService)
	}
	if deps.FileService != nil {
		file.RegisterPublicRoutes(api, deps.FileService)
	}
	if deps.BillingService != nil {
		billing.RegisterPublicRoutes(api, deps.BillingService)
	}
	if deps.PairingService != nil {
		pairing.RegisterPublicRoutes(api, deps.PairingService)
	}

	if deps.AuthService == nil {
		return router
	}
	auth.RegisterRoutes(api, deps.AuthService)

	protected := api.Group("/")
	protected.Use(auth.AuthMiddleware(deps.AuthService))

	if deps.BucketResolver != nil {
		bucket.RegisterRoutes(protected, deps.BucketResolver)
		if deps.QuotaAccountant != nil {
			quota.RegisterRoutes(protected, deps.QuotaAccountant, deps.BucketResolver)
		}
	}
	if deps.ModelService != nil {
		model.RegisterRoutes(protected, deps.ModelService)
	}
	if deps.FileService != nil {
		file.RegisterRoutes(protected, deps.FileService)
	}
	if deps.PresignService != nil {
		presigned.RegisterRoutes(protected, deps.PresignService)
	}
	if deps.BillingService != nil {
		billing.RegisterRoutes(protected, deps.BillingService, deps.Config.Server.PublicURL)
	}
	if deps.PairingService != nil {
		pairing.RegisterRoutes(protected, deps.PairingService)
	}

	return router
}
