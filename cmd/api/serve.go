package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/modelvault/internal/auth"
	"github.com/abduss/modelvault/internal/billing"
	"github.com/abduss/modelvault/internal/bucket"
	"github.com/abduss/modelvault/internal/catalog"
	"github.com/abduss/modelvault/internal/file"
	"github.com/abduss/modelvault/internal/model"
	"github.com/abduss/modelvault/internal/pairing"
	"github.com/abduss/modelvault/internal/presigned"
	"github.com/abduss/modelvault/internal/quota"
	"github.com/abduss/modelvault/internal/server"
	"github.com/abduss/modelvault/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}

		dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer dbPool.Close()

		rdb, err := storage.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()

		store, err := storage.NewObjectStore(cfg.MinIO, cfg.Storage)
		if err != nil {
			return err
		}
		if err := catalog.Bootstrap(ctx, store, cfg.MinIO.CatalogBucket, cfg.MinIO.UploadsBucket); err != nil {
			return err
		}
		catalog.NewSyncer(store, cfg.MinIO.CatalogBucket, cfg.Storage.CatalogDir, log.Named("catalog")).Start(ctx)

		authService := auth.NewService(auth.NewRepository(dbPool), cfg.Auth)
		resolver := bucket.NewResolver(bucket.NewRepository(dbPool), store)

		billingRepo := billing.NewRepository(dbPool)
		billingService := billing.NewService(billingRepo, billing.NewCheckoutAPI(cfg.Billing.StripeSecretKey), billing.Options{
			WebhookSecret: cfg.Billing.StripeWebhookSecret,
			Currency:      cfg.Billing.Currency,
		}, log.Named("billing"))

		accountant := quota.NewAccountant(store, billingRepo, cfg.Storage.DefaultQuotaBytes)
		modelService := model.NewService(resolver, accountant, model.NewManager(store), store, log.Named("models")).
			WithSharedBuckets(cfg.MinIO.CatalogBucket)
		fileService := file.NewService(store, cfg.MinIO.UploadsBucket, cfg.Storage.MaxUploadBytes)
		presignService := presigned.NewService(store, resolver, accountant, presigned.NewRepository(dbPool), store.PresignTTL())
		pairingService := pairing.NewService(pairing.NewRedisSessions(rdb), pairing.NewRepository(dbPool), log.Named("pairing"))

		gin.SetMode(gin.ReleaseMode)
		router := server.NewRouter(server.Dependencies{
			Config: cfg,
			Logger: log,
			Checks: []server.Check{
				{Component: "postgres", Probe: dbPool.Ping},
				{Component: "minio", Probe: func(ctx context.Context) error {
					_, err := store.ListBuckets(ctx)
					return err
				}},
				{Component: "redis", Probe: func(ctx context.Context) error {
					return rdb.Ping(ctx).Err()
				}},
			},
			AuthService:     authService,
			BucketResolver:  resolver,
			QuotaAccountant: accountant,
			ModelService:    modelService,
			FileService:     fileService,
			PresignService:  presignService,
			BillingService:  billingService,
			PairingService:  pairingService,
		})

		httpServer := &http.Server{
			Addr:         cfg.Server.Address(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("modelvault API listening", zap.String("addr", cfg.Server.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info("shutting down gracefully")
		return httpServer.Shutdown(shutdownCtx)
	},
}
