package main

import (
	"github.com/abduss/modelvault/internal/catalog"
	"github.com/abduss/modelvault/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upload the local model catalog to object storage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		store, err := storage.NewObjectStore(cfg.MinIO, cfg.Storage)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := catalog.Bootstrap(ctx, store, cfg.MinIO.CatalogBucket, cfg.MinIO.UploadsBucket); err != nil {
			return err
		}

		res, err := catalog.NewSyncer(store, cfg.MinIO.CatalogBucket, cfg.Storage.CatalogDir, log).Run(ctx)
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			log.Warn("some catalog files failed to sync", zap.Int("failed", res.Failed))
		}
		return nil
	},
}
