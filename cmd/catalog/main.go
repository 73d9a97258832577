package main

import (
	"context"

	"eatme/internal/catalog/handler"
	"eatme/internal/catalog/repository"
	"eatme/internal/catalog/service"
	"eatme/internal/catalog/validator"
	"eatme/pkg/app"
	"eatme/pkg/blob"
	"eatme/pkg/config"
)

const ServiceName = "catalog"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Catalog service")
	menuService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewMenuHandler(menuService, int64(cfg.MaxRequestSize), cfg.Log),
		handler.ImageUploadPrefix,
	)
	serverApp.Run()
}

func initServices(cfg *config.Config) service.MenuService {
	var uploader blob.Uploader
	if cfg.BlobStorageEnabled() {
		s3Uploader, err := blob.NewS3Uploader(context.Background(), blob.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			cfg.Log.Fatal("Failed to configure blob storage", "error", err)
		}
		uploader = s3Uploader
		cfg.Log.Info("Menu image uploads enabled", "bucket", cfg.S3Bucket)
	} else {
		cfg.Log.Warn("Blob storage not configured, menu image uploads are disabled")
	}

	menuService := service.NewMenuService(
		repository.NewMongoMenuRepository(cfg),
		uploader,
		validator.NewMenuValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Menu service initialized", "database", cfg.MongoDatabaseName)
	return menuService
}
