package app

import (
	"context"
	"fmt"

	"hackathon-sync/internal/config"
	"hackathon-sync/internal/observability"
	"hackathon-sync/internal/render"
	"hackathon-sync/internal/storage"
	"hackathon-sync/internal/storage/memory"
	"hackathon-sync/internal/storage/mongo"
	"hackathon-sync/internal/storage/mssql"
	"hackathon-sync/internal/storage/postgres"
)

// OpenRepository открывает хранилище по storage.driver. Закрывает вызывающий.
func OpenRepository(ctx context.Context, cfg config.StorageConfig, logger *observability.Logger) (storage.Repository, error) {
	switch cfg.Driver {
	case "memory":
		return memory.NewRepository(), nil
	case "mssql":
		return mssql.NewRepository(cfg.DSN, cfg.CommandTimeoutMS, cfg.BatchSize, logger)
	case "postgres":
		return postgres.NewRepository(ctx, cfg.DSN, cfg.CommandTimeoutMS, cfg.BatchSize, logger)
	case "mongo":
		return mongo.NewRepository(ctx, cfg.DSN, cfg.Database, cfg.CommandTimeoutMS, cfg.BatchSize, logger)
	}
	return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
}

// NewRenderer: headless Chrome при rod.enabled, иначе обычный HTTP.
func NewRenderer(cfg *config.Config, logger *observability.Logger) (render.Renderer, error) {
	if cfg.Rod.Enabled {
		return render.NewBrowserRenderer(render.BrowserOptions{
			ChromePath:     cfg.Rod.ChromePath,
			UserAgent:      cfg.HTTP.UserAgent,
			PageTimeout:    cfg.GetRodPageTimeout(),
			ReadyTimeout:   cfg.GetRodWaitLoadTimeout(),
			ScrollDelay:    cfg.GetRodLazyLoadDelay(),
			MaxIdleScrolls: cfg.Rod.MaxIdleScrolls,
		}, logger)
	}
	return render.NewStaticRenderer(render.StaticOptions{
		UserAgent:      cfg.HTTP.UserAgent,
		AcceptLanguage: cfg.HTTP.AcceptLanguage,
		ConnectTimeout: cfg.GetConnectTimeout(),
		TotalTimeout:   cfg.GetTotalTimeout(),
		RobotsCacheTTL: cfg.GetRobotsCacheTTL(),
	}, logger), nil
}
