package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/blossom-os/softwarehub/catalog"
	"github.com/blossom-os/softwarehub/config"
	"github.com/blossom-os/softwarehub/db"
	"github.com/blossom-os/softwarehub/db/migrations"
	"github.com/blossom-os/softwarehub/events"
	"github.com/blossom-os/softwarehub/flathub"
	"github.com/blossom-os/softwarehub/logger"
	"github.com/blossom-os/softwarehub/pkg/version"
)

type service struct {
	cfg config.Config

	db             *gorm.DB
	store          *catalog.Store
	iconCache      *catalog.IconCache
	syncService    *catalog.SyncService
	eventPublisher events.EventPublisher
	ctx            context.Context
}

func NewService(ctx context.Context) (*service, error) {
	// Load config from environment variables / .env file
	godotenv.Load(".env")
	appConfig := &config.AppConfig{}
	err := envconfig.Process("", appConfig)
	if err != nil {
		return nil, err
	}

	logger.Init(appConfig.LogLevel)
	logger.Logger.Info().Msg("SoftwareHub " + version.Tag)

	cfg := config.NewConfig(appConfig)

	if appConfig.Workdir == "" {
		appConfig.Workdir = cfg.GetDefaultWorkDir()
		logger.Logger.Info().Str("workdir", appConfig.Workdir).Msg("No workdir specified, using default")
	}
	// make sure workdir exists
	os.MkdirAll(appConfig.Workdir, os.ModePerm)

	if appConfig.LogToFile {
		err = logger.AddFileLogger(appConfig.Workdir)
		if err != nil {
			return nil, err
		}
	}

	// If DATABASE_URI is a URI or a path, leave it unchanged.
	// If it only contains a filename, prepend the workdir.
	if !strings.HasPrefix(appConfig.DatabaseUri, "file:") {
		databasePath, _ := filepath.Split(appConfig.DatabaseUri)
		if databasePath == "" {
			appConfig.DatabaseUri = filepath.Join(appConfig.Workdir, appConfig.DatabaseUri)
		}
	}

	gormDB, err := db.NewDB(appConfig.DatabaseUri, appConfig.LogDBQueries)
	if err != nil {
		return nil, err
	}

	err = migrations.Migrate(gormDB)
	if err != nil {
		return nil, err
	}

	eventPublisher := events.NewEventPublisher()

	store := catalog.NewStore(gormDB)
	client := flathub.NewClient(cfg)
	iconCache := catalog.NewIconCache(store, cfg)
	syncService := catalog.NewSyncService(ctx, store, client, iconCache, eventPublisher)

	svc := &service{
		cfg:            cfg,
		ctx:            ctx,
		db:             gormDB,
		store:          store,
		iconCache:      iconCache,
		syncService:    syncService,
		eventPublisher: eventPublisher,
	}

	// populate an empty store without being asked; a filled one only gets
	// the cheap incremental refresh on the periodic schedule
	if !store.CacheReady() {
		syncService.Refresh(false)
	}
	syncService.StartPeriodicSync(appConfig.SyncInterval)

	eventPublisher.Publish(&events.Event{
		Event: "hub_started",
		Properties: map[string]interface{}{
			"version": version.Tag,
		},
	})

	return svc, nil
}

func (svc *service) Shutdown() {
	svc.syncService.Shutdown()
	svc.eventPublisher.PublishSync(&events.Event{
		Event: "hub_stopped",
	})
	db.Stop(svc.db)
}

func (svc *service) GetDB() *gorm.DB {
	return svc.db
}

func (svc *service) GetConfig() config.Config {
	return svc.cfg
}

func (svc *service) GetStore() *catalog.Store {
	return svc.store
}

func (svc *service) GetIconCache() *catalog.IconCache {
	return svc.iconCache
}

func (svc *service) GetSyncService() *catalog.SyncService {
	return svc.syncService
}

func (svc *service) GetEventPublisher() events.EventPublisher {
	return svc.eventPublisher
}
