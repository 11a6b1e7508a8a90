package service

import (
	"github.com/blossom-os/softwarehub/catalog"
	"github.com/blossom-os/softwarehub/config"
	"github.com/blossom-os/softwarehub/events"
	"gorm.io/gorm"
)

type Service interface {
	Shutdown()
	GetDB() *gorm.DB
	GetConfig() config.Config
	GetStore() *catalog.Store
	GetIconCache() *catalog.IconCache
	GetSyncService() *catalog.SyncService
	GetEventPublisher() events.EventPublisher
}
