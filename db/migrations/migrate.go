package migrations

import (
	"github.com/blossom-os/softwarehub/db"
	"gorm.io/gorm"
)

func Migrate(gormDB *gorm.DB) error {
	// Run manual migrations first (for schema changes AutoMigrate can't handle)
	if err := MigrateAppBlobColumns(gormDB); err != nil {
		return err
	}

	// AutoMigrate all core models
	return gormDB.AutoMigrate(
		&db.CachedApp{},
		&db.CachedCategory{},
		&db.CachedCategoryCollection{},
		&db.CategoryCollectionApp{},
	)
}
