package migrations

import (
	"gorm.io/gorm"
)

// MigrateAppBlobColumns adds the icon_data and metadata columns to apps
// tables created before those columns existed. Guarded against
// pragma_table_info so it is idempotent; AutoMigrate covers fresh
// databases but will not see these columns as missing on SQLite once the
// table predates them with a different declared shape.
func MigrateAppBlobColumns(gormDB *gorm.DB) error {
	var tableName string
	err := gormDB.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name='apps'").Scan(&tableName).Error
	if err != nil {
		return err
	}
	if tableName == "" {
		// fresh database, AutoMigrate creates the full table
		return nil
	}

	for _, column := range []string{"icon_data", "metadata"} {
		var existing string
		err = gormDB.Raw("SELECT name FROM pragma_table_info('apps') WHERE name = ?", column).Scan(&existing).Error
		if err != nil {
			return err
		}
		if existing != "" {
			continue
		}
		err = gormDB.Exec("ALTER TABLE apps ADD COLUMN " + column + " BLOB").Error
		if err != nil {
			return err
		}
	}

	return nil
}
