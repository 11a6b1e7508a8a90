package db

import (
	"gorm.io/datatypes"
)

// CachedApp mirrors one appstream record. Non-blob fields are always
// replaced as a unit on upsert; IconData is only ever written by the icon
// cache and survives upserts untouched.
type CachedApp struct {
	AppID       string `gorm:"primaryKey;column:app_id"`
	Name        *string
	Summary     *string
	Description *string
	InstallRef  string  `gorm:"column:install_ref"`
	IconURL     *string `gorm:"column:icon_url"`
	IconPath    *string `gorm:"column:icon_path"` // reserved, not populated by the engine
	IconData    []byte  `gorm:"column:icon_data"`
	Metadata    datatypes.JSON
	CachedAt    int64 `gorm:"not null;index:idx_apps_cached_at"`
}

func (CachedApp) TableName() string {
	return "apps"
}

type CachedCategory struct {
	ID       string `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	CachedAt int64  `gorm:"not null"`
}

func (CachedCategory) TableName() string {
	return "categories"
}

// CachedCategoryCollection is the header row for both real categories and
// the curated collections, which share the category_id key space.
type CachedCategoryCollection struct {
	CategoryID string `gorm:"primaryKey;column:category_id"`
	TotalHits  int64  `gorm:"not null"`
	CachedAt   int64  `gorm:"not null"`
}

func (CachedCategoryCollection) TableName() string {
	return "category_collections"
}

// CategoryCollectionApp is the ordered membership join. Position is
// assigned contiguously from 0 in source order on every replace.
type CategoryCollectionApp struct {
	CategoryID string `gorm:"primaryKey;column:category_id;index:idx_category_collection_apps_category;index:idx_category_collection_apps_position,priority:1"`
	AppID      string `gorm:"primaryKey;column:app_id"`
	Position   int64  `gorm:"not null;index:idx_category_collection_apps_position,priority:2"`
}

func (CategoryCollectionApp) TableName() string {
	return "category_collection_apps"
}
